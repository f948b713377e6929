package stats

// Defaults for the normality decision.
const (
	DefaultAlpha          = 0.05
	DefaultNormalFraction = 0.65
)

// Group is one condition's replicate central values.
// Replicates labels each value and is used to pair observations.
type Group struct {
	Label      string
	Replicates []string
	Values     []float64
}

// Options configures Compare.
type Options struct {
	Paired bool

	// Alpha is the Shapiro-Wilk significance level.
	Alpha float64

	// NormalFraction is the share of groups that must pass Shapiro-Wilk for
	// the data to count as normal.
	NormalFraction float64
}

func (o Options) withDefaults() Options {
	if o.Alpha <= 0 {
		o.Alpha = DefaultAlpha
	}
	if o.NormalFraction <= 0 {
		o.NormalFraction = DefaultNormalFraction
	}
	return o
}

// Comparison is the full statistical summary of a plot.
type Comparison struct {
	Groups    []string `json:"groups"`
	Normality []Result `json:"normality"`
	Normal    bool     `json:"normal"`
	Test      Result   `json:"test"`

	// Posthoc is set for three or more groups.
	Posthoc     *Matrix `json:"posthoc,omitempty"`
	PosthocName string  `json:"posthoc_name,omitempty"`
}

// Pair returns the posthoc p-value for two group labels, or the primary test
// p-value when there are only two groups.
func (c *Comparison) Pair(a, b string) (float64, bool) {
	if c.Posthoc != nil {
		return c.Posthoc.Lookup(a, b)
	}
	if len(c.Groups) == 2 {
		return c.Test.P, true
	}
	return 0, false
}

// Normality runs Shapiro-Wilk on every group. A group whose test cannot run
// counts as p = 1. The groups are jointly normal when the share with p above
// alpha exceeds fraction.
func Normality(groups [][]float64, alpha, fraction float64) ([]Result, bool) {
	results := make([]Result, len(groups))
	passed := 0
	for i, g := range groups {
		r, err := ShapiroWilk(g)
		if err != nil {
			r = Result{Name: r.Name, Statistic: 0, P: 1}
		}
		results[i] = r
		if r.P > alpha {
			passed++
		}
	}
	if len(groups) == 0 {
		return results, false
	}
	return results, float64(passed)/float64(len(groups)) > fraction
}

// Compare selects and runs the tests for groups.
//
// Two groups get a t-test (paired or independent) when normal and a
// Mann-Whitney U or Wilcoxon test otherwise. Three or more get one-way ANOVA
// with Tukey HSD when normal, Kruskal-Wallis with Bonferroni-corrected
// Mann-Whitney U otherwise.
func Compare(groups []Group, opts Options) (*Comparison, error) {
	opts = opts.withDefaults()
	if len(groups) < 2 {
		return nil, testError("compare", "need at least 2 groups, got %d", len(groups))
	}

	values := make([][]float64, len(groups))
	c := &Comparison{Groups: make([]string, len(groups))}
	for i, g := range groups {
		values[i] = g.Values
		c.Groups[i] = g.Label
	}
	c.Normality, c.Normal = Normality(values, opts.Alpha, opts.NormalFraction)

	var err error
	if len(groups) == 2 {
		c.Test, err = comparePair(groups[0], groups[1], c.Normal, opts.Paired)
		if err != nil {
			return nil, err
		}
		return c, nil
	}

	if c.Normal {
		if c.Test, err = OneWayANOVA(values); err != nil {
			return nil, err
		}
		if c.Posthoc, err = TukeyHSD(values); err != nil {
			return nil, err
		}
		c.PosthocName = "Tukey HSD"
	} else {
		if c.Test, err = KruskalWallis(values); err != nil {
			return nil, err
		}
		if c.Posthoc, err = PosthocMannWhitney(values); err != nil {
			return nil, err
		}
		c.PosthocName = "Mann-Whitney U (Bonferroni)"
	}
	c.Posthoc.Labels = append([]string(nil), c.Groups...)
	return c, nil
}

func comparePair(a, b Group, normal, paired bool) (Result, error) {
	if !paired {
		if normal {
			return TTestInd(a.Values, b.Values)
		}
		return MannWhitneyU(a.Values, b.Values)
	}
	x, y := Align(a, b)
	if normal {
		return TTestRel(x, y)
	}
	return Wilcoxon(x, y)
}

// Align pairs the values of two groups by common replicate label, in the
// order of a. Values without a partner are dropped.
func Align(a, b Group) (x, y []float64) {
	idx := make(map[string]int, len(b.Replicates))
	for i, r := range b.Replicates {
		idx[r] = i
	}
	for i, r := range a.Replicates {
		j, ok := idx[r]
		if !ok || i >= len(a.Values) || j >= len(b.Values) {
			continue
		}
		x = append(x, a.Values[i])
		y = append(y, b.Values[j])
	}
	return x, y
}
