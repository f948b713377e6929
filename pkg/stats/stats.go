// Package stats compares groups of replicate central values.
//
// The tests mirror their common statistical-package definitions: pooled and
// paired t-tests, Mann-Whitney U, Wilcoxon signed-rank, one-way ANOVA,
// Kruskal-Wallis, Tukey HSD and Shapiro-Wilk. Distribution tails come from
// gonum's distuv; sample moments from gonum's stat.
//
// [Compare] selects the tests the way a Violin SuperPlot reports them: a
// Shapiro-Wilk check decides between parametric and rank tests, two groups get
// a single pairwise test and three or more get an omnibus test plus a posthoc
// matrix.
package stats

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/matzehuels/superviolin/pkg/errors"
)

// Result is the outcome of one hypothesis test.
type Result struct {
	Name      string  `json:"name"`
	Statistic float64 `json:"statistic"`
	P         float64 `json:"p"`
}

func (r Result) String() string {
	return fmt.Sprintf("%s P-value: %s", r.Name, FormatP(r.P))
}

// FormatP renders a p-value with three decimals, or in scientific notation
// below 1e-4.
func FormatP(p float64) string {
	if p < 1e-4 {
		return fmt.Sprintf("%.2e", p)
	}
	return fmt.Sprintf("%.3f", p)
}

func testError(name, format string, args ...any) error {
	return errors.New(errors.ErrCodeStatisticalTest, name+": "+format, args...)
}

// meanVar returns the mean and the unbiased variance.
func meanVar(x []float64) (float64, float64) {
	return stat.MeanVariance(x, nil)
}

// rankData assigns average ranks (1-based) to x, returning the ranks and the
// sizes of every tie group larger than one.
func rankData(x []float64) (ranks []float64, ties []int) {
	n := len(x)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return x[idx[a]] < x[idx[b]] })

	ranks = make([]float64, n)
	for i := 0; i < n; {
		j := i + 1
		for j < n && x[idx[j]] == x[idx[i]] {
			j++
		}
		avg := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			ranks[idx[k]] = avg
		}
		if j-i > 1 {
			ties = append(ties, j-i)
		}
		i = j
	}
	return ranks, ties
}

// tieSum returns Σ(t³ - t) over tie group sizes.
func tieSum(ties []int) float64 {
	var s float64
	for _, t := range ties {
		ft := float64(t)
		s += ft*ft*ft - ft
	}
	return s
}

func finite(x []float64) bool {
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func concat(groups [][]float64) []float64 {
	var out []float64
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// subsetSumCounts returns c where c[s] is the number of k-element subsets of
// {1..n} with sum s, for every k at once: counts[k][s].
func subsetSumCounts(n int) [][]float64 {
	maxSum := n * (n + 1) / 2
	counts := make([][]float64, n+1)
	for k := range counts {
		counts[k] = make([]float64, maxSum+1)
	}
	counts[0][0] = 1
	for v := 1; v <= n; v++ {
		for k := v; k >= 1; k-- {
			for s := maxSum; s >= v; s-- {
				counts[k][s] += counts[k-1][s-v]
			}
		}
	}
	return counts
}
