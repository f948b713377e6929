package stats

import (
	"bytes"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/matzehuels/superviolin/pkg/errors"
)

func TestFormatP(t *testing.T) {
	tests := []struct {
		p    float64
		want string
	}{
		{0.5, "0.500"},
		{0.0432, "0.043"},
		{1e-4, "0.000"},
		{5.689e-5, "5.69e-05"},
		{1, "1.000"},
	}
	for _, tt := range tests {
		if got := FormatP(tt.p); got != tt.want {
			t.Errorf("FormatP(%v) = %q, want %q", tt.p, got, tt.want)
		}
	}
}

func TestRankData(t *testing.T) {
	ranks, ties := rankData([]float64{10, 20, 20, 5, 20})
	assert.Equal(t, []float64{2, 4, 4, 1, 4}, ranks)
	assert.Equal(t, []int{3}, ties)
	assert.Equal(t, 24.0, tieSum(ties))
}

func TestShapiroWilk(t *testing.T) {
	r, err := ShapiroWilk([]float64{1, 2, 4})
	require.NoError(t, err)
	assert.InDelta(t, 0.9642857142857142, r.Statistic, 1e-12)
	assert.InDelta(t, 0.6368868450289692, r.P, 1e-9)

	r, err = ShapiroWilk([]float64{10, 11, 9})
	require.NoError(t, err)
	assert.InDelta(t, 1, r.Statistic, 1e-12)
	assert.InDelta(t, 1, r.P, 1e-9)

	even := make([]float64, 20)
	for i := range even {
		even[i] = float64(i + 1)
	}
	r, err = ShapiroWilk(even)
	require.NoError(t, err)
	assert.InDelta(t, 0.96037518, r.Statistic, 1e-6)
	assert.InDelta(t, 0.55137174, r.P, 1e-5)

	skewed := []float64{1, 1.1, 1.2, 1.3, 1.4, 1.5, 1.6, 1.7, 1.8, 1.9, 2, 10, 20, 50}
	r, err = ShapiroWilk(skewed)
	require.NoError(t, err)
	assert.Less(t, r.P, 0.01)

	small := []float64{2.1, 3.4, 1.9, 5.6, 4.4, 2.8, 3.3}
	r, err = ShapiroWilk(small)
	require.NoError(t, err)
	assert.Greater(t, r.P, 0.05)
}

func TestShapiroWilkErrors(t *testing.T) {
	for _, x := range [][]float64{{1, 2}, {3, 3, 3}, {1, math.NaN(), 2}} {
		_, err := ShapiroWilk(x)
		assert.True(t, errors.Is(err, errors.ErrCodeStatisticalTest), "ShapiroWilk(%v) error = %v", x, err)
	}
}

func TestTTestInd(t *testing.T) {
	r, err := TTestInd([]float64{1, 2, 3, 4, 5}, []float64{2, 4, 6, 8, 10})
	require.NoError(t, err)
	assert.InDelta(t, -1.8973665961010275, r.Statistic, 1e-12)
	assert.InDelta(t, 0.09434977284235274, r.P, 1e-7)

	_, err = TTestInd([]float64{1, 1, 1}, []float64{2, 2, 2})
	assert.True(t, errors.Is(err, errors.ErrCodeStatisticalTest))
}

func TestTTestRel(t *testing.T) {
	r, err := TTestRel([]float64{1, 2, 3, 4, 5}, []float64{1.5, 2.1, 3.9, 4.2, 6})
	require.NoError(t, err)
	assert.InDelta(t, -2.9907833883572423, r.Statistic, 1e-12)
	assert.InDelta(t, 0.04030691684552557, r.P, 1e-7)

	_, err = TTestRel([]float64{1, 2}, []float64{1})
	assert.Error(t, err)
}

func TestMannWhitneyUExact(t *testing.T) {
	r, err := MannWhitneyU([]float64{1, 2, 3}, []float64{4, 5, 6})
	require.NoError(t, err)
	assert.Equal(t, 0.0, r.Statistic)
	assert.InDelta(t, 0.1, r.P, 1e-12)

	r, err = MannWhitneyU([]float64{4, 1, 6}, []float64{2, 5, 3})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, r.P, 1e-12)
}

func TestMannWhitneyUAsymptotic(t *testing.T) {
	a := []float64{1, 2, 2, 3, 4, 5, 6, 7, 8}
	b := []float64{2, 5, 9, 10, 11, 12, 13, 14, 15}
	r, err := MannWhitneyU(a, b)
	require.NoError(t, err)
	assert.Equal(t, 10.5, r.Statistic)
	assert.InDelta(t, 0.009010371424827674, r.P, 1e-9)
}

func TestWilcoxon(t *testing.T) {
	r, err := Wilcoxon([]float64{2, 4, 6, 8, 10}, []float64{1, 2, 3, 4, 5})
	require.NoError(t, err)
	assert.Equal(t, 0.0, r.Statistic)
	assert.InDelta(t, 0.0625, r.P, 1e-12)

	_, err = Wilcoxon([]float64{1, 2}, []float64{1, 2})
	assert.True(t, errors.Is(err, errors.ErrCodeStatisticalTest))
}

func TestOneWayANOVA(t *testing.T) {
	r, err := OneWayANOVA([][]float64{{10, 11, 9}, {15, 16, 14}, {20, 19, 21}})
	require.NoError(t, err)
	assert.InDelta(t, 75, r.Statistic, 1e-9)
	// F(2, d) has survival (1 + 2f/d)^(-d/2).
	assert.InDelta(t, 5.689576695493855e-05, r.P, 1e-10)

	_, err = OneWayANOVA([][]float64{{1, 1}, {2, 2}})
	assert.True(t, errors.Is(err, errors.ErrCodeStatisticalTest))
}

func TestKruskalWallis(t *testing.T) {
	r, err := KruskalWallis([][]float64{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}})
	require.NoError(t, err)
	assert.InDelta(t, 7.2, r.Statistic, 1e-9)
	assert.InDelta(t, 0.02732372244729256, r.P, 1e-9)

	_, err = KruskalWallis([][]float64{{1, 1}, {1, 1}})
	assert.True(t, errors.Is(err, errors.ErrCodeStatisticalTest))
}

func TestPTukeyTwoMeansMatchesT(t *testing.T) {
	// For two means the studentized range is sqrt(2)·|t|.
	for _, tt := range []struct{ q, df float64 }{{1, 5}, {3, 10}, {4.5, 30}} {
		d := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: tt.df}
		want := 1 - 2*d.Survival(tt.q/math.Sqrt2)
		assert.InDelta(t, want, PTukey(tt.q, 2, tt.df), 1e-5, "q=%v df=%v", tt.q, tt.df)
	}
}

func TestPTukeyCriticalValues(t *testing.T) {
	// Upper 5% points of the studentized range.
	tests := []struct {
		q  float64
		k  int
		df float64
	}{
		{4.339195, 3, 6},
		{3.958293, 4, 20},
	}
	for _, tt := range tests {
		assert.InDelta(t, 0.95, PTukey(tt.q, tt.k, tt.df), 1e-3, "k=%d df=%v", tt.k, tt.df)
	}
	assert.Equal(t, 0.0, PTukey(0, 3, 10))
	assert.True(t, math.IsNaN(PTukey(1, 3, 1)))
}

func TestMatrixTSV(t *testing.T) {
	m := NewMatrix(3)
	m.Labels = []string{"a", "b", "c"}
	m.Set(0, 1, 0.01234)
	m.Set(1, 2, 0.5)
	m.Set(0, 2, 2e-7)

	var buf bytes.Buffer
	require.NoError(t, m.WriteTSV(&buf))
	want := "\ta\tb\tc\n" +
		"a\t1.0\t0.012\t0.0\n" +
		"b\t0.012\t1.0\t0.5\n" +
		"c\t0.0\t0.5\t1.0\n"
	assert.Equal(t, want, buf.String())

	p, ok := m.Lookup("c", "b")
	assert.True(t, ok)
	assert.Equal(t, 0.5, p)
}

func TestPosthocMannWhitney(t *testing.T) {
	m, err := PosthocMannWhitney([][]float64{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}})
	require.NoError(t, err)
	// 0.1 × 3 comparisons.
	assert.InDelta(t, 0.3, m.At(0, 1), 1e-12)
	assert.Equal(t, m.At(0, 1), m.At(1, 0))
	assert.Equal(t, 1.0, m.At(2, 2))
}

func threeGroups() []Group {
	reps := []string{"r1", "r2", "r3"}
	return []Group{
		{Label: "a", Replicates: reps, Values: []float64{10, 11, 9}},
		{Label: "b", Replicates: reps, Values: []float64{15, 16, 14}},
		{Label: "c", Replicates: reps, Values: []float64{20, 19, 21}},
	}
}

func TestCompareThreeGroups(t *testing.T) {
	c, err := Compare(threeGroups(), Options{})
	require.NoError(t, err)
	require.Len(t, c.Normality, 3)
	assert.True(t, c.Normal)
	assert.Equal(t, "One-way ANOVA", c.Test.Name)
	assert.Equal(t, "Tukey HSD", c.PosthocName)

	require.NotNil(t, c.Posthoc)
	require.Equal(t, 3, c.Posthoc.Len())
	for i := 0; i < 3; i++ {
		assert.Equal(t, 1.0, c.Posthoc.At(i, i))
		for j := 0; j < 3; j++ {
			assert.Equal(t, c.Posthoc.At(i, j), c.Posthoc.At(j, i))
			if i != j {
				assert.Less(t, c.Posthoc.At(i, j), 0.01)
			}
		}
	}
	// Larger mean differences give smaller p-values.
	assert.LessOrEqual(t, c.Posthoc.At(0, 2), c.Posthoc.At(0, 1))

	p, ok := c.Pair("a", "c")
	assert.True(t, ok)
	assert.Equal(t, c.Posthoc.At(0, 2), p)
}

func TestCompareNonNormalUsesRankTests(t *testing.T) {
	skew := []float64{1, 1.1, 1.2, 1.3, 1.4, 1.5, 1.6, 1.7, 1.8, 1.9, 2, 10, 20, 50}
	groups := []Group{
		{Label: "a", Values: skew},
		{Label: "b", Values: skew},
		{Label: "c", Values: append([]float64{0.5}, skew...)},
	}
	c, err := Compare(groups, Options{})
	require.NoError(t, err)
	assert.False(t, c.Normal)
	assert.Equal(t, "Kruskal-Wallis H-test", c.Test.Name)
	assert.Equal(t, "Mann-Whitney U (Bonferroni)", c.PosthocName)
}

func TestCompareTwoGroups(t *testing.T) {
	g := threeGroups()[:2]

	c, err := Compare(g, Options{})
	require.NoError(t, err)
	assert.Equal(t, "Independent t-test", c.Test.Name)
	assert.Nil(t, c.Posthoc)

	// b's replicates listed in another order pair by label.
	g[1] = Group{Label: "b", Replicates: []string{"r3", "r1", "r2"}, Values: []float64{13, 15, 16}}
	c, err = Compare(g, Options{Paired: true})
	require.NoError(t, err)
	assert.Equal(t, "Paired t-test", c.Test.Name)
	want, err := TTestRel([]float64{10, 11, 9}, []float64{15, 16, 13})
	require.NoError(t, err)
	assert.Equal(t, want.P, c.Test.P)

	// Constant differences cannot be tested.
	g[1].Values = []float64{14, 15, 16}
	_, err = Compare(g, Options{Paired: true})
	assert.True(t, errors.Is(err, errors.ErrCodeStatisticalTest))
}

func TestCompareNeedsTwoGroups(t *testing.T) {
	_, err := Compare(threeGroups()[:1], Options{})
	assert.True(t, errors.Is(err, errors.ErrCodeStatisticalTest))
}

func TestAlign(t *testing.T) {
	a := Group{Replicates: []string{"r1", "r2", "r3"}, Values: []float64{1, 2, 3}}
	b := Group{Replicates: []string{"r3", "r1"}, Values: []float64{30, 10}}
	x, y := Align(a, b)
	assert.Equal(t, []float64{1, 3}, x)
	assert.Equal(t, []float64{10, 30}, y)
}

func TestTTestFalsePositiveRate(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	draw := func(n int) []float64 {
		out := make([]float64, n)
		for i := range out {
			out[i] = 10 + 2*r.NormFloat64()
		}
		return out
	}

	const trials = 1000
	rejections := 0
	for i := 0; i < trials; i++ {
		res, err := TTestInd(draw(5), draw(5))
		require.NoError(t, err)
		if res.P <= 0.05 {
			rejections++
		}
	}
	// Expect about 5% false positives.
	assert.Less(t, rejections, 100, "rejected %d of %d", rejections, trials)
}
