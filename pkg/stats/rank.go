package stats

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// exactMWULimit bounds the sample sizes for which Mann-Whitney U uses the
// exact null distribution.
const exactMWULimit = 8

// MannWhitneyU is the two-sided Mann-Whitney U test. The statistic is U of a.
// The exact distribution is used when both samples are smaller than 8 and
// there are no ties; otherwise the normal approximation with tie and
// continuity correction.
func MannWhitneyU(a, b []float64) (Result, error) {
	const name = "Mann-Whitney U test"
	n1, n2 := len(a), len(b)
	if n1 == 0 || n2 == 0 {
		return Result{Name: name}, testError(name, "both samples need values (got %d and %d)", n1, n2)
	}
	all := append(append([]float64(nil), a...), b...)
	ranks, ties := rankData(all)

	var r1 float64
	for _, r := range ranks[:n1] {
		r1 += r
	}
	fn1, fn2 := float64(n1), float64(n2)
	u1 := r1 - fn1*(fn1+1)/2
	u := math.Max(u1, fn1*fn2-u1)

	var p float64
	if n1 < exactMWULimit && n2 < exactMWULimit && len(ties) == 0 {
		p = mwuExactSF(int(math.Round(u)), n1, n2)
	} else {
		n := fn1 + fn2
		sigma2 := fn1 * fn2 / 12 * ((n + 1) - tieSum(ties)/(n*(n-1)))
		if !(sigma2 > 0) {
			return Result{Name: name, Statistic: u1}, testError(name, "all values are tied")
		}
		z := (u - fn1*fn2/2 - 0.5) / math.Sqrt(sigma2)
		p = distuv.UnitNormal.Survival(z)
	}
	return Result{Name: name, Statistic: u1, P: math.Min(1, 2*p)}, nil
}

// mwuExactSF returns P(U >= u) under the null for sample sizes n1 and n2.
func mwuExactSF(u, n1, n2 int) float64 {
	counts := subsetSumCounts(n1 + n2)[n1]
	offset := n1 * (n1 + 1) / 2
	var tail, total float64
	for s, c := range counts {
		if c == 0 {
			continue
		}
		total += c
		if s-offset >= u {
			tail += c
		}
	}
	return tail / total
}

// exactWilcoxonLimit bounds the number of non-zero differences for which the
// signed-rank test uses the exact null distribution.
const exactWilcoxonLimit = 50

// Wilcoxon is the two-sided Wilcoxon signed-rank test on a[i] - b[i].
// Zero differences are discarded. The statistic is min(W+, W-).
func Wilcoxon(a, b []float64) (Result, error) {
	const name = "Wilcoxon signed-rank test"
	if len(a) != len(b) {
		return Result{Name: name}, testError(name, "paired samples differ in length (%d and %d)", len(a), len(b))
	}
	var d []float64
	for i := range a {
		if diff := a[i] - b[i]; diff != 0 {
			d = append(d, diff)
		}
	}
	n := len(d)
	if n == 0 {
		return Result{Name: name}, testError(name, "all differences are zero")
	}

	abs := make([]float64, n)
	for i, v := range d {
		abs[i] = math.Abs(v)
	}
	ranks, ties := rankData(abs)
	var rPlus, rMinus float64
	for i, v := range d {
		if v > 0 {
			rPlus += ranks[i]
		} else {
			rMinus += ranks[i]
		}
	}
	t := math.Min(rPlus, rMinus)
	zeros := len(d) < len(a)

	var p float64
	if n <= exactWilcoxonLimit && len(ties) == 0 && !zeros {
		var cdf, total float64
		for s, c := range signedRankCounts(n) {
			total += c
			if float64(s) <= t {
				cdf += c
			}
		}
		p = 2 * cdf / total
	} else {
		fn := float64(n)
		mean := fn * (fn + 1) / 4
		se := fn*(fn+1)*(2*fn+1) - 0.5*tieSum(ties)
		se = math.Sqrt(se / 24)
		if !(se > 0) {
			return Result{Name: name, Statistic: t}, testError(name, "zero variance")
		}
		z := (t - mean) / se
		p = 2 * distuv.UnitNormal.Survival(math.Abs(z))
	}
	return Result{Name: name, Statistic: t, P: math.Min(1, p)}, nil
}

// signedRankCounts returns c where c[s] is the number of subsets of {1..n}
// with sum s.
func signedRankCounts(n int) []float64 {
	maxSum := n * (n + 1) / 2
	c := make([]float64, maxSum+1)
	c[0] = 1
	for v := 1; v <= n; v++ {
		for s := maxSum; s >= v; s-- {
			c[s] += c[s-v]
		}
	}
	return c
}
