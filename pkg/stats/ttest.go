package stats

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// twoSidedT returns the two-sided p-value of t with df degrees of freedom.
func twoSidedT(t, df float64) float64 {
	d := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return math.Min(1, 2*d.Survival(math.Abs(t)))
}

// TTestInd is Student's two-sample t-test with pooled variance.
func TTestInd(a, b []float64) (Result, error) {
	const name = "Independent t-test"
	n1, n2 := float64(len(a)), float64(len(b))
	if len(a) < 2 || len(b) < 2 {
		return Result{Name: name}, testError(name, "each group needs at least 2 values (got %d and %d)", len(a), len(b))
	}
	m1, v1 := meanVar(a)
	m2, v2 := meanVar(b)
	df := n1 + n2 - 2
	pooled := ((n1-1)*v1 + (n2-1)*v2) / df
	se := math.Sqrt(pooled * (1/n1 + 1/n2))
	if !(se > 0) {
		return Result{Name: name}, testError(name, "zero variance in both groups")
	}
	t := (m1 - m2) / se
	return Result{Name: name, Statistic: t, P: twoSidedT(t, df)}, nil
}

// TTestRel is the paired t-test on a[i] - b[i].
func TTestRel(a, b []float64) (Result, error) {
	const name = "Paired t-test"
	if len(a) != len(b) {
		return Result{Name: name}, testError(name, "paired samples differ in length (%d and %d)", len(a), len(b))
	}
	if len(a) < 2 {
		return Result{Name: name}, testError(name, "need at least 2 pairs, got %d", len(a))
	}
	d := make([]float64, len(a))
	for i := range a {
		d[i] = a[i] - b[i]
	}
	m, v := meanVar(d)
	n := float64(len(d))
	se := math.Sqrt(v / n)
	if !(se > 0) {
		return Result{Name: name}, testError(name, "differences have zero variance")
	}
	t := m / se
	return Result{Name: name, Statistic: t, P: twoSidedT(t, n-1)}, nil
}
