package stats

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// OneWayANOVA tests whether the group means are equal.
func OneWayANOVA(groups [][]float64) (Result, error) {
	const name = "One-way ANOVA"
	k := len(groups)
	if k < 2 {
		return Result{Name: name}, testError(name, "need at least 2 groups, got %d", k)
	}
	all := concat(groups)
	n := len(all)
	if n <= k {
		return Result{Name: name}, testError(name, "need more values (%d) than groups (%d)", n, k)
	}
	grand, _ := meanVar(all)

	var ssb, ssw float64
	for i, g := range groups {
		if len(g) == 0 {
			return Result{Name: name}, testError(name, "group %d is empty", i)
		}
		m, _ := meanVar(g)
		ssb += float64(len(g)) * (m - grand) * (m - grand)
		for _, v := range g {
			ssw += (v - m) * (v - m)
		}
	}
	dfb, dfw := float64(k-1), float64(n-k)
	if !(ssw > 0) {
		return Result{Name: name}, testError(name, "zero variance within groups")
	}
	f := (ssb / dfb) / (ssw / dfw)
	p := distuv.F{D1: dfb, D2: dfw}.Survival(f)
	return Result{Name: name, Statistic: f, P: p}, nil
}

// KruskalWallis is the rank-based omnibus test, corrected for ties.
func KruskalWallis(groups [][]float64) (Result, error) {
	const name = "Kruskal-Wallis H-test"
	k := len(groups)
	if k < 2 {
		return Result{Name: name}, testError(name, "need at least 2 groups, got %d", k)
	}
	for i, g := range groups {
		if len(g) == 0 {
			return Result{Name: name}, testError(name, "group %d is empty", i)
		}
	}
	all := concat(groups)
	ranks, ties := rankData(all)
	n := float64(len(all))

	var h float64
	pos := 0
	for _, g := range groups {
		var r float64
		for _, v := range ranks[pos : pos+len(g)] {
			r += v
		}
		pos += len(g)
		h += r * r / float64(len(g))
	}
	h = 12/(n*(n+1))*h - 3*(n+1)

	c := 1 - tieSum(ties)/(n*n*n-n)
	if !(c > 0) {
		return Result{Name: name}, testError(name, "all values are identical")
	}
	h /= c
	p := distuv.ChiSquared{K: float64(k - 1)}.Survival(h)
	return Result{Name: name, Statistic: h, P: math.Min(1, p)}, nil
}
