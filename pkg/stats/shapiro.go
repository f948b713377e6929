package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// Polynomial coefficients of Royston's (1995) approximation.
var (
	swC1 = []float64{0, 0.221157, -0.147981, -2.07119, 4.434685, -2.706056}
	swC2 = []float64{0, 0.042981, -0.293762, -1.752461, 5.682633, -3.582633}
	swC3 = []float64{0.544, -0.39978, 0.025054, -6.714e-4}
	swC4 = []float64{1.3822, -0.77857, 0.062767, -0.0020322}
	swC5 = []float64{-1.5861, -0.31082, -0.083751, 0.0038915}
	swC6 = []float64{-0.4803, -0.082676, 0.0030302}
	swG  = []float64{-2.273, 0.459}
)

const shapiroMaxN = 5000

func poly(c []float64, x float64) float64 {
	r := 0.0
	for i := len(c) - 1; i >= 0; i-- {
		r = r*x + c[i]
	}
	return r
}

// ShapiroWilk tests x for normality, returning W and its p-value.
// It needs between 3 and 5000 values that are not all equal.
func ShapiroWilk(x []float64) (Result, error) {
	const name = "Shapiro-Wilk"
	n := len(x)
	if n < 3 {
		return Result{Name: name}, testError(name, "need at least 3 values, got %d", n)
	}
	if n > shapiroMaxN {
		return Result{Name: name}, testError(name, "at most %d values supported, got %d", shapiroMaxN, n)
	}
	if !finite(x) {
		return Result{Name: name}, testError(name, "values must be finite")
	}

	xs := append([]float64(nil), x...)
	sort.Float64s(xs)
	if xs[n-1]-xs[0] < 1e-19 {
		return Result{Name: name}, testError(name, "all values are identical")
	}

	a := swilkCoefficients(n)

	var num float64
	for i := 0; i < n/2; i++ {
		num += a[i] * (xs[n-1-i] - xs[i])
	}
	mean, _ := meanVar(xs)
	var ss float64
	for _, v := range xs {
		ss += (v - mean) * (v - mean)
	}
	w := num * num / ss
	if w > 1 {
		w = 1
	}
	return Result{Name: name, Statistic: w, P: swilkP(w, n)}, nil
}

// swilkCoefficients returns the n/2 positive coefficients a_i.
func swilkCoefficients(n int) []float64 {
	nn2 := n / 2
	a := make([]float64, nn2)
	if n == 3 {
		a[0] = math.Sqrt(0.5)
		return a
	}

	an := float64(n)
	m := make([]float64, nn2)
	var summ2 float64
	for i := range m {
		m[i] = distuv.UnitNormal.Quantile((float64(i+1) - 0.375) / (an + 0.25))
		summ2 += m[i] * m[i]
	}
	summ2 *= 2
	ssumm2 := math.Sqrt(summ2)
	rsn := 1 / math.Sqrt(an)

	a1 := poly(swC1, rsn) - m[0]/ssumm2
	i1 := 1
	var fac float64
	if n > 5 {
		i1 = 2
		a2 := -m[1]/ssumm2 + poly(swC2, rsn)
		fac = math.Sqrt((summ2 - 2*m[0]*m[0] - 2*m[1]*m[1]) / (1 - 2*a1*a1 - 2*a2*a2))
		a[1] = a2
	} else {
		fac = math.Sqrt((summ2 - 2*m[0]*m[0]) / (1 - 2*a1*a1))
	}
	a[0] = a1
	for i := i1; i < nn2; i++ {
		a[i] = -m[i] / fac
	}
	return a
}

// swilkP approximates the upper-tail p-value of W.
func swilkP(w float64, n int) float64 {
	if n == 3 {
		const pi6, stqr = 6 / math.Pi, math.Pi / 3
		return math.Max(0, pi6*(math.Asin(math.Sqrt(w))-stqr))
	}

	an := float64(n)
	y := math.Log(1 - w)
	var m, s float64
	if n <= 11 {
		gamma := poly(swG, an)
		if y >= gamma {
			return 1e-99
		}
		y = -math.Log(gamma - y)
		m = poly(swC3, an)
		s = math.Exp(poly(swC4, an))
	} else {
		xx := math.Log(an)
		m = poly(swC5, xx)
		s = math.Exp(poly(swC6, xx))
	}
	return distuv.UnitNormal.Survival((y - m) / s)
}
