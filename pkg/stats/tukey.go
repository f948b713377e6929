package stats

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Gauss-Legendre nodes and weights (positive half) for the studentized range
// integrals of Copenhaver and Holland (1988).
var (
	wprobNodes = [6]float64{
		0.981560634246719250690549090149,
		0.904117256370474856678465866119,
		0.769902674194304687036893833213,
		0.587317954286617447296702418941,
		0.367831498998180193752691536644,
		0.125233408511468915472441369464,
	}
	wprobWeights = [6]float64{
		0.047175336386511827194615961485,
		0.106939325995318430960254718194,
		0.160078328543346226334652529543,
		0.203167426723065921749064455810,
		0.233492536538354808760849898925,
		0.249147045813402785000562436043,
	}
	ptukeyNodes = [8]float64{
		0.989400934991649932596154173450,
		0.944575023073232576077988415535,
		0.865631202387831743880467897712,
		0.755404408355003033895101194847,
		0.617876244402643748446671764049,
		0.458016777657227386342419442984,
		0.281603550779258913230460501460,
		0.950125098376374401853193354250e-1,
	}
	ptukeyWeights = [8]float64{
		0.271524594117540948517805724560e-1,
		0.622535239386478928628438369944e-1,
		0.951585116824927848099251076022e-1,
		0.124628971255533872052476282192,
		0.149595988816576732081501730547,
		0.169156519395002538189312079030,
		0.182603415044923588866763667969,
		0.189450610455068496285396723208,
	}
)

func pnorm(x float64) float64 { return distuv.UnitNormal.CDF(x) }

// wprob is the CDF of the range of cc standard normal samples at w, raised to
// the rr-th power.
func wprob(w, rr, cc float64) float64 {
	const (
		nleg   = 12
		ihalf  = 6
		c1     = -30.0
		c2     = -50.0
		c3     = 60.0
		bb     = 8.0
		wlar   = 3.0
		wincr1 = 2.0
		wincr2 = 3.0
	)

	qsqz := w * 0.5
	if qsqz >= bb {
		return 1
	}

	prW := 2*pnorm(qsqz) - 1
	if prW >= math.Exp(c2/cc) {
		prW = math.Pow(prW, cc)
	} else {
		prW = 0
	}

	wincr := wincr2
	if w > wlar {
		wincr = wincr1
	}

	blb := qsqz
	binc := (bb - qsqz) / wincr
	bub := blb + binc
	var einsum float64
	cc1 := cc - 1

	for wi := 1.0; wi <= wincr; wi++ {
		var elsum float64
		a := 0.5 * (bub + blb)
		b := 0.5 * (bub - blb)

		for jj := 1; jj <= nleg; jj++ {
			var j int
			var xx float64
			if ihalf < jj {
				j = nleg - jj + 1
				xx = wprobNodes[j-1]
			} else {
				j = jj
				xx = -wprobNodes[j-1]
			}
			ac := a + b*xx

			qexpo := ac * ac
			if qexpo > c3 {
				break
			}

			pplus := 2 * pnorm(ac)
			pminus := 2 * pnorm(ac-w)

			rinsum := pplus*0.5 - pminus*0.5
			if rinsum >= math.Exp(c1/cc1) {
				elsum += wprobWeights[j-1] * math.Exp(-0.5*qexpo) * math.Pow(rinsum, cc1)
			}
		}
		elsum *= 2 * b * cc / math.Sqrt(2*math.Pi)
		einsum += elsum
		blb = bub
		bub += binc
	}

	prW += einsum
	if prW <= math.Exp(c1/rr) {
		return 0
	}
	prW = math.Pow(prW, rr)
	if prW >= 1 {
		return 1
	}
	return prW
}

// PTukey is the CDF of the studentized range distribution for k means and df
// degrees of freedom.
func PTukey(q float64, k int, df float64) float64 {
	const (
		nlegq  = 16
		ihalfq = 8
		eps1   = -30.0
		eps2   = 1.0e-14
		dhaf   = 100.0
		dquar  = 800.0
		deigh  = 5000.0
		dlarg  = 25000.0
	)
	rr, cc := 1.0, float64(k)

	if q <= 0 {
		return 0
	}
	if df < 2 || cc < 2 || math.IsNaN(q) {
		return math.NaN()
	}
	if math.IsInf(q, 1) {
		return 1
	}
	if df > dlarg {
		return wprob(q, rr, cc)
	}

	f2 := df * 0.5
	lg, _ := math.Lgamma(f2)
	f2lf := f2*math.Log(df) - df*math.Ln2 - lg
	f21 := f2 - 1
	ff4 := df * 0.25

	var ulen float64
	switch {
	case df <= dhaf:
		ulen = 1
	case df <= dquar:
		ulen = 0.5
	case df <= deigh:
		ulen = 0.25
	default:
		ulen = 0.125
	}
	f2lf += math.Log(ulen)

	var ans float64
	for i := 1; i <= 50; i++ {
		var otsum float64
		twa1 := float64(2*i-1) * ulen

		for jj := 1; jj <= nlegq; jj++ {
			var j int
			var t1 float64
			if ihalfq < jj {
				j = jj - ihalfq - 1
				t1 = f2lf + f21*math.Log(twa1+ptukeyNodes[j]*ulen) - (ptukeyNodes[j]*ulen+twa1)*ff4
			} else {
				j = jj - 1
				t1 = f2lf + f21*math.Log(twa1-ptukeyNodes[j]*ulen) + (ptukeyNodes[j]*ulen-twa1)*ff4
			}

			if t1 >= eps1 {
				var qsqz float64
				if ihalfq < jj {
					qsqz = q * math.Sqrt((ptukeyNodes[j]*ulen+twa1)*0.5)
				} else {
					qsqz = q * math.Sqrt((-(ptukeyNodes[j] * ulen)+twa1)*0.5)
				}
				otsum += wprob(qsqz, rr, cc) * ptukeyWeights[j] * math.Exp(t1)
			}
		}

		if float64(i)*ulen >= 1 && otsum <= eps2 {
			break
		}
		ans += otsum
	}
	return math.Min(ans, 1)
}

// TukeyHSD returns the Tukey-Kramer p-value of every pair of groups.
func TukeyHSD(groups [][]float64) (*Matrix, error) {
	const name = "Tukey HSD"
	k := len(groups)
	if k < 2 {
		return nil, testError(name, "need at least 2 groups, got %d", k)
	}
	n := 0
	var ssw float64
	means := make([]float64, k)
	for i, g := range groups {
		if len(g) == 0 {
			return nil, testError(name, "group %d is empty", i)
		}
		means[i], _ = meanVar(g)
		for _, v := range g {
			ssw += (v - means[i]) * (v - means[i])
		}
		n += len(g)
	}
	df := float64(n - k)
	if df < 2 {
		return nil, testError(name, "not enough values for %d groups", k)
	}
	mse := ssw / df
	if !(mse > 0) {
		return nil, testError(name, "zero variance within groups")
	}

	m := NewMatrix(k)
	for i := 0; i < k; i++ {
		for j := i + 1; j < k; j++ {
			se := math.Sqrt(mse / 2 * (1/float64(len(groups[i])) + 1/float64(len(groups[j]))))
			q := math.Abs(means[i]-means[j]) / se
			p := 1 - PTukey(q, k, df)
			m.Set(i, j, math.Min(1, math.Max(0, p)))
		}
	}
	return m, nil
}
