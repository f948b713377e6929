package density

import "github.com/matzehuels/superviolin/pkg/errors"

// Result is the outcome of fitting one replicate: either a Curve or an Err.
type Result struct {
	Group     string
	Replicate string
	N         int

	// Factor is the bandwidth factor used. Zero when no fit was attempted.
	Factor float64

	Curve []float64
	Err   error
}

// OK reports whether the fit produced a curve.
func (r Result) OK() bool { return r.Err == nil && r.Curve != nil }

// Merge returns one curve per result, substituting a zero curve of length n for
// every failure. The failures are returned in input order.
func Merge(results []Result, n int) ([][]float64, []error) {
	curves := make([][]float64, len(results))
	var problems []error
	for i, r := range results {
		switch {
		case r.OK() && len(r.Curve) == n:
			curves[i] = r.Curve
		case r.OK():
			problems = append(problems, errors.New(errors.ErrCodeInternal,
				"replicate %q curve has %d points, grid has %d", r.Replicate, len(r.Curve), n))
			curves[i] = make([]float64, n)
		default:
			if r.Err != nil {
				problems = append(problems, r.Err)
			}
			curves[i] = make([]float64, n)
		}
	}
	return curves, problems
}

// Factor returns the first bandwidth factor used among results, or zero.
func Factor(results []Result) float64 {
	for _, r := range results {
		if r.Factor > 0 {
			return r.Factor
		}
	}
	return 0
}
