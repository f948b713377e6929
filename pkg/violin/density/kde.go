package density

import (
	"math"
	"sort"

	mstats "github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/matzehuels/superviolin/pkg/dataset"
	"github.com/matzehuels/superviolin/pkg/errors"
)

// Mode selects how a fitted curve is post-processed.
type Mode string

const (
	// ModeArea scales each curve so its values sum to the configured area,
	// giving every stripe the same visual weight.
	ModeArea Mode = "area"

	// ModeBaseline shifts each curve so its minimum is zero.
	ModeBaseline Mode = "baseline"
)

// ValidModes is the set of supported density modes.
var ValidModes = map[Mode]bool{ModeArea: true, ModeBaseline: true}

// DefaultArea is the per-stripe area used by ModeArea.
const DefaultArea = 30.0

// Options configures Estimate. Zero values select the defaults.
type Options struct {
	Mode Mode

	// Bandwidth replaces Scott's factor when positive, so h = Bandwidth × sd.
	Bandwidth float64

	// Area is the target sum of each curve in ModeArea.
	Area float64
}

func (o Options) withDefaults() Options {
	if o.Mode == "" {
		o.Mode = ModeArea
	}
	if o.Area <= 0 {
		o.Area = DefaultArea
	}
	return o
}

var invSqrt2Pi = 1 / math.Sqrt(2*math.Pi)

// ScottFactor returns Scott's bandwidth factor n^(-1/5) for univariate data.
func ScottFactor(n int) float64 {
	if n <= 0 {
		return math.NaN()
	}
	return math.Pow(float64(n), -1.0/5)
}

// Estimate fits a Gaussian KDE to a replicate and evaluates it on grid.
//
// Post-processing runs in a fixed order: baseline shift (ModeBaseline), zeroing
// of grid points outside the replicate's [min, max], NaN interpolation, then
// area scaling (ModeArea). Every failure is returned as an error Result; Merge
// turns those into zero curves.
func Estimate(s dataset.Sample, grid []float64, opts Options) Result {
	opts = opts.withDefaults()
	res := Result{Group: s.Group, Replicate: s.Replicate, N: s.Len()}

	if s.Empty() {
		res.Err = errors.New(errors.ErrCodeInsufficientData,
			"group %q replicate %q has no observations", s.Group, s.Replicate)
		return res
	}
	if s.Len() < 2 {
		res.Err = errors.New(errors.ErrCodeDensityFit,
			"group %q replicate %q has a single observation", s.Group, s.Replicate)
		return res
	}
	sd := stat.StdDev(s.Values, nil)
	if !(sd > 0) || math.IsInf(sd, 0) {
		res.Err = errors.New(errors.ErrCodeDensityFit,
			"group %q replicate %q has zero variance", s.Group, s.Replicate)
		return res
	}

	factor := ScottFactor(s.Len())
	if opts.Bandwidth > 0 {
		factor = opts.Bandwidth
	}
	res.Factor = factor
	h := factor * sd

	curve := evaluate(s.Values, grid, h)

	if opts.Mode == ModeBaseline {
		floats.AddConst(-nanMin(curve), curve)
	}

	lo, hi, _ := s.Bounds()
	zeroOutside(curve, grid, lo, hi)
	curve = InterpolateNaN(curve)

	sum := floats.Sum(curve)
	if !(sum > 0) || math.IsInf(sum, 0) {
		res.Err = errors.New(errors.ErrCodeDensityFit,
			"group %q replicate %q: density vanishes on the grid", s.Group, s.Replicate)
		return res
	}
	if opts.Mode == ModeArea {
		floats.Scale(opts.Area/sum, curve)
	}

	res.Curve = curve
	return res
}

// evaluate computes the Gaussian KDE with bandwidth h at each grid point.
func evaluate(values, grid []float64, h float64) []float64 {
	out := make([]float64, len(grid))
	norm := invSqrt2Pi / (float64(len(values)) * h)
	inv := 1 / (2 * h * h)
	for i, x := range grid {
		var sum float64
		for _, v := range values {
			d := x - v
			sum += math.Exp(-d * d * inv)
		}
		out[i] = sum * norm
	}
	return out
}

// zeroOutside zeroes grid points left of lo and right of hi.
// The grid is sorted, so positions come from binary search.
func zeroOutside(curve, grid []float64, lo, hi float64) {
	left := sort.SearchFloat64s(grid, lo)
	for i := 0; i < left && i < len(curve); i++ {
		curve[i] = 0
	}
	right := sort.Search(len(grid), func(i int) bool { return grid[i] > hi })
	for i := right; i < len(curve); i++ {
		curve[i] = 0
	}
}

func nanMin(xs []float64) float64 {
	m := math.Inf(1)
	for _, x := range xs {
		if !math.IsNaN(x) {
			m = math.Min(m, x)
		}
	}
	if math.IsInf(m, 1) {
		return 0
	}
	return m
}

// InterpolateNaN returns a copy of arr with NaN entries replaced.
//
// A NaN at i becomes arr[i+1] minus the median first difference. The last
// element falls back to arr[i-1] plus the median, and to zero when neither
// neighbour is finite.
func InterpolateNaN(arr []float64) []float64 {
	out := make([]float64, len(arr))
	copy(out, arr)

	hasNaN := false
	for _, v := range out {
		if math.IsNaN(v) {
			hasNaN = true
			break
		}
	}
	if !hasNaN {
		return out
	}

	var diffs []float64
	for i := 1; i < len(out); i++ {
		if d := out[i] - out[i-1]; !math.IsNaN(d) {
			diffs = append(diffs, d)
		}
	}
	med, err := mstats.Median(diffs)
	if err != nil {
		med = 0
	}

	for i := len(out) - 1; i >= 0; i-- {
		if !math.IsNaN(out[i]) {
			continue
		}
		switch {
		case i+1 < len(out) && !math.IsNaN(out[i+1]):
			out[i] = out[i+1] - med
		case i > 0 && !math.IsNaN(out[i-1]):
			out[i] = out[i-1] + med
		default:
			out[i] = 0
		}
	}
	return out
}
