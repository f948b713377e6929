// Package density fits per-replicate kernel density curves on a grid shared by
// every replicate of a group.
//
// The flow for one group is:
//
//	dom, warnings, err := density.Reconcile(samples, density.GridOptions{})
//	results := make([]density.Result, len(samples))
//	for i, s := range samples {
//	    results[i] = density.Estimate(s, dom.Grid, density.Options{})
//	}
//	curves, problems := density.Merge(results, len(dom.Grid))
//
// Failures never abort a group. An empty or degenerate replicate becomes a zero
// curve of grid length so stripe positions stay aligned across groups.
package density

import (
	"math"
	"sort"

	"github.com/matzehuels/superviolin/pkg/dataset"
	"github.com/matzehuels/superviolin/pkg/errors"
)

// DefaultGridPoints is the number of evenly spaced interior grid points.
const DefaultGridPoints = 128

// Span selects the interval covered by the interior grid points.
type Span string

const (
	// SpanIntersection spans [max(minCuts), min(maxCuts)], the overlap of all
	// fittable replicates.
	SpanIntersection Span = "intersection"

	// SpanUnion spans [min(minCuts), max(maxCuts)].
	SpanUnion Span = "union"
)

// ValidSpans is the set of supported grid spans.
var ValidSpans = map[Span]bool{SpanIntersection: true, SpanUnion: true}

// GridOptions configures Reconcile. Zero values select the defaults.
type GridOptions struct {
	Span   Span
	Points int
}

func (o GridOptions) withDefaults() GridOptions {
	if o.Span == "" {
		o.Span = SpanIntersection
	}
	if o.Points <= 1 {
		o.Points = DefaultGridPoints
	}
	return o
}

// Domain is the evaluation grid of one group.
type Domain struct {
	// MinCuts and MaxCuts hold the minimum and maximum of every non-empty
	// replicate, sorted ascending.
	MinCuts []float64
	MaxCuts []float64

	// Lo and Hi bound the interior linspace.
	Lo, Hi float64

	// Grid is strictly increasing and contains every cut.
	Grid []float64
}

// Len returns the number of grid points.
func (d *Domain) Len() int { return len(d.Grid) }

// Reconcile builds the shared evaluation grid for a group's replicates.
//
// Empty replicates contribute no cuts and are reported as INSUFFICIENT_DATA
// warnings. Single-valued replicates keep their cuts but do not constrain the
// interior span. A span that is not positive returns a DEGENERATE_DOMAIN error.
func Reconcile(samples []dataset.Sample, opts GridOptions) (*Domain, []error, error) {
	opts = opts.withDefaults()
	if !ValidSpans[opts.Span] {
		return nil, nil, errors.New(errors.ErrCodeInvalidConfig, "invalid grid span: %q", opts.Span)
	}

	var (
		warnings           []error
		minCuts, maxCuts   []float64
		spanMins, spanMaxs []float64
		group              string
	)
	for _, s := range samples {
		group = s.Group
		lo, hi, ok := s.Bounds()
		if !ok {
			warnings = append(warnings, errors.New(errors.ErrCodeInsufficientData,
				"group %q replicate %q has no observations", s.Group, s.Replicate))
			continue
		}
		minCuts = append(minCuts, lo)
		maxCuts = append(maxCuts, hi)
		if hi > lo {
			spanMins = append(spanMins, lo)
			spanMaxs = append(spanMaxs, hi)
		}
	}
	if len(minCuts) == 0 {
		return nil, warnings, errors.New(errors.ErrCodeDegenerateDomain, "group %q has no observations", group)
	}
	if len(spanMins) == 0 {
		spanMins, spanMaxs = minCuts, maxCuts
	}
	sort.Float64s(minCuts)
	sort.Float64s(maxCuts)

	var lo, hi float64
	switch opts.Span {
	case SpanUnion:
		lo, hi = minOf(spanMins), maxOf(spanMaxs)
	default:
		lo, hi = maxOf(spanMins), minOf(spanMaxs)
	}
	if !(hi > lo) {
		return nil, warnings, errors.New(errors.ErrCodeDegenerateDomain,
			"group %q: replicate ranges do not overlap ([%g, %g]); try --grid-span union", group, lo, hi)
	}

	grid := make([]float64, 0, opts.Points+len(minCuts)+len(maxCuts))
	grid = append(grid, minCuts...)
	grid = append(grid, Linspace(lo, hi, opts.Points)...)
	grid = append(grid, maxCuts...)

	return &Domain{
		MinCuts: minCuts,
		MaxCuts: maxCuts,
		Lo:      lo,
		Hi:      hi,
		Grid:    uniqueSorted(grid),
	}, warnings, nil
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi
	return out
}

func uniqueSorted(xs []float64) []float64 {
	sort.Float64s(xs)
	out := xs[:0]
	for i, x := range xs {
		if i > 0 && x == out[len(out)-1] {
			continue
		}
		out = append(out, x)
	}
	return out
}

func minOf(xs []float64) float64 {
	m := math.Inf(1)
	for _, x := range xs {
		m = math.Min(m, x)
	}
	return m
}

func maxOf(xs []float64) float64 {
	m := math.Inf(-1)
	for _, x := range xs {
		m = math.Max(m, x)
	}
	return m
}
