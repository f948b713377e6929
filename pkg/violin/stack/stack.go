// Package stack accumulates replicate density curves into nested stripes.
package stack

import (
	"math"

	"github.com/matzehuels/superviolin/pkg/errors"
	"github.com/matzehuels/superviolin/pkg/violin/density"
)

// DefaultScale is the peak of the outermost band after normalization.
const DefaultScale = 1.0

// Stacked holds the cumulative curves of one group.
// Bands[i][j] is the sum of replicates 0..i at grid point j, so Bands[len-1]
// is the outer envelope.
type Stacked struct {
	Bands [][]float64

	// Max is the global maximum before normalization.
	Max float64

	// Normalized is false when the maximum was zero or not finite.
	Normalized bool
}

// Outer returns the outermost band, or nil for an empty stack.
func (s *Stacked) Outer() []float64 {
	if len(s.Bands) == 0 {
		return nil
	}
	return s.Bands[len(s.Bands)-1]
}

// Stack merges results into curves of length n, accumulates them in order and
// normalizes so the outer band peaks at scale (DefaultScale when scale <= 0).
//
// Failed results become zero curves and are returned as problems. A zero or
// non-finite maximum adds a NORMALIZATION problem and leaves the stack as is.
func Stack(results []density.Result, n int, scale float64) (*Stacked, []error) {
	if scale <= 0 {
		scale = DefaultScale
	}
	curves, problems := density.Merge(results, n)

	bands := make([][]float64, len(curves))
	for i, c := range curves {
		band := make([]float64, n)
		for j := range band {
			band[j] = c[j]
			if i > 0 {
				band[j] += bands[i-1][j]
			}
		}
		bands[i] = band
	}

	out := &Stacked{Bands: bands, Max: globalMax(bands)}
	if !(out.Max > 0) || math.IsInf(out.Max, 0) {
		group := ""
		if len(results) > 0 {
			group = results[0].Group
		}
		problems = append(problems, errors.New(errors.ErrCodeNormalization,
			"group %q: failed to normalize stripes (max %v)", group, out.Max))
		return out, problems
	}

	k := scale / out.Max
	for _, band := range bands {
		for j := range band {
			band[j] *= k
		}
	}
	out.Normalized = true
	return out, problems
}

// globalMax ignores NaN values.
func globalMax(bands [][]float64) float64 {
	m := math.Inf(-1)
	for _, band := range bands {
		for _, v := range band {
			if !math.IsNaN(v) {
				m = math.Max(m, v)
			}
		}
	}
	if math.IsInf(m, -1) {
		return 0
	}
	return m
}
