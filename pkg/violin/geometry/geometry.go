// Package geometry turns stacked density curves into mirrored stripe polygons,
// the violin outline and per-replicate markers.
//
// Horizontal coordinates are in data units around an anchor: a stack value v
// maps to anchor + v·width. The vertical coordinate is the value axis (the
// density grid).
package geometry

import (
	"math"
	"slices"
)

// DefaultWidth is the half-width multiplier applied to normalized stack values.
const DefaultWidth = 0.8

// Polygon is one closed stripe. X and Y have equal length.
type Polygon struct {
	Replicate string
	Index     int
	X, Y      []float64
}

// Outline is the envelope of a violin.
type Outline struct {
	X, Y []float64

	// Patched is set when the endpoints did not coincide and CloseOutline
	// inserted a closing point at both ends.
	Patched bool
}

// Marker is the central-value dot of one replicate.
type Marker struct {
	Replicate string
	Index     int
	X, Y      float64
}

// Violin is the complete geometry of one group.
type Violin struct {
	Group       string
	Anchor      float64
	Bands       []Polygon
	Outline     Outline
	Markers     []Marker
	ScatterSize float64
}

// Input describes one group to Build.
type Input struct {
	Group string

	// Replicates names each band, in stacking order.
	Replicates []string

	Grid  []float64
	Stack [][]float64

	// Centres holds each replicate's central value. NaN means the replicate
	// has no data in this group and gets no marker.
	Centres []float64

	Anchor float64
	Width  float64
}

// Build assembles the stripes, the closed outline and the markers of a group.
// An input without bands yields a violin with no polygons.
func Build(in Input) *Violin {
	if in.Width <= 0 {
		in.Width = DefaultWidth
	}
	v := &Violin{
		Group:       in.Group,
		Anchor:      in.Anchor,
		ScatterSize: ScatterSize(len(in.Replicates)),
	}
	if len(in.Stack) == 0 || len(in.Grid) == 0 {
		return v
	}

	v.Bands = Bands(in.Stack, in.Grid, in.Anchor, in.Width)
	for i := range v.Bands {
		if i < len(in.Replicates) {
			v.Bands[i].Replicate = in.Replicates[i]
		}
	}
	v.Outline = BuildOutline(in.Stack[len(in.Stack)-1], in.Grid, in.Anchor, in.Width)

	for i, c := range in.Centres {
		if i >= len(in.Stack) || math.IsNaN(c) {
			continue
		}
		m := PlaceMarker(in.Stack, in.Grid, i, c, in.Anchor, in.Width)
		if i < len(in.Replicates) {
			m.Replicate = in.Replicates[i]
		}
		v.Markers = append(v.Markers, m)
	}
	return v
}

// rightSides mirrors each cumulative band around the centre line:
// r[i] = -stack[last] + 2·stack[i].
func rightSides(stack [][]float64) [][]float64 {
	last := stack[len(stack)-1]
	out := make([][]float64, len(stack))
	for i, band := range stack {
		r := make([]float64, len(band))
		for j := range band {
			r[j] = -last[j] + 2*band[j]
		}
		out[i] = r
	}
	return out
}

// leftSide returns the left boundary of band i: the negated outer band for the
// first stripe, otherwise the right side of the previous stripe.
func leftSide(stack, right [][]float64, i int) []float64 {
	if i > 0 {
		return right[i-1]
	}
	last := stack[len(stack)-1]
	out := make([]float64, len(last))
	for j, v := range last {
		out[j] = -v
	}
	return out
}

// Bands returns one closed polygon per stacked curve. Stripe i runs up its
// left boundary and back down its right boundary, so Y is the grid followed by
// the reversed grid.
func Bands(stack [][]float64, grid []float64, anchor, width float64) []Polygon {
	if len(stack) == 0 {
		return nil
	}
	right := rightSides(stack)
	y := mirrorY(grid)

	out := make([]Polygon, len(stack))
	for i := range stack {
		left := leftSide(stack, right, i)
		x := make([]float64, 0, 2*len(grid))
		x = append(x, left...)
		x = append(x, reversed(right[i])...)
		for j := range x {
			x[j] = x[j]*width + anchor
		}
		out[i] = Polygon{Index: i, X: x, Y: y}
	}
	return out
}

// BuildOutline returns the closed envelope of the outer band.
func BuildOutline(outer, grid []float64, anchor, width float64) Outline {
	x := make([]float64, 0, 2*len(outer))
	x = append(x, outer...)
	for _, v := range reversed(outer) {
		x = append(x, -v)
	}
	for j := range x {
		x[j] = x[j]*width + anchor
	}
	return CloseOutline(Outline{X: x, Y: mirrorY(grid)})
}

// CloseOutline makes sure the outline starts and ends on the same x. When it
// does not, (round(x0), y0) is inserted at both ends and Patched is set.
func CloseOutline(o Outline) Outline {
	if len(o.X) == 0 || o.X[0] == o.X[len(o.X)-1] {
		return o
	}
	x0, y0 := math.RoundToEven(o.X[0]), o.Y[0]

	x := make([]float64, 0, len(o.X)+2)
	x = append(x, x0)
	x = append(x, o.X...)
	x = append(x, x0)

	y := make([]float64, 0, len(o.Y)+2)
	y = append(y, y0)
	y = append(y, o.Y...)
	y = append(y, y0)

	return Outline{X: x, Y: y, Patched: true}
}

// PlaceMarker positions replicate i's marker at the grid point nearest its
// central value, midway between the stripe's two boundaries there.
func PlaceMarker(stack [][]float64, grid []float64, i int, centre, anchor, width float64) Marker {
	k := nearest(grid, centre)
	right := rightSides(stack)
	left := leftSide(stack, right, i)
	mid := (left[k] + right[i][k]) / 2
	return Marker{Index: i, X: anchor + mid*width, Y: centre}
}

// ScatterSize returns the marker size for a replicate count:
// 10 for up to 3 replicates, 8 for 4 and 4 beyond that.
func ScatterSize(count int) float64 {
	sizes := []float64{10, 8, 6, 4}
	switch {
	case count < 3:
		return sizes[0]
	case count > len(sizes):
		return sizes[len(sizes)-1]
	default:
		return sizes[count-3]
	}
}

// nearest returns the index of the grid value closest to v, preferring the
// lower index on ties.
func nearest(grid []float64, v float64) int {
	best, dist := 0, math.Inf(1)
	for i, g := range grid {
		if d := math.Abs(g - v); d < dist {
			best, dist = i, d
		}
	}
	return best
}

func mirrorY(grid []float64) []float64 {
	y := make([]float64, 0, 2*len(grid))
	y = append(y, grid...)
	return append(y, reversed(grid)...)
}

func reversed(xs []float64) []float64 {
	out := slices.Clone(xs)
	slices.Reverse(out)
	return out
}
