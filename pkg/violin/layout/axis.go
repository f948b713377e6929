package layout

import (
	"fmt"
	"math"

	"gonum.org/v1/plot"

	"github.com/matzehuels/superviolin/pkg/stats"
)

// axisMargin is the share of the data span added above and below.
const axisMargin = 0.05

// Tick is a labelled major tick on the value axis.
type Tick struct {
	Value float64 `json:"value"`
	Label string  `json:"label"`
}

// Range is the value-axis extent of a plot.
type Range struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Ticks []Tick  `json:"ticks"`

	// User is set when the range comes from user-supplied limits.
	User bool `json:"user,omitempty"`
}

// Span returns Max - Min.
func (r Range) Span() float64 { return r.Max - r.Min }

// Axis returns the value-axis range for groups. User limits win; otherwise
// the range covers every violin, marker and skeleton with a 5% margin.
func Axis(groups []GroupResult, lim Limits) Range {
	if lim.Set {
		return newRange(lim.Lo, lim.Hi, true)
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	extend := func(v float64) {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return
		}
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	for _, g := range groups {
		if g.Domain != nil && g.Domain.Len() > 0 {
			extend(g.Domain.Grid[0])
			extend(g.Domain.Grid[g.Domain.Len()-1])
		}
		if g.Violin != nil {
			for _, m := range g.Violin.Markers {
				extend(m.Y)
			}
		}
		if g.Skeleton != nil {
			extend(g.Skeleton.Lower)
			extend(g.Skeleton.Upper)
		}
	}
	if lo > hi {
		return newRange(0, 1, false)
	}
	span := hi - lo
	if span == 0 {
		span = math.Max(math.Abs(lo), 1)
	}
	return newRange(lo-axisMargin*span, hi+axisMargin*span, false)
}

func newRange(lo, hi float64, user bool) Range {
	r := Range{Min: lo, Max: hi, User: user}
	for _, t := range (plot.DefaultTicks{}).Ticks(lo, hi) {
		if t.IsMinor() || t.Value < lo || t.Value > hi {
			continue
		}
		r.Ticks = append(r.Ticks, Tick{Value: t.Value, Label: t.Label})
	}
	return r
}

// XLimits returns the horizontal data range: one unit beyond the first and
// last group anchors.
func (l *Layout) XLimits() (lo, hi float64) {
	n := max(len(l.Groups), 1)
	return -1, GroupSpacing*float64(n-1) + 1
}

// Annotation is the set of significance brackets drawn above the violins.
type Annotation struct {
	Brackets []Bracket `json:"brackets"`
}

// Bracket joins two group anchors with a labelled polyline.
type Bracket struct {
	A, B string    `json:"-"`
	X    []float64 `json:"x"`
	Y    []float64 `json:"y"`

	Text  string  `json:"text"`
	TextX float64 `json:"text_x"`
	TextY float64 `json:"text_y"`
}

// annotationStep is the bracket spacing as a share of the axis span.
const annotationStep = 0.03

// Annotate places significance brackets for two or three groups above axis and
// returns the enlarged axis that fits them. Other group counts get no brackets
// and leave the axis unchanged.
func Annotate(c *stats.Comparison, axis Range, labels []string) (*Annotation, Range, error) {
	inc := annotationStep * axis.Span()
	switch len(labels) {
	case 2:
		y := axis.Max + inc
		h := y + inc
		x1, x2 := 0.0, GroupSpacing
		p, _ := c.Pair(labels[0], labels[1])
		ann := &Annotation{Brackets: []Bracket{{
			A: labels[0], B: labels[1],
			X:    []float64{x1, x1, x2, x2},
			Y:    []float64{y, h, h, y},
			Text: pText(p), TextX: (x1 + x2) / 2, TextY: h,
		}}}
		return ann, newRange(axis.Min, axis.Max+10*inc, false), nil

	case 3:
		ann := &Annotation{}
		y := axis.Max + inc
		for _, pair := range [][2]int{{0, 1}, {1, 2}, {0, 2}} {
			h := y + 0.02*math.Abs(y)
			y += 5 * inc
			x1 := GroupSpacing * float64(pair[0])
			x2 := GroupSpacing * float64(pair[1])
			a, b := labels[pair[0]], labels[pair[1]]
			p, _ := c.Pair(a, b)
			ann.Brackets = append(ann.Brackets, Bracket{
				A: a, B: b,
				X:    []float64{x1, x1, x2, x2},
				Y:    []float64{h, y, y, h},
				Text: pText(p), TextX: (x1 + x2) / 2, TextY: y,
			})
		}
		return ann, newRange(axis.Min, axis.Min+1.5*axis.Span(), false), nil
	}
	return nil, axis, nil
}

func pText(p float64) string {
	return fmt.Sprintf("P = %s", stats.FormatP(p))
}
