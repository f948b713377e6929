package sink

import (
	"encoding/json"
	"math"

	"github.com/matzehuels/superviolin/pkg/stats"
	"github.com/matzehuels/superviolin/pkg/violin/layout"
)

// JSONOption configures JSON rendering via [RenderJSON].
type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	curves bool
	source string
}

// WithJSONCurves includes each group's grid and normalized stacked curves.
func WithJSONCurves() JSONOption { return func(r *jsonRenderer) { r.curves = true } }

// WithJSONSource records the input name in the output.
func WithJSONSource(name string) JSONOption { return func(r *jsonRenderer) { r.source = name } }

type jsonOutput struct {
	Source       string             `json:"source,omitempty"`
	Width        float64            `json:"width"`
	Height       float64            `json:"height"`
	XLabel       string             `json:"x_label,omitempty"`
	YLabel       string             `json:"y_label,omitempty"`
	LineWidth    float64            `json:"line_width"`
	SepLineWidth float64            `json:"sep_line_width"`
	Legend       bool               `json:"legend,omitempty"`
	Replicates   []jsonReplicate    `json:"replicates"`
	Groups       []jsonGroup        `json:"groups"`
	Axis         layout.Range       `json:"axis"`
	Annotation   *layout.Annotation `json:"annotation,omitempty"`
	Stats        *stats.Comparison  `json:"stats,omitempty"`
	Warnings     []string           `json:"warnings,omitempty"`
}

type jsonReplicate struct {
	Name   string `json:"name"`
	Colour string `json:"colour"`
}

type jsonGroup struct {
	Label    string        `json:"label"`
	Anchor   float64       `json:"anchor"`
	Factor   float64       `json:"bandwidth_factor,omitempty"`
	Centrals []*float64    `json:"centrals"`
	Stripes  []jsonPolygon `json:"stripes,omitempty"`
	Outline  *jsonPolygon  `json:"outline,omitempty"`
	Markers  []jsonMarker  `json:"markers,omitempty"`
	Skeleton *jsonSkeleton `json:"skeleton,omitempty"`
	Grid     []float64     `json:"grid,omitempty"`
	Curves   [][]float64   `json:"curves,omitempty"`
	Patched  bool          `json:"outline_patched,omitempty"`
}

type jsonPolygon struct {
	Replicate string    `json:"replicate,omitempty"`
	X         []float64 `json:"x"`
	Y         []float64 `json:"y"`
}

type jsonMarker struct {
	Replicate string  `json:"replicate"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Size      float64 `json:"size"`
}

type jsonSkeleton struct {
	Centre   float64       `json:"centre"`
	Lower    float64       `json:"lower"`
	Upper    float64       `json:"upper"`
	N        int           `json:"n"`
	Segments [4][4]float64 `json:"segments"`
}

// RenderJSON exports the layout as a pretty-printed JSON document.
//
// Values that JSON cannot carry (NaN central values of replicates without
// data) are written as null. RenderJSON does not modify l and is safe to call
// concurrently.
func RenderJSON(l *layout.Layout, opts ...JSONOption) ([]byte, error) {
	r := jsonRenderer{}
	for _, opt := range opts {
		opt(&r)
	}

	out := jsonOutput{
		Source:       r.source,
		Width:        l.Width,
		Height:       l.Height,
		XLabel:       l.XLabel,
		YLabel:       l.YLabel,
		LineWidth:    l.LineWidth,
		SepLineWidth: l.SepLineWidth,
		Legend:       l.ShowLegend,
		Axis:         l.Axis,
		Annotation:   l.Annotation,
		Stats:        l.Stats,
	}
	for i, rep := range l.Replicates {
		out.Replicates = append(out.Replicates, jsonReplicate{Name: rep, Colour: colourAt(l, i)})
	}
	for _, g := range l.Groups {
		out.Groups = append(out.Groups, buildJSONGroup(g, r.curves))
	}
	for _, w := range l.Warnings {
		out.Warnings = append(out.Warnings, w.Error())
	}
	return json.MarshalIndent(out, "", "  ")
}

func buildJSONGroup(g layout.GroupResult, curves bool) jsonGroup {
	jg := jsonGroup{
		Label:    g.Label,
		Anchor:   g.Anchor,
		Factor:   g.Factor,
		Centrals: make([]*float64, len(g.Centrals)),
	}
	for i, v := range g.Centrals {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			jg.Centrals[i] = &v
		}
	}

	if v := g.Violin; v != nil {
		for _, b := range v.Bands {
			jg.Stripes = append(jg.Stripes, jsonPolygon{Replicate: b.Replicate, X: b.X, Y: b.Y})
		}
		if len(v.Outline.X) > 0 {
			jg.Outline = &jsonPolygon{X: v.Outline.X, Y: v.Outline.Y}
			jg.Patched = v.Outline.Patched
		}
		for _, m := range v.Markers {
			jg.Markers = append(jg.Markers, jsonMarker{Replicate: m.Replicate, X: m.X, Y: m.Y, Size: v.ScatterSize})
		}
	}

	if s := g.Skeleton; s != nil {
		js := &jsonSkeleton{Centre: s.Centre, Lower: s.Lower, Upper: s.Upper, N: s.N}
		for i, seg := range s.Segments() {
			js.Segments[i] = [4]float64{seg.X0, seg.Y0, seg.X1, seg.Y1}
		}
		jg.Skeleton = js
	}

	if curves && g.Domain != nil && g.Stack != nil {
		jg.Grid = g.Domain.Grid
		jg.Curves = g.Stack.Bands
	}
	return jg
}
