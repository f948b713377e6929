package sink

import (
	"bytes"
	"fmt"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
	"gonum.org/v1/plot/vg/vgpdf"

	"github.com/matzehuels/superviolin/pkg/violin/layout"
)

// DefaultDPI is the raster resolution of PNG output.
const DefaultDPI = 300

// PNGOption configures PNG rendering.
type PNGOption func(*pngRenderer)

type pngRenderer struct {
	dpi int
}

// WithDPI sets the PNG resolution (default 300).
func WithDPI(dpi int) PNGOption {
	return func(r *pngRenderer) {
		if dpi > 0 {
			r.dpi = dpi
		}
	}
}

func newPNGRenderer(opts []PNGOption) pngRenderer {
	r := pngRenderer{dpi: DefaultDPI}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// RenderPNG draws the layout as a PNG image.
func RenderPNG(l *layout.Layout, opts ...PNGOption) ([]byte, error) {
	r := newPNGRenderer(opts)
	p, err := buildPlot(l)
	if err != nil {
		return nil, err
	}
	w, h := figureSize(l)
	c := vgimg.NewWith(vgimg.UseWH(w, h), vgimg.UseDPI(r.dpi))
	p.Draw(draw.New(c))

	var buf bytes.Buffer
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderPDF draws the layout as a single-page vector PDF.
func RenderPDF(l *layout.Layout) ([]byte, error) {
	p, err := buildPlot(l)
	if err != nil {
		return nil, err
	}
	w, h := figureSize(l)
	c := vgpdf.New(w, h)
	p.Draw(draw.New(c))

	var buf bytes.Buffer
	if _, err := c.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func figureSize(l *layout.Layout) (vg.Length, vg.Length) {
	w := l.Width
	if l.ShowLegend {
		w += legendWidth
	}
	return vg.Length(w) * vg.Inch, vg.Length(l.Height) * vg.Inch
}

// buildPlot assembles a gonum plot with the same elements RenderSVG draws.
func buildPlot(l *layout.Layout) (*plot.Plot, error) {
	p := plot.New()
	p.X.Min, p.X.Max = l.XLimits()
	p.Y.Min, p.Y.Max = l.Axis.Min, l.Axis.Max
	p.X.Label.Text = l.XLabel
	p.Y.Label.Text = l.YLabel
	p.X.Width = vg.Points(l.LineWidth)
	p.Y.Width = vg.Points(l.LineWidth)

	xticks := make([]plot.Tick, len(l.Groups))
	for i, g := range l.Groups {
		xticks[i] = plot.Tick{Value: g.Anchor, Label: g.Label}
	}
	p.X.Tick.Marker = plot.ConstantTicks(xticks)
	yticks := make([]plot.Tick, len(l.Axis.Ticks))
	for i, t := range l.Axis.Ticks {
		yticks[i] = plot.Tick{Value: t.Value, Label: t.Label}
	}
	p.Y.Tick.Marker = plot.ConstantTicks(yticks)

	colours, err := plotColours(l.Colours)
	if err != nil {
		return nil, err
	}
	legend := make([]*plotter.Polygon, len(l.Replicates))

	for _, g := range l.Groups {
		if g.Violin == nil {
			continue
		}
		for _, b := range g.Violin.Bands {
			poly, err := plotter.NewPolygon(xys(b.X, b.Y))
			if err != nil {
				return nil, fmt.Errorf("stripe %s/%s: %w", g.Label, b.Replicate, err)
			}
			poly.Color = colourOr(colours, b.Index)
			poly.LineStyle.Width = vg.Points(l.SepLineWidth)
			poly.LineStyle.Color = color.Black
			p.Add(poly)
			if b.Index < len(legend) && legend[b.Index] == nil {
				legend[b.Index] = poly
			}
		}
		if len(g.Violin.Outline.X) > 0 {
			line, err := plotter.NewLine(xys(g.Violin.Outline.X, g.Violin.Outline.Y))
			if err != nil {
				return nil, fmt.Errorf("outline %s: %w", g.Label, err)
			}
			line.LineStyle.Width = vg.Points(l.LineWidth)
			p.Add(line)
		}
		for _, m := range g.Violin.Markers {
			sc, err := plotter.NewScatter(plotter.XYs{{X: m.X, Y: m.Y}})
			if err != nil {
				return nil, fmt.Errorf("marker %s/%s: %w", g.Label, m.Replicate, err)
			}
			sc.GlyphStyle = draw.GlyphStyle{
				Color:  colourOr(colours, m.Index),
				Radius: vg.Points(math.Sqrt(g.Violin.ScatterSize) / 2),
				Shape:  draw.CircleGlyph{},
			}
			ring, _ := plotter.NewScatter(plotter.XYs{{X: m.X, Y: m.Y}})
			ring.GlyphStyle = draw.GlyphStyle{
				Color:  color.Black,
				Radius: sc.GlyphStyle.Radius,
				Shape:  draw.RingGlyph{},
			}
			p.Add(sc, ring)
		}
	}

	for _, g := range l.Groups {
		if g.Skeleton == nil {
			continue
		}
		for _, s := range g.Skeleton.Segments() {
			line, err := plotter.NewLine(plotter.XYs{{X: s.X0, Y: s.Y0}, {X: s.X1, Y: s.Y1}})
			if err != nil {
				return nil, fmt.Errorf("skeleton %s: %w", g.Label, err)
			}
			line.LineStyle.Width = vg.Points(l.LineWidth)
			p.Add(line)
		}
	}

	if l.Annotation != nil {
		var texts plotter.XYLabels
		for _, b := range l.Annotation.Brackets {
			line, err := plotter.NewLine(xys(b.X, b.Y))
			if err != nil {
				return nil, fmt.Errorf("bracket %s-%s: %w", b.A, b.B, err)
			}
			line.LineStyle.Width = vg.Points(l.LineWidth)
			p.Add(line)
			texts.XYs = append(texts.XYs, plotter.XY{X: b.TextX, Y: b.TextY})
			texts.Labels = append(texts.Labels, b.Text)
		}
		labels, err := plotter.NewLabels(texts)
		if err != nil {
			return nil, fmt.Errorf("annotation labels: %w", err)
		}
		for i := range labels.TextStyle {
			labels.TextStyle[i].XAlign = text.XCenter
			labels.TextStyle[i].YAlign = text.YBottom
		}
		p.Add(labels)
	}

	if l.ShowLegend {
		p.Legend.Top = true
		for i, rep := range l.Replicates {
			if legend[i] != nil {
				p.Legend.Add(rep, legend[i])
			}
		}
	}
	return p, nil
}

func xys(xs, ys []float64) plotter.XYs {
	out := make(plotter.XYs, len(xs))
	for i := range xs {
		out[i] = plotter.XY{X: xs[i], Y: ys[i]}
	}
	return out
}

func plotColours(hex []string) ([]color.Color, error) {
	out := make([]color.Color, len(hex))
	for i, h := range hex {
		c, err := colorful.Hex(h)
		if err != nil {
			return nil, fmt.Errorf("colour %q: %w", h, err)
		}
		out[i] = c
	}
	return out, nil
}

func colourOr(colours []color.Color, i int) color.Color {
	if i < 0 || i >= len(colours) {
		return color.Transparent
	}
	return colours[i]
}
