package sink

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"math"
	"strings"

	"github.com/matzehuels/superviolin/pkg/violin/layout"
)

// Figure margins in inches.
const (
	marginLeft   = 0.55
	marginRight  = 0.1
	marginTop    = 0.1
	marginBottom = 0.4
	legendWidth  = 0.9
)

const (
	defaultPPI      = 96.0
	defaultFontSize = 8.0
	tickLength      = 3.0
)

// SVGOption configures SVG rendering.
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	ppi        float64
	fontFamily string
	background string
}

// WithPixelsPerInch sets the SVG pixel density (default 96).
func WithPixelsPerInch(ppi float64) SVGOption {
	return func(r *svgRenderer) {
		if ppi > 0 {
			r.ppi = ppi
		}
	}
}

// WithFontFamily sets the CSS font family of all text.
func WithFontFamily(f string) SVGOption { return func(r *svgRenderer) { r.fontFamily = f } }

// WithBackground fills the figure with a colour. The default is transparent.
func WithBackground(c string) SVGOption { return func(r *svgRenderer) { r.background = c } }

// frame maps data coordinates into SVG pixels.
type frame struct {
	x0, x1, y0, y1 float64
	left, top      float64
	w, h           float64
	ppi            float64
}

func newFrame(l *layout.Layout, ppi float64) frame {
	x0, x1 := l.XLimits()
	return frame{
		x0: x0, x1: x1,
		y0: l.Axis.Min, y1: l.Axis.Max,
		left: marginLeft * ppi,
		top:  marginTop * ppi,
		w:    (l.Width - marginLeft - marginRight) * ppi,
		h:    (l.Height - marginTop - marginBottom) * ppi,
		ppi:  ppi,
	}
}

func (f frame) X(v float64) float64 { return f.left + (v-f.x0)/(f.x1-f.x0)*f.w }

func (f frame) Y(v float64) float64 {
	span := f.y1 - f.y0
	if span == 0 {
		span = 1
	}
	return f.top + (f.y1-v)/span*f.h
}

// pt converts typographic points to pixels.
func (f frame) pt(v float64) float64 { return v * f.ppi / 72 }

// RenderSVG draws the layout as a standalone SVG document.
func RenderSVG(l *layout.Layout, opts ...SVGOption) []byte {
	r := svgRenderer{ppi: defaultPPI, fontFamily: "sans-serif"}
	for _, opt := range opts {
		opt(&r)
	}
	f := newFrame(l, r.ppi)

	width := l.Width
	if l.ShowLegend {
		width += legendWidth
	}
	wpx, hpx := width*r.ppi, l.Height*r.ppi

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f" font-family="%s" font-size="%.1f">`+"\n",
		wpx, hpx, wpx, hpx, escapeXML(r.fontFamily), f.pt(defaultFontSize))
	if r.background != "" {
		fmt.Fprintf(&buf, `  <rect width="100%%" height="100%%" fill="%s"/>`+"\n", escapeXML(r.background))
	}

	fmt.Fprintf(&buf, `  <clipPath id="plot-area"><rect x="%.2f" y="%.2f" width="%.2f" height="%.2f"/></clipPath>`+"\n",
		f.left, f.top, f.w, f.h)
	buf.WriteString(`  <g clip-path="url(#plot-area)">` + "\n")
	for _, g := range l.Groups {
		renderViolin(&buf, f, l, g)
	}
	for _, g := range l.Groups {
		renderSkeleton(&buf, f, l, g)
	}
	buf.WriteString("  </g>\n")

	renderAnnotation(&buf, f, l)
	renderAxes(&buf, f, l)
	if l.ShowLegend {
		renderLegend(&buf, f, l)
	}
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func renderViolin(buf *bytes.Buffer, f frame, l *layout.Layout, g layout.GroupResult) {
	if g.Violin == nil {
		return
	}
	fmt.Fprintf(buf, `    <g class="violin" id="violin-%s">`+"\n", escapeXML(g.Label))
	for _, b := range g.Violin.Bands {
		fmt.Fprintf(buf, `      <path class="stripe" d="%s" fill="%s" stroke="black" stroke-width="%.2f"/>`+"\n",
			pathData(f, b.X, b.Y, true), colourAt(l, b.Index), f.pt(l.SepLineWidth))
	}
	if len(g.Violin.Outline.X) > 0 {
		fmt.Fprintf(buf, `      <path class="outline" d="%s" fill="none" stroke="black" stroke-width="%.2f"/>`+"\n",
			pathData(f, g.Violin.Outline.X, g.Violin.Outline.Y, false), f.pt(l.LineWidth))
	}
	radius := f.pt(math.Sqrt(g.Violin.ScatterSize) / 2)
	for _, m := range g.Violin.Markers {
		fmt.Fprintf(buf, `      <circle class="marker" cx="%.2f" cy="%.2f" r="%.2f" fill="%s" stroke="black" stroke-width="%.2f"/>`+"\n",
			f.X(m.X), f.Y(m.Y), radius, colourAt(l, m.Index), f.pt(l.LineWidth))
	}
	buf.WriteString("    </g>\n")
}

func renderSkeleton(buf *bytes.Buffer, f frame, l *layout.Layout, g layout.GroupResult) {
	if g.Skeleton == nil {
		return
	}
	for _, s := range g.Skeleton.Segments() {
		fmt.Fprintf(buf, `    <line class="skeleton" x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="black" stroke-width="%.2f"/>`+"\n",
			f.X(s.X0), f.Y(s.Y0), f.X(s.X1), f.Y(s.Y1), f.pt(l.LineWidth))
	}
}

func renderAnnotation(buf *bytes.Buffer, f frame, l *layout.Layout) {
	if l.Annotation == nil {
		return
	}
	for _, b := range l.Annotation.Brackets {
		fmt.Fprintf(buf, `  <path class="bracket" d="%s" fill="none" stroke="black" stroke-width="%.2f"/>`+"\n",
			pathData(f, b.X, b.Y, false), f.pt(l.LineWidth))
		fmt.Fprintf(buf, `  <text class="p-value" x="%.2f" y="%.2f" text-anchor="middle">%s</text>`+"\n",
			f.X(b.TextX), f.Y(b.TextY)-f.pt(2), escapeXML(b.Text))
	}
}

func renderAxes(buf *bytes.Buffer, f frame, l *layout.Layout) {
	lw := f.pt(l.LineWidth)
	tick := f.pt(tickLength)
	bottom := f.top + f.h

	// Left spine and value ticks.
	fmt.Fprintf(buf, `  <line class="axis" x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="black" stroke-width="%.2f"/>`+"\n",
		f.left, f.top, f.left, bottom, lw)
	for _, t := range l.Axis.Ticks {
		y := f.Y(t.Value)
		fmt.Fprintf(buf, `  <line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="black" stroke-width="%.2f"/>`+"\n",
			f.left-tick, y, f.left, y, lw)
		fmt.Fprintf(buf, `  <text x="%.2f" y="%.2f" text-anchor="end" dominant-baseline="middle">%s</text>`+"\n",
			f.left-tick-f.pt(2), y, escapeXML(t.Label))
	}

	// Bottom spine and group labels.
	fmt.Fprintf(buf, `  <line class="axis" x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="black" stroke-width="%.2f"/>`+"\n",
		f.left, bottom, f.left+f.w, bottom, lw)
	for _, g := range l.Groups {
		x := f.X(g.Anchor)
		fmt.Fprintf(buf, `  <line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="black" stroke-width="%.2f"/>`+"\n",
			x, bottom, x, bottom+tick, lw)
		fmt.Fprintf(buf, `  <text x="%.2f" y="%.2f" text-anchor="middle" dominant-baseline="hanging">%s</text>`+"\n",
			x, bottom+tick+f.pt(2), escapeXML(g.Label))
	}

	if l.XLabel != "" {
		fmt.Fprintf(buf, `  <text class="x-label" x="%.2f" y="%.2f" text-anchor="middle">%s</text>`+"\n",
			f.left+f.w/2, l.Height*f.ppi-f.pt(3), escapeXML(l.XLabel))
	}
	if l.YLabel != "" {
		cx, cy := f.pt(defaultFontSize), f.top+f.h/2
		fmt.Fprintf(buf, `  <text class="y-label" x="%.2f" y="%.2f" text-anchor="middle" transform="rotate(-90 %.2f %.2f)">%s</text>`+"\n",
			cx, cy, cx, cy, escapeXML(l.YLabel))
	}
}

func renderLegend(buf *bytes.Buffer, f frame, l *layout.Layout) {
	x := l.Width*f.ppi + f.pt(4)
	y := f.top + f.pt(4)
	box := f.pt(defaultFontSize)
	step := box * 1.5
	buf.WriteString(`  <g class="legend">` + "\n")
	for i, rep := range l.Replicates {
		fmt.Fprintf(buf, `    <rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s" stroke="black" stroke-width="%.2f"/>`+"\n",
			x, y+float64(i)*step, box, box, colourAt(l, i), f.pt(l.SepLineWidth))
		fmt.Fprintf(buf, `    <text x="%.2f" y="%.2f" dominant-baseline="middle">%s</text>`+"\n",
			x+box*1.4, y+float64(i)*step+box/2, escapeXML(rep))
	}
	buf.WriteString("  </g>\n")
}

func pathData(f frame, xs, ys []float64, closed bool) string {
	var sb strings.Builder
	for i := range xs {
		cmd := "L"
		if i == 0 {
			cmd = "M"
		}
		fmt.Fprintf(&sb, "%s%.2f,%.2f ", cmd, f.X(xs[i]), f.Y(ys[i]))
	}
	if closed {
		sb.WriteString("Z")
	}
	return strings.TrimSpace(sb.String())
}

func colourAt(l *layout.Layout, i int) string {
	if i < 0 || i >= len(l.Colours) {
		return "none"
	}
	return l.Colours[i]
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
