// Package sink provides output format renderers for Violin SuperPlots.
//
// # Overview
//
// A "sink" transforms a computed [layout.Layout] into a final output format.
// This package provides renderers for:
//
//   - SVG: Scalable vector graphics, written directly
//   - PNG: Raster image output drawn with gonum/plot
//   - PDF: Print-ready output drawn with gonum/plot
//   - JSON: Layout data export for external tools
//
// Every sink draws the same elements in the same order: the replicate
// stripes, the violin outline, the replicate markers, the summary skeleton,
// the significance brackets and, when enabled, a replicate legend.
//
// # SVG Output
//
// [RenderSVG] needs no external tooling:
//
//	svg := sink.RenderSVG(l, sink.WithPixelsPerInch(96))
//
// # PNG and PDF Output
//
// [RenderPNG] and [RenderPDF] build a gonum/plot figure of the layout's size
// and draw it with the vgimg and vgpdf backends:
//
//	png, err := sink.RenderPNG(l, sink.WithDPI(300))
//	pdf, err := sink.RenderPDF(l)
//
// # JSON Output
//
// [RenderJSON] exports the polygons, markers, skeletons, axis, annotation and
// statistics so external tools can redraw the plot.
//
// [layout.Layout]: github.com/matzehuels/superviolin/pkg/violin/layout.Layout
package sink
