package pipeline

import (
	"bytes"
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/superviolin/pkg/stats"
	"github.com/matzehuels/superviolin/pkg/violin/layout"
	"github.com/matzehuels/superviolin/pkg/violin/sink"
)

// Render generates output artifacts in the requested formats.
// Formats are rendered concurrently; the layout is only read.
func Render(ctx context.Context, l *layout.Layout, opts Options) (map[string][]byte, error) {
	out := make([][]byte, len(opts.Formats))
	g, ctx := errgroup.WithContext(ctx)
	for i, format := range opts.Formats {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := renderFormat(l, format, opts)
			if err != nil {
				return fmt.Errorf("render %s: %w", format, err)
			}
			out[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	for i, format := range opts.Formats {
		artifacts[format] = out[i]
	}
	return artifacts, nil
}

func renderFormat(l *layout.Layout, format string, opts Options) ([]byte, error) {
	switch format {
	case FormatSVG:
		return sink.RenderSVG(l), nil
	case FormatPNG:
		return sink.RenderPNG(l, sink.WithDPI(opts.DPI))
	case FormatPDF:
		return sink.RenderPDF(l)
	case FormatJSON:
		return sink.RenderJSON(l, jsonOptions(opts)...)
	default:
		return nil, ValidateFormat(format)
	}
}

func jsonOptions(opts Options) []sink.JSONOption {
	jopts := []sink.JSONOption{sink.WithJSONSource(opts.SourceName())}
	if opts.Curves {
		jopts = append(jopts, sink.WithJSONCurves())
	}
	return jopts
}

// Report returns the posthoc p-value matrix as TSV, or nil when the
// comparison has no posthoc test.
func Report(c *stats.Comparison) ([]byte, error) {
	if c == nil || c.Posthoc == nil {
		return nil, nil
	}
	var buf bytes.Buffer
	if err := c.Posthoc.WriteTSV(&buf); err != nil {
		return nil, fmt.Errorf("write posthoc report: %w", err)
	}
	return buf.Bytes(), nil
}
