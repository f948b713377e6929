// Package cli implements the superviolin command-line interface.
//
// The CLI loads CSV or Excel tables, renders Violin SuperPlots through the
// shared pipeline, prints the statistical comparison and manages the local
// artifact cache and preferences file. It is built with cobra; logging uses
// charmbracelet/log and status output uses lipgloss.
//
// # Commands
//
// The main commands are:
//   - render: Draw a plot from a data file (SVG, PNG, PDF, JSON)
//   - demo: Draw the bundled demonstration data
//   - stats: Print normality checks, the test and the posthoc matrix
//   - init, config: Write and locate the preferences file
//   - cache: Manage the artifact cache
//   - serve: Run the upload web app
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which also
// reports the bandwidth factor fitted for every condition. Loggers are
// passed through context.Context.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/superviolin/pkg/observability"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time, e.g. "Rendered 2 files (412ms)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger returns a new context with the given logger attached.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx, or log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

// EnableLogHooks routes pipeline, cache and HTTP hook events to the CLI
// logger.
func (c *CLI) EnableLogHooks() {
	hooks := observability.NewLogHooks(c.Logger)
	observability.SetPipelineHooks(hooks)
	observability.SetCacheHooks(hooks)
	observability.SetHTTPHooks(hooks)
}
