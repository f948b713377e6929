package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks writes pipeline, cache and HTTP events to a logger at debug
// level. Failed stages are logged as warnings.
type LogHooks struct {
	logger *log.Logger
}

var (
	_ PipelineHooks = (*LogHooks)(nil)
	_ CacheHooks    = (*LogHooks)(nil)
	_ HTTPHooks     = (*LogHooks)(nil)
)

// NewLogHooks returns hooks that log to l, or to log.Default() when l is nil.
func NewLogHooks(l *log.Logger) *LogHooks {
	if l == nil {
		l = log.Default()
	}
	return &LogHooks{logger: l.WithPrefix("hooks")}
}

func (h *LogHooks) done(msg string, err error, kv ...any) {
	if err != nil {
		h.logger.Warn(msg, append(kv, "error", err)...)
		return
	}
	h.logger.Debug(msg, kv...)
}

func (h *LogHooks) OnLoadStart(_ context.Context, source string) {
	h.logger.Debug("load start", "source", source)
}

func (h *LogHooks) OnLoadComplete(_ context.Context, source string, rows int, d time.Duration, err error) {
	h.done("load done", err, "source", source, "rows", rows, "took", d)
}

func (h *LogHooks) OnLayoutStart(_ context.Context, groups, replicates int) {
	h.logger.Debug("layout start", "conditions", groups, "replicates", replicates)
}

func (h *LogHooks) OnLayoutComplete(_ context.Context, warnings int, d time.Duration, err error) {
	h.done("layout done", err, "warnings", warnings, "took", d)
}

func (h *LogHooks) OnStatsComplete(_ context.Context, test string, p float64, err error) {
	h.done("stats done", err, "test", test, "p", p)
}

func (h *LogHooks) OnRenderStart(_ context.Context, formats []string) {
	h.logger.Debug("render start", "formats", formats)
}

func (h *LogHooks) OnRenderComplete(_ context.Context, formats []string, d time.Duration, err error) {
	h.done("render done", err, "formats", formats, "took", d)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *LogHooks) OnRequest(_ context.Context, id, method, path string) {
	h.logger.Debug("request start", "id", id, "method", method, "path", path)
}

func (h *LogHooks) OnResponse(_ context.Context, id, method, path string, status int, d time.Duration) {
	h.logger.Debug("request done", "id", id, "method", method, "path", path, "status", status, "took", d)
}

func (h *LogHooks) OnError(_ context.Context, id, method, path string, err error) {
	h.logger.Warn("request error", "id", id, "method", method, "path", path, "error", err)
}
