package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/superviolin/pkg/cache"
	"github.com/matzehuels/superviolin/pkg/dataset"
	"github.com/matzehuels/superviolin/pkg/observability"
	"github.com/matzehuels/superviolin/pkg/stats"
	"github.com/matzehuels/superviolin/pkg/violin/layout"
	"github.com/matzehuels/superviolin/pkg/violin/sink"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and server use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete load → layout → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	result := &Result{
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Load
	loadStart := time.Now()
	t, err := r.Load(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Table = t
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.Rows = t.Len()

	tableHash, err := r.TableHash(t)
	if err != nil {
		return nil, err
	}
	result.TableHash = tableHash

	// Stage 2: Layout
	layoutStart := time.Now()
	l, err := r.Layout(ctx, t, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Layout = l
	result.Warnings = l.Warnings
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.Stats.Groups = len(l.Groups)
	result.Stats.Replicates = len(l.Replicates)

	if result.Report, err = Report(l.Stats); err != nil {
		return nil, err
	}

	// Stage 3: Render
	renderStart := time.Now()
	layoutHash := r.Keyer.LayoutKey(tableHash, opts.LayoutKeyOpts())
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, l, layoutHash, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Load reads the input table.
func (r *Runner) Load(ctx context.Context, opts Options) (*dataset.Table, error) {
	if err := opts.ValidateForLoad(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	source := opts.SourceName()
	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, source)

	start := time.Now()
	t, err := Load(opts)
	rows := 0
	if t != nil {
		rows = t.Len()
	}
	hooks.OnLoadComplete(ctx, source, rows, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	r.Logger.Info("loaded table",
		"source", source,
		"rows", rows,
		"columns", len(t.Header),
		"duration", time.Since(start))
	return t, nil
}

// TableHash returns the cache identity of a loaded table.
func (r *Runner) TableHash(t *dataset.Table) (string, error) {
	data, err := MarshalTable(t)
	if err != nil {
		return "", err
	}
	return r.Keyer.TableKey(data), nil
}

// Layout groups the table and computes the plot. Data problems do not fail
// the layout; they are logged and returned in Layout.Warnings.
func (r *Runner) Layout(ctx context.Context, t *dataset.Table, opts Options) (*layout.Layout, error) {
	if err := opts.ValidateForLayout(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	g, err := Group(t, opts)
	if err != nil {
		return nil, err
	}

	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, len(g.Groups), len(g.Replicates))

	start := time.Now()
	l, err := computeGroupedLayout(g, opts)
	if err != nil {
		hooks.OnLayoutComplete(ctx, 0, time.Since(start), err)
		return nil, err
	}
	hooks.OnLayoutComplete(ctx, len(l.Warnings), time.Since(start), nil)

	for _, gr := range l.Groups {
		r.Logger.Debug("fitted group",
			"group", gr.Label,
			"scott_factor", gr.Factor)
		if gr.Violin != nil && gr.Violin.Outline.Patched {
			r.Logger.Debug("patched outline", "group", gr.Label)
		}
	}
	for _, w := range l.Warnings {
		r.Logger.Warn(w.Error())
	}
	if l.Stats != nil {
		hooks.OnStatsComplete(ctx, l.Stats.Test.Name, l.Stats.Test.P, nil)
		r.Logger.Debug("compared groups",
			"test", l.Stats.Test.Name,
			"p", stats.FormatP(l.Stats.Test.P))
	}

	r.Logger.Info("computed layout",
		"groups", len(l.Groups),
		"replicates", len(l.Replicates),
		"duration", time.Since(start))
	return l, nil
}

// StatsWithCacheInfo runs the statistical comparison with caching and returns
// cache hit info. No densities are fitted.
func (r *Runner) StatsWithCacheInfo(ctx context.Context, t *dataset.Table, opts Options) (*stats.Comparison, bool, error) {
	if err := opts.ValidateForLayout(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	tableHash, err := r.TableHash(t)
	if err != nil {
		return nil, false, err
	}
	cacheKey := r.Keyer.StatsKey(tableHash, opts.StatsKeyOpts())

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit := r.cacheGet(ctx, "stats", cacheKey); hit {
			var cached stats.Comparison
			if err := json.Unmarshal(data, &cached); err == nil {
				return &cached, true, nil
			}
		}
	}

	g, err := Group(t, opts)
	if err != nil {
		return nil, false, err
	}
	c, err := Compare(g, opts)
	if err != nil {
		observability.Pipeline().OnStatsComplete(ctx, "", 0, err)
		return nil, false, err
	}
	observability.Pipeline().OnStatsComplete(ctx, c.Test.Name, c.Test.P, nil)

	// NaN statistics cannot be encoded; such results are simply not cached.
	if data, err := json.Marshal(c); err == nil {
		r.cacheSet(ctx, "stats", cacheKey, data, cache.StatsTTL)
	}
	return c, false, nil
}

// Stats is a convenience wrapper that calls StatsWithCacheInfo and discards the cache hit info.
func (r *Runner) Stats(ctx context.Context, t *dataset.Table, opts Options) (*stats.Comparison, error) {
	c, _, err := r.StatsWithCacheInfo(ctx, t, opts)
	return c, err
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
// layoutHash identifies l; when empty it is derived from the layout's JSON export.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, l *layout.Layout, layoutHash string, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	if layoutHash == "" {
		data, err := sink.RenderJSON(l)
		if err != nil {
			return nil, false, fmt.Errorf("serialize layout for cache key: %w", err)
		}
		layoutHash = cache.Hash(data)
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()

	// Try to get all formats from cache
	allCached := !opts.Refresh
	artifacts := make(map[string][]byte)
	for _, format := range opts.Formats {
		if !allCached {
			break
		}
		cacheKey := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		if data, hit := r.cacheGet(ctx, "artifact", cacheKey); hit {
			artifacts[format] = data
		} else {
			allCached = false
		}
	}

	if allCached && len(artifacts) == len(opts.Formats) {
		hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), nil)
		return artifacts, true, nil
	}

	rendered, err := Render(ctx, l, opts)
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		cacheKey := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		r.cacheSet(ctx, "artifact", cacheKey, data, cache.ArtifactTTL)
	}
	return rendered, false, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, l *layout.Layout, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, l, "", opts)
	return artifacts, err
}

// cacheGet reads key and reports the outcome to the cache hooks. Read
// errors count as misses.
func (r *Runner) cacheGet(ctx context.Context, keyType, key string) ([]byte, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Debug("cache read failed", "key", key, "error", err)
	}
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, keyType)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, keyType)
	return data, true
}

// cacheSet stores data under key. A failed write only costs a recomputation
// later and is logged at debug level.
func (r *Runner) cacheSet(ctx context.Context, keyType, key string, data []byte, ttl time.Duration) {
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Debug("cache write failed", "key", key, "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
