// Package pipeline provides the load → layout → render pipeline of Superviolin.
//
// The CLI and the HTTP server both run plots through this package so that
// defaults, validation and caching behave the same at every entry point.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: Read a CSV or Excel table (tidy or untidy) and group its
//     observations by condition and replicate
//  2. Layout: Fit the replicate densities, stack them into violins and run the
//     statistical comparison
//  3. Render: Generate output in various formats (SVG, PNG, PDF, JSON)
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Path:    "cells.xlsx",
//	    Columns: dataset.Columns{Condition: "drug", Value: "area", Replicate: "day"},
//	    Formats: []string{"svg", "png"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	table, err := runner.Load(ctx, opts)
//	l, err := runner.Layout(ctx, table, opts)
//	artifacts, err := runner.Render(ctx, l, opts)
package pipeline

import (
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/superviolin/pkg/cache"
	"github.com/matzehuels/superviolin/pkg/dataset"
	"github.com/matzehuels/superviolin/pkg/errors"
	"github.com/matzehuels/superviolin/pkg/stats"
	"github.com/matzehuels/superviolin/pkg/violin/density"
	"github.com/matzehuels/superviolin/pkg/violin/geometry"
	"github.com/matzehuels/superviolin/pkg/violin/layout"
	"github.com/matzehuels/superviolin/pkg/violin/palette"
	"github.com/matzehuels/superviolin/pkg/violin/skeleton"
	"github.com/matzehuels/superviolin/pkg/violin/sink"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, API and Preferences
// =============================================================================

const (
	// DefaultGridSpan reconciles replicate domains on their common range.
	DefaultGridSpan = string(density.SpanIntersection)

	// DefaultDensityMode scales every replicate's density to a fixed area.
	DefaultDensityMode = string(density.ModeArea)

	// DefaultArea is the total area a replicate's density integrates to.
	DefaultArea = density.DefaultArea

	// DefaultCentre summarizes replicates and groups by their mean.
	DefaultCentre = string(skeleton.Mean)

	// DefaultErrorBar is the standard error of the mean.
	DefaultErrorBar = string(skeleton.SEM)

	// DefaultPalette is the qualitative colour map used for replicates.
	DefaultPalette = palette.Default

	// DefaultSeed shuffles sequential colour maps reproducibly.
	DefaultSeed = palette.DefaultSeed

	// DefaultWidth is the half-width multiplier of each violin.
	DefaultWidth = geometry.DefaultWidth

	// DefaultDPI is the PNG resolution.
	DefaultDPI = sink.DefaultDPI
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatJSON: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Input options. Exactly one of Path, Data or Demo selects the table.
	Path       string          `json:"-"`
	Data       []byte          `json:"-"`
	Filename   string          `json:"filename,omitempty"`
	Demo       bool            `json:"demo,omitempty"`
	DataFormat string          `json:"data_format,omitempty"` // tidy or untidy
	Columns    dataset.Columns `json:"columns"`
	Order      string          `json:"order,omitempty"` // "a, b, c"

	// Layout options
	GridSpan        string  `json:"grid_span,omitempty"`
	GridPoints      int     `json:"grid_points,omitempty"`
	DensityMode     string  `json:"density_mode,omitempty"`
	Bandwidth       float64 `json:"bandwidth,omitempty"`
	Area            float64 `json:"area,omitempty"`
	Width           float64 `json:"width,omitempty"`
	ReplicateCentre string  `json:"replicate_centre,omitempty"`
	Centre          string  `json:"centre,omitempty"`
	ErrorBar        string  `json:"error_bar,omitempty"`
	Paired          bool    `json:"paired,omitempty"`
	StatsOnPlot     bool    `json:"stats_on_plot,omitempty"`
	YLimits         string  `json:"y_limits,omitempty"` // "lower, upper"
	Palette         string  `json:"palette,omitempty"`
	Seed            uint64  `json:"seed,omitempty"`
	XLabel          string  `json:"x_label,omitempty"`
	YLabel          string  `json:"y_label,omitempty"`
	Legend          bool    `json:"legend,omitempty"`
	LineWidth       float64 `json:"line_width,omitempty"`
	SepLineWidth    float64 `json:"sep_line_width,omitempty"`

	// Render options
	Formats []string `json:"formats,omitempty"`
	DPI     int      `json:"dpi,omitempty"`
	Curves  bool     `json:"curves,omitempty"` // include density curves in JSON output
	Refresh bool     `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Table is the loaded input.
	Table *dataset.Table

	// TableHash is the content hash of the table.
	TableHash string

	// Layout is the computed plot.
	Layout *layout.Layout

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Report is the posthoc p-value matrix as TSV, set for three or more
	// groups. It is written to ReportFilename.
	Report []byte

	// Warnings lists recoverable data problems in the order they occurred.
	Warnings []error

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Rows       int
	Groups     int
	Replicates int
	LoadTime   time.Duration
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	RenderHit bool // Whether all artifacts came from cache
	StatsHit  bool // Whether the comparison came from cache
}

// ReportFilename names the posthoc report of a plot of the given value column.
func ReportFilename(value string) string {
	return "posthoc_statistics_" + value + ".txt"
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: %s)", format, formatList())
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

func formatList() string {
	names := make([]string, 0, len(ValidFormats))
	for f := range ValidFormats {
		names = append(names, f)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks the input selection and column names.
func (o *Options) ValidateForLoad() error {
	sources := 0
	for _, set := range []bool{o.Path != "", o.Data != nil, o.Demo} {
		if set {
			sources++
		}
	}
	switch {
	case sources == 0:
		return errors.New(errors.ErrCodeInvalidInput, "a data file is required")
	case sources > 1:
		return errors.New(errors.ErrCodeInvalidInput, "path, data and demo are mutually exclusive")
	case o.Data != nil && o.Filename == "":
		return errors.New(errors.ErrCodeInvalidInput, "filename is required with uploaded data")
	}

	if o.DataFormat == "" {
		o.DataFormat = string(dataset.LayoutTidy)
	}
	if !dataset.ValidLayouts[dataset.Layout(o.DataFormat)] {
		return errors.New(errors.ErrCodeInvalidConfig, "invalid data format: %q (must be tidy or untidy)", o.DataFormat)
	}
	o.Columns = o.Columns.WithDefaults()
	if err := o.Columns.Validate(); err != nil {
		return err
	}
	if _, err := dataset.ParseOrder(o.Order); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// SetLayoutDefaults sets default values for layout computation.
func (o *Options) SetLayoutDefaults() {
	if o.GridSpan == "" {
		o.GridSpan = DefaultGridSpan
	}
	if o.GridPoints == 0 {
		o.GridPoints = density.DefaultGridPoints
	}
	if o.DensityMode == "" {
		o.DensityMode = DefaultDensityMode
	}
	if o.Area == 0 {
		o.Area = DefaultArea
	}
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.ReplicateCentre == "" {
		o.ReplicateCentre = DefaultCentre
	}
	if o.Centre == "" {
		o.Centre = DefaultCentre
	}
	if o.ErrorBar == "" {
		o.ErrorBar = DefaultErrorBar
	}
	if o.Palette == "" {
		o.Palette = DefaultPalette
	}
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	if o.LineWidth == 0 {
		o.LineWidth = layout.DefaultLineWidth
	}
	if o.SepLineWidth == 0 {
		o.SepLineWidth = layout.DefaultSepLineWidth
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForLayout validates and sets defaults for layout computation.
// The option values themselves are checked by layout.Build; here only the
// string forms that need parsing are validated.
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	if _, err := o.LayoutOptions(); err != nil {
		return err
	}
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.DPI == 0 {
		o.DPI = DefaultDPI
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if o.DPI < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "dpi must be positive, got %d", o.DPI)
	}
	return ValidateFormats(o.Formats)
}

// LayoutOptions converts the options into layout options.
func (o *Options) LayoutOptions() (layout.Options, error) {
	lo, hi, set, err := errors.ParseLimits(o.YLimits)
	if err != nil {
		return layout.Options{}, err
	}
	return layout.Options{
		GridSpan:        density.Span(o.GridSpan),
		GridPoints:      o.GridPoints,
		DensityMode:     density.Mode(o.DensityMode),
		Bandwidth:       o.Bandwidth,
		Area:            o.Area,
		Width:           o.Width,
		ReplicateCentre: skeleton.Centre(o.ReplicateCentre),
		Centre:          skeleton.Centre(o.Centre),
		ErrorBar:        skeleton.ErrorBar(o.ErrorBar),
		Paired:          o.Paired,
		StatsOnPlot:     o.StatsOnPlot,
		YLimits:         layout.Limits{Lo: lo, Hi: hi, Set: set},
		Palette:         o.Palette,
		Seed:            o.Seed,
		XLabel:          o.XLabel,
		YLabel:          o.YLabel,
		ShowLegend:      o.Legend,
		LineWidth:       o.LineWidth,
		SepLineWidth:    o.SepLineWidth,
	}, nil
}

// StatsOptions returns the comparison options.
func (o *Options) StatsOptions() stats.Options {
	return stats.Options{Paired: o.Paired}
}

// SourceName returns a display name for the selected input.
func (o *Options) SourceName() string {
	switch {
	case o.Demo:
		return "demo"
	case o.Path != "":
		return o.Path
	default:
		return o.Filename
	}
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	order, _ := dataset.ParseOrder(o.Order)
	return cache.LayoutKeyOpts{
		Columns:         []string{o.Columns.Condition, o.Columns.Value, o.Columns.Replicate},
		Order:           order,
		GridSpan:        o.GridSpan,
		GridPoints:      o.GridPoints,
		DensityMode:     o.DensityMode,
		Bandwidth:       o.Bandwidth,
		Area:            o.Area,
		Width:           o.Width,
		ReplicateCentre: o.ReplicateCentre,
		Centre:          o.Centre,
		ErrorBar:        o.ErrorBar,
		Paired:          o.Paired,
		StatsOnPlot:     o.StatsOnPlot,
		YLimits:         o.YLimits,
		Palette:         o.Palette,
		Seed:            o.Seed,
		XLabel:          o.XLabel,
		YLabel:          o.YLabel,
		Legend:          o.Legend,
		LineWidth:       o.LineWidth,
		SepLineWidth:    o.SepLineWidth,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	opts := cache.ArtifactKeyOpts{Format: format}
	switch format {
	case FormatPNG:
		opts.DPI = o.DPI
	case FormatJSON:
		if o.Curves {
			opts.Format = format + "+curves"
		}
	}
	return opts
}

// StatsKeyOpts returns cache key options for the statistical comparison.
func (o *Options) StatsKeyOpts() cache.StatsKeyOpts {
	order, _ := dataset.ParseOrder(o.Order)
	return cache.StatsKeyOpts{
		Columns:         []string{o.Columns.Condition, o.Columns.Value, o.Columns.Replicate},
		Order:           order,
		ReplicateCentre: o.ReplicateCentre,
		Paired:          o.Paired,
	}
}
