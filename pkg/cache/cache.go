// Package cache stores computed layouts and rendered artifacts.
//
// The CLI uses [FileCache] under the user cache directory, or [NullCache] with
// --no-cache. The server uses [RedisCache] when a Redis URL is configured and
// a temporary [FileCache] otherwise. Keys
// come from a [Keyer] so that every option that changes the output also
// changes the key.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the stored value and whether it was found. A miss is not an
	// error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	Close() error
}

// Default lifetimes of cached entries.
const (
	LayoutTTL   = 7 * 24 * time.Hour
	ArtifactTTL = 7 * 24 * time.Hour
	StatsTTL    = 7 * 24 * time.Hour
)

// Keyer derives cache keys.
type Keyer interface {
	// TableKey identifies an input table by content.
	TableKey(data []byte) string

	// LayoutKey identifies a layout computed from a table.
	LayoutKey(tableHash string, opts LayoutKeyOpts) string

	// ArtifactKey identifies a rendered output of a layout.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string

	// StatsKey identifies a statistics report.
	StatsKey(tableHash string, opts StatsKeyOpts) string
}

// LayoutKeyOpts holds every option that changes a computed layout.
type LayoutKeyOpts struct {
	Columns         []string `json:"columns"`
	Order           []string `json:"order,omitempty"`
	GridSpan        string   `json:"grid_span"`
	GridPoints      int      `json:"grid_points"`
	DensityMode     string   `json:"density_mode"`
	Bandwidth       float64  `json:"bandwidth,omitempty"`
	Area            float64  `json:"area"`
	Width           float64  `json:"width"`
	ReplicateCentre string   `json:"replicate_centre"`
	Centre          string   `json:"centre"`
	ErrorBar        string   `json:"error_bar"`
	Paired          bool     `json:"paired,omitempty"`
	StatsOnPlot     bool     `json:"stats_on_plot,omitempty"`
	YLimits         string   `json:"y_limits,omitempty"`
	Palette         string   `json:"palette"`
	Seed            uint64   `json:"seed"`
	XLabel          string   `json:"x_label,omitempty"`
	YLabel          string   `json:"y_label,omitempty"`
	Legend          bool     `json:"legend,omitempty"`
	LineWidth       float64  `json:"line_width"`
	SepLineWidth    float64  `json:"sep_line_width"`
}

// ArtifactKeyOpts holds the options of a single rendered output.
type ArtifactKeyOpts struct {
	Format string `json:"format"`
	DPI    int    `json:"dpi,omitempty"`
}

// StatsKeyOpts holds the options that change a statistics report.
type StatsKeyOpts struct {
	Columns         []string `json:"columns"`
	Order           []string `json:"order,omitempty"`
	ReplicateCentre string   `json:"replicate_centre"`
	Paired          bool     `json:"paired,omitempty"`
}

// DefaultKeyer builds keys of the form "kind:sha256(parts)".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// TableKey hashes raw table bytes.
func (DefaultKeyer) TableKey(data []byte) string { return "table:" + Hash(data) }

// LayoutKey hashes the table hash with the layout options.
func (DefaultKeyer) LayoutKey(tableHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", tableHash, opts)
}

// ArtifactKey hashes the layout hash with the render options.
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}

// StatsKey hashes the table hash with the statistics options.
func (DefaultKeyer) StatsKey(tableHash string, opts StatsKeyOpts) string {
	return hashKey("stats", tableHash, opts)
}

var _ Keyer = DefaultKeyer{}
