// Package config reads and writes Superviolin preference files.
//
// Preferences are TOML. A file in the working directory (superviolin.toml)
// takes precedence over the user-level file under the XDG config home, and
// command-line flags take precedence over both:
//
//	prefs, err := config.Find()
//	prefs.Apply(&opts)      // file values
//	applyFlags(cmd, &opts)  // explicit flags win
package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/superviolin/pkg/dataset"
	"github.com/matzehuels/superviolin/pkg/errors"
	"github.com/matzehuels/superviolin/pkg/pipeline"
)

const (
	// FileName is the preferences file name looked up in the working directory.
	FileName = "superviolin.toml"

	appName = "superviolin"
)

// Preferences is the content of a preferences file. Zero values mean "not
// set" and leave the corresponding option untouched.
type Preferences struct {
	Columns    dataset.Columns `toml:"columns"`
	DataFormat string          `toml:"data_format,omitempty"`
	Order      string          `toml:"order,omitempty"`

	Plot   Plot   `toml:"plot"`
	Stats  Stats  `toml:"stats"`
	Output Output `toml:"output"`
}

// Plot holds the appearance of the violins and the skeleton.
type Plot struct {
	ReplicateCentre string  `toml:"replicate_centre,omitempty"`
	Centre          string  `toml:"centre,omitempty"`
	ErrorBars       string  `toml:"error_bars,omitempty"`
	YLimits         string  `toml:"y_limits,omitempty"`
	Width           float64 `toml:"width,omitempty"`
	Bandwidth       float64 `toml:"bandwidth,omitempty"`
	GridSpan        string  `toml:"grid_span,omitempty"`
	DensityMode     string  `toml:"density_mode,omitempty"`
	Colours         string  `toml:"colours,omitempty"`
	Seed            uint64  `toml:"seed,omitempty"`
	Legend          bool    `toml:"legend,omitempty"`
	XLabel          string  `toml:"x_label,omitempty"`
	YLabel          string  `toml:"y_label,omitempty"`
	LineWidth       float64 `toml:"line_width,omitempty"`
	SepLineWidth    float64 `toml:"sep_line_width,omitempty"`
}

// Stats holds the statistical comparison settings.
type Stats struct {
	Paired bool `toml:"paired,omitempty"`
	OnPlot bool `toml:"on_plot,omitempty"`
}

// Output holds the rendered formats.
type Output struct {
	Formats []string `toml:"formats,omitempty"`
	DPI     int      `toml:"dpi,omitempty"`
}

// Default returns the preferences matching the pipeline defaults.
func Default() *Preferences {
	return &Preferences{
		Columns:    dataset.DefaultColumns(),
		DataFormat: string(dataset.LayoutTidy),
		Plot: Plot{
			ReplicateCentre: pipeline.DefaultCentre,
			Centre:          pipeline.DefaultCentre,
			ErrorBars:       pipeline.DefaultErrorBar,
			Width:           pipeline.DefaultWidth,
			GridSpan:        pipeline.DefaultGridSpan,
			DensityMode:     pipeline.DefaultDensityMode,
			Colours:         pipeline.DefaultPalette,
			Seed:            pipeline.DefaultSeed,
		},
		Output: Output{
			Formats: []string{pipeline.FormatSVG},
			DPI:     pipeline.DefaultDPI,
		},
	}
}

// Load reads preferences from path. Unknown keys are rejected so that typos
// do not silently fall back to defaults.
func Load(path string) (*Preferences, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.New(errors.ErrCodeFileNotFound, "preferences not found: %s", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
	}
	return Parse(data)
}

// Parse decodes preferences from TOML data.
func Parse(data []byte) (*Preferences, error) {
	var p Preferences
	md, err := toml.Decode(string(data), &p)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse preferences")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown preference keys: %s", strings.Join(keys, ", "))
	}
	for _, f := range p.Output.Formats {
		if err := pipeline.ValidateFormat(f); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "output.formats")
		}
	}
	return &p, nil
}

// Find loads ./superviolin.toml, then the user-level file. It returns empty
// preferences when neither exists.
func Find() (*Preferences, string, error) {
	candidates := []string{FileName}
	if p, err := UserPath(); err == nil {
		candidates = append(candidates, p)
	}
	for _, path := range candidates {
		p, err := Load(path)
		if errors.Is(err, errors.ErrCodeFileNotFound) {
			continue
		}
		if err != nil {
			return nil, path, err
		}
		return p, path, nil
	}
	return &Preferences{}, "", nil
}

// UserPath returns the user-level preferences location
// (~/.config/superviolin/superviolin.toml).
func UserPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, FileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, FileName), nil
}

const header = `# Superviolin preferences.
#
# Values here override the built-in defaults; command-line flags override
# values here. Remove a key to fall back to the default.
#
# [columns]           names of the condition, value and replicate columns
# data_format         "tidy" (one row per observation) or "untidy" (Excel,
#                     one sheet per replicate, one column per condition)
# order               plotting order of the conditions, e.g. "ctrl, drug A"
#
# [plot]
# replicate_centre    "mean", "median" or "robust" (2.5-97.5 percentile mean)
# centre              "mean" or "median" across replicate central values
# error_bars          "SEM", "SD" or "CI95"
# y_limits            "lower, upper"; empty for automatic limits
# width               half-width multiplier of each violin
# bandwidth           KDE bandwidth factor; 0 selects Scott's rule
# grid_span           "intersection" or "union" of the replicate ranges
# density_mode        "area" or "baseline"
# colours             a colour map name or a list such as "red, #00ff00, blue"
# seed                shuffles sequential colour maps reproducibly
#
# [stats]
# paired              pair replicates across conditions
# on_plot             draw p-value brackets above the violins
#
# [output]
# formats             any of "svg", "png", "pdf", "json"
# dpi                 PNG resolution

`

// Write encodes p as a commented TOML document.
func Write(w io.Writer, p *Preferences) error {
	var buf bytes.Buffer
	buf.WriteString(header)
	if err := toml.NewEncoder(&buf).Encode(p); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode preferences")
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// WriteFile writes p to path, creating parent directories. An existing file
// is only replaced when overwrite is set.
func WriteFile(path string, p *Preferences, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return errors.New(errors.ErrCodeInvalidPath, "%s already exists", path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", filepath.Dir(path))
	}
	var buf bytes.Buffer
	if err := Write(&buf, p); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// Apply copies every set preference into opts.
func (p *Preferences) Apply(opts *pipeline.Options) {
	setString(&opts.Columns.Condition, p.Columns.Condition)
	setString(&opts.Columns.Value, p.Columns.Value)
	setString(&opts.Columns.Replicate, p.Columns.Replicate)
	setString(&opts.DataFormat, p.DataFormat)
	setString(&opts.Order, p.Order)

	setString(&opts.ReplicateCentre, p.Plot.ReplicateCentre)
	setString(&opts.Centre, p.Plot.Centre)
	setString(&opts.ErrorBar, p.Plot.ErrorBars)
	setString(&opts.YLimits, p.Plot.YLimits)
	setFloat(&opts.Width, p.Plot.Width)
	setFloat(&opts.Bandwidth, p.Plot.Bandwidth)
	setString(&opts.GridSpan, p.Plot.GridSpan)
	setString(&opts.DensityMode, p.Plot.DensityMode)
	setString(&opts.Palette, p.Plot.Colours)
	if p.Plot.Seed != 0 {
		opts.Seed = p.Plot.Seed
	}
	opts.Legend = opts.Legend || p.Plot.Legend
	setString(&opts.XLabel, p.Plot.XLabel)
	setString(&opts.YLabel, p.Plot.YLabel)
	setFloat(&opts.LineWidth, p.Plot.LineWidth)
	setFloat(&opts.SepLineWidth, p.Plot.SepLineWidth)

	opts.Paired = opts.Paired || p.Stats.Paired
	opts.StatsOnPlot = opts.StatsOnPlot || p.Stats.OnPlot

	if len(p.Output.Formats) > 0 {
		opts.Formats = append([]string(nil), p.Output.Formats...)
	}
	if p.Output.DPI != 0 {
		opts.DPI = p.Output.DPI
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setFloat(dst *float64, v float64) {
	if v != 0 {
		*dst = v
	}
}
