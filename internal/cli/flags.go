package cli

import (
	"github.com/spf13/pflag"

	"github.com/matzehuels/superviolin/pkg/config"
	"github.com/matzehuels/superviolin/pkg/pipeline"
)

// optionFlags binds command-line flags to pipeline options.
//
// Flag values are parsed into a scratch Options value. resolve starts from the
// preferences file and copies only the flags the user actually set, so an
// explicit flag beats the file and the file beats the built-in defaults.
type optionFlags struct {
	values  pipeline.Options
	formats string
	prefs   string
	apply   map[string]func(*pipeline.Options)
}

func newOptionFlags() *optionFlags {
	return &optionFlags{apply: make(map[string]func(*pipeline.Options))}
}

func bindOption[T any](f *optionFlags, name string, field func(*pipeline.Options) *T) {
	f.apply[name] = func(o *pipeline.Options) { *field(o) = *field(&f.values) }
}

// registerData adds the flags that select and interpret the input table.
func (f *optionFlags) registerData(fs *pflag.FlagSet) {
	v := &f.values
	fs.StringVarP(&v.Columns.Condition, "condition", "x", "", "condition column (default \"condition\")")
	bindOption(f, "condition", func(o *pipeline.Options) *string { return &o.Columns.Condition })
	fs.StringVarP(&v.Columns.Value, "value", "y", "", "value column (default \"value\")")
	bindOption(f, "value", func(o *pipeline.Options) *string { return &o.Columns.Value })
	fs.StringVarP(&v.Columns.Replicate, "replicate", "r", "", "replicate column (default \"replicate\")")
	bindOption(f, "replicate", func(o *pipeline.Options) *string { return &o.Columns.Replicate })
	fs.StringVar(&v.DataFormat, "data-format", "", "input layout: tidy (default), untidy")
	bindOption(f, "data-format", func(o *pipeline.Options) *string { return &o.DataFormat })
	fs.StringVar(&v.Order, "order", "", "condition order, e.g. \"ctrl, drug A\"")
	bindOption(f, "order", func(o *pipeline.Options) *string { return &o.Order })
	fs.StringVar(&v.ReplicateCentre, "replicate-centre", "", "replicate summary: mean (default), median, robust")
	bindOption(f, "replicate-centre", func(o *pipeline.Options) *string { return &o.ReplicateCentre })
	fs.BoolVar(&v.Paired, "paired", false, "pair replicates across conditions")
	bindOption(f, "paired", func(o *pipeline.Options) *bool { return &o.Paired })
	fs.StringVar(&f.prefs, "config", "", "preferences file (default ./superviolin.toml, then the user config)")
}

// registerPlot adds the layout and render flags.
func (f *optionFlags) registerPlot(fs *pflag.FlagSet) {
	v := &f.values
	fs.StringVar(&v.Centre, "centre", "", "skeleton centre: mean (default), median")
	bindOption(f, "centre", func(o *pipeline.Options) *string { return &o.Centre })
	fs.StringVar(&v.ErrorBar, "error-bars", "", "error bars: SEM (default), SD, CI95")
	bindOption(f, "error-bars", func(o *pipeline.Options) *string { return &o.ErrorBar })
	fs.BoolVar(&v.StatsOnPlot, "stats-on-plot", false, "draw p-value brackets above the violins")
	bindOption(f, "stats-on-plot", func(o *pipeline.Options) *bool { return &o.StatsOnPlot })
	fs.StringVar(&v.YLimits, "ylim", "", "value axis limits \"lower, upper\"")
	bindOption(f, "ylim", func(o *pipeline.Options) *string { return &o.YLimits })
	fs.Float64Var(&v.Width, "width", 0, "violin half-width multiplier (default 0.8)")
	bindOption(f, "width", func(o *pipeline.Options) *float64 { return &o.Width })
	fs.Float64Var(&v.Bandwidth, "bandwidth", 0, "KDE bandwidth factor (default: Scott's rule)")
	bindOption(f, "bandwidth", func(o *pipeline.Options) *float64 { return &o.Bandwidth })
	fs.StringVar(&v.GridSpan, "grid-span", "", "density grid: intersection (default), union")
	bindOption(f, "grid-span", func(o *pipeline.Options) *string { return &o.GridSpan })
	fs.StringVar(&v.DensityMode, "density-mode", "", "density normalization: area (default), baseline")
	bindOption(f, "density-mode", func(o *pipeline.Options) *string { return &o.DensityMode })
	fs.StringVar(&v.Palette, "colours", "", "colour map name or list, e.g. \"red, #00ff00, blue\" (default Set2)")
	bindOption(f, "colours", func(o *pipeline.Options) *string { return &o.Palette })
	fs.Uint64Var(&v.Seed, "seed", 0, "seed for shuffling sequential colour maps")
	bindOption(f, "seed", func(o *pipeline.Options) *uint64 { return &o.Seed })
	fs.BoolVar(&v.Legend, "legend", false, "show a replicate legend")
	bindOption(f, "legend", func(o *pipeline.Options) *bool { return &o.Legend })
	fs.StringVar(&v.XLabel, "xlabel", "", "condition axis label")
	bindOption(f, "xlabel", func(o *pipeline.Options) *string { return &o.XLabel })
	fs.StringVar(&v.YLabel, "ylabel", "", "value axis label (default: the value column)")
	bindOption(f, "ylabel", func(o *pipeline.Options) *string { return &o.YLabel })
	fs.StringVarP(&f.formats, "format", "f", "", "output format(s): svg (default), png, pdf, json (comma-separated)")
	f.apply["format"] = func(o *pipeline.Options) { o.Formats = parseFormats(f.formats) }
	fs.IntVar(&v.DPI, "dpi", 0, "PNG resolution (default 300)")
	bindOption(f, "dpi", func(o *pipeline.Options) *int { return &o.DPI })
	fs.BoolVar(&v.Curves, "curves", false, "include density curves in JSON output")
	bindOption(f, "curves", func(o *pipeline.Options) *bool { return &o.Curves })
	fs.BoolVar(&v.Refresh, "refresh", false, "ignore cached artifacts")
	bindOption(f, "refresh", func(o *pipeline.Options) *bool { return &o.Refresh })
}

// resolve merges preferences and explicitly set flags. It returns the
// preferences file that was used, if any.
func (f *optionFlags) resolve(fs *pflag.FlagSet) (pipeline.Options, string, error) {
	var (
		prefs *config.Preferences
		path  string
		err   error
	)
	if f.prefs != "" {
		path = f.prefs
		prefs, err = config.Load(path)
	} else {
		prefs, path, err = config.Find()
	}
	if err != nil {
		return pipeline.Options{}, path, err
	}

	var opts pipeline.Options
	prefs.Apply(&opts)
	fs.Visit(func(fl *pflag.Flag) {
		if set, ok := f.apply[fl.Name]; ok {
			set(&opts)
		}
	})
	if opts.YLabel == "" {
		opts.YLabel = opts.Columns.WithDefaults().Value
	}
	return opts, path, nil
}
