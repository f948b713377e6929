package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/superviolin/pkg/dataset"
	"github.com/matzehuels/superviolin/pkg/errors"
	"github.com/matzehuels/superviolin/pkg/pipeline"
)

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		output  string
		noCache bool
		pick    bool
	)
	flags := newOptionFlags()

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render a Violin SuperPlot from a CSV or Excel file",
		Long: `Render a Violin SuperPlot from a CSV or Excel file.

Tidy tables need a condition, a value and a replicate column. Untidy Excel
workbooks hold one sheet per replicate with one column per condition.

Outputs are written next to the input (or to the -o base path), one file per
format. With three or more conditions the posthoc p-value matrix is written to
posthoc_statistics_<value>.txt.

Options not given on the command line come from superviolin.toml in the
working directory, then from the user config.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, prefs, err := flags.resolve(cmd.Flags())
			if err != nil {
				return err
			}
			if prefs != "" {
				c.Logger.Debug("using preferences", "path", prefs)
			}
			opts.Path = args[0]
			if err := c.chooseColumns(&opts, pick); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), opts, basePath(output, args[0]), noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output base path (default: input path without extension)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&pick, "pick-columns", false, "choose the condition, value and replicate columns interactively")
	flags.registerData(cmd.Flags())
	flags.registerPlot(cmd.Flags())

	return cmd
}

// demoCommand creates the demo command, which renders the bundled dataset.
func (c *CLI) demoCommand() *cobra.Command {
	var (
		output  string
		noCache bool
	)
	flags := newOptionFlags()

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Render the bundled two-condition demo dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, _, err := flags.resolve(cmd.Flags())
			if err != nil {
				return err
			}
			// The demo table has its own columns and conditions.
			opts.Columns = dataset.DefaultColumns()
			opts.DataFormat = ""
			opts.Order = ""
			opts.Demo = true
			return c.runRender(cmd.Context(), opts, basePath(output, "demo"), noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output base path (default \"demo\")")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	flags.registerPlot(cmd.Flags())

	return cmd
}

// chooseColumns runs the column picker when asked to, or when the required
// columns of a tidy table are missing and the terminal is interactive.
func (c *CLI) chooseColumns(opts *pipeline.Options, force bool) error {
	if opts.DataFormat == string(dataset.LayoutUntidy) {
		return nil
	}
	if !force && !isInteractive() {
		return nil
	}

	probe := *opts
	if err := probe.ValidateForLoad(); err != nil {
		return err
	}
	t, err := pipeline.Load(probe)
	if err != nil {
		return err
	}
	if !force && dataset.ValidateColumns(t, probe.Columns) == nil {
		return nil
	}

	cols, ok, err := pickColumns(t)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New(errors.ErrCodeInvalidInput, "no columns selected")
	}
	if opts.YLabel == opts.Columns.WithDefaults().Value {
		opts.YLabel = cols.Value
	}
	opts.Columns = cols
	c.Logger.Debug("picked columns", "condition", cols.Condition, "value", cols.Value, "replicate", cols.Replicate)
	return nil
}

// runRender executes the pipeline and writes every artifact to base.<format>.
func (c *CLI) runRender(ctx context.Context, opts pipeline.Options, base string, noCache bool) error {
	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger
	out := printer{c.Out}

	spinner := newSpinnerWithContext(ctx, c.Out, fmt.Sprintf("Rendering %s...", opts.SourceName()))
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	paths, err := writeArtifacts(result.Artifacts, opts.Formats, base)
	if err != nil {
		return err
	}

	if result.Layout.Stats != nil {
		out.info("%s", result.Layout.Stats.Test.String())
	}
	for _, w := range result.Warnings {
		out.warning("%s", w)
	}

	out.success("Rendered %s", opts.SourceName())
	for _, p := range paths {
		out.file(p)
	}
	if result.Report != nil {
		report := filepath.Join(filepath.Dir(base), pipeline.ReportFilename(opts.Columns.Value))
		if err := writeFile(report, result.Report); err != nil {
			return err
		}
		out.file(report)
	}
	out.plotStats(result.Stats.Rows, result.Stats.Groups, result.Stats.Replicates, result.CacheInfo.RenderHit)
	return nil
}

// writeArtifacts writes artifacts in the order of formats and returns the
// written paths.
func writeArtifacts(artifacts map[string][]byte, formats []string, base string) ([]string, error) {
	paths := make([]string, 0, len(formats))
	for _, format := range formats {
		data, ok := artifacts[format]
		if !ok {
			continue
		}
		path := base + "." + format
		if err := writeFile(path, data); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, data []byte) error {
	out, err := openOutput(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", path)
	}
	if _, err := out.Write(data); err != nil {
		out.Close()
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", path)
	}
	return out.Close()
}

// basePath derives the output base from -o or the input path. A known format
// extension on -o is stripped.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}
