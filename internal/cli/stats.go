package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/superviolin/pkg/pipeline"
)

// statsCommand creates the stats command, which runs the statistical
// comparison without fitting densities or drawing anything.
func (c *CLI) statsCommand() *cobra.Command {
	var (
		report  string
		asJSON  bool
		noCache bool
	)
	flags := newOptionFlags()

	cmd := &cobra.Command{
		Use:   "stats [file]",
		Short: "Compare conditions using replicate central values",
		Long: `Compare conditions using replicate central values.

Each replicate contributes one central value per condition. A Shapiro-Wilk
check on every condition selects the parametric or the rank-based test. Two
conditions get a t-test or Mann-Whitney U (Wilcoxon when paired); three or more
get a one-way ANOVA with Tukey HSD, or Kruskal-Wallis with pairwise
Mann-Whitney tests.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, _, err := flags.resolve(cmd.Flags())
			if err != nil {
				return err
			}
			opts.Path = args[0]
			return c.runStats(cmd.Context(), opts, report, asJSON, noCache)
		},
	}

	cmd.Flags().StringVar(&report, "report", "", "write the posthoc matrix as TSV (\"-\" for stdout)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the comparison as JSON")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	flags.registerData(cmd.Flags())

	return cmd
}

func (c *CLI) runStats(ctx context.Context, opts pipeline.Options, report string, asJSON, noCache bool) error {
	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()
	opts.Logger = c.Logger

	logger := loggerFromContext(ctx)
	prog := newProgress(logger)
	t, err := runner.Load(ctx, opts)
	if err != nil {
		return err
	}
	cmp, cached, err := runner.StatsWithCacheInfo(ctx, t, opts)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Compared %d conditions", len(cmp.Groups)))
	logger.Debug("comparison", "test", cmp.Test.Name, "cached", cached)

	if asJSON {
		data, err := json.MarshalIndent(cmp, "", "  ")
		if err != nil {
			return fmt.Errorf("encode comparison: %w", err)
		}
		fmt.Fprintln(c.Out, string(data))
	} else {
		printer{c.Out}.comparison(cmp)
	}

	if report == "" {
		return nil
	}
	data, err := pipeline.Report(cmp)
	if err != nil {
		return err
	}
	if data == nil {
		printer{c.Out}.detail("no posthoc matrix for %d conditions", len(cmp.Groups))
		return nil
	}
	return writeFile(report, data)
}
