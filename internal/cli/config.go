package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/superviolin/pkg/config"
)

// initCommand creates the init command, which writes a default preferences file.
func (c *CLI) initCommand() *cobra.Command {
	var force, user bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default superviolin.toml",
		Long: `Write a commented superviolin.toml with the default plot settings.

The file is written to the working directory, or to the user config directory
with --user. Settings in the file apply to every render and stats run unless a
flag overrides them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.FileName
			if user {
				p, err := config.UserPath()
				if err != nil {
					return fmt.Errorf("get config dir: %w", err)
				}
				path = p
			}
			if err := config.WriteFile(path, config.Default(), force); err != nil {
				return err
			}

			out := printer{c.Out}
			out.success("Wrote preferences")
			out.file(path)
			out.nextStep("Render a plot", "superviolin render data.csv")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cmd.Flags().BoolVar(&user, "user", false, "write to the user config directory")

	return cmd
}

// configCommand creates the config command.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect preferences",
	}
	cmd.AddCommand(c.configPathCommand())
	cmd.AddCommand(c.configShowCommand())
	return cmd
}

// configPathCommand prints the user-level preferences location.
func (c *CLI) configPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the user preferences path",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.UserPath()
			if err != nil {
				return fmt.Errorf("get config dir: %w", err)
			}
			fmt.Fprintln(c.Out, path)
			return nil
		},
	}
}

// configShowCommand prints the preferences that apply in the working directory.
func (c *CLI) configShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the active preferences",
		RunE: func(cmd *cobra.Command, args []string) error {
			prefs, path, err := config.Find()
			if err != nil {
				return err
			}
			out := printer{c.Out}
			if path == "" {
				out.info("No preferences file, using defaults")
				prefs = config.Default()
			} else {
				out.keyValue("File", path)
			}
			out.line("")
			return config.Write(c.Out, prefs)
		},
	}
}
