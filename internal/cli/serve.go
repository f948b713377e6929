package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/superviolin/internal/server"
)

// serveCommand creates the serve command for the web app.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		envFile string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the upload form and plot API over HTTP",
		Long: `Serve the upload form and plot API over HTTP.

Settings come from the environment, after loading .env (or --env):

  SUPERVIOLIN_ADDR           listen address (default :8080)
  SUPERVIOLIN_MAX_UPLOAD_MB  upload size cap in MB (default 10)
  SUPERVIOLIN_REDIS_URL      shared Redis cache, e.g. redis://localhost:6379/0
  SUPERVIOLIN_CACHE_TTL      lifetime of cached plots, e.g. 24h`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var files []string
			if envFile != "" {
				files = append(files, envFile)
			}
			cfg, err := server.LoadConfig(files...)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
			}

			ctx := cmd.Context()
			srv, err := server.New(ctx, cfg, c.Logger)
			if err != nil {
				return err
			}
			defer srv.Close()

			printer{c.Out}.success("Serving on %s", cfg.Addr)
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides SUPERVIOLIN_ADDR)")
	cmd.Flags().StringVar(&envFile, "env", "", "environment file (default .env)")

	return cmd
}
