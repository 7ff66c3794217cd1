package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/orthoroute/pkg/server"
)

// serveCommand creates the serve command that runs the HTTP API until
// interrupted.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string
	var noCache bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the routing HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			ctx := cmd.Context()
			runner, err := c.newRunner(ctx, cfg.Cache, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			printKeyValue("Address", cfg.Server.Addr)
			printKeyValue("Cache", cacheLabel(cfg, noCache))
			return server.New(runner, cfg, c.Logger).Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the result cache")

	return cmd
}
