package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/assetpipe/internal/adapters/httpapi"
	"go.trai.ch/assetpipe/internal/adapters/watcher"
	"golang.org/x/sync/errgroup"
)

func (c *CLI) newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve statistics and Prometheus metrics over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			configPath, _ := cmd.Flags().GetString("config")
			return c.runServe(cmd, addr, configPath)
		},
	}
	cmd.Flags().String("addr", "", "Listen address (default from configuration)")
	return cmd
}

func (c *CLI) runServe(cmd *cobra.Command, addr, configPath string) error {
	comps := c.components
	if addr == "" {
		addr = comps.Pipeline.Config().Metrics.Addr
	}

	router := httpapi.NewRouter(
		func() any { return comps.Pipeline.Stats() },
		comps.Metrics.Registry(),
		comps.Logger,
	)
	server := httpapi.NewServer(addr, router, comps.Logger)

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		return server.Start(ctx)
	})
	if configPath != "" {
		w := watcher.New(configPath, comps.ConfigLoader, comps.Pipeline.Reconfigure, comps.Logger,
			comps.Metrics.ConfigReloads)
		g.Go(func() error {
			return w.Run(ctx)
		})
	}
	return g.Wait()
}
