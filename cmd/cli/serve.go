package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCmd() *cobra.Command {
	var port, adminPort string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API (and the admin listener when enabled)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			c, err := bootstrap(ctx, nil)
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())
			if port != "" {
				c.Config.Server.Port = port
			}
			if adminPort != "" {
				c.Config.Admin.Port = adminPort
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error { return c.APIServer().Start(gctx) })
			if c.Config.Admin.Enabled {
				g.Go(func() error { return c.AdminApp().Start(gctx) })
			}
			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "API port (overrides PORT)")
	cmd.Flags().StringVar(&adminPort, "admin-port", "", "Admin port (overrides ADMIN_PORT)")
	return cmd
}
