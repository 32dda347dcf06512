package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	cverrors "github.com/vango-dev/cveboard/internal/errors"
)

func serveCmd(configDir *string) *cobra.Command {
	var (
		port int
		host string
		base string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard",
		Long: `Serve the dashboard over HTTP.

Examples:
  cveboard serve
  cveboard serve --port=9000 --base=/dashboard/
  BASE_URL=/cves/ cveboard serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configDir)
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Server.Port = port
			}
			if host != "" {
				cfg.Server.Host = host
			}
			if base != "" {
				cfg.BasePath = base
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := cfg.Logger(os.Stderr)
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			success(out, "Serving on http://%s%s", cfg.Address(), a.ctrl.Base())
			if cfg.Metrics.Enabled {
				info(out, "Metrics at %s", cfg.Metrics.Path)
			}
			if err := a.server.Run(ctx); err != nil {
				return cverrors.New("E131").WithTarget(cfg.Address()).Wrap(err)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from cveboard.json)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from cveboard.json)")
	cmd.Flags().StringVarP(&base, "base", "b", "", "Base path (default from cveboard.json or BASE_URL)")

	return cmd
}
