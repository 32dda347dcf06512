package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vango-dev/cveboard/internal/config"
	cverrors "github.com/vango-dev/cveboard/internal/errors"
	"github.com/vango-dev/cveboard/internal/routes"
	"github.com/vango-dev/cveboard/pkg/middleware"
	"github.com/vango-dev/cveboard/pkg/nav"
	"github.com/vango-dev/cveboard/pkg/server"
	"github.com/vango-dev/cveboard/pkg/view"
)

// resolveConfigDir returns dir, or when it is empty the nearest directory at or
// above start that holds a config file, falling back to start.
func resolveConfigDir(dir, start string) string {
	if dir != "" {
		return dir
	}
	if root, err := config.FindProjectRoot(start); err == nil {
		return root
	}
	return start
}

// loadConfig reads cveboard.json from dir (defaults if absent), applies the
// environment and validates the result. An empty dir searches upward from the
// working directory.
func loadConfig(dir string) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(resolveConfigDir(dir, "."))
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// viewSource opens the configured view template source.
func viewSource(ctx context.Context, cfg *config.Config) (view.Source, error) {
	switch cfg.Views.Source {
	case config.SourceDir:
		return view.NewDirSource(cfg.Views.Dir), nil
	case config.SourceS3:
		src, err := view.NewS3SourceFromConfig(ctx, view.S3Options{
			Bucket:   cfg.Views.S3.Bucket,
			Prefix:   cfg.Views.S3.Prefix,
			Region:   cfg.Views.S3.Region,
			Endpoint: cfg.Views.S3.Endpoint,
		})
		if err != nil {
			return nil, cverrors.New("E130").WithTarget("s3://" + cfg.Views.S3.Bucket).Wrap(err)
		}
		return src, nil
	default:
		return routes.EmbeddedViews(), nil
	}
}

// app is the wired application.
type app struct {
	ctrl   *nav.Controller
	server *server.Server
}

// newApp builds the controller and server described by cfg.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	src, err := viewSource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	navOpts := []nav.Option{nav.WithLogger(logger), nav.WithMiddleware(middleware.Logger(logger))}
	srvCfg := server.DefaultConfig()
	srvCfg.Address = cfg.Address()
	var srvOpts []server.Option

	if cfg.Metrics.Enabled {
		registry := prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics := middleware.Prometheus(
			middleware.WithRegistry(registry),
			middleware.WithNamespace(cfg.Metrics.Namespace),
		)
		navOpts = append(navOpts, nav.WithMiddleware(metrics))
		srvOpts = append(srvOpts, server.WithStreamObserver(metrics))
		srvCfg.MetricsPath = cfg.Metrics.Path
		srvCfg.MetricsHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
	}
	if cfg.Tracing.Enabled {
		navOpts = append(navOpts, nav.WithMiddleware(
			middleware.OpenTelemetry(middleware.WithTracerName(cfg.Tracing.TracerName)),
		))
	}

	ctrl, err := routes.New(ctx, cfg.BasePath, src, navOpts...)
	if err != nil {
		return nil, cverrors.FromError(err, "E130")
	}

	srvOpts = append(srvOpts, server.WithLogger(logger))
	return &app{
		ctrl:   ctrl,
		server: server.New(ctrl, srvCfg, srvOpts...),
	}, nil
}

func (a *app) Close() {
	a.ctrl.Close()
}
