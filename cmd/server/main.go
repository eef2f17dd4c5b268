package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors/version"

	"github.com/buildwatch/buildwatch/internal/api"
	"github.com/buildwatch/buildwatch/internal/buildbot"
	"github.com/buildwatch/buildwatch/internal/config"
	"github.com/buildwatch/buildwatch/internal/dashboard"
	"github.com/buildwatch/buildwatch/internal/fleet"
	"github.com/buildwatch/buildwatch/internal/metrics"
	"github.com/buildwatch/buildwatch/internal/render"
	"github.com/buildwatch/buildwatch/internal/ws"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("buildwatch starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	slog.Info("config loaded",
		"http_port", cfg.Server.HTTPPort,
		"upstream", cfg.Upstream.BaseURL,
		"cache_ttl", cfg.Cache.TTL,
		"build_window", cfg.Refresh.BuildWindow,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	prometheus.MustRegister(version.NewCollector("buildwatch"))

	client, err := buildbot.New(cfg.Upstream.BaseURL, cfg.Upstream.Timeout)
	if err != nil {
		slog.Error("failed to build upstream client", "err", err)
		os.Exit(1)
	}

	svc := dashboard.New(client, fleet.Options{
		BuildWindow:  cfg.Refresh.BuildWindow,
		Concurrency:  cfg.Refresh.Concurrency,
		RecentWindow: cfg.Refresh.RecentWindow,
	}, cfg.Cache.TTL)

	// Config watch - a reload drops the cached context so the next request
	// recomputes. Upstream and port changes still need a restart.
	go func() {
		if err := config.Watch(ctx, *configPath, func(*config.Config) {
			svc.Invalidate()
			slog.Info("config changed - result cache invalidated")
		}); err != nil {
			slog.Error("config watch stopped", "err", err)
		}
	}()

	renderer, err := render.New()
	if err != nil {
		slog.Error("failed to parse templates", "err", err)
		os.Exit(1)
	}

	// WebSocket hub - broadcasts the cached status to UI clients.
	hub := ws.New(svc, cfg.Stream.Interval)
	go hub.Run(ctx)

	httpMux := http.NewServeMux()
	httpMux.Handle("/", api.New(svc, renderer))
	httpMux.Handle("/ws/stream", hub)
	httpMux.Handle("/metrics", metrics.Handler())

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler: httpMux,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
		}
	}()

	<-ctx.Done()
	slog.Info("buildwatch shutting down")
	httpSrv.Shutdown(context.Background()) //nolint:errcheck
}
