package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/botdeck/botdeck/server/internal/api"
	"github.com/botdeck/botdeck/server/internal/config"
	"github.com/botdeck/botdeck/server/internal/logging"
	"github.com/botdeck/botdeck/server/internal/metrics"
	"github.com/botdeck/botdeck/server/internal/query"
	"github.com/botdeck/botdeck/server/internal/snapshot"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	envPath := flag.String("env", ".env", "dotenv file loaded before the config; a missing file is ignored")
	flag.Parse()

	if err := godotenv.Load(*envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "botdeck-server: load %s: %v\n", *envPath, err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "botdeck-server: %v\n", err)
		os.Exit(1)
	}

	logger, level, logCloser := logging.New(cfg.Server.Log)
	defer logCloser.Close() //nolint:errcheck
	slog.SetDefault(logger)

	slog.Info("botdeck-server starting", "config", *configPath)
	slog.Info("config loaded",
		"http_port", cfg.Server.HTTPPort,
		"log_level", cfg.Server.Log.Level,
		"snapshot_source", cfg.Server.Snapshot.Source,
		"metrics", cfg.Server.Metrics.Enabled,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The snapshot is loaded once; nothing is served until it is complete.
	src, err := snapshot.Open(cfg.Server.Snapshot)
	if err != nil {
		slog.Error("failed to open snapshot source", "err", err)
		os.Exit(1)
	}
	start := time.Now()
	st, err := snapshot.Load(ctx, src, cfg.Server.Snapshot.Timeout)
	if err != nil {
		slog.Error("failed to load snapshot", "source", src.Name(), "err", fmt.Sprintf("%+v", err))
		os.Exit(1)
	}
	took := time.Since(start)

	stats := st.Stats()
	slog.Info("snapshot loaded",
		"source", src.Name(),
		"bots", stats.Bots,
		"workers", stats.Workers,
		"logs", stats.Logs,
		"duplicate_ids", stats.DuplicateIDs,
		"unresolved_worker_bots", stats.UnresolvedWorkerBots,
		"unresolved_log_bots", stats.UnresolvedLogBots,
		"unresolved_log_workers", stats.UnresolvedLogWorkers,
		"took", took,
	)

	var opts []api.Option
	if cfg.Server.Metrics.Enabled {
		m := metrics.New()
		m.SetSnapshot(stats, took)
		opts = append(opts, api.WithMetrics(m, cfg.Server.Metrics.Path))
	}
	handler := api.New(query.New(st), opts...)

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// Only the log level is hot-reloaded; the snapshot and listener are fixed
	// for the life of the process.
	go func() {
		err := config.Watch(ctx, *configPath, func(c *config.Config) {
			l, err := logging.ParseLevel(c.Server.Log.Level)
			if err != nil {
				slog.Warn("config: ignoring log level", "err", err)
				return
			}
			if l != level.Level() {
				level.Set(l)
				slog.Info("log level changed", "level", l.String())
			}
		})
		if err != nil {
			slog.Warn("config watcher stopped", "err", err)
		}
	}()

	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		slog.Info("botdeck-server shutting down", "signal", sig.String())
	case err := <-serveErr:
		slog.Error("HTTP server stopped", "err", err)
		os.Exit(1)
	}

	go func() {
		sig := <-sigs
		slog.Warn("second signal received, forcing exit", "signal", sig.String())
		os.Exit(1)
	}()

	handler.SetShuttingDown(true)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown incomplete", "err", err)
		return
	}
	slog.Info("botdeck-server stopped")
}
