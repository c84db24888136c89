package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/use-agent/propsearch/api"
	"github.com/use-agent/propsearch/config"
	"github.com/use-agent/propsearch/dataset"
	"github.com/use-agent/propsearch/probe"
	"github.com/use-agent/propsearch/scraper"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	closeLog := initLogger(cfg.Log)
	defer closeLog()
	slog.Info("propsearch starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"headless", cfg.Browser.Headless,
		"stealth", cfg.Browser.Stealth,
	)

	// ── 3. Site adapters ────────────────────────────────────────────
	sites, err := scraper.NewSites(cfg.Sites)
	if err != nil {
		slog.Error("invalid site configuration", "error", err)
		os.Exit(1)
	}
	for _, s := range sites.All() {
		slog.Info("site adapter ready", "site", s.Name, "url", s.URL)
	}

	// ── 4. Search runner (one browser per search) ───────────────────
	runner := scraper.NewRunner(
		scraper.NewRodLauncher(cfg.Browser),
		scraper.TimingFromConfig(cfg.Timing),
	)

	// ── 5. Dataset (optional) ───────────────────────────────────────
	ds, err := dataset.Load(cfg.Dataset.Path)
	if err != nil {
		slog.Warn("dataset unavailable, dataset routes will answer 503", "error", err)
	} else {
		slog.Info("dataset loaded", "path", ds.Path())
	}

	// ── 6. Setup router ─────────────────────────────────────────────
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	router := api.NewRouter(ctx, cfg, api.Deps{
		Runner:  runner,
		Sites:   sites,
		Dataset: ds,
		Prober:  probe.New(cfg.Probe.Timeout, cfg.Probe.CacheTTL),
	}, time.Now())

	// ── 7. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 8. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String(), "active_sessions", runner.ActiveSessions())

	// In-flight searches close their own browsers when they finish.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownGrace)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	slog.Info("propsearch stopped")
}

// initLogger configures slog based on the LogConfig. When a log file is
// configured, records go to stdout and to a size-rotated file.
func initLogger(cfg config.LogConfig) (closeFn func()) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var out io.Writer = os.Stdout
	closeFn = func() {}
	if cfg.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
		out = io.MultiWriter(os.Stdout, rotator)
		closeFn = func() { _ = rotator.Close() }
	}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}

	slog.SetDefault(slog.New(handler))
	return closeFn
}
