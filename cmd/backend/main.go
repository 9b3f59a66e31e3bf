package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	configloader "github.com/foxseedlab/replaylog/external/config"
	objectstoreimpl "github.com/foxseedlab/replaylog/external/objectstore"
	repositoryimpl "github.com/foxseedlab/replaylog/external/repository"
	webhookimpl "github.com/foxseedlab/replaylog/external/webhook"
	"github.com/foxseedlab/replaylog/internal/config"
	"github.com/foxseedlab/replaylog/internal/httpapi"
	"github.com/foxseedlab/replaylog/internal/ingest"
	"github.com/samber/do/v2"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	slog.Info("startup: loading configuration")
	cfg := mustLoadConfig()
	initLogger(cfg)
	slog.Info("startup: configuration loaded", "env", cfg.Env)

	slog.Info("startup: building dependency graph")
	injector := setupDI(cfg)

	slog.Info("startup: launching http server")
	runServer(cfg, injector)
}

func mustLoadConfig() *config.Config {
	cfg, err := configloader.Load()
	if err != nil {
		slog.Error("config validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

func initLogger(cfg *config.Config) {
	logLevel := slog.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))
}

func setupDI(cfg *config.Config) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	repositoryimpl.RegisterDI(injector)
	objectstoreimpl.RegisterDI(injector)
	webhookimpl.RegisterDI(injector)
	ingest.RegisterDI(injector)
	httpapi.RegisterDI(injector)

	return injector
}

func runServer(cfg *config.Config, injector do.Injector) {
	handler, err := do.Invoke[http.Handler](injector)
	if err != nil {
		slog.Error("failed to resolve http handler", "error", err)
		os.Exit(1)
	}
	defer func() {
		if report := injector.Shutdown(); report != nil && !report.Succeed {
			slog.Error("dependency shutdown failed", "error", report.Error())
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	done := make(chan struct{})
	go func() {
		slog.Info("startup: listening", "addr", srv.Addr, "base_path", cfg.BasePath())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", "error", err)
		}
		close(done)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		slog.Info("shutting down")
	case <-done:
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("http server shutdown failed", "error", err)
	}
}
