package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"leasekeeper/internal/app"
	"leasekeeper/internal/platform/config"
	"leasekeeper/internal/platform/logger"
)

// main loads configuration, wires the app and runs the HTTP server and the
// daily scheduler until SIGINT or SIGTERM.
func main() {
	_ = godotenv.Load() //nolint:errcheck // .env is optional

	cfg := config.FromEnv()
	log := logger.New(cfg.Log.Format, cfg.Log.Level)

	log.Info("initializing leasekeeper",
		"addr", cfg.Server.Addr,
		"environment", cfg.Environment,
		"notify_channel", cfg.Notify.Channel,
		"scheduler_enabled", cfg.Scheduler.Enabled,
	)

	a, err := app.New(cfg, log)
	if err != nil {
		log.Error("failed to initialize", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Scheduler.Enabled {
		a.Runner.Start()
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting http server", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	exitCode := 0
	select {
	case <-ctx.Done():
		log.Info("shutting down gracefully")
	case err := <-serveErr:
		if err != nil {
			log.Error("server error", "error", err)
			exitCode = 1
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "error", err)
		exitCode = 1
	}
	if cfg.Scheduler.Enabled {
		if err := a.Runner.Stop(shutdownCtx); err != nil {
			log.Error("scheduler did not stop in time", "error", err)
			exitCode = 1
		}
	}
	if err := a.Close(); err != nil {
		log.Error("failed to close resources", "error", err)
		exitCode = 1
	}

	log.Info("server stopped")
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}
