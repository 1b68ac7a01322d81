package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/giygas/medicines-web/backend"
	"github.com/giygas/medicines-web/config"
	"github.com/giygas/medicines-web/data"
	"github.com/giygas/medicines-web/handlers"
	"github.com/giygas/medicines-web/health"
	"github.com/giygas/medicines-web/logging"
	"github.com/giygas/medicines-web/scheduler"
	"github.com/giygas/medicines-web/server"
	"github.com/giygas/medicines-web/validation"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load .env: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize slog for structured logging to console and file
	logging.InitLogger(logging.Options{
		LogDir:         cfg.LogDir,
		Env:            cfg.Env,
		Level:          cfg.LogLevel,
		RetentionWeeks: cfg.LogRetentionWeeks,
		MaxFileSize:    cfg.MaxLogFileSize,
	})
	defer func() {
		if err := logging.DefaultLoggingService.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to close log file: %v\n", err)
		}
	}()

	logging.Info("Configuration loaded",
		"env", cfg.Env.String(),
		"backend_url", cfg.BackendURL,
		"refresh_interval", cfg.RefreshInterval.String(),
		"strict_form_validation", cfg.StrictFormValidation)

	source := backend.NewClient(cfg)

	tableStore := data.NewTableContainer()
	tableStore.SetServerStartTime(time.Now())

	// The first load happens inside Start; a failure there is shown on the page, not fatal
	refreshScheduler := scheduler.NewScheduler(tableStore, source, cfg.RefreshInterval)
	if err := refreshScheduler.Start(); err != nil {
		logging.Error("Failed to start scheduler", "error", err)
		os.Exit(1)
	}

	validator := validation.NewFormValidator(cfg.StrictFormValidation)
	healthChecker := health.NewHealthChecker(tableStore, cfg.RefreshInterval)
	httpHandler := handlers.NewHTTPHandler(tableStore, refreshScheduler, source, validator, healthChecker)

	srv := server.NewServer(cfg, httpHandler)

	// Channel to listen for interrupt signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start()
	}()

	select {
	case <-quit:
	case err := <-serverErr:
		if err != nil {
			logging.Error("Server failed", "error", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("Server shutdown failed", "error", err)
	}
	refreshScheduler.Stop()

	logging.Info("Application stopped")
}
