package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"eventbudget/internal/cli"
	"eventbudget/internal/config"
	apphttp "eventbudget/internal/http"
	"eventbudget/internal/log"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))

	cfg, err := cli.LoadAndValidateConfig((*config.Config).Validate)
	if err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	rt, err := cli.Build(context.Background(), logger, cfg, cli.BuildOptions{Notifier: true, SummaryCache: true})
	if err != nil {
		logger.Error("Failed to initialize runtime", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	rt.Caches.StartCleanup(10 * time.Minute)

	srv := apphttp.NewServer(":"+cfg.Port, rt.Service, logger, apphttp.WithAttachmentStore(rt.Backend.Attachments))

	parent, fail := context.WithCancelCause(context.Background())
	ctx, done := cli.GracefulShutdown(parent, logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if err := rt.Close(); err != nil {
			logger.Error("Failed to close backend", log.FieldError, err)
		}
	})

	go func() {
		logger.Info("Starting eventbudget server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
			fail(err)
		}
	}()

	cli.WaitForShutdown(ctx, done)
	if err := context.Cause(parent); err != nil {
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
