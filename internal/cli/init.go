// Package cli provides common CLI initialization utilities shared by
// cmd/budget, cmd/budget-worker and cmd/budgetctl.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"eventbudget/internal/amqp"
	"eventbudget/internal/backend"
	"eventbudget/internal/cache"
	"eventbudget/internal/config"
	"eventbudget/internal/log"
	"eventbudget/internal/services"
)

// SetupLogger initializes structured logging at the given LOG_LEVEL and
// sets it as the default logger. An unknown level falls back to info.
func SetupLogger(level string) *log.Logger {
	lvl, err := log.ParseLevel(level)
	logger := log.New(log.Config{
		Level:     lvl,
		Component: log.ComponentApp,
		Handler:   slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}),
	})
	log.SetDefault(logger)
	if err != nil {
		logger.Warn("Invalid LOG_LEVEL, using info", "error", err)
	}
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it with validate,
// usually Config.Validate or Config.ValidateWorker.
func LoadAndValidateConfig(validate func(*config.Config) error) (*config.Config, error) {
	cfg := config.Load()
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// OpenBackend creates the document and attachment stores selected by
// DATA_BACKEND.
func OpenBackend(ctx context.Context, logger *log.Logger, cfg *config.Config) (*backend.BackendResult, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	return backend.NewFactory(logger).CreateBackend(ctx, bcfg)
}

// NewNotifier connects the totals-changed publisher. It returns nil when no
// AMQP_URL is configured, which disables notifications.
func NewNotifier(logger *log.Logger, cfg *config.Config) (*amqp.Client, error) {
	if cfg.AMQPURL == "" {
		logger.Info("AMQP disabled - no AMQP_URL provided")
		return nil, nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		return nil, fmt.Errorf("connect AMQP: %w", err)
	}
	logger.Info("AMQP notifier initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	return client, nil
}

// Runtime bundles what a command needs to serve requests.
type Runtime struct {
	Config   *config.Config
	Backend  *backend.BackendResult
	Notifier *amqp.Client
	Caches   *cache.Manager
	Service  *services.Service
}

// BuildOptions selects the optional parts of a Runtime.
type BuildOptions struct {
	// Notifier publishes totals-changed messages when AMQP_URL is set.
	Notifier bool
	// SummaryCache caches event summaries. Only the process that performs
	// the mutations invalidates it, so read-only processes such as the
	// export worker must leave it off.
	SummaryCache bool
}

// Build opens the backend, the optional notifier and the summary cache and
// wires them into a Service. Close releases everything it opened.
func Build(ctx context.Context, logger *log.Logger, cfg *config.Config, opts BuildOptions) (*Runtime, error) {
	result, err := OpenBackend(ctx, logger, cfg)
	if err != nil {
		return nil, fmt.Errorf("open backend: %w", err)
	}
	rt := &Runtime{Config: cfg, Backend: result, Caches: cache.NewManager(logger)}

	svcOpts := []services.Option{services.WithAttachments(result.Attachments)}
	if opts.Notifier {
		notifier, err := NewNotifier(logger, cfg)
		if err != nil {
			_ = result.Close()
			return nil, err
		}
		if notifier != nil {
			rt.Notifier = notifier
			svcOpts = append(svcOpts, services.WithNotifier(notifier))
		}
	}
	if opts.SummaryCache && cfg.SummaryCacheSize > 0 {
		summaries := cache.NewSummaries(cfg.SummaryCacheSize, cfg.SummaryCacheTTL)
		rt.Caches.Register(summaries)
		svcOpts = append(svcOpts, services.WithSummaryCache(summaries))
	}

	rt.Service = services.New(result.Store, logger, svcOpts...)
	return rt, nil
}

// Close stops cache cleanup and releases the notifier and the backend.
func (rt *Runtime) Close() error {
	rt.Caches.Stop()
	if rt.Notifier != nil {
		_ = rt.Notifier.Close()
	}
	return rt.Backend.Close()
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals or when
// parent is done, and a channel that signals when cleanup is complete.
func GracefulShutdown(parent context.Context, logger *log.Logger, timeout time.Duration, cleanup func(ctx context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
		case <-parent.Done():
			logger.Info("Shutting down", "reason", context.Cause(parent))
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup ran.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
