package main

import (
	"context"
	"errors"
	"os"
	"time"

	"eventbudget/internal/amqp"
	"eventbudget/internal/cli"
	"eventbudget/internal/config"
	"eventbudget/internal/log"
	gsheet "eventbudget/internal/sheets/google"
	"eventbudget/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	logger.Info("Starting budget-worker")

	cfg, err := cli.LoadAndValidateConfig((*config.Config).ValidateWorker)
	if err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	// The worker only reads summaries: it publishes nothing, and a summary
	// cache would never see the server's invalidations.
	rt, err := cli.Build(context.Background(), logger, cfg, cli.BuildOptions{})
	if err != nil {
		logger.Error("Failed to initialize runtime", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	sheetsClient, err := gsheet.New(context.Background(), cfg.GoogleSpreadsheetID, cfg.GoogleSummarySheet, logger)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		_ = rt.Close()
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		_ = rt.Close()
		os.Exit(1)
	}

	processor := worker.NewExportProcessor(rt.Service, sheetsClient, logger, worker.ExportProcessorConfig{
		FlushInterval: cfg.ExportInterval,
		MaxRetries:    worker.DefaultExportProcessorConfig().MaxRetries,
	})

	parent, fail := context.WithCancelCause(context.Background())
	ctx, done := cli.GracefulShutdown(parent, logger, 30*time.Second, func(ctx context.Context) {
		if err := processor.Stop(ctx); err != nil {
			logger.Error("Export processor stop failed", log.FieldError, err)
		}
		if err := amqpClient.Close(); err != nil {
			logger.Warn("Failed to close AMQP client", log.FieldError, err)
		}
		if err := rt.Close(); err != nil {
			logger.Error("Failed to close backend", log.FieldError, err)
		}
	})

	if err := processor.Start(ctx); err != nil {
		logger.Error("Failed to start export processor", log.FieldError, err)
		fail(err)
	}

	go func() {
		err := amqpClient.ConsumeTotalsChanged(ctx, processor.HandleTotalsChanged)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", log.FieldError, err)
			fail(err)
		}
	}()

	cli.WaitForShutdown(ctx, done)
	if err := context.Cause(parent); err != nil {
		os.Exit(1)
	}
	logger.Info("budget-worker stopped gracefully")
}
