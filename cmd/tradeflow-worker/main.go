package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tradeflow/internal/amqp"
	"tradeflow/internal/cli"
	"tradeflow/internal/log"
	gsheet "tradeflow/internal/source/google"
	"tradeflow/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)
	logger.Info("Starting tradeflow-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	// SQLite is the mirror's source of truth
	sqliteRepo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer sqliteRepo.Close()

	if cfg.GoogleSpreadsheetID == "" {
		logger.Error("GOOGLE_SPREADSHEET_ID is required, the worker has nothing to mirror to")
		os.Exit(1)
	}
	sheetsClient, err := gsheet.NewFromEnv(context.Background())
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mirror := worker.NewMirrorWorker(sqliteRepo, sheetsClient, sheetsClient, cfg.MirrorBatchSize, cfg.MirrorInterval)

	// Seed the cursor from the sheet and catch up on anything missed while
	// the worker was down.
	if err := mirror.StartupCheck(ctx); err != nil {
		logger.Error("Startup check failed", "error", err)
		// Don't exit - refresh messages and the periodic sweep will retry
	}

	go func() {
		err := amqpClient.ConsumeDatasetRefresh(ctx, func(msg *amqp.DatasetRefreshMessage) error {
			return mirror.HandleRefreshMessage(ctx, msg)
		})
		if err != nil && err != context.Canceled {
			logger.Error("Message consumption failed", "error", err)
		}
		cancel()
	}()

	// Periodic sweep for refresh messages that never arrived
	go func() {
		if err := mirror.Run(ctx); err != nil && err != context.Canceled {
			logger.Error("Periodic mirror sweep stopped", "error", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	logger.Info("Shutting down worker...")
	cancel()

	// Give in-flight mirror batches a moment to finish
	time.Sleep(2 * time.Second)
	logger.Info("Worker shutdown complete")
}
