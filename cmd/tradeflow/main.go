package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"tradeflow/internal/amqp"
	"tradeflow/internal/backend"
	"tradeflow/internal/cli"
	"tradeflow/internal/dataset"
	apphttp "tradeflow/internal/http"
	"tradeflow/internal/log"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	// Build the record source from configuration
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	if err := backendCfg.Validate(); err != nil {
		logger.Error("Backend configuration validation failed", "error", err)
		os.Exit(1)
	}

	factory := backend.NewFactory(logger.Logger)
	result, err := factory.CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to create backend", "error", err, log.FieldBackend, backendCfg.Type.String())
		os.Exit(1)
	}
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup failed", "error", err)
			}
		}()
	}

	loader := dataset.NewLoader(result.Backend, cfg.MaxRecords, logger)
	srv := apphttp.NewServer(":"+cfg.Port, loader, cfg.CacheTTL)

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	// Signal handling cancels ctx, which also stops the AMQP subscriber.
	ctx, done := cli.GracefulShutdown(logger.Logger, 30*time.Second, func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err, log.FieldOperation, log.OpShutdown)
		}
	})

	// Optional AMQP subscriber: drop the snapshot and computed views when a
	// refresh message arrives. A dedicated client keeps consumption off the
	// backend's publishing channel.
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP subscriber, continuing without live refresh", "error", err)
		} else {
			defer amqpClient.Close()
			go func() {
				err := amqpClient.ConsumeDatasetRefresh(ctx, func(msg *amqp.DatasetRefreshMessage) error {
					flushed := srv.InvalidateViews()
					logger.Info("Dataset refresh received",
						log.FieldSource, msg.Source,
						log.FieldRecordCount, msg.Count,
						"views_flushed", flushed)
					return nil
				})
				if err != nil && err != context.Canceled {
					logger.Error("Refresh consumption failed", "error", err)
				}
			}()
		}
	}

	logger.Info("Starting tradeflow server",
		log.FieldOperation, log.OpStartup,
		"port", cfg.Port,
		log.FieldBackend, backendCfg.Type.String())
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully", log.FieldOperation, log.OpShutdown)
}
