// Command ingest loads trade records from a CSV file into SQLite and
// publishes a dataset refresh message so running dashboards and the mirror
// worker pick up the new rows.
package main

import (
	"context"
	"flag"
	"os"

	"golang.org/x/sync/errgroup"

	"tradeflow/internal/amqp"
	"tradeflow/internal/cli"
	"tradeflow/internal/core"
	"tradeflow/internal/log"
	"tradeflow/internal/services"
	"tradeflow/internal/source/memory"
)

func main() {
	var (
		file      = flag.String("file", "data/trade_records.csv", "CSV file to ingest")
		batchSize = flag.Int("batch", 500, "rows per insert transaction")
	)
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentIngest)
	cfg := cli.LoadAndValidateConfig(logger)

	f, err := os.Open(*file)
	if err != nil {
		logger.Error("Failed to open CSV file", "error", err, "file", *file)
		os.Exit(1)
	}
	defer f.Close()

	sqliteRepo := cli.InitSQLite(logger, cfg.SQLiteDBPath)

	// AMQP is optional; without it the ingest still lands in SQLite
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without refresh message", "error", err)
			amqpClient = nil
		}
	}

	svc := services.NewIngestService(sqliteRepo, amqpClient)
	defer svc.Close()

	ctx := context.Background()
	g, ctx := errgroup.WithContext(ctx)

	batches := make(chan []core.TradeRecord, 4)

	// Parse stage: read and validate the CSV, emitting insert-sized batches
	g.Go(func() error {
		defer close(batches)

		records, err := memory.ParseCSVRecords(f)
		if err != nil {
			return err
		}
		logger.Info("Parsed CSV file", "file", *file, log.FieldRecordCount, len(records))

		for start := 0; start < len(records); start += *batchSize {
			end := start + *batchSize
			if end > len(records) {
				end = len(records)
			}
			select {
			case batches <- records[start:end]:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	// Insert stage: one transaction per batch
	var inserted int
	g.Go(func() error {
		for batch := range batches {
			if err := sqliteRepo.AppendRecords(ctx, batch); err != nil {
				return err
			}
			inserted += len(batch)
			logger.Debug("Inserted batch", "batch", len(batch), "inserted", inserted)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Ingest failed", "error", err, "inserted", inserted)
		os.Exit(1)
	}

	// One refresh message for the whole run
	if err := svc.NotifyRefresh(ctx); err != nil {
		logger.Warn("Failed to publish refresh message", "error", err)
	}

	logger.Info("Ingest complete", "file", *file, log.FieldRecordCount, inserted)
}
