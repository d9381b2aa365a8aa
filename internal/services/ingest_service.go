package services

import (
	"context"
	"fmt"
	"log/slog"

	"tradeflow/internal/amqp"
	"tradeflow/internal/core"
	"tradeflow/internal/log"
	"tradeflow/internal/storage"
)

// IngestService orchestrates record ingestion across SQLite and AMQP.
// Records land in SQLite first; a dataset refresh message is then published
// so dashboards and the mirror worker pick up the new rows.
type IngestService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
}

func NewIngestService(storage *storage.SQLiteRepository, amqpClient *amqp.Client) *IngestService {
	return &IngestService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

// IngestBatch appends a batch of records and returns the total row count
// after the insert. The whole batch is rejected if any record is invalid.
// A refresh message is published best-effort; publish failures are logged
// but do not fail the ingest, the rows are already durable in SQLite.
func (s *IngestService) IngestBatch(ctx context.Context, records []core.TradeRecord) (int64, error) {
	if len(records) == 0 {
		return s.storage.CountRecords(ctx)
	}

	if err := s.storage.AppendRecords(ctx, records); err != nil {
		return 0, fmt.Errorf("append records: %w", err)
	}

	total, err := s.storage.CountRecords(ctx)
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}

	if err := s.publishRefresh(ctx, total); err != nil {
		slog.ErrorContext(ctx, "Failed to publish refresh message",
			log.FieldOperation, log.OpPublish,
			"error", err,
			"total", total)
		// Don't fail the ingest, rows are saved locally
	}

	return total, nil
}

// NotifyRefresh publishes a dataset refresh message with the current row
// count without ingesting anything. Used after out-of-band table changes.
func (s *IngestService) NotifyRefresh(ctx context.Context) error {
	total, err := s.storage.CountRecords(ctx)
	if err != nil {
		return fmt.Errorf("count records: %w", err)
	}
	return s.publishRefresh(ctx, total)
}

func (s *IngestService) publishRefresh(ctx context.Context, total int64) error {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping refresh message")
		return nil
	}
	return s.amqpClient.PublishDatasetRefresh(ctx, s.storage.SourceID(), total)
}

// Close closes both storage and AMQP connections
func (s *IngestService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ingest service: %v", errs)
	}

	return nil
}
