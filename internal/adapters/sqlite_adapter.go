package adapters

import (
	"context"

	"tradeflow/internal/core"
	"tradeflow/internal/services"
	"tradeflow/internal/source"
	"tradeflow/internal/storage"
)

// SQLiteAdapter bridges SQLiteRepository and IngestService to the source
// ports. Reads go straight to the repository; writes go through the ingest
// service so a refresh message is published after each batch.
type SQLiteAdapter struct {
	storage *storage.SQLiteRepository
	service *services.IngestService
}

var (
	_ source.RecordReader = (*SQLiteAdapter)(nil)
	_ source.RecordWriter = (*SQLiteAdapter)(nil)
	_ source.Identifier   = (*SQLiteAdapter)(nil)
)

func NewSQLiteAdapter(storage *storage.SQLiteRepository, service *services.IngestService) *SQLiteAdapter {
	return &SQLiteAdapter{
		storage: storage,
		service: service,
	}
}

// LoadRecords implements source.RecordReader
func (a *SQLiteAdapter) LoadRecords(ctx context.Context, limit int) ([]core.TradeRecord, error) {
	return a.storage.LoadRecords(ctx, limit)
}

// AppendRecords implements source.RecordWriter
func (a *SQLiteAdapter) AppendRecords(ctx context.Context, records []core.TradeRecord) error {
	_, err := a.service.IngestBatch(ctx, records)
	return err
}

// SourceID implements source.Identifier
func (a *SQLiteAdapter) SourceID() string {
	return a.storage.SourceID()
}
