package source

import (
	"context"

	"tradeflow/internal/core"
)

// Ports for record sources and sinks.
type (
	// RecordReader loads the base trade table, bounded to limit rows in
	// source order. Implementations validate rows against the TradeRecord
	// shape at the load boundary.
	RecordReader interface {
		LoadRecords(ctx context.Context, limit int) ([]core.TradeRecord, error)
	}

	// RecordWriter appends a batch of records to a sink.
	RecordWriter interface {
		AppendRecords(ctx context.Context, records []core.TradeRecord) error
	}

	// Identifier names a source for cache keying and user-facing notices.
	Identifier interface {
		SourceID() string
	}
)
