// Package worker mirrors trade records from SQLite to an external sink,
// normally a Google Sheets spreadsheet. The worker is driven by AMQP
// refresh messages with a periodic sweep as a backup for lost messages.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"tradeflow/internal/amqp"
	"tradeflow/internal/log"
	"tradeflow/internal/source"
	"tradeflow/internal/storage"
)

// MirrorWorker copies rows from the SQLite table to the sink in id order.
// It keeps an in-memory cursor of the last mirrored row id; StartupCheck
// seeds the cursor from the sink so restarts don't duplicate rows.
type MirrorWorker struct {
	storage   *storage.SQLiteRepository
	sink      source.RecordWriter
	probe     source.RecordReader
	batchSize int
	interval  time.Duration

	mu     sync.Mutex
	cursor int64
}

func NewMirrorWorker(storage *storage.SQLiteRepository, sink source.RecordWriter, probe source.RecordReader, batchSize int, interval time.Duration) *MirrorWorker {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &MirrorWorker{
		storage:   storage,
		sink:      sink,
		probe:     probe,
		batchSize: batchSize,
		interval:  interval,
	}
}

// HandleRefreshMessage processes a dataset refresh message from AMQP by
// mirroring everything past the cursor.
func (w *MirrorWorker) HandleRefreshMessage(ctx context.Context, msg *amqp.DatasetRefreshMessage) error {
	slog.InfoContext(ctx, "Processing refresh message",
		log.FieldOperation, log.OpMirror,
		log.FieldSource, msg.Source,
		"count", msg.Count)

	mirrored, err := w.MirrorPending(ctx)
	if err != nil {
		return fmt.Errorf("mirror pending records: %w", err)
	}

	slog.InfoContext(ctx, "Refresh message processed", log.FieldOperation, log.OpMirror, "mirrored", mirrored)
	return nil
}

// MirrorPending copies all rows past the cursor to the sink in batches.
// It returns the number of rows mirrored. The cursor only advances after a
// batch lands in the sink, so a failed append is retried on the next call.
func (w *MirrorWorker) MirrorPending(ctx context.Context) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	mirrored := 0
	for {
		records, lastID, err := w.storage.RecordsAfter(ctx, w.cursor, w.batchSize)
		if err != nil {
			return mirrored, fmt.Errorf("read records after id %d: %w", w.cursor, err)
		}
		if len(records) == 0 {
			return mirrored, nil
		}

		if err := w.sink.AppendRecords(ctx, records); err != nil {
			return mirrored, fmt.Errorf("append batch to sink: %w", err)
		}

		w.cursor = lastID
		mirrored += len(records)

		slog.DebugContext(ctx, "Mirrored batch",
			"batch", len(records),
			"cursor", w.cursor)

		if len(records) < w.batchSize {
			return mirrored, nil
		}
	}
}

// StartupCheck seeds the cursor from the sink's current row count and then
// mirrors anything pending. Mirroring appends rows in id order, so the
// sink's row count equals the number of already-mirrored rows and the id
// cursor can resume from there.
func (w *MirrorWorker) StartupCheck(ctx context.Context) error {
	if w.probe != nil {
		existing, err := w.probe.LoadRecords(ctx, 0)
		if err != nil {
			slog.WarnContext(ctx, "Could not probe sink, mirroring from the beginning", "error", err)
		} else {
			w.mu.Lock()
			w.cursor = int64(len(existing))
			w.mu.Unlock()
			slog.InfoContext(ctx, "Seeded mirror cursor from sink", "cursor", len(existing))
		}
	}

	mirrored, err := w.MirrorPending(ctx)
	if err != nil {
		return fmt.Errorf("startup mirror: %w", err)
	}

	slog.InfoContext(ctx, "Startup check completed", log.FieldOperation, log.OpStartup, "mirrored", mirrored)
	return nil
}

// Run performs periodic sweeps until the context is cancelled. This is the
// backup path for refresh messages that never arrived.
func (w *MirrorWorker) Run(ctx context.Context) error {
	if w.interval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping periodic mirror sweep", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			mirrored, err := w.MirrorPending(ctx)
			if err != nil {
				slog.ErrorContext(ctx, "Periodic mirror sweep failed", "error", err)
				continue
			}
			if mirrored > 0 {
				slog.InfoContext(ctx, "Periodic mirror sweep completed", "mirrored", mirrored)
			}
		}
	}
}

// Cursor returns the id of the last mirrored row.
func (w *MirrorWorker) Cursor() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cursor
}
