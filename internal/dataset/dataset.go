// Package dataset serves the in-memory trade snapshot used by the HTTP
// layer. The snapshot is loaded once from the configured record source and
// memoized; a refresh notification or an explicit Invalidate drops it so
// the next request re-reads the source.
package dataset

import (
	"context"
	"sync"
	"time"

	"tradeflow/internal/core"
	"tradeflow/internal/log"
	"tradeflow/internal/source"
)

// Snapshot is an immutable view of the loaded records. Callers must not
// mutate Records.
type Snapshot struct {
	Records  []core.TradeRecord
	SourceID string
	LoadedAt time.Time
	// Fallback is true when the source failed and the synthetic sample
	// dataset was served instead.
	Fallback bool
}

// Loader memoizes records read from a source, falling back to the
// deterministic sample dataset when the source cannot be read.
type Loader struct {
	reader     source.RecordReader
	maxRecords int
	logger     *log.Logger

	mu   sync.RWMutex
	snap *Snapshot
}

// NewLoader creates a loader over a record source. maxRecords caps how many
// rows a single load pulls in; zero or negative means no cap.
func NewLoader(reader source.RecordReader, maxRecords int, logger *log.Logger) *Loader {
	return &Loader{
		reader:     reader,
		maxRecords: maxRecords,
		logger:     logger.WithComponent(log.ComponentDataset),
	}
}

// Snapshot returns the memoized snapshot, loading it from the source on
// first use or after Invalidate. Concurrent callers share a single load.
func (l *Loader) Snapshot(ctx context.Context) (*Snapshot, error) {
	l.mu.RLock()
	snap := l.snap
	l.mu.RUnlock()
	if snap != nil {
		return snap, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	// Another caller may have loaded while we waited for the lock.
	if l.snap != nil {
		return l.snap, nil
	}

	snap = l.load(ctx)
	l.snap = snap
	return snap, nil
}

func (l *Loader) load(ctx context.Context) *Snapshot {
	sourceID := "unknown"
	if ident, ok := l.reader.(source.Identifier); ok {
		sourceID = ident.SourceID()
	}

	records, err := l.reader.LoadRecords(ctx, l.maxRecords)
	if err != nil {
		fields := log.NewFields().
			WithOperation(log.OpLoad).
			WithError(err).
			WithDataset(sourceID, 0, true)
		l.logger.Warn("source unavailable, serving sample dataset", fields.ToSlice()...)
		return &Snapshot{
			Records:  core.DefaultSample(),
			SourceID: "sample",
			LoadedAt: time.Now(),
			Fallback: true,
		}
	}
	if len(records) == 0 {
		fields := log.NewFields().
			WithOperation(log.OpLoad).
			WithDataset(sourceID, 0, true)
		l.logger.Warn("source returned no records, serving sample dataset", fields.ToSlice()...)
		return &Snapshot{
			Records:  core.DefaultSample(),
			SourceID: "sample",
			LoadedAt: time.Now(),
			Fallback: true,
		}
	}

	fields := log.NewFields().
		WithOperation(log.OpLoad).
		WithDataset(sourceID, len(records), false)
	l.logger.Info("dataset loaded", fields.ToSlice()...)
	return &Snapshot{
		Records:  records,
		SourceID: sourceID,
		LoadedAt: time.Now(),
	}
}

// Invalidate drops the memoized snapshot so the next Snapshot call
// re-reads the source.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	l.snap = nil
	l.mu.Unlock()
	l.logger.Info("dataset snapshot invalidated", log.FieldOperation, log.OpRefresh)
}
