package dataset

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"tradeflow/internal/core"
	"tradeflow/internal/log"
)

type fakeSource struct {
	records []core.TradeRecord
	err     error
	calls   int64
}

func (f *fakeSource) LoadRecords(_ context.Context, limit int) ([]core.TradeRecord, error) {
	atomic.AddInt64(&f.calls, 1)
	if f.err != nil {
		return nil, f.err
	}
	if limit > 0 && limit < len(f.records) {
		return f.records[:limit], nil
	}
	return f.records, nil
}

func (f *fakeSource) SourceID() string { return "fake" }

func testLogger() *log.Logger {
	return log.New(log.DefaultConfig())
}

func TestLoaderSnapshotMemoizes(t *testing.T) {
	src := &fakeSource{records: core.GenerateSample(1, 50)}
	loader := NewLoader(src, 0, testLogger())

	snap1, err := loader.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	snap2, err := loader.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}

	if snap1 != snap2 {
		t.Error("Snapshot() should return the memoized snapshot on repeat calls")
	}
	if got := atomic.LoadInt64(&src.calls); got != 1 {
		t.Errorf("source loaded %d times, want 1", got)
	}
	if snap1.Fallback {
		t.Error("Fallback should be false when the source succeeds")
	}
	if snap1.SourceID != "fake" {
		t.Errorf("SourceID = %q, want %q", snap1.SourceID, "fake")
	}
	if len(snap1.Records) != 50 {
		t.Errorf("Records = %d, want 50", len(snap1.Records))
	}
}

func TestLoaderFallsBackToSample(t *testing.T) {
	src := &fakeSource{err: errors.New("database is locked")}
	loader := NewLoader(src, 0, testLogger())

	snap, err := loader.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}

	if !snap.Fallback {
		t.Error("Fallback should be true when the source fails")
	}
	if snap.SourceID != "sample" {
		t.Errorf("SourceID = %q, want %q", snap.SourceID, "sample")
	}
	if len(snap.Records) != core.SampleSize {
		t.Errorf("fallback records = %d, want %d", len(snap.Records), core.SampleSize)
	}
}

func TestLoaderFallsBackOnEmptySource(t *testing.T) {
	src := &fakeSource{}
	loader := NewLoader(src, 0, testLogger())

	snap, err := loader.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if !snap.Fallback {
		t.Error("Fallback should be true when the source is empty")
	}
}

func TestLoaderInvalidateReloads(t *testing.T) {
	src := &fakeSource{records: core.GenerateSample(1, 10)}
	loader := NewLoader(src, 0, testLogger())

	if _, err := loader.Snapshot(context.Background()); err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	loader.Invalidate()
	if _, err := loader.Snapshot(context.Background()); err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}

	if got := atomic.LoadInt64(&src.calls); got != 2 {
		t.Errorf("source loaded %d times after invalidate, want 2", got)
	}
}

func TestLoaderRespectsMaxRecords(t *testing.T) {
	src := &fakeSource{records: core.GenerateSample(1, 100)}
	loader := NewLoader(src, 25, testLogger())

	snap, err := loader.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if len(snap.Records) != 25 {
		t.Errorf("Records = %d, want 25", len(snap.Records))
	}
}

func TestLoaderConcurrentSnapshot(t *testing.T) {
	src := &fakeSource{records: core.GenerateSample(1, 10)}
	loader := NewLoader(src, 0, testLogger())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := loader.Snapshot(context.Background()); err != nil {
				t.Errorf("Snapshot() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt64(&src.calls); got != 1 {
		t.Errorf("source loaded %d times under concurrency, want 1", got)
	}
}
