package services

import (
	"context"
	"path/filepath"
	"testing"

	"tradeflow/internal/core"
	"tradeflow/internal/storage"
)

func newTestService(t *testing.T) *IngestService {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "trade.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	svc := NewIngestService(repo, nil)
	t.Cleanup(func() { svc.Close() })
	return svc
}

func TestIngestService_IngestBatch(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	records := core.GenerateSample(7, 25)
	total, err := svc.IngestBatch(ctx, records)
	if err != nil {
		t.Fatalf("IngestBatch() error = %v", err)
	}
	if total != 25 {
		t.Errorf("IngestBatch() total = %d, want 25", total)
	}

	// A second batch accumulates
	total, err = svc.IngestBatch(ctx, core.GenerateSample(8, 10))
	if err != nil {
		t.Fatalf("IngestBatch() error = %v", err)
	}
	if total != 35 {
		t.Errorf("IngestBatch() total = %d, want 35", total)
	}
}

func TestIngestService_IngestBatchEmpty(t *testing.T) {
	svc := newTestService(t)

	total, err := svc.IngestBatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("IngestBatch() error = %v", err)
	}
	if total != 0 {
		t.Errorf("IngestBatch() total = %d, want 0", total)
	}
}

func TestIngestService_IngestBatchRejectsInvalid(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	bad := core.GenerateSample(7, 5)
	bad[3].Country = ""

	if _, err := svc.IngestBatch(ctx, bad); err == nil {
		t.Fatal("IngestBatch() should reject a batch containing an invalid record")
	}

	// Nothing from the rejected batch should have been committed
	total, err := svc.IngestBatch(ctx, nil)
	if err != nil {
		t.Fatalf("IngestBatch() error = %v", err)
	}
	if total != 0 {
		t.Errorf("row count after rejected batch = %d, want 0", total)
	}
}

func TestIngestService_Close(t *testing.T) {
	t.Run("nil components", func(t *testing.T) {
		svc := &IngestService{}
		if err := svc.Close(); err != nil {
			t.Fatalf("Close should not return error with nil components: %v", err)
		}
	})
}
