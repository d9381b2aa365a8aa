package cli

import (
	"io"
	"log/slog"
	"syscall"
	"testing"
	"time"
)

func TestGracefulShutdownRunsCleanup(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cleaned := make(chan struct{})

	ctx, done := GracefulShutdown(logger, 50*time.Millisecond, func() {
		close(cleaned)
	})

	// Give the shutdown goroutine time to register its signal handler
	time.Sleep(100 * time.Millisecond)
	if err := syscall.Kill(syscall.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatalf("send SIGTERM: %v", err)
	}

	select {
	case <-cleaned:
	case <-time.After(2 * time.Second):
		t.Fatal("cleanup did not run after shutdown signal")
	}

	waited := make(chan struct{})
	go func() {
		WaitForShutdown(ctx, done)
		close(waited)
	}()
	select {
	case <-waited:
	case <-time.After(2 * time.Second):
		t.Fatal("WaitForShutdown did not return")
	}

	if ctx.Err() == nil {
		t.Error("context should be cancelled after shutdown")
	}
}
