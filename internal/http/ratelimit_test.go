package http

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestRateLimiterAllows(t *testing.T) {
	rl := newRateLimiter()
	defer rl.stop()
	metrics := &securityMetrics{}

	for i := 0; i < 60; i++ {
		if !rl.allow("10.0.0.1", metrics) {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.allow("10.0.0.1", metrics) {
		t.Error("request 61 should be rejected")
	}
	if atomic.LoadInt64(&metrics.rateLimitHits) != 1 {
		t.Errorf("rateLimitHits = %d, want 1", metrics.rateLimitHits)
	}

	// Other clients are unaffected
	if !rl.allow("10.0.0.2", metrics) {
		t.Error("a different client should be allowed")
	}
}

func TestRateLimiterResetsAfterWindow(t *testing.T) {
	rl := newRateLimiter()
	defer rl.stop()

	for i := 0; i < 61; i++ {
		rl.allow("10.0.0.1", nil)
	}

	// Simulate the window passing
	rl.mu.Lock()
	rl.clients["10.0.0.1"].lastRequest = time.Now().Add(-2 * time.Minute)
	rl.mu.Unlock()

	if !rl.allow("10.0.0.1", nil) {
		t.Error("client should be allowed after the window resets")
	}
}
