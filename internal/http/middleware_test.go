package http

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tradeflow/internal/log"
)

// captureLogs routes the default slog output into a buffer for the duration
// of the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestRequestLoggingFields(t *testing.T) {
	srv := newTestServer(t, testRecords())
	buf := captureLogs(t)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ui/overview", nil)
	srv.Handler.ServeHTTP(rr, req)

	out := buf.String()
	for _, key := range []string{
		log.FieldRequestID,
		log.FieldClientIP,
		log.FieldMethod,
		log.FieldPath,
		log.FieldStatusCode,
		log.FieldDuration,
	} {
		if !strings.Contains(out, key+"=") {
			t.Errorf("request log missing %q field:\n%s", key, out)
		}
	}
	if !strings.Contains(out, log.FieldPath+"=/ui/overview") {
		t.Errorf("request log should carry the request path:\n%s", out)
	}
}

func TestRequestLoggingRateLimited(t *testing.T) {
	srv := newTestServer(t, testRecords())

	// Exhaust the per-client budget directly, then observe the rejection log
	for i := 0; i < 61; i++ {
		srv.rateLimiter.allow("192.0.2.1", srv.metrics)
	}
	buf := captureLogs(t)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/refresh", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	srv.Handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rr.Code)
	}
	out := buf.String()
	if !strings.Contains(out, log.FieldClientIP+"=192.0.2.1") {
		t.Errorf("rejection log should carry the client IP:\n%s", out)
	}
}
