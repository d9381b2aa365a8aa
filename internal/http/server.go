// Package http serves the trade analytics dashboard: an HTML page with
// HTMX-style partials plus JSON endpoints feeding Chart.js. All data
// endpoints recompute over the loader's read-only snapshot, with computed
// views cached per canonical filter key.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"tradeflow/internal/cache"
	"tradeflow/internal/core"
	"tradeflow/internal/dataset"
	appweb "tradeflow/web"
)

type Server struct {
	http.Server
	templates *template.Template
	loader    *dataset.Loader

	// computed-view caches, keyed by canonical filter string
	balanceCache *cache.LRUCache[[]core.GroupBalance]
	rankCache    *cache.LRUCache[[]core.KeyTotal]
	seriesCache  *cache.LRUCache[[]core.SeriesPoint]
	caches       *cache.Manager

	rateLimiter  *rateLimiter
	metrics      *securityMetrics
	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run server.
// viewTTL bounds how long a computed view may be served before recomputation.
func NewServer(addr string, loader *dataset.Loader, viewTTL time.Duration) *Server {
	if viewTTL <= 0 {
		viewTTL = 5 * time.Minute
	}

	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		loader:       loader,
		balanceCache: cache.NewLRUCache[[]core.GroupBalance](200, viewTTL),
		rankCache:    cache.NewLRUCache[[]core.KeyTotal](200, viewTTL),
		seriesCache:  cache.NewLRUCache[[]core.SeriesPoint](100, viewTTL),
		caches:       cache.NewManager(),
		rateLimiter:  newRateLimiter(),
		metrics:      &securityMetrics{},
	}

	s.caches.Register(s.balanceCache)
	s.caches.Register(s.rankCache)
	s.caches.Register(s.seriesCache)
	s.caches.StartCleanup(10 * time.Minute)

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Tiny cache for static assets
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("/", s.withSecurityHeaders(s.handleDashboard))
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	// UI partials
	mux.HandleFunc("/ui/overview", s.withSecurityHeaders(s.handleOverview))
	mux.HandleFunc("/ui/balance-table", s.withSecurityHeaders(s.handleBalanceTable))
	mux.HandleFunc("/ui/summary", s.withSecurityHeaders(s.handleSummary))

	// Chart data
	mux.HandleFunc("/api/sector-balances", s.withSecurityHeaders(s.handleSectorBalances))
	mux.HandleFunc("/api/yearly-balances", s.withSecurityHeaders(s.handleYearlyBalances))
	mux.HandleFunc("/api/partners", s.withSecurityHeaders(s.handlePartners))
	mux.HandleFunc("/api/commodities", s.withSecurityHeaders(s.handleCommodities))
	mux.HandleFunc("/api/trends", s.withSecurityHeaders(s.handleTrends))

	mux.HandleFunc("/refresh", s.withSecurityHeaders(s.handleRefresh))

	return s
}

// InvalidateViews drops the memoized dataset and every computed view. Called
// by the refresh endpoint and by the AMQP refresh subscriber.
func (s *Server) InvalidateViews() int {
	s.loader.Invalidate()
	return s.caches.FlushAll()
}

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady reports readiness. The loader falls back to the sample
// dataset on source failure, so readiness only requires a snapshot.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.loader.Snapshot(r.Context()); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
