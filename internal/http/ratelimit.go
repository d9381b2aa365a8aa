package http

import (
	"sync"
	"sync/atomic"
	"time"
)

const (
	// requestsPerWindow bounds POSTs per client within rateWindow.
	requestsPerWindow = 60
	rateWindow        = time.Minute

	// Entries idle past staleAfter are dropped by the cleanup sweep.
	staleAfter    = 10 * time.Minute
	sweepInterval = 5 * time.Minute
)

// rateLimiter tracks per-client request counts over a sliding window.
// Counters live in memory only; a restart clears them.
type rateLimiter struct {
	mu       sync.Mutex
	clients  map[string]*clientWindow
	done     chan struct{}
	stopOnce sync.Once
}

type clientWindow struct {
	lastRequest time.Time
	count       int
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		clients: make(map[string]*clientWindow),
		done:    make(chan struct{}),
	}
	go rl.sweep()
	return rl
}

// allow records a request from clientIP and reports whether it is within
// the rate limit. Exceeding the limit bumps the metrics counter.
func (rl *rateLimiter) allow(clientIP string, metrics *securityMetrics) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	cw := rl.clients[clientIP]
	if cw == nil || now.Sub(cw.lastRequest) > rateWindow {
		rl.clients[clientIP] = &clientWindow{lastRequest: now, count: 1}
		return true
	}

	cw.count++
	cw.lastRequest = now
	if cw.count > requestsPerWindow {
		if metrics != nil {
			atomic.AddInt64(&metrics.rateLimitHits, 1)
		}
		return false
	}
	return true
}

func (rl *rateLimiter) sweep() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().Add(-staleAfter)
			rl.mu.Lock()
			for ip, cw := range rl.clients {
				if cw.lastRequest.Before(cutoff) {
					delete(rl.clients, ip)
				}
			}
			rl.mu.Unlock()
		case <-rl.done:
			return
		}
	}
}

// stop terminates the cleanup goroutine. Safe to call more than once.
func (rl *rateLimiter) stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}
