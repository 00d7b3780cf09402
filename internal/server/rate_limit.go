package server

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/agbru/phicalc/pkg/models"
)

const rateWindow = time.Minute

// RateLimiterConfig configures a RateLimiter. Zero fields take the defaults
// of DefaultRateLimiterConfig.
type RateLimiterConfig struct {
	RequestsPerMinute int
	// SweepInterval is how often idle clients are forgotten.
	SweepInterval time.Duration
	// Clock replaces time.Now in tests.
	Clock func() time.Time
}

// DefaultRateLimiterConfig allows 60 requests per minute and client.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{RequestsPerMinute: 60, SweepInterval: 5 * time.Minute}
}

// RateLimiter counts requests per client address in fixed one-minute
// windows.
type RateLimiter struct {
	mu      sync.Mutex
	limit   int
	now     func() time.Time
	windows map[string]*window

	done     chan struct{}
	stopOnce sync.Once
}

type window struct {
	start time.Time
	used  int
}

// NewRateLimiter starts a limiter and its sweeper goroutine. Stop releases
// the goroutine.
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	def := DefaultRateLimiterConfig()
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = def.RequestsPerMinute
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = def.SweepInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	rl := &RateLimiter{
		limit:   cfg.RequestsPerMinute,
		now:     cfg.Clock,
		windows: make(map[string]*window),
		done:    make(chan struct{}),
	}
	go rl.sweepEvery(cfg.SweepInterval)
	return rl
}

// Allow records a request from client and reports whether it fits in the
// client's current window.
func (rl *RateLimiter) Allow(client string) bool {
	ok, _ := rl.take(client)
	return ok
}

// take is Allow that also returns, for a refused request, the time left
// until the client's window resets.
func (rl *RateLimiter) take(client string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w := rl.windows[client]
	if w == nil || now.Sub(w.start) >= rateWindow {
		rl.windows[client] = &window{start: now, used: 1}
		return true, 0
	}
	if w.used < rl.limit {
		w.used++
		return true, 0
	}
	return false, rateWindow - now.Sub(w.start)
}

// sweep forgets clients that have been idle for a full window after their
// last one ended.
func (rl *RateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	for client, w := range rl.windows {
		if now.Sub(w.start) > 2*rateWindow {
			delete(rl.windows, client)
		}
	}
}

func (rl *RateLimiter) sweepEvery(interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			rl.sweep()
		case <-rl.done:
			return
		}
	}
}

// Stop ends the sweeper. Calling it again is a no-op.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

// RateLimitMiddleware answers 429 with a Retry-After header, in whole
// seconds, once a client has used up its window.
func RateLimitMiddleware(rl *RateLimiter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ok, wait := rl.take(getClientIP(r))
		if !ok {
			secs := int(math.Ceil(wait.Seconds()))
			w.Header().Set("Retry-After", strconv.Itoa(max(secs, 1)))
			writeJSON(w, http.StatusTooManyRequests, models.ErrorResponse{
				Error:   http.StatusText(http.StatusTooManyRequests),
				Message: "rate limit exceeded",
			})
			return
		}
		next(w, r)
	}
}

// getClientIP identifies the caller, preferring the proxy headers
// X-Forwarded-For (its first hop) and X-Real-IP over the socket address.
func getClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return strings.Trim(r.RemoteAddr, "[]")
}
