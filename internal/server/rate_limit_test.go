package server

import (
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestRateLimiterWindow(t *testing.T) {
	t.Parallel()
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	rl := NewRateLimiter(RateLimiterConfig{RequestsPerMinute: 3, Clock: clock.Now})
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("10.0.0.1"), "request %d", i)
	}
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"), "clients are limited independently")

	clock.Advance(59 * time.Second)
	assert.False(t, rl.Allow("10.0.0.1"))

	clock.Advance(time.Second)
	assert.True(t, rl.Allow("10.0.0.1"), "a new window restores the tokens")
}

func TestRateLimiterEviction(t *testing.T) {
	t.Parallel()
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	rl := NewRateLimiter(RateLimiterConfig{Clock: clock.Now})
	defer rl.Stop()

	rl.Allow("10.0.0.1")
	clock.Advance(90 * time.Second)
	rl.Allow("10.0.0.2")
	clock.Advance(45 * time.Second)
	rl.sweep()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.windows, "10.0.0.1")
	assert.Contains(t, rl.windows, "10.0.0.2")
}

func TestRateLimiterRetryAfter(t *testing.T) {
	t.Parallel()
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	rl := NewRateLimiter(RateLimiterConfig{RequestsPerMinute: 1, Clock: clock.Now})
	defer rl.Stop()

	ok, _ := rl.take("10.0.0.1")
	assert.True(t, ok)

	clock.Advance(15 * time.Second)
	ok, wait := rl.take("10.0.0.1")
	assert.False(t, ok)
	assert.Equal(t, 45*time.Second, wait)
}

func TestRateLimiterStopIsIdempotent(t *testing.T) {
	t.Parallel()
	rl := NewRateLimiter(DefaultRateLimiterConfig())
	rl.Stop()
	assert.NotPanics(t, rl.Stop)
}

func TestGetClientIP(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"remote addr", "192.168.1.1:1234", nil, "192.168.1.1"},
		{"ipv6 remote addr", "[::1]:8080", nil, "::1"},
		{"no port", "192.168.1.1", nil, "192.168.1.1"},
		{"forwarded list", "10.0.0.1:1", map[string]string{"X-Forwarded-For": " 203.0.113.7 , 10.0.0.2"}, "203.0.113.7"},
		{"real ip", "10.0.0.1:1", map[string]string{"X-Real-IP": " 198.51.100.4 "}, "198.51.100.4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getClientIP(req))
		})
	}
}
