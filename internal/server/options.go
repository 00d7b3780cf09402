package server

import (
	"time"

	"github.com/agbru/phicalc/internal/logging"
)

// Option customizes a Server built by NewServer.
type Option func(*Server)

// WithLogger replaces the default stdout logger. A nil logger is ignored.
func WithLogger(l logging.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTimeouts overrides every server timeout at once.
func WithTimeouts(t Timeouts) Option {
	return func(s *Server) { s.timeouts = t }
}

// WithRateLimiter installs rl instead of a limiter built from
// DefaultRateLimiterConfig. The server stops rl when Serve returns.
func WithRateLimiter(rl *RateLimiter) Option {
	return func(s *Server) { s.rateLimiter = rl }
}

// WithSecurityConfig sets the hardening and CORS policy.
func WithSecurityConfig(cfg SecurityConfig) Option {
	return func(s *Server) { s.securityConfig = cfg }
}

// Timeouts bounds the life of a request and of the server.
//
// Request caps a single computation and is taken from the --timeout setting
// when one is configured; Read, Write and Idle go to net/http; Shutdown caps
// the graceful drain.
type Timeouts struct {
	Request  time.Duration
	Read     time.Duration
	Write    time.Duration
	Idle     time.Duration
	Shutdown time.Duration
}

// DefaultServerTimeouts leaves Write well above Request so that a timed out
// computation can still report its 504.
func DefaultServerTimeouts() Timeouts {
	return Timeouts{
		Request:  time.Minute,
		Read:     10 * time.Second,
		Write:    2 * time.Minute,
		Idle:     2 * time.Minute,
		Shutdown: 30 * time.Second,
	}
}
