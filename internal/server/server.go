// Package server provides the HTTP JSON API of phicalc. Every endpoint is a
// GET returning a record from pkg/models; errors are mapped to status codes
// by their apperrors class.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/agbru/phicalc/internal/config"
	apperrors "github.com/agbru/phicalc/internal/errors"
	"github.com/agbru/phicalc/internal/logging"
	"github.com/agbru/phicalc/internal/service"
)

// Server serves the JSON API over a single http.Server and drains it on
// shutdown.
type Server struct {
	service        service.Service
	cfg            config.AppConfig
	httpServer     *http.Server
	logger         logging.Logger
	shutdownSignal chan os.Signal
	rateLimiter    *RateLimiter
	securityConfig SecurityConfig
	metrics        *Metrics
	timeouts       Timeouts
}

// NewServer routes the API to svc. cfg supplies the port, the per-request
// timeout and the sequence and strategy used when a query names none.
func NewServer(svc service.Service, cfg config.AppConfig, opts ...Option) *Server {
	s := &Server{
		service:        svc,
		cfg:            cfg,
		logger:         logging.NewLogger(os.Stdout, "server"),
		shutdownSignal: make(chan os.Signal, 1),
		securityConfig: DefaultSecurityConfig(),
		metrics:        NewMetrics(),
		timeouts:       DefaultServerTimeouts(),
	}
	if cfg.Timeout > 0 {
		s.timeouts.Request = cfg.Timeout
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.rateLimiter == nil {
		s.rateLimiter = NewRateLimiter(DefaultRateLimiterConfig())
	}

	mux := http.NewServeMux()
	s.route(mux, "/term", s.handleTerm)
	s.route(mux, "/sequence", s.handleSequence)
	s.route(mux, "/convergence", s.handleConvergence)
	s.route(mux, "/primes", s.handlePrimes)
	s.route(mux, "/gcd", s.handleGCD)
	s.route(mux, "/isfib", s.handleIsFib)
	s.route(mux, "/strategies", s.handleStrategies)
	s.route(mux, "/health", s.handleHealth)
	s.route(mux, "/metrics", s.handleMetrics)

	s.httpServer = &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  s.timeouts.Read,
		WriteTimeout: s.timeouts.Write,
		IdleTimeout:  s.timeouts.Idle,
	}

	return s
}

// Handler returns the root handler, middleware included.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// route registers handler under path behind the full middleware chain.
func (s *Server) route(mux *http.ServeMux, path string, handler http.HandlerFunc) {
	mux.HandleFunc(path, s.wrapWithMiddleware(path, handler))
}

// wrapWithMiddleware applies the full middleware chain to a handler:
// Security -> RateLimit -> RequestID -> Logging -> Metrics -> Handler.
func (s *Server) wrapWithMiddleware(path string, handler http.HandlerFunc) http.HandlerFunc {
	wrapped := s.metricsMiddleware(path, handler)
	wrapped = s.loggingMiddleware(wrapped)
	wrapped = requestIDMiddleware(wrapped)
	wrapped = RateLimitMiddleware(s.rateLimiter, wrapped)
	wrapped = SecurityMiddleware(s.securityConfig, wrapped)
	return wrapped
}

// Start listens on the configured port and serves until ctx is canceled or
// the process receives SIGINT or SIGTERM.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return apperrors.NewServerError("server failed to start", err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	signal.Notify(s.shutdownSignal, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(s.shutdownSignal)
	defer s.rateLimiter.Stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server",
			logging.String("addr", ln.Addr().String()),
			logging.String("sequence", s.cfg.Sequence),
			logging.String("strategy", s.cfg.Strategy),
			logging.Uint64("max_index", s.service.MaxIndex()))
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down", logging.String("reason", "context done"))
	case <-s.shutdownSignal:
		s.logger.Info("shutting down", logging.String("reason", "signal"))
	case err := <-errCh:
		return apperrors.NewServerError("server failed", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.timeouts.Shutdown)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return apperrors.NewServerError("graceful shutdown failed", err)
	}

	s.logger.Info("server stopped")
	return nil
}
