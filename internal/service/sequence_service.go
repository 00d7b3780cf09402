package service

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/agbru/phicalc/internal/cache"
	apperrors "github.com/agbru/phicalc/internal/errors"
	"github.com/agbru/phicalc/internal/logging"
	"github.com/agbru/phicalc/internal/sequence"
)

// ErrMaxValueExceeded is returned when n exceeds the configured maximum
// index. It matches apperrors.ErrInvalidArgument.
var ErrMaxValueExceeded = fmt.Errorf("maximum index exceeded: %w", apperrors.ErrInvalidArgument)

var cacheRequests = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "phicalc_cache_requests_total",
		Help: "The total number of term cache lookups, by result",
	},
	[]string{"result"},
)

// Service defines the interface for sequence computation services.
// This abstraction lets the HTTP server and the REPL be tested with fakes.
type Service interface {
	// Term computes term n of kind with strategy s, consulting the cache
	// for exact strategies.
	Term(ctx context.Context, kind sequence.Kind, n int64, s sequence.Strategy) (TermResult, error)
	// Terms returns the first count terms of kind.
	Terms(ctx context.Context, kind sequence.Kind, count int64) ([]*big.Int, error)
	// Strategies describes every strategy.
	Strategies() []sequence.Info
	// MaxIndex returns the largest accepted index, 0 meaning no limit.
	MaxIndex() uint64
}

// TermResult is a computed term with how it was obtained.
type TermResult struct {
	Value    sequence.Value
	Cached   bool
	Duration time.Duration
}

// SequenceService centralizes the per-request limits and the result cache in
// front of the engine. Implements the Service interface.
type SequenceService struct {
	engine   *sequence.Engine
	cache    cache.Cache
	maxIndex uint64
	logger   logging.Logger
}

// Ensure SequenceService implements Service interface.
var _ Service = (*SequenceService)(nil)

// NewSequenceService creates a new instance of SequenceService.
//
// Parameters:
//   - engine: The engine computing the terms.
//   - c: The term cache; nil disables caching.
//   - maxIndex: The maximum allowed index (0 for no limit).
//   - logger: Receives cache failures; nil discards them.
func NewSequenceService(engine *sequence.Engine, c cache.Cache, maxIndex uint64, logger logging.Logger) *SequenceService {
	if c == nil {
		c = cache.NoopCache{}
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &SequenceService{engine: engine, cache: c, maxIndex: maxIndex, logger: logger}
}

// MaxIndex returns the largest accepted index.
func (s *SequenceService) MaxIndex() uint64 { return s.maxIndex }

func (s *SequenceService) checkMax(field string, n uint64) error {
	if s.maxIndex > 0 && n > s.maxIndex {
		return fmt.Errorf("%s %d is above the limit %d: %w", field, n, s.maxIndex, ErrMaxValueExceeded)
	}
	return nil
}

// Term validates the request, applies the maximum index and serves exact
// strategies from the cache when possible. Cache failures are logged and
// never fail the request.
func (s *SequenceService) Term(ctx context.Context, kind sequence.Kind, n int64, strategy sequence.Strategy) (TermResult, error) {
	idx, err := s.engine.Validate(kind, n, strategy)
	if err != nil {
		return TermResult{}, err
	}
	if err := s.checkMax("index", idx); err != nil {
		return TermResult{}, err
	}

	start := time.Now()
	cacheable := strategy.Exact()
	if cacheable {
		v, ok, err := s.cache.Get(ctx, kind, idx)
		switch {
		case err != nil:
			cacheRequests.WithLabelValues("error").Inc()
			s.logger.Warn("term cache read failed",
				logging.String("sequence", kind.String()),
				logging.Uint64("index", idx),
				logging.Err(err))
		case ok:
			cacheRequests.WithLabelValues("hit").Inc()
			return TermResult{Value: sequence.NewExactValue(idx, v), Cached: true, Duration: time.Since(start)}, nil
		default:
			cacheRequests.WithLabelValues("miss").Inc()
		}
	}

	v, err := s.engine.Term(ctx, kind, n, strategy)
	if err != nil {
		return TermResult{}, err
	}
	duration := time.Since(start)

	if cacheable {
		if err := s.cache.Set(ctx, kind, idx, v.Int()); err != nil {
			s.logger.Warn("term cache write failed",
				logging.String("sequence", kind.String()),
				logging.Uint64("index", idx),
				logging.Err(err))
		}
	}
	return TermResult{Value: v, Duration: duration}, nil
}

// Terms returns the first count terms of kind; count is bounded by the
// maximum index.
func (s *SequenceService) Terms(ctx context.Context, kind sequence.Kind, count int64) ([]*big.Int, error) {
	if count > 0 {
		if err := s.checkMax("count", uint64(count)); err != nil {
			return nil, err
		}
	}
	return s.engine.Terms(ctx, kind, count)
}

// Strategies describes every strategy known to the engine.
func (s *SequenceService) Strategies() []sequence.Info {
	strategies := sequence.Strategies()
	infos := make([]sequence.Info, 0, len(strategies))
	for _, st := range strategies {
		infos = append(infos, sequence.StrategyInfo(st))
	}
	return infos
}
