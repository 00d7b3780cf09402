// Package sequence is the term computation engine for the Fibonacci, Lucas
// and Tribonacci sequences. It exposes one facade, Engine.Term, that
// validates a (sequence, index, strategy) request and dispatches it to one of
// a closed set of strategies with different cost and precision contracts:
// naive recursion, memoized recursion, iteration, Binet's closed form,
// matrix exponentiation and fast doubling.
//
// Every exact strategy returns bit-identical integers for the same sequence
// and index. The closed form is a float64 approximation that is exact up to
// ClosedFormSafeIndex and flagged with Value.PrecisionLoss beyond it.
package sequence

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/agbru/phicalc/internal/errors"
	"github.com/agbru/phicalc/internal/logging"
)

var (
	termsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "phicalc_terms_total",
			Help: "The total number of sequence term requests handled by the engine",
		},
		[]string{"sequence", "strategy", "status"},
	)
	termDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "phicalc_term_duration_seconds",
			Help: "The duration of sequence term computations in seconds",
		},
		[]string{"sequence", "strategy"},
	)
)

// Engine is the facade external callers use to compute sequence terms. It is
// safe for concurrent use; its only mutable state is the MemoCache it owns.
type Engine struct {
	memo       *MemoCache
	naiveLimit uint64
	memoLimit  uint64
	logger     logging.Logger
	algorithms [len(strategyTable)]algorithm
}

// Option configures an Engine.
type Option func(*Engine)

// WithMemoCache injects the cache used by the memoized strategy. A nil cache
// is ignored.
func WithMemoCache(c *MemoCache) Option {
	return func(e *Engine) {
		if c != nil {
			e.memo = c
		}
	}
}

// WithNaiveLimit sets the largest index accepted by the naive strategy.
// Zero keeps DefaultNaiveLimit; values above MaxUint64Index are clamped.
func WithNaiveLimit(limit uint64) Option {
	return func(e *Engine) {
		if limit == 0 {
			return
		}
		e.naiveLimit = min(limit, MaxUint64Index)
	}
}

// WithMemoLimit sets the largest index accepted by the memoized strategy.
// Zero keeps DefaultMemoLimit.
func WithMemoLimit(limit uint64) Option {
	return func(e *Engine) {
		if limit != 0 {
			e.memoLimit = limit
		}
	}
}

// WithLogger sets the logger used for per-term debug lines and precision
// warnings.
func WithLogger(l logging.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine creates an Engine with its own MemoCache unless one is injected.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		naiveLimit: DefaultNaiveLimit,
		memoLimit:  DefaultMemoLimit,
		logger:     logging.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.memo == nil {
		e.memo = NewMemoCache()
	}
	e.algorithms = [len(strategyTable)]algorithm{
		Naive:        naiveRecursive{},
		Memoized:     memoizedRecursive{cache: e.memo},
		Iterative:    iterative{},
		ClosedForm:   closedForm{},
		Matrix:       matrixExponentiation{},
		FastDoubling: fastDoubling{},
	}
	return e
}

// MemoCache returns the cache owned by the engine's memoized strategy.
func (e *Engine) MemoCache() *MemoCache { return e.memo }

// NaiveLimit returns the largest index accepted by the naive strategy.
func (e *Engine) NaiveLimit() uint64 { return e.naiveLimit }

// MemoLimit returns the largest index accepted by the memoized strategy.
func (e *Engine) MemoLimit() uint64 { return e.memoLimit }

// Supports reports whether strategy s can compute terms of kind k.
func (e *Engine) Supports(k Kind, s Strategy) bool {
	return s.Supports(k)
}

// Validate applies the facade's argument checks without computing anything.
// It returns the index as uint64 when the request is acceptable.
//
// Errors:
//   - ErrInvalidArgument: unknown kind or strategy, negative index, index
//     above the naive or memoized limit.
//   - ErrUnsupported: the strategy has no definition for the kind.
func (e *Engine) Validate(kind Kind, n int64, s Strategy) (uint64, error) {
	if !kind.valid() {
		return 0, apperrors.NewValidationError("sequence", fmt.Sprintf("unknown sequence %s", kind), kind)
	}
	if !s.valid() {
		return 0, apperrors.NewValidationError("strategy", fmt.Sprintf("unknown strategy %s", s), s)
	}
	if n < 0 {
		return 0, apperrors.NewValidationError("index", fmt.Sprintf("must be non-negative, got %d", n), n)
	}
	if !s.Supports(kind) {
		return 0, apperrors.NewUnsupportedError(kind.String(), s.String())
	}
	idx := uint64(n)
	switch {
	case s == Naive && idx > e.naiveLimit:
		return 0, apperrors.NewValidationError("index",
			fmt.Sprintf("naive strategy is limited to n <= %d, got %d", e.naiveLimit, n), n)
	case s == Memoized && idx > e.memoLimit:
		return 0, apperrors.NewValidationError("index",
			fmt.Sprintf("memoized strategy is limited to n <= %d, got %d", e.memoLimit, n), n)
	}
	return idx, nil
}

// Term computes term n of the sequence kind with the given strategy.
// Validation happens once here; accepted requests only fail when ctx is
// canceled, in which case the error wraps ctx.Err() in a
// apperrors.CalculationError.
//
// Parameters:
//   - ctx: The context for cancellation and tracing.
//   - kind: The sequence to evaluate.
//   - n: The term index; negative indices are rejected.
//   - s: The strategy to dispatch to.
//
// Returns:
//   - Value: The exact term, or the float64 estimate for ClosedForm.
//   - error: ErrInvalidArgument, ErrUnsupported or a context error.
func (e *Engine) Term(ctx context.Context, kind Kind, n int64, s Strategy) (v Value, err error) {
	idx, err := e.Validate(kind, n, s)
	if err != nil {
		termsTotal.WithLabelValues(kind.String(), s.String(), "rejected").Inc()
		e.logger.Debug("term rejected",
			logging.String("sequence", kind.String()),
			logging.String("strategy", s.String()),
			logging.Int64("index", n),
			logging.Err(err))
		return Value{}, err
	}

	ctx, span := otel.Tracer("phicalc/sequence").Start(ctx, "Term",
		trace.WithAttributes(
			attribute.String("sequence", kind.String()),
			attribute.String("strategy", s.String()),
			attribute.Int64("index", n),
		))
	defer span.End()

	start := time.Now()
	defer func() {
		duration := time.Since(start).Seconds()
		status := "success"
		if err != nil {
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		termsTotal.WithLabelValues(kind.String(), s.String(), status).Inc()
		termDuration.WithLabelValues(kind.String(), s.String()).Observe(duration)

		e.logger.Debug("term computed",
			logging.String("sequence", kind.String()),
			logging.String("strategy", s.String()),
			logging.Uint64("index", idx),
			logging.Float64("duration", duration),
			logging.String("status", status))
	}()

	v, err = e.algorithms[s].term(ctx, kind, idx)
	if err != nil {
		return Value{}, apperrors.CalculationError{Cause: err}
	}
	if v.PrecisionLoss() {
		e.logger.Warn("closed-form result is past the exact range",
			logging.String("sequence", kind.String()),
			logging.Uint64("index", idx),
			logging.Int("safe_index", ClosedFormSafeIndex))
	}
	return v, nil
}

// MaxPrealloc caps the capacity reserved up front for a listing; longer
// listings grow by append, so an oversized count runs into its context
// deadline instead of an allocation failure.
const MaxPrealloc = 1 << 16

// Terms returns the first count terms of kind (indices 0..count-1), produced
// by the iterative generator.
func (e *Engine) Terms(ctx context.Context, kind Kind, count int64) ([]*big.Int, error) {
	if !kind.valid() {
		return nil, apperrors.NewValidationError("sequence", fmt.Sprintf("unknown sequence %s", kind), kind)
	}
	if count < 0 {
		return nil, apperrors.NewValidationError("count", fmt.Sprintf("must be non-negative, got %d", count), count)
	}
	gen := NewIterativeGenerator(kind)
	terms := make([]*big.Int, 0, min(count, MaxPrealloc))
	for i := int64(0); i < count; i++ {
		v, err := gen.Next(ctx)
		if err != nil {
			return nil, apperrors.CalculationError{Cause: err}
		}
		terms = append(terms, v)
	}
	return terms, nil
}
