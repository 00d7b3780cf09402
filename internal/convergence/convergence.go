// Package convergence measures how fast the ratio of consecutive terms of a
// sequence approaches its limit: φ for Fibonacci and Lucas, the Tribonacci
// constant for Tribonacci.
//
// Ratios and errors are evaluated in sequence.DefaultPrecision-bit big.Float
// and rounded to float64 only when a Sample is built, so errors keep shrinking
// long after the float64 ratio has become indistinguishable from φ.
package convergence

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	apperrors "github.com/agbru/phicalc/internal/errors"
	"github.com/agbru/phicalc/internal/sequence"
)

// ErrUndefinedRatio is returned when a ratio term(i+1)/term(i) would divide
// by zero. It matches apperrors.ErrInvalidArgument.
var ErrUndefinedRatio = fmt.Errorf("ratio undefined for a zero term: %w", apperrors.ErrInvalidArgument)

// Sample is the ratio term(i+1)/term(i) and its distance to the limit.
type Sample struct {
	Index uint64  `json:"index"`
	Ratio float64 `json:"ratio"`
	Error float64 `json:"error"`
}

// Analyze returns the Fibonacci samples for i = 1..n in ascending order.
// Index 0 is excluded because F(0) = 0. n = 0 yields an empty slice.
func Analyze(ctx context.Context, n int64) ([]Sample, error) {
	return AnalyzeUpTo(ctx, sequence.Fibonacci, n)
}

// AnalyzeUpTo returns the samples of kind from DefaultFrom(kind) to n. An n
// below the first defined ratio yields an empty slice.
func AnalyzeUpTo(ctx context.Context, kind sequence.Kind, n int64) ([]Sample, error) {
	if n < 0 {
		return nil, apperrors.NewValidationError("count", fmt.Sprintf("must be non-negative, got %d", n), n)
	}
	from := DefaultFrom(kind)
	if n < from {
		return []Sample{}, nil
	}
	return AnalyzeRange(ctx, kind, from, n)
}

// AnalyzeRange returns the samples of kind for i = from..to. A zero
// denominator inside the range (F(0), T(0), T(1)) fails the whole call with
// ErrUndefinedRatio rather than being skipped.
func AnalyzeRange(ctx context.Context, kind sequence.Kind, from, to int64) ([]Sample, error) {
	if from < 0 {
		return nil, apperrors.NewValidationError("from", fmt.Sprintf("must be non-negative, got %d", from), from)
	}
	if from > to {
		return nil, apperrors.NewValidationError("range", fmt.Sprintf("from (%d) must not exceed to (%d)", from, to), to)
	}

	prec := uint(sequence.DefaultPrecision)
	limit := kind.Limit(prec)

	gen := sequence.NewIterativeGenerator(kind)
	denominator, err := gen.Skip(ctx, uint64(from))
	if err != nil {
		return nil, err
	}

	// to-from cannot overflow: both are non-negative int64 values.
	samples := make([]Sample, 0, min(to-from, sequence.MaxPrealloc-1)+1)
	num := new(big.Float).SetPrec(prec)
	den := new(big.Float).SetPrec(prec)
	ratio := new(big.Float).SetPrec(prec)
	diff := new(big.Float).SetPrec(prec)

	for i := uint64(from); i <= uint64(to); i++ {
		if denominator.Sign() == 0 {
			return nil, fmt.Errorf("%s(%d) = 0: %w", kind.Symbol(), i, ErrUndefinedRatio)
		}
		numerator, err := gen.Next(ctx)
		if err != nil {
			return nil, err
		}

		num.SetInt(numerator)
		den.SetInt(denominator)
		ratio.Quo(num, den)
		diff.Sub(ratio, limit).Abs(diff)

		r, _ := ratio.Float64()
		e, _ := diff.Float64()
		samples = append(samples, Sample{Index: i, Ratio: r, Error: e})
		denominator = numerator
	}
	return samples, nil
}

// IsUndefinedRatio reports whether err was caused by a zero denominator.
func IsUndefinedRatio(err error) bool {
	return errors.Is(err, ErrUndefinedRatio)
}

// DefaultFrom returns the first index whose ratio is defined for kind: the
// index of its first non-zero term.
func DefaultFrom(kind sequence.Kind) int64 {
	switch kind {
	case sequence.Fibonacci:
		return 1
	case sequence.Tribonacci:
		return 2
	default:
		return 0
	}
}
