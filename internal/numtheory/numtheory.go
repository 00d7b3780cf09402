// Package numtheory provides the number-theory helpers built on the sequence
// engine: trial-division primality, the Fibonacci-prime search, Euclid's
// algorithm with step counting and Fibonacci membership.
package numtheory

import (
	"context"
	"fmt"

	apperrors "github.com/agbru/phicalc/internal/errors"
	"github.com/agbru/phicalc/internal/sequence"
)

// FibPrime is a Fibonacci number that is also prime, with its index.
type FibPrime struct {
	Index uint64
	Value uint64
}

// IsPrime reports whether n is prime by deterministic trial division. The
// candidate bound is written d <= n/d so that d*d never overflows.
func IsPrime(n uint64) bool {
	if n < 2 {
		return false
	}
	if n%2 == 0 {
		return n == 2
	}
	for d := uint64(3); d <= n/d; d += 2 {
		if n%d == 0 {
			return false
		}
	}
	return true
}

// FibonacciPrimes returns, in ascending index order, every F(i) with
// 2 <= i <= bound that is prime. Indices 0 and 1 are skipped so that the
// value 1 is never reported twice.
//
// Errors:
//   - bound < 0 or bound > sequence.MaxUint64Index: ErrInvalidArgument.
//   - ctx done while scanning: the context error.
func FibonacciPrimes(ctx context.Context, bound int64) ([]FibPrime, error) {
	if bound < 0 {
		return nil, apperrors.NewValidationError("bound", fmt.Sprintf("must be non-negative, got %d", bound), bound)
	}
	if bound > sequence.MaxUint64Index {
		return nil, apperrors.NewValidationError("bound",
			fmt.Sprintf("must be <= %d so that F(bound) fits in 64 bits, got %d", sequence.MaxUint64Index, bound), bound)
	}

	primes := []FibPrime{}
	if bound < 2 {
		return primes, nil
	}

	gen := sequence.NewIterativeGenerator(sequence.Fibonacci)
	if _, err := gen.Skip(ctx, 2); err != nil {
		return nil, err
	}
	for i := uint64(2); i <= uint64(bound); i++ {
		v := gen.Current()
		if IsPrime(v.Uint64()) {
			primes = append(primes, FibPrime{Index: i, Value: v.Uint64()})
		}
		if i < uint64(bound) {
			if _, err := gen.Next(ctx); err != nil {
				return nil, err
			}
		}
	}
	return primes, nil
}
