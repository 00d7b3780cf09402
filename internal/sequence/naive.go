package sequence

import (
	"context"
	"math/big"
)

// DefaultNaiveLimit is the largest index the naive strategy accepts unless the
// engine is configured otherwise. F(35) already takes ~30M calls.
const DefaultNaiveLimit = 35

// naiveRecursive is the textbook two-way recursion. It exists for comparison
// and benchmarking; the Engine refuses indices above its naive limit, which
// can never exceed MaxUint64Index.
type naiveRecursive struct{}

func (naiveRecursive) term(_ context.Context, _ Kind, n uint64) (Value, error) {
	return exactValue(n, new(big.Int).SetUint64(naiveFibonacci(n))), nil
}

func naiveFibonacci(n uint64) uint64 {
	if n < 2 {
		return n
	}
	return naiveFibonacci(n-1) + naiveFibonacci(n-2)
}
