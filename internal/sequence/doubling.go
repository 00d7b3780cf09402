package sequence

import (
	"context"
	"math/big"
)

// fastDoubling computes terms from the pair (F(n), F(n+1)) returned by
// fibonacciPair. Lucas numbers follow from L(n) = 2F(n+1) - F(n).
type fastDoubling struct{}

func (fastDoubling) term(ctx context.Context, kind Kind, n uint64) (Value, error) {
	fn, fn1, err := fibonacciPair(ctx, n)
	if err != nil {
		return Value{}, err
	}
	if kind == Lucas {
		l := new(big.Int).Lsh(fn1, 1)
		return exactValue(n, l.Sub(l, fn)), nil
	}
	return exactValue(n, fn), nil
}
