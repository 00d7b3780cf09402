//go:build !gmp

package sequence

import (
	"context"
	"math/big"
)

// fibonacciPair returns (F(n), F(n+1)) by recursive halving:
//
//	F(2k)   = F(k)·(2F(k+1) - F(k))
//	F(2k+1) = F(k)² + F(k+1)²
//
// The recursion depth is the bit length of n. ctx is polled once per level.
func fibonacciPair(ctx context.Context, n uint64) (*big.Int, *big.Int, error) {
	if n == 0 {
		return big.NewInt(0), big.NewInt(1), nil
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	fk, fk1, err := fibonacciPair(ctx, n/2)
	if err != nil {
		return nil, nil, err
	}

	f2k := new(big.Int).Lsh(fk1, 1)
	f2k.Sub(f2k, fk)
	f2k.Mul(f2k, fk)

	f2k1 := new(big.Int).Mul(fk, fk)
	fk1.Mul(fk1, fk1)
	f2k1.Add(f2k1, fk1)

	if n%2 == 0 {
		return f2k, f2k1, nil
	}
	// (F(2k+1), F(2k+2)) with F(2k+2) = F(2k) + F(2k+1).
	return f2k1, f2k.Add(f2k, f2k1), nil
}
