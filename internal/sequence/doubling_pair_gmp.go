//go:build gmp

// This file swaps the fast-doubling pair recursion onto GMP integers when the
// binary is built with -tags gmp. It requires libgmp:
//   - Linux: sudo apt-get install libgmp-dev (Debian/Ubuntu)
//   - macOS: brew install gmp
//
// Everything outside fibonacciPair keeps working on math/big; only the final
// pair is converted back.

package sequence

import (
	"context"
	"math/big"

	"github.com/ncw/gmp"
)

func fibonacciPair(ctx context.Context, n uint64) (*big.Int, *big.Int, error) {
	fk, fk1, err := gmpPair(ctx, n)
	if err != nil {
		return nil, nil, err
	}
	return gmpToBig(fk), gmpToBig(fk1), nil
}

func gmpPair(ctx context.Context, n uint64) (*gmp.Int, *gmp.Int, error) {
	if n == 0 {
		return gmp.NewInt(0), gmp.NewInt(1), nil
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	fk, fk1, err := gmpPair(ctx, n/2)
	if err != nil {
		return nil, nil, err
	}

	f2k := new(gmp.Int).Lsh(fk1, 1)
	f2k.Sub(f2k, fk)
	f2k.Mul(f2k, fk)

	f2k1 := new(gmp.Int).Mul(fk, fk)
	fk1.Mul(fk1, fk1)
	f2k1.Add(f2k1, fk1)

	if n%2 == 0 {
		return f2k, f2k1, nil
	}
	return f2k1, f2k.Add(f2k, f2k1), nil
}

// gmpToBig converts a non-negative GMP integer to math/big.
func gmpToBig(x *gmp.Int) *big.Int {
	return new(big.Int).SetBytes(x.Bytes())
}
