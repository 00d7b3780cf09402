package numtheory

import (
	"context"
	"math/big"

	"github.com/agbru/phicalc/internal/sequence"
)

// IsFibonacci reports whether x is a Fibonacci number, using the fact that x
// is one exactly when 5x²+4 or 5x²-4 is a perfect square. Negative values are
// never Fibonacci numbers.
func IsFibonacci(x *big.Int) bool {
	if x == nil || x.Sign() < 0 {
		return false
	}
	t := new(big.Int).Mul(x, x)
	t.Mul(t, big.NewInt(5))

	plus := new(big.Int).Add(t, big.NewInt(4))
	if isPerfectSquare(plus) {
		return true
	}
	minus := t.Sub(t, big.NewInt(4))
	return isPerfectSquare(minus)
}

// IsFibonacciInt is IsFibonacci for machine integers.
func IsFibonacciInt(x int64) bool {
	return IsFibonacci(big.NewInt(x))
}

// isPerfectSquare checks the integer square root by squaring it back.
func isPerfectSquare(n *big.Int) bool {
	if n.Sign() < 0 {
		return false
	}
	r := new(big.Int).Sqrt(n)
	return r.Mul(r, r).Cmp(n) == 0
}

// FibonacciIndex returns the index i with F(i) = x. Since F(1) = F(2) = 1,
// x = 1 maps to index 1. ok is false when x is not a Fibonacci number.
func FibonacciIndex(x *big.Int) (index uint64, ok bool) {
	if !IsFibonacci(x) {
		return 0, false
	}
	if x.Sign() == 0 {
		return 0, true
	}

	// The membership test above bounds the walk: x is reached after about
	// 4.8 steps per decimal digit.
	ctx := context.Background()
	gen := sequence.NewIterativeGenerator(sequence.Fibonacci)
	for {
		v, err := gen.Next(ctx)
		if err != nil {
			return 0, false
		}
		if v.Cmp(x) == 0 && gen.Index() > 0 {
			return gen.Index(), true
		}
	}
}
