package numtheory

import "math/big"

// GCDWithSteps runs Euclid's algorithm and returns the greatest common
// divisor with the number of (a, b) pairs examined. The terminal (g, 0) pair
// counts as a step, so gcd(89, 55) takes 10 steps and a pair of consecutive
// Fibonacci numbers (F(n+1), F(n)) takes n steps for n >= 2.
//
// gcd(0, 0) is 0 after one step.
func GCDWithSteps(a, b uint64) (gcd uint64, steps int) {
	for {
		steps++
		if b == 0 {
			return a, steps
		}
		a, b = b, a%b
	}
}

// GCDWithStepsBig is GCDWithSteps for arbitrary-precision operands. Negative
// inputs are replaced by their absolute values; the arguments are not
// modified.
func GCDWithStepsBig(a, b *big.Int) (*big.Int, int) {
	x := new(big.Int).Abs(a)
	y := new(big.Int).Abs(b)
	r := new(big.Int)
	steps := 0
	for {
		steps++
		if y.Sign() == 0 {
			return x, steps
		}
		r.Rem(x, y)
		x, y, r = y, r, x
	}
}
