package sequence

import (
	"math"
	"math/big"
)

// Golden-ratio constants. They are untyped constant expressions, so each one
// is correctly rounded to float64 at the point of use.
const (
	// Sqrt5 is √5.
	Sqrt5 = 2.23606797749978969640917366873127623544061835961152572427089
	// Phi is the golden ratio (1+√5)/2 ≈ 1.6180339887.
	Phi = (1 + Sqrt5) / 2
	// Psi is the algebraic conjugate of φ, (1-√5)/2 = -1/φ.
	Psi = (1 - Sqrt5) / 2
	// InvPhi is 1/φ = φ-1 ≈ 0.6180339887.
	InvPhi = Phi - 1
	// PhiSquared is φ² = φ+1.
	PhiSquared = Phi + 1
	// GoldenAngle is π(3-√5) radians, the angle used by phyllotaxis generators.
	GoldenAngle = math.Pi * (3 - Sqrt5)
	// GoldenAngleDegrees is 360/φ² ≈ 137.5077640500°.
	GoldenAngleDegrees = 360 / PhiSquared
)

const (
	// ClosedFormSafeIndex is the largest index for which the float64 closed
	// form is guaranteed to round to the exact term. The first observed
	// divergence is at n=76.
	ClosedFormSafeIndex = 70
	// MaxUint64Index is the largest n with F(n) < 2^64 (F(93)).
	MaxUint64Index = 93
	// DefaultPrecision is the big.Float precision, in bits, used for limits
	// and convergence errors.
	DefaultPrecision = 256
)

// PhiBig returns φ with prec bits of mantissa.
func PhiBig(prec uint) *big.Float {
	five := new(big.Float).SetPrec(prec).SetInt64(5)
	phi := new(big.Float).SetPrec(prec).Sqrt(five)
	phi.Add(phi, new(big.Float).SetPrec(prec).SetInt64(1))
	return phi.Quo(phi, new(big.Float).SetPrec(prec).SetInt64(2))
}

// TribonacciConstantBig returns the real root of x³ = x² + x + 1
// (≈ 1.839286755214161) with prec bits of mantissa, found by Newton iteration.
func TribonacciConstantBig(prec uint) *big.Float {
	one := new(big.Float).SetPrec(prec).SetInt64(1)
	two := new(big.Float).SetPrec(prec).SetInt64(2)
	three := new(big.Float).SetPrec(prec).SetInt64(3)
	x := new(big.Float).SetPrec(prec).SetFloat64(1.8392867552141612)

	f := new(big.Float).SetPrec(prec)
	df := new(big.Float).SetPrec(prec)
	t := new(big.Float).SetPrec(prec)
	// Quadratic convergence from a 53-bit seed: each step doubles the bits.
	for bits := uint(53); bits < 2*prec; bits *= 2 {
		// f = x³ - x² - x - 1 = ((x - 1)x - 1)x - 1
		f.Sub(x, one)
		f.Mul(f, x)
		f.Sub(f, one)
		f.Mul(f, x)
		f.Sub(f, one)
		// df = 3x² - 2x - 1
		df.Mul(three, x)
		df.Sub(df, two)
		df.Mul(df, x)
		df.Sub(df, one)
		t.Quo(f, df)
		x.Sub(x, t)
	}
	return x
}

// Limit returns the limit of term(n+1)/term(n) for the sequence kind: φ for
// Fibonacci and Lucas, the Tribonacci constant otherwise.
func (k Kind) Limit(prec uint) *big.Float {
	if k == Tribonacci {
		return TribonacciConstantBig(prec)
	}
	return PhiBig(prec)
}
