package sequence

import (
	"context"
	"math"
)

// closedForm evaluates Binet's formula in float64:
//
//	F(n) = (φⁿ - ψⁿ)/√5    L(n) = φⁿ + ψⁿ
//
// and rounds to the nearest integer. The result is exact up to
// ClosedFormSafeIndex. Past n≈76 the 53-bit mantissa can no longer hold the
// term, and past n≈1474 φⁿ overflows to +Inf. Both are reported through
// Value.PrecisionLoss and are not errors.
type closedForm struct{}

func (closedForm) term(_ context.Context, kind Kind, n uint64) (Value, error) {
	x := float64(n)
	if kind == Lucas {
		return approxValue(n, math.Round(math.Pow(Phi, x)+math.Pow(Psi, x))), nil
	}
	return approxValue(n, math.Round((math.Pow(Phi, x)-math.Pow(Psi, x))/Sqrt5)), nil
}
