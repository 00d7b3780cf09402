package sequence

import (
	"math"
	"math/big"
	"strconv"
)

// Value is a sequence term produced by a strategy: either an exact
// arbitrary-precision integer or, for the closed form, a float64 estimate.
// A Value is immutable; accessors return copies.
type Value struct {
	exact       *big.Int
	approx      float64
	approximate bool
	index       uint64
}

// exactValue takes ownership of v.
func exactValue(n uint64, v *big.Int) Value {
	return Value{exact: v, index: n}
}

// NewExactValue wraps term n computed outside the engine, such as a value
// read back from a cache. v is copied.
func NewExactValue(n uint64, v *big.Int) Value {
	return exactValue(n, new(big.Int).Set(v))
}

func approxValue(n uint64, f float64) Value {
	return Value{approx: f, approximate: true, index: n}
}

// Index returns the term index the value was computed for.
func (v Value) Index() uint64 { return v.index }

// IsExact reports whether the value is an exact integer.
func (v Value) IsExact() bool { return !v.approximate }

// PrecisionLoss is the advisory flag for closed-form results past
// ClosedFormSafeIndex. It never turns into an error.
func (v Value) PrecisionLoss() bool {
	return v.approximate && v.index > ClosedFormSafeIndex
}

// Int returns the value as a new big.Int. Approximate values are converted
// from their float64 estimate; nil is returned when the estimate is not finite.
func (v Value) Int() *big.Int {
	if !v.approximate {
		if v.exact == nil {
			return nil
		}
		return new(big.Int).Set(v.exact)
	}
	if math.IsInf(v.approx, 0) || math.IsNaN(v.approx) {
		return nil
	}
	z, _ := big.NewFloat(v.approx).Int(nil)
	return z
}

// Float64 returns the nearest float64 to the value.
func (v Value) Float64() float64 {
	if v.approximate {
		return v.approx
	}
	if v.exact == nil {
		return 0
	}
	f, _ := new(big.Float).SetInt(v.exact).Float64()
	return f
}

// String renders exact values in base 10 and approximate ones without an
// exponent ("+Inf" once float64 overflows).
func (v Value) String() string {
	if !v.approximate {
		if v.exact == nil {
			return "<nil>"
		}
		return v.exact.String()
	}
	if math.IsInf(v.approx, 0) || math.IsNaN(v.approx) {
		return strconv.FormatFloat(v.approx, 'g', -1, 64)
	}
	return strconv.FormatFloat(v.approx, 'f', 0, 64)
}

// Digits returns the number of decimal digits of the value.
func (v Value) Digits() int {
	s := v.String()
	if len(s) > 0 && (s[0] == '-' || s[0] == '+') {
		s = s[1:]
	}
	return len(s)
}

// Equal reports whether two values denote the same integer. Approximate values
// are compared through their integer conversion.
func (v Value) Equal(o Value) bool {
	if v.approximate && o.approximate {
		return v.approx == o.approx
	}
	a, b := v.Int(), o.Int()
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Cmp(b) == 0
}
