package sequence

import (
	"math"
	"math/big"
	"testing"
)

func TestGoldenRatioConstants(t *testing.T) {
	t.Parallel()
	const eps = 1e-12
	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"phi squared is phi plus one", Phi * Phi, PhiSquared},
		{"inverse phi", 1 / Phi, InvPhi},
		{"psi is -1/phi", Psi, -InvPhi},
		{"phi + psi", Phi + Psi, 1},
		{"phi - psi", Phi - Psi, Sqrt5},
		{"golden angle", GoldenAngle * 180 / math.Pi, GoldenAngleDegrees},
		{"golden angle degrees", GoldenAngleDegrees, 137.50776405003785},
	}
	for _, tt := range tests {
		if math.Abs(tt.got-tt.want) > eps {
			t.Errorf("%s: got %.17g, want %.17g", tt.name, tt.got, tt.want)
		}
	}
}

func TestSqrt5MatchesMath(t *testing.T) {
	t.Parallel()
	if Sqrt5 != math.Sqrt(5) {
		t.Errorf("Sqrt5 = %.17g, math.Sqrt(5) = %.17g", float64(Sqrt5), math.Sqrt(5))
	}
	if Phi != (1+math.Sqrt(5))/2 {
		t.Errorf("Phi = %.17g", float64(Phi))
	}
	if got := math.Abs(GoldenAngle - math.Pi*(3-math.Sqrt(5))); got > 1e-15 {
		t.Errorf("GoldenAngle off by %g", got)
	}
}

func TestHighPrecisionLimits(t *testing.T) {
	t.Parallel()

	phi := PhiBig(DefaultPrecision)
	// φ² - φ - 1 vanishes to the working precision.
	r := new(big.Float).SetPrec(DefaultPrecision).Mul(phi, phi)
	r.Sub(r, phi)
	r.Sub(r, big.NewFloat(1))
	if r.Sign() != 0 && r.MantExp(nil) > -240 {
		t.Errorf("φ residual too large: %s", r.Text('g', 10))
	}
	if f, _ := phi.Float64(); f != Phi {
		t.Errorf("PhiBig rounds to %v, want %v", f, Phi)
	}

	trib := TribonacciConstantBig(DefaultPrecision)
	// t³ - t² - t - 1
	res := new(big.Float).SetPrec(DefaultPrecision).Sub(trib, big.NewFloat(1))
	res.Mul(res, trib)
	res.Sub(res, big.NewFloat(1))
	res.Mul(res, trib)
	res.Sub(res, big.NewFloat(1))
	if res.Sign() != 0 && res.MantExp(nil) > -240 {
		t.Errorf("Tribonacci constant residual too large: %s", res.Text('g', 10))
	}
	if got := trib.Text('f', 15); got != "1.839286755214161" {
		t.Errorf("Tribonacci constant = %s", got)
	}

	if Lucas.Limit(64).Cmp(Fibonacci.Limit(64)) != 0 {
		t.Error("Fibonacci and Lucas must share the limit φ")
	}
}

func TestValueAccessors(t *testing.T) {
	t.Parallel()

	v := exactValue(100, mustBig("354224848179261915075"))
	if !v.IsExact() || v.PrecisionLoss() || v.Index() != 100 || v.Digits() != 21 {
		t.Errorf("unexpected exact value state: %+v", v)
	}
	copied := v.Int()
	copied.SetInt64(0)
	if v.String() != "354224848179261915075" {
		t.Error("Int() must return a copy")
	}

	a := approxValue(10, 55)
	if a.IsExact() || a.PrecisionLoss() || a.String() != "55" {
		t.Errorf("unexpected approximate value state: %s", a)
	}
	if !a.Equal(exactValue(10, big.NewInt(55))) {
		t.Error("approximate 55 should equal exact 55")
	}
	if !approxValue(80, 2.3416728348467685e16).PrecisionLoss() {
		t.Error("approximate value past the safe index must flag precision loss")
	}
	if inf := approxValue(2000, math.Inf(1)); inf.Int() != nil || inf.String() != "+Inf" {
		t.Errorf("overflowed value = %s", inf)
	}
}

func mustBig(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bad integer literal " + s)
	}
	return v
}
