package sequence

import (
	"context"
	"fmt"
	"math/big"
	"testing"
)

// knownFibResults is a test oracle containing reference values for the
// Fibonacci sequence.
var knownFibResults = []struct {
	n      uint64
	result string
}{
	{0, "0"}, {1, "1"}, {2, "1"}, {10, "55"}, {20, "6765"},
	{30, "832040"},
	{50, "12586269025"},
	{64, "10610209857723"},
	{92, "7540113804746346429"},
	{93, "12200160415121876738"}, // Max uint64
	{94, "19740274219868223167"}, // First overflow uint64
	{100, "354224848179261915075"},
	{128, "251728825683549488150424261"},
	{256, "141693817714056513234709965875411919657707794958199867"},
}

func mustTerm(t *testing.T, e *Engine, kind Kind, n int64, s Strategy) Value {
	t.Helper()
	v, err := e.Term(context.Background(), kind, n, s)
	if err != nil {
		t.Fatalf("Term(%s, %d, %s) failed: %v", kind, n, s, err)
	}
	return v
}

// TestFibonacciKnownValues validates every exact O(n) and O(log n) strategy
// against the oracle.
func TestFibonacciKnownValues(t *testing.T) {
	t.Parallel()
	engine := NewEngine(WithMemoLimit(1000))
	for _, s := range []Strategy{Memoized, Iterative, Matrix, FastDoubling} {
		t.Run(s.String(), func(t *testing.T) {
			t.Parallel()
			for _, tc := range knownFibResults {
				t.Run(fmt.Sprintf("N=%d", tc.n), func(t *testing.T) {
					expected, _ := new(big.Int).SetString(tc.result, 10)
					got := mustTerm(t, engine, Fibonacci, int64(tc.n), s)
					if !got.IsExact() {
						t.Fatal("exact strategy returned an approximate value")
					}
					if got.Int().Cmp(expected) != 0 {
						t.Errorf("Incorrect result.\nExpected: %s\nGot: %s", expected, got)
					}
				})
			}
		})
	}
}

func TestNaiveSmallIndices(t *testing.T) {
	t.Parallel()
	engine := NewEngine()
	want := []int64{0, 1, 1, 2, 3, 5, 8, 13, 21, 34, 55}
	for n, w := range want {
		if got := mustTerm(t, engine, Fibonacci, int64(n), Naive); got.Int().Int64() != w {
			t.Errorf("naive F(%d) = %s, want %d", n, got, w)
		}
	}
	if got := mustTerm(t, engine, Fibonacci, 20, Naive); got.String() != "6765" {
		t.Errorf("naive F(20) = %s, want 6765", got)
	}
}

func TestLucasAndTribonacciPrefixes(t *testing.T) {
	t.Parallel()
	engine := NewEngine()
	tests := []struct {
		kind       Kind
		strategies []Strategy
		want       []int64
	}{
		{Lucas, []Strategy{Iterative, Matrix, FastDoubling, ClosedForm}, []int64{2, 1, 3, 4, 7, 11, 18, 29, 47, 76}},
		{Tribonacci, []Strategy{Iterative, Matrix}, []int64{0, 0, 1, 1, 2, 4, 7, 13, 24, 44}},
		{Fibonacci, []Strategy{Naive, Memoized, Iterative, ClosedForm, Matrix, FastDoubling}, []int64{0, 1, 1, 2, 3, 5, 8, 13, 21, 34}},
	}
	for _, tt := range tests {
		for _, s := range tt.strategies {
			t.Run(tt.kind.String()+"/"+s.String(), func(t *testing.T) {
				for n, w := range tt.want {
					got := mustTerm(t, engine, tt.kind, int64(n), s)
					if !got.Equal(exactValue(uint64(n), big.NewInt(w))) {
						t.Errorf("%s(%d) = %s, want %d", tt.kind.Symbol(), n, got, w)
					}
				}
			})
		}
	}
}

// TestCrossStrategyAgreement checks that every exact strategy returns the
// same integer for n in [0, 500].
func TestCrossStrategyAgreement(t *testing.T) {
	t.Parallel()
	engine := NewEngine()
	for _, kind := range Kinds() {
		t.Run(kind.String(), func(t *testing.T) {
			t.Parallel()
			for n := int64(0); n <= 500; n++ {
				reference := mustTerm(t, engine, kind, n, Iterative)
				for _, s := range Strategies() {
					if !s.Exact() || !s.Supports(kind) || s == Iterative {
						continue
					}
					if s == Naive && n > 25 {
						continue
					}
					got := mustTerm(t, engine, kind, n, s)
					if got.Int().Cmp(reference.Int()) != 0 {
						t.Fatalf("%s(%d): %s = %s, iterative = %s", kind.Symbol(), n, s, got, reference)
					}
				}
			}
		})
	}
}

// TestClosedFormBoundedAccuracy asserts exactness of Binet's formula up to
// ClosedFormSafeIndex and documents where it stops being exact.
func TestClosedFormBoundedAccuracy(t *testing.T) {
	t.Parallel()
	engine := NewEngine()
	for _, kind := range []Kind{Fibonacci, Lucas} {
		for n := int64(0); n <= ClosedFormSafeIndex; n++ {
			approx := mustTerm(t, engine, kind, n, ClosedForm)
			exact := mustTerm(t, engine, kind, n, Iterative)
			if approx.IsExact() {
				t.Fatal("closed form must report an approximate value")
			}
			if approx.PrecisionLoss() {
				t.Errorf("%s(%d) flagged with precision loss inside the safe range", kind.Symbol(), n)
			}
			if !approx.Equal(exact) {
				t.Errorf("%s(%d): closed form %s != exact %s", kind.Symbol(), n, approx, exact)
			}
		}
	}

	firstDivergence := int64(-1)
	for n := int64(ClosedFormSafeIndex + 1); n <= 100; n++ {
		if !mustTerm(t, engine, Fibonacci, n, ClosedForm).Equal(mustTerm(t, engine, Fibonacci, n, Iterative)) {
			firstDivergence = n
			break
		}
	}
	t.Logf("float64 closed form first diverges from F(n) at n=%d", firstDivergence)
	if firstDivergence < 0 {
		t.Error("expected the float64 closed form to diverge before n=100")
	}

	far := mustTerm(t, engine, Fibonacci, 100, ClosedForm)
	if !far.PrecisionLoss() {
		t.Error("F(100) via closed form should carry the precision-loss flag")
	}
}

func TestClosedFormOverflow(t *testing.T) {
	t.Parallel()
	v := mustTerm(t, NewEngine(), Fibonacci, 2000, ClosedForm)
	if v.String() != "+Inf" || v.Int() != nil {
		t.Errorf("F(2000) via float64 should overflow to +Inf, got %s", v)
	}
}

// TestDeterminism calls each exact strategy twice; the memoized strategy's
// second call is served from the cache and must not differ.
func TestDeterminism(t *testing.T) {
	t.Parallel()
	engine := NewEngine()
	for _, s := range []Strategy{Naive, Memoized, Iterative, Matrix, FastDoubling} {
		n := int64(300)
		if s == Naive {
			n = 22
		}
		first := mustTerm(t, engine, Fibonacci, n, s)
		second := mustTerm(t, engine, Fibonacci, n, s)
		if !first.Equal(second) {
			t.Errorf("%s is not deterministic: %s vs %s", s, first, second)
		}
	}
}

func TestFastDoublingPair(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	for _, n := range []uint64{0, 1, 2, 3, 10, 93, 255, 256, 1000} {
		fn, fn1, err := fibonacciPair(ctx, n)
		if err != nil {
			t.Fatalf("fibonacciPair(%d): %v", n, err)
		}
		wantN, _ := iterate(ctx, Fibonacci, n)
		wantN1, _ := iterate(ctx, Fibonacci, n+1)
		if fn.Cmp(wantN) != 0 || fn1.Cmp(wantN1) != 0 {
			t.Errorf("fibonacciPair(%d) = (%s, %s), want (%s, %s)", n, fn, fn1, wantN, wantN1)
		}
	}
}
