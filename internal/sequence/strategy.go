package sequence

import (
	"context"
	"fmt"
	"sort"
	"strings"

	apperrors "github.com/agbru/phicalc/internal/errors"
)

// Strategy is the closed set of algorithms the engine can dispatch to.
type Strategy uint8

const (
	// Naive is the two-way recursion F(n)=F(n-1)+F(n-2). Exponential time;
	// bounded by the engine's naive limit.
	Naive Strategy = iota
	// Memoized is the same recursion backed by the engine's MemoCache.
	Memoized
	// Iterative walks the recurrence forward carrying the last k terms.
	Iterative
	// ClosedForm evaluates Binet's formula in float64. Approximate.
	ClosedForm
	// Matrix raises the companion matrix of the recurrence to the n-th power.
	Matrix
	// FastDoubling uses the doubling identities on (F(k), F(k+1)) pairs.
	FastDoubling
)

// Info documents the complexity and precision contract of a strategy.
type Info struct {
	Strategy Strategy
	// Name is the canonical CLI/API name.
	Name string
	// Aliases are alternative names accepted by ParseStrategy.
	Aliases []string
	// Title is a human-readable label for tables.
	Title string
	Time  string
	Space string
	// Exact is false only for the floating-point closed form.
	Exact bool
	// Kinds lists the sequences the strategy can compute.
	Kinds []Kind
}

var strategyTable = [...]Info{
	Naive: {
		Strategy: Naive, Name: "naive", Aliases: []string{"recursive"},
		Title: "Naive recursion", Time: "O(φⁿ)", Space: "O(n) stack",
		Exact: true, Kinds: []Kind{Fibonacci},
	},
	Memoized: {
		Strategy: Memoized, Name: "memo", Aliases: []string{"memoized"},
		Title: "Memoized recursion", Time: "O(n) first call, O(1) cached", Space: "O(n) cache",
		Exact: true, Kinds: []Kind{Fibonacci},
	},
	Iterative: {
		Strategy: Iterative, Name: "iterative", Aliases: []string{"iter", "loop"},
		Title: "Iteration", Time: "O(n)", Space: "O(1) terms",
		Exact: true, Kinds: []Kind{Fibonacci, Lucas, Tribonacci},
	},
	ClosedForm: {
		Strategy: ClosedForm, Name: "binet", Aliases: []string{"closed-form", "closed"},
		Title: "Closed form (Binet)", Time: "O(1)", Space: "O(1)",
		Exact: false, Kinds: []Kind{Fibonacci, Lucas},
	},
	Matrix: {
		Strategy: Matrix, Name: "matrix", Aliases: []string{"matrix-exp"},
		Title: "Matrix exponentiation", Time: "O(log n) squarings", Space: "O(1) matrices",
		Exact: true, Kinds: []Kind{Fibonacci, Lucas, Tribonacci},
	},
	FastDoubling: {
		Strategy: FastDoubling, Name: "doubling", Aliases: []string{"fast", "fast-doubling"},
		Title: "Fast doubling", Time: "O(log n)", Space: "O(log n) recursion",
		Exact: true, Kinds: []Kind{Fibonacci, Lucas},
	},
}

// Strategies returns every strategy in declaration order.
func Strategies() []Strategy {
	return []Strategy{Naive, Memoized, Iterative, ClosedForm, Matrix, FastDoubling}
}

// StrategyNames returns the sorted canonical names of all strategies.
func StrategyNames() []string {
	names := make([]string, 0, len(strategyTable))
	for _, info := range strategyTable {
		names = append(names, info.Name)
	}
	sort.Strings(names)
	return names
}

// StrategyInfo returns the contract of s.
func StrategyInfo(s Strategy) Info {
	if !s.valid() {
		return Info{Strategy: s, Name: s.String()}
	}
	return strategyTable[s]
}

func (s Strategy) valid() bool {
	return int(s) < len(strategyTable)
}

// String returns the canonical name of the strategy.
func (s Strategy) String() string {
	if s.valid() {
		return strategyTable[s].Name
	}
	return fmt.Sprintf("strategy(%d)", uint8(s))
}

// Exact reports whether the strategy produces exact integers.
func (s Strategy) Exact() bool {
	return s.valid() && strategyTable[s].Exact
}

// Supports reports whether s can compute terms of kind k.
func (s Strategy) Supports(k Kind) bool {
	if !s.valid() {
		return false
	}
	for _, supported := range strategyTable[s].Kinds {
		if supported == k {
			return true
		}
	}
	return false
}

// ParseStrategy resolves a strategy by canonical name or alias
// (case-insensitive).
func ParseStrategy(name string) (Strategy, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, info := range strategyTable {
		if info.Name == key {
			return info.Strategy, nil
		}
		for _, alias := range info.Aliases {
			if alias == key {
				return info.Strategy, nil
			}
		}
	}
	return 0, apperrors.NewValidationError("strategy",
		fmt.Sprintf("unknown strategy %q (valid: %s)", name, strings.Join(StrategyNames(), ", ")), name)
}

// algorithm is the single polymorphic interface every strategy implements.
// Arguments are already validated by the Engine.
type algorithm interface {
	term(ctx context.Context, kind Kind, n uint64) (Value, error)
}
