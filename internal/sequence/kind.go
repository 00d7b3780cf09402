package sequence

import (
	"fmt"
	"math/big"
	"strings"

	apperrors "github.com/agbru/phicalc/internal/errors"
)

// Kind identifies one of the linear recurrence sequences handled by the engine.
type Kind uint8

const (
	// Fibonacci is F(0)=0, F(1)=1, F(n)=F(n-1)+F(n-2).
	Fibonacci Kind = iota
	// Lucas is L(0)=2, L(1)=1, L(n)=L(n-1)+L(n-2).
	Lucas
	// Tribonacci is T(0)=0, T(1)=0, T(2)=1, T(n)=T(n-1)+T(n-2)+T(n-3).
	Tribonacci
)

var kindNames = [...]string{
	Fibonacci:  "fibonacci",
	Lucas:      "lucas",
	Tribonacci: "tribonacci",
}

var kindSymbols = [...]string{
	Fibonacci:  "F",
	Lucas:      "L",
	Tribonacci: "T",
}

// Kinds returns every sequence kind in declaration order.
func Kinds() []Kind {
	return []Kind{Fibonacci, Lucas, Tribonacci}
}

// String returns the lower-case name of the sequence.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Symbol returns the single-letter notation used in reports, e.g. "F" for F(n).
func (k Kind) Symbol() string {
	if int(k) < len(kindSymbols) {
		return kindSymbols[k]
	}
	return "?"
}

// valid reports whether k is one of the declared kinds.
func (k Kind) valid() bool {
	return int(k) < len(kindNames)
}

// seeds returns the initial terms of the recurrence; the order of the
// recurrence is len(seeds).
func (k Kind) seeds() []int64 {
	switch k {
	case Lucas:
		return []int64{2, 1}
	case Tribonacci:
		return []int64{0, 0, 1}
	default:
		return []int64{0, 1}
	}
}

// Base returns term 0 of the sequence.
func (k Kind) Base() *big.Int {
	return big.NewInt(k.seeds()[0])
}

// ParseKind resolves a user-supplied sequence name. Matching is
// case-insensitive and accepts short aliases ("fib", "f", "lucas", "l",
// "trib", "t").
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "fibonacci", "fib", "f":
		return Fibonacci, nil
	case "lucas", "luc", "l":
		return Lucas, nil
	case "tribonacci", "trib", "t":
		return Tribonacci, nil
	}
	return 0, apperrors.NewValidationError("sequence", fmt.Sprintf("unknown sequence %q (valid: %s)", name, strings.Join(kindNames[:], ", ")), name)
}
