package testutil

import (
	"math/big"
	"testing"
)

// MustBigInt parses a base-10 integer literal or fails the test.
func MustBigInt(t testing.TB, s string) *big.Int {
	t.Helper()
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		t.Fatalf("invalid integer literal %q", s)
	}
	return v
}
