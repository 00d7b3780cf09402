package testutil

import "testing"

func TestStripAnsiCodes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"\x1b[38;5;39mF(10)\x1b[0m = 55", "F(10) = 55"},
		{"\x1b[1m--- Summary ---\x1b[0;22m", "--- Summary ---"},
		{"\x1b[?25l\x1b[KComputing\x1b[?25h", "Computing"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := StripAnsiCodes(tt.in); got != tt.want {
			t.Errorf("StripAnsiCodes(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMustBigInt(t *testing.T) {
	t.Parallel()
	if got := MustBigInt(t, "354224848179261915075"); got.String() != "354224848179261915075" {
		t.Errorf("MustBigInt() = %s", got)
	}
}
