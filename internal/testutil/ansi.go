// Package testutil holds helpers shared by the tests of several packages.
package testutil

import "regexp"

// csi matches ANSI control sequences: SGR colors from fatih/color and the
// cursor and line controls (ESC[?25l, ESC[K) written by the spinner.
var csi = regexp.MustCompile(`\x1b\[[0-9;?]*[a-zA-Z]`)

// StripAnsiCodes returns s without ANSI control sequences, so that tests can
// assert on rendered text whatever the color setting.
func StripAnsiCodes(s string) string {
	return csi.ReplaceAllString(s, "")
}
