// Package cli renders engine results for the command-line interface:
// formatted terms, tables, the JSON records of pkg/models, the spinner shown
// while a long computation runs and the interactive REPL.
package cli

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"golang.org/x/term"
)

// FormatExecutionDuration renders d at the coarsest unit that keeps it
// readable: µs below a millisecond, ms below a second, time.Duration above.
func FormatExecutionDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "< 1µs"
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	default:
		return d.String()
	}
}

const (
	// TruncationLimit is the length from which printed numbers are elided.
	TruncationLimit = 100
	// DisplayEdges digits are kept at each end of an elided number.
	DisplayEdges = 25
	// ProgressRefreshRate is the spinner frame interval, and also how long
	// an operation must run before a spinner appears at all.
	ProgressRefreshRate = 200 * time.Millisecond
)

// Spinner is the part of *spinner.Spinner that StartSpinner drives.
type Spinner interface {
	Start()
	Stop()
	UpdateSuffix(suffix string)
}

type briandownsSpinner struct{ *spinner.Spinner }

func (b briandownsSpinner) UpdateSuffix(suffix string) {
	b.Lock()
	defer b.Unlock()
	b.Suffix = suffix
}

var newSpinner = func(options ...spinner.Option) Spinner {
	return briandownsSpinner{spinner.New(spinner.CharSets[11], ProgressRefreshRate, options...)}
}

// isTerminal reports whether w is an interactive terminal.
var isTerminal = func(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	return w != nil && isTerminal(w)
}

// StartSpinner shows a spinner with the given label on out if out is a
// terminal and the caller has not called the returned stop function within
// ProgressRefreshRate. stop is idempotent and always safe to call.
func StartSpinner(out io.Writer, label string) (stop func()) {
	if !IsTerminal(out) {
		return func() {}
	}

	s := newSpinner(spinner.WithWriter(out))
	s.UpdateSuffix(" " + label)

	var mu sync.Mutex
	started, stopped := false, false
	timer := time.AfterFunc(ProgressRefreshRate, func() {
		mu.Lock()
		defer mu.Unlock()
		if !stopped {
			s.Start()
			started = true
		}
	})

	return func() {
		timer.Stop()
		mu.Lock()
		defer mu.Unlock()
		if started && !stopped {
			s.Stop()
		}
		stopped = true
	}
}

// formatNumberString groups the digits of a decimal string by thousands.
func formatNumberString(s string) string {
	sign := ""
	if s != "" && (s[0] == '-' || s[0] == '+') {
		sign, s = s[:1], s[1:]
	}
	if len(s) <= 3 {
		return sign + s
	}
	out := make([]byte, 0, len(s)+len(s)/3)
	for i := range len(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, s[i])
	}
	return sign + string(out)
}

// truncate shortens a long decimal string to its first and last DisplayEdges
// digits.
func truncate(s string) (string, bool) {
	if len(s) <= TruncationLimit {
		return s, false
	}
	return s[:DisplayEdges] + "..." + s[len(s)-DisplayEdges:], true
}
