package apperrors

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// ColorProvider defines the interface for obtaining the color used for the
// error prefix. This abstraction breaks the import cycle with the ui package.
type ColorProvider interface {
	// Error wraps s in the error color of the active theme.
	Error(s string) string
}

// DefaultColorProvider provides no colors (for non-terminal output).
type DefaultColorProvider struct{}

func (DefaultColorProvider) Error(s string) string { return s }

// ExitCodeFor maps an error to the process exit code that describes it.
//
// Parameters:
//   - err: The error to classify (nil maps to ExitSuccess).
//
// Returns:
//   - int: The exit code.
func ExitCodeFor(err error) int {
	var cfgErr ConfigError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, context.DeadlineExceeded):
		return ExitErrorTimeout
	case errors.Is(err, context.Canceled):
		return ExitErrorCanceled
	case errors.Is(err, ErrInvalidArgument):
		return ExitErrorInvalidArgument
	case errors.Is(err, ErrUnsupported):
		return ExitErrorUnsupported
	case errors.Is(err, ErrMismatch):
		return ExitErrorMismatch
	case errors.As(err, &cfgErr):
		return ExitErrorConfig
	default:
		return ExitErrorGeneric
	}
}

// HandleError prints a single-line, human-readable description of err to out
// and returns the matching exit code. Nothing beyond the message is printed;
// internal details such as stack traces never reach the user.
//
// Parameters:
//   - err: The error that occurred.
//   - out: The io.Writer to which the message is written (typically stderr).
//   - colors: Provider for terminal colors (can be nil for no colors).
//
// Returns:
//   - int: The appropriate exit code for the error type.
func HandleError(err error, out io.Writer, colors ColorProvider) int {
	if err == nil {
		return ExitSuccess
	}
	if colors == nil {
		colors = DefaultColorProvider{}
	}

	code := ExitCodeFor(err)
	msg := err.Error()
	switch code {
	case ExitErrorTimeout:
		msg = "the execution limit was reached (timeout)"
	case ExitErrorCanceled:
		msg = "operation canceled"
	}
	fmt.Fprintf(out, "%s %s\n", colors.Error("Error:"), msg)
	return code
}
