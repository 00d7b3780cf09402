// Package apperrors holds the error classes of phicalc and the exit codes
// they map to. Typed errors match their sentinel through errors.Is, so the
// class survives any %w wrapping between the engine and the front ends.
package apperrors

import (
	"errors"
	"fmt"
)

// Process exit codes.
const (
	ExitSuccess              = 0
	ExitErrorGeneric         = 1
	ExitErrorTimeout         = 2
	ExitErrorMismatch        = 3 // exact strategies disagreed
	ExitErrorConfig          = 4
	ExitErrorInvalidArgument = 5
	ExitErrorUnsupported     = 6
	ExitErrorCanceled        = 130 // 128 + SIGINT
)

// Sentinels for the error classes.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUnsupported     = errors.New("unsupported sequence/strategy combination")
	ErrMismatch        = errors.New("strategies returned inconsistent results")
)

// ConfigError reports a flag, environment variable or config file that
// cannot be used.
type ConfigError struct {
	Message string
}

func (e ConfigError) Error() string { return e.Message }

// NewConfigError formats a ConfigError.
func NewConfigError(format string, a ...any) error {
	return ConfigError{Message: fmt.Sprintf(format, a...)}
}

// CalculationError marks a computation that was interrupted, usually by its
// context. Unwrap exposes the cause.
type CalculationError struct {
	Cause error
}

func (e CalculationError) Error() string { return e.Cause.Error() }
func (e CalculationError) Unwrap() error { return e.Cause }

// ServerError is a failure to start or stop the HTTP server.
type ServerError struct {
	Message string
	Cause   error
}

func (e ServerError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.Cause.Error()
}

func (e ServerError) Unwrap() error { return e.Cause }

// NewServerError builds a ServerError; cause may be nil.
func NewServerError(message string, cause error) error {
	return ServerError{Message: message, Cause: cause}
}

// ValidationError is an out-of-domain argument. It is ErrInvalidArgument.
type ValidationError struct {
	Field   string
	Message string
	Value   any
}

func (e ValidationError) Error() string {
	field := e.Field
	if field == "" {
		field = "argument"
	}
	return "invalid " + field + ": " + e.Message
}

func (e ValidationError) Is(target error) bool { return target == ErrInvalidArgument }

// NewValidationError builds a ValidationError for the named field.
func NewValidationError(field, message string, value any) error {
	return ValidationError{Field: field, Message: message, Value: value}
}

// UnsupportedError is a strategy asked for a sequence it has no definition
// for. It is ErrUnsupported.
type UnsupportedError struct {
	Sequence string
	Strategy string
}

func (e UnsupportedError) Error() string {
	return fmt.Sprintf("strategy %q does not support the %s sequence", e.Strategy, e.Sequence)
}

func (e UnsupportedError) Is(target error) bool { return target == ErrUnsupported }

// NewUnsupportedError builds an UnsupportedError.
func NewUnsupportedError(sequence, strategy string) error {
	return UnsupportedError{Sequence: sequence, Strategy: strategy}
}
