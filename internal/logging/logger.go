// Package logging is the structured logger shared by the engine, the service
// layer and the HTTP server. Lines are JSON objects written by zerolog.
package logging

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the logging surface the rest of phicalc depends on.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	// Warn is used for recoverable conditions such as a cache outage or an
	// advisory precision loss.
	Warn(msg string, fields ...Field)
	Error(msg string, err error, fields ...Field)
}

// Field adds one key to a log line.
type Field func(*zerolog.Event) *zerolog.Event

func String(key, v string) Field {
	return func(e *zerolog.Event) *zerolog.Event { return e.Str(key, v) }
}

func Int(key string, v int) Field {
	return func(e *zerolog.Event) *zerolog.Event { return e.Int(key, v) }
}

func Int64(key string, v int64) Field {
	return func(e *zerolog.Event) *zerolog.Event { return e.Int64(key, v) }
}

func Uint64(key string, v uint64) Field {
	return func(e *zerolog.Event) *zerolog.Event { return e.Uint64(key, v) }
}

func Float64(key string, v float64) Field {
	return func(e *zerolog.Event) *zerolog.Event { return e.Float64(key, v) }
}

func Bool(key string, v bool) Field {
	return func(e *zerolog.Event) *zerolog.Event { return e.Bool(key, v) }
}

// Duration logs d as fractional milliseconds.
func Duration(key string, d time.Duration) Field {
	return func(e *zerolog.Event) *zerolog.Event {
		return e.Float64(key, float64(d.Microseconds())/1000)
	}
}

// Err logs err under the "error" key.
func Err(err error) Field {
	return func(e *zerolog.Event) *zerolog.Event { return e.Err(err) }
}

// Zerolog is the zerolog-backed Logger.
type Zerolog struct {
	zl zerolog.Logger
}

var _ Logger = (*Zerolog)(nil)

// NewLogger logs every level to w, stamping lines with the component name.
func NewLogger(w io.Writer, component string) *Zerolog {
	return newZerolog(w, component, zerolog.TraceLevel)
}

// NewLoggerWithLevel is NewLogger filtered at the named level.
func NewLoggerWithLevel(w io.Writer, component, level string) (*Zerolog, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return newZerolog(w, component, lvl), nil
}

func newZerolog(w io.Writer, component string, lvl zerolog.Level) *Zerolog {
	return &Zerolog{zl: zerolog.New(w).Level(lvl).With().Timestamp().Str("component", component).Logger()}
}

// ParseLevel accepts zerolog's level names, case-insensitively.
func ParseLevel(level string) (zerolog.Level, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("unknown log level %q", level)
	}
	return lvl, nil
}

// Nop discards everything.
func Nop() *Zerolog {
	return &Zerolog{zl: zerolog.Nop()}
}

// With returns a child logger carrying key=value on every line.
func (z *Zerolog) With(key, value string) *Zerolog {
	return &Zerolog{zl: z.zl.With().Str(key, value).Logger()}
}

func emit(e *zerolog.Event, msg string, fields []Field) {
	for _, f := range fields {
		e = f(e)
	}
	e.Msg(msg)
}

func (z *Zerolog) Debug(msg string, fields ...Field) { emit(z.zl.Debug(), msg, fields) }
func (z *Zerolog) Info(msg string, fields ...Field)  { emit(z.zl.Info(), msg, fields) }
func (z *Zerolog) Warn(msg string, fields ...Field)  { emit(z.zl.Warn(), msg, fields) }

func (z *Zerolog) Error(msg string, err error, fields ...Field) {
	emit(z.zl.Error().Err(err), msg, fields)
}
