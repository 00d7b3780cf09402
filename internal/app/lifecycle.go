package app

import (
	"context"
	"os/signal"
	"syscall"
	"time"
)

// commandContext bounds a command by timeout and by SIGINT/SIGTERM. With a
// timeout <= 0 only the signals apply; serve and repl run that way. stop
// must be called once the command returns.
func commandContext(parent context.Context, timeout time.Duration) (ctx context.Context, stop func()) {
	cancelTimeout := context.CancelFunc(func() {})
	if timeout > 0 {
		parent, cancelTimeout = context.WithTimeout(parent, timeout)
	}
	ctx, stopSignals := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	return ctx, func() {
		stopSignals()
		cancelTimeout()
	}
}
