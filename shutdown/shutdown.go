// Package shutdown ties process termination signals to a context.
package shutdown

import (
	"context"
	"os/signal"
)

// WithSignals returns a copy of parent that is cancelled on the first
// termination signal. stop releases the signal registration.
func WithSignals(parent context.Context) (ctx context.Context, stop context.CancelFunc) {
	return signal.NotifyContext(parent, signals...)
}
