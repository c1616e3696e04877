// Package shutdown delivers the process termination signals of the host
// platform.
package shutdown

import (
	"context"
	"os"
	"os/signal"
)

// Notify relays termination signals to ch.
func Notify(ch chan<- os.Signal) {
	signal.Notify(ch, signals...)
}

// Context is cancelled on the first termination signal.
func Context(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, signals...)
}

// OnSignal runs fn once in its own goroutine after the first signal.
func OnSignal(fn func(os.Signal)) {
	ch := make(chan os.Signal, 1)
	Notify(ch)
	go func() {
		fn(<-ch)
	}()
}
