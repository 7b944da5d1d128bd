package main

import (
	"context"
	"os/signal"
)

// notifyContext derives a context that ends on the first shutdown signal.
// The server drains in-flight calendars before returning; a second signal
// falls through to the default handler and kills the process.
func notifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(parent, shutdownSignals...)
	go func() {
		<-ctx.Done()
		stop()
	}()
	return ctx, stop
}
