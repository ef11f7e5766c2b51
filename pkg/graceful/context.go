// Package graceful ties a context to process termination signals.
package graceful

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// Signals lists the signals Context listens for.
var Signals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}

// Context returns a context cancelled on the first termination signal. Calling
// the returned cancel func also releases the signal handler.
func Context(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, Signals...)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.Printf("Received %s, starting graceful shutdown...", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// Shutdown runs fn with a fresh context bounded by timeout, for cleanup that
// happens after the signal context is already done.
func Shutdown(timeout time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		log.Printf("Shutdown did not complete cleanly: %v", err)
		return err
	}
	return nil
}
