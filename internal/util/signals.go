package util

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// SetupSignalHandler returns a context cancelled on the first SIGINT or SIGTERM.
// The pool treats that as a cancellation and drains in-flight tasks; a second
// signal exits immediately without waiting for them.
func SetupSignalHandler() context.Context {
	return setupSignalHandler(func() { os.Exit(1) })
}

func setupSignalHandler(forceExit func()) context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal, draining running tasks", "signal", sig.String())
		cancel()

		sig = <-sigCh
		slog.Warn("received second shutdown signal, forcing exit", "signal", sig.String())
		signal.Stop(sigCh)
		forceExit()
	}()

	return ctx
}
