package runtime

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// SignalContext is cancelled on the first SIGINT or SIGTERM. A second signal
// while shutdown is draining exits the process immediately.
func SignalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigs)
		select {
		case sig := <-sigs:
			logger.Info("shutdown requested", "signal", sig.String())
			cancel()
		case <-ctx.Done():
			return
		}
		sig := <-sigs
		logger.Error("forced exit", "signal", sig.String())
		os.Exit(1)
	}()
	return ctx, cancel
}
