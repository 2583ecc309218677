// Package shutdown runs a blocking component until it returns or the
// process is interrupted, then gives cleanup a bounded amount of time.
package shutdown

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/multierr"
)

// Signals are the signals that stop the runner.
var Signals = []os.Signal{syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP}

// RunWithGracefulShutdown calls runner with a context that is cancelled on
// SIGINT, SIGTERM or SIGHUP. Once runner returns, for whatever reason,
// cleanup is called with a context bounded by timeout. A cancelled runner
// is not an error; errors from runner and cleanup are combined.
func RunWithGracefulShutdown(
	ctx context.Context,
	logger *slog.Logger,
	timeout time.Duration,
	runner func(ctx context.Context) error,
	cleanup func(ctx context.Context) error,
) error {
	runCtx, stop := signal.NotifyContext(ctx, Signals...)
	defer stop()

	runErr := runner(runCtx)
	if runCtx.Err() != nil && ctx.Err() == nil {
		logger.Info("received signal, initiating shutdown")
	}
	if errors.Is(runErr, context.Canceled) {
		runErr = nil
	}

	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	start := time.Now()
	if err := cleanup(cleanupCtx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			logger.Warn("shutdown timeout exceeded", "timeout", timeout)
		} else {
			logger.Error("shutdown error", "error", err)
		}
		return multierr.Append(runErr, err)
	}
	logger.Debug("shutdown complete", "duration", time.Since(start))
	return runErr
}
