// Package shutdown runs long-lived servers side by side and stops them all
// when a signal arrives, the parent context ends, or any one of them exits.
package shutdown

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrTimeout is returned when components are still running after the
// shutdown deadline.
var ErrTimeout = errors.New("shutdown timeout exceeded")

// Component is one server run by Run.
type Component struct {
	Name string
	// Run blocks while the component serves. It should return once ctx is
	// cancelled or Stop is called.
	Run func(ctx context.Context) error
	// Stop is optional. It is called with the shutdown deadline for servers
	// that do not watch their run context.
	Stop func(ctx context.Context) error
}

// Run starts every component and blocks until SIGINT/SIGTERM, cancellation
// of ctx, or the first component returning. Components are then stopped in
// reverse order and given up to timeout to finish. The first component error
// is returned.
func Run(ctx context.Context, logger *slog.Logger, timeout time.Duration, components ...Component) error {
	if logger == nil {
		logger = slog.Default()
	}

	sigCtx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	runCtx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	var g errgroup.Group
	for _, c := range components {
		c := c
		g.Go(func() error {
			// One component ending takes the rest down with it
			defer cancel()
			logger.Debug("component starting", "component", c.Name)
			if err := c.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("component failed", "component", c.Name, "error", err)
				return fmt.Errorf("%s: %w", c.Name, err)
			}
			logger.Debug("component stopped", "component", c.Name)
			return nil
		})
	}

	<-runCtx.Done()
	if sigCtx.Err() != nil && ctx.Err() == nil {
		logger.Info("received signal, initiating shutdown")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
	defer shutdownCancel()

	for i := len(components) - 1; i >= 0; i-- {
		c := components[i]
		if c.Stop == nil {
			continue
		}
		if err := c.Stop(shutdownCtx); err != nil {
			logger.Error("shutdown error", "component", c.Name, "error", err)
		}
	}

	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
	}()

	select {
	case err := <-done:
		logger.Info("shutdown complete")
		return err
	case <-shutdownCtx.Done():
		logger.Warn("shutdown timeout exceeded", "timeout", timeout)
		return ErrTimeout
	}
}
