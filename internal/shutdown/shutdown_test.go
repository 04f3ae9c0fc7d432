package shutdown

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// blocking returns a component that serves until its context ends.
func blocking(name string, stopped *atomic.Int32) Component {
	return Component{
		Name: name,
		Run: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
		Stop: func(ctx context.Context) error {
			stopped.Add(1)
			return nil
		},
	}
}

func TestRun_ContextCancelStopsAll(t *testing.T) {
	var stopped atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		errCh <- Run(ctx, quietLogger(), time.Second, blocking("a", &stopped), blocking("b", &stopped))
	}()

	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Run() error = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if got := stopped.Load(); got != 2 {
		t.Errorf("stopped %d components, want 2", got)
	}
}

func TestRun_ComponentExitStopsOthers(t *testing.T) {
	var stopped atomic.Int32
	exits := Component{
		Name: "oneshot",
		Run:  func(ctx context.Context) error { return nil },
	}

	err := Run(context.Background(), quietLogger(), time.Second, blocking("server", &stopped), exits)
	if err != nil {
		t.Errorf("Run() error = %v, want nil", err)
	}
	if stopped.Load() != 1 {
		t.Error("remaining component should be stopped")
	}
}

func TestRun_ComponentErrorReturned(t *testing.T) {
	var stopped atomic.Int32
	boom := errors.New("listen failed")
	failing := Component{
		Name: "http",
		Run:  func(ctx context.Context) error { return boom },
	}

	err := Run(context.Background(), quietLogger(), time.Second, blocking("store", &stopped), failing)
	if !errors.Is(err, boom) {
		t.Fatalf("Run() error = %v, want %v", err, boom)
	}
	if err.Error() != "http: listen failed" {
		t.Errorf("error = %q, want component name prefix", err.Error())
	}
}

func TestRun_StopUnblocksRun(t *testing.T) {
	release := make(chan struct{})
	// Ignores its context; only Stop ends it, like http.Server
	server := Component{
		Name: "http",
		Run: func(ctx context.Context) error {
			<-release
			return nil
		},
		Stop: func(ctx context.Context) error {
			close(release)
			return nil
		},
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := Run(ctx, quietLogger(), time.Second, server); err != nil {
		t.Errorf("Run() error = %v, want nil", err)
	}
}

func TestRun_Timeout(t *testing.T) {
	stuck := Component{
		Name: "stuck",
		Run: func(ctx context.Context) error {
			time.Sleep(time.Second)
			return nil
		},
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := Run(ctx, quietLogger(), 50*time.Millisecond, stuck)
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("Run() error = %v, want ErrTimeout", err)
	}
	if time.Since(start) > 900*time.Millisecond {
		t.Error("Run should give up at the shutdown deadline")
	}
}
