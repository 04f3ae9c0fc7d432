// Package daemon serves a node store to other processes over a Unix socket
// and provides the matching client.
package daemon

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/npratt/phasegraph/internal/store"
)

// Daemon exposes a store.Store over Unix socket RPC.
type Daemon struct {
	store     store.Store
	driver    string
	sockPath  string
	startTime time.Time
	logger    *slog.Logger
	requests  atomic.Int64

	listener net.Listener
	running  bool
	stopFunc context.CancelFunc
	inflight sync.WaitGroup
	mu       sync.RWMutex
}

// New creates a Daemon serving s on sockPath. driver is reported by status.
func New(sockPath, driver string, s store.Store, logger *slog.Logger) *Daemon {
	if logger == nil {
		logger = slog.Default()
	}
	return &Daemon{
		store:    s,
		driver:   driver,
		sockPath: sockPath,
		logger:   logger.With("component", "daemon"),
	}
}

// Running returns whether the daemon is currently running.
func (d *Daemon) Running() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.running
}

// StartTime returns when the daemon was started.
func (d *Daemon) StartTime() time.Time {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.startTime
}

// SocketPath returns the Unix socket path.
func (d *Daemon) SocketPath() string {
	return d.sockPath
}

// Requests returns the number of requests handled so far.
func (d *Daemon) Requests() int64 {
	return d.requests.Load()
}
