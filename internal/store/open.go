package store

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
)

// Options selects and configures a local backend.
type Options struct {
	Driver string
	// Path is the database file (sqlite) or directory (badger).
	Path   string
	Logger *slog.Logger
}

// Open returns the backend named by opts.Driver. The remote driver lives in
// the daemon package and is not handled here.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case "", DriverSQLite:
		path := opts.Path
		if path == "" {
			path = filepath.Join(".phasegraph", "phasegraph.db")
		}
		return NewSQLiteStore(ctx, path)
	case DriverBadger:
		path := opts.Path
		if path == "" {
			path = filepath.Join(".phasegraph", "badger")
		}
		return NewBadgerStore(BadgerConfig{Path: path, SyncWrites: true, Logger: opts.Logger})
	case DriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("store: unknown driver %q", opts.Driver)
	}
}
