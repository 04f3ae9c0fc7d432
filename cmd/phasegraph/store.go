package main

import (
	"context"
	"fmt"

	"github.com/npratt/phasegraph/internal/config"
	"github.com/npratt/phasegraph/internal/daemon"
	"github.com/npratt/phasegraph/internal/graph"
	"github.com/npratt/phasegraph/internal/store"
	"github.com/npratt/phasegraph/internal/syncer"
)

// openStore returns the store selected by cfg. When a store server is running
// for the project, file-backed drivers go through it instead of opening the
// database a second time.
func (a *app) openStore(ctx context.Context, cfg *config.Config, projectRoot string) (store.Store, error) {
	socket := daemon.DiscoverSocket(projectRoot, cfg.Paths.Socket)

	switch cfg.Store.Driver {
	case store.DriverRemote:
		return a.remoteStore(socket, cfg), nil
	case store.DriverSQLite, store.DriverBadger:
		if client := a.remoteStore(socket, cfg); client.IsRunning() {
			a.logger.Debug("using running store server", "socket", socket)
			return client, nil
		}
	}

	s, err := store.Open(ctx, store.Options{
		Driver: cfg.Store.Driver,
		Path:   cfg.Store.Path,
		Logger: a.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}
	a.logger.Debug("opened store", "driver", cfg.Store.Driver, "path", cfg.Store.Path)
	return s, nil
}

func (a *app) remoteStore(socket string, cfg *config.Config) *daemon.Client {
	client := daemon.NewClient(socket)
	client.SetTimeout(cfg.Store.Timeout)
	return client
}

// withStore loads config, opens the store, and hands both to fn. The store is
// closed when fn returns.
func (a *app) withStore(ctx context.Context, fn func(cfg *config.Config, s store.Store) error) error {
	cfg, projectRoot, err := a.loadConfig()
	if err != nil {
		return err
	}

	s, err := a.openStore(ctx, cfg, projectRoot)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			a.logger.Warn("close store", "error", err)
		}
	}()

	return fn(cfg, s)
}

// loadGraph fetches the stored collection into a new coordinator. A failed
// load is an error here: an empty graph must never be saved over the store.
func (a *app) loadGraph(ctx context.Context, cfg *config.Config, s store.Store) (*syncer.Coordinator, error) {
	coord := syncer.New(graph.NewModel(), s,
		syncer.WithLogger(a.logger),
		syncer.WithTimeout(cfg.Store.Timeout),
	)
	syncer.Drain(ctx, coord, coord.Load())
	if err := coord.LastError(); err != nil {
		return nil, fmt.Errorf("load graph: %w", err)
	}
	return coord, nil
}

// resolveNode finds a node by id, falling back to a name match.
func resolveNode(m *graph.Model, ref string) (graph.Node, bool) {
	if n, ok := m.Lookup(ref); ok {
		return n, true
	}
	return m.FindByName(ref)
}
