// Package store persists the node collection. Every backend implements the
// same three-operation contract: fetch everything, replace everything, delete
// one node by id.
package store

import (
	"context"
	"errors"

	"github.com/npratt/phasegraph/internal/graph"
)

var (
	// ErrNotFound is returned by DeleteOne when no node has the given id.
	ErrNotFound = errors.New("store: node not found")

	// ErrUnavailable is returned when the backend cannot be reached.
	ErrUnavailable = errors.New("store: unavailable")
)

// Store is the persistence contract used by the sync coordinator.
type Store interface {
	// FetchAll returns every stored node in the order they were saved.
	FetchAll(ctx context.Context) ([]graph.Node, error)

	// ReplaceAll atomically replaces the stored collection with nodes.
	// It never partially applies.
	ReplaceAll(ctx context.Context, nodes []graph.Node) error

	// DeleteOne removes the node with the given id, or returns ErrNotFound.
	DeleteOne(ctx context.Context, id string) error

	// Close releases backend resources.
	Close() error
}

// Driver names accepted by Open.
const (
	DriverSQLite = "sqlite"
	DriverBadger = "badger"
	DriverMemory = "memory"
	DriverRemote = "remote"
)
