package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/npratt/phasegraph/internal/graph"
)

// MemoryStore keeps nodes in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	nodes []graph.Node
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) FetchAll(ctx context.Context) ([]graph.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(s.nodes), nil
}

func (s *MemoryStore) ReplaceAll(ctx context.Context, nodes []graph.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes = cloneAll(nodes)
	return nil
}

func (s *MemoryStore) DeleteOne(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, n := range s.nodes {
		if n.ID == id {
			s.nodes = append(s.nodes[:i:i], s.nodes[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

func (s *MemoryStore) Close() error {
	return nil
}

func cloneAll(nodes []graph.Node) []graph.Node {
	out := make([]graph.Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}
