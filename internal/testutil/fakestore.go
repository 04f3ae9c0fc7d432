// Package testutil provides test infrastructure for unit and integration testing.
// It includes a fault-injecting store, fixtures, and helpers that other
// packages use for testing.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/npratt/phasegraph/internal/graph"
	"github.com/npratt/phasegraph/internal/store"
)

// Store operation names recorded in StoreCall.Op.
const (
	OpFetchAll   = "fetch_all"
	OpReplaceAll = "replace_all"
	OpDeleteOne  = "delete_one"
)

// StoreCall records a store invocation for assertion purposes.
type StoreCall struct {
	Op    string
	ID    string       // DeleteOne only
	Nodes []graph.Node // ReplaceAll only
}

// FakeStore is an in-memory store.Store that records every call and can be
// told to fail individual operations.
type FakeStore struct {
	mu     sync.Mutex
	nodes  []graph.Node
	Errors map[string]error
	Calls  []StoreCall

	// Hook, when set, runs before each operation and may block to let a test
	// control interleaving.
	Hook func(op string)
}

// NewFakeStore creates a FakeStore seeded with nodes.
func NewFakeStore(nodes ...graph.Node) *FakeStore {
	return &FakeStore{
		nodes:  cloneNodes(nodes),
		Errors: make(map[string]error),
	}
}

// SetError makes every call to op fail with err. A nil err clears it.
func (f *FakeStore) SetError(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.Errors, op)
		return
	}
	f.Errors[op] = err
}

func (f *FakeStore) begin(call StoreCall) error {
	if f.Hook != nil {
		f.Hook(call.Op)
	}
	f.mu.Lock()
	f.Calls = append(f.Calls, call)
	return f.Errors[call.Op]
}

func (f *FakeStore) FetchAll(ctx context.Context) ([]graph.Node, error) {
	err := f.begin(StoreCall{Op: OpFetchAll})
	defer f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return cloneNodes(f.nodes), nil
}

func (f *FakeStore) ReplaceAll(ctx context.Context, nodes []graph.Node) error {
	err := f.begin(StoreCall{Op: OpReplaceAll, Nodes: cloneNodes(nodes)})
	defer f.mu.Unlock()
	if err != nil {
		return err
	}
	f.nodes = cloneNodes(nodes)
	return nil
}

func (f *FakeStore) DeleteOne(ctx context.Context, id string) error {
	err := f.begin(StoreCall{Op: OpDeleteOne, ID: id})
	defer f.mu.Unlock()
	if err != nil {
		return err
	}
	for i, n := range f.nodes {
		if n.ID == id {
			f.nodes = append(f.nodes[:i:i], f.nodes[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", store.ErrNotFound, id)
}

func (f *FakeStore) Close() error {
	return nil
}

// Nodes returns a copy of the stored collection.
func (f *FakeStore) Nodes() []graph.Node {
	f.mu.Lock()
	defer f.mu.Unlock()
	return cloneNodes(f.nodes)
}

// GetCalls returns a copy of all recorded calls.
func (f *FakeStore) GetCalls() []StoreCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make([]StoreCall, len(f.Calls))
	copy(result, f.Calls)
	return result
}

// Reset clears all recorded calls.
func (f *FakeStore) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = nil
}

func cloneNodes(nodes []graph.Node) []graph.Node {
	out := make([]graph.Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}
