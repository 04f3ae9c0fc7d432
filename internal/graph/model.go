package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// IDFunc mints identifiers for new nodes.
type IDFunc func() string

// Model holds the ordered node collection. It is owned by a single event loop
// and is not safe for concurrent use; callers hand snapshots (Nodes) to
// background work instead of sharing the Model.
type Model struct {
	nodes []Node
	newID IDFunc
}

// Option configures a Model.
type Option func(*Model)

// WithIDFunc overrides the id generator (default: random UUIDs).
func WithIDFunc(fn IDFunc) Option {
	return func(m *Model) {
		if fn != nil {
			m.newID = fn
		}
	}
}

// NewModel creates an empty Model.
func NewModel(opts ...Option) *Model {
	m := &Model{
		newID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Add validates input and appends a new node. On any error the collection is
// left untouched.
func (m *Model) Add(in NodeInput) (Node, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Node{}, ErrEmptyName
	}

	key := nameKey(name)
	for _, n := range m.nodes {
		if nameKey(n.Name) == key {
			return Node{}, fmt.Errorf("%w: %q", ErrDuplicateName, name)
		}
	}

	maxPhase := m.MaxAssignablePhase()
	if in.Phase < 1 || in.Phase > maxPhase {
		return Node{}, fmt.Errorf("%w: %d (allowed 1..%d)", ErrPhaseOutOfRange, in.Phase, maxPhase)
	}

	node := Node{
		ID:         m.newID(),
		Name:       name,
		Phase:      in.Phase,
		ParentIDs:  []string{},
		Categories: []Category{},
	}

	// Phase 1 nodes never carry parents or tags.
	if in.Phase > 1 {
		parents, err := m.resolveParents(in.ParentIDs, in.Phase)
		if err != nil {
			return Node{}, err
		}
		cats, err := dedupeCategories(in.Categories)
		if err != nil {
			return Node{}, err
		}
		node.ParentIDs = parents
		node.Categories = cats
	}

	m.nodes = append(m.nodes, node)
	return node.Clone(), nil
}

// resolveParents checks every requested parent exists in an earlier phase and
// drops duplicates while keeping the requested order.
func (m *Model) resolveParents(ids []string, phase int) ([]string, error) {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true

		parent, ok := m.Lookup(id)
		if !ok {
			return nil, fmt.Errorf("%w: %q does not exist", ErrInvalidParent, id)
		}
		if parent.Phase >= phase {
			return nil, fmt.Errorf("%w: %q is in phase %d, child is in phase %d",
				ErrInvalidParent, parent.Name, parent.Phase, phase)
		}
		out = append(out, id)
	}
	return out, nil
}

// dedupeCategories validates tags and collapses repeats.
func dedupeCategories(cats []Category) ([]Category, error) {
	out := make([]Category, 0, len(cats))
	seen := make(map[Category]bool, len(cats))
	for _, c := range cats {
		if !c.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, string(c))
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out, nil
}

// Remove deletes the node with the given id. Children keep the id in their
// ParentIDs. Returns false when no such node exists.
func (m *Model) Remove(id string) bool {
	for i, n := range m.nodes {
		if n.ID == id {
			m.nodes = append(m.nodes[:i:i], m.nodes[i+1:]...)
			return true
		}
	}
	return false
}

// Replace installs a collection loaded from the store. Stored data is trusted:
// it is not re-validated and dangling parent ids are kept.
func (m *Model) Replace(nodes []Node) {
	m.nodes = make([]Node, 0, len(nodes))
	for _, n := range nodes {
		m.nodes = append(m.nodes, n.Clone())
	}
}

// Lookup returns the node with the given id, if present.
func (m *Model) Lookup(id string) (Node, bool) {
	for _, n := range m.nodes {
		if n.ID == id {
			return n.Clone(), true
		}
	}
	return Node{}, false
}

// FindByName returns the node whose name matches case-insensitively.
func (m *Model) FindByName(name string) (Node, bool) {
	key := nameKey(name)
	for _, n := range m.nodes {
		if nameKey(n.Name) == key {
			return n.Clone(), true
		}
	}
	return Node{}, false
}

// Nodes returns a copy of the collection in insertion order.
func (m *Model) Nodes() []Node {
	out := make([]Node, len(m.nodes))
	for i, n := range m.nodes {
		out[i] = n.Clone()
	}
	return out
}

// IDs returns node ids in insertion order.
func (m *Model) IDs() []string {
	ids := make([]string, len(m.nodes))
	for i, n := range m.nodes {
		ids[i] = n.ID
	}
	return ids
}

// Len returns the number of nodes.
func (m *Model) Len() int {
	return len(m.nodes)
}

// ListByPhase groups nodes by phase, preserving insertion order within a phase.
func (m *Model) ListByPhase() map[int][]Node {
	return GroupByPhase(m.nodes)
}

// Phases returns the distinct phases present, ascending.
func (m *Model) Phases() []int {
	return SortedPhases(m.ListByPhase())
}

// MaxAssignablePhase returns one past the highest phase present, or 1 when
// the collection is empty. New nodes may use any phase up to this value.
func (m *Model) MaxAssignablePhase() int {
	highest := 0
	for _, n := range m.nodes {
		if n.Phase > highest {
			highest = n.Phase
		}
	}
	return highest + 1
}

// EligibleParents returns nodes in phases strictly before phase.
func (m *Model) EligibleParents(phase int) []Node {
	var out []Node
	for _, n := range m.nodes {
		if n.Phase < phase {
			out = append(out, n.Clone())
		}
	}
	return out
}

// GroupByPhase groups nodes by phase, preserving slice order within a phase.
func GroupByPhase(nodes []Node) map[int][]Node {
	grouped := make(map[int][]Node)
	for _, n := range nodes {
		grouped[n.Phase] = append(grouped[n.Phase], n.Clone())
	}
	return grouped
}

// SortedPhases returns the keys of a phase grouping in ascending order.
func SortedPhases(groups map[int][]Node) []int {
	phases := make([]int, 0, len(groups))
	for p := range groups {
		phases = append(phases, p)
	}
	sort.Ints(phases)
	return phases
}
