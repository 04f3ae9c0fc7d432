package store

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/npratt/phasegraph/internal/graph"
)

// Row is the persisted form of a node. Set-valued fields are stored as JSON
// text so every backend can keep them in a single column or value.
type Row struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Phase      int    `json:"phase"`
	Categories string `json:"categories"`
	ParentIDs  string `json:"parent_ids"`
	Seq        int    `json:"seq"`
}

// EncodeRow converts a node to its persisted row at position seq.
func EncodeRow(n graph.Node, seq int) (Row, error) {
	n = n.Clone()
	cats, err := json.Marshal(n.Categories)
	if err != nil {
		return Row{}, fmt.Errorf("store: encode categories for %q: %w", n.ID, err)
	}
	parents, err := json.Marshal(n.ParentIDs)
	if err != nil {
		return Row{}, fmt.Errorf("store: encode parent ids for %q: %w", n.ID, err)
	}
	return Row{
		ID:         n.ID,
		Name:       n.Name,
		Phase:      n.Phase,
		Categories: string(cats),
		ParentIDs:  string(parents),
		Seq:        seq,
	}, nil
}

// DecodeRow converts a persisted row back to a node. Empty or NULL set
// columns decode to empty sets.
func DecodeRow(r Row) (graph.Node, error) {
	n := graph.Node{
		ID:         r.ID,
		Name:       r.Name,
		Phase:      r.Phase,
		ParentIDs:  []string{},
		Categories: []graph.Category{},
	}
	if err := decodeList(r.ParentIDs, &n.ParentIDs); err != nil {
		return graph.Node{}, fmt.Errorf("store: decode parent ids for %q: %w", r.ID, err)
	}
	if err := decodeList(r.Categories, &n.Categories); err != nil {
		return graph.Node{}, fmt.Errorf("store: decode categories for %q: %w", r.ID, err)
	}
	return n.Clone(), nil
}

func decodeList[T any](text string, out *[]T) error {
	text = strings.TrimSpace(text)
	if text == "" || text == "null" {
		return nil
	}
	return json.Unmarshal([]byte(text), out)
}
