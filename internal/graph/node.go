// Package graph provides the phased node model: node entities, category tags,
// and the validation rules that keep the parent graph acyclic by phase.
package graph

import (
	"fmt"
	"strings"
)

// Category is a tag from the fixed category set.
type Category string

const (
	// CategoryStrategy marks planning and direction-setting work.
	CategoryStrategy Category = "Strategy"
	// CategoryCreation marks work that produces an artifact.
	CategoryCreation Category = "Creation"
	// CategoryScore marks evaluation or measurement work.
	CategoryScore Category = "Score"
)

// AllCategories returns every category in display order.
func AllCategories() []Category {
	return []Category{CategoryStrategy, CategoryCreation, CategoryScore}
}

// ParseCategory converts a string to a Category, ignoring case and
// surrounding whitespace.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, c := range AllCategories() {
		if strings.EqualFold(s, string(c)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

// Valid reports whether c is a member of the category set.
func (c Category) Valid() bool {
	for _, known := range AllCategories() {
		if c == known {
			return true
		}
	}
	return false
}

// Node is a named unit of work belonging to exactly one phase.
type Node struct {
	ID         string     `json:"id" yaml:"id"`
	Name       string     `json:"name" yaml:"name"`
	Phase      int        `json:"phase" yaml:"phase"`
	ParentIDs  []string   `json:"parentIds" yaml:"parent_ids"`
	Categories []Category `json:"categories" yaml:"categories"`
}

// NodeInput is the user-supplied data for a new node.
type NodeInput struct {
	Name       string
	Phase      int
	ParentIDs  []string
	Categories []Category
}

// Clone returns a deep copy of the node.
func (n Node) Clone() Node {
	out := n
	out.ParentIDs = append([]string(nil), n.ParentIDs...)
	out.Categories = append([]Category(nil), n.Categories...)
	if out.ParentIDs == nil {
		out.ParentIDs = []string{}
	}
	if out.Categories == nil {
		out.Categories = []Category{}
	}
	return out
}

// HasParent reports whether id is among the node's declared parents.
func (n Node) HasParent(id string) bool {
	for _, p := range n.ParentIDs {
		if p == id {
			return true
		}
	}
	return false
}

// HasCategory reports whether the node carries the given tag.
func (n Node) HasCategory(c Category) bool {
	for _, have := range n.Categories {
		if have == c {
			return true
		}
	}
	return false
}

// nameKey is the comparison key used for name uniqueness.
func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
