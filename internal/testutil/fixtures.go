package testutil

import (
	"fmt"

	"github.com/npratt/phasegraph/internal/graph"
)

// Fixed node ids used across fixtures.
const (
	ResearchID = "node-research"
	BuildID    = "node-build"
	ReviewID   = "node-review"
	ShipID     = "node-ship"
)

// ResearchNode is a phase-1 root.
func ResearchNode() graph.Node {
	return graph.Node{ID: ResearchID, Name: "Research", Phase: 1, ParentIDs: []string{}, Categories: []graph.Category{}}
}

// BuildNode is a phase-2 child of Research.
func BuildNode() graph.Node {
	return graph.Node{
		ID:         BuildID,
		Name:       "Build",
		Phase:      2,
		ParentIDs:  []string{ResearchID},
		Categories: []graph.Category{graph.CategoryCreation},
	}
}

// ReviewNode is a second phase-2 child of Research.
func ReviewNode() graph.Node {
	return graph.Node{
		ID:         ReviewID,
		Name:       "Review",
		Phase:      2,
		ParentIDs:  []string{ResearchID},
		Categories: []graph.Category{graph.CategoryScore},
	}
}

// ShipNode is a phase-3 node with two parents.
func ShipNode() graph.Node {
	return graph.Node{
		ID:         ShipID,
		Name:       "Ship",
		Phase:      3,
		ParentIDs:  []string{BuildID, ReviewID},
		Categories: []graph.Category{graph.CategoryStrategy, graph.CategoryScore},
	}
}

// SampleGraph is a four-node graph spanning three phases.
func SampleGraph() []graph.Node {
	return []graph.Node{ResearchNode(), BuildNode(), ReviewNode(), ShipNode()}
}

// SampleGraphJSON is SampleGraph as returned by GET /api/nodes.
var SampleGraphJSON = `[
  {"id":"node-research","name":"Research","phase":1,"parentIds":[],"categories":[]},
  {"id":"node-build","name":"Build","phase":2,"parentIds":["node-research"],"categories":["Creation"]},
  {"id":"node-review","name":"Review","phase":2,"parentIds":["node-research"],"categories":["Score"]},
  {"id":"node-ship","name":"Ship","phase":3,"parentIds":["node-build","node-review"],"categories":["Strategy","Score"]}
]`

// SequentialIDs returns an id generator producing prefix-1, prefix-2, ...
func SequentialIDs(prefix string) graph.IDFunc {
	next := 0
	return func() string {
		next++
		return fmt.Sprintf("%s-%d", prefix, next)
	}
}
