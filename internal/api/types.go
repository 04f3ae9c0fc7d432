// Package api exposes the node store over HTTP with gin.
package api

import "github.com/npratt/phasegraph/internal/graph"

// Error codes returned in ErrorResponse.Code.
const (
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeValidation     = "VALIDATION_FAILED"
	CodeNotFound       = "NOT_FOUND"
	CodeStoreError     = "STORE_ERROR"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	// Error is the error message.
	Error string `json:"error"`

	// Code is the machine-readable error code.
	Code string `json:"code"`
}

// MessageResponse acknowledges a successful write.
type MessageResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count,omitempty"`
}

// HealthResponse is returned by GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
	Driver string `json:"driver"`
}

// nodePayload is one element of a POST /api/nodes body.
type nodePayload struct {
	ID         string   `json:"id" validate:"required"`
	Name       string   `json:"name" validate:"required"`
	Phase      int      `json:"phase" validate:"min=1"`
	ParentIDs  []string `json:"parentIds" validate:"dive,required"`
	Categories []string `json:"categories" validate:"dive,oneof=Strategy Creation Score"`
}

func (p nodePayload) toNode() graph.Node {
	n := graph.Node{
		ID:         p.ID,
		Name:       p.Name,
		Phase:      p.Phase,
		ParentIDs:  append([]string{}, p.ParentIDs...),
		Categories: make([]graph.Category, 0, len(p.Categories)),
	}
	for _, c := range p.Categories {
		n.Categories = append(n.Categories, graph.Category(c))
	}
	return n
}
