package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/npratt/phasegraph/internal/graph"
	"github.com/npratt/phasegraph/internal/store"
)

// Handler serves the /api/nodes resource from a store.
type Handler struct {
	store    store.Store
	driver   string
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates a Handler over s. A nil logger uses slog.Default().
func NewHandler(s store.Store, driver string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		store:    s,
		driver:   driver,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

// HandleList handles GET /api/nodes.
//
// Response:
//
//	200 OK: []graph.Node in persisted order
//	500 Internal Server Error: store failure
func (h *Handler) HandleList(c *gin.Context) {
	nodes, err := h.store.FetchAll(c.Request.Context())
	if err != nil {
		h.logger.Error("fetch nodes failed", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: err.Error(),
			Code:  CodeStoreError,
		})
		return
	}
	if nodes == nil {
		nodes = []graph.Node{}
	}
	c.JSON(http.StatusOK, nodes)
}

// HandleReplace handles POST /api/nodes. The body replaces the whole
// persisted collection.
//
// Response:
//
//	200 OK: MessageResponse with the stored count
//	400 Bad Request: malformed JSON or an invalid element
//	500 Internal Server Error: store failure
func (h *Handler) HandleReplace(c *gin.Context) {
	var payload []nodePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.logger.Warn("invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "request body must be a JSON array of nodes",
			Code:  CodeInvalidRequest,
		})
		return
	}

	nodes := make([]graph.Node, 0, len(payload))
	for i, p := range payload {
		if err := h.validate.Struct(p); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error: fmt.Sprintf("node %d: %s", i, describe(err)),
				Code:  CodeValidation,
			})
			return
		}
		nodes = append(nodes, p.toNode())
	}

	if err := h.store.ReplaceAll(c.Request.Context(), nodes); err != nil {
		h.logger.Error("replace nodes failed", "error", err, "count", len(nodes))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: err.Error(),
			Code:  CodeStoreError,
		})
		return
	}

	h.logger.Info("nodes replaced", "count", len(nodes))
	c.JSON(http.StatusOK, MessageResponse{Message: "nodes saved", Count: len(nodes)})
}

// HandleDelete handles DELETE /api/nodes/:id.
//
// Response:
//
//	200 OK: MessageResponse
//	404 Not Found: no row with that id
//	500 Internal Server Error: store failure
func (h *Handler) HandleDelete(c *gin.Context) {
	id := c.Param("id")

	err := h.store.DeleteOne(c.Request.Context(), id)
	switch {
	case err == nil:
		h.logger.Info("node deleted", "id", id)
		c.JSON(http.StatusOK, MessageResponse{Message: "node deleted"})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: fmt.Sprintf("node %s not found", id),
			Code:  CodeNotFound,
		})
	default:
		h.logger.Error("delete node failed", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: err.Error(),
			Code:  CodeStoreError,
		})
	}
}

// HandleHealth handles GET /healthz.
func (h *Handler) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok", Driver: h.driver})
}

// describe flattens validator errors into one line.
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	if fe.Param() != "" {
		return fmt.Sprintf("field %s failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("field %s failed %s", fe.Namespace(), fe.Tag())
}
