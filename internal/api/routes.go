package api

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes registers the node endpoints on rg.
//
//	GET    /nodes      list all nodes
//	POST   /nodes      replace all nodes
//	DELETE /nodes/:id  delete one node
func RegisterRoutes(rg *gin.RouterGroup, h *Handler) {
	nodes := rg.Group("/nodes")
	nodes.GET("", h.HandleList)
	nodes.POST("", h.HandleReplace)
	nodes.DELETE("/:id", h.HandleDelete)
}

// NewRouter builds the engine served by `phasegraph serve --http-addr`.
// A nil gatherer serves the default Prometheus registry.
func NewRouter(h *Handler, gatherer prometheus.Gatherer) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(h.logger))

	router.GET("/healthz", h.HandleHealth)
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	RegisterRoutes(router.Group("/api"), h)
	return router
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}
