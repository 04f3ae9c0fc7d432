package store

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/npratt/phasegraph/internal/graph"
)

// Metrics are the Prometheus collectors recorded around store calls.
type Metrics struct {
	Operations *prometheus.CounterVec
	Latency    *prometheus.HistogramVec
}

// NewMetrics registers the store collectors with reg. A nil reg uses the
// default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		Operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "phasegraph_store_operations_total",
			Help: "Store operations by operation and result",
		}, []string{"op", "result"}),
		Latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "phasegraph_store_operation_seconds",
			Help:    "Store operation latency",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"op"}),
	}
}

type instrumented struct {
	next    Store
	metrics *Metrics
}

// Instrument wraps s so every call is counted and timed.
func Instrument(s Store, m *Metrics) Store {
	return &instrumented{next: s, metrics: m}
}

func (i *instrumented) observe(op string, start time.Time, err error) {
	i.metrics.Latency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	i.metrics.Operations.WithLabelValues(op, resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}

func (i *instrumented) FetchAll(ctx context.Context) ([]graph.Node, error) {
	start := time.Now()
	nodes, err := i.next.FetchAll(ctx)
	i.observe("fetch_all", start, err)
	return nodes, err
}

func (i *instrumented) ReplaceAll(ctx context.Context, nodes []graph.Node) error {
	start := time.Now()
	err := i.next.ReplaceAll(ctx, nodes)
	i.observe("replace_all", start, err)
	return err
}

func (i *instrumented) DeleteOne(ctx context.Context, id string) error {
	start := time.Now()
	err := i.next.DeleteOne(ctx, id)
	i.observe("delete_one", start, err)
	return err
}

func (i *instrumented) Close() error {
	return i.next.Close()
}
