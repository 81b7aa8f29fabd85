// Package observability aggregates the Prometheus metric collectors
// behind a single registry.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vireolabs/machinevision/internal/observability/metrics"
)

// Metrics holds all metric collectors registered on one registry.
type Metrics struct {
	registry *prometheus.Registry

	Datastore *metrics.DatastoreMetrics
	Labeling  *metrics.LabelingMetrics
}

// NewMetrics creates a registry and registers all collectors on it.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	datastoreMetrics, err := metrics.NewDatastoreMetrics(registry)
	if err != nil {
		return nil, err
	}
	labelingMetrics, err := metrics.NewLabelingMetrics(registry)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		registry:  registry,
		Datastore: datastoreMetrics,
		Labeling:  labelingMetrics,
	}, nil
}

// Registry returns the underlying registry for gathering or exposition.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
