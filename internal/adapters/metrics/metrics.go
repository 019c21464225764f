// Package metrics exports pipeline statistics to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.trai.ch/assetpipe/internal/engine/cache"
	"go.trai.ch/assetpipe/internal/engine/depgraph"
	"go.trai.ch/assetpipe/internal/engine/loader"
	"go.trai.ch/assetpipe/internal/engine/streamer"
)

const namespace = "assetpipe"

// Metrics owns the registry the pipeline is exported through.
type Metrics struct {
	registry *prometheus.Registry

	// ConfigReloads counts configuration reloads by status ("applied", "rejected").
	ConfigReloads *prometheus.CounterVec
}

// New creates a registry carrying the Go runtime collector, a snapshot
// collector over the engine components and the reload counter.
func New(g *depgraph.Graph, c *cache.Cache, l *loader.Loader, s *streamer.Streamer) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		NewCollector(g, c, l, s),
	)

	return &Metrics{
		registry: reg,
		ConfigReloads: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_reloads_total",
				Help:      "Total number of configuration reloads by status",
			},
			[]string{"status"}, // "applied", "rejected"
		),
	}
}

// Registry returns the registry to serve.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
