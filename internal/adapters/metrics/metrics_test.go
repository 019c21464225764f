package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/assetpipe/internal/adapters/fs"
	"go.trai.ch/assetpipe/internal/adapters/metrics"
	"go.trai.ch/assetpipe/internal/adapters/telemetry"
	"go.trai.ch/assetpipe/internal/core/domain"
	"go.trai.ch/assetpipe/internal/core/ports/mocks"
	"go.trai.ch/assetpipe/internal/engine/cache"
	"go.trai.ch/assetpipe/internal/engine/depgraph"
	"go.trai.ch/assetpipe/internal/engine/loader"
	"go.trai.ch/assetpipe/internal/engine/streamer"
	"go.uber.org/mock/gomock"
)

type sized struct {
	id   domain.Identity
	size int64
}

func (a sized) ID() domain.Identity { return a.id }
func (a sized) Footprint() int64    { return a.size }
func (a sized) Dispose() error      { return nil }

func newMetrics(t *testing.T) (*metrics.Metrics, *depgraph.Graph, *cache.Cache) {
	t.Helper()
	log := mocks.NewMockLogger(gomock.NewController(t))
	cfg := domain.DefaultConfig()
	cfg.Loader.SweepInterval = time.Hour

	g := depgraph.New(log)
	c := cache.New(cfg.Cache, log)
	l := loader.New(cfg.Loader, log, telemetry.NewNoOpTracer())
	s := streamer.New(cfg.Streaming, fs.NewOpener(t.TempDir()), log, telemetry.NewNoOpTracer())
	t.Cleanup(func() {
		s.Close()
		l.Close()
	})
	return metrics.New(g, c, l, s), g, c
}

func TestMetrics_Gather(t *testing.T) {
	m, g, c := newMetrics(t)

	require.NoError(t, g.AddDependency(domain.NewIdentity("hero"), domain.NewIdentity("skin")))
	require.NoError(t, c.Put(sized{id: domain.NewIdentity("skin"), size: 4096}))
	c.Get(domain.NewIdentity("skin"))
	c.Get(domain.NewIdentity("missing"))

	mfs, err := m.Registry().Gather()
	require.NoError(t, err)

	values := make(map[string]float64)
	for _, mf := range mfs {
		for _, metric := range mf.GetMetric() {
			key := mf.GetName()
			for _, lp := range metric.GetLabel() {
				key += "/" + lp.GetValue()
			}
			switch {
			case metric.GetGauge() != nil:
				values[key] = metric.GetGauge().GetValue()
			case metric.GetCounter() != nil:
				values[key] = metric.GetCounter().GetValue()
			}
		}
	}

	assert.Equal(t, 1.0, values["assetpipe_cache_entries"])
	assert.Equal(t, 4096.0, values["assetpipe_cache_memory_bytes"])
	assert.Equal(t, 1.0, values["assetpipe_cache_lookups_total/hit"])
	assert.Equal(t, 1.0, values["assetpipe_cache_lookups_total/miss"])
	assert.Equal(t, 2.0, values["assetpipe_graph_nodes"])
	assert.Equal(t, 1.0, values["assetpipe_graph_edges"])
	assert.Equal(t, 0.0, values["assetpipe_loader_loads_total/submitted"])
	assert.Contains(t, values, "assetpipe_loader_active/high")
	assert.Contains(t, values, "assetpipe_streamer_active_sessions")
}

func TestMetrics_ConfigReloads(t *testing.T) {
	m, _, _ := newMetrics(t)

	m.ConfigReloads.WithLabelValues("applied").Inc()
	m.ConfigReloads.WithLabelValues("applied").Inc()
	m.ConfigReloads.WithLabelValues("rejected").Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ConfigReloads.WithLabelValues("applied")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConfigReloads.WithLabelValues("rejected")))
}

func TestCollector_Lint(t *testing.T) {
	_, g, c := newMetrics(t)
	log := mocks.NewMockLogger(gomock.NewController(t))
	cfg := domain.DefaultConfig()
	l := loader.New(cfg.Loader, log, telemetry.NewNoOpTracer())
	defer l.Close()
	s := streamer.New(cfg.Streaming, fs.NewOpener(""), log, telemetry.NewNoOpTracer())
	defer s.Close()

	problems, err := testutil.CollectAndLint(metrics.NewCollector(g, c, l, s))
	require.NoError(t, err)
	assert.Empty(t, problems)
}
