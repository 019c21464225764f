package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.trai.ch/assetpipe/internal/engine/cache"
	"go.trai.ch/assetpipe/internal/engine/depgraph"
	"go.trai.ch/assetpipe/internal/engine/loader"
	"go.trai.ch/assetpipe/internal/engine/streamer"
)

var _ prometheus.Collector = (*Collector)(nil)

// Collector turns the components' Stats snapshots into metrics at scrape time.
type Collector struct {
	graph    *depgraph.Graph
	cache    *cache.Cache
	loader   *loader.Loader
	streamer *streamer.Streamer

	loads         *prometheus.Desc
	dedupHits     *prometheus.Desc
	queued        *prometheus.Desc
	active        *prometheus.Desc
	workers       *prometheus.Desc
	avgLoad       *prometheus.Desc
	cacheEntries  *prometheus.Desc
	cacheBytes    *prometheus.Desc
	cacheMax      *prometheus.Desc
	cacheLookups  *prometheus.Desc
	cacheEvicted  *prometheus.Desc
	cacheRejected *prometheus.Desc
	graphNodes    *prometheus.Desc
	graphEdges    *prometheus.Desc
	graphCycles   *prometheus.Desc
	resolutions   *prometheus.Desc
	sessions      *prometheus.Desc
	streamActive  *prometheus.Desc
	streamBytes   *prometheus.Desc
	streamChunks  *prometheus.Desc
	throttled     *prometheus.Desc
	throttleTime  *prometheus.Desc
}

func desc(subsystem, name, help string, labels ...string) *prometheus.Desc {
	return prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystem, name), help, labels, nil)
}

// NewCollector creates a Collector over the given components.
func NewCollector(g *depgraph.Graph, c *cache.Cache, l *loader.Loader, s *streamer.Streamer) *Collector {
	return &Collector{
		graph:    g,
		cache:    c,
		loader:   l,
		streamer: s,

		loads:         desc("loader", "loads_total", "Loads by outcome", "outcome"),
		dedupHits:     desc("loader", "dedup_hits_total", "Submissions answered by an in-flight load"),
		queued:        desc("loader", "queued", "Loads waiting for a worker"),
		active:        desc("loader", "active", "Loads running per tier", "tier"),
		workers:       desc("loader", "workers", "Live worker goroutines"),
		avgLoad:       desc("loader", "average_load_seconds", "Average duration of successful loads"),
		cacheEntries:  desc("cache", "entries", "Cached assets"),
		cacheBytes:    desc("cache", "memory_bytes", "Estimated memory held by cached assets"),
		cacheMax:      desc("cache", "memory_limit_bytes", "Configured memory ceiling"),
		cacheLookups:  desc("cache", "lookups_total", "Cache lookups by result", "result"),
		cacheEvicted:  desc("cache", "evictions_total", "Assets evicted to make room"),
		cacheRejected: desc("cache", "rejections_total", "Assets rejected as larger than the ceiling"),
		graphNodes:    desc("graph", "nodes", "Dependency graph nodes"),
		graphEdges:    desc("graph", "edges", "Dependency graph edges"),
		graphCycles:   desc("graph", "cycles_detected_total", "Edges that closed a cycle"),
		resolutions:   desc("graph", "resolutions_total", "Dependency resolutions performed"),
		sessions:      desc("streamer", "sessions_total", "Streaming sessions by outcome", "outcome"),
		streamActive:  desc("streamer", "active_sessions", "Streaming sessions in progress"),
		streamBytes:   desc("streamer", "bytes_total", "Bytes delivered to stream callbacks"),
		streamChunks:  desc("streamer", "chunks_total", "Chunks delivered to stream callbacks"),
		throttled:     desc("streamer", "throttle_events_total", "Chunks delayed by the bandwidth ceiling"),
		throttleTime:  desc("streamer", "throttle_seconds_total", "Time producers slept for the bandwidth ceiling"),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	prometheus.DescribeByCollect(c, ch)
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	counter := func(d *prometheus.Desc, v float64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, v, labels...)
	}
	gauge := func(d *prometheus.Desc, v float64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v, labels...)
	}

	ls := c.loader.Stats()
	counter(c.loads, float64(ls.Submitted), "submitted")
	counter(c.loads, float64(ls.Completed), "completed")
	counter(c.loads, float64(ls.Failed), "failed")
	counter(c.loads, float64(ls.Cancelled), "cancelled")
	counter(c.loads, float64(ls.TimedOut), "timed_out")
	counter(c.dedupHits, float64(ls.DedupHits))
	gauge(c.queued, float64(ls.Queued))
	for tier, n := range ls.TierActive {
		gauge(c.active, float64(n), tier)
	}
	gauge(c.workers, float64(ls.Workers))
	gauge(c.avgLoad, ls.AverageLoadTime.Seconds())

	cs := c.cache.Stats()
	gauge(c.cacheEntries, float64(cs.Entries))
	gauge(c.cacheBytes, float64(cs.MemoryUsed))
	gauge(c.cacheMax, float64(cs.MaxMemory))
	counter(c.cacheLookups, float64(cs.Hits), "hit")
	counter(c.cacheLookups, float64(cs.Misses), "miss")
	counter(c.cacheEvicted, float64(cs.Evictions))
	counter(c.cacheRejected, float64(cs.Rejections))

	gs := c.graph.Stats()
	gauge(c.graphNodes, float64(gs.Nodes))
	gauge(c.graphEdges, float64(gs.Edges))
	counter(c.graphCycles, float64(gs.CyclesDetected))
	counter(c.resolutions, float64(gs.Resolutions))

	ss := c.streamer.Stats()
	counter(c.sessions, float64(ss.SessionsStarted), "started")
	counter(c.sessions, float64(ss.SessionsCompleted), "completed")
	counter(c.sessions, float64(ss.SessionsFailed), "failed")
	counter(c.sessions, float64(ss.SessionsCancelled), "cancelled")
	gauge(c.streamActive, float64(ss.ActiveSessions))
	counter(c.streamBytes, float64(ss.BytesDelivered))
	counter(c.streamChunks, float64(ss.ChunksDelivered))
	counter(c.throttled, float64(ss.ThrottleEvents))
	counter(c.throttleTime, ss.ThrottleTime.Seconds())
}
