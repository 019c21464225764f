package domain

import (
	"runtime"
	"time"

	"go.trai.ch/zerr"
)

// Default limits used when a configuration value is left unset.
const (
	DefaultGraceWindow       = 5 * time.Second
	DefaultLoadTimeout       = 30 * time.Second
	DefaultChunkSize         = 64 * 1024
	DefaultBufferSize        = 8 * 1024 * 1024
	DefaultHighThreshold     = 80
	DefaultNormalThreshold   = 40
	DefaultEvictionThreshold = 0.8
)

// Config holds the runtime-tunable settings of every pipeline component.
type Config struct {
	Loader    LoaderConfig
	Cache     CacheConfig
	Streaming StreamingConfig
	Log       LogConfig
	Metrics   MetricsConfig
}

// LoaderConfig configures the loader's dispatcher and worker tiers.
type LoaderConfig struct {
	HighWorkers             int
	NormalWorkers           int
	LowWorkers              int
	MaxWorkers              int
	KeepAlive               time.Duration
	Timeout                 time.Duration
	MaxConcurrentLoads      int
	HighPriorityThreshold   int
	NormalPriorityThreshold int
	SweepInterval           time.Duration
}

// TierSize returns the worker count configured for t, capped by MaxWorkers.
func (c LoaderConfig) TierSize(t Tier) int {
	var n int
	switch t {
	case TierHigh:
		n = c.HighWorkers
	case TierNormal:
		n = c.NormalWorkers
	default:
		n = c.LowWorkers
	}
	if c.MaxWorkers > 0 {
		n = min(n, c.MaxWorkers)
	}
	return n
}

// CacheConfig configures the cache ceilings and eviction policy.
type CacheConfig struct {
	MaxMemory         int64
	MaxEntries        int
	EvictionThreshold float64
	GraceWindow       time.Duration
}

// StreamingConfig configures chunking, transport selection and bandwidth.
type StreamingConfig struct {
	ChunkSize            int
	BufferSize           int64
	BandwidthLimit       int64
	MaxConcurrentStreams int
}

// LogConfig configures the logger.
type LogConfig struct {
	Level string
}

// MetricsConfig configures the HTTP statistics surface.
type MetricsConfig struct {
	Addr string
}

// DefaultConfig returns the settings used when no configuration file is present.
func DefaultConfig() Config {
	cpus := runtime.NumCPU()
	return Config{
		Loader: LoaderConfig{
			HighWorkers:             max(2, cpus/2),
			NormalWorkers:           max(2, cpus/2),
			LowWorkers:              max(1, cpus/4),
			MaxWorkers:              cpus * 2,
			KeepAlive:               60 * time.Second,
			Timeout:                 DefaultLoadTimeout,
			MaxConcurrentLoads:      cpus * 2,
			HighPriorityThreshold:   DefaultHighThreshold,
			NormalPriorityThreshold: DefaultNormalThreshold,
			SweepInterval:           5 * time.Second,
		},
		Cache: CacheConfig{
			MaxMemory:         512 * 1024 * 1024,
			MaxEntries:        4096,
			EvictionThreshold: DefaultEvictionThreshold,
			GraceWindow:       DefaultGraceWindow,
		},
		Streaming: StreamingConfig{
			ChunkSize:            DefaultChunkSize,
			BufferSize:           DefaultBufferSize,
			BandwidthLimit:       0,
			MaxConcurrentStreams: 4,
		},
		Log: LogConfig{Level: "info"},
		Metrics: MetricsConfig{
			Addr: "127.0.0.1:9464",
		},
	}
}

// Validate checks that every limit is in range.
func (c Config) Validate() error {
	checks := []struct {
		ok  bool
		key string
		val any
	}{
		{c.Loader.HighWorkers > 0, "loader.high_workers", c.Loader.HighWorkers},
		{c.Loader.NormalWorkers > 0, "loader.normal_workers", c.Loader.NormalWorkers},
		{c.Loader.LowWorkers > 0, "loader.low_workers", c.Loader.LowWorkers},
		{c.Loader.MaxWorkers >= 0, "loader.max_workers", c.Loader.MaxWorkers},
		{c.Loader.Timeout > 0, "loader.timeout", c.Loader.Timeout},
		{c.Loader.MaxConcurrentLoads > 0, "loader.max_concurrent_loads", c.Loader.MaxConcurrentLoads},
		{
			c.Loader.HighPriorityThreshold > c.Loader.NormalPriorityThreshold,
			"loader.high_priority_threshold", c.Loader.HighPriorityThreshold,
		},
		{c.Loader.SweepInterval > 0, "loader.sweep_interval", c.Loader.SweepInterval},
		{c.Cache.MaxMemory > 0, "cache.max_memory", c.Cache.MaxMemory},
		{c.Cache.MaxEntries > 0, "cache.max_entries", c.Cache.MaxEntries},
		{
			c.Cache.EvictionThreshold > 0 && c.Cache.EvictionThreshold <= 1,
			"cache.eviction_threshold", c.Cache.EvictionThreshold,
		},
		{c.Cache.GraceWindow >= 0, "cache.grace_window", c.Cache.GraceWindow},
		{c.Streaming.ChunkSize > 0, "streaming.chunk_size", c.Streaming.ChunkSize},
		{c.Streaming.BufferSize > 0, "streaming.buffer_size", c.Streaming.BufferSize},
		{c.Streaming.BandwidthLimit >= 0, "streaming.bandwidth_limit", c.Streaming.BandwidthLimit},
		{c.Streaming.MaxConcurrentStreams > 0, "streaming.max_concurrent_streams", c.Streaming.MaxConcurrentStreams},
	}
	for _, check := range checks {
		if !check.ok {
			return zerr.With(zerr.Wrap(ErrInvalidConfig, "value out of range"), check.key, check.val)
		}
	}
	return nil
}
