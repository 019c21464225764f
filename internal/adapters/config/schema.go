package config

import (
	"time"

	"go.trai.ch/assetpipe/internal/core/domain"
)

// Duration decodes Go duration strings such as "30s" or "1m30s".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// File is the on-disk configuration document. Every key is optional; an
// absent key keeps the default.
type File struct {
	Loader    LoaderDTO    `yaml:"loader" toml:"loader" json:"loader"`
	Cache     CacheDTO     `yaml:"cache" toml:"cache" json:"cache"`
	Streaming StreamingDTO `yaml:"streaming" toml:"streaming" json:"streaming"`
	Log       LogDTO       `yaml:"log" toml:"log" json:"log"`
	Metrics   MetricsDTO   `yaml:"metrics" toml:"metrics" json:"metrics"`
}

// LoaderDTO represents the loader section.
type LoaderDTO struct {
	CoreWorkers             *int      `yaml:"core_workers" toml:"core_workers" json:"core_workers"`
	HighWorkers             *int      `yaml:"high_workers" toml:"high_workers" json:"high_workers"`
	NormalWorkers           *int      `yaml:"normal_workers" toml:"normal_workers" json:"normal_workers"`
	LowWorkers              *int      `yaml:"low_workers" toml:"low_workers" json:"low_workers"`
	MaxWorkers              *int      `yaml:"max_workers" toml:"max_workers" json:"max_workers"`
	KeepAlive               *Duration `yaml:"keep_alive" toml:"keep_alive" json:"keep_alive"`
	Timeout                 *Duration `yaml:"timeout" toml:"timeout" json:"timeout"`
	MaxConcurrentLoads      *int      `yaml:"max_concurrent_loads" toml:"max_concurrent_loads" json:"max_concurrent_loads"`
	HighPriorityThreshold   *int      `yaml:"high_priority_threshold" toml:"high_priority_threshold" json:"high_priority_threshold"`
	NormalPriorityThreshold *int      `yaml:"normal_priority_threshold" toml:"normal_priority_threshold" json:"normal_priority_threshold"`
	SweepInterval           *Duration `yaml:"sweep_interval" toml:"sweep_interval" json:"sweep_interval"`
}

// CacheDTO represents the cache section.
type CacheDTO struct {
	MaxMemory         *int64    `yaml:"max_memory" toml:"max_memory" json:"max_memory"`
	MaxEntries        *int      `yaml:"max_entries" toml:"max_entries" json:"max_entries"`
	EvictionThreshold *float64  `yaml:"eviction_threshold" toml:"eviction_threshold" json:"eviction_threshold"`
	GraceWindow       *Duration `yaml:"grace_window" toml:"grace_window" json:"grace_window"`
}

// StreamingDTO represents the streaming section.
type StreamingDTO struct {
	ChunkSize            *int   `yaml:"chunk_size" toml:"chunk_size" json:"chunk_size"`
	BufferSize           *int64 `yaml:"buffer_size" toml:"buffer_size" json:"buffer_size"`
	BandwidthLimit       *int64 `yaml:"bandwidth_limit" toml:"bandwidth_limit" json:"bandwidth_limit"`
	MaxConcurrentStreams *int   `yaml:"max_concurrent_streams" toml:"max_concurrent_streams" json:"max_concurrent_streams"`
}

// LogDTO represents the log section.
type LogDTO struct {
	Level *string `yaml:"level" toml:"level" json:"level"`
}

// MetricsDTO represents the metrics section.
type MetricsDTO struct {
	Addr *string `yaml:"addr" toml:"addr" json:"addr"`
}

// Apply overlays the keys present in f onto cfg.
func (f *File) Apply(cfg *domain.Config) {
	l := f.Loader
	if l.CoreWorkers != nil {
		cfg.Loader.HighWorkers = *l.CoreWorkers
		cfg.Loader.NormalWorkers = *l.CoreWorkers
		cfg.Loader.LowWorkers = *l.CoreWorkers
	}
	set(&cfg.Loader.HighWorkers, l.HighWorkers)
	set(&cfg.Loader.NormalWorkers, l.NormalWorkers)
	set(&cfg.Loader.LowWorkers, l.LowWorkers)
	set(&cfg.Loader.MaxWorkers, l.MaxWorkers)
	setDuration(&cfg.Loader.KeepAlive, l.KeepAlive)
	setDuration(&cfg.Loader.Timeout, l.Timeout)
	set(&cfg.Loader.MaxConcurrentLoads, l.MaxConcurrentLoads)
	set(&cfg.Loader.HighPriorityThreshold, l.HighPriorityThreshold)
	set(&cfg.Loader.NormalPriorityThreshold, l.NormalPriorityThreshold)
	setDuration(&cfg.Loader.SweepInterval, l.SweepInterval)

	set(&cfg.Cache.MaxMemory, f.Cache.MaxMemory)
	set(&cfg.Cache.MaxEntries, f.Cache.MaxEntries)
	set(&cfg.Cache.EvictionThreshold, f.Cache.EvictionThreshold)
	setDuration(&cfg.Cache.GraceWindow, f.Cache.GraceWindow)

	set(&cfg.Streaming.ChunkSize, f.Streaming.ChunkSize)
	set(&cfg.Streaming.BufferSize, f.Streaming.BufferSize)
	set(&cfg.Streaming.BandwidthLimit, f.Streaming.BandwidthLimit)
	set(&cfg.Streaming.MaxConcurrentStreams, f.Streaming.MaxConcurrentStreams)

	set(&cfg.Log.Level, f.Log.Level)
	set(&cfg.Metrics.Addr, f.Metrics.Addr)
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *Duration) {
	if v != nil {
		*dst = time.Duration(*v)
	}
}

// ManifestFile is the on-disk asset manifest document.
type ManifestFile struct {
	Assets map[string]AssetDTO `yaml:"assets" toml:"assets" json:"assets"`
}

// AssetDTO represents one manifest entry.
type AssetDTO struct {
	Type      string   `yaml:"type" toml:"type" json:"type"`
	Locator   string   `yaml:"locator" toml:"locator" json:"locator"`
	Priority  int      `yaml:"priority" toml:"priority" json:"priority"`
	DependsOn []string `yaml:"dependsOn" toml:"dependsOn" json:"dependsOn"`
}
