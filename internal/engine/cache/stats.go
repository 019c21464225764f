package cache

import (
	"time"

	"go.trai.ch/assetpipe/internal/core/domain"
)

// Stats is a point-in-time snapshot of cache activity.
type Stats struct {
	Entries        int
	MemoryUsed     int64
	MaxMemory      int64
	MaxEntries     int
	Hits           uint64
	Misses         uint64
	Evictions      uint64
	Rejections     uint64
	DisposeErrors  uint64
	OldestAccessed time.Duration
}

// HitRatio returns hits / (hits + misses), or 0 before the first lookup.
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Utilization returns the fraction of the memory ceiling in use.
func (s Stats) Utilization() float64 {
	if s.MaxMemory <= 0 {
		return 0
	}
	return float64(s.MemoryUsed) / float64(s.MaxMemory)
}

// EntryInfo describes one cached asset.
type EntryInfo struct {
	ID        domain.Identity
	Footprint int64
	Hits      uint64
	Idle      time.Duration
	Age       time.Duration
}

// Stats returns a snapshot of cache statistics.
func (c *Cache) Stats() Stats {
	now := c.now()

	c.mu.RLock()
	s := Stats{
		Entries:    len(c.entries),
		MemoryUsed: c.used,
		MaxMemory:  c.cfg.MaxMemory,
		MaxEntries: c.cfg.MaxEntries,
	}
	for _, e := range c.entries {
		s.OldestAccessed = max(s.OldestAccessed, e.age(now))
	}
	c.mu.RUnlock()

	s.Hits = c.hits.Load()
	s.Misses = c.misses.Load()
	s.Evictions = c.evictions.Load()
	s.Rejections = c.rejections.Load()
	s.DisposeErrors = c.disposeErrors.Load()
	return s
}

// Entries lists the cached assets, least recently used first.
func (c *Cache) Entries() []EntryInfo {
	now := c.now()

	c.mu.RLock()
	infos := make([]EntryInfo, 0, len(c.entries))
	for id, e := range c.entries {
		infos = append(infos, EntryInfo{
			ID:        id,
			Footprint: e.size,
			Hits:      e.hits.Load(),
			Idle:      e.age(now),
			Age:       now.Sub(e.created),
		})
	}
	c.mu.RUnlock()

	sortByIdle(infos)
	return infos
}
