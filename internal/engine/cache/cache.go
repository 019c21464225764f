// Package cache holds loaded assets in memory under a byte and entry ceiling,
// evicting the least recently used entries when a new asset needs room.
package cache

import (
	"sync"
	"sync/atomic"
	"time"

	"go.trai.ch/assetpipe/internal/core/domain"
	"go.trai.ch/assetpipe/internal/core/ports"
	"go.trai.ch/zerr"
)

type entry struct {
	asset      domain.Asset
	size       int64
	created    time.Time
	lastAccess atomic.Int64
	hits       atomic.Uint64
}

func (e *entry) touch(now time.Time) {
	e.lastAccess.Store(now.UnixNano())
	e.hits.Add(1)
}

// Cache is a concurrency-safe LRU store of assets.
// It owns every asset it holds and disposes them on eviction and Clear.
type Cache struct {
	mu      sync.RWMutex
	entries map[domain.Identity]*entry
	used    int64
	cfg     domain.CacheConfig

	log ports.Logger
	now func() time.Time

	hits          atomic.Uint64
	misses        atomic.Uint64
	evictions     atomic.Uint64
	rejections    atomic.Uint64
	disposeErrors atomic.Uint64
}

// New creates an empty cache with the given limits.
func New(cfg domain.CacheConfig, log ports.Logger) *Cache {
	return &Cache{
		entries: make(map[domain.Identity]*entry),
		cfg:     cfg,
		log:     log,
		now:     time.Now,
	}
}

// Get returns the asset stored under id and refreshes its recency.
func (c *Cache) Get(id domain.Identity) (domain.Asset, bool) {
	c.mu.RLock()
	e, ok := c.entries[id]
	if ok {
		e.touch(c.now())
	}
	c.mu.RUnlock()

	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return e.asset, true
}

// Contains reports whether id is cached without touching its recency.
func (c *Cache) Contains(id domain.Identity) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entries[id]
	return ok
}

// Put stores asset, evicting older entries as needed. An asset whose footprint
// exceeds the memory ceiling on its own is rejected with ErrCapacityExceeded
// and stays owned by the caller.
func (c *Cache) Put(asset domain.Asset) error {
	if asset == nil {
		return domain.ErrNilAsset
	}
	id := asset.ID()
	if id.IsZero() {
		return domain.ErrInvalidIdentity
	}
	size := max(asset.Footprint(), 0)

	c.mu.Lock()
	if size > c.cfg.MaxMemory {
		limit := c.cfg.MaxMemory
		c.mu.Unlock()
		c.rejections.Add(1)
		err := zerr.With(zerr.Wrap(domain.ErrCapacityExceeded, "asset larger than cache"), "identity", id.String())
		err = zerr.With(err, "footprint", size)
		return zerr.With(err, "max_memory", limit)
	}

	victims := c.ensureCapacity(id, size)

	now := c.now()
	e := &entry{asset: asset, size: size, created: now}
	e.lastAccess.Store(now.UnixNano())
	if old, ok := c.entries[id]; ok {
		c.used -= old.size
		if old.asset != asset {
			victims = append(victims, old.asset)
		}
	}
	c.entries[id] = e
	c.used += size
	c.mu.Unlock()

	c.dispose(victims, "replaced or evicted")
	return nil
}

// Remove unlinks id and hands the asset back to the caller without disposing it.
func (c *Cache) Remove(id domain.Identity) (domain.Asset, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	if !ok {
		return nil, false
	}
	delete(c.entries, id)
	c.used -= e.size
	return e.asset, true
}

// Clear disposes and removes every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	victims := make([]domain.Asset, 0, len(c.entries))
	for _, e := range c.entries {
		victims = append(victims, e.asset)
	}
	c.entries = make(map[domain.Identity]*entry)
	c.used = 0
	c.mu.Unlock()

	c.dispose(victims, "cleared")
}

// Len returns the number of cached assets.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Used returns the summed footprint of cached assets.
func (c *Cache) Used() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.used
}

// Reconfigure swaps the limits and evicts until the cache fits them.
func (c *Cache) Reconfigure(cfg domain.CacheConfig) {
	c.mu.Lock()
	c.cfg = cfg
	victims := c.ensureCapacity(domain.Identity{}, 0)
	c.mu.Unlock()

	c.dispose(victims, "shrunk")
}

func (c *Cache) dispose(assets []domain.Asset, reason string) {
	for _, a := range assets {
		if err := a.Dispose(); err != nil {
			c.disposeErrors.Add(1)
			c.log.Error(zerr.With(err, "identity", a.ID().String()), "reason", reason)
		}
	}
}
