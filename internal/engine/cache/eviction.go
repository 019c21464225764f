package cache

import (
	"cmp"
	"slices"
	"time"

	"go.trai.ch/assetpipe/internal/core/domain"
)

type candidate struct {
	id         domain.Identity
	size       int64
	lastAccess int64
}

// ensureCapacity unlinks least recently used entries until an asset of the
// given size stored under incoming fits both ceilings. An entry already stored
// under incoming is accounted as freed and never picked. Entries touched within
// the grace window are only taken when older ones do not free enough.
// Caller must hold mu for writing; the returned assets must be disposed after
// it is released.
func (c *Cache) ensureCapacity(incoming domain.Identity, size int64) []domain.Asset {
	used := c.used
	count := len(c.entries)
	if old, ok := c.entries[incoming]; ok {
		used -= old.size
		count--
	}
	if !incoming.IsZero() {
		count++
	}

	fits := func() bool {
		return used+size <= c.cfg.MaxMemory && count <= c.cfg.MaxEntries
	}
	if fits() {
		return nil
	}

	candidates := make([]candidate, 0, len(c.entries))
	for id, e := range c.entries {
		if id == incoming {
			continue
		}
		candidates = append(candidates, candidate{id: id, size: e.size, lastAccess: e.lastAccess.Load()})
	}
	slices.SortFunc(candidates, func(a, b candidate) int {
		return cmp.Or(cmp.Compare(a.lastAccess, b.lastAccess), a.id.Compare(b.id))
	})

	graceCutoff := c.now().Add(-c.cfg.GraceWindow).UnixNano()
	var victims []domain.Asset
	taken := make([]bool, len(candidates))

	evict := func(skipRecent bool) {
		for i, cand := range candidates {
			if fits() {
				return
			}
			if taken[i] || (skipRecent && cand.lastAccess > graceCutoff) {
				continue
			}
			taken[i] = true
			victims = append(victims, c.unlink(cand.id))
			used -= cand.size
			count--
		}
	}
	evict(true)
	evict(false)
	return victims
}

// unlink removes id from the index. Caller must hold mu for writing.
func (c *Cache) unlink(id domain.Identity) domain.Asset {
	e := c.entries[id]
	delete(c.entries, id)
	c.used -= e.size
	c.evictions.Add(1)
	return e.asset
}

// Trim evicts entries outside the grace window, oldest first, until memory use
// is at or below EvictionThreshold of the ceiling. It returns the bytes freed.
func (c *Cache) Trim() int64 {
	c.mu.Lock()
	target := int64(float64(c.cfg.MaxMemory) * c.cfg.EvictionThreshold)
	if c.used <= target {
		c.mu.Unlock()
		return 0
	}

	candidates := make([]candidate, 0, len(c.entries))
	for id, e := range c.entries {
		candidates = append(candidates, candidate{id: id, size: e.size, lastAccess: e.lastAccess.Load()})
	}
	slices.SortFunc(candidates, func(a, b candidate) int {
		return cmp.Or(cmp.Compare(a.lastAccess, b.lastAccess), a.id.Compare(b.id))
	})

	cutoff := c.now().Add(-c.cfg.GraceWindow).UnixNano()
	var (
		victims []domain.Asset
		freed   int64
	)
	for _, cand := range candidates {
		if c.used <= target {
			break
		}
		if cand.lastAccess > cutoff {
			continue
		}
		victims = append(victims, c.unlink(cand.id))
		freed += cand.size
	}
	c.mu.Unlock()

	c.dispose(victims, "trimmed")
	return freed
}

// age reports how long ago the entry was last accessed.
func (e *entry) age(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, e.lastAccess.Load()))
}

func sortByIdle(infos []EntryInfo) {
	slices.SortFunc(infos, func(a, b EntryInfo) int {
		return cmp.Or(cmp.Compare(b.Idle, a.Idle), a.ID.Compare(b.ID))
	})
}
