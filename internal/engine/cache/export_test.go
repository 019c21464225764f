package cache

import "time"

// SetClock replaces the time source used for recency and grace windows.
func (c *Cache) SetClock(now func() time.Time) {
	c.now = now
}
