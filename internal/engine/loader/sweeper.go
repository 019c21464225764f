package loader

import (
	"time"
)

func (l *Loader) sweepLoop() {
	defer l.loops.Done()
	for {
		select {
		case <-l.stop:
			return
		case now := <-l.ticker.C:
			l.sweep(now)
		}
	}
}

// sweep drops completed handles from the in-flight table and warns once about
// loads that have been pending for more than half the load timeout.
func (l *Loader) sweep(now time.Time) {
	type slow struct {
		id, locator string
		age         time.Duration
	}
	var warn []slow

	l.mu.Lock()
	threshold := l.cfg.Timeout / 2
	for id, t := range l.inflight {
		if t.handle.Completed() {
			delete(l.inflight, id)
			l.swept.Add(1)
			continue
		}
		if age := now.Sub(t.req.Submitted); !t.warned && age > threshold {
			t.warned = true
			warn = append(warn, slow{id: id.String(), locator: t.req.Locator, age: age})
		}
	}
	l.mu.Unlock()

	for _, s := range warn {
		l.log.Warn("asset load is slow", "identity", s.id, "locator", s.locator, "age", s.age.Round(time.Millisecond).String())
	}
}
