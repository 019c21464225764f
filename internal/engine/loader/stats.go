package loader

import (
	"time"

	"go.trai.ch/assetpipe/internal/core/domain"
)

// Stats is a point-in-time snapshot of loader activity.
type Stats struct {
	Submitted uint64
	Started   uint64
	Completed uint64
	Failed    uint64
	Cancelled uint64
	TimedOut  uint64
	DedupHits uint64
	Swept     uint64

	Queued     int
	Active     int
	TierActive map[string]int
	Workers    int

	AverageLoadTime time.Duration
}

// SuccessRate returns completed / (completed + failed), or 0 before any load finished.
func (s Stats) SuccessRate() float64 {
	total := s.Completed + s.Failed
	if total == 0 {
		return 0
	}
	return float64(s.Completed) / float64(total)
}

// Stats returns a snapshot of the loader counters.
func (l *Loader) Stats() Stats {
	// Outcomes are read before the counters that precede them so a snapshot
	// never shows more finished loads than started ones.
	var s Stats
	s.Completed = l.completed.Load()
	s.Failed = l.failed.Load()
	s.Cancelled = l.cancelled.Load()
	s.TimedOut = l.timedOut.Load()
	s.Swept = l.swept.Load()
	s.Started = l.started.Load()
	s.DedupHits = l.dedupHits.Load()
	s.Submitted = l.submitted.Load()
	if s.Completed > 0 {
		s.AverageLoadTime = time.Duration(l.loadNanos.Load() / int64(s.Completed))
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	s.Queued = l.queue.Len()
	s.Active = l.active
	s.TierActive = make(map[string]int, len(l.tiers))
	for i, tr := range l.tiers {
		s.TierActive[domain.Tier(i).String()] = tr.busy
		s.Workers += tr.running
	}
	return s
}
