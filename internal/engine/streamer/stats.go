package streamer

import "time"

// Stats is a point-in-time snapshot of streaming activity.
type Stats struct {
	SessionsStarted   uint64
	SessionsCompleted uint64
	SessionsFailed    uint64
	SessionsCancelled uint64
	BytesDelivered    int64
	ChunksDelivered   uint64
	ThrottleEvents    uint64
	ThrottleTime      time.Duration
	ActiveSessions    int
	WindowBytes       int64
}

// Stats returns a snapshot of the streamer counters.
func (s *Streamer) Stats() Stats {
	s.mu.Lock()
	active := len(s.sessions)
	s.mu.Unlock()
	return Stats{
		SessionsStarted:   s.started.Load(),
		SessionsCompleted: s.completed.Load(),
		SessionsFailed:    s.failed.Load(),
		SessionsCancelled: s.cancelled.Load(),
		BytesDelivered:    s.bytes.Load(),
		ChunksDelivered:   s.chunks.Load(),
		ThrottleEvents:    s.throttle.Events(),
		ThrottleTime:      s.throttle.Throttled(),
		ActiveSessions:    active,
		WindowBytes:       s.throttle.WindowBytes(),
	}
}
