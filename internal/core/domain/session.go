package domain

import "time"

// SessionInfo is a point-in-time view of a streaming session.
type SessionInfo struct {
	SessionID       string
	ID              Identity
	Locator         string
	TotalSize       int64
	ChunkSize       int
	BytesDelivered  int64
	ChunksDelivered int
	Mapped          bool
	Cancelled       bool
	Completed       bool
	Err             error
	Checksum        uint64
	StartedAt       time.Time
	FinishedAt      time.Time
}

// ChunkCount returns the number of chunks the session delivers in total.
// An empty source delivers none.
func (s SessionInfo) ChunkCount() int {
	if s.ChunkSize <= 0 || s.TotalSize <= 0 {
		return 0
	}
	return int((s.TotalSize + int64(s.ChunkSize) - 1) / int64(s.ChunkSize))
}

// Progress returns the delivered fraction in [0,1].
func (s SessionInfo) Progress() float64 {
	if s.TotalSize <= 0 {
		if s.Completed {
			return 1
		}
		return 0
	}
	return float64(s.BytesDelivered) / float64(s.TotalSize)
}
