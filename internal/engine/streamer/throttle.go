package streamer

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"
)

const (
	throttleWindow   = time.Second
	maxThrottleSleep = 100 * time.Millisecond
)

// Throttle enforces a global bytes-per-second ceiling shared by all sessions.
// It delays producers but never blocks them indefinitely.
type Throttle struct {
	mu          sync.Mutex
	limit       int64
	windowStart time.Time
	windowBytes int64

	events    atomic.Uint64
	throttled atomic.Int64
}

// NewThrottle creates a Throttle. A limit of 0 disables throttling.
func NewThrottle(limit int64) *Throttle {
	return &Throttle{limit: limit, windowStart: time.Now()}
}

// SetLimit changes the ceiling for subsequent chunks.
func (t *Throttle) SetLimit(limit int64) {
	t.mu.Lock()
	t.limit = limit
	t.mu.Unlock()
}

// Wait accounts n bytes against the current window, first sleeping in
// proportion to the overage when they would exceed the ceiling.
func (t *Throttle) Wait(ctx context.Context, n int) error {
	t.mu.Lock()
	t.roll(time.Now())
	delay := t.delay(int64(n))
	t.mu.Unlock()

	if delay > 0 {
		t.events.Add(1)
		t.throttled.Add(int64(delay))
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return context.Cause(ctx)
		}
	}

	t.mu.Lock()
	t.roll(time.Now())
	t.windowBytes += int64(n)
	t.mu.Unlock()
	return nil
}

// roll starts a new window once the current one is over. Caller must hold mu.
func (t *Throttle) roll(now time.Time) {
	if now.Sub(t.windowStart) >= throttleWindow {
		t.windowStart = now
		t.windowBytes = 0
	}
}

// delay returns min(100ms, overage/limit × 1s). Caller must hold mu.
func (t *Throttle) delay(n int64) time.Duration {
	if t.limit <= 0 {
		return 0
	}
	overage := t.windowBytes + n - t.limit
	if overage <= 0 {
		return 0
	}
	d := time.Duration(math.Round(float64(overage) / float64(t.limit) * float64(throttleWindow)))
	return min(d, maxThrottleSleep)
}

// WindowBytes returns the bytes accounted in the current window.
func (t *Throttle) WindowBytes() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.roll(time.Now())
	return t.windowBytes
}

// Events returns how many chunks were delayed.
func (t *Throttle) Events() uint64 {
	return t.events.Load()
}

// Throttled returns the total time producers spent sleeping.
func (t *Throttle) Throttled() time.Duration {
	return time.Duration(t.throttled.Load())
}
