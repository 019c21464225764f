package streamer

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

const gateCapacity = 1 << 20

// gate bounds concurrent sessions with one fixed-capacity semaphore. The units
// above the limit are held by the gate itself, so lowering the limit queues a
// reservation behind the running sessions and later sessions wait until the
// count is under the new limit.
type gate struct {
	sem  *semaphore.Weighted
	held atomic.Int64

	mu      sync.Mutex
	cancel  context.CancelFunc
	pending chan struct{}
}

func newGate(limit int) *gate {
	g := &gate{sem: semaphore.NewWeighted(gateCapacity)}
	n := gateCapacity - int64(max(1, limit))
	if g.sem.TryAcquire(n) {
		g.held.Store(n)
	}
	return g
}

func (g *gate) acquire(ctx context.Context) error {
	return g.sem.Acquire(ctx, 1)
}

func (g *gate) release() {
	g.sem.Release(1)
}

// setLimit changes the number of sessions allowed to run at once.
func (g *gate) setLimit(limit int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stopPending()

	want := gateCapacity - int64(max(1, limit))
	held := g.held.Load()
	switch {
	case want < held:
		g.sem.Release(held - want)
		g.held.Store(want)
	case want > held:
		n := want - held
		if g.sem.TryAcquire(n) {
			g.held.Store(want)
			return
		}
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		g.cancel, g.pending = cancel, done
		go func() {
			defer close(done)
			if g.sem.Acquire(ctx, n) == nil {
				g.held.Add(n)
			}
		}()
	}
}

// close abandons a reservation still waiting for sessions to finish.
func (g *gate) close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stopPending()
}

func (g *gate) stopPending() {
	if g.cancel == nil {
		return
	}
	g.cancel()
	<-g.pending
	g.cancel, g.pending = nil, nil
}
