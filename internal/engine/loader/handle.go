package loader

import (
	"context"
	"sync/atomic"

	"go.trai.ch/assetpipe/internal/core/domain"
)

// Handle is the completion handle shared by every submitter of one load.
// It completes exactly once.
type Handle struct {
	id      domain.Identity
	done    chan struct{}
	claimed atomic.Bool

	asset domain.Asset
	err   error
}

func newHandle(id domain.Identity) *Handle {
	return &Handle{id: id, done: make(chan struct{})}
}

// ID returns the identity being loaded.
func (h *Handle) ID() domain.Identity {
	return h.id
}

// Done is closed once the load has finished, failed, timed out or been cancelled.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Completed reports whether the handle has an outcome.
func (h *Handle) Completed() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the load completes or ctx is done.
// Giving up on ctx does not cancel the load.
func (h *Handle) Wait(ctx context.Context) (domain.Asset, error) {
	select {
	case <-h.done:
		return h.asset, h.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Result returns the outcome. It must only be called after Done is closed;
// before that it returns nil, nil.
func (h *Handle) Result() (domain.Asset, error) {
	if !h.Completed() {
		return nil, nil
	}
	return h.asset, h.err
}

// claim reserves the right to complete the handle. Exactly one caller wins.
func (h *Handle) claim() bool {
	return h.claimed.CompareAndSwap(false, true)
}

// resolve publishes the outcome. Only the winner of claim may call it.
func (h *Handle) resolve(asset domain.Asset, err error) {
	h.asset = asset
	h.err = err
	close(h.done)
}
