package streamer

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"go.trai.ch/assetpipe/internal/core/domain"
	"go.trai.ch/assetpipe/internal/core/ports"
)

// Session is one streaming delivery of a source to a callback.
type Session struct {
	cb        ports.StreamCallback
	ctx       context.Context
	cancel    context.CancelCauseFunc
	cancelled atomic.Bool
	done      chan struct{}

	mu     sync.Mutex
	info   domain.SessionInfo
	digest *xxhash.Digest
}

func newSession(parent context.Context, id domain.Identity, locator string, chunkSize int, cb ports.StreamCallback) *Session {
	ctx, cancel := context.WithCancelCause(parent)
	return &Session{
		cb:     cb,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
		digest: xxhash.New(),
		info: domain.SessionInfo{
			SessionID: uuid.NewString(),
			ID:        id,
			Locator:   locator,
			ChunkSize: chunkSize,
			StartedAt: time.Now(),
		},
	}
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.info.SessionID
}

// Identity returns the identity being streamed.
func (s *Session) Identity() domain.Identity {
	return s.info.ID
}

// Info returns a snapshot of the session.
func (s *Session) Info() domain.SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.info
}

// Done is closed after the terminal callback has returned.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the session ends or ctx is done and returns the final
// snapshot together with its terminal error.
func (s *Session) Wait(ctx context.Context) (domain.SessionInfo, error) {
	select {
	case <-s.done:
		info := s.Info()
		return info, info.Err
	case <-ctx.Done():
		return s.Info(), ctx.Err()
	}
}

// stop requests cancellation. Delivery stops at the next chunk boundary.
func (s *Session) stop(cause error) {
	s.cancelled.Store(true)
	s.cancel(cause)
}

func (s *Session) setSize(size int64, mapped bool) {
	s.mu.Lock()
	s.info.TotalSize = size
	s.info.Mapped = mapped
	s.mu.Unlock()
}

// deliver records chunk and returns the snapshot passed to the callback.
func (s *Session) deliver(chunk []byte) domain.SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = s.digest.Write(chunk)
	s.info.BytesDelivered += int64(len(chunk))
	s.info.ChunksDelivered++
	s.info.Checksum = s.digest.Sum64()
	return s.info
}

func (s *Session) finish(completed, cancelled bool, err error) domain.SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.info.Completed = completed
	s.info.Cancelled = cancelled
	s.info.Err = err
	s.info.Checksum = s.digest.Sum64()
	s.info.FinishedAt = time.Now()
	return s.info
}
