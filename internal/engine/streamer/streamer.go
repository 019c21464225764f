// Package streamer delivers large sources to callbacks in bandwidth-limited chunks.
package streamer

import (
	"context"
	"errors"
	"io"
	"maps"
	"slices"
	"sync"
	"sync/atomic"

	"go.trai.ch/assetpipe/internal/core/domain"
	"go.trai.ch/assetpipe/internal/core/ports"
	"go.trai.ch/zerr"
)

// Streamer runs streaming sessions, at most one per identity.
type Streamer struct {
	mu       sync.Mutex
	cfg      domain.StreamingConfig
	sessions map[domain.Identity]*Session
	gate     *gate
	closed   bool
	wg       sync.WaitGroup

	opener   ports.SourceOpener
	throttle *Throttle
	log      ports.Logger
	tracer   ports.Tracer

	base       context.Context
	cancelBase context.CancelCauseFunc

	started   atomic.Uint64
	completed atomic.Uint64
	failed    atomic.Uint64
	cancelled atomic.Uint64
	bytes     atomic.Int64
	chunks    atomic.Uint64
}

// New creates a Streamer reading sources through opener.
func New(cfg domain.StreamingConfig, opener ports.SourceOpener, log ports.Logger, tracer ports.Tracer) *Streamer {
	base, cancel := context.WithCancelCause(context.Background())
	return &Streamer{
		cfg:        cfg,
		sessions:   make(map[domain.Identity]*Session),
		gate:       newGate(cfg.MaxConcurrentStreams),
		opener:     opener,
		throttle:   NewThrottle(cfg.BandwidthLimit),
		log:        log,
		tracer:     tracer,
		base:       base,
		cancelBase: cancel,
	}
}

// StartStreaming begins delivering locator to cb. If id is already streaming
// the existing session is returned and cb is not used. Cancelling ctx cancels
// the session.
func (s *Streamer) StartStreaming(
	ctx context.Context,
	id domain.Identity,
	locator string,
	cb ports.StreamCallback,
	opts ...Option,
) (*Session, error) {
	if id.IsZero() {
		return nil, domain.ErrInvalidIdentity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, domain.ErrStreamerClosed
	}
	if existing, ok := s.sessions[id]; ok {
		return existing, nil
	}

	o := sessionOptions{chunkSize: s.cfg.ChunkSize}
	for _, opt := range opts {
		opt(&o)
	}
	if o.chunkSize <= 0 {
		return nil, zerr.With(zerr.Wrap(domain.ErrInvalidChunkSize, "cannot stream"), "chunk_size", o.chunkSize)
	}
	if cb == nil {
		cb = discard{}
	}

	sess := newSession(s.base, id, locator, o.chunkSize, cb)
	stopWatch := context.AfterFunc(ctx, func() {
		sess.stop(context.Cause(ctx))
	})
	_, span := s.tracer.Start(context.WithoutCancel(ctx), "asset.stream",
		ports.WithAttribute("asset.id", id.String()),
		ports.WithAttribute("asset.locator", locator),
		ports.WithAttribute("stream.session", sess.ID()),
		ports.WithAttribute("stream.chunk_size", o.chunkSize),
	)

	s.sessions[id] = sess
	s.started.Add(1)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer stopWatch()
		s.run(sess, s.cfg.BufferSize, span)
	}()
	return sess, nil
}

// CancelStreaming stops the session for id after its current chunk.
// It reports false when id is not streaming.
func (s *Streamer) CancelStreaming(id domain.Identity) bool {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		return false
	}
	sess.stop(domain.ErrStreamCancelled)
	return true
}

// Active returns the identities currently streaming.
func (s *Streamer) Active() []domain.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.SortedFunc(maps.Keys(s.sessions), domain.Identity.Compare)
}

// Reconfigure applies cfg to sessions started afterwards. The bandwidth
// ceiling applies immediately. A lower stream limit holds back waiting
// sessions until enough running ones have finished.
func (s *Streamer) Reconfigure(cfg domain.StreamingConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cfg.MaxConcurrentStreams != s.cfg.MaxConcurrentStreams {
		s.gate.setLimit(cfg.MaxConcurrentStreams)
	}
	s.cfg = cfg
	s.throttle.SetLimit(cfg.BandwidthLimit)
}

// Close cancels every session and waits for their terminal callbacks.
func (s *Streamer) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	for _, sess := range s.sessions {
		sess.cancelled.Store(true)
	}
	s.mu.Unlock()

	s.cancelBase(domain.ErrStreamerClosed)
	s.wg.Wait()
	s.gate.close()
}

func (s *Streamer) run(sess *Session, bufferSize int64, span ports.Span) {
	if err := s.gate.acquire(sess.ctx); err != nil {
		s.terminate(sess, span, sess.ctx.Err())
		return
	}
	defer s.gate.release()

	src, err := s.opener.Open(sess.info.Locator)
	if err != nil {
		s.terminate(sess, span, zerr.With(zerr.Wrap(err, "failed to open source"), "locator", sess.info.Locator))
		return
	}
	defer src.Close() //nolint:errcheck // Read-only source

	tr := openTransport(src, sess.info.ChunkSize, bufferSize)
	defer tr.Close() //nolint:errcheck // Unmapping a read-only mapping
	sess.setSize(src.Size(), tr.Mapped())
	span.SetAttribute("stream.mapped", tr.Mapped())

	for index := 0; ; index++ {
		if sess.cancelled.Load() {
			s.terminate(sess, span, context.Canceled)
			return
		}
		chunk, last, err := tr.Next()
		if errors.Is(err, io.EOF) {
			s.terminate(sess, span, nil)
			return
		}
		if err != nil {
			s.terminate(sess, span, zerr.With(zerr.Wrap(err, "failed to read source"), "chunk", index))
			return
		}
		if err := s.throttle.Wait(sess.ctx, len(chunk)); err != nil {
			s.terminate(sess, span, context.Canceled)
			return
		}

		info := sess.deliver(chunk)
		s.bytes.Add(int64(len(chunk)))
		s.chunks.Add(1)
		sess.cb.OnChunkReceived(info, chunk, index, last)

		if last {
			s.terminate(sess, span, nil)
			return
		}
	}
}

// terminate records the outcome and fires exactly one terminal callback.
// A cancellation error classifies the session as cancelled rather than failed.
func (s *Streamer) terminate(sess *Session, span ports.Span, err error) {
	s.mu.Lock()
	if s.sessions[sess.info.ID] == sess {
		delete(s.sessions, sess.info.ID)
	}
	s.mu.Unlock()
	defer close(sess.done)
	defer span.End()

	id := sess.info.ID.String()
	switch {
	case err == nil:
		s.completed.Add(1)
		sess.cb.OnStreamingComplete(sess.finish(true, false, nil))
	case sess.cancelled.Load() || errors.Is(err, context.Canceled):
		s.cancelled.Add(1)
		cause := zerr.With(zerr.Wrap(domain.ErrStreamCancelled, "streaming stopped"), "identity", id)
		if c := context.Cause(sess.ctx); c != nil && !errors.Is(c, domain.ErrStreamCancelled) {
			cause = zerr.With(cause, "cause", c.Error())
		}
		sess.cb.OnStreamingCancelled(sess.finish(false, true, cause))
	default:
		s.failed.Add(1)
		err = zerr.With(err, "identity", id)
		span.RecordError(err)
		s.log.Error(err, "locator", sess.info.Locator, "session", sess.ID())
		sess.cb.OnStreamingError(sess.finish(false, false, err), err)
	}
}

type discard struct{}

func (discard) OnChunkReceived(domain.SessionInfo, []byte, int, bool) {}
func (discard) OnStreamingComplete(domain.SessionInfo)                {}
func (discard) OnStreamingError(domain.SessionInfo, error)            {}
func (discard) OnStreamingCancelled(domain.SessionInfo)               {}
