// Package loader runs asset factories on tiered worker pools fed by a single
// priority queue.
package loader

import (
	"container/heap"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.trai.ch/assetpipe/internal/core/domain"
	"go.trai.ch/assetpipe/internal/core/ports"
	"go.trai.ch/zerr"
)

// Loader deduplicates, prioritizes and executes asset loads.
type Loader struct {
	mu       sync.Mutex
	cfg      domain.LoaderConfig
	queue    taskQueue
	inflight map[domain.Identity]*task
	tiers    [len(domain.Tiers)]*tier
	active   int
	seq      uint64
	closed   bool

	wake    chan struct{}
	stop    chan struct{}
	loops   sync.WaitGroup
	workers sync.WaitGroup
	ticker  *time.Ticker

	base       context.Context
	cancelBase context.CancelCauseFunc

	log    ports.Logger
	tracer ports.Tracer

	submitted atomic.Uint64
	started   atomic.Uint64
	completed atomic.Uint64
	failed    atomic.Uint64
	cancelled atomic.Uint64
	timedOut  atomic.Uint64
	dedupHits atomic.Uint64
	swept     atomic.Uint64
	loadNanos atomic.Int64
}

// New creates a Loader and starts its dispatcher and sweeper.
func New(cfg domain.LoaderConfig, log ports.Logger, tracer ports.Tracer) *Loader {
	base, cancel := context.WithCancelCause(context.Background())
	l := &Loader{
		cfg:        cfg,
		inflight:   make(map[domain.Identity]*task),
		wake:       make(chan struct{}, 1),
		stop:       make(chan struct{}),
		ticker:     time.NewTicker(cfg.SweepInterval),
		base:       base,
		cancelBase: cancel,
		log:        log,
		tracer:     tracer,
	}
	for _, t := range domain.Tiers {
		l.tiers[t] = &tier{work: make(chan job)}
	}

	l.loops.Add(2)
	go l.dispatchLoop()
	go l.sweepLoop()
	return l
}

// Submit enqueues a load. If the identity is already in flight the existing
// handle is returned and factory is not used. ctx only parents the trace span.
func (l *Loader) Submit(ctx context.Context, req domain.LoadRequest, factory ports.Factory) (*Handle, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if factory == nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrNilFactory, "submit rejected"), "identity", req.ID.String())
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil, domain.ErrLoaderClosed
	}
	if t, ok := l.inflight[req.ID]; ok && !t.handle.Completed() {
		l.dedupHits.Add(1)
		return t.handle, nil
	}

	if req.Submitted.IsZero() {
		req.Submitted = time.Now()
	}
	l.seq++
	t := &task{
		req:     req,
		factory: factory,
		handle:  newHandle(req.ID),
		seq:     l.seq,
	}
	_, t.span = l.tracer.Start(context.WithoutCancel(ctx), "asset.load",
		ports.WithAttribute("asset.id", req.ID.String()),
		ports.WithAttribute("asset.type", req.Type.String()),
		ports.WithAttribute("asset.locator", req.Locator),
		ports.WithAttribute("asset.priority", req.Priority),
	)

	l.inflight[req.ID] = t
	heap.Push(&l.queue, t)
	l.submitted.Add(1)
	l.signal()
	return t.handle, nil
}

// Cancel cancels the load of id. It reports false when id is unknown or its
// load has already completed.
func (l *Loader) Cancel(id domain.Identity) bool {
	l.mu.Lock()
	t, ok := l.inflight[id]
	if !ok || t.handle.Completed() {
		l.mu.Unlock()
		return false
	}
	delete(l.inflight, id)
	if t.index >= 0 {
		heap.Remove(&l.queue, t.index)
	}
	cancel := t.cancel
	l.mu.Unlock()

	err := zerr.With(zerr.Wrap(domain.ErrLoadCancelled, "load cancelled"), "identity", id.String())
	won := l.settle(t, nil, err)
	if cancel != nil {
		cancel(domain.ErrLoadCancelled)
	}
	return won
}

// IsLoading reports whether a load for id is queued or running.
func (l *Loader) IsLoading(id domain.Identity) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.inflight[id]
	return ok && !t.handle.Completed()
}

// Pending returns the number of queued loads.
func (l *Loader) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.queue.Len()
}

// Active returns the number of running loads.
func (l *Loader) Active() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// Reconfigure applies new limits to subsequent dispatch decisions.
// Running loads keep the timeout they started with.
func (l *Loader) Reconfigure(cfg domain.LoaderConfig) {
	l.mu.Lock()
	l.cfg = cfg
	if cfg.SweepInterval > 0 {
		l.ticker.Reset(cfg.SweepInterval)
	}
	l.mu.Unlock()
	l.signal()
}

// Close stops dispatching, completes queued loads with ErrLoaderClosed and
// cancels running ones. It does not wait for factories that ignore their context.
func (l *Loader) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	queued := make([]*task, 0, l.queue.Len())
	for l.queue.Len() > 0 {
		t := heap.Pop(&l.queue).(*task)
		delete(l.inflight, t.req.ID)
		queued = append(queued, t)
	}
	l.mu.Unlock()

	for _, t := range queued {
		l.settle(t, nil, zerr.With(zerr.Wrap(domain.ErrLoaderClosed, "load abandoned"), "identity", t.req.ID.String()))
	}
	l.cancelBase(domain.ErrLoaderClosed)
	close(l.stop)
	l.ticker.Stop()
	l.loops.Wait()
}

func (l *Loader) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *Loader) dispatchLoop() {
	defer l.loops.Done()
	for {
		select {
		case <-l.stop:
			return
		case <-l.wake:
			l.dispatch()
		}
	}
}

// dispatch starts queued tasks, highest priority first, while the global limit
// allows. Tasks whose tier is saturated are set aside so other tiers still
// receive work, then pushed back.
func (l *Loader) dispatch() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}

	var deferred []*task
	for l.active < l.cfg.MaxConcurrentLoads && l.queue.Len() > 0 {
		t := heap.Pop(&l.queue).(*task)
		tr := domain.TierFor(t.req.Priority, l.cfg.HighPriorityThreshold, l.cfg.NormalPriorityThreshold)
		if l.tiers[tr].busy >= l.cfg.TierSize(tr) {
			deferred = append(deferred, t)
			continue
		}
		t.tier = tr
		l.start(t)
	}
	for _, t := range deferred {
		heap.Push(&l.queue, t)
	}
}

// start hands t to an idle worker of its tier or spawns one.
// Caller must hold mu.
func (l *Loader) start(t *task) {
	ctx, cancel := context.WithCancelCause(l.base)
	t.cancel = cancel
	t.started = time.Now()
	timeout := l.cfg.Timeout
	keepAlive := l.cfg.KeepAlive

	tr := l.tiers[t.tier]
	tr.busy++
	l.active++
	l.started.Add(1)
	t.span.SetAttribute("asset.tier", t.tier.String())

	j := job{task: t, ctx: ctx, timeout: timeout}
	select {
	case tr.work <- j:
	default:
		tr.running++
		l.workers.Add(1)
		go l.worker(tr, j, keepAlive)
	}
}

// settle completes t's handle once. Counters are updated before waiters are
// released so a returned Wait always observes them.
func (l *Loader) settle(t *task, asset domain.Asset, err error) bool {
	if !t.handle.claim() {
		return false
	}

	switch {
	case err == nil:
		l.completed.Add(1)
		l.loadNanos.Add(int64(time.Since(t.started)))
		l.mu.Lock()
		if l.inflight[t.req.ID] == t {
			delete(l.inflight, t.req.ID)
		}
		l.mu.Unlock()
	case errors.Is(err, domain.ErrLoadCancelled), errors.Is(err, domain.ErrLoaderClosed):
		l.cancelled.Add(1)
	default:
		l.failed.Add(1)
		if errors.Is(err, domain.ErrLoadTimeout) {
			l.timedOut.Add(1)
		}
		l.log.Error(err, "identity", t.req.ID.String(), "locator", t.req.Locator)
	}

	if err != nil {
		t.span.RecordError(err)
	}
	t.span.End()
	t.handle.resolve(asset, err)
	return true
}
