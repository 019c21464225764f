package loader

import (
	"context"
	"time"

	"go.trai.ch/assetpipe/internal/core/domain"
	"go.trai.ch/zerr"
)

// tier is one bounded worker pool. Workers are spawned on demand up to the tier
// size and exit after sitting idle for the keep-alive duration.
// busy and running are guarded by Loader.mu.
type tier struct {
	work    chan job
	busy    int
	running int
}

type job struct {
	task    *task
	ctx     context.Context
	timeout time.Duration
}

type outcome struct {
	asset domain.Asset
	err   error
}

func (l *Loader) worker(tr *tier, j job, keepAlive time.Duration) {
	defer l.workers.Done()
	for {
		l.run(j)

		l.mu.Lock()
		tr.busy--
		l.active--
		l.mu.Unlock()
		l.signal()

		idle := time.NewTimer(keepAlive)
		select {
		case j = <-tr.work:
			idle.Stop()
			continue
		case <-idle.C:
		case <-l.stop:
			idle.Stop()
		}

		l.mu.Lock()
		tr.running--
		l.mu.Unlock()
		return
	}
}

// run executes the factory and waits for it, its timeout or its cancellation.
// The worker slot stays held until the factory returns; an asset produced after
// the handle already completed is disposed.
func (l *Loader) run(j job) {
	t := j.task
	ctx, cancel := context.WithTimeoutCause(j.ctx, j.timeout, domain.ErrLoadTimeout)
	defer cancel()
	defer t.cancel(nil)

	done := make(chan outcome, 1)
	go func() {
		var out outcome
		defer func() { done <- out }()
		defer zerr.Defer(func(err error) {
			out = outcome{err: zerr.With(zerr.With(
				zerr.Wrap(domain.ErrFactoryPanic, "factory panicked"),
				"identity", t.req.ID.String()),
				"panic", err.Error())}
		})
		out.asset, out.err = t.factory.Create(ctx, t.req)
	}()

	var out outcome
	select {
	case out = <-done:
		if out.err == nil && out.asset == nil {
			out.err = zerr.With(zerr.Wrap(domain.ErrNilAsset, "factory returned nothing"), "identity", t.req.ID.String())
		}
		if out.err != nil {
			out.err = l.classify(ctx, t, out.err)
		}
		if l.settle(t, out.asset, out.err) {
			return
		}
	case <-ctx.Done():
		l.settle(t, nil, l.classify(ctx, t, context.Cause(ctx)))
		out = <-done
	}

	if out.asset != nil {
		if err := out.asset.Dispose(); err != nil {
			l.log.Error(zerr.With(err, "identity", t.req.ID.String()), "reason", "late asset")
		}
	}
}

// classify maps a context-driven failure onto the loader's own errors.
func (l *Loader) classify(ctx context.Context, t *task, err error) error {
	if ctx.Err() == nil {
		return zerr.With(zerr.With(zerr.Wrap(err, "factory failed"), "identity", t.req.ID.String()), "locator", t.req.Locator)
	}
	switch cause := context.Cause(ctx); {
	case cause == domain.ErrLoadTimeout:
		return zerr.With(zerr.With(zerr.Wrap(domain.ErrLoadTimeout, "factory did not finish"),
			"identity", t.req.ID.String()), "timeout", time.Since(t.started).Round(time.Millisecond).String())
	case cause == domain.ErrLoaderClosed:
		return zerr.With(zerr.Wrap(domain.ErrLoaderClosed, "load abandoned"), "identity", t.req.ID.String())
	default:
		return zerr.With(zerr.Wrap(domain.ErrLoadCancelled, "load cancelled"), "identity", t.req.ID.String())
	}
}
