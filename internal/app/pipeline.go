// Package app implements the application layer for assetpipe.
package app

import (
	"context"
	"errors"
	"sync"

	"go.trai.ch/assetpipe/internal/core/domain"
	"go.trai.ch/assetpipe/internal/core/ports"
	"go.trai.ch/assetpipe/internal/engine/cache"
	"go.trai.ch/assetpipe/internal/engine/depgraph"
	"go.trai.ch/assetpipe/internal/engine/loader"
	"go.trai.ch/assetpipe/internal/engine/streamer"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Snapshot gathers the statistics of every pipeline component.
type Snapshot struct {
	Loader   loader.Stats
	Cache    cache.Stats
	Graph    depgraph.Stats
	Streamer streamer.Stats
}

// levelSetter is implemented by loggers whose level can change at runtime.
type levelSetter interface {
	SetLevel(name string)
}

// Pipeline ties the dependency graph, cache, loader and streamer together.
// Loaded assets are handed to the cache, which owns them from then on.
type Pipeline struct {
	mu        sync.RWMutex
	cfg       domain.Config
	factories map[domain.AssetType]ports.Factory
	requests  map[domain.Identity]domain.LoadRequest
	flights   map[domain.Identity]*flight

	graph    *depgraph.Graph
	cache    *cache.Cache
	loader   *loader.Loader
	streamer *streamer.Streamer
	log      ports.Logger
	tracer   ports.Tracer

	settling sync.WaitGroup
}

// flight is one load shared by every concurrent Load of an identity. Fields
// after done are guarded by Pipeline.mu.
type flight struct {
	id   domain.Identity
	done chan struct{}

	waiters int
	settled bool
	taken   bool
	cached  bool
	asset   domain.Asset
	err     error
}

// claimOrphan takes ownership of a settled, uncached asset once no waiter is
// left to collect it.
func (fl *flight) claimOrphan() bool {
	if !fl.settled || fl.err != nil || fl.cached || fl.taken || fl.waiters > 0 {
		return false
	}
	fl.taken = true
	return true
}

// New creates a Pipeline over already constructed components.
func New(
	cfg domain.Config,
	graph *depgraph.Graph,
	c *cache.Cache,
	l *loader.Loader,
	s *streamer.Streamer,
	log ports.Logger,
	tracer ports.Tracer,
) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		factories: make(map[domain.AssetType]ports.Factory),
		requests:  make(map[domain.Identity]domain.LoadRequest),
		flights:   make(map[domain.Identity]*flight),
		graph:     graph,
		cache:     c,
		loader:    l,
		streamer:  s,
		log:       log,
		tracer:    tracer,
	}
}

// RegisterFactory installs the factory used for assets of typ, replacing any
// previous one.
func (p *Pipeline) RegisterFactory(typ domain.AssetType, f ports.Factory) error {
	if typ == "" {
		return zerr.Wrap(domain.ErrUnregisteredType, "empty asset type")
	}
	if f == nil {
		return zerr.With(zerr.Wrap(domain.ErrNilFactory, "register rejected"), "type", typ.String())
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.factories[typ] = f
	return nil
}

// Register records reqs as graph nodes so that LoadAll can load them when
// they are reached as dependencies.
func (p *Pipeline) Register(reqs ...domain.LoadRequest) error {
	for _, req := range reqs {
		if err := req.Validate(); err != nil {
			return err
		}
		if err := p.graph.AddNode(req.ID, req.Type, req.Priority); err != nil {
			return err
		}
		p.mu.Lock()
		p.requests[req.ID] = req
		p.mu.Unlock()
	}
	return nil
}

// DependsOn records that from must be loaded after to.
func (p *Pipeline) DependsOn(from, to domain.Identity) error {
	return p.graph.AddDependency(from, to)
}

// RegisterManifest registers every asset of m and its dependency edges.
func (p *Pipeline) RegisterManifest(m *domain.Manifest) error {
	if err := p.Register(m.Requests()...); err != nil {
		return err
	}
	for _, e := range m.Edges() {
		if err := p.DependsOn(e.From, e.To); err != nil {
			return err
		}
	}
	return nil
}

// Resolve returns the load order of ids and their dependencies.
func (p *Pipeline) Resolve(ids ...domain.Identity) domain.ResolutionResult {
	return p.graph.ResolveDependencies(ids...)
}

// Load returns the asset for req, from the cache when present and through the
// loader otherwise. Concurrent loads of one identity share a single load. If
// the cache rejects the asset, the first caller to collect it owns it and the
// others get ErrCapacityExceeded. Giving up on ctx does not abandon the load: a
// late result is cached when it arrives, or disposed if nobody is left to own it.
func (p *Pipeline) Load(ctx context.Context, req domain.LoadRequest) (domain.Asset, error) {
	asset, _, err := p.load(ctx, req)
	return asset, err
}

// load also reports whether the cache holds the returned asset. An uncached
// asset belongs to the caller.
func (p *Pipeline) load(ctx context.Context, req domain.LoadRequest) (domain.Asset, bool, error) {
	if err := req.Validate(); err != nil {
		return nil, false, err
	}
	fl, asset, err := p.join(ctx, req)
	if err != nil || fl == nil {
		return asset, err == nil, err
	}

	select {
	case <-fl.done:
	case <-ctx.Done():
		select {
		case <-fl.done:
		default:
			p.leave(fl)
			return nil, false, zerr.With(zerr.Wrap(context.Cause(ctx), "stopped waiting for asset"), "identity", req.ID.String())
		}
	}
	return p.collect(fl)
}

// join returns the cached asset for req, or the flight loading it, starting
// one when none is running.
func (p *Pipeline) join(ctx context.Context, req domain.LoadRequest) (*flight, domain.Asset, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if asset, ok := p.cache.Get(req.ID); ok {
		return nil, asset, nil
	}
	f, ok := p.factories[req.Type]
	if !ok {
		err := zerr.With(zerr.Wrap(domain.ErrUnregisteredType, "no factory registered"), "type", req.Type.String())
		return nil, nil, zerr.With(err, "identity", req.ID.String())
	}
	if fl, ok := p.flights[req.ID]; ok {
		fl.waiters++
		return fl, nil, nil
	}

	if err := p.graph.AddNode(req.ID, req.Type, req.Priority); err != nil {
		return nil, nil, err
	}
	p.graph.MarkLoading(req.ID)
	h, err := p.loader.Submit(ctx, req, f)
	if err != nil {
		p.graph.Reset(req.ID)
		return nil, nil, err
	}

	fl := &flight{id: req.ID, done: make(chan struct{}), waiters: 1}
	p.flights[req.ID] = fl
	p.settling.Add(1)
	go p.settle(fl, h)
	return fl, nil, nil
}

// settle stores the result of a finished load once and wakes its waiters.
func (p *Pipeline) settle(fl *flight, h *loader.Handle) {
	defer p.settling.Done()
	<-h.Done()
	asset, err := h.Result()
	cached := p.store(fl.id, asset, err)

	p.mu.Lock()
	fl.settled, fl.asset, fl.cached, fl.err = true, asset, cached, err
	orphan := fl.claimOrphan()
	if p.flights[fl.id] == fl {
		delete(p.flights, fl.id)
	}
	p.mu.Unlock()
	close(fl.done)

	if orphan {
		p.discard(fl.id, asset)
	}
}

// store hands a loaded asset to the cache and reports whether it was kept.
func (p *Pipeline) store(id domain.Identity, asset domain.Asset, loadErr error) bool {
	if loadErr != nil {
		p.graph.Reset(id)
		return false
	}
	p.graph.MarkResolved(id)
	if err := p.cache.Put(asset); err != nil {
		p.log.Error(zerr.Wrap(err, "asset not cached"), "identity", id.String())
		return false
	}
	return true
}

// collect hands the outcome of fl to one waiter.
func (p *Pipeline) collect(fl *flight) (domain.Asset, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fl.waiters--

	switch {
	case fl.err != nil:
		return nil, false, fl.err
	case fl.cached:
		return fl.asset, true, nil
	case !fl.taken:
		fl.taken = true
		return fl.asset, false, nil
	}
	return nil, false, zerr.With(zerr.Wrap(domain.ErrCapacityExceeded, "asset not cached and owned by another caller"),
		"identity", fl.id.String())
}

// leave drops a waiter that stopped waiting.
func (p *Pipeline) leave(fl *flight) {
	p.mu.Lock()
	fl.waiters--
	orphan := fl.claimOrphan()
	asset := fl.asset
	p.mu.Unlock()

	if orphan {
		p.discard(fl.id, asset)
	}
}

// discard disposes an asset nobody owns.
func (p *Pipeline) discard(id domain.Identity, asset domain.Asset) {
	if err := asset.Dispose(); err != nil {
		p.log.Error(zerr.Wrap(err, "failed to dispose asset"), "identity", id.String())
	}
	p.graph.Reset(id)
}

// LoadAll registers reqs, resolves them together with their registered
// dependencies and loads the result level by level. Assets within a level load
// concurrently; a level with failures stops the run and every failure of that
// level is reported.
func (p *Pipeline) LoadAll(ctx context.Context, reqs ...domain.LoadRequest) (domain.ResolutionResult, error) {
	if len(reqs) == 0 {
		return domain.ResolutionResult{}, domain.ErrNoTargetsSpecified
	}
	if err := p.Register(reqs...); err != nil {
		return domain.ResolutionResult{}, err
	}

	ids := make([]domain.Identity, len(reqs))
	for i, r := range reqs {
		ids[i] = r.ID
	}
	res := p.graph.ResolveDependencies(ids...)
	p.tracer.EmitPlan(ctx, domain.Strings(res.LoadOrder))

	for i, level := range res.Levels {
		if err := p.loadLevel(ctx, level); err != nil {
			return res, zerr.With(err, "level", i)
		}
	}
	return res, nil
}

func (p *Pipeline) loadLevel(ctx context.Context, level []domain.Identity) error {
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	g.SetLimit(p.Config().Loader.MaxConcurrentLoads)

	for _, id := range level {
		p.mu.RLock()
		req, ok := p.requests[id]
		p.mu.RUnlock()
		if !ok {
			mu.Lock()
			errs = append(errs, zerr.With(zerr.Wrap(domain.ErrNodeNotFound, "dependency not registered"), "identity", id.String()))
			mu.Unlock()
			continue
		}
		g.Go(func() error {
			asset, cached, err := p.load(ctx, req)
			if err == nil && !cached {
				p.discard(req.ID, asset)
				err = zerr.With(zerr.Wrap(domain.ErrCapacityExceeded, "asset rejected by cache"), "identity", req.ID.String())
			}
			if err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// Stream starts streaming locator to cb under id.
func (p *Pipeline) Stream(
	ctx context.Context,
	id domain.Identity,
	locator string,
	cb ports.StreamCallback,
	opts ...streamer.Option,
) (*streamer.Session, error) {
	return p.streamer.StartStreaming(ctx, id, locator, cb, opts...)
}

// Unload removes id from the cache and disposes it.
func (p *Pipeline) Unload(id domain.Identity) bool {
	asset, ok := p.cache.Remove(id)
	if !ok {
		return false
	}
	p.discard(id, asset)
	return true
}

// Stats returns a snapshot of every component.
func (p *Pipeline) Stats() Snapshot {
	return Snapshot{
		Loader:   p.loader.Stats(),
		Cache:    p.cache.Stats(),
		Graph:    p.graph.Stats(),
		Streamer: p.streamer.Stats(),
	}
}

// Config returns the configuration currently in effect.
func (p *Pipeline) Config() domain.Config {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cfg
}

// Reconfigure validates cfg and applies it to every component. In-flight
// loads and sessions keep running.
func (p *Pipeline) Reconfigure(cfg domain.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	p.loader.Reconfigure(cfg.Loader)
	p.cache.Reconfigure(cfg.Cache)
	p.streamer.Reconfigure(cfg.Streaming)
	if ls, ok := p.log.(levelSetter); ok {
		ls.SetLevel(cfg.Log.Level)
	}

	p.mu.Lock()
	p.cfg = cfg
	p.mu.Unlock()
	return nil
}

// Close stops streaming and loading, then disposes every cached asset.
func (p *Pipeline) Close() {
	p.streamer.Close()
	p.loader.Close()
	p.settling.Wait()
	p.cache.Clear()
}
