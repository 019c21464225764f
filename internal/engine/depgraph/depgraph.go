// Package depgraph provides the concurrency-safe dependency graph used to decide
// which assets to request and in which order.
package depgraph

import (
	"sync"
	"sync/atomic"
	"time"

	"go.trai.ch/assetpipe/internal/core/domain"
	"go.trai.ch/assetpipe/internal/core/ports"
)

// Stats is a point-in-time snapshot of graph activity.
type Stats struct {
	Nodes              int
	Edges              int
	FlaggedEdges       int
	CyclesDetected     uint64
	Resolutions        uint64
	LastResolveTime    time.Duration
	AverageResolveTime time.Duration
}

// Graph guards a domain.DependencyGraph with a read/write lock.
// Reads run concurrently with each other, never with a mutation.
type Graph struct {
	mu    sync.RWMutex
	graph *domain.DependencyGraph
	log   ports.Logger

	cycles       atomic.Uint64
	resolutions  atomic.Uint64
	resolveNanos atomic.Int64
	lastResolve  atomic.Int64
}

// New creates an empty Graph.
func New(log ports.Logger) *Graph {
	return &Graph{
		graph: domain.NewDependencyGraph(),
		log:   log,
	}
}

// AddNode creates the node or updates its type and priority.
func (g *Graph) AddNode(id domain.Identity, typ domain.AssetType, priority int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, err := g.graph.AddNode(id, typ, priority)
	return err
}

// RemoveNode removes the node and all edges into and out of it.
func (g *Graph) RemoveNode(id domain.Identity) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.graph.RemoveNode(id)
}

// AddDependency records that from must be loaded after to.
// An edge closing a cycle is kept, counted and logged; it is not an error.
func (g *Graph) AddDependency(from, to domain.Identity) error {
	g.mu.Lock()
	closes, err := g.graph.AddEdge(from, to)
	g.mu.Unlock()
	if err != nil {
		return err
	}
	if closes {
		g.cycles.Add(1)
		g.log.Warn("circular dependency detected", "from", from.String(), "to", to.String())
	}
	return nil
}

// RemoveDependency deletes the edge from -> to.
func (g *Graph) RemoveDependency(from, to domain.Identity) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.graph.RemoveEdge(from, to)
}

// Dependencies returns the direct dependencies of id.
func (g *Graph) Dependencies(id domain.Identity) []domain.Identity {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.graph.Dependencies(id)
}

// Dependents returns the assets that directly depend on id.
func (g *Graph) Dependents(id domain.Identity) []domain.Identity {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.graph.Dependents(id)
}

// AllDependencies returns the transitive dependencies of id.
func (g *Graph) AllDependencies(id domain.Identity) []domain.Identity {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.graph.Closure(id)
}

// HasCircularDependency reports whether adding a -> b closes a cycle,
// that is whether b already reaches a.
func (g *Graph) HasCircularDependency(a, b domain.Identity) bool {
	if a == b {
		return true
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.graph.Reaches(b, a)
}

// ResolveDependencies computes load order, levels and cycle membership for ids.
func (g *Graph) ResolveDependencies(ids ...domain.Identity) domain.ResolutionResult {
	start := time.Now()

	g.mu.RLock()
	res := g.graph.Resolve(ids)
	g.mu.RUnlock()

	res.Duration = time.Since(start)
	g.resolutions.Add(1)
	g.resolveNanos.Add(int64(res.Duration))
	g.lastResolve.Store(int64(res.Duration))

	if res.HasCycles() {
		g.log.Warn("resolved load order contains cycles",
			"members", domain.Strings(res.CycleMembers()))
	}
	return res
}

// Node returns a copy of the node stored under id.
func (g *Graph) Node(id domain.Identity) (domain.DependencyNode, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.graph.Node(id)
	if !ok {
		return domain.DependencyNode{}, false
	}
	return *n, true
}

// Nodes returns copies of every node in identity order.
func (g *Graph) Nodes() []domain.DependencyNode {
	g.mu.RLock()
	defer g.mu.RUnlock()
	nodes := make([]domain.DependencyNode, 0, g.graph.NodeCount())
	for n := range g.graph.Nodes() {
		nodes = append(nodes, *n)
	}
	return nodes
}

// MarkLoading flags id as currently loading.
func (g *Graph) MarkLoading(id domain.Identity) bool {
	return g.update(id, func(n *domain.DependencyNode) {
		n.Loading = true
		n.Resolved = false
	})
}

// MarkResolved flags id as loaded.
func (g *Graph) MarkResolved(id domain.Identity) bool {
	return g.update(id, func(n *domain.DependencyNode) {
		n.Loading = false
		n.Resolved = true
	})
}

// Reset clears the loading and resolved flags of id.
func (g *Graph) Reset(id domain.Identity) bool {
	return g.update(id, func(n *domain.DependencyNode) {
		n.Loading = false
		n.Resolved = false
	})
}

func (g *Graph) update(id domain.Identity, fn func(*domain.DependencyNode)) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.graph.Node(id)
	if !ok {
		return false
	}
	fn(n)
	n.LastTouched = time.Now()
	return true
}

// Stats returns a snapshot of graph statistics.
func (g *Graph) Stats() Stats {
	g.mu.RLock()
	nodes := g.graph.NodeCount()
	edges := g.graph.EdgeCount()
	flagged := len(g.graph.FlaggedEdges())
	g.mu.RUnlock()

	s := Stats{
		Nodes:           nodes,
		Edges:           edges,
		FlaggedEdges:    flagged,
		CyclesDetected:  g.cycles.Load(),
		Resolutions:     g.resolutions.Load(),
		LastResolveTime: time.Duration(g.lastResolve.Load()),
	}
	if s.Resolutions > 0 {
		s.AverageResolveTime = time.Duration(g.resolveNanos.Load() / int64(s.Resolutions))
	}
	return s
}
