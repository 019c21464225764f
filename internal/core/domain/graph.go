package domain

import (
	"cmp"
	"iter"
	"maps"
	"slices"
	"time"

	"go.trai.ch/zerr"
)

// DependencyNode is one asset known to the dependency graph.
type DependencyNode struct {
	ID          Identity
	Type        AssetType
	Priority    int
	Resolved    bool
	Loading     bool
	LastTouched time.Time
}

// Edge is a directed "From requires To loaded first" relationship.
type Edge struct {
	From Identity
	To   Identity
}

type idSet map[Identity]struct{}

// DependencyGraph stores assets and their required-before relationships
// as forward and reverse adjacency sets.
// It is not safe for concurrent use; callers serialize access.
type DependencyGraph struct {
	nodes      map[Identity]*DependencyNode
	deps       map[Identity]idSet
	dependents map[Identity]idSet
	flagged    map[Edge]struct{}
	now        func() time.Time
}

// NewDependencyGraph creates an empty graph.
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		nodes:      make(map[Identity]*DependencyNode),
		deps:       make(map[Identity]idSet),
		dependents: make(map[Identity]idSet),
		flagged:    make(map[Edge]struct{}),
		now:        time.Now,
	}
}

// AddNode creates the node or updates its type and priority.
func (g *DependencyGraph) AddNode(id Identity, typ AssetType, priority int) (*DependencyNode, error) {
	if id.IsZero() {
		return nil, ErrInvalidIdentity
	}
	n := g.ensure(id)
	if typ != "" {
		n.Type = typ
	}
	n.Priority = priority
	return n, nil
}

func (g *DependencyGraph) ensure(id Identity) *DependencyNode {
	n, ok := g.nodes[id]
	if !ok {
		n = &DependencyNode{ID: id, Type: TypeBlob}
		g.nodes[id] = n
		g.deps[id] = make(idSet)
		g.dependents[id] = make(idSet)
	}
	n.LastTouched = g.now()
	return n
}

// Node returns the node stored under id.
func (g *DependencyGraph) Node(id Identity) (*DependencyNode, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes yields every node in identity order.
func (g *DependencyGraph) Nodes() iter.Seq[*DependencyNode] {
	return func(yield func(*DependencyNode) bool) {
		for _, id := range slices.SortedFunc(maps.Keys(g.nodes), Identity.Compare) {
			if !yield(g.nodes[id]) {
				return
			}
		}
	}
}

// NodeCount returns the number of nodes.
func (g *DependencyGraph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges.
func (g *DependencyGraph) EdgeCount() int {
	total := 0
	for _, out := range g.deps {
		total += len(out)
	}
	return total
}

// FlaggedEdges returns the edges that closed a cycle when they were added.
func (g *DependencyGraph) FlaggedEdges() []Edge {
	edges := slices.Collect(maps.Keys(g.flagged))
	slices.SortFunc(edges, func(a, b Edge) int {
		return cmp.Or(a.From.Compare(b.From), a.To.Compare(b.To))
	})
	return edges
}

// RemoveNode deletes the node and every edge into or out of it.
func (g *DependencyGraph) RemoveNode(id Identity) bool {
	if _, ok := g.nodes[id]; !ok {
		return false
	}
	for dep := range g.deps[id] {
		delete(g.dependents[dep], id)
		delete(g.flagged, Edge{From: id, To: dep})
	}
	for parent := range g.dependents[id] {
		delete(g.deps[parent], id)
		delete(g.flagged, Edge{From: parent, To: id})
	}
	delete(g.nodes, id)
	delete(g.deps, id)
	delete(g.dependents, id)
	return true
}

// AddEdge records that from requires to. Missing endpoints are created.
// The edge is always recorded; the returned flag reports whether it closed a cycle.
func (g *DependencyGraph) AddEdge(from, to Identity) (bool, error) {
	if from.IsZero() || to.IsZero() {
		return false, ErrInvalidIdentity
	}
	if from == to {
		return false, zerr.With(zerr.Wrap(ErrSelfDependency, "rejected edge"), "identity", from.String())
	}
	g.ensure(from)
	g.ensure(to)
	g.deps[from][to] = struct{}{}
	g.dependents[to][from] = struct{}{}

	if g.Reaches(to, from) {
		g.flagged[Edge{From: from, To: to}] = struct{}{}
		return true, nil
	}
	return false, nil
}

// RemoveEdge deletes the edge from -> to.
func (g *DependencyGraph) RemoveEdge(from, to Identity) bool {
	out, ok := g.deps[from]
	if !ok {
		return false
	}
	if _, ok := out[to]; !ok {
		return false
	}
	delete(out, to)
	delete(g.dependents[to], from)
	delete(g.flagged, Edge{From: from, To: to})
	return true
}

// Dependencies returns the direct dependencies of id in identity order.
func (g *DependencyGraph) Dependencies(id Identity) []Identity {
	return sortedIDs(g.deps[id])
}

// Dependents returns the assets that directly require id, in identity order.
func (g *DependencyGraph) Dependents(id Identity) []Identity {
	return sortedIDs(g.dependents[id])
}

// Reaches reports whether a path of one or more edges leads from start to target.
func (g *DependencyGraph) Reaches(start, target Identity) bool {
	seen := make(idSet)
	stack := []Identity{start}
	for len(stack) > 0 {
		u := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for v := range g.deps[u] {
			if v == target {
				return true
			}
			if _, ok := seen[v]; !ok {
				seen[v] = struct{}{}
				stack = append(stack, v)
			}
		}
	}
	return false
}

// Closure returns every asset transitively required by id.
// id itself is included only when it lies on a cycle.
func (g *DependencyGraph) Closure(id Identity) []Identity {
	seen := make(idSet)
	queue := []Identity{id}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for v := range g.deps[u] {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			queue = append(queue, v)
		}
	}
	return sortedIDs(seen)
}

// Resolve computes the load order for the requested assets and their transitive
// dependencies. Roots and siblings are visited highest priority first.
// Cyclic input still yields an order: back edges are skipped and the nodes on
// the cycle path are reported in the result.
func (g *DependencyGraph) Resolve(requested []Identity) ResolutionResult {
	res := newResolutionResult()

	roots := make([]Identity, 0, len(requested))
	for _, id := range requested {
		if _, ok := g.nodes[id]; !ok {
			res.Missing[id] = struct{}{}
			continue
		}
		roots = append(roots, id)
	}
	g.byPriority(roots)

	state := make(map[Identity]int, len(g.nodes)) // 0: unvisited, 1: visiting, 2: visited
	var path []Identity

	var visit func(u Identity)
	visit = func(u Identity) {
		state[u] = 1
		path = append(path, u)

		children := sortedIDs(g.deps[u])
		g.byPriority(children)

		level := 0
		for _, dep := range children {
			switch state[dep] {
			case 1:
				g.markCycle(&res, path, dep)
				continue
			case 0:
				visit(dep)
			}
			if state[dep] == 2 {
				level = max(level, res.LevelOf[dep]+1)
			}
		}

		state[u] = 2
		path = path[:len(path)-1]
		res.LevelOf[u] = level
		res.LoadOrder = append(res.LoadOrder, u)
	}

	for _, id := range roots {
		if state[id] == 0 {
			visit(id)
		}
	}

	res.buildLevels()
	return res
}

// markCycle records every node on path from dep to the top of the stack.
func (g *DependencyGraph) markCycle(res *ResolutionResult, path []Identity, dep Identity) {
	start := slices.Index(path, dep)
	if start < 0 {
		return
	}
	for _, id := range path[start:] {
		res.Cycles[id] = struct{}{}
	}
}

// byPriority sorts ids by priority descending, then identity ascending.
func (g *DependencyGraph) byPriority(ids []Identity) {
	slices.SortStableFunc(ids, func(a, b Identity) int {
		pa, pb := 0, 0
		if n, ok := g.nodes[a]; ok {
			pa = n.Priority
		}
		if n, ok := g.nodes[b]; ok {
			pb = n.Priority
		}
		return cmp.Or(cmp.Compare(pb, pa), a.Compare(b))
	})
}

func sortedIDs(set idSet) []Identity {
	return slices.SortedFunc(maps.Keys(set), Identity.Compare)
}
