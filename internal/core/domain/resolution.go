package domain

import (
	"maps"
	"slices"
	"time"
)

// ResolutionResult is the outcome of resolving a set of requested assets.
type ResolutionResult struct {
	// LoadOrder lists every required asset, dependencies before dependents.
	LoadOrder []Identity
	// Levels partitions LoadOrder; assets in one level may load concurrently
	// once every lower level has completed.
	Levels [][]Identity
	// LevelOf maps each asset in LoadOrder to its level.
	LevelOf map[Identity]int
	// Cycles holds the assets found on a dependency cycle.
	// They are still part of LoadOrder on a best-effort basis.
	Cycles map[Identity]struct{}
	// Missing holds requested identities unknown to the graph.
	Missing map[Identity]struct{}
	// Duration is the time spent resolving.
	Duration time.Duration
}

func newResolutionResult() ResolutionResult {
	return ResolutionResult{
		LevelOf: make(map[Identity]int),
		Cycles:  make(map[Identity]struct{}),
		Missing: make(map[Identity]struct{}),
	}
}

func (r *ResolutionResult) buildLevels() {
	depth := 0
	for _, id := range r.LoadOrder {
		depth = max(depth, r.LevelOf[id]+1)
	}
	r.Levels = make([][]Identity, depth)
	for _, id := range r.LoadOrder {
		lvl := r.LevelOf[id]
		r.Levels[lvl] = append(r.Levels[lvl], id)
	}
}

// HasCycles reports whether any cycle was found.
func (r ResolutionResult) HasCycles() bool {
	return len(r.Cycles) > 0
}

// InCycle reports whether id was found on a cycle.
func (r ResolutionResult) InCycle(id Identity) bool {
	_, ok := r.Cycles[id]
	return ok
}

// CycleMembers returns the cycle set in identity order.
func (r ResolutionResult) CycleMembers() []Identity {
	return slices.SortedFunc(maps.Keys(r.Cycles), Identity.Compare)
}

// MissingIDs returns the missing set in identity order.
func (r ResolutionResult) MissingIDs() []Identity {
	return slices.SortedFunc(maps.Keys(r.Missing), Identity.Compare)
}

// Position returns the index of id in LoadOrder, or -1.
func (r ResolutionResult) Position(id Identity) int {
	return slices.Index(r.LoadOrder, id)
}
