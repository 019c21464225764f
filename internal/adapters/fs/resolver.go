package fs

import (
	"os"
	"path/filepath"
	"sort"

	"go.trai.ch/zerr"
)

// ErrLocatorNotFound is returned when a locator pattern matches nothing.
var ErrLocatorNotFound = zerr.New("locator not found")

// Resolver expands locator patterns into concrete file paths.
type Resolver struct {
	walker *Walker
}

// NewResolver creates a new Resolver.
func NewResolver(walker *Walker) *Resolver {
	return &Resolver{walker: walker}
}

// ResolveLocators expands each pattern relative to root. Patterns may be plain
// paths, globs or directories; directories contribute every file below them.
// The result is sorted and free of duplicates.
func (r *Resolver) ResolveLocators(patterns []string, root string, ignores []string) ([]string, error) {
	uniquePaths := make(map[string]bool)

	for _, pattern := range patterns {
		path := pattern
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, pattern)
		}

		matches, err := filepath.Glob(path)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to glob path"), "path", path)
		}
		if len(matches) == 0 {
			return nil, zerr.With(zerr.Wrap(ErrLocatorNotFound, "no match"), "path", path)
		}

		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil {
				return nil, zerr.With(zerr.Wrap(err, "failed to stat path"), "path", match)
			}
			if !info.IsDir() {
				uniquePaths[match] = true
				continue
			}
			for file := range r.walker.WalkFiles(match, ignores) {
				uniquePaths[file] = true
			}
		}
	}

	result := make([]string, 0, len(uniquePaths))
	for path := range uniquePaths {
		result = append(result, path)
	}
	sort.Strings(result)

	return result, nil
}
