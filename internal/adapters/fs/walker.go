// Package fs provides file system adapters for opening, locating and hashing asset sources.
package fs

import (
	"io/fs"
	"iter"
	"path/filepath"
	"strings"
)

// Walker provides file walking functionality.
type Walker struct{}

// NewWalker creates a new Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// WalkFiles yields all files below root in lexical order, skipping hidden
// directories and entries matching one of the ignore patterns.
func (w *Walker) WalkFiles(root string, ignores []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if skipAction := w.shouldSkip(path != root, d, ignores); skipAction != nil {
				return skipAction
			}

			if d.IsDir() || w.ignored(d.Name(), ignores) {
				return nil
			}

			if !yield(path) {
				return filepath.SkipAll
			}

			return nil
		})
	}
}

// shouldSkip returns filepath.SkipDir for hidden or ignored directories below root.
func (w *Walker) shouldSkip(belowRoot bool, d fs.DirEntry, ignores []string) error {
	if !d.IsDir() || !belowRoot {
		return nil
	}
	if strings.HasPrefix(d.Name(), ".") || w.ignored(d.Name(), ignores) {
		return filepath.SkipDir
	}
	return nil
}

func (w *Walker) ignored(name string, ignores []string) bool {
	for _, ignore := range ignores {
		if matched, _ := filepath.Match(ignore, name); matched {
			return true
		}
	}
	return false
}
