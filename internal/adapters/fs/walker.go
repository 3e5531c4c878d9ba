// Package fs provides file system adapters: module resolution, source reading,
// artifact writing, directory walking and hashing.
package fs

import (
	"io/fs"
	"iter"
	"path/filepath"
)

// defaultIgnores are directory names never descended into.
var defaultIgnores = []string{".git", ".jj", "node_modules"}

// Walker provides file walking functionality.
type Walker struct {
	ignores []string
}

// NewWalker creates a new Walker that skips VCS metadata and node_modules.
func NewWalker() *Walker {
	return &Walker{ignores: defaultIgnores}
}

// WalkFiles yields every regular file below root in lexical order.
// Entries whose base name matches one of the extra ignore patterns are skipped.
// Paths are yielded joined to root.
func (w *Walker) WalkFiles(root string, ignores []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if path != root && w.ignored(d.Name(), ignores) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			if !yield(path) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

func (w *Walker) ignored(name string, extra []string) bool {
	for _, patterns := range [][]string{w.ignores, extra} {
		for _, pattern := range patterns {
			if matched, _ := filepath.Match(pattern, name); matched {
				return true
			}
		}
	}
	return false
}
