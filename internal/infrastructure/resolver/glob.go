// Package resolver expands report file patterns into file paths.
package resolver

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// GlobFinder resolves glob patterns against the file system. Patterns use
// doublestar syntax ("**" spans directories); a leading "!" excludes
// matches of the other patterns.
type GlobFinder struct {
	root string
}

// NewGlobFinder creates a finder resolving relative patterns against root.
func NewGlobFinder(root string) *GlobFinder {
	if root == "" {
		root = "."
	}
	return &GlobFinder{root: root}
}

// Find returns the regular files matched by the patterns, in pattern order
// and lexical order within a pattern, without duplicates. Files under .git
// are never returned.
func (f *GlobFinder) Find(patterns []string) ([]string, error) {
	var includes, excludes []string
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if rest, ok := strings.CutPrefix(p, "!"); ok {
			excludes = append(excludes, f.normalizePattern(rest))
			continue
		}
		includes = append(includes, p)
	}

	for _, p := range append(slices.Clone(includes), excludes...) {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("pattern %q: %w", p, doublestar.ErrBadPattern)
		}
	}

	seen := make(map[string]bool)
	files := make([]string, 0)
	for _, p := range includes {
		matches, err := f.glob(p)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", p, err)
		}
		for _, m := range matches {
			if seen[m] || excluded(m, excludes) {
				continue
			}
			seen[m] = true
			files = append(files, m)
		}
	}
	return files, nil
}

// normalizePattern puts a pattern in the slash form of the returned paths.
func (f *GlobFinder) normalizePattern(pattern string) string {
	pattern = strings.TrimPrefix(filepath.ToSlash(pattern), "./")
	if isAbs(pattern) || f.root == "." {
		return pattern
	}
	return path.Join(filepath.ToSlash(f.root), pattern)
}

func (f *GlobFinder) glob(pattern string) ([]string, error) {
	pattern = strings.TrimPrefix(filepath.ToSlash(pattern), "./")
	base, rest := doublestar.SplitPattern(pattern)

	dir := filepath.FromSlash(base)
	if !isAbs(pattern) {
		dir = filepath.Join(f.root, dir)
	}

	// Missing directories and unreadable entries yield no matches.
	matches, err := doublestar.Glob(os.DirFS(dir), rest, doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}
	slices.Sort(matches)

	files := make([]string, 0, len(matches))
	for _, m := range matches {
		if inGitDir(m) {
			continue
		}
		files = append(files, filepath.Join(dir, filepath.FromSlash(m)))
	}
	return files, nil
}

func excluded(file string, excludes []string) bool {
	name := strings.TrimPrefix(filepath.ToSlash(file), "./")
	for _, ex := range excludes {
		if ok, _ := doublestar.Match(ex, name); ok {
			return true
		}
	}
	return false
}

func inGitDir(match string) bool {
	return slices.Contains(strings.Split(match, "/"), ".git")
}

func isAbs(pattern string) bool {
	return path.IsAbs(pattern) || filepath.IsAbs(filepath.FromSlash(pattern))
}
