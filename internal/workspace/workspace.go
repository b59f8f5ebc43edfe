// Package workspace allocates transient directories for clone targets,
// grounded on original_source/src/github/repo.rs clone_repo (tempdir
// construction ahead of the `git clone` invocation).
package workspace

import (
	"os"
)

// Allocator hands out unique directories rooted under Base. A zero-value
// Allocator uses the OS temp directory.
type Allocator struct {
	Base string
}

// NewAllocator returns an Allocator rooted at the OS default temp
// directory.
func NewAllocator() *Allocator {
	return &Allocator{Base: os.TempDir()}
}

// Allocate creates and returns a fresh directory named
// "gitrepoanalyzer-<slug>-*" under Base. Callers own its lifetime: nothing
// in this package ever removes a directory it hands out, matching the
// original's no-eager-cleanup behavior so completed clones stay on disk
// for later analysis.
func (a *Allocator) Allocate(slug string) (string, error) {
	base := a.Base
	if base == "" {
		base = os.TempDir()
	}
	return os.MkdirTemp(base, "gitrepoanalyzer-"+sanitize(slug)+"-")
}

// sanitize replaces path separators in a slug so it can be embedded in a
// directory name component.
func sanitize(slug string) string {
	out := make([]rune, 0, len(slug))
	for _, r := range slug {
		if r == '/' || r == '\\' {
			out = append(out, '-')
			continue
		}
		out = append(out, r)
	}
	return string(out)
}
