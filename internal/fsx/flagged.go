package fsx

import (
	"sort"
	"strings"
)

// FlaggedSet is the cross-tab selection: a sorted set of absolute paths.
// It is shared by pointer across all tabs and only ever mutated on the
// orchestration goroutine.
type FlaggedSet struct {
	paths []string
}

func NewFlaggedSet() *FlaggedSet { return &FlaggedSet{} }

// Flag inserts path, keeping the set sorted and duplicate-free.
func (f *FlaggedSet) Flag(path string) {
	i := sort.SearchStrings(f.paths, path)
	if i < len(f.paths) && f.paths[i] == path {
		return
	}
	f.paths = append(f.paths, "")
	copy(f.paths[i+1:], f.paths[i:])
	f.paths[i] = path
}

// Unflag removes path if present.
func (f *FlaggedSet) Unflag(path string) {
	i := sort.SearchStrings(f.paths, path)
	if i < len(f.paths) && f.paths[i] == path {
		f.paths = append(f.paths[:i], f.paths[i+1:]...)
	}
}

// Toggle flips membership of path.
func (f *FlaggedSet) Toggle(path string) {
	if f.Contains(path) {
		f.Unflag(path)
		return
	}
	f.Flag(path)
}

// Contains is a binary-search membership test.
func (f *FlaggedSet) Contains(path string) bool {
	i := sort.SearchStrings(f.paths, path)
	return i < len(f.paths) && f.paths[i] == path
}

func (f *FlaggedSet) Clear()   { f.paths = f.paths[:0] }
func (f *FlaggedSet) Len() int { return len(f.paths) }

// Paths returns a copy of the set in sorted order.
func (f *FlaggedSet) Paths() []string {
	out := make([]string, len(f.paths))
	copy(out, f.paths)
	return out
}

// Under returns the flagged paths lying inside dir.
func (f *FlaggedSet) Under(dir string) []string {
	prefix := strings.TrimSuffix(dir, "/") + "/"
	var out []string
	for _, p := range f.paths {
		if strings.HasPrefix(p, prefix) {
			out = append(out, p)
		}
	}
	return out
}
