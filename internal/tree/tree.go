// Package tree implements the foldable directory tree behind the tree
// display mode. Nodes live in a flat arena addressed by integer handles;
// parent and child links are indices into the arena, so stepping through
// the visible sequence is an index walk with no pointer cycles to manage.
//
// Children are materialized lazily: a directory gets its child nodes the
// first time it is expanded, and a single expansion is capped so huge
// directories never flood the arena.
package tree

import (
	"path/filepath"
	"sort"
	"strings"

	"rovefs/internal/fserr"
	"rovefs/internal/fsx"
)

// NodeID is an arena handle. None is the null handle.
type NodeID int32

const None NodeID = -1

type node struct {
	path      string
	parent    NodeID
	children  []NodeID
	depth     int
	folded    bool
	populated bool
	isDir     bool
	dead      bool
}

// Options tune materialization bounds.
type Options struct {
	ShowHidden bool
	Filter     fsx.Filter
	Sort       fsx.SortKind
	// ChildCap bounds a single expansion; scaled to the viewport by the
	// caller. MaxNodes is the hard arena bound for UnfoldAll.
	ChildCap int
	MaxNodes int
}

func (o Options) withDefaults() Options {
	if o.ChildCap <= 0 {
		o.ChildCap = 100
	}
	if o.MaxNodes <= 0 {
		o.MaxNodes = 2000
	}
	return o
}

// Tree is the arena plus a path index for reverse lookup.
type Tree struct {
	nodes  []node
	byPath map[string]NodeID
	root   NodeID
	live   int
	opt    Options
}

// New builds a tree rooted at dir and expands the first level.
func New(dir string, opt Options) (*Tree, error) {
	t := &Tree{byPath: map[string]NodeID{}, root: None, opt: opt.withDefaults()}
	dir = filepath.Clean(dir)
	root := t.alloc(dir, None, 0, true)
	t.root = root
	if err := t.Expand(root); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Tree) alloc(path string, parent NodeID, depth int, isDir bool) NodeID {
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, node{path: path, parent: parent, depth: depth, isDir: isDir})
	t.byPath[path] = id
	t.live++
	return id
}

func (t *Tree) valid(id NodeID) bool {
	return id >= 0 && int(id) < len(t.nodes) && !t.nodes[id].dead
}

// Root returns the root handle.
func (t *Tree) Root() NodeID { return t.root }

// Len is the number of live nodes in the arena.
func (t *Tree) Len() int { return t.live }

// Path returns the node's path, or "" for an invalid handle.
func (t *Tree) Path(id NodeID) string {
	if !t.valid(id) {
		return ""
	}
	return t.nodes[id].path
}

// Name is the path's base name.
func (t *Tree) Name(id NodeID) string {
	if !t.valid(id) {
		return ""
	}
	return filepath.Base(t.nodes[id].path)
}

func (t *Tree) Depth(id NodeID) int {
	if !t.valid(id) {
		return 0
	}
	return t.nodes[id].depth
}

func (t *Tree) Folded(id NodeID) bool {
	return t.valid(id) && t.nodes[id].folded
}

func (t *Tree) IsDir(id NodeID) bool {
	return t.valid(id) && t.nodes[id].isDir
}

func (t *Tree) Parent(id NodeID) NodeID {
	if !t.valid(id) {
		return None
	}
	return t.nodes[id].parent
}

// HasChildren reports whether the node has materialized children.
func (t *Tree) HasChildren(id NodeID) bool {
	return t.valid(id) && len(t.nodes[id].children) > 0
}

// Lookup resolves a path to its handle.
func (t *Tree) Lookup(path string) (NodeID, bool) {
	id, ok := t.byPath[filepath.Clean(path)]
	if !ok || !t.valid(id) {
		return None, false
	}
	return id, true
}

// Expand materializes the children of a directory node from a fresh
// listing. Expanding an already populated node or a leaf is a no-op.
// Directories stay visible under any active filter; only files are
// filtered out.
func (t *Tree) Expand(id NodeID) error {
	if !t.valid(id) {
		return nil
	}
	if t.nodes[id].populated || !t.nodes[id].isDir {
		t.nodes[id].populated = true
		return nil
	}
	dir := t.nodes[id].path
	depth := t.nodes[id].depth
	entries, err := fsx.ReadDir(dir, fsx.ListOptions{
		ShowHidden: t.opt.ShowHidden,
		Sort:       t.opt.Sort,
	})
	if err != nil {
		return fserr.Classify("expand", dir, err)
	}
	children := make([]NodeID, 0, len(entries))
	for _, e := range entries {
		if !e.Navigable() && !t.opt.Filter.Match(e) {
			continue
		}
		if len(children) >= t.opt.ChildCap {
			break
		}
		children = append(children, t.alloc(e.Path, id, depth+1, e.Navigable()))
	}
	t.nodes[id].children = children
	t.nodes[id].populated = true
	return nil
}

// Fold hides the node's subtree without destroying it.
func (t *Tree) Fold(id NodeID) {
	if t.valid(id) && t.nodes[id].isDir {
		t.nodes[id].folded = true
	}
}

// Unfold shows the subtree again, materializing it on first visit.
func (t *Tree) Unfold(id NodeID) error {
	if !t.valid(id) {
		return nil
	}
	t.nodes[id].folded = false
	if !t.nodes[id].populated {
		return t.Expand(id)
	}
	return nil
}

// ToggleFold flips the fold state.
func (t *Tree) ToggleFold(id NodeID) error {
	if !t.valid(id) {
		return nil
	}
	if t.nodes[id].folded {
		return t.Unfold(id)
	}
	t.Fold(id)
	return nil
}

// FoldAll folds every materialized directory below the root.
func (t *Tree) FoldAll() {
	for i := range t.nodes {
		n := &t.nodes[i]
		if !n.dead && n.isDir && NodeID(i) != t.root {
			n.folded = true
		}
	}
}

// UnfoldAll unfolds and expands everything reachable from the given node,
// breadth first, stopping at the arena's MaxNodes bound. Canonical paths
// seen during this expansion are expanded at most once, which breaks
// symlink cycles. Returns true when the bound cut the expansion short.
func (t *Tree) UnfoldAll(from NodeID) bool {
	if !t.valid(from) {
		return false
	}
	seen := map[string]bool{}
	queue := []NodeID{from}
	truncated := false
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		t.nodes[id].folded = false
		if !t.nodes[id].isDir {
			continue
		}
		canon := canonical(t.nodes[id].path)
		if seen[canon] {
			continue
		}
		seen[canon] = true
		if t.live >= t.opt.MaxNodes {
			truncated = true
			continue
		}
		if !t.nodes[id].populated {
			if err := t.Expand(id); err != nil {
				continue
			}
		}
		queue = append(queue, t.nodes[id].children...)
	}
	return truncated
}

// VisibleSeq is the pre-order walk of the arena with folded subtrees
// skipped. A folded directory itself remains visible.
func (t *Tree) VisibleSeq() []NodeID {
	if !t.valid(t.root) {
		return nil
	}
	out := make([]NodeID, 0, t.live)
	var walk func(id NodeID)
	walk = func(id NodeID) {
		if !t.valid(id) {
			return
		}
		out = append(out, id)
		if t.nodes[id].folded {
			return
		}
		for _, c := range t.nodes[id].children {
			walk(c)
		}
	}
	walk(t.root)
	return out
}

// NextVisible steps forward in the visible sequence, holding at the last
// visible leaf. An invalid handle resolves to the root.
func (t *Tree) NextVisible(id NodeID) NodeID {
	return t.stepVisible(id, 1)
}

// PrevVisible steps backward, holding at the root.
func (t *Tree) PrevVisible(id NodeID) NodeID {
	return t.stepVisible(id, -1)
}

func (t *Tree) stepVisible(id NodeID, delta int) NodeID {
	seq := t.VisibleSeq()
	if len(seq) == 0 {
		return None
	}
	idx := -1
	for i, n := range seq {
		if n == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return seq[0]
	}
	idx += delta
	if idx < 0 || idx >= len(seq) {
		return id
	}
	return seq[idx]
}

// NextSibling moves to the following sibling, wrapping from last to first.
func (t *Tree) NextSibling(id NodeID) NodeID {
	return t.sibling(id, 1)
}

// PrevSibling moves to the preceding sibling, wrapping from first to last.
func (t *Tree) PrevSibling(id NodeID) NodeID {
	return t.sibling(id, -1)
}

func (t *Tree) sibling(id NodeID, delta int) NodeID {
	if !t.valid(id) {
		return t.root
	}
	parent := t.nodes[id].parent
	if parent == None {
		return id
	}
	sibs := t.nodes[parent].children
	for i, s := range sibs {
		if s == id {
			return sibs[(i+delta+len(sibs))%len(sibs)]
		}
	}
	return id
}

// Invalidate drops the subtree backing path so the next visit re-expands
// it instead of showing stale children. When path itself is not a node,
// the enclosing directory's node is invalidated instead.
func (t *Tree) Invalidate(path string) {
	path = filepath.Clean(path)
	id, ok := t.byPath[path]
	if !ok {
		id, ok = t.byPath[filepath.Dir(path)]
	}
	if !ok || !t.valid(id) {
		return
	}
	t.dropChildren(id)
	t.nodes[id].populated = false
}

func (t *Tree) dropChildren(id NodeID) {
	for _, c := range t.nodes[id].children {
		if !t.valid(c) {
			continue
		}
		t.dropChildren(c)
		delete(t.byPath, t.nodes[c].path)
		t.nodes[c].dead = true
		t.live--
	}
	t.nodes[id].children = nil
}

// canonical resolves symlinks best-effort; an unresolvable path falls
// back to its cleaned form.
func canonical(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	return filepath.Clean(path)
}

// RelLine renders the node's indent and name for display; directories
// carry a fold marker. Kept here so the view never touches the arena.
func (t *Tree) RelLine(id NodeID) string {
	if !t.valid(id) {
		return ""
	}
	n := t.nodes[id]
	var b strings.Builder
	b.WriteString(strings.Repeat("  ", n.depth))
	if n.isDir {
		if n.folded {
			b.WriteString("▸ ")
		} else {
			b.WriteString("▾ ")
		}
	} else {
		b.WriteString("  ")
	}
	if id == t.root {
		b.WriteString(n.path)
	} else {
		b.WriteString(filepath.Base(n.path))
	}
	return b.String()
}

// SortPaths is a testing convenience: the visible sequence as paths.
func (t *Tree) SortPaths() []string {
	seq := t.VisibleSeq()
	out := make([]string, len(seq))
	for i, id := range seq {
		out[i] = t.nodes[id].path
	}
	return out
}

// Refreshable reports directories currently materialized and unfolded,
// used by the refresh watcher to know what to poll.
func (t *Tree) Refreshable() []string {
	var dirs []string
	for i := range t.nodes {
		n := t.nodes[i]
		if !n.dead && n.isDir && n.populated && !n.folded {
			dirs = append(dirs, n.path)
		}
	}
	sort.Strings(dirs)
	return dirs
}
