package session

import (
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"

	"rovefs/internal/fsx"
	"rovefs/internal/preview"
	"rovefs/internal/tree"
)

const historyCap = 100

// Settings are the per-tab listing knobs.
type Settings struct {
	Hidden bool
	Sort   fsx.SortKind
	Filter fsx.Filter
}

// Tab is one browsing context. All fields are owned by the session and
// only touched on the update goroutine.
type Tab struct {
	ID        int
	Dir       string
	OriginDir string
	Entries   []fsx.FileEntry
	Cursor    int
	Top       int
	Height    int
	Display   DisplayMode
	Edit      EditMode
	Show      Settings
	Search    string
	Loading   bool

	Tree    *tree.Tree
	TreeCur tree.NodeID

	PreviewRes *preview.Result
	PreviewOff int
	Gen        uint64

	FlagCur int
	HelpOff int

	prevModes     []DisplayMode
	prevDir       string
	hist          []string
	pendingSelect string
}

func (t *Tab) opts() fsx.ListOptions {
	return fsx.ListOptions{ShowHidden: t.Show.Hidden, Filter: t.Show.Filter, Sort: t.Show.Sort}
}

// Current is the entry under the cursor.
func (t *Tab) Current() (fsx.FileEntry, bool) {
	if t.Cursor < 0 || t.Cursor >= len(t.Entries) {
		return fsx.FileEntry{}, false
	}
	return t.Entries[t.Cursor], true
}

// CurrentPath is the cursor path, or the directory itself when the
// listing is empty.
func (t *Tab) CurrentPath() string {
	if e, ok := t.Current(); ok {
		return e.Path
	}
	return t.Dir
}

// setEntries installs a fresh listing, honoring a pending reselect and
// keeping the cursor on the same name when possible.
func (t *Tab) setEntries(entries []fsx.FileEntry) {
	prevName := ""
	if e, ok := t.Current(); ok {
		prevName = e.Name
	}
	want := t.pendingSelect
	t.pendingSelect = ""
	t.Entries = entries
	t.Loading = false

	if want != "" {
		if i := t.indexOf(want); i >= 0 {
			t.cursorTo(i)
			return
		}
	}
	if prevName != "" {
		if i := t.indexOf(prevName); i >= 0 {
			t.cursorTo(i)
			return
		}
	}
	t.clamp()
}

func (t *Tab) indexOf(name string) int {
	for i, e := range t.Entries {
		if e.Name == name {
			return i
		}
	}
	return -1
}

// clamp keeps the cursor inside the listing, -1 only when empty.
func (t *Tab) clamp() {
	if len(t.Entries) == 0 {
		t.Cursor = -1
		t.Top = 0
		return
	}
	if t.Cursor < 0 {
		t.Cursor = 0
	}
	if t.Cursor >= len(t.Entries) {
		t.Cursor = len(t.Entries) - 1
	}
	t.scroll()
}

func (t *Tab) cursorTo(i int) {
	t.Cursor = i
	t.clamp()
}

func (t *Tab) moveCursor(delta int) {
	if len(t.Entries) == 0 {
		return
	}
	t.cursorTo(t.Cursor + delta)
}

// scroll keeps the cursor inside the window.
func (t *Tab) scroll() {
	h := t.Height
	if h <= 0 {
		h = 1
	}
	if t.Cursor < t.Top {
		t.Top = t.Cursor
	}
	if t.Cursor >= t.Top+h {
		t.Top = t.Cursor - h + 1
	}
	if t.Top < 0 {
		t.Top = 0
	}
}

// cd moves the tab to dir; the caller issues the listing request.
func (t *Tab) cd(dir string) {
	if dir == t.Dir {
		return
	}
	t.prevDir = t.Dir
	t.pushHistory(t.Dir)
	t.Dir = dir
	t.Cursor = 0
	t.Top = 0
	t.Loading = true
	t.Entries = nil
}

func (t *Tab) pushHistory(dir string) {
	if n := len(t.hist); n > 0 && t.hist[n-1] == dir {
		return
	}
	t.hist = append(t.hist, dir)
	if len(t.hist) > historyCap {
		t.hist = t.hist[len(t.hist)-historyCap:]
	}
}

// History is most recent first.
func (t *Tab) History() []string {
	out := make([]string, 0, len(t.hist))
	for i := len(t.hist) - 1; i >= 0; i-- {
		out = append(out, t.hist[i])
	}
	return out
}

func (t *Tab) pushMode(m DisplayMode) {
	t.prevModes = append(t.prevModes, t.Display)
	t.Display = m
}

// popMode returns to the previously active display mode.
func (t *Tab) popMode() {
	n := len(t.prevModes)
	if n == 0 {
		t.Display = ModeDirectory
		return
	}
	t.Display = t.prevModes[n-1]
	t.prevModes = t.prevModes[:n-1]
}

// scrollPreview moves the preview window, clamped to the result.
func (t *Tab) scrollPreview(delta int) {
	t.PreviewOff += delta
	max := 0
	if t.PreviewRes != nil {
		max = len(t.PreviewRes.Lines) - t.Height
	}
	if max < 0 {
		max = 0
	}
	if t.PreviewOff > max {
		t.PreviewOff = max
	}
	if t.PreviewOff < 0 {
		t.PreviewOff = 0
	}
}

// nextToken mints the preview generation for the next request. Tokens
// only grow, so stale results are recognizable on arrival.
func (t *Tab) nextToken() uint64 {
	t.Gen++
	return t.Gen
}

func (t *Tab) previewRequest(path string, byteCap int64, width int) preview.Request {
	return preview.Request{Path: path, Tab: t.ID, Gen: t.nextToken(), ByteCap: byteCap, Width: width}
}

// matchName is the search predicate: a glob when the query carries
// meta characters, a case-insensitive substring otherwise.
func matchName(query, name string) bool {
	if query == "" {
		return false
	}
	if strings.ContainsAny(query, "*?[") {
		if g, err := glob.Compile(query); err == nil {
			return g.Match(name)
		}
	}
	return strings.Contains(strings.ToLower(name), strings.ToLower(query))
}

// nextMatch finds the first entry after the cursor matching the tab's
// search, wrapping around; -1 when nothing matches.
func (t *Tab) nextMatch() int {
	n := len(t.Entries)
	if n == 0 || t.Search == "" {
		return -1
	}
	for off := 1; off <= n; off++ {
		i := ((t.Cursor + off) % n + n) % n
		if matchName(t.Search, t.Entries[i].Name) {
			return i
		}
	}
	return -1
}

// clampFlagCur bounds the flagged-view cursor against the set size,
// which lives on the session.
func (t *Tab) clampFlagCur(n int) {
	if n == 0 {
		t.FlagCur = 0
		return
	}
	if t.FlagCur < 0 {
		t.FlagCur = 0
	}
	if t.FlagCur >= n {
		t.FlagCur = n - 1
	}
}

// dirFor resolves where an entry's activation lands: a navigable entry
// resolves to itself, anything else to its parent.
func dirFor(e fsx.FileEntry) string {
	if e.Navigable() {
		return e.Path
	}
	return filepath.Dir(e.Path)
}
