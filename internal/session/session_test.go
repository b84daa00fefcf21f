package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rovefs/internal/config"
	"rovefs/internal/fsx"
	"rovefs/internal/preview"
	"rovefs/internal/transfer"
)

func newTestSession(t *testing.T, cfg config.Config, files ...string) (*Session, string) {
	t.Helper()
	dir := t.TempDir()
	for _, name := range files {
		path := filepath.Join(dir, name)
		if filepath.Ext(name) == "" && name[0] != '.' {
			require.NoError(t, os.Mkdir(path, 0o755))
		} else {
			require.NoError(t, os.WriteFile(path, []byte(name), 0o644))
		}
	}
	cfg.StartPath = dir
	s := New(Options{Config: cfg, Dirs: []string{dir}, MarksPath: filepath.Join(t.TempDir(), "marks")})
	pump(t, s, s.Bootstrap())
	return s, dir
}

// pump services listing requests synchronously, standing in for the ui
// goroutine.
func pump(t *testing.T, s *Session, eff Effect) Effect {
	t.Helper()
	for len(eff.Lists) > 0 {
		lists := eff.Lists
		eff.Lists = nil
		for _, req := range lists {
			entries, err := fsx.ReadDir(req.Dir, req.Opts)
			eff.merge(s.ApplyListing(req.TabID, req.Dir, entries, err))
		}
	}
	return eff
}

func do(t *testing.T, s *Session, acts ...Action) Effect {
	t.Helper()
	var last Effect
	for _, a := range acts {
		last = pump(t, s, s.Dispatch(a))
	}
	return last
}

func key(k ActionKind) Action { return Action{Kind: k} }
func rn(r rune) Action        { return Action{Kind: ActRune, Rune: r} }

func typeLine(t *testing.T, s *Session, text string) {
	t.Helper()
	for _, r := range text {
		do(t, s, rn(r))
	}
}

func selectName(t *testing.T, s *Session, name string) {
	t.Helper()
	tb := s.ActiveTab()
	i := tb.indexOf(name)
	require.GreaterOrEqual(t, i, 0, "entry %q not listed", name)
	tb.cursorTo(i)
}

func TestFlagPersistsAcrossNavigation(t *testing.T) {
	s, dir := newTestSession(t, config.Default(), "a.txt", "b.txt", "sub")
	selectName(t, s, "a.txt")
	do(t, s, key(ActToggleFlag))
	flagged := filepath.Join(dir, "a.txt")
	require.True(t, s.Flagged().Contains(flagged))

	selectName(t, s, "sub")
	do(t, s, key(ActEnter))
	require.Equal(t, filepath.Join(dir, "sub"), s.CurrentDir())
	do(t, s, key(ActLeft))
	require.Equal(t, dir, s.CurrentDir())

	assert.True(t, s.Flagged().Contains(flagged))
	assert.Equal(t, 1, s.Flagged().Len())
}

func TestCdParentSelectsChildLeft(t *testing.T) {
	s, dir := newTestSession(t, config.Default(), "sub", "a.txt")
	selectName(t, s, "sub")
	do(t, s, key(ActEnter))
	do(t, s, key(ActLeft))

	require.Equal(t, dir, s.CurrentDir())
	e, ok := s.CurrentEntry()
	require.True(t, ok)
	assert.Equal(t, "sub", e.Name)
}

func TestStalePreviewDropped(t *testing.T) {
	s, dir := newTestSession(t, config.Default(), "a.txt", "b.txt")
	selectName(t, s, "a.txt")
	eff := s.Dispatch(key(ActPreview))
	require.Len(t, eff.Previews, 1)
	first := eff.Previews[0]
	require.Equal(t, filepath.Join(dir, "a.txt"), first.Path)

	eff = s.Dispatch(key(ActRight))
	require.Len(t, eff.Previews, 1)
	second := eff.Previews[0]
	require.Equal(t, filepath.Join(dir, "b.txt"), second.Path)
	require.Greater(t, second.Gen, first.Gen)

	// the older result arrives last and must not win
	s.ApplyPreview(preview.Result{Path: second.Path, Tab: second.Tab, Gen: second.Gen, Lines: []string{"b"}})
	s.ApplyPreview(preview.Result{Path: first.Path, Tab: first.Tab, Gen: first.Gen, Lines: []string{"a"}})

	res := s.ActiveTab().PreviewRes
	require.NotNil(t, res)
	assert.Equal(t, second.Path, res.Path)
	assert.Equal(t, second.Gen, res.Gen)
}

func TestRenameEscapeChangesNothing(t *testing.T) {
	s, dir := newTestSession(t, config.Default(), "a.txt", "b.txt")
	selectName(t, s, "b.txt")
	do(t, s, key(ActRename))
	require.IsType(t, &InputMode{}, s.ActiveTab().Edit)
	typeLine(t, s, "c.txt")
	do(t, s, key(ActEscape))

	assert.Nil(t, s.ActiveTab().Edit)
	assert.Equal(t, ModeDirectory, s.ActiveTab().Display)
	e, ok := s.CurrentEntry()
	require.True(t, ok)
	assert.Equal(t, "b.txt", e.Name)
	assert.FileExists(t, filepath.Join(dir, "b.txt"))
	assert.NoFileExists(t, filepath.Join(dir, "c.txt"))
}

func TestRenameEnterRenamesAndReselects(t *testing.T) {
	s, dir := newTestSession(t, config.Default(), "a.txt", "b.txt")
	selectName(t, s, "b.txt")
	do(t, s, key(ActRename))
	typeLine(t, s, "c.txt")
	eff := do(t, s, key(ActEnter))

	assert.Equal(t, "renamed to c.txt", eff.Status)
	assert.Nil(t, s.ActiveTab().Edit)
	assert.NoFileExists(t, filepath.Join(dir, "b.txt"))
	assert.FileExists(t, filepath.Join(dir, "c.txt"))
	e, ok := s.CurrentEntry()
	require.True(t, ok)
	assert.Equal(t, "c.txt", e.Name)
}

func TestRenameToExistingKeepsPrompt(t *testing.T) {
	s, dir := newTestSession(t, config.Default(), "a.txt", "b.txt")
	selectName(t, s, "b.txt")
	do(t, s, key(ActRename))
	typeLine(t, s, "a.txt")
	eff := do(t, s, key(ActEnter))

	assert.True(t, eff.StatusErr)
	assert.NotNil(t, s.ActiveTab().Edit, "prompt should stay open for correction")
	assert.FileExists(t, filepath.Join(dir, "b.txt"))
}

func TestDeleteConfirmGate(t *testing.T) {
	s, dir := newTestSession(t, config.Default(), "a.txt", "b.txt")
	selectName(t, s, "a.txt")
	do(t, s, key(ActToggleFlag))
	do(t, s, key(ActDeleteFile))

	cm, ok := s.ActiveTab().Edit.(*ConfirmMode)
	require.True(t, ok)
	assert.Equal(t, ConfirmDelete, cm.Action)
	assert.Equal(t, []string{filepath.Join(dir, "a.txt")}, cm.Paths)

	// stray keys are swallowed, only y commits and n cancels
	do(t, s, rn('x'), key(ActUp), key(ActEnter))
	require.Same(t, cm, s.ActiveTab().Edit)

	eff := do(t, s, rn('n'))
	assert.Nil(t, s.ActiveTab().Edit)
	assert.Empty(t, eff.Jobs)
	assert.FileExists(t, filepath.Join(dir, "a.txt"))

	do(t, s, key(ActDeleteFile))
	eff = do(t, s, rn('y'))
	require.Len(t, eff.Jobs, 1)
	assert.Equal(t, transfer.OpDelete, eff.Jobs[0].Op)
}

func TestDeleteFlagsCursorWhenNothingFlagged(t *testing.T) {
	s, dir := newTestSession(t, config.Default(), "a.txt")
	require.Zero(t, s.Flagged().Len())
	selectName(t, s, "a.txt")
	do(t, s, key(ActTrash))

	cm, ok := s.ActiveTab().Edit.(*ConfirmMode)
	require.True(t, ok)
	assert.Equal(t, ConfirmTrash, cm.Action)
	assert.Equal(t, []string{filepath.Join(dir, "a.txt")}, cm.Paths)
}

func TestTransferNeedsFlags(t *testing.T) {
	s, _ := newTestSession(t, config.Default(), "a.txt")
	eff := do(t, s, key(ActCopy))
	assert.Equal(t, "nothing flagged", eff.Status)
	assert.Empty(t, eff.Jobs)
}

func TestApplyTransferClearsFlagsAndRefreshes(t *testing.T) {
	s, dir := newTestSession(t, config.Default(), "a.txt")
	var deleted []string
	s.SetNotify(func(ev Event) {
		if ev.Kind == EventDeleted {
			deleted = append(deleted, ev.Path)
		}
	})
	selectName(t, s, "a.txt")
	do(t, s, key(ActToggleFlag), key(ActDeleteFile))
	eff := s.Dispatch(rn('y'))
	require.Len(t, eff.Jobs, 1)
	job := eff.Jobs[0]

	done := s.ApplyTransfer(transfer.Progress{
		JobID: job.ID, Op: job.Op, Status: transfer.StatusCompleted,
		FilesDone: 1, FilesTotal: 1,
	})
	assert.Zero(t, s.Flagged().Len(), "destructive terminal clears job flags")
	assert.NotEmpty(t, done.Lists, "source directory re-listed")
	assert.Contains(t, done.Status, "delete")
	assert.Equal(t, []string{filepath.Join(dir, "a.txt")}, deleted)
}

func TestApplyListingForLeftDirIsDropped(t *testing.T) {
	s, dir := newTestSession(t, config.Default(), "a.txt")
	tb := s.ActiveTab()
	before := len(tb.Entries)
	s.ApplyListing(tb.ID, filepath.Join(dir, "elsewhere"), nil, nil)
	assert.Len(t, tb.Entries, before, "stale listing must not land")
}

func TestSortModePicksKey(t *testing.T) {
	s, _ := newTestSession(t, config.Default(), "a.txt", "b.txt")
	do(t, s, key(ActSort))
	require.IsType(t, &SortMode{}, s.ActiveTab().Edit)

	// unknown rune leaves the mode waiting
	do(t, s, rn('!'))
	require.NotNil(t, s.ActiveTab().Edit)

	eff := do(t, s, rn('S'))
	assert.Nil(t, s.ActiveTab().Edit)
	assert.Equal(t, fsx.SortBySize, s.ActiveTab().Show.Sort.Key)
	assert.True(t, s.ActiveTab().Show.Sort.Desc)
	assert.Contains(t, eff.Status, "size desc")
}

func TestFilterCommitAndBadPattern(t *testing.T) {
	s, _ := newTestSession(t, config.Default(), "a.txt", "b.md")
	do(t, s, key(ActFilter))
	typeLine(t, s, "n [")
	eff := do(t, s, key(ActEnter))
	assert.True(t, eff.StatusErr)
	require.NotNil(t, s.ActiveTab().Edit, "bad pattern keeps the prompt")

	m := s.ActiveTab().Edit.(*InputMode)
	m.Line.Set("e txt")
	eff = do(t, s, key(ActEnter))
	assert.Nil(t, s.ActiveTab().Edit)
	assert.Contains(t, eff.Status, "filter")
	require.Len(t, s.ActiveTab().Entries, 1)
	assert.Equal(t, "a.txt", s.ActiveTab().Entries[0].Name)
}

func TestSearchJumpsAndWraps(t *testing.T) {
	s, _ := newTestSession(t, config.Default(), "alpha.txt", "beta.txt", "betb.txt")
	do(t, s, key(ActSearch))
	typeLine(t, s, "bet")
	do(t, s, key(ActEnter))
	e, _ := s.CurrentEntry()
	assert.Equal(t, "beta.txt", e.Name)

	do(t, s, key(ActSearchNext))
	e, _ = s.CurrentEntry()
	assert.Equal(t, "betb.txt", e.Name)

	do(t, s, key(ActSearchNext))
	e, _ = s.CurrentEntry()
	assert.Equal(t, "beta.txt", e.Name, "search wraps around")
}

func TestRegexMatchFlagsEntries(t *testing.T) {
	s, dir := newTestSession(t, config.Default(), "main.go", "util.go", "notes.txt")
	do(t, s, key(ActRegexMatch))
	typeLine(t, s, `\.go$`)
	eff := do(t, s, key(ActEnter))

	assert.Equal(t, "2 flagged", eff.Status)
	assert.True(t, s.Flagged().Contains(filepath.Join(dir, "main.go")))
	assert.True(t, s.Flagged().Contains(filepath.Join(dir, "util.go")))
	assert.False(t, s.Flagged().Contains(filepath.Join(dir, "notes.txt")))
}

func TestBadRegexKeepsPrompt(t *testing.T) {
	s, _ := newTestSession(t, config.Default(), "a.txt")
	do(t, s, key(ActRegexMatch))
	typeLine(t, s, "([")
	eff := do(t, s, key(ActEnter))
	assert.True(t, eff.StatusErr)
	assert.NotNil(t, s.ActiveTab().Edit)
}

func TestNewFileCreatesAndSelects(t *testing.T) {
	s, dir := newTestSession(t, config.Default(), "z.txt")
	do(t, s, key(ActNewFile))
	typeLine(t, s, "made.txt")
	eff := do(t, s, key(ActEnter))

	assert.Equal(t, "created made.txt", eff.Status)
	assert.FileExists(t, filepath.Join(dir, "made.txt"))
	e, ok := s.CurrentEntry()
	require.True(t, ok)
	assert.Equal(t, "made.txt", e.Name)
}

func TestNewFileExistingKeepsPrompt(t *testing.T) {
	s, _ := newTestSession(t, config.Default(), "a.txt")
	do(t, s, key(ActNewFile))
	typeLine(t, s, "a.txt")
	eff := do(t, s, key(ActEnter))
	assert.True(t, eff.StatusErr)
	assert.NotNil(t, s.ActiveTab().Edit)
}

func TestNewDirCreates(t *testing.T) {
	s, dir := newTestSession(t, config.Default(), "a.txt")
	do(t, s, key(ActNewDir))
	typeLine(t, s, "made")
	do(t, s, key(ActEnter))
	assert.DirExists(t, filepath.Join(dir, "made"))
}

func TestChmodAppliesOctal(t *testing.T) {
	s, dir := newTestSession(t, config.Default(), "a.txt")
	selectName(t, s, "a.txt")
	do(t, s, key(ActChmod))
	typeLine(t, s, "9zz")
	eff := do(t, s, key(ActEnter))
	assert.True(t, eff.StatusErr)
	require.NotNil(t, s.ActiveTab().Edit, "bad octal keeps the prompt")

	m := s.ActiveTab().Edit.(*InputMode)
	m.Line.Set("600")
	do(t, s, key(ActEnter))
	assert.Nil(t, s.ActiveTab().Edit)
	info, err := os.Stat(filepath.Join(dir, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestGotoDirAndFile(t *testing.T) {
	s, dir := newTestSession(t, config.Default(), "sub", "a.txt")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "inner.txt"), []byte("x"), 0o644))

	do(t, s, key(ActGoto))
	typeLine(t, s, "sub/inner.txt")
	do(t, s, key(ActEnter))

	assert.Equal(t, filepath.Join(dir, "sub"), s.CurrentDir())
	e, ok := s.CurrentEntry()
	require.True(t, ok)
	assert.Equal(t, "inner.txt", e.Name)

	do(t, s, key(ActGoto))
	typeLine(t, s, "missing")
	eff := do(t, s, key(ActEnter))
	assert.True(t, eff.StatusErr)
	assert.NotNil(t, s.ActiveTab().Edit, "unknown path keeps the prompt")
}

func TestGotoTabCompletion(t *testing.T) {
	s, dir := newTestSession(t, config.Default(), "alpha", "a.txt")
	do(t, s, key(ActGoto))
	typeLine(t, s, "al")
	do(t, s, key(ActTab))

	m := s.ActiveTab().Edit.(*InputMode)
	assert.Equal(t, "alpha/", m.Line.String())

	do(t, s, key(ActEnter))
	assert.Equal(t, filepath.Join(dir, "alpha"), s.CurrentDir())
}

func TestShellCommitExpandsPlaceholders(t *testing.T) {
	s, dir := newTestSession(t, config.Default(), "a.txt")
	selectName(t, s, "a.txt")
	do(t, s, key(ActShell))
	typeLine(t, s, "wc -c $f")
	eff := do(t, s, key(ActEnter))

	require.NotNil(t, eff.Shell)
	assert.Equal(t, "wc -c '"+filepath.Join(dir, "a.txt")+"'", eff.Shell.Cmdline)
	assert.Equal(t, dir, eff.Shell.Dir)

	st := s.State()
	assert.Equal(t, []string{"wc -c $f"}, st.InputHistory[InputShell.String()])
}

func TestEmptyShellGoesInteractive(t *testing.T) {
	s, _ := newTestSession(t, config.Default(), "a.txt")
	do(t, s, key(ActShell))
	eff := do(t, s, key(ActEnter))
	require.NotNil(t, eff.Interactive)
	assert.Equal(t, FollowReload, eff.Interactive.Follow)
	assert.Nil(t, eff.Shell)
}

func TestExecRunsProgramOnCurrentFile(t *testing.T) {
	s, dir := newTestSession(t, config.Default(), "a.txt")
	selectName(t, s, "a.txt")
	do(t, s, key(ActExec))
	typeLine(t, s, "wc -l")
	eff := do(t, s, key(ActEnter))

	require.NotNil(t, eff.Shell)
	assert.Equal(t, "wc -l '"+filepath.Join(dir, "a.txt")+"'", eff.Shell.Cmdline)
}

func TestInputHistoryCycles(t *testing.T) {
	s, _ := newTestSession(t, config.Default(), "a.txt")
	do(t, s, key(ActShell))
	typeLine(t, s, "true")
	do(t, s, key(ActEnter))
	do(t, s, key(ActShell))
	typeLine(t, s, "false")
	do(t, s, key(ActEnter))

	do(t, s, key(ActShell))
	m := s.ActiveTab().Edit.(*InputMode)
	do(t, s, key(ActUp))
	assert.Equal(t, "false", m.Line.String())
	do(t, s, key(ActUp))
	assert.Equal(t, "true", m.Line.String())
	do(t, s, key(ActDown), key(ActDown))
	assert.Equal(t, "", m.Line.String(), "stepping past the newest clears the line")
	do(t, s, key(ActEscape))
}

func TestMarkSetAndJumpByRune(t *testing.T) {
	s, dir := newTestSession(t, config.Default(), "sub", "a.txt")
	eff := do(t, s, key(ActMarkSet), rn('q'))
	assert.Contains(t, eff.Status, "marked")
	got, ok := s.Marks().Get('q')
	require.True(t, ok)
	assert.Equal(t, dir, got)

	selectName(t, s, "sub")
	do(t, s, key(ActEnter))
	require.NotEqual(t, dir, s.CurrentDir())

	do(t, s, key(ActMarkJump))
	require.IsType(t, &NavigateMode{}, s.ActiveTab().Edit)
	do(t, s, rn('q'))
	assert.Nil(t, s.ActiveTab().Edit)
	assert.Equal(t, dir, s.CurrentDir())
}

func TestMarkJumpWithoutMarks(t *testing.T) {
	s, _ := newTestSession(t, config.Default(), "a.txt")
	eff := do(t, s, key(ActMarkJump))
	assert.Equal(t, "no marks set", eff.Status)
	assert.Nil(t, s.ActiveTab().Edit)
}

func TestMarksFileRoundTripSkipsMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "marks")
	raw := "q:/tmp/alpha\nnot a mark line\nxx:/tmp/beta\nw:\n:/tmp/gamma\nz:/tmp/delta\n"
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	m := LoadMarks(path)
	require.Equal(t, 2, m.Len())
	got, ok := m.Get('q')
	require.True(t, ok)
	assert.Equal(t, "/tmp/alpha", got)
	_, ok = m.Get('x')
	assert.False(t, ok)

	// Junk lines are dropped on load and the file rewritten clean.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "q:/tmp/alpha\nz:/tmp/delta\n", string(data))

	require.NoError(t, m.Set('h', "/tmp/home"))
	again := LoadMarks(path)
	assert.Equal(t, 3, again.Len())
	dir, _ := again.Get('h')
	assert.Equal(t, "/tmp/home", dir)
}

func TestHistoryMenuNavigates(t *testing.T) {
	s, dir := newTestSession(t, config.Default(), "sub", "a.txt")
	sub := filepath.Join(dir, "sub")
	selectName(t, s, "sub")
	do(t, s, key(ActEnter), key(ActLeft))

	do(t, s, key(ActHistory))
	nav, ok := s.ActiveTab().Edit.(*NavigateMode)
	require.True(t, ok)
	require.NotEmpty(t, nav.Items)
	assert.Equal(t, sub, nav.Items[0].Value, "most recent first")

	do(t, s, key(ActEnter))
	assert.Equal(t, sub, s.CurrentDir())
}

func TestJobMenuCancelsRunningJob(t *testing.T) {
	s, dir := newTestSession(t, config.Default(), "a.txt")
	selectName(t, s, "a.txt")
	do(t, s, key(ActToggleFlag), key(ActDeleteFile))
	eff := s.Dispatch(rn('y'))
	require.Len(t, eff.Jobs, 1)
	job := eff.Jobs[0]
	s.ApplyTransfer(transfer.Progress{
		JobID: job.ID, Op: job.Op, Status: transfer.StatusRunning,
		FilesTotal: 1, Current: filepath.Join(dir, "a.txt"),
	})

	do(t, s, key(ActJobs))
	require.IsType(t, &NavigateMode{}, s.ActiveTab().Edit)
	do(t, s, key(ActEnter))
	cm, ok := s.ActiveTab().Edit.(*ConfirmMode)
	require.True(t, ok)
	assert.Equal(t, ConfirmCancelJob, cm.Action)

	got := do(t, s, rn('y'))
	assert.True(t, got.CancelJob)
}

func TestTabLifecycle(t *testing.T) {
	cfg := config.Default()
	cfg.MaxTabs = 2
	s, dir := newTestSession(t, cfg, "a.txt")

	do(t, s, key(ActTabNew))
	require.Len(t, s.Tabs(), 2)
	assert.Equal(t, 1, s.ActiveIndex())
	assert.Equal(t, dir, s.CurrentDir())

	eff := do(t, s, key(ActTabNew))
	assert.Contains(t, eff.Status, "tab limit")
	assert.Len(t, s.Tabs(), 2)

	do(t, s, key(ActTabNext))
	assert.Equal(t, 0, s.ActiveIndex())
	do(t, s, key(ActTabPrev))
	assert.Equal(t, 1, s.ActiveIndex())

	do(t, s, key(ActTabClose))
	assert.Len(t, s.Tabs(), 1)

	eff = do(t, s, key(ActTabClose))
	assert.True(t, eff.Quit, "closing the last tab quits")
}

func TestPaneToggleCreatesBuddy(t *testing.T) {
	s, dir := newTestSession(t, config.Default(), "a.txt")
	require.Nil(t, s.BuddyTab())

	do(t, s, key(ActPaneToggle))
	assert.True(t, s.Dual())
	buddy := s.BuddyTab()
	require.NotNil(t, buddy)
	assert.Equal(t, dir, buddy.Dir)
	assert.NotSame(t, s.ActiveTab(), buddy)

	do(t, s, key(ActPaneToggle))
	assert.False(t, s.Dual())
}

func TestHelpToggle(t *testing.T) {
	s, _ := newTestSession(t, config.Default(), "a.txt")
	do(t, s, key(ActHelp))
	assert.Equal(t, ModeHelp, s.ActiveTab().Display)
	do(t, s, key(ActDown), key(ActDown))
	assert.Equal(t, 2, s.ActiveTab().HelpOff)
	do(t, s, key(ActEscape))
	assert.Equal(t, ModeDirectory, s.ActiveTab().Display)
}

func TestTreeEnterLeaveTearsArenaDown(t *testing.T) {
	s, _ := newTestSession(t, config.Default(), "sub", "a.txt")
	do(t, s, key(ActTree))
	require.Equal(t, ModeTree, s.ActiveTab().Display)
	require.NotNil(t, s.ActiveTab().Tree)

	do(t, s, key(ActEscape))
	assert.Equal(t, ModeDirectory, s.ActiveTab().Display)
	assert.Nil(t, s.ActiveTab().Tree, "arena is dropped on leave")
}

func TestFlaggedViewUnflagsUnderCursor(t *testing.T) {
	s, dir := newTestSession(t, config.Default(), "a.txt", "b.txt")
	selectName(t, s, "a.txt")
	do(t, s, key(ActToggleFlag), key(ActToggleFlag))
	require.Equal(t, 2, s.Flagged().Len())

	do(t, s, key(ActFlaggedView))
	require.Equal(t, ModeFlagged, s.ActiveTab().Display)
	do(t, s, key(ActToggleFlag))
	assert.Equal(t, 1, s.Flagged().Len())
	assert.False(t, s.Flagged().Contains(filepath.Join(dir, "a.txt")))

	do(t, s, key(ActEscape))
	assert.Equal(t, ModeDirectory, s.ActiveTab().Display)
}

func TestBulkRenameApply(t *testing.T) {
	s, dir := newTestSession(t, config.Default(), "one.txt", "two.txt")
	srcs := []string{filepath.Join(dir, "one.txt"), filepath.Join(dir, "two.txt")}
	tmp := filepath.Join(t.TempDir(), "names")
	require.NoError(t, os.WriteFile(tmp, []byte("uno.txt\ntwo.txt\n"), 0o644))

	eff := s.applyBulkRenames(&BulkEditMode{TmpPath: tmp, Sources: srcs})
	eff = pump(t, s, eff)

	assert.Equal(t, "renamed 1 file(s)", eff.Status)
	assert.FileExists(t, filepath.Join(dir, "uno.txt"))
	assert.FileExists(t, filepath.Join(dir, "two.txt"))
	assert.NoFileExists(t, filepath.Join(dir, "one.txt"))
}

func TestBulkRenameCountMismatchAborts(t *testing.T) {
	s, dir := newTestSession(t, config.Default(), "one.txt", "two.txt")
	srcs := []string{filepath.Join(dir, "one.txt"), filepath.Join(dir, "two.txt")}
	tmp := filepath.Join(t.TempDir(), "names")
	require.NoError(t, os.WriteFile(tmp, []byte("only.txt\n"), 0o644))

	eff := s.applyBulkRenames(&BulkEditMode{TmpPath: tmp, Sources: srcs})
	assert.True(t, eff.StatusErr)
	assert.FileExists(t, filepath.Join(dir, "one.txt"))
	assert.FileExists(t, filepath.Join(dir, "two.txt"))
}

func TestStartBulkEditWritesNames(t *testing.T) {
	s, dir := newTestSession(t, config.Default(), "one.txt", "two.txt")
	selectName(t, s, "one.txt")
	do(t, s, key(ActToggleFlag), key(ActToggleFlag))

	eff := s.Dispatch(key(ActBulkEdit))
	require.NotNil(t, eff.Interactive)
	assert.Equal(t, FollowBulkApply, eff.Interactive.Follow)

	bulk, ok := s.ActiveTab().Edit.(*BulkEditMode)
	require.True(t, ok)
	t.Cleanup(func() { os.Remove(bulk.TmpPath) })
	data, err := os.ReadFile(bulk.TmpPath)
	require.NoError(t, err)
	assert.Equal(t, "one.txt\ntwo.txt\n", string(data))
	assert.Equal(t, []string{filepath.Join(dir, "one.txt"), filepath.Join(dir, "two.txt")}, bulk.Sources)
}

func TestToggleHiddenRelists(t *testing.T) {
	s, dir := newTestSession(t, config.Default(), "a.txt")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden"), []byte("x"), 0o644))
	do(t, s, key(ActRefresh))
	require.Equal(t, 1, len(s.ActiveTab().Entries))

	do(t, s, key(ActToggleHidden))
	assert.Equal(t, 2, len(s.ActiveTab().Entries))
	do(t, s, key(ActToggleHidden))
	assert.Equal(t, 1, len(s.ActiveTab().Entries))
}

func TestQuitAction(t *testing.T) {
	s, _ := newTestSession(t, config.Default(), "a.txt")
	eff := s.Dispatch(key(ActQuit))
	assert.True(t, eff.Quit)
}

func TestSessionStateSnapshot(t *testing.T) {
	s, dir := newTestSession(t, config.Default(), "a.txt")
	do(t, s, key(ActTabNew))
	st := s.State()
	assert.Equal(t, []string{dir, dir}, st.Tabs)
	assert.Equal(t, 1, st.Active)

	fresh, _ := newTestSession(t, config.Default(), "b.txt")
	fresh.RestoreInputHistory(map[string][]string{"shell": {"ls"}})
	do(t, fresh, key(ActShell))
	m := fresh.ActiveTab().Edit.(*InputMode)
	do(t, fresh, key(ActUp))
	assert.Equal(t, "ls", m.Line.String())
}
