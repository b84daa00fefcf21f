package ui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rovefs/internal/config"
	"rovefs/internal/preview"
	"rovefs/internal/session"
	"rovefs/internal/transfer"
	"rovefs/internal/watch"
)

// newTestModel builds a model over a temp directory with started
// workers. Names containing a dot become files, the rest directories.
func newTestModel(t *testing.T, names ...string) (Model, string) {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		if strings.Contains(name, ".") {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("hello\n"), 0o644))
		} else {
			require.NoError(t, os.Mkdir(filepath.Join(dir, name), 0o755))
		}
	}

	cfg := config.Default()
	cfg.StartPath = dir
	sess := session.New(session.Options{
		Config:    cfg,
		MarksPath: filepath.Join(t.TempDir(), "marks"),
	})

	transfers := transfer.NewWorker()
	transfers.Start()
	t.Cleanup(transfers.Stop)
	previews := preview.NewWorker(8)
	previews.Start()
	t.Cleanup(previews.Stop)
	watcher := watch.New(time.Hour)
	watcher.Start()
	t.Cleanup(watcher.Stop)

	model := NewModel(sess, transfers, previews, watcher)
	model.width, model.height = 100, 30
	sess.SetViewport(model.listHeight())
	return model, dir
}

// bootstrap loads the initial listings the way Init would, without
// arming the channel listeners.
func bootstrap(t *testing.T, model Model) Model {
	t.Helper()
	eff := model.sess.Bootstrap()
	for _, req := range eff.Lists {
		updated, _ := model.Update(listCmd(req)())
		model = updated.(Model)
	}
	return model
}

// press feeds one message and runs the resulting commands to
// completion. Listener commands never come out of key dispatches, so
// nothing here blocks.
func press(t *testing.T, model Model, msg tea.Msg) Model {
	t.Helper()
	updated, cmd := model.Update(msg)
	return feedCmd(t, updated.(Model), cmd)
}

func feedCmd(t *testing.T, model Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		return model
	}
	msg := cmd()
	if msg == nil {
		return model
	}
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			model = feedCmd(t, model, c)
		}
		return model
	}
	switch msg.(type) {
	case tea.QuitMsg, tickMsg:
		return model
	}
	updated, next := model.Update(msg)
	return feedCmd(t, updated.(Model), next)
}

func waitTerminal(t *testing.T, w *transfer.Worker) transfer.Progress {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case p := <-w.Progress():
			if p.Status.Terminal() {
				return p
			}
		case <-deadline:
			t.Fatal("no terminal progress")
		}
	}
}

func TestWindowSizeSetsViewport(t *testing.T) {
	model, _ := newTestModel(t, "a.txt")

	model = press(t, model, tea.WindowSizeMsg{Width: 120, Height: 40})

	assert.Equal(t, 34, model.sess.ActiveTab().Height)
}

func TestBootstrapListsStartDir(t *testing.T) {
	model, _ := newTestModel(t, "a.txt", "b.txt", "sub")

	model = bootstrap(t, model)

	tab := model.sess.ActiveTab()
	require.Len(t, tab.Entries, 3)
	assert.Equal(t, "sub", tab.Entries[0].Name)
	assert.False(t, tab.Loading)
}

func TestArrowMovesCursor(t *testing.T) {
	model, _ := newTestModel(t, "a.txt", "b.txt", "sub")
	model = bootstrap(t, model)

	model = press(t, model, tea.KeyMsg{Type: tea.KeyDown})

	assert.Equal(t, 1, model.sess.ActiveTab().Cursor)
}

func TestQuitKey(t *testing.T) {
	model, _ := newTestModel(t, "a.txt")
	model = bootstrap(t, model)

	model = press(t, model, keyRunes("q"))

	assert.True(t, model.quitting)
	assert.Equal(t, "", model.View())
}

func TestEnterDescendsIntoDirectory(t *testing.T) {
	model, dir := newTestModel(t, "a.txt", "sub")
	model = bootstrap(t, model)

	model = press(t, model, tea.KeyMsg{Type: tea.KeyEnter})

	tab := model.sess.ActiveTab()
	assert.Equal(t, filepath.Join(dir, "sub"), tab.Dir)
	assert.False(t, tab.Loading)
}

func TestRenamePromptRenamesOnDisk(t *testing.T) {
	model, dir := newTestModel(t, "a.txt", "sub")
	model = bootstrap(t, model)
	model = press(t, model, tea.KeyMsg{Type: tea.KeyDown})

	model = press(t, model, keyRunes("r"))
	require.IsType(t, &session.InputMode{}, model.sess.ActiveTab().Edit)
	model = press(t, model, keyRunes("c.txt"))
	model = press(t, model, tea.KeyMsg{Type: tea.KeyEnter})

	assert.FileExists(t, filepath.Join(dir, "c.txt"))
	assert.NoFileExists(t, filepath.Join(dir, "a.txt"))
	assert.Contains(t, model.status, "renamed")
	assert.Nil(t, model.sess.ActiveTab().Edit)
}

func TestSpaceFlagsCursorEntry(t *testing.T) {
	model, _ := newTestModel(t, "a.txt", "b.txt")
	model = bootstrap(t, model)

	model = press(t, model, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})

	assert.Equal(t, 1, model.sess.Flagged().Len())
}

func TestMouseWheelMovesCursor(t *testing.T) {
	model, _ := newTestModel(t, "a.txt", "b.txt", "c.txt", "d.txt")
	model = bootstrap(t, model)

	model = press(t, model, tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonWheelDown})

	assert.Equal(t, 3, model.sess.ActiveTab().Cursor)
}

func TestMouseClickSelectsRow(t *testing.T) {
	model, _ := newTestModel(t, "a.txt", "b.txt", "c.txt")
	model = bootstrap(t, model)

	model = press(t, model, tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonLeft, Y: 4})
	assert.Equal(t, 1, model.sess.ActiveTab().Cursor)

	// Clicks on the header are not rows.
	model = press(t, model, tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonLeft, Y: 0})
	assert.Equal(t, 1, model.sess.ActiveTab().Cursor)
}

func TestDeleteFlowRemovesFile(t *testing.T) {
	model, dir := newTestModel(t, "a.txt", "b.txt", "sub")
	model = bootstrap(t, model)
	model = press(t, model, tea.KeyMsg{Type: tea.KeyDown})

	model = press(t, model, keyRunes("X"))
	require.IsType(t, &session.ConfirmMode{}, model.sess.ActiveTab().Edit)
	model = press(t, model, keyRunes("y"))

	progress := waitTerminal(t, model.transfers)
	assert.Equal(t, transfer.StatusCompleted, progress.Status)

	updated, cmd := model.Update(transferMsg{progress: progress})
	model = updated.(Model)
	require.NotNil(t, cmd)
	assert.NoFileExists(t, filepath.Join(dir, "a.txt"))
	assert.Zero(t, model.sess.Flagged().Len())
}

func TestPreviewFlow(t *testing.T) {
	model, _ := newTestModel(t, "a.txt", "sub")
	model = bootstrap(t, model)
	model = press(t, model, tea.KeyMsg{Type: tea.KeyDown})

	model = press(t, model, keyRunes("P"))
	tab := model.sess.ActiveTab()
	assert.Equal(t, session.ModePreview, tab.Display)

	var res preview.Result
	select {
	case res = <-model.previews.Results():
	case <-time.After(5 * time.Second):
		t.Fatal("no preview result")
	}

	updated, cmd := model.Update(previewMsg{result: res})
	model = updated.(Model)
	require.NotNil(t, cmd)
	require.NotNil(t, model.sess.ActiveTab().PreviewRes)
	assert.NotEmpty(t, model.sess.ActiveTab().PreviewRes.Lines)
}

func TestTransferProgressForUnknownJobIsKept(t *testing.T) {
	model, _ := newTestModel(t, "a.txt")
	model = bootstrap(t, model)

	p := transfer.Progress{JobID: uuid.New(), Op: transfer.OpCopy, Status: transfer.StatusRunning, FilesTotal: 2}
	updated, cmd := model.Update(transferMsg{progress: p})
	model = updated.(Model)

	require.NotNil(t, cmd)
	jv, ok := model.sess.RunningJob()
	require.True(t, ok)
	assert.Equal(t, 2, jv.Progress.FilesTotal)
}

func TestShellDoneShowsFirstLine(t *testing.T) {
	model, _ := newTestModel(t, "a.txt")
	model = bootstrap(t, model)

	model = press(t, model, shellDoneMsg{out: "hello\nworld\n"})

	assert.Equal(t, "hello", model.status)
	assert.False(t, model.statusErr)
}

func TestGitSummaryRendersInHeader(t *testing.T) {
	model, dir := newTestModel(t, "a.txt")
	model = bootstrap(t, model)

	model = press(t, model, gitInfoMsg{dir: dir, summary: "main *"})

	assert.Contains(t, model.View(), "main *")
}

func TestTickExpiresInfoStatusOnly(t *testing.T) {
	model, _ := newTestModel(t, "a.txt")
	model.status = "copied"
	model.statusErr = false
	model.statusAt = time.Now().Add(-time.Minute)

	model = press(t, model, tickMsg(time.Now()))
	assert.Equal(t, "", model.status)

	model.status = "boom"
	model.statusErr = true
	model.statusAt = time.Now().Add(-time.Minute)
	model = press(t, model, tickMsg(time.Now()))
	assert.Equal(t, "boom", model.status)
}

func TestViewShowsListing(t *testing.T) {
	model, _ := newTestModel(t, "a.txt", "b.txt", "sub")
	model = bootstrap(t, model)

	out := model.View()

	assert.Contains(t, out, "a.txt")
	assert.Contains(t, out, "sub/")
	assert.Contains(t, out, "3 items")
	assert.Contains(t, out, "flagged 0")
}

func TestViewDualPane(t *testing.T) {
	model, _ := newTestModel(t, "a.txt")
	model = bootstrap(t, model)

	model = press(t, model, keyRunes("W"))
	require.True(t, model.sess.Dual())

	out := model.View()
	assert.Equal(t, 2, strings.Count(out, "╭"))

	// Too narrow for two panels; the active one wins.
	model.width = 60
	out = model.View()
	assert.Equal(t, 1, strings.Count(out, "╭"))
}

func TestHelpScreen(t *testing.T) {
	model, _ := newTestModel(t, "a.txt")
	model = bootstrap(t, model)

	model = press(t, model, keyRunes("h"))

	assert.Equal(t, session.ModeHelp, model.sess.ActiveTab().Display)
	out := model.View()
	assert.Contains(t, out, "Bindings")
	assert.Contains(t, out, "toggle hidden files")
}

func TestPromptKeepsErrorVisible(t *testing.T) {
	model, _ := newTestModel(t, "a.txt", "b.txt", "sub")
	model = bootstrap(t, model)
	model = press(t, model, tea.KeyMsg{Type: tea.KeyDown})

	model = press(t, model, keyRunes("r"))
	model = press(t, model, keyRunes("b.txt"))
	model = press(t, model, tea.KeyMsg{Type: tea.KeyEnter})

	require.IsType(t, &session.InputMode{}, model.sess.ActiveTab().Edit)
	assert.True(t, model.statusErr)
	assert.Contains(t, model.View(), "rename > ")
}
