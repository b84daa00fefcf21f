// Package ui is the bubbletea front end. The Update loop is the only
// goroutine that touches the session; worker results come in as typed
// messages over channels, each re-armed with a one-receive listener
// command after consumption.
package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"rovefs/internal/fsx"
	"rovefs/internal/logging"
	"rovefs/internal/preview"
	"rovefs/internal/runner"
	"rovefs/internal/session"
	"rovefs/internal/transfer"
	"rovefs/internal/vcs"
	"rovefs/internal/watch"
)

// chromeRows is everything around the listing: the header line, the
// panel border and title, and the two footer lines.
const chromeRows = 6

// statusTTL is how long an informational status stays on screen;
// errors stay until replaced.
const statusTTL = 5 * time.Second

// The repaint tick runs fast while a transfer is drawing progress and
// slow otherwise.
const (
	tickIdle = 250 * time.Millisecond
	tickBusy = 33 * time.Millisecond
)

type Model struct {
	sess      *session.Session
	keys      KeyMap
	transfers *transfer.Worker
	previews  *preview.Worker
	watcher   *watch.Watcher
	log       *logrus.Entry

	width  int
	height int

	status    string
	statusErr bool
	statusAt  time.Time

	// git caches the branch summary per directory; entries refresh on
	// reload, not on every redraw.
	git map[string]string

	quitting bool
}

func NewModel(sess *session.Session, transfers *transfer.Worker, previews *preview.Worker, watcher *watch.Watcher) Model {
	log := logging.Component("ui")
	return Model{
		sess:      sess,
		keys:      CompileKeyMap(sess.Config().Keys, log),
		transfers: transfers,
		previews:  previews,
		watcher:   watcher,
		log:       log,
		width:     100,
		height:    30,
		git:       map[string]string{},
	}
}

func (model Model) Init() tea.Cmd {
	model.watcher.Watch(model.sess.WatchDirs())
	_, boot := model.applyEffect(model.sess.Bootstrap())
	return tea.Batch(
		boot,
		gitCmd(model.sess.CurrentDir()),
		listenForTransfers(model.transfers.Progress()),
		listenForPreviews(model.previews.Results()),
		listenForReloads(model.watcher.Reloads()),
		model.tick(),
	)
}

func (model Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		return model.handleKey(typed)
	case tea.MouseMsg:
		return model.handleMouse(typed)
	case tea.WindowSizeMsg:
		model.width = typed.Width
		model.height = typed.Height
		model.sess.SetViewport(model.listHeight())
		return model, nil
	case listingMsg:
		return model.applyEffect(model.sess.ApplyListing(typed.tabID, typed.dir, typed.entries, typed.err))
	case transferMsg:
		next, cmd := model.applyEffect(model.sess.ApplyTransfer(typed.progress))
		return next, tea.Batch(cmd, listenForTransfers(next.transfers.Progress()))
	case previewMsg:
		next, cmd := model.applyEffect(model.sess.ApplyPreview(typed.result))
		return next, tea.Batch(cmd, listenForPreviews(next.previews.Results()))
	case reloadMsg:
		next, cmd := model.applyEffect(model.sess.ApplyReload(typed.reload.Dir))
		cmds := []tea.Cmd{cmd, listenForReloads(next.watcher.Reloads())}
		if typed.reload.Dir == next.sess.CurrentDir() {
			cmds = append(cmds, gitCmd(typed.reload.Dir))
		}
		return next, tea.Batch(cmds...)
	case shellDoneMsg:
		return model.applyEffect(model.sess.ApplyShellResult(typed.out, typed.err))
	case interactiveDoneMsg:
		next, cmd := model.applyEffect(model.sess.ApplyInteractiveDone(typed.follow, typed.err))
		next.watcher.Watch(next.sess.WatchDirs())
		return next, cmd
	case openDoneMsg:
		if typed.err != nil {
			model.setStatus(typed.err.Error(), true)
			model.log.WithField("path", typed.path).WithError(typed.err).Warn("open failed")
		}
		return model, nil
	case gitInfoMsg:
		model.git[typed.dir] = typed.summary
		return model, nil
	case tickMsg:
		if model.status != "" && !model.statusErr && time.Since(model.statusAt) > statusTTL {
			model.status = ""
		}
		return model, model.tick()
	}
	return model, nil
}

func (model Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	editing := model.sess.ActiveTab().Edit != nil

	// Bracketed paste lands as one multi-rune KeyMsg; feed the prompt
	// one rune at a time.
	if editing && msg.Type == tea.KeyRunes && !msg.Alt && len(msg.Runes) > 1 {
		next := model
		var cmds []tea.Cmd
		for _, r := range msg.Runes {
			eff := next.sess.Dispatch(session.Action{Kind: session.ActRune, Rune: r})
			var cmd tea.Cmd
			next, cmd = next.applyEffect(eff)
			cmds = append(cmds, cmd)
		}
		return next, tea.Batch(cmds...)
	}

	act := model.keys.Resolve(msg, editing)
	if act.Kind == session.ActNone {
		return model, nil
	}
	return model.dispatch(act)
}

func (model Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionPress {
		return model, nil
	}
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		return model.dispatch(session.Action{Kind: session.ActWheelUp})
	case tea.MouseButtonWheelDown:
		return model.dispatch(session.Action{Kind: session.ActWheelDown})
	case tea.MouseButtonLeft:
		row, ok := model.listingRow(msg.Y)
		if !ok {
			return model, nil
		}
		return model.dispatch(session.Action{Kind: session.ActSelectRow, N: row})
	}
	return model, nil
}

// dispatch routes one action through the session, then retargets the
// watcher and the git summary at whatever directory is now active.
func (model Model) dispatch(act session.Action) (Model, tea.Cmd) {
	eff := model.sess.Dispatch(act)
	next, cmd := model.applyEffect(eff)
	next.watcher.Watch(next.sess.WatchDirs())
	dir := next.sess.CurrentDir()
	if _, known := next.git[dir]; known {
		return next, cmd
	}
	return next, tea.Batch(cmd, gitCmd(dir))
}

// applyEffect turns a session effect into worker calls and commands.
// Worker enqueues never block, so this stays on the update goroutine.
func (model Model) applyEffect(eff session.Effect) (Model, tea.Cmd) {
	if eff.Status != "" {
		model.setStatus(eff.Status, eff.StatusErr)
	}
	var cmds []tea.Cmd
	for _, req := range eff.Lists {
		cmds = append(cmds, listCmd(req))
	}
	for _, job := range eff.Jobs {
		model.transfers.Enqueue(job)
	}
	if eff.CancelJob {
		model.transfers.CancelCurrent()
	}
	for _, req := range eff.Previews {
		req.Width = model.paneTextWidth()
		model.previews.Request(req)
	}
	if eff.Shell != nil {
		cmds = append(cmds, shellCmd(*eff.Shell))
	}
	if eff.Interactive != nil {
		cmds = append(cmds, interactiveCmd(eff.Interactive))
	}
	if eff.Open != "" {
		cmds = append(cmds, openCmd(eff.Open, model.sess.Config().Openers))
	}
	if eff.Quit {
		model.quitting = true
		cmds = append(cmds, tea.Quit)
	}
	return model, tea.Batch(cmds...)
}

func (model *Model) setStatus(text string, isErr bool) {
	model.status = text
	model.statusErr = isErr
	model.statusAt = time.Now()
}

// listHeight is the number of listing rows a pane shows.
func (model Model) listHeight() int {
	h := model.height - chromeRows
	if h < 1 {
		h = 1
	}
	return h
}

// paneTextWidth is the usable text width inside the active pane.
func (model Model) paneTextWidth() int {
	width := model.width
	if model.sess.Dual() {
		if left, _, split := splitPanels(model.width); split {
			width = left
		}
	}
	return maxInt(width-4, 10)
}

// listingRow maps a terminal click row to a listing row, or reports
// that the click fell on chrome. Clicks resolve against the active
// pane regardless of column.
func (model Model) listingRow(y int) (int, bool) {
	row := y - 3
	if row < 0 || row >= model.listHeight() {
		return 0, false
	}
	return row, true
}

func listCmd(req session.ListRequest) tea.Cmd {
	return func() tea.Msg {
		entries, err := fsx.ReadDir(req.Dir, req.Opts)
		return listingMsg{tabID: req.TabID, dir: req.Dir, entries: entries, err: err}
	}
}

func shellCmd(req session.ShellRequest) tea.Cmd {
	return func() tea.Msg {
		out, err := runner.Run(context.Background(), runner.Shell(req.Cmdline), req.Dir)
		return shellDoneMsg{out: out, err: err}
	}
}

func interactiveCmd(req *session.InteractiveRequest) tea.Cmd {
	follow := req.Follow
	return tea.ExecProcess(req.Cmd, func(err error) tea.Msg {
		return interactiveDoneMsg{follow: follow, err: err}
	})
}

func openCmd(path string, openers map[string]string) tea.Cmd {
	return func() tea.Msg {
		return openDoneMsg{path: path, err: runner.OpenDetached(path, openers)}
	}
}

func gitCmd(dir string) tea.Cmd {
	return func() tea.Msg {
		return gitInfoMsg{dir: dir, summary: vcs.Summary(dir)}
	}
}

func listenForTransfers(ch <-chan transfer.Progress) tea.Cmd {
	return func() tea.Msg {
		return transferMsg{progress: <-ch}
	}
}

func listenForPreviews(ch <-chan preview.Result) tea.Cmd {
	return func() tea.Msg {
		return previewMsg{result: <-ch}
	}
}

func listenForReloads(ch <-chan watch.Reload) tea.Cmd {
	return func() tea.Msg {
		return reloadMsg{reload: <-ch}
	}
}

func (model Model) tick() tea.Cmd {
	every := tickIdle
	if _, ok := model.sess.RunningJob(); ok {
		every = tickBusy
	}
	return tea.Tick(every, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
