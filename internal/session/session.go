// Package session is the mode state machine at the heart of the file
// manager. It owns the tabs, the flagged set and the per-tab modes,
// interprets resolved input actions, and applies worker messages. A
// single goroutine (the UI update loop) calls into it; workers only
// ever reach it through messages.
package session

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"rovefs/internal/config"
	"rovefs/internal/fsx"
	"rovefs/internal/logging"
	"rovefs/internal/preview"
	"rovefs/internal/transfer"
)

const keptJobViews = 20

// JobView is the session's record of a queued or finished job.
type JobView struct {
	Progress transfer.Progress
	Srcs     []string
	// affected are the directories whose listings change when the job
	// lands, sources' parents plus the destination.
	affected []string
}

// Options configures a new session.
type Options struct {
	Config    config.Config
	Dirs      []string
	Active    int
	Dual      bool
	MarksPath string
}

type Session struct {
	cfg       config.Config
	tabs      []*Tab
	active    int
	dual      bool
	nextTabID int
	viewH     int

	flagged *fsx.FlaggedSet
	marks   *Marks

	jobs     map[uuid.UUID]*JobView
	jobOrder []uuid.UUID

	inputHist   map[InputKind][]string
	pendingBulk *BulkEditMode

	notify func(Event)
	log    *logrus.Entry
}

func New(opt Options) *Session {
	s := &Session{
		cfg:       opt.Config,
		flagged:   fsx.NewFlaggedSet(),
		marks:     LoadMarks(opt.MarksPath),
		jobs:      map[uuid.UUID]*JobView{},
		inputHist: map[InputKind][]string{},
		dual:      opt.Dual,
		viewH:     30,
		log:       logging.Component("session"),
	}
	s.notify = func(ev Event) {
		s.log.WithFields(logrus.Fields{"event": ev.Kind.String(), "path": ev.Path}).Info("event")
	}

	dirs := opt.Dirs
	if len(dirs) == 0 {
		dirs = []string{opt.Config.StartPath}
	}
	for _, dir := range dirs {
		if len(s.tabs) >= s.cfg.MaxTabs {
			break
		}
		s.tabs = append(s.tabs, s.newTab(absDir(dir)))
	}
	if len(s.tabs) == 0 {
		s.tabs = append(s.tabs, s.newTab(absDir(".")))
	}
	if opt.Active >= 0 && opt.Active < len(s.tabs) {
		s.active = opt.Active
	}
	if s.dual && len(s.tabs) == 1 {
		s.tabs = append(s.tabs, s.newTab(s.tabs[0].Dir))
	}
	return s
}

func absDir(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}
	if info, err := os.Stat(abs); err != nil || !info.IsDir() {
		if home, err := os.UserHomeDir(); err == nil {
			return home
		}
		return "/"
	}
	return abs
}

func (s *Session) newTab(dir string) *Tab {
	t := &Tab{
		ID:        s.nextTabID,
		Dir:       dir,
		OriginDir: dir,
		Cursor:    -1,
		Height:    s.viewH,
		Loading:   true,
		Show: Settings{
			Hidden: s.cfg.ShowHidden,
			Sort:   defaultSort(s.cfg.SortDefault),
		},
	}
	s.nextTabID++
	return t
}

func defaultSort(r string) fsx.SortKind {
	for _, ch := range r {
		if k, ok := (fsx.SortKind{}).FromRune(ch); ok {
			return k
		}
		break
	}
	return fsx.SortKind{Key: fsx.SortByKind}
}

// Bootstrap issues the initial listing for every tab.
func (s *Session) Bootstrap() Effect {
	var eff Effect
	for _, t := range s.tabs {
		eff.Lists = append(eff.Lists, ListRequest{TabID: t.ID, Dir: t.Dir, Opts: t.opts()})
	}
	return eff
}

// Accessors. The view layer reads these on every frame.

func (s *Session) Tabs() []*Tab     { return s.tabs }
func (s *Session) ActiveIndex() int { return s.active }
func (s *Session) Dual() bool       { return s.dual }

func (s *Session) ActiveTab() *Tab { return s.tabs[s.active] }

// BuddyTab is the unfocused pane in dual mode, nil otherwise.
func (s *Session) BuddyTab() *Tab {
	if !s.dual || len(s.tabs) < 2 {
		return nil
	}
	return s.tabs[s.buddyIndex()]
}

func (s *Session) buddyIndex() int { return (s.active + 1) % len(s.tabs) }

func (s *Session) CurrentDir() string { return s.ActiveTab().Dir }

func (s *Session) CurrentEntry() (fsx.FileEntry, bool) { return s.ActiveTab().Current() }

func (s *Session) Flagged() *fsx.FlaggedSet { return s.flagged }
func (s *Session) FlaggedPaths() []string   { return s.flagged.Paths() }
func (s *Session) Marks() *Marks            { return s.marks }
func (s *Session) Config() config.Config    { return s.cfg }

// Jobs returns job views, newest first.
func (s *Session) Jobs() []JobView {
	out := make([]JobView, 0, len(s.jobOrder))
	for i := len(s.jobOrder) - 1; i >= 0; i-- {
		if jv, ok := s.jobs[s.jobOrder[i]]; ok {
			out = append(out, *jv)
		}
	}
	return out
}

// RunningJob reports the active transfer, if any.
func (s *Session) RunningJob() (JobView, bool) {
	for _, id := range s.jobOrder {
		if jv, ok := s.jobs[id]; ok && jv.Progress.Status == transfer.StatusRunning {
			return *jv, true
		}
	}
	return JobView{}, false
}

// SetNotify installs the event sink used for opened/deleted events.
func (s *Session) SetNotify(fn func(Event)) {
	if fn != nil {
		s.notify = fn
	}
}

// SetViewport tells the session how many listing rows fit; tabs clamp
// their windows against it.
func (s *Session) SetViewport(rows int) {
	if rows < 1 {
		rows = 1
	}
	s.viewH = rows
	for _, t := range s.tabs {
		t.Height = rows
		t.clamp()
	}
}

// WatchDirs is the set the refresh watcher should observe: every open
// tab directory, deduplicated.
func (s *Session) WatchDirs() []string {
	seen := map[string]bool{}
	var dirs []string
	for _, t := range s.tabs {
		if !seen[t.Dir] {
			seen[t.Dir] = true
			dirs = append(dirs, t.Dir)
		}
	}
	return dirs
}

// State snapshots what persists across restarts.
func (s *Session) State() config.SessionState {
	st := config.SessionState{Active: s.active, Dual: s.dual, InputHistory: map[string][]string{}}
	for _, t := range s.tabs {
		st.Tabs = append(st.Tabs, t.Dir)
	}
	for kind, hist := range s.inputHist {
		if len(hist) > 0 {
			st.InputHistory[kind.String()] = hist
		}
	}
	return st
}

// RestoreInputHistory loads the prompt histories saved by a previous
// session.
func (s *Session) RestoreInputHistory(saved map[string][]string) {
	for kind := InputRename; kind <= InputExec; kind++ {
		if hist, ok := saved[kind.String()]; ok {
			s.inputHist[kind] = hist
		}
	}
}

const inputHistCap = 50

// recordInput appends a committed prompt line to its history.
func (s *Session) recordInput(kind InputKind, line string) {
	if line == "" {
		return
	}
	hist := s.inputHist[kind]
	if n := len(hist); n > 0 && hist[n-1] == line {
		return
	}
	hist = append(hist, line)
	if len(hist) > inputHistCap {
		hist = hist[len(hist)-inputHistCap:]
	}
	s.inputHist[kind] = hist
}

func (s *Session) tabByID(id int) *Tab {
	for _, t := range s.tabs {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// listTab re-lists a tab's directory with its current options.
func (s *Session) listTab(t *Tab) Effect {
	t.Loading = true
	return Effect{Lists: []ListRequest{{TabID: t.ID, Dir: t.Dir, Opts: t.opts()}}}
}

// ApplyListing installs a completed directory listing. Listings for a
// directory the tab has already left are dropped.
func (s *Session) ApplyListing(tabID int, dir string, entries []fsx.FileEntry, err error) Effect {
	t := s.tabByID(tabID)
	if t == nil || t.Dir != dir {
		return Effect{}
	}
	if err != nil {
		t.Entries = nil
		t.Cursor = -1
		t.Loading = false
		return errStatus(err)
	}
	t.setEntries(entries)
	return Effect{}
}

// ApplyPreview installs a preview result unless a newer request has
// been issued for the tab since.
func (s *Session) ApplyPreview(res preview.Result) Effect {
	t := s.tabByID(res.Tab)
	if t == nil || res.Gen != t.Gen {
		return Effect{}
	}
	t.PreviewRes = &res
	t.PreviewOff = 0
	return Effect{}
}

// ApplyReload handles a watcher notice: every tab sitting in dir is
// re-listed unless an edit mode is active there, so pending input is
// never yanked away.
func (s *Session) ApplyReload(dir string) Effect {
	var eff Effect
	for _, t := range s.tabs {
		if t.Edit != nil || t.Loading {
			continue
		}
		if t.Dir == dir {
			eff.merge(s.listTab(t))
		}
		if t.Tree != nil {
			t.Tree.Invalidate(dir)
		}
	}
	return eff
}

// ApplyTransfer folds a progress message into the job table. On a
// terminal message the flags of a destructive op are cleared and the
// directories the job touched are re-listed.
func (s *Session) ApplyTransfer(p transfer.Progress) Effect {
	jv, ok := s.jobs[p.JobID]
	if !ok {
		jv = &JobView{}
		s.jobs[p.JobID] = jv
		s.jobOrder = append(s.jobOrder, p.JobID)
	}
	jv.Progress = p
	if !p.Status.Terminal() {
		return Effect{}
	}

	if p.Op.Destructive() {
		for _, src := range jv.Srcs {
			s.flagged.Unflag(src)
		}
	}
	if p.Op == transfer.OpDelete || p.Op == transfer.OpTrash {
		for _, src := range jv.Srcs {
			s.notify(Event{Kind: EventDeleted, Path: src})
		}
	}

	var eff Effect
	for _, dir := range jv.affected {
		for _, t := range s.tabs {
			if t.Dir == dir && t.Edit == nil {
				eff.merge(s.listTab(t))
			}
			if t.Tree != nil {
				t.Tree.Invalidate(dir)
			}
		}
	}
	eff.Status = jobSummary(p)
	eff.StatusErr = p.Status == transfer.StatusFailed || p.Status == transfer.StatusPartial
	s.pruneJobs()
	return eff
}

func jobSummary(p transfer.Progress) string {
	switch p.Status {
	case transfer.StatusCompleted:
		return fmt.Sprintf("%s: %d file(s) done", p.Op, p.FilesDone)
	case transfer.StatusPartial:
		return fmt.Sprintf("%s: %d/%d done, %d failed", p.Op, p.FilesDone, p.FilesTotal, len(p.Errors))
	case transfer.StatusFailed:
		return fmt.Sprintf("%s failed: %d error(s)", p.Op, len(p.Errors))
	case transfer.StatusCancelled:
		return fmt.Sprintf("%s cancelled after %d file(s)", p.Op, p.FilesDone)
	default:
		return ""
	}
}

// pruneJobs drops the oldest terminal job views beyond the kept count.
func (s *Session) pruneJobs() {
	terminal := 0
	for _, id := range s.jobOrder {
		if jv, ok := s.jobs[id]; ok && jv.Progress.Status.Terminal() {
			terminal++
		}
	}
	for i := 0; i < len(s.jobOrder) && terminal > keptJobViews; {
		id := s.jobOrder[i]
		if jv, ok := s.jobs[id]; ok && jv.Progress.Status.Terminal() {
			delete(s.jobs, id)
			s.jobOrder = append(s.jobOrder[:i], s.jobOrder[i+1:]...)
			terminal--
			continue
		}
		i++
	}
}

// ApplyShellResult surfaces a captured command's output or failure.
func (s *Session) ApplyShellResult(out string, err error) Effect {
	if err != nil {
		if out != "" {
			return Effect{Status: fmt.Sprintf("%v: %s", err, firstLine(out)), StatusErr: true}
		}
		return errStatus(err)
	}
	if out == "" {
		return status("done")
	}
	return status(firstLine(out))
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}

// ApplyInteractiveDone runs after a suspended external program exits.
func (s *Session) ApplyInteractiveDone(follow FollowUp, err error) Effect {
	switch follow {
	case FollowBulkApply:
		bulk := s.pendingBulk
		s.pendingBulk = nil
		if bulk == nil {
			return Effect{}
		}
		defer os.Remove(bulk.TmpPath)
		if err != nil {
			return errStatus(err)
		}
		return s.applyBulkRenames(bulk)
	default:
		var eff Effect
		if err != nil {
			eff = errStatus(err)
		}
		eff.merge(s.listTab(s.ActiveTab()))
		return eff
	}
}

// enqueue records job metadata before handing it to the worker, so the
// terminal message can clear flags and refresh the right directories.
func (s *Session) enqueue(job *transfer.Job) Effect {
	srcs := make([]string, 0, len(job.Pairs))
	seen := map[string]bool{}
	var affected []string
	addDir := func(d string) {
		if d != "" && !seen[d] {
			seen[d] = true
			affected = append(affected, d)
		}
	}
	for _, pair := range job.Pairs {
		srcs = append(srcs, pair.Src)
		addDir(filepath.Dir(pair.Src))
		addDir(pair.DstDir)
	}
	s.jobs[job.ID] = &JobView{
		Progress: transfer.Progress{JobID: job.ID, Op: job.Op, FilesTotal: len(job.Pairs)},
		Srcs:     srcs,
		affected: affected,
	}
	s.jobOrder = append(s.jobOrder, job.ID)
	return Effect{Jobs: []*transfer.Job{job}}
}
