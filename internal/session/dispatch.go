package session

import (
	"fmt"
	"os"
	"path/filepath"

	"rovefs/internal/fsx"
	"rovefs/internal/preview"
	"rovefs/internal/runner"
	"rovefs/internal/transfer"
	"rovefs/internal/tree"
)

// Dispatch interprets one resolved action against the current mode
// pair and returns the side effects. Invalid combinations fall through
// to an empty effect, never an error.
func (s *Session) Dispatch(act Action) Effect {
	t := s.ActiveTab()
	if t.Edit != nil {
		return s.dispatchEdit(t, act)
	}
	if eff, handled := s.dispatchGlobal(t, act); handled {
		return eff
	}
	switch t.Display {
	case ModeDirectory:
		return s.dispatchDirectory(t, act)
	case ModeTree:
		return s.dispatchTree(t, act)
	case ModePreview:
		return s.dispatchPreview(t, act)
	case ModeFlagged:
		return s.dispatchFlagged(t, act)
	case ModeHelp:
		return s.dispatchHelp(t, act)
	}
	return Effect{}
}

// dispatchGlobal handles the actions that work in every display mode.
func (s *Session) dispatchGlobal(t *Tab, act Action) (Effect, bool) {
	switch act.Kind {
	case ActQuit:
		return Effect{Quit: true}, true
	case ActHelp:
		if t.Display == ModeHelp {
			t.popMode()
		} else {
			t.HelpOff = 0
			t.pushMode(ModeHelp)
		}
		return Effect{}, true
	case ActTabNew:
		return s.tabNew(t), true
	case ActTabClose:
		return s.tabClose(), true
	case ActTabNext:
		s.cycleTab(1)
		return Effect{}, true
	case ActTabPrev:
		s.cycleTab(-1)
		return Effect{}, true
	case ActPaneToggle:
		return s.paneToggle(), true
	case ActJobs:
		t.Edit = &NavigateMode{Kind: NavJobs, Items: s.jobItems()}
		return Effect{}, true
	}
	return Effect{}, false
}

func (s *Session) tabNew(t *Tab) Effect {
	if len(s.tabs) >= s.cfg.MaxTabs {
		return status(fmt.Sprintf("tab limit reached (%d)", s.cfg.MaxTabs))
	}
	nt := s.newTab(t.Dir)
	nt.Height = s.viewH
	s.tabs = append(s.tabs, nt)
	s.active = len(s.tabs) - 1
	return s.listTab(nt)
}

func (s *Session) tabClose() Effect {
	if len(s.tabs) == 1 {
		return Effect{Quit: true}
	}
	s.tabs = append(s.tabs[:s.active], s.tabs[s.active+1:]...)
	if s.active >= len(s.tabs) {
		s.active = len(s.tabs) - 1
	}
	if len(s.tabs) < 2 {
		s.dual = false
	}
	return Effect{}
}

func (s *Session) cycleTab(delta int) {
	n := len(s.tabs)
	s.active = ((s.active+delta)%n + n) % n
}

func (s *Session) paneToggle() Effect {
	if s.dual {
		s.dual = false
		return Effect{}
	}
	s.dual = true
	if len(s.tabs) < 2 {
		nt := s.newTab(s.ActiveTab().Dir)
		s.tabs = append(s.tabs, nt)
		return s.listTab(nt)
	}
	return Effect{}
}

// cd moves the active tab and requests the new listing.
func (s *Session) cd(t *Tab, dir string) Effect {
	if dir == t.Dir {
		return Effect{}
	}
	t.cd(dir)
	return s.listTab(t)
}

// cdParent goes up one level, landing the cursor on the directory just
// left.
func (s *Session) cdParent(t *Tab) Effect {
	parent := filepath.Dir(t.Dir)
	if parent == t.Dir {
		return Effect{}
	}
	child := filepath.Base(t.Dir)
	eff := s.cd(t, parent)
	t.pendingSelect = child
	return eff
}

// activate is Enter on a listing row: descend into directories, open
// files with the configured opener.
func (s *Session) activate(t *Tab, e fsx.FileEntry) Effect {
	if e.Navigable() {
		return s.cd(t, e.Path)
	}
	if e.Kind == fsx.KindSymlinkBroken {
		return status("broken symlink: " + e.Name)
	}
	s.notify(Event{Kind: EventOpened, Path: e.Path})
	return Effect{Open: e.Path}
}

func (s *Session) dispatchDirectory(t *Tab, act Action) Effect {
	switch act.Kind {
	case ActUp:
		t.moveCursor(-1)
	case ActDown:
		t.moveCursor(1)
	case ActWheelUp:
		t.moveCursor(-3)
	case ActWheelDown:
		t.moveCursor(3)
	case ActSelectRow:
		t.cursorTo(t.Top + act.N)
	case ActTop:
		t.cursorTo(0)
	case ActBottom:
		t.cursorTo(len(t.Entries) - 1)
	case ActPageUp:
		t.moveCursor(-t.Height)
	case ActPageDown:
		t.moveCursor(t.Height)
	case ActLeft, ActBackspace:
		return s.cdParent(t)
	case ActRight, ActEnter:
		if e, ok := t.Current(); ok {
			return s.activate(t, e)
		}
	case ActOpenFile:
		if e, ok := t.Current(); ok {
			return s.activate(t, e)
		}
	case ActBack:
		if t.prevDir != "" {
			return s.cd(t, t.prevDir)
		}
	case ActHome:
		if home, err := os.UserHomeDir(); err == nil {
			return s.cd(t, home)
		}
	case ActToggleFlag:
		if e, ok := t.Current(); ok {
			s.flagged.Toggle(e.Path)
			t.moveCursor(1)
		}
	case ActFlagAll:
		for _, e := range t.Entries {
			s.flagged.Flag(e.Path)
		}
	case ActReverseFlags:
		for _, e := range t.Entries {
			s.flagged.Toggle(e.Path)
		}
	case ActClearFlags:
		s.flagged.Clear()
		return status("flags cleared")
	case ActCopy:
		return s.queueTransfer(t, transfer.OpCopy)
	case ActMove:
		return s.queueTransfer(t, transfer.OpMove)
	case ActSymlink:
		return s.queueTransfer(t, transfer.OpSymlink)
	case ActCompress:
		return s.queueTransfer(t, transfer.OpCompress)
	case ActTrash:
		return s.confirmDestructive(t, ConfirmTrash)
	case ActDeleteFile:
		return s.confirmDestructive(t, ConfirmDelete)
	case ActRename:
		if e, ok := t.Current(); ok {
			t.Edit = &InputMode{Kind: InputRename, Target: e.Path, hist: nil}
		}
	case ActNewFile:
		t.Edit = s.inputWithHistory(InputNewFile)
	case ActNewDir:
		t.Edit = s.inputWithHistory(InputNewDir)
	case ActChmod:
		targets := s.flaggedOrCurrent(t)
		if len(targets) == 0 {
			return status("nothing to chmod")
		}
		m := s.inputWithHistory(InputChmod)
		m.Targets = targets
		t.Edit = m
	case ActGoto:
		t.Edit = s.inputWithHistory(InputGoto)
	case ActSearch:
		t.Edit = s.inputWithHistory(InputSearch)
	case ActSearchNext:
		if i := t.nextMatch(); i >= 0 {
			t.cursorTo(i)
		} else if t.Search != "" {
			return status("no match for " + t.Search)
		}
	case ActRegexMatch:
		t.Edit = s.inputWithHistory(InputRegexMatch)
	case ActFilter:
		t.Edit = s.inputWithHistory(InputFilter)
	case ActShell:
		t.Edit = s.inputWithHistory(InputShell)
	case ActExec:
		if e, ok := t.Current(); ok && !e.IsDir() {
			m := s.inputWithHistory(InputExec)
			m.Target = e.Path
			t.Edit = m
		}
	case ActSort:
		t.Edit = &SortMode{}
	case ActMarkSet:
		t.Edit = &MarkSetMode{}
	case ActMarkJump:
		if s.marks.Len() == 0 {
			return status("no marks set")
		}
		t.Edit = &NavigateMode{Kind: NavMarks, Items: s.marks.Items()}
	case ActShortcut:
		t.Edit = &NavigateMode{Kind: NavShortcut, Items: shortcutItems()}
	case ActHistory:
		items := historyItems(t)
		if len(items) == 0 {
			return status("no history yet")
		}
		t.Edit = &NavigateMode{Kind: NavHistory, Items: items}
	case ActJump:
		if s.flagged.Len() == 0 {
			return status("nothing flagged")
		}
		t.Edit = &NavigateMode{Kind: NavJump, Items: s.flaggedItems()}
	case ActEdit:
		if e, ok := t.Current(); ok && !e.IsDir() {
			return Effect{Interactive: &InteractiveRequest{
				Cmd:    runner.EditorCmd([]string{e.Path}, t.Dir),
				Follow: FollowReload,
			}}
		}
	case ActBulkEdit:
		return s.startBulkEdit(t)
	case ActToggleHidden:
		t.Show.Hidden = !t.Show.Hidden
		return s.listTab(t)
	case ActRefresh:
		return s.listTab(t)
	case ActPreview:
		return s.enterPreview(t)
	case ActTree:
		return s.enterTree(t)
	case ActFlaggedView:
		t.FlagCur = 0
		t.pushMode(ModeFlagged)
	}
	return Effect{}
}

// queueTransfer enqueues the flagged set into the active directory.
func (s *Session) queueTransfer(t *Tab, op transfer.Op) Effect {
	srcs := s.flagged.Paths()
	if len(srcs) == 0 {
		return status("nothing flagged")
	}
	eff := s.enqueue(transfer.NewJob(op, srcs, t.Dir))
	eff.Status = fmt.Sprintf("queued %s of %d file(s)", op, len(srcs))
	return eff
}

// confirmDestructive opens the confirmation gate. An empty flagged set
// flags the cursor entry first so the action is never a silent no-op.
func (s *Session) confirmDestructive(t *Tab, action ConfirmAction) Effect {
	if s.flagged.Len() == 0 {
		e, ok := t.Current()
		if !ok {
			return status("nothing to " + action.String())
		}
		s.flagged.Flag(e.Path)
	}
	t.Edit = &ConfirmMode{Action: action, Paths: s.flagged.Paths()}
	return Effect{}
}

func (s *Session) flaggedOrCurrent(t *Tab) []string {
	if s.flagged.Len() > 0 {
		return s.flagged.Paths()
	}
	if e, ok := t.Current(); ok {
		return []string{e.Path}
	}
	return nil
}

func (s *Session) inputWithHistory(kind InputKind) *InputMode {
	hist := s.inputHist[kind]
	return &InputMode{Kind: kind, hist: hist, histAt: len(hist)}
}

func (s *Session) enterPreview(t *Tab) Effect {
	e, ok := t.Current()
	if !ok {
		return status("nothing to preview")
	}
	t.PreviewRes = nil
	t.PreviewOff = 0
	t.pushMode(ModePreview)
	return Effect{Previews: []preview.Request{t.previewRequest(e.Path, s.cfg.PreviewByteCap, 0)}}
}

func (s *Session) enterTree(t *Tab) Effect {
	childCap := 3 * t.Height
	if childCap < 100 {
		childCap = 100
	}
	tr, err := tree.New(t.Dir, tree.Options{
		ShowHidden: t.Show.Hidden,
		Filter:     t.Show.Filter,
		Sort:       t.Show.Sort,
		ChildCap:   childCap,
		MaxNodes:   s.cfg.TreeUnfoldCap,
	})
	if err != nil {
		return errStatus(err)
	}
	t.Tree = tr
	t.TreeCur = tr.Root()
	t.pushMode(ModeTree)
	return Effect{}
}

// leaveTree tears the arena down; next entry rebuilds it fresh.
func (s *Session) leaveTree(t *Tab) {
	t.Tree = nil
	t.TreeCur = tree.None
	t.popMode()
}

func (s *Session) dispatchTree(t *Tab, act Action) Effect {
	tr := t.Tree
	if tr == nil {
		t.popMode()
		return Effect{}
	}
	switch act.Kind {
	case ActUp:
		t.TreeCur = tr.PrevVisible(t.TreeCur)
	case ActDown:
		t.TreeCur = tr.NextVisible(t.TreeCur)
	case ActWheelUp:
		for i := 0; i < 3; i++ {
			t.TreeCur = tr.PrevVisible(t.TreeCur)
		}
	case ActWheelDown:
		for i := 0; i < 3; i++ {
			t.TreeCur = tr.NextVisible(t.TreeCur)
		}
	case ActPageUp:
		t.TreeCur = tr.PrevSibling(t.TreeCur)
	case ActPageDown:
		t.TreeCur = tr.NextSibling(t.TreeCur)
	case ActTop:
		t.TreeCur = tr.Root()
	case ActBottom:
		if seq := tr.VisibleSeq(); len(seq) > 0 {
			t.TreeCur = seq[len(seq)-1]
		}
	case ActLeft:
		// fold an open directory, otherwise climb to the parent
		if tr.IsDir(t.TreeCur) && !tr.Folded(t.TreeCur) && tr.HasChildren(t.TreeCur) {
			tr.Fold(t.TreeCur)
		} else if p := tr.Parent(t.TreeCur); p != tree.None {
			t.TreeCur = p
		}
	case ActRight:
		if tr.IsDir(t.TreeCur) {
			if err := tr.Unfold(t.TreeCur); err != nil {
				return errStatus(err)
			}
		}
	case ActFold:
		if err := tr.ToggleFold(t.TreeCur); err != nil {
			return errStatus(err)
		}
	case ActUnfoldAll:
		if truncated := tr.UnfoldAll(t.TreeCur); truncated {
			return status(fmt.Sprintf("tree capped at %d nodes", s.cfg.TreeUnfoldCap))
		}
	case ActToggleFlag:
		if path := tr.Path(t.TreeCur); path != "" && path != t.Dir {
			s.flagged.Toggle(path)
			t.TreeCur = tr.NextVisible(t.TreeCur)
		}
	case ActEnter:
		return s.treeActivate(t)
	case ActEscape, ActTree:
		s.leaveTree(t)
	case ActRefresh:
		cur := tr.Path(t.TreeCur)
		eff := s.enterTreeAgain(t)
		if id, ok := t.Tree.Lookup(cur); ok {
			t.TreeCur = id
		}
		return eff
	case ActCopy:
		return s.queueTransfer(t, transfer.OpCopy)
	case ActMove:
		return s.queueTransfer(t, transfer.OpMove)
	case ActSymlink:
		return s.queueTransfer(t, transfer.OpSymlink)
	case ActCompress:
		return s.queueTransfer(t, transfer.OpCompress)
	case ActTrash:
		return s.confirmDestructive(t, ConfirmTrash)
	case ActDeleteFile:
		return s.confirmDestructive(t, ConfirmDelete)
	}
	return Effect{}
}

// enterTreeAgain rebuilds the arena in place, keeping display mode.
func (s *Session) enterTreeAgain(t *Tab) Effect {
	childCap := 3 * t.Height
	if childCap < 100 {
		childCap = 100
	}
	tr, err := tree.New(t.Dir, tree.Options{
		ShowHidden: t.Show.Hidden,
		Filter:     t.Show.Filter,
		Sort:       t.Show.Sort,
		ChildCap:   childCap,
		MaxNodes:   s.cfg.TreeUnfoldCap,
	})
	if err != nil {
		return errStatus(err)
	}
	t.Tree = tr
	t.TreeCur = tr.Root()
	return Effect{}
}

// treeActivate is Enter on a tree node: a directory becomes the new
// working directory, a file lands the cursor on itself in its parent.
func (s *Session) treeActivate(t *Tab) Effect {
	tr := t.Tree
	path := tr.Path(t.TreeCur)
	if path == "" {
		return Effect{}
	}
	isDir := tr.IsDir(t.TreeCur)
	name := tr.Name(t.TreeCur)
	s.leaveTree(t)
	if isDir {
		return s.cd(t, path)
	}
	eff := s.cd(t, filepath.Dir(path))
	t.pendingSelect = name
	return eff
}

func (s *Session) dispatchPreview(t *Tab, act Action) Effect {
	switch act.Kind {
	case ActUp:
		t.scrollPreview(-1)
	case ActDown:
		t.scrollPreview(1)
	case ActWheelUp:
		t.scrollPreview(-3)
	case ActWheelDown:
		t.scrollPreview(3)
	case ActPageUp:
		t.scrollPreview(-t.Height)
	case ActPageDown:
		t.scrollPreview(t.Height)
	case ActTop:
		t.PreviewOff = 0
	case ActBottom:
		t.scrollPreview(1 << 30)
	case ActLeft:
		t.moveCursor(-1)
		return s.requestCurrentPreview(t)
	case ActRight:
		t.moveCursor(1)
		return s.requestCurrentPreview(t)
	case ActEscape, ActPreview, ActEnter:
		t.PreviewRes = nil
		t.popMode()
	}
	return Effect{}
}

func (s *Session) requestCurrentPreview(t *Tab) Effect {
	e, ok := t.Current()
	if !ok {
		return Effect{}
	}
	t.PreviewOff = 0
	return Effect{Previews: []preview.Request{t.previewRequest(e.Path, s.cfg.PreviewByteCap, 0)}}
}

func (s *Session) dispatchFlagged(t *Tab, act Action) Effect {
	paths := s.flagged.Paths()
	t.clampFlagCur(len(paths))
	switch act.Kind {
	case ActUp, ActWheelUp:
		t.FlagCur--
	case ActDown, ActWheelDown:
		t.FlagCur++
	case ActTop:
		t.FlagCur = 0
	case ActBottom:
		t.FlagCur = len(paths) - 1
	case ActToggleFlag:
		if t.FlagCur >= 0 && t.FlagCur < len(paths) {
			s.flagged.Unflag(paths[t.FlagCur])
		}
	case ActClearFlags:
		s.flagged.Clear()
	case ActTrash:
		return s.confirmDestructive(t, ConfirmTrash)
	case ActDeleteFile:
		return s.confirmDestructive(t, ConfirmDelete)
	case ActEnter:
		if t.FlagCur >= 0 && t.FlagCur < len(paths) {
			return s.jumpTo(t, paths[t.FlagCur])
		}
	case ActEscape, ActFlaggedView:
		t.popMode()
	}
	t.clampFlagCur(s.flagged.Len())
	return Effect{}
}

// jumpTo leaves the current display mode and lands the cursor on path.
func (s *Session) jumpTo(t *Tab, path string) Effect {
	for t.Display != ModeDirectory {
		t.popMode()
	}
	info, err := os.Stat(path)
	if err == nil && info.IsDir() {
		return s.cd(t, path)
	}
	eff := s.cd(t, filepath.Dir(path))
	t.pendingSelect = filepath.Base(path)
	return eff
}

func (s *Session) dispatchHelp(t *Tab, act Action) Effect {
	switch act.Kind {
	case ActUp, ActWheelUp:
		if t.HelpOff > 0 {
			t.HelpOff--
		}
	case ActDown, ActWheelDown:
		t.HelpOff++
	case ActEscape, ActEnter:
		t.popMode()
	}
	return Effect{}
}

func historyItems(t *Tab) []NavItem {
	dirs := t.History()
	items := make([]NavItem, 0, len(dirs))
	for _, d := range dirs {
		items = append(items, NavItem{Label: d, Value: d})
	}
	return items
}

func (s *Session) flaggedItems() []NavItem {
	paths := s.flagged.Paths()
	items := make([]NavItem, 0, len(paths))
	for _, p := range paths {
		items = append(items, NavItem{Label: p, Value: p})
	}
	return items
}

func (s *Session) jobItems() []NavItem {
	views := s.Jobs()
	items := make([]NavItem, 0, len(views))
	for _, jv := range views {
		p := jv.Progress
		label := fmt.Sprintf("%-8s %-17s %d/%d", p.Op, p.Status, p.FilesDone, p.FilesTotal)
		items = append(items, NavItem{Label: label, Value: p.JobID.String()})
	}
	return items
}

// shortcutItems are the standard directories, filtered to those that
// exist.
func shortcutItems() []NavItem {
	var candidates []string
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, home)
		for _, sub := range []string{"Desktop", "Documents", "Downloads", "Music", "Pictures", "Videos", ".config"} {
			candidates = append(candidates, filepath.Join(home, sub))
		}
	}
	candidates = append(candidates, "/", "/tmp", "/usr/share", "/etc")
	var items []NavItem
	for _, dir := range candidates {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			items = append(items, NavItem{Label: dir, Value: dir})
		}
	}
	return items
}
