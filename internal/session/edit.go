package session

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"rovefs/internal/fserr"
	"rovefs/internal/fsx"
	"rovefs/internal/runner"
	"rovefs/internal/transfer"
)

// dispatchEdit routes an action into the active edit mode. Printable
// keys never leak into the display mode underneath.
func (s *Session) dispatchEdit(t *Tab, act Action) Effect {
	switch m := t.Edit.(type) {
	case *InputMode:
		return s.editInput(t, m, act)
	case *NavigateMode:
		return s.editNavigate(t, m, act)
	case *ConfirmMode:
		return s.editConfirm(t, m, act)
	case *SortMode:
		return s.editSort(t, act)
	case *MarkSetMode:
		return s.editMarkSet(t, act)
	case *BulkEditMode:
		// the external editor owns the terminal until it exits
		return Effect{}
	}
	return Effect{}
}

func (s *Session) editInput(t *Tab, m *InputMode, act Action) Effect {
	switch act.Kind {
	case ActRune:
		m.Line.Insert(act.Rune)
	case ActBackspace:
		m.Line.Backspace()
	case ActDelete:
		m.Line.Delete()
	case ActLeft:
		m.Line.Left()
	case ActRight:
		m.Line.Right()
	case ActTop:
		m.Line.Home()
	case ActBottom:
		m.Line.End()
	case ActUp:
		m.histPrev()
	case ActDown:
		m.histNext()
	case ActTab:
		if m.Kind == InputGoto {
			completePath(t, m)
		}
	case ActEnter:
		return s.commitInput(t, m)
	case ActEscape:
		t.Edit = nil
	}
	return Effect{}
}

// commitInput runs the Enter handler for the prompt. Validation
// failures keep the prompt open with an error status so the line can
// be corrected in place.
func (s *Session) commitInput(t *Tab, m *InputMode) Effect {
	line := strings.TrimSpace(m.Line.String())
	switch m.Kind {
	case InputRename:
		return s.commitRename(t, m, line)
	case InputNewFile:
		return s.commitNewFile(t, line)
	case InputNewDir:
		return s.commitNewDir(t, line)
	case InputChmod:
		return s.commitChmod(t, m, line)
	case InputGoto:
		return s.commitGoto(t, line)
	case InputSearch:
		return s.commitSearch(t, line)
	case InputFilter:
		return s.commitFilter(t, line)
	case InputRegexMatch:
		return s.commitRegexMatch(t, line)
	case InputShell:
		return s.commitShell(t, line)
	case InputExec:
		return s.commitExec(t, m, line)
	}
	t.Edit = nil
	return Effect{}
}

func (s *Session) commitRename(t *Tab, m *InputMode, name string) Effect {
	if name == "" {
		t.Edit = nil
		return Effect{}
	}
	if strings.ContainsRune(name, filepath.Separator) {
		return errStatus(fserr.Invalid("name %q contains a path separator", name))
	}
	dst := filepath.Join(filepath.Dir(m.Target), name)
	if dst == m.Target {
		t.Edit = nil
		return Effect{}
	}
	if _, err := os.Lstat(dst); err == nil {
		return errStatus(fserr.New("rename", dst, fserr.KindExists, nil))
	}
	if err := os.Rename(m.Target, dst); err != nil {
		return errStatus(fserr.Classify("rename", m.Target, err))
	}
	t.Edit = nil
	t.pendingSelect = name
	eff := s.refreshDir(filepath.Dir(dst))
	eff.Status = "renamed to " + name
	return eff
}

func (s *Session) commitNewFile(t *Tab, name string) Effect {
	if name == "" {
		t.Edit = nil
		return Effect{}
	}
	if strings.ContainsRune(name, filepath.Separator) {
		return errStatus(fserr.Invalid("name %q contains a path separator", name))
	}
	path := filepath.Join(t.Dir, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return errStatus(fserr.Classify("create", path, err))
	}
	f.Close()
	s.recordInput(InputNewFile, name)
	s.notify(Event{Kind: EventCreated, Path: path})
	t.Edit = nil
	t.pendingSelect = name
	eff := s.refreshDir(t.Dir)
	eff.Status = "created " + name
	return eff
}

func (s *Session) commitNewDir(t *Tab, name string) Effect {
	if name == "" {
		t.Edit = nil
		return Effect{}
	}
	if strings.ContainsRune(name, filepath.Separator) {
		return errStatus(fserr.Invalid("name %q contains a path separator", name))
	}
	path := filepath.Join(t.Dir, name)
	if err := os.Mkdir(path, 0o755); err != nil {
		return errStatus(fserr.Classify("mkdir", path, err))
	}
	s.recordInput(InputNewDir, name)
	s.notify(Event{Kind: EventCreated, Path: path})
	t.Edit = nil
	t.pendingSelect = name
	eff := s.refreshDir(t.Dir)
	eff.Status = "created " + name + "/"
	return eff
}

func (s *Session) commitChmod(t *Tab, m *InputMode, line string) Effect {
	bits, err := strconv.ParseUint(line, 8, 32)
	if err != nil || bits > 0o7777 {
		return errStatus(fserr.Invalid("bad octal mode %q", line))
	}
	mode := os.FileMode(bits)
	failed := 0
	var firstErr error
	for _, path := range m.Targets {
		if err := os.Chmod(path, mode); err != nil {
			failed++
			if firstErr == nil {
				firstErr = fserr.Classify("chmod", path, err)
			}
		}
	}
	s.recordInput(InputChmod, line)
	t.Edit = nil
	eff := s.refreshDir(t.Dir)
	if failed > 0 {
		eff.Status = firstErr.Error()
		eff.StatusErr = true
	} else {
		eff.Status = fmt.Sprintf("mode %s set on %d file(s)", line, len(m.Targets))
	}
	return eff
}

func (s *Session) commitGoto(t *Tab, line string) Effect {
	if line == "" {
		t.Edit = nil
		return Effect{}
	}
	path := expandPath(line, t.Dir)
	info, err := os.Stat(path)
	if err != nil {
		return errStatus(fserr.Classify("goto", path, err))
	}
	s.recordInput(InputGoto, line)
	t.Edit = nil
	if info.IsDir() {
		return s.cd(t, path)
	}
	eff := s.cd(t, filepath.Dir(path))
	t.pendingSelect = filepath.Base(path)
	return eff
}

func (s *Session) commitSearch(t *Tab, line string) Effect {
	t.Search = line
	s.recordInput(InputSearch, line)
	t.Edit = nil
	if line == "" {
		return status("search cleared")
	}
	if i := t.nextMatch(); i >= 0 {
		t.cursorTo(i)
		return Effect{}
	}
	return status("no match for " + line)
}

func (s *Session) commitFilter(t *Tab, line string) Effect {
	f, err := fsx.ParseFilter(line)
	if err != nil {
		return errStatus(err)
	}
	t.Show.Filter = f
	s.recordInput(InputFilter, line)
	t.Edit = nil
	eff := s.listTab(t)
	if f.Active() {
		eff.Status = "filter: " + f.String()
	} else {
		eff.Status = "filter cleared"
	}
	return eff
}

func (s *Session) commitRegexMatch(t *Tab, line string) Effect {
	if line == "" {
		t.Edit = nil
		return Effect{}
	}
	re, err := regexp.Compile(line)
	if err != nil {
		return errStatus(fserr.Invalid("bad regex %q: %v", line, err))
	}
	n := 0
	for _, e := range t.Entries {
		if re.MatchString(e.Name) {
			s.flagged.Flag(e.Path)
			n++
		}
	}
	s.recordInput(InputRegexMatch, line)
	t.Edit = nil
	return status(fmt.Sprintf("%d flagged", n))
}

func (s *Session) commitShell(t *Tab, line string) Effect {
	if line == "" {
		t.Edit = nil
		return Effect{Interactive: &InteractiveRequest{
			Cmd:    runner.InteractiveShell(t.Dir),
			Follow: FollowReload,
		}}
	}
	current := ""
	if e, ok := t.Current(); ok {
		current = e.Path
	}
	cmdline := runner.Expand(line, current, s.flagged.Paths(), t.Dir)
	s.recordInput(InputShell, line)
	t.Edit = nil
	return Effect{Shell: &ShellRequest{Cmdline: cmdline, Dir: t.Dir}}
}

func (s *Session) commitExec(t *Tab, m *InputMode, line string) Effect {
	if line == "" {
		t.Edit = nil
		return Effect{}
	}
	cmdline := line
	if !strings.Contains(cmdline, "$f") && !strings.Contains(cmdline, "$s") {
		cmdline += " $f"
	}
	cmdline = runner.Expand(cmdline, m.Target, nil, t.Dir)
	s.recordInput(InputExec, line)
	t.Edit = nil
	return Effect{Shell: &ShellRequest{Cmdline: cmdline, Dir: t.Dir}}
}

// expandPath resolves ~ and relative input against the listed
// directory.
func expandPath(input, dir string) string {
	if input == "~" || strings.HasPrefix(input, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			input = filepath.Join(home, strings.TrimPrefix(input, "~"))
		}
	}
	if !filepath.IsAbs(input) {
		input = filepath.Join(dir, input)
	}
	return filepath.Clean(input)
}

// completePath extends the goto buffer to the longest shared prefix of
// the entries matching the typed segment. Single directory candidates
// complete with a trailing separator so the next Tab descends.
func completePath(t *Tab, m *InputMode) {
	input := m.Line.String()
	dirPart, base := filepath.Split(input)
	ents, err := os.ReadDir(expandPath(dirPart, t.Dir))
	if err != nil {
		return
	}
	var names []string
	for _, de := range ents {
		if strings.HasPrefix(de.Name(), base) {
			name := de.Name()
			if de.IsDir() {
				name += string(filepath.Separator)
			}
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return
	}
	m.Line.Set(dirPart + commonPrefix(names))
}

func commonPrefix(names []string) string {
	prefix := []rune(names[0])
	for _, n := range names[1:] {
		r := []rune(n)
		i := 0
		for i < len(prefix) && i < len(r) && prefix[i] == r[i] {
			i++
		}
		prefix = prefix[:i]
	}
	return string(prefix)
}

func (s *Session) editNavigate(t *Tab, m *NavigateMode, act Action) Effect {
	switch act.Kind {
	case ActUp, ActWheelUp:
		m.move(-1)
	case ActDown, ActWheelDown:
		m.move(1)
	case ActPageUp:
		m.move(-t.Height)
	case ActPageDown:
		m.move(t.Height)
	case ActTop:
		m.Cursor = 0
	case ActBottom:
		m.move(len(m.Items))
	case ActRune:
		if m.Kind == NavMarks {
			for _, it := range m.Items {
				if it.Rune == act.Rune {
					t.Edit = nil
					return s.jumpDir(t, it.Value)
				}
			}
		}
	case ActEnter:
		return s.navigateSelect(t, m)
	case ActEscape:
		t.Edit = nil
	}
	return Effect{}
}

func (s *Session) navigateSelect(t *Tab, m *NavigateMode) Effect {
	if m.Cursor < 0 || m.Cursor >= len(m.Items) {
		t.Edit = nil
		return Effect{}
	}
	item := m.Items[m.Cursor]
	switch m.Kind {
	case NavJobs:
		return s.jobSelect(t, item)
	case NavJump:
		t.Edit = nil
		return s.jumpTo(t, item.Value)
	default:
		// marks, history and shortcuts all carry directories
		t.Edit = nil
		return s.jumpDir(t, item.Value)
	}
}

// jumpDir changes into dir, which may have vanished since the menu was
// built.
func (s *Session) jumpDir(t *Tab, dir string) Effect {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return errStatus(fserr.New("goto", dir, fserr.KindIO, err))
	}
	return s.cd(t, dir)
}

// jobSelect turns Enter on a running job into a cancel confirmation.
func (s *Session) jobSelect(t *Tab, item NavItem) Effect {
	id, err := uuid.Parse(item.Value)
	if err != nil {
		t.Edit = nil
		return Effect{}
	}
	jv, ok := s.jobs[id]
	if !ok {
		t.Edit = nil
		return Effect{}
	}
	if jv.Progress.Status != transfer.StatusRunning {
		return status(fmt.Sprintf("%s is %s", jv.Progress.Op, jv.Progress.Status))
	}
	t.Edit = &ConfirmMode{Action: ConfirmCancelJob, Paths: jv.Srcs}
	return Effect{}
}

// editConfirm accepts only an explicit yes; everything except y, n and
// Escape is swallowed so a stray keystroke can never destroy files.
func (s *Session) editConfirm(t *Tab, m *ConfirmMode, act Action) Effect {
	switch act.Kind {
	case ActRune:
		switch act.Rune {
		case 'y', 'Y':
			t.Edit = nil
			return s.confirmCommit(m)
		case 'n', 'N':
			t.Edit = nil
		}
	case ActEscape:
		t.Edit = nil
	}
	return Effect{}
}

func (s *Session) confirmCommit(m *ConfirmMode) Effect {
	switch m.Action {
	case ConfirmDelete:
		return s.queueDestructive(transfer.OpDelete, m.Paths)
	case ConfirmTrash:
		return s.queueDestructive(transfer.OpTrash, m.Paths)
	case ConfirmCancelJob:
		return Effect{CancelJob: true, Status: "cancelling"}
	}
	return Effect{}
}

func (s *Session) queueDestructive(op transfer.Op, paths []string) Effect {
	eff := s.enqueue(transfer.NewJob(op, paths, ""))
	eff.Status = fmt.Sprintf("queued %s of %d file(s)", op, len(paths))
	return eff
}

func (s *Session) editSort(t *Tab, act Action) Effect {
	switch act.Kind {
	case ActRune:
		k, ok := t.Show.Sort.FromRune(act.Rune)
		if !ok {
			return Effect{}
		}
		t.Show.Sort = k
		t.Edit = nil
		eff := s.listTab(t)
		eff.Status = "sort: " + k.String()
		return eff
	case ActEscape, ActEnter:
		t.Edit = nil
	}
	return Effect{}
}

func (s *Session) editMarkSet(t *Tab, act Action) Effect {
	switch act.Kind {
	case ActRune:
		t.Edit = nil
		if err := s.marks.Set(act.Rune, t.Dir); err != nil {
			return errStatus(err)
		}
		return status(fmt.Sprintf("marked %s as %c", t.Dir, act.Rune))
	case ActEscape, ActEnter:
		t.Edit = nil
	}
	return Effect{}
}

// startBulkEdit writes the flagged names to a temp file and opens the
// editor on it; the edited lines become the new names on return.
func (s *Session) startBulkEdit(t *Tab) Effect {
	srcs := s.flaggedOrCurrent(t)
	if len(srcs) == 0 {
		return status("nothing to rename")
	}
	f, err := os.CreateTemp("", "rovefs-bulk-*.txt")
	if err != nil {
		return errStatus(fserr.Classify("bulk rename", "", err))
	}
	for _, src := range srcs {
		if _, err := fmt.Fprintln(f, filepath.Base(src)); err != nil {
			f.Close()
			os.Remove(f.Name())
			return errStatus(fserr.Classify("bulk rename", f.Name(), err))
		}
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return errStatus(fserr.Classify("bulk rename", f.Name(), err))
	}
	bulk := &BulkEditMode{TmpPath: f.Name(), Sources: srcs}
	t.Edit = bulk
	s.pendingBulk = bulk
	return Effect{Interactive: &InteractiveRequest{
		Cmd:    runner.EditorCmd([]string{f.Name()}, t.Dir),
		Follow: FollowBulkApply,
	}}
}

// applyBulkRenames reads back the edited list and renames pairwise. A
// line left blank or unchanged keeps its file; a changed line count
// aborts the whole batch.
func (s *Session) applyBulkRenames(bulk *BulkEditMode) Effect {
	for _, t := range s.tabs {
		if t.Edit == bulk {
			t.Edit = nil
		}
	}
	data, err := os.ReadFile(bulk.TmpPath)
	if err != nil {
		return errStatus(fserr.Classify("bulk rename", bulk.TmpPath, err))
	}
	names := splitNameLines(string(data))
	if len(names) != len(bulk.Sources) {
		return errStatus(fserr.Invalid("bulk rename: %d name(s) for %d file(s)", len(names), len(bulk.Sources)))
	}

	renamed, failed := 0, 0
	var firstErr error
	dirs := map[string]bool{}
	for i, src := range bulk.Sources {
		name := strings.TrimSpace(names[i])
		if name == "" || name == filepath.Base(src) {
			continue
		}
		if strings.ContainsRune(name, filepath.Separator) {
			failed++
			if firstErr == nil {
				firstErr = fserr.Invalid("name %q contains a path separator", name)
			}
			continue
		}
		dst := filepath.Join(filepath.Dir(src), name)
		if _, err := os.Lstat(dst); err == nil {
			failed++
			if firstErr == nil {
				firstErr = fserr.New("rename", dst, fserr.KindExists, nil)
			}
			continue
		}
		if err := os.Rename(src, dst); err != nil {
			failed++
			if firstErr == nil {
				firstErr = fserr.Classify("rename", src, err)
			}
			continue
		}
		renamed++
		dirs[filepath.Dir(src)] = true
	}

	var eff Effect
	for dir := range dirs {
		eff.merge(s.refreshDir(dir))
	}
	if failed > 0 {
		eff.Status = fmt.Sprintf("renamed %d, %d failed: %v", renamed, failed, firstErr)
		eff.StatusErr = true
	} else {
		eff.Status = fmt.Sprintf("renamed %d file(s)", renamed)
	}
	return eff
}

// splitNameLines drops trailing blank lines but keeps interior ones,
// so deleting a line is a count mismatch while blanking one is a skip.
func splitNameLines(s string) []string {
	lines := strings.Split(s, "\n")
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// refreshDir re-lists every tab sitting in dir and invalidates any
// tree caching it.
func (s *Session) refreshDir(dir string) Effect {
	var eff Effect
	for _, t := range s.tabs {
		if t.Dir == dir && t.Edit == nil {
			eff.merge(s.listTab(t))
		}
		if t.Tree != nil {
			t.Tree.Invalidate(dir)
		}
	}
	return eff
}
