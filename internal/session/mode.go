package session

// DisplayMode selects what the focused pane renders.
type DisplayMode int

const (
	ModeDirectory DisplayMode = iota
	ModeTree
	ModePreview
	ModeFlagged
	ModeHelp
)

func (m DisplayMode) String() string {
	switch m {
	case ModeDirectory:
		return "directory"
	case ModeTree:
		return "tree"
	case ModePreview:
		return "preview"
	case ModeFlagged:
		return "flagged"
	case ModeHelp:
		return "help"
	default:
		return "unknown"
	}
}

// EditMode is the modal layer on top of a display mode. While one is
// active it captures printable keys; Enter commits and Escape cancels.
type EditMode interface {
	// Title is the prompt shown in the input line.
	Title() string
	// MustRefresh reports whether committing requires re-listing the
	// directory the mode was opened in.
	MustRefresh() bool
}

// InputKind discriminates the text-input modes.
type InputKind int

const (
	InputRename InputKind = iota
	InputNewFile
	InputNewDir
	InputChmod
	InputGoto
	InputSearch
	InputFilter
	InputRegexMatch
	InputShell
	InputExec
)

func (k InputKind) String() string {
	switch k {
	case InputRename:
		return "rename"
	case InputNewFile:
		return "new file"
	case InputNewDir:
		return "new dir"
	case InputChmod:
		return "chmod"
	case InputGoto:
		return "goto"
	case InputSearch:
		return "search"
	case InputFilter:
		return "filter"
	case InputRegexMatch:
		return "regex match"
	case InputShell:
		return "shell"
	case InputExec:
		return "exec"
	default:
		return "input"
	}
}

// InputMode is a one-line text prompt.
type InputMode struct {
	Kind InputKind
	Line InputLine
	// Target is the path the input applies to, captured when the mode
	// opens so cursor moves cannot retarget a pending rename.
	Target string
	// Targets carries the multi-path capture for chmod.
	Targets []string
	hist    []string
	histAt  int
}

func (m *InputMode) Title() string { return m.Kind.String() }

func (m *InputMode) MustRefresh() bool {
	switch m.Kind {
	case InputRename, InputNewFile, InputNewDir, InputChmod, InputFilter:
		return true
	default:
		return false
	}
}

// histPrev replaces the buffer with the previous committed input.
func (m *InputMode) histPrev() {
	if len(m.hist) == 0 {
		return
	}
	if m.histAt > 0 {
		m.histAt--
	}
	m.Line.Set(m.hist[m.histAt])
}

func (m *InputMode) histNext() {
	if len(m.hist) == 0 {
		return
	}
	if m.histAt < len(m.hist)-1 {
		m.histAt++
		m.Line.Set(m.hist[m.histAt])
		return
	}
	m.histAt = len(m.hist)
	m.Line.Set("")
}

// NavigateKind discriminates the list menus.
type NavigateKind int

const (
	NavMarks NavigateKind = iota
	NavHistory
	NavJobs
	NavShortcut
	NavJump
)

func (k NavigateKind) String() string {
	switch k {
	case NavMarks:
		return "marks"
	case NavHistory:
		return "history"
	case NavJobs:
		return "jobs"
	case NavShortcut:
		return "shortcuts"
	case NavJump:
		return "flagged"
	default:
		return "menu"
	}
}

// NavItem is one selectable row of a menu.
type NavItem struct {
	Label string
	Value string
	Rune  rune
}

// NavigateMode is a selectable list: marks, history, jobs, shortcuts,
// or the flagged set for jumping.
type NavigateMode struct {
	Kind   NavigateKind
	Items  []NavItem
	Cursor int
}

func (m *NavigateMode) Title() string     { return m.Kind.String() }
func (m *NavigateMode) MustRefresh() bool { return false }

func (m *NavigateMode) move(delta int) {
	if len(m.Items) == 0 {
		m.Cursor = 0
		return
	}
	m.Cursor += delta
	if m.Cursor < 0 {
		m.Cursor = 0
	}
	if m.Cursor >= len(m.Items) {
		m.Cursor = len(m.Items) - 1
	}
}

// ConfirmAction says what a confirmation commits to.
type ConfirmAction int

const (
	ConfirmDelete ConfirmAction = iota
	ConfirmTrash
	ConfirmCancelJob
)

func (a ConfirmAction) String() string {
	switch a {
	case ConfirmDelete:
		return "delete"
	case ConfirmTrash:
		return "trash"
	case ConfirmCancelJob:
		return "cancel job"
	default:
		return "confirm"
	}
}

// ConfirmMode gates destructive actions behind an explicit yes. It
// shows the affected paths and accepts only y or n.
type ConfirmMode struct {
	Action ConfirmAction
	Paths  []string
}

func (m *ConfirmMode) Title() string     { return m.Action.String() + "?" }
func (m *ConfirmMode) MustRefresh() bool { return false }

// SortMode waits for a single sort rune.
type SortMode struct{}

func (m *SortMode) Title() string     { return "sort: k/n/m/s/e, upper=desc, r=reverse" }
func (m *SortMode) MustRefresh() bool { return true }

// MarkSetMode waits for the rune to bind the current directory to.
type MarkSetMode struct{}

func (m *MarkSetMode) Title() string     { return "mark char" }
func (m *MarkSetMode) MustRefresh() bool { return false }

// BulkEditMode remembers the sources written to the temp file while
// the external editor runs.
type BulkEditMode struct {
	TmpPath string
	Sources []string
}

func (m *BulkEditMode) Title() string     { return "bulk rename" }
func (m *BulkEditMode) MustRefresh() bool { return true }
