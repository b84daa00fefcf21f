package session

import (
	"os/exec"

	"rovefs/internal/fsx"
	"rovefs/internal/preview"
	"rovefs/internal/transfer"
)

// ActionKind is the logical input vocabulary. The ui resolves raw key
// and mouse events into these; dispatch never sees terminal events.
type ActionKind int

const (
	ActNone ActionKind = iota

	// Fixed keys.
	ActUp
	ActDown
	ActLeft
	ActRight
	ActEnter
	ActEscape
	ActBackspace
	ActDelete
	ActTab
	ActPageUp
	ActPageDown
	ActTop
	ActBottom
	ActRune

	// Mouse, already resolved to rows and wheel steps.
	ActSelectRow
	ActWheelUp
	ActWheelDown

	// Keymap actions.
	ActToggleHidden
	ActCopy
	ActMove
	ActNewDir
	ActNewFile
	ActChmod
	ActExec
	ActGoto
	ActRename
	ActClearFlags
	ActToggleFlag
	ActShell
	ActTrash
	ActDeleteFile
	ActOpenFile
	ActHelp
	ActSearch
	ActSearchNext
	ActRegexMatch
	ActQuit
	ActFlagAll
	ActReverseFlags
	ActJump
	ActEdit
	ActSort
	ActSymlink
	ActPreview
	ActShortcut
	ActBulkEdit
	ActMarkSet
	ActMarkJump
	ActFilter
	ActBack
	ActHome
	ActTree
	ActFlaggedView
	ActFold
	ActUnfoldAll
	ActCompress
	ActJobs
	ActHistory
	ActRefresh
	ActTabNew
	ActTabClose
	ActTabNext
	ActTabPrev
	ActPaneToggle
)

// Action is one resolved input. Rune carries the printable key for
// ActRune; N carries the row for ActSelectRow.
type Action struct {
	Kind ActionKind
	Rune rune
	N    int
}

// ListRequest asks for an off-thread listing of Dir for the tab.
type ListRequest struct {
	TabID int
	Dir   string
	Opts  fsx.ListOptions
}

// ShellRequest is a captured external command.
type ShellRequest struct {
	Cmdline string
	Dir     string
}

// FollowUp says what to do after an interactive command returns.
type FollowUp int

const (
	FollowReload FollowUp = iota
	FollowBulkApply
)

// InteractiveRequest suspends the UI for Cmd, then reports back with
// the follow-up tag.
type InteractiveRequest struct {
	Cmd    *exec.Cmd
	Follow FollowUp
}

// Effect is everything a dispatch or apply step wants done outside the
// session: worker requests, process launches, and the transient status
// line. The zero value means "nothing".
type Effect struct {
	Quit      bool
	Status    string
	StatusErr bool

	Jobs      []*transfer.Job
	CancelJob bool
	Previews  []preview.Request
	Lists     []ListRequest

	Shell       *ShellRequest
	Interactive *InteractiveRequest
	Open        string
}

func (e *Effect) merge(other Effect) {
	e.Quit = e.Quit || other.Quit
	if other.Status != "" {
		e.Status = other.Status
		e.StatusErr = other.StatusErr
	}
	e.Jobs = append(e.Jobs, other.Jobs...)
	e.CancelJob = e.CancelJob || other.CancelJob
	e.Previews = append(e.Previews, other.Previews...)
	e.Lists = append(e.Lists, other.Lists...)
	if other.Shell != nil {
		e.Shell = other.Shell
	}
	if other.Interactive != nil {
		e.Interactive = other.Interactive
	}
	if other.Open != "" {
		e.Open = other.Open
	}
}

func status(format string) Effect { return Effect{Status: format} }

func errStatus(err error) Effect {
	if err == nil {
		return Effect{}
	}
	return Effect{Status: err.Error(), StatusErr: true}
}

// Event is what the notification sink receives.
type EventKind int

const (
	EventOpened EventKind = iota
	EventDeleted
	EventCreated
)

func (k EventKind) String() string {
	switch k {
	case EventOpened:
		return "opened"
	case EventDeleted:
		return "deleted"
	case EventCreated:
		return "created"
	default:
		return "event"
	}
}

type Event struct {
	Kind EventKind
	Path string
}
