package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"rovefs/internal/config"
	"rovefs/internal/session"
)

// actionSpec ties a keymap action name to its dispatch kind and the
// description shown on the help screen.
type actionSpec struct {
	kind session.ActionKind
	desc string
}

var actionTable = map[string]actionSpec{
	config.ActToggleHidden: {session.ActToggleHidden, "toggle hidden files"},
	config.ActCopy:         {session.ActCopy, "copy flagged here"},
	config.ActMove:         {session.ActMove, "move flagged here"},
	config.ActNewDir:       {session.ActNewDir, "new directory"},
	config.ActNewFile:      {session.ActNewFile, "new file"},
	config.ActChmod:        {session.ActChmod, "change mode"},
	config.ActExec:         {session.ActExec, "run program on file"},
	config.ActGoto:         {session.ActGoto, "go to path"},
	config.ActRename:       {session.ActRename, "rename"},
	config.ActClearFlags:   {session.ActClearFlags, "clear flags"},
	config.ActToggleFlag:   {session.ActToggleFlag, "toggle flag"},
	config.ActShell:        {session.ActShell, "shell command"},
	config.ActTrash:        {session.ActTrash, "trash flagged"},
	config.ActDelete:       {session.ActDeleteFile, "delete flagged"},
	config.ActOpenFile:     {session.ActOpenFile, "open file"},
	config.ActHelp:         {session.ActHelp, "toggle help"},
	config.ActSearch:       {session.ActSearch, "search"},
	config.ActSearchNext:   {session.ActSearchNext, "next match"},
	config.ActRegexMatch:   {session.ActRegexMatch, "flag by regex"},
	config.ActQuit:         {session.ActQuit, "quit"},
	config.ActFlagAll:      {session.ActFlagAll, "flag all"},
	config.ActReverseFlags: {session.ActReverseFlags, "reverse flags"},
	config.ActJump:         {session.ActJump, "jump to flagged"},
	config.ActEdit:         {session.ActEdit, "edit in $EDITOR"},
	config.ActSort:         {session.ActSort, "sort order"},
	config.ActSymlink:      {session.ActSymlink, "symlink flagged here"},
	config.ActPreview:      {session.ActPreview, "preview"},
	config.ActShortcut:     {session.ActShortcut, "shortcuts"},
	config.ActBulkEdit:     {session.ActBulkEdit, "bulk rename"},
	config.ActMarkSet:      {session.ActMarkSet, "set mark"},
	config.ActMarkJump:     {session.ActMarkJump, "jump to mark"},
	config.ActFilter:       {session.ActFilter, "filter listing"},
	config.ActBack:         {session.ActBack, "previous directory"},
	config.ActHome:         {session.ActHome, "home directory"},
	config.ActTree:         {session.ActTree, "tree view"},
	config.ActFlaggedView:  {session.ActFlaggedView, "flagged view"},
	config.ActFold:         {session.ActFold, "fold all"},
	config.ActUnfoldAll:    {session.ActUnfoldAll, "unfold all"},
	config.ActCompress:     {session.ActCompress, "compress flagged here"},
	config.ActJobs:         {session.ActJobs, "job queue"},
	config.ActHistory:      {session.ActHistory, "directory history"},
	config.ActRefresh:      {session.ActRefresh, "refresh"},
	config.ActTabNew:       {session.ActTabNew, "new tab"},
	config.ActTabClose:     {session.ActTabClose, "close tab"},
	config.ActTabNext:      {session.ActTabNext, "next tab"},
	config.ActTabPrev:      {session.ActTabPrev, "previous tab"},
	config.ActPaneToggle:   {session.ActPaneToggle, "toggle dual pane"},
}

// HelpEntry is one binding line on the help screen.
type HelpEntry struct {
	Keys string
	Desc string
}

// fixedKeyMap are the non-remappable keys.
type fixedKeyMap struct {
	Quit      key.Binding
	Up        key.Binding
	Down      key.Binding
	Left      key.Binding
	Right     key.Binding
	Enter     key.Binding
	Escape    key.Binding
	Backspace key.Binding
	Delete    key.Binding
	Tab       key.Binding
	PageUp    key.Binding
	PageDown  key.Binding
	Top       key.Binding
	Bottom    key.Binding
}

func defaultFixedKeys() fixedKeyMap {
	return fixedKeyMap{
		Quit:      key.NewBinding(key.WithKeys("ctrl+c")),
		Up:        key.NewBinding(key.WithKeys("up")),
		Down:      key.NewBinding(key.WithKeys("down")),
		Left:      key.NewBinding(key.WithKeys("left")),
		Right:     key.NewBinding(key.WithKeys("right")),
		Enter:     key.NewBinding(key.WithKeys("enter")),
		Escape:    key.NewBinding(key.WithKeys("esc")),
		Backspace: key.NewBinding(key.WithKeys("backspace")),
		Delete:    key.NewBinding(key.WithKeys("delete")),
		Tab:       key.NewBinding(key.WithKeys("tab")),
		PageUp:    key.NewBinding(key.WithKeys("pgup")),
		PageDown:  key.NewBinding(key.WithKeys("pgdown")),
		Top:       key.NewBinding(key.WithKeys("home")),
		Bottom:    key.NewBinding(key.WithKeys("end")),
	}
}

// KeyMap resolves terminal chords into dispatch actions. Arrow keys,
// enter, escape and the other fixed keys are not part of the chord
// table and cannot be remapped.
type KeyMap struct {
	fixed  fixedKeyMap
	chords map[string]session.ActionKind
	help   []HelpEntry
}

// CompileKeyMap builds the lookup from a keys: table. Unknown action
// names are logged and skipped so a stale config cannot break startup.
func CompileKeyMap(bindings map[string][]string, log *logrus.Entry) KeyMap {
	km := KeyMap{fixed: defaultFixedKeys(), chords: make(map[string]session.ActionKind)}
	for _, name := range config.KnownActions {
		spec := actionTable[name]
		chords := bindings[name]
		shown := make([]string, 0, len(chords))
		for _, chord := range chords {
			if chord == "" {
				continue
			}
			km.chords[chordKey(chord)] = spec.kind
			shown = append(shown, chord)
		}
		if len(shown) > 0 {
			km.help = append(km.help, HelpEntry{Keys: strings.Join(shown, ", "), Desc: spec.desc})
		}
	}
	for name := range bindings {
		if _, ok := actionTable[name]; !ok {
			log.WithField("action", name).Warn("unknown action in keymap")
		}
	}
	return km
}

// chordKey normalizes a config chord to what tea.KeyMsg.String()
// produces; "space" is the only name that differs.
func chordKey(chord string) string {
	if chord == "space" {
		return " "
	}
	return chord
}

// Help lists the bound actions in a stable order for the help screen.
func (k KeyMap) Help() []HelpEntry { return k.help }

// Resolve turns a key event into a dispatch action. Fixed keys win over
// the chord table; while an edit mode is open, printable runes are
// delivered as ActRune and the chord table is bypassed so typing "q"
// into a prompt does not quit.
func (k KeyMap) Resolve(msg tea.KeyMsg, editing bool) session.Action {
	switch {
	case key.Matches(msg, k.fixed.Quit):
		return session.Action{Kind: session.ActQuit}
	case key.Matches(msg, k.fixed.Up):
		return session.Action{Kind: session.ActUp}
	case key.Matches(msg, k.fixed.Down):
		return session.Action{Kind: session.ActDown}
	case key.Matches(msg, k.fixed.Left):
		return session.Action{Kind: session.ActLeft}
	case key.Matches(msg, k.fixed.Right):
		return session.Action{Kind: session.ActRight}
	case key.Matches(msg, k.fixed.Enter):
		return session.Action{Kind: session.ActEnter}
	case key.Matches(msg, k.fixed.Escape):
		return session.Action{Kind: session.ActEscape}
	case key.Matches(msg, k.fixed.Backspace):
		return session.Action{Kind: session.ActBackspace}
	case key.Matches(msg, k.fixed.Delete):
		return session.Action{Kind: session.ActDelete}
	case key.Matches(msg, k.fixed.PageUp):
		return session.Action{Kind: session.ActPageUp}
	case key.Matches(msg, k.fixed.PageDown):
		return session.Action{Kind: session.ActPageDown}
	case key.Matches(msg, k.fixed.Top):
		return session.Action{Kind: session.ActTop}
	case key.Matches(msg, k.fixed.Bottom):
		return session.Action{Kind: session.ActBottom}
	}
	if editing {
		switch {
		case key.Matches(msg, k.fixed.Tab):
			return session.Action{Kind: session.ActTab}
		case msg.Type == tea.KeySpace:
			return session.Action{Kind: session.ActRune, Rune: ' '}
		case msg.Type == tea.KeyRunes && !msg.Alt && len(msg.Runes) > 0:
			return session.Action{Kind: session.ActRune, Rune: msg.Runes[0]}
		}
		return session.Action{}
	}
	if kind, ok := k.chords[msg.String()]; ok {
		return session.Action{Kind: kind}
	}
	return session.Action{}
}
