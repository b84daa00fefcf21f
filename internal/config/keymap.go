package config

// Action names accepted in the keys: section. Arrow keys, enter,
// escape, backspace and tab are fixed and not remappable.
const (
	ActToggleHidden = "toggle_hidden"
	ActCopy         = "copy"
	ActMove         = "move"
	ActNewDir       = "newdir"
	ActNewFile      = "newfile"
	ActChmod        = "chmod"
	ActExec         = "exec"
	ActGoto         = "goto"
	ActRename       = "rename"
	ActClearFlags   = "clear_flags"
	ActToggleFlag   = "toggle_flag"
	ActShell        = "shell"
	ActTrash        = "trash"
	ActDelete       = "delete"
	ActOpenFile     = "open_file"
	ActHelp         = "help"
	ActSearch       = "search"
	ActSearchNext   = "search_next"
	ActRegexMatch   = "regex_match"
	ActQuit         = "quit"
	ActFlagAll      = "flag_all"
	ActReverseFlags = "reverse_flags"
	ActJump         = "jump"
	ActEdit         = "edit"
	ActSort         = "sort"
	ActSymlink      = "symlink"
	ActPreview      = "preview"
	ActShortcut     = "shortcut"
	ActBulkEdit     = "bulk_edit"
	ActMarkSet      = "mark_set"
	ActMarkJump     = "mark_jump"
	ActFilter       = "filter"
	ActBack         = "back"
	ActHome         = "home"
	ActTree         = "tree"
	ActFlaggedView  = "flagged_view"
	ActFold         = "fold"
	ActUnfoldAll    = "unfold_all"
	ActCompress     = "compress"
	ActJobs         = "jobs"
	ActHistory      = "history"
	ActRefresh      = "refresh"
	ActTabNew       = "tab_new"
	ActTabClose     = "tab_close"
	ActTabNext      = "tab_next"
	ActTabPrev      = "tab_prev"
	ActPaneToggle   = "pane_toggle"
)

// KnownActions lists every action a keymap may bind.
var KnownActions = []string{
	ActToggleHidden, ActCopy, ActMove, ActNewDir, ActNewFile, ActChmod,
	ActExec, ActGoto, ActRename, ActClearFlags, ActToggleFlag, ActShell,
	ActTrash, ActDelete, ActOpenFile, ActHelp, ActSearch, ActSearchNext,
	ActRegexMatch, ActQuit, ActFlagAll, ActReverseFlags, ActJump, ActEdit,
	ActSort, ActSymlink, ActPreview, ActShortcut, ActBulkEdit, ActMarkSet,
	ActMarkJump, ActFilter, ActBack, ActHome, ActTree, ActFlaggedView,
	ActFold, ActUnfoldAll, ActCompress, ActJobs, ActHistory, ActRefresh,
	ActTabNew, ActTabClose, ActTabNext, ActTabPrev, ActPaneToggle,
}

// DefaultKeys is the built-in binding table. Chords use bubbletea key
// names; "space" stands for the space bar.
func DefaultKeys() map[string][]string {
	return map[string][]string{
		ActToggleHidden: {"a"},
		ActCopy:         {"c"},
		ActMove:         {"p"},
		ActNewDir:       {"d"},
		ActNewFile:      {"n"},
		ActChmod:        {"m"},
		ActExec:         {"e"},
		ActGoto:         {"g"},
		ActRename:       {"r"},
		ActClearFlags:   {"u"},
		ActToggleFlag:   {"space"},
		ActShell:        {"s"},
		ActTrash:        {"x"},
		ActDelete:       {"X"},
		ActOpenFile:     {"o"},
		ActHelp:         {"h"},
		ActSearch:       {"/"},
		ActSearchNext:   {"N"},
		ActRegexMatch:   {"w"},
		ActQuit:         {"q"},
		ActFlagAll:      {"*"},
		ActReverseFlags: {"v"},
		ActJump:         {"j"},
		ActEdit:         {"i"},
		ActSort:         {"O"},
		ActSymlink:      {"l"},
		ActPreview:      {"P"},
		ActShortcut:     {"G"},
		ActBulkEdit:     {"B"},
		ActMarkSet:      {"M"},
		ActMarkJump:     {"'"},
		ActFilter:       {"F"},
		ActBack:         {"-"},
		ActHome:         {"~"},
		ActTree:         {"t"},
		ActFlaggedView:  {"f"},
		ActFold:         {"z"},
		ActUnfoldAll:    {"Z"},
		ActCompress:     {"b"},
		ActJobs:         {"k"},
		ActHistory:      {"H"},
		ActRefresh:      {"R"},
		ActTabNew:       {"ctrl+t"},
		ActTabClose:     {"ctrl+w"},
		ActTabNext:      {"tab"},
		ActTabPrev:      {"shift+tab"},
		ActPaneToggle:   {"W"},
	}
}
