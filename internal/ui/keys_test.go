package ui

import (
	"io"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rovefs/internal/config"
	"rovefs/internal/session"
)

func testKeyMap(t *testing.T, bindings map[string][]string) KeyMap {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return CompileKeyMap(bindings, logrus.NewEntry(logger))
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestDefaultBindingsResolve(t *testing.T) {
	km := testKeyMap(t, config.DefaultKeys())

	assert.Equal(t, session.ActQuit, km.Resolve(keyRunes("q"), false).Kind)
	assert.Equal(t, session.ActFlagAll, km.Resolve(keyRunes("*"), false).Kind)
	assert.Equal(t, session.ActDeleteFile, km.Resolve(keyRunes("X"), false).Kind)
	assert.Equal(t, session.ActTabNew, km.Resolve(tea.KeyMsg{Type: tea.KeyCtrlT}, false).Kind)
	assert.Equal(t, session.ActTabPrev, km.Resolve(tea.KeyMsg{Type: tea.KeyShiftTab}, false).Kind)
}

func TestSpaceChordTogglesFlag(t *testing.T) {
	km := testKeyMap(t, config.DefaultKeys())
	space := tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}

	assert.Equal(t, session.ActToggleFlag, km.Resolve(space, false).Kind)

	act := km.Resolve(space, true)
	assert.Equal(t, session.ActRune, act.Kind)
	assert.Equal(t, ' ', act.Rune)
}

func TestTabDependsOnEditing(t *testing.T) {
	km := testKeyMap(t, config.DefaultKeys())
	msg := tea.KeyMsg{Type: tea.KeyTab}

	assert.Equal(t, session.ActTabNext, km.Resolve(msg, false).Kind)
	assert.Equal(t, session.ActTab, km.Resolve(msg, true).Kind)
}

func TestFixedKeysIgnoreEditing(t *testing.T) {
	km := testKeyMap(t, config.DefaultKeys())

	for _, editing := range []bool{false, true} {
		assert.Equal(t, session.ActUp, km.Resolve(tea.KeyMsg{Type: tea.KeyUp}, editing).Kind)
		assert.Equal(t, session.ActEscape, km.Resolve(tea.KeyMsg{Type: tea.KeyEsc}, editing).Kind)
		assert.Equal(t, session.ActQuit, km.Resolve(tea.KeyMsg{Type: tea.KeyCtrlC}, editing).Kind)
		assert.Equal(t, session.ActPageDown, km.Resolve(tea.KeyMsg{Type: tea.KeyPgDown}, editing).Kind)
		assert.Equal(t, session.ActTop, km.Resolve(tea.KeyMsg{Type: tea.KeyHome}, editing).Kind)
	}
}

func TestEditingDeliversRunesNotChords(t *testing.T) {
	km := testKeyMap(t, config.DefaultKeys())

	act := km.Resolve(keyRunes("q"), true)
	require.Equal(t, session.ActRune, act.Kind)
	assert.Equal(t, 'q', act.Rune)
}

func TestRebindingReplacesChord(t *testing.T) {
	bindings := config.DefaultKeys()
	bindings[config.ActQuit] = []string{"Z"}
	km := testKeyMap(t, bindings)

	assert.Equal(t, session.ActQuit, km.Resolve(keyRunes("Z"), false).Kind)
	assert.Equal(t, session.ActNone, km.Resolve(keyRunes("q"), false).Kind)
}

func TestUnknownActionNameSkipped(t *testing.T) {
	bindings := config.DefaultKeys()
	bindings["frobnicate"] = []string{"Y"}
	km := testKeyMap(t, bindings)

	assert.Equal(t, session.ActNone, km.Resolve(keyRunes("Y"), false).Kind)
	assert.Equal(t, session.ActQuit, km.Resolve(keyRunes("q"), false).Kind)
}

func TestHelpListsBoundActions(t *testing.T) {
	km := testKeyMap(t, config.DefaultKeys())

	entries := km.Help()
	require.NotEmpty(t, entries)
	found := false
	for _, e := range entries {
		if e.Desc == "quit" {
			found = true
			assert.Equal(t, "q", e.Keys)
		}
	}
	assert.True(t, found)
}
