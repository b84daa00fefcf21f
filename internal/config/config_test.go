package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"show_hidden: true\ntree_unfold_cap: 500\nopeners:\n  pdf: zathura\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.ShowHidden)
	assert.Equal(t, 500, cfg.TreeUnfoldCap)
	assert.Equal(t, "zathura", cfg.Openers["pdf"])
	// Untouched keys keep their defaults.
	assert.Equal(t, 10, cfg.MaxTabs)
	assert.Equal(t, int64(1<<20), cfg.PreviewByteCap)
}

func TestLoadKeysOverridePerAction(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"keys:\n  quit: [\"Q\"]\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Q"}, cfg.Keys[ActQuit])
	// Other actions keep their default chords.
	assert.Equal(t, []string{"space"}, cfg.Keys[ActToggleFlag])
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("keys: [broken\n"), 0o644))
	_, err := Load(path)
	require.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	cfg := Default()
	cfg.DualPane = true
	cfg.SortDefault = "m"
	require.NoError(t, Save(cfg, path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestApplyOverrides(t *testing.T) {
	dual := true
	got := Apply(Default(), Overrides{StartPath: "/tmp", Dual: &dual, LogLevel: "debug"})
	assert.Equal(t, "/tmp", got.StartPath)
	assert.True(t, got.DualPane)
	assert.Equal(t, "debug", got.LogLevel)
	assert.False(t, got.ShowHidden)
}

func TestZeroValuesDoNotClobberDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_tabs: 0\nrefresh_seconds: -1\n"), 0o644))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.MaxTabs)
	assert.Equal(t, 10, cfg.RefreshSeconds)
}

func TestStatePaths(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	dir, err := StateDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(os.Getenv("XDG_STATE_HOME"), "rovefs"), dir)

	require.NoError(t, WriteLastDir("/somewhere/deep"))
	got, err := ReadLastDir()
	require.NoError(t, err)
	assert.Equal(t, "/somewhere/deep", got)
}

func TestSessionRoundTrip(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	st := SessionState{Active: 1, Dual: true, Tabs: []string{"/a", "/b"}}
	require.NoError(t, SaveSession(st))

	got, ok := LoadSession()
	require.True(t, ok)
	assert.Equal(t, st, got)
}

func TestLoadSessionAbsent(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	_, ok := LoadSession()
	assert.False(t, ok)
}

func TestDefaultKeysCoverKnownActions(t *testing.T) {
	keys := DefaultKeys()
	for _, action := range KnownActions {
		assert.NotEmpty(t, keys[action], "no default chord for %s", action)
	}
}
