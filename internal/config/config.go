// Package config loads the YAML configuration and keymap, merging file
// values over built-in defaults, and owns the XDG paths for config and
// state files.
package config

// Config is the effective configuration after defaults, file and flag
// overrides are merged.
type Config struct {
	StartPath      string              `yaml:"start_path"`
	DualPane       bool                `yaml:"dual_pane"`
	ShowHidden     bool                `yaml:"show_hidden"`
	SortDefault    string              `yaml:"sort_default"`
	MaxTabs        int                 `yaml:"max_tabs"`
	PreviewByteCap int64               `yaml:"preview_byte_cap"`
	PreviewCache   int                 `yaml:"preview_cache"`
	TreeChildCap   int                 `yaml:"tree_child_cap"`
	TreeUnfoldCap  int                 `yaml:"tree_unfold_cap"`
	RefreshSeconds int                 `yaml:"refresh_seconds"`
	LogLevel       string              `yaml:"log_level"`
	Openers        map[string]string   `yaml:"openers"`
	Keys           map[string][]string `yaml:"keys"`
}

// fileConfig mirrors Config with pointer fields so absent keys are
// distinguishable from zero values during the merge.
type fileConfig struct {
	StartPath      *string             `yaml:"start_path"`
	DualPane       *bool               `yaml:"dual_pane"`
	ShowHidden     *bool               `yaml:"show_hidden"`
	SortDefault    *string             `yaml:"sort_default"`
	MaxTabs        *int                `yaml:"max_tabs"`
	PreviewByteCap *int64              `yaml:"preview_byte_cap"`
	PreviewCache   *int                `yaml:"preview_cache"`
	TreeChildCap   *int                `yaml:"tree_child_cap"`
	TreeUnfoldCap  *int                `yaml:"tree_unfold_cap"`
	RefreshSeconds *int                `yaml:"refresh_seconds"`
	LogLevel       *string             `yaml:"log_level"`
	Openers        map[string]string   `yaml:"openers"`
	Keys           map[string][]string `yaml:"keys"`
}

func Default() Config {
	return Config{
		StartPath:      ".",
		SortDefault:    "k",
		MaxTabs:        10,
		PreviewByteCap: 1 << 20,
		PreviewCache:   100,
		TreeChildCap:   100,
		TreeUnfoldCap:  2000,
		RefreshSeconds: 10,
		LogLevel:       "info",
		Openers:        map[string]string{},
		Keys:           DefaultKeys(),
	}
}

func merge(base Config, stored fileConfig) Config {
	merged := base
	if stored.StartPath != nil {
		merged.StartPath = *stored.StartPath
	}
	if stored.DualPane != nil {
		merged.DualPane = *stored.DualPane
	}
	if stored.ShowHidden != nil {
		merged.ShowHidden = *stored.ShowHidden
	}
	if stored.SortDefault != nil {
		merged.SortDefault = *stored.SortDefault
	}
	if stored.MaxTabs != nil && *stored.MaxTabs > 0 {
		merged.MaxTabs = *stored.MaxTabs
	}
	if stored.PreviewByteCap != nil && *stored.PreviewByteCap > 0 {
		merged.PreviewByteCap = *stored.PreviewByteCap
	}
	if stored.PreviewCache != nil && *stored.PreviewCache > 0 {
		merged.PreviewCache = *stored.PreviewCache
	}
	if stored.TreeChildCap != nil && *stored.TreeChildCap > 0 {
		merged.TreeChildCap = *stored.TreeChildCap
	}
	if stored.TreeUnfoldCap != nil && *stored.TreeUnfoldCap > 0 {
		merged.TreeUnfoldCap = *stored.TreeUnfoldCap
	}
	if stored.RefreshSeconds != nil && *stored.RefreshSeconds > 0 {
		merged.RefreshSeconds = *stored.RefreshSeconds
	}
	if stored.LogLevel != nil {
		merged.LogLevel = *stored.LogLevel
	}
	if stored.Openers != nil {
		merged.Openers = stored.Openers
	}
	if stored.Keys != nil {
		// Per-action override so a file naming one action keeps the
		// defaults for every other.
		keys := make(map[string][]string, len(base.Keys))
		for action, chords := range base.Keys {
			keys[action] = chords
		}
		for action, chords := range stored.Keys {
			keys[action] = chords
		}
		merged.Keys = keys
	}
	return merged
}
