package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const appDirName = "rovefs"

// ConfigDir is where config.yaml and marks live.
func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, appDirName), nil
}

// StateDir is where logs, session state and the lastdir file live.
// $XDG_STATE_HOME has no stdlib helper.
func StateDir() (string, error) {
	if base := os.Getenv("XDG_STATE_HOME"); base != "" {
		return filepath.Join(base, appDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "state", appDirName), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func MarksPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "marks"), nil
}

func SessionPath() (string, error) {
	dir, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "session.yaml"), nil
}

func LastDirPath() (string, error) {
	dir, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "lastdir"), nil
}

// Load reads the config at path, or the default location when path is
// empty. A missing file yields the defaults without error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		var err error
		path, err = ConfigPath()
		if err != nil {
			return cfg, err
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	var stored fileConfig
	if err := yaml.Unmarshal(data, &stored); err != nil {
		return cfg, err
	}
	return merge(cfg, stored), nil
}

func Save(cfg Config, path string) error {
	if path == "" {
		var err error
		path, err = ConfigPath()
		if err != nil {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// SessionState is what survives a restart: open tabs, pane layout and
// prompt histories.
type SessionState struct {
	Active       int                 `yaml:"active"`
	Dual         bool                `yaml:"dual"`
	Tabs         []string            `yaml:"tabs"`
	InputHistory map[string][]string `yaml:"input_history,omitempty"`
}

// LoadSession is best effort; absence or malformed content just means
// no restored state.
func LoadSession() (SessionState, bool) {
	path, err := SessionPath()
	if err != nil {
		return SessionState{}, false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return SessionState{}, false
	}
	var st SessionState
	if err := yaml.Unmarshal(data, &st); err != nil {
		return SessionState{}, false
	}
	if len(st.Tabs) == 0 {
		return SessionState{}, false
	}
	return st, true
}

func SaveSession(st SessionState) error {
	path, err := SessionPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(st)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// WriteLastDir records the directory the session quit in, for shell
// cd-on-exit integration.
func WriteLastDir(dir string) error {
	path, err := LastDirPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(dir+"\n"), 0o644)
}

func ReadLastDir() (string, error) {
	path, err := LastDirPath()
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	s := string(data)
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s, nil
}
