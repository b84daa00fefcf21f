package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"rovefs/internal/fserr"
	"rovefs/internal/logging"
)

// Marks binds single runes to directories. The store is a line file,
// one `char:path` per line, loaded best effort: malformed lines are
// skipped with a log entry and the file is rewritten clean.
type Marks struct {
	path string
	m    map[rune]string
	log  *logrus.Entry
}

func LoadMarks(path string) *Marks {
	marks := &Marks{path: path, m: map[rune]string{}, log: logging.Component("marks")}
	data, err := os.ReadFile(path)
	if err != nil {
		return marks
	}
	skipped := 0
	for _, line := range strings.Split(string(data), "\n") {
		if line == "" {
			continue
		}
		ch, dir, ok := parseMarkLine(line)
		if !ok {
			marks.log.WithField("line", line).Warn("skipping malformed mark")
			skipped++
			continue
		}
		marks.m[ch] = dir
	}
	if skipped > 0 {
		if err := marks.Save(); err != nil {
			marks.log.WithError(err).Warn("could not rewrite marks file")
		}
	}
	return marks
}

func parseMarkLine(line string) (rune, string, bool) {
	before, after, found := strings.Cut(line, ":")
	if !found || after == "" {
		return 0, "", false
	}
	runes := []rune(before)
	if len(runes) != 1 {
		return 0, "", false
	}
	return runes[0], after, true
}

func (m *Marks) Len() int { return len(m.m) }

func (m *Marks) Get(r rune) (string, bool) {
	dir, ok := m.m[r]
	return dir, ok
}

// Set binds r to dir and persists. ':' cannot be a mark because it is
// the separator.
func (m *Marks) Set(r rune, dir string) error {
	if r == ':' {
		return fserr.Invalid("':' cannot be used as a mark")
	}
	m.m[r] = dir
	return m.Save()
}

func (m *Marks) Save() error {
	if m.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return err
	}
	var b strings.Builder
	for _, it := range m.Items() {
		fmt.Fprintf(&b, "%c:%s\n", it.Rune, it.Value)
	}
	return os.WriteFile(m.path, []byte(b.String()), 0o644)
}

// Items is the menu view, sorted by rune.
func (m *Marks) Items() []NavItem {
	runes := make([]rune, 0, len(m.m))
	for r := range m.m {
		runes = append(runes, r)
	}
	sort.Slice(runes, func(i, j int) bool { return runes[i] < runes[j] })
	items := make([]NavItem, 0, len(runes))
	for _, r := range runes {
		items = append(items, NavItem{
			Label: fmt.Sprintf("%c  %s", r, m.m[r]),
			Value: m.m[r],
			Rune:  r,
		})
	}
	return items
}
