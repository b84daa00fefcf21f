// Package logging configures the process-wide log sink. The TUI owns the
// terminal, so everything goes to a file under the user state directory
// instead of stderr.
package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Setup points logrus at dir/rovefs.log and applies the requested level.
// When the file cannot be opened the logger writes to io.Discard so a
// broken state dir never paints over the UI. The returned closer is nil
// in that case.
func Setup(dir, level string) io.Closer {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
		DisableColors:   true,
	})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		logrus.SetOutput(io.Discard)
		return nil
	}
	f, err := os.OpenFile(filepath.Join(dir, "rovefs.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		logrus.SetOutput(io.Discard)
		return nil
	}
	logrus.SetOutput(f)
	return f
}

// Component returns a logger tagged with the originating subsystem.
func Component(name string) *logrus.Entry {
	return logrus.WithField("comp", name)
}
