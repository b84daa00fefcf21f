// Package runner launches external processes on behalf of the session:
// captured shell commands, detached file openers, and interactive
// programs that take over the terminal.
package runner

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"rovefs/internal/fserr"
	"rovefs/internal/logging"
)

var log *logrus.Entry

func init() { log = logging.Component("runner") }

// Run executes argv in dir and returns the combined output. A non-zero
// exit is reported as an external command error carrying the code.
func Run(ctx context.Context, argv []string, dir string) (string, error) {
	if len(argv) == 0 {
		return "", fserr.Invalid("empty command")
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	text := strings.TrimRight(string(out), "\n")
	if err != nil {
		exit := -1
		if ee, ok := err.(*exec.ExitError); ok {
			exit = ee.ExitCode()
		}
		return text, fserr.CommandFailed(argv, exit, err)
	}
	return text, nil
}

// Shell wraps a command line for Run or Interactive, honoring $SHELL.
func Shell(cmdline string) []string {
	sh := os.Getenv("SHELL")
	if sh == "" {
		sh = "/bin/sh"
	}
	return []string{sh, "-c", cmdline}
}

// Expand substitutes the placeholders a command line may carry before
// it reaches the shell: $f is the cursor path, $s the flagged paths
// (falling back to $f when nothing is flagged), $d the listed
// directory. Substituted paths are quoted.
func Expand(cmdline, current string, flagged []string, dir string) string {
	sel := flagged
	if len(sel) == 0 && current != "" {
		sel = []string{current}
	}
	quoted := make([]string, len(sel))
	for i, p := range sel {
		quoted[i] = quote(p)
	}
	r := strings.NewReplacer(
		"$s", strings.Join(quoted, " "),
		"$f", quote(current),
		"$d", quote(dir),
	)
	return r.Replace(cmdline)
}

func quote(s string) string {
	if s == "" {
		return "''"
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// Interactive builds the command handed to the terminal program; the
// caller suspends the UI around it.
func Interactive(argv []string, dir string) *exec.Cmd {
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = dir
	return cmd
}

// InteractiveShell drops the user into $SHELL in dir.
func InteractiveShell(dir string) *exec.Cmd {
	sh := os.Getenv("SHELL")
	if sh == "" {
		sh = "/bin/sh"
	}
	return Interactive([]string{sh}, dir)
}

// EditorCmd builds the $EDITOR invocation for the given files.
func EditorCmd(files []string, dir string) *exec.Cmd {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}
	return Interactive(append([]string{editor}, files...), dir)
}

// OpenDetached hands path to its opener in a new process group so the
// viewer outlives the file manager. The openers table maps lowercase
// extensions (without the dot) to programs; unmatched files go to
// xdg-open.
func OpenDetached(path string, openers map[string]string) error {
	prog := "xdg-open"
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if p, ok := openers[ext]; ok && p != "" {
		prog = p
	}
	cmd := exec.Command(prog, path)
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if err := cmd.Start(); err != nil {
		return fserr.New("open", path, fserr.KindExternalCommand, err)
	}
	log.WithFields(logrus.Fields{"prog": prog, "path": path}).Debug("opened")
	go func() { _ = cmd.Wait() }()
	return nil
}
