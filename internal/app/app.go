// Package app wires config, session, workers and the bubbletea program
// together, and settles the exit contract when the loop ends.
package app

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"rovefs/internal/config"
	"rovefs/internal/logging"
	"rovefs/internal/preview"
	"rovefs/internal/session"
	"rovefs/internal/transfer"
	"rovefs/internal/ui"
	"rovefs/internal/watch"
)

// Run is the whole program. It returns the error the UI loop died with,
// if any; config and persistence problems degrade to defaults instead.
func Run(ov config.Overrides, configFile string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rovefs: config: %v (using defaults)\n", err)
	}
	cfg = config.Apply(cfg, ov)

	stateDir, _ := config.StateDir()
	if closer := logging.Setup(stateDir, cfg.LogLevel); closer != nil {
		defer closer.Close()
	}
	log := logging.Component("app")

	marksPath, _ := config.MarksPath()
	opts := session.Options{
		Config:    cfg,
		Dual:      cfg.DualPane,
		MarksPath: marksPath,
	}
	restored, hasRestored := config.LoadSession()
	// An explicit path on the command line starts fresh there instead
	// of reopening the saved tabs.
	if hasRestored && ov.StartPath == "" {
		opts.Dirs = restored.Tabs
		opts.Active = restored.Active
		opts.Dual = opts.Dual || restored.Dual
	}
	sess := session.New(opts)
	if hasRestored {
		sess.RestoreInputHistory(restored.InputHistory)
	}

	transfers := transfer.NewWorker()
	transfers.Start()
	defer transfers.Stop()

	previews := preview.NewWorker(cfg.PreviewCache)
	previews.Start()
	defer previews.Stop()

	watcher := watch.New(time.Duration(cfg.RefreshSeconds) * time.Second)
	watcher.Start()
	defer watcher.Stop()

	model := ui.NewModel(sess, transfers, previews, watcher)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := program.Run(); err != nil {
		log.WithError(err).Error("ui loop failed")
		return err
	}

	if err := config.WriteLastDir(sess.CurrentDir()); err != nil {
		log.WithError(err).Warn("lastdir not written")
	}
	if err := config.SaveSession(sess.State()); err != nil {
		log.WithError(err).Warn("session not saved")
	}
	log.Info("clean exit")
	return nil
}
