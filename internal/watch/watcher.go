// Package watch posts reload notices when watched directories change.
// Two detection paths feed one stream: fsnotify events for prompt
// notification, debounced to the watcher's tick, and a slow mtime poll
// that catches filesystems where inotify is blind.
package watch

import (
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"rovefs/internal/logging"
)

// tickStep paces the loop; fsnotify dirt flushes every step, the mtime
// poll fires once per full interval.
const tickStep = 250 * time.Millisecond

// Reload tells the session a directory's listing is stale.
type Reload struct {
	Dir string
}

type Watcher struct {
	interval time.Duration
	out      chan Reload
	setCh    chan []string
	quit     chan struct{}
	done     chan struct{}
	fsw      *fsnotify.Watcher
	log      *logrus.Entry
}

// New builds a watcher polling at the given interval. fsnotify is best
// effort; when unavailable the poll path still works alone.
func New(interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	w := &Watcher{
		interval: interval,
		out:      make(chan Reload, 16),
		setCh:    make(chan []string, 1),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		log:      logging.Component("watch"),
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.log.WithError(err).Warn("fsnotify unavailable, falling back to polling only")
	} else {
		w.fsw = fsw
	}
	return w
}

func (w *Watcher) Start() { go w.loop() }

func (w *Watcher) Stop() {
	close(w.quit)
	<-w.done
	if w.fsw != nil {
		w.fsw.Close()
	}
}

// Reloads is the stream consumed by the UI bridge.
func (w *Watcher) Reloads() <-chan Reload { return w.out }

// Watch replaces the watched set. Never blocks; a not-yet-consumed set
// is simply overwritten by the newest one.
func (w *Watcher) Watch(dirs []string) {
	for {
		select {
		case w.setCh <- dirs:
			return
		default:
			select {
			case <-w.setCh:
			default:
			}
		}
	}
}

func (w *Watcher) loop() {
	defer close(w.done)
	ticker := time.NewTicker(tickStep)
	defer ticker.Stop()

	watched := map[string]time.Time{}
	dirty := map[string]bool{}
	var elapsed time.Duration

	var events <-chan fsnotify.Event
	var errs <-chan error
	if w.fsw != nil {
		events = w.fsw.Events
		errs = w.fsw.Errors
	}

	for {
		select {
		case dirs := <-w.setCh:
			w.rewatch(watched, dirs)

		case ev := <-events:
			if _, ok := watched[ev.Name]; ok {
				dirty[ev.Name] = true
			}
			if dir := filepath.Dir(ev.Name); dir != ev.Name {
				if _, ok := watched[dir]; ok {
					dirty[dir] = true
				}
			}

		case err := <-errs:
			if err != nil {
				w.log.WithError(err).Debug("fsnotify error")
			}

		case <-ticker.C:
			for dir := range dirty {
				w.post(dir)
			}
			clear(dirty)

			elapsed += tickStep
			if elapsed >= w.interval {
				elapsed = 0
				for dir, last := range watched {
					info, err := os.Stat(dir)
					if err != nil {
						continue
					}
					if !info.ModTime().Equal(last) {
						watched[dir] = info.ModTime()
						w.post(dir)
					}
				}
			}

		case <-w.quit:
			return
		}
	}
}

func (w *Watcher) rewatch(watched map[string]time.Time, dirs []string) {
	next := map[string]bool{}
	for _, d := range dirs {
		next[filepath.Clean(d)] = true
	}
	for dir := range watched {
		if !next[dir] {
			delete(watched, dir)
			if w.fsw != nil {
				_ = w.fsw.Remove(dir)
			}
		}
	}
	for dir := range next {
		if _, ok := watched[dir]; ok {
			continue
		}
		mtime := time.Time{}
		if info, err := os.Stat(dir); err == nil {
			mtime = info.ModTime()
		}
		watched[dir] = mtime
		if w.fsw != nil {
			if err := w.fsw.Add(dir); err != nil {
				w.log.WithField("dir", dir).WithError(err).Debug("fsnotify add failed")
			}
		}
	}
}

func (w *Watcher) post(dir string) {
	select {
	case w.out <- Reload{Dir: dir}:
	default:
	}
}
