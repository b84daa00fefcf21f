package transfer

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/charlievieth/fastwalk"
	"github.com/sirupsen/logrus"

	"rovefs/internal/fserr"
	"rovefs/internal/logging"
)

// progressInterval is the floor between rate-limited progress messages;
// file boundaries and errors always emit.
const progressInterval = 80 * time.Millisecond

// Worker owns the transfer queue. Enqueue never blocks; the loop drains
// the pending list one job at a time.
type Worker struct {
	mu      sync.Mutex
	pending []*Job

	kick     chan struct{}
	quit     chan struct{}
	done     chan struct{}
	progress chan Progress
	cancel   atomic.Bool

	// TrashBase overrides the XDG trash location; set before Start.
	TrashBase string

	log *logrus.Entry
}

func NewWorker() *Worker {
	return &Worker{
		kick:     make(chan struct{}, 1),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		progress: make(chan Progress, 64),
		log:      logging.Component("transfer"),
	}
}

func (w *Worker) Start() { go w.loop() }

// Stop waits for the loop to exit; a running job finishes (or honors a
// prior CancelCurrent) first.
func (w *Worker) Stop() {
	close(w.quit)
	<-w.done
}

// Progress is the message stream consumed by the UI bridge.
func (w *Worker) Progress() <-chan Progress { return w.progress }

// Enqueue appends a job without blocking the caller.
func (w *Worker) Enqueue(j *Job) {
	w.mu.Lock()
	w.pending = append(w.pending, j)
	w.mu.Unlock()
	select {
	case w.kick <- struct{}{}:
	default:
	}
}

// QueueLen is the number of jobs not yet started.
func (w *Worker) QueueLen() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

// CancelCurrent aborts the running job after the file in flight completes.
func (w *Worker) CancelCurrent() { w.cancel.Store(true) }

func (w *Worker) loop() {
	defer close(w.done)
	for {
		j := w.pop()
		if j == nil {
			select {
			case <-w.kick:
				continue
			case <-w.quit:
				return
			}
		}
		w.cancel.Store(false)
		w.run(j)
		select {
		case <-w.quit:
			return
		default:
		}
	}
}

func (w *Worker) pop() *Job {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.pending) == 0 {
		return nil
	}
	j := w.pending[0]
	w.pending = w.pending[1:]
	return j
}

// run executes one job: pairs in submitted order, per-pair failures
// recorded and skipped over, cancellation honored between pairs.
func (w *Worker) run(j *Job) {
	w.log.WithFields(logrus.Fields{"job": j.ID, "op": j.Op.String(), "pairs": len(j.Pairs)}).Info("job started")
	em := newEmitter(w.progress, j, w.scan(j))
	em.force()

	var errs []FileError
	cancelled := false
	if j.Op == OpCompress {
		errs, cancelled = w.compressJob(j, em)
	} else {
		for _, pair := range j.Pairs {
			if w.cancel.Load() {
				cancelled = true
				break
			}
			em.current(filepath.Base(pair.Src))
			if err := w.process(j.Op, pair, em); err != nil {
				fe := FileError{Path: pair.Src, Err: err}
				errs = append(errs, fe)
				em.error(fe)
				w.log.WithField("job", j.ID).WithError(err).Warn("pair failed")
				continue
			}
			em.fileDone()
		}
	}

	status := StatusCompleted
	switch {
	case cancelled:
		status = StatusCancelled
	case len(j.Pairs) > 0 && len(errs) == len(j.Pairs):
		status = StatusFailed
	case len(errs) > 0:
		status = StatusPartial
	}
	em.terminal(status, errs)
	w.log.WithFields(logrus.Fields{"job": j.ID, "status": status.String(), "errors": len(errs)}).Info("job finished")
}

// scan pre-computes the byte total for ops that stream file contents so
// progress has a denominator. Directory sizes come from a parallel walk.
func (w *Worker) scan(j *Job) int64 {
	if j.Op != OpCopy && j.Op != OpMove && j.Op != OpCompress {
		return 0
	}
	var total atomic.Int64
	conf := fastwalk.Config{Follow: false}
	for _, p := range j.Pairs {
		info, err := os.Lstat(p.Src)
		if err != nil {
			continue
		}
		if !info.IsDir() {
			if info.Mode().IsRegular() {
				total.Add(info.Size())
			}
			continue
		}
		_ = fastwalk.Walk(&conf, p.Src, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.Type().IsRegular() {
				if fi, err := d.Info(); err == nil {
					total.Add(fi.Size())
				}
			}
			return nil
		})
	}
	return total.Load()
}

func (w *Worker) process(op Op, pair Pair, em *emitter) error {
	switch op {
	case OpCopy:
		return w.copyPair(pair, em)
	case OpMove:
		return w.movePair(pair, em)
	case OpDelete:
		return w.deletePair(pair)
	case OpTrash:
		return w.trashPair(pair)
	case OpSymlink:
		return w.linkPair(pair)
	}
	return fserr.Unsupported("transfer", op.String())
}

func (w *Worker) copyPair(pair Pair, em *emitter) error {
	info, err := os.Lstat(pair.Src)
	if err != nil {
		return fserr.Classify("copy", pair.Src, err)
	}
	dst := filepath.Join(pair.DstDir, CollisionFreeName(pair.DstDir, filepath.Base(pair.Src)))
	if info.IsDir() {
		return w.copyTree(pair.Src, dst, em)
	}
	return w.copyFile(pair.Src, dst, info, em)
}

func (w *Worker) copyFile(src, dst string, info fs.FileInfo, em *emitter) error {
	in, err := os.Open(src)
	if err != nil {
		return fserr.Classify("copy", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return fserr.Classify("copy", dst, err)
	}
	pw := &progressWriter{w: out, onWrite: em.addBytes}
	if _, err := io.Copy(pw, in); err != nil {
		out.Close()
		os.Remove(dst)
		return fserr.Classify("copy", src, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return fserr.Classify("copy", dst, err)
	}
	// carry the source mtime, best effort
	_ = os.Chtimes(dst, time.Now(), info.ModTime())
	return nil
}

func (w *Worker) copyTree(src, dst string, em *emitter) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fserr.Classify("copy", path, err)
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return fserr.Classify("copy", path, err)
		}
		target := filepath.Join(dst, rel)
		switch {
		case d.IsDir():
			info, err := d.Info()
			if err != nil {
				return fserr.Classify("copy", path, err)
			}
			return fserr.Classify("copy", target, os.MkdirAll(target, info.Mode().Perm()))
		case d.Type()&fs.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return fserr.Classify("copy", path, err)
			}
			return fserr.Classify("copy", target, os.Symlink(link, target))
		case d.Type().IsRegular():
			info, err := d.Info()
			if err != nil {
				return fserr.Classify("copy", path, err)
			}
			em.current(rel)
			return w.copyFile(path, target, info, em)
		default:
			// sockets and pipes are not copied
			return nil
		}
	})
}

func (w *Worker) movePair(pair Pair, em *emitter) error {
	src := pair.Src
	info, err := os.Lstat(src)
	if err != nil {
		return fserr.Classify("move", src, err)
	}
	dst := filepath.Join(pair.DstDir, CollisionFreeName(pair.DstDir, filepath.Base(src)))

	err = os.Rename(src, dst)
	if err == nil {
		if info.Mode().IsRegular() {
			em.addBytes(info.Size())
		}
		return nil
	}
	if !crossDevice(err) {
		return fserr.Classify("move", src, err)
	}

	// cross-device: copy, verify, then drop the source
	if info.IsDir() {
		if err := w.copyTree(src, dst, em); err != nil {
			return err
		}
	} else {
		if err := w.copyFile(src, dst, info, em); err != nil {
			return err
		}
		di, err := os.Lstat(dst)
		if err != nil || (info.Mode().IsRegular() && di.Size() != info.Size()) {
			return fserr.New("move", src, fserr.KindIO, fmt.Errorf("copy verification failed for %s", dst))
		}
	}
	return fserr.Classify("move", src, os.RemoveAll(src))
}

func (w *Worker) deletePair(pair Pair) error {
	if _, err := os.Lstat(pair.Src); err != nil {
		return fserr.Classify("delete", pair.Src, err)
	}
	return fserr.Classify("delete", pair.Src, os.RemoveAll(pair.Src))
}

// trashPair moves the source into the XDG trash and records a trashinfo
// entry so external tools can restore it. Collisions inside the trash
// follow the same " (n)" rule as transfers.
func (w *Worker) trashPair(pair Pair) error {
	base := w.TrashBase
	if base == "" {
		base = defaultTrashBase()
	}
	filesDir := filepath.Join(base, "files")
	infoDir := filepath.Join(base, "info")
	for _, d := range []string{filesDir, infoDir} {
		if err := os.MkdirAll(d, 0o700); err != nil {
			return fserr.Classify("trash", d, err)
		}
	}

	abs, err := filepath.Abs(pair.Src)
	if err != nil {
		return fserr.Classify("trash", pair.Src, err)
	}
	name := CollisionFreeName(filesDir, filepath.Base(pair.Src))
	infoBody := fmt.Sprintf("[Trash Info]\nPath=%s\nDeletionDate=%s\n",
		abs, time.Now().Format("2006-01-02T15:04:05"))
	if err := os.WriteFile(filepath.Join(infoDir, name+".trashinfo"), []byte(infoBody), 0o600); err != nil {
		return fserr.Classify("trash", pair.Src, err)
	}

	dst := filepath.Join(filesDir, name)
	if err := os.Rename(pair.Src, dst); err == nil {
		return nil
	} else if !crossDevice(err) {
		return fserr.Classify("trash", pair.Src, err)
	}
	info, err := os.Lstat(pair.Src)
	if err != nil {
		return fserr.Classify("trash", pair.Src, err)
	}
	em := newEmitter(nil, &Job{}, 0)
	if info.IsDir() {
		err = w.copyTree(pair.Src, dst, em)
	} else {
		err = w.copyFile(pair.Src, dst, info, em)
	}
	if err != nil {
		return err
	}
	return fserr.Classify("trash", pair.Src, os.RemoveAll(pair.Src))
}

func (w *Worker) linkPair(pair Pair) error {
	name := CollisionFreeName(pair.DstDir, filepath.Base(pair.Src))
	return fserr.Classify("symlink", pair.Src, os.Symlink(pair.Src, filepath.Join(pair.DstDir, name)))
}

func defaultTrashBase() string {
	if data := os.Getenv("XDG_DATA_HOME"); data != "" {
		return filepath.Join(data, "Trash")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "Trash")
	}
	return filepath.Join(home, ".local", "share", "Trash")
}

func crossDevice(err error) bool {
	var le *os.LinkError
	return errors.As(err, &le) && errors.Is(le.Err, syscall.EXDEV)
}

// progressWriter counts bytes as they land in the destination file.
type progressWriter struct {
	w       io.Writer
	onWrite func(int64)
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	if n > 0 && p.onWrite != nil {
		p.onWrite(int64(n))
	}
	return n, err
}

// emitter rate-limits progress sends. Routine updates are dropped when
// the channel is full; the terminal message always lands.
type emitter struct {
	ch   chan<- Progress
	p    Progress
	last time.Time
}

func newEmitter(ch chan<- Progress, j *Job, bytesTotal int64) *emitter {
	return &emitter{
		ch: ch,
		p: Progress{
			JobID:      j.ID,
			Op:         j.Op,
			Status:     StatusRunning,
			FilesTotal: len(j.Pairs),
			BytesTotal: bytesTotal,
		},
	}
}

func (e *emitter) addBytes(n int64) {
	e.p.BytesDone += n
	e.maybe()
}

func (e *emitter) current(name string) {
	e.p.Current = name
	e.maybe()
}

func (e *emitter) fileDone() {
	e.p.FilesDone++
	e.force()
}

func (e *emitter) error(fe FileError) {
	e.p.Err = &fe
	e.force()
}

func (e *emitter) maybe() {
	if time.Since(e.last) >= progressInterval {
		e.force()
	}
}

func (e *emitter) force() {
	if e.ch == nil {
		return
	}
	e.last = time.Now()
	select {
	case e.ch <- e.p:
	default:
	}
}

func (e *emitter) terminal(status Status, errs []FileError) {
	e.p.Status = status
	e.p.Errors = errs
	if e.ch == nil {
		return
	}
	e.ch <- e.p
}
