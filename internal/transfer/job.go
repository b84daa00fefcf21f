// Package transfer runs the copy/move queue: one worker goroutine, jobs
// processed FIFO, at most one job executing at a time. The session never
// blocks on the queue and never shares state with the worker; everything
// flows through Progress messages.
package transfer

import (
	"github.com/google/uuid"
)

// Op is the kind of work a job performs.
type Op uint8

const (
	OpCopy Op = iota
	OpMove
	OpDelete
	OpTrash
	OpSymlink
	OpCompress
)

func (o Op) String() string {
	switch o {
	case OpCopy:
		return "copy"
	case OpMove:
		return "move"
	case OpDelete:
		return "delete"
	case OpTrash:
		return "trash"
	case OpSymlink:
		return "symlink"
	case OpCompress:
		return "compress"
	}
	return "unknown"
}

// Destructive reports whether completing the op removes sources, which
// is what clears the flagged set afterwards.
func (o Op) Destructive() bool {
	return o == OpMove || o == OpDelete || o == OpTrash
}

// Status is a job's lifecycle state.
type Status uint8

const (
	StatusQueued Status = iota
	StatusRunning
	StatusCompleted
	StatusPartial
	StatusFailed
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusQueued:
		return "queued"
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusPartial:
		return "partially-failed"
	case StatusFailed:
		return "failed"
	case StatusCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Terminal reports whether the status ends the job.
func (s Status) Terminal() bool { return s >= StatusCompleted }

// Pair is one source routed to a destination directory. DstDir is unused
// for delete and trash.
type Pair struct {
	Src    string
	DstDir string
}

// Job is an immutable work order; all mutable progress lives in the
// worker and is reported through Progress values.
type Job struct {
	ID    uuid.UUID
	Op    Op
	Pairs []Pair
}

// NewJob routes each source to the same destination directory, keeping
// the submitted order.
func NewJob(op Op, srcs []string, dstDir string) *Job {
	pairs := make([]Pair, 0, len(srcs))
	for _, s := range srcs {
		pairs = append(pairs, Pair{Src: s, DstDir: dstDir})
	}
	return &Job{ID: uuid.New(), Op: op, Pairs: pairs}
}

// FileError records a failure against one source path.
type FileError struct {
	Path string
	Err  error
}

// Progress is the worker's report. Err carries the newest failure; the
// full list arrives once with the terminal message.
type Progress struct {
	JobID      uuid.UUID
	Op         Op
	Status     Status
	FilesDone  int
	FilesTotal int
	BytesDone  int64
	BytesTotal int64
	Current    string
	Err        *FileError
	Errors     []FileError
}
