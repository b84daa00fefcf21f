// Package fserr defines the error taxonomy shared by the session and the
// background workers. Workers convert every failure into one of these and
// keep running; only the session decides what to show.
package fserr

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

// Kind classifies an error for display and for dispatch decisions.
type Kind int

const (
	KindIO Kind = iota
	KindPermission
	KindExists
	KindInvalidInput
	KindCancelled
	KindUnsupported
	KindExternalCommand
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io error"
	case KindPermission:
		return "permission denied"
	case KindExists:
		return "already exists"
	case KindInvalidInput:
		return "invalid input"
	case KindCancelled:
		return "cancelled"
	case KindUnsupported:
		return "unsupported"
	case KindExternalCommand:
		return "command failed"
	}
	return "unknown"
}

// Error carries the operation that failed, the path it failed on and the
// classified kind. Exit is only meaningful for KindExternalCommand.
type Error struct {
	Op   string
	Path string
	Kind Kind
	Exit int
	Err  error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
	}
	if e.Path != "" {
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString(e.Path)
	}
	if b.Len() > 0 {
		b.WriteString(": ")
	}
	if e.Err != nil {
		b.WriteString(e.Err.Error())
	} else {
		b.WriteString(e.Kind.String())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error with an explicit kind.
func New(op, path string, kind Kind, err error) *Error {
	return &Error{Op: op, Path: path, Kind: kind, Err: err}
}

// Invalid reports a validation failure (bad regex, bad octal mode, bad name).
func Invalid(format string, args ...any) *Error {
	return &Error{Op: "input", Kind: KindInvalidInput, Err: fmt.Errorf(format, args...)}
}

// Cancelled marks work abandoned at the user's request.
func Cancelled(op string) *Error {
	return &Error{Op: op, Kind: KindCancelled}
}

// Unsupported reports a path or format the operation cannot handle.
func Unsupported(op, what string) *Error {
	return &Error{Op: op, Path: what, Kind: KindUnsupported}
}

// CommandFailed reports a non-zero exit from an external program.
func CommandFailed(argv []string, exit int, err error) *Error {
	return &Error{
		Op:   strings.Join(argv, " "),
		Kind: KindExternalCommand,
		Exit: exit,
		Err:  err,
	}
}

// Classify wraps an error from the os layer, mapping the well-known
// sentinels onto the taxonomy. A nil err yields a nil interface, so the
// result can be returned unconditionally.
func Classify(op, path string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	kind := KindIO
	switch {
	case errors.Is(err, fs.ErrPermission):
		kind = KindPermission
	case errors.Is(err, fs.ErrExist):
		kind = KindExists
	}
	return &Error{Op: op, Path: path, Kind: kind, Err: err}
}

// KindOf walks the chain and returns the classified kind, defaulting to
// KindIO for plain errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	switch {
	case errors.Is(err, fs.ErrPermission):
		return KindPermission
	case errors.Is(err, fs.ErrExist):
		return KindExists
	}
	return KindIO
}

// IsCancelled reports whether err is a cancellation anywhere in its chain.
func IsCancelled(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindCancelled
}
