// Package fsx holds the filesystem-facing data model: directory listings,
// entry metadata, sort orders, filters and the cross-tab flagged set.
// Entries are snapshots taken at listing time and stay stale until the
// next refresh.
package fsx

import (
	"io/fs"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"rovefs/internal/fserr"
)

// Kind is the entry's filesystem type.
type Kind uint8

const (
	KindRegular Kind = iota
	KindDirectory
	KindSymlinkValid
	KindSymlinkBroken
	KindBlockDevice
	KindCharDevice
	KindFifo
	KindSocket
)

// Char returns the one-rune type symbol used in listings.
func (k Kind) Char() rune {
	switch k {
	case KindDirectory:
		return 'd'
	case KindSymlinkValid:
		return 'l'
	case KindSymlinkBroken:
		return '!'
	case KindBlockDevice:
		return 'b'
	case KindCharDevice:
		return 'c'
	case KindFifo:
		return 'p'
	case KindSocket:
		return 's'
	}
	return '.'
}

// FileEntry is one row of a directory listing.
type FileEntry struct {
	Path       string
	Name       string
	Kind       Kind
	Size       int64
	ModTime    time.Time
	Perm       fs.FileMode
	UID        uint32
	GID        uint32
	Owner      string
	Group      string
	LinkTarget string
	TargetsDir bool
}

// IsDir reports whether the entry itself is a directory.
func (e FileEntry) IsDir() bool { return e.Kind == KindDirectory }

// Navigable reports whether entering the entry lands in a directory,
// following valid symlinks.
func (e FileEntry) Navigable() bool {
	return e.Kind == KindDirectory || (e.Kind == KindSymlinkValid && e.TargetsDir)
}

// FormatSize renders the size for display; directories show no size.
func (e FileEntry) FormatSize() string {
	if e.IsDir() {
		return "-"
	}
	return humanize.IBytes(uint64(e.Size))
}

// ListOptions control what ReadDir returns.
type ListOptions struct {
	ShowHidden bool
	Filter     Filter
	Sort       SortKind
}

// ReadDir lists dir into entries, applying hidden filtering, the active
// filter and the sort order. Entries that vanish between the listing and
// their stat are skipped.
func ReadDir(dir string, opt ListOptions) ([]FileEntry, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, fserr.Classify("list", dir, err)
	}
	out := make([]FileEntry, 0, len(ents))
	for _, de := range ents {
		name := de.Name()
		if !opt.ShowHidden && strings.HasPrefix(name, ".") {
			continue
		}
		fe, err := newEntry(filepath.Join(dir, name), de)
		if err != nil {
			continue
		}
		if !opt.Filter.Match(fe) {
			continue
		}
		out = append(out, fe)
	}
	SortEntries(out, opt.Sort)
	return out, nil
}

// Stat builds a FileEntry for a single path without following symlinks.
func Stat(path string) (FileEntry, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return FileEntry{}, fserr.Classify("stat", path, err)
	}
	return entryFromInfo(path, info), nil
}

func newEntry(path string, de fs.DirEntry) (FileEntry, error) {
	info, err := de.Info()
	if err != nil {
		return FileEntry{}, err
	}
	return entryFromInfo(path, info), nil
}

func entryFromInfo(path string, info fs.FileInfo) FileEntry {
	e := FileEntry{
		Path:    path,
		Name:    info.Name(),
		Size:    info.Size(),
		ModTime: info.ModTime(),
		Perm:    info.Mode(),
	}
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		e.UID = st.Uid
		e.GID = st.Gid
		e.Owner = ownerName(st.Uid)
		e.Group = groupName(st.Gid)
	}
	mode := info.Mode()
	switch {
	case mode.IsDir():
		e.Kind = KindDirectory
	case mode&fs.ModeSymlink != 0:
		e.Kind = KindSymlinkBroken
		if target, err := os.Readlink(path); err == nil {
			e.LinkTarget = target
		}
		if tinfo, err := os.Stat(path); err == nil {
			e.Kind = KindSymlinkValid
			e.TargetsDir = tinfo.IsDir()
		}
	case mode&fs.ModeNamedPipe != 0:
		e.Kind = KindFifo
	case mode&fs.ModeSocket != 0:
		e.Kind = KindSocket
	case mode&fs.ModeCharDevice != 0:
		e.Kind = KindCharDevice
	case mode&fs.ModeDevice != 0:
		e.Kind = KindBlockDevice
	default:
		e.Kind = KindRegular
	}
	return e
}

// uid/gid lookups hit /etc/passwd; cache them for the lifetime of the
// process since listings repeat the same handful of owners.
var (
	ownerCache sync.Map
	groupCache sync.Map
)

func ownerName(uid uint32) string {
	key := strconv.FormatUint(uint64(uid), 10)
	if v, ok := ownerCache.Load(key); ok {
		return v.(string)
	}
	name := key
	if u, err := user.LookupId(key); err == nil {
		name = u.Username
	}
	ownerCache.Store(key, name)
	return name
}

func groupName(gid uint32) string {
	key := strconv.FormatUint(uint64(gid), 10)
	if v, ok := groupCache.Load(key); ok {
		return v.(string)
	}
	name := key
	if g, err := user.LookupGroupId(key); err == nil {
		name = g.Name
	}
	groupCache.Store(key, name)
	return name
}
