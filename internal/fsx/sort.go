package fsx

import (
	"path/filepath"
	"sort"
	"strings"
	"unicode"
)

// SortKey selects the field a listing is ordered by.
type SortKey uint8

const (
	SortByKind SortKey = iota
	SortByName
	SortByModTime
	SortBySize
	SortByExt
)

// SortKind is a sort key plus direction. The zero value is the default
// order: directories first, then names.
type SortKind struct {
	Key  SortKey
	Desc bool
}

// FromRune updates the sort from a one-rune menu choice: k, n, m, s, e
// pick the key (uppercase descends), r flips the current direction.
// Unknown runes leave the sort unchanged and return false.
func (s SortKind) FromRune(r rune) (SortKind, bool) {
	switch unicode.ToLower(r) {
	case 'k':
		return SortKind{Key: SortByKind, Desc: unicode.IsUpper(r)}, true
	case 'n':
		return SortKind{Key: SortByName, Desc: unicode.IsUpper(r)}, true
	case 'm':
		return SortKind{Key: SortByModTime, Desc: unicode.IsUpper(r)}, true
	case 's':
		return SortKind{Key: SortBySize, Desc: unicode.IsUpper(r)}, true
	case 'e':
		return SortKind{Key: SortByExt, Desc: unicode.IsUpper(r)}, true
	case 'r':
		s.Desc = !s.Desc
		return s, true
	}
	return s, false
}

func (s SortKind) String() string {
	name := ""
	switch s.Key {
	case SortByKind:
		name = "kind"
	case SortByName:
		name = "name"
	case SortByModTime:
		name = "mtime"
	case SortBySize:
		name = "size"
	case SortByExt:
		name = "ext"
	}
	if s.Desc {
		return name + " desc"
	}
	return name
}

// SortEntries orders entries in place.
func SortEntries(entries []FileEntry, s SortKind) {
	less := lessFunc(s.Key)
	sort.SliceStable(entries, func(i, j int) bool {
		if s.Desc {
			return less(entries[j], entries[i])
		}
		return less(entries[i], entries[j])
	})
}

func lessFunc(key SortKey) func(a, b FileEntry) bool {
	switch key {
	case SortByName:
		return func(a, b FileEntry) bool { return lowerName(a) < lowerName(b) }
	case SortByModTime:
		return func(a, b FileEntry) bool { return a.ModTime.Before(b.ModTime) }
	case SortBySize:
		return func(a, b FileEntry) bool { return a.Size < b.Size }
	case SortByExt:
		return func(a, b FileEntry) bool {
			ae, be := strings.ToLower(filepath.Ext(a.Name)), strings.ToLower(filepath.Ext(b.Name))
			if ae != be {
				return ae < be
			}
			return lowerName(a) < lowerName(b)
		}
	default:
		// kind order: directories group before everything else
		return func(a, b FileEntry) bool {
			ad, bd := a.Navigable(), b.Navigable()
			if ad != bd {
				return ad
			}
			return lowerName(a) < lowerName(b)
		}
	}
}

func lowerName(e FileEntry) string { return strings.ToLower(e.Name) }
