package fsx

import (
	"regexp"
	"strings"

	"github.com/gobwas/glob"

	"rovefs/internal/fserr"
)

// FilterKind selects which predicate a Filter applies.
type FilterKind uint8

const (
	FilterAll FilterKind = iota
	FilterExtension
	FilterName
	FilterPattern
	FilterDirs
)

// Filter restricts a listing. The zero value matches everything.
type Filter struct {
	Kind FilterKind
	Ext  string
	Glob glob.Glob
	Re   *regexp.Regexp

	raw string
}

// ParseFilter reads the filter input line: "e <ext>" keeps an extension,
// "n <glob>" keeps matching names, "r <regex>" keeps names matching a
// regular expression, "d" keeps directories. Anything else resets to the
// match-all filter.
func ParseFilter(input string) (Filter, error) {
	input = strings.TrimSpace(input)
	word, rest, _ := strings.Cut(input, " ")
	rest = strings.TrimSpace(rest)
	switch word {
	case "e":
		if rest == "" {
			return Filter{}, fserr.Invalid("extension filter needs an extension")
		}
		return Filter{Kind: FilterExtension, Ext: strings.ToLower(strings.TrimPrefix(rest, ".")), raw: input}, nil
	case "n":
		if rest == "" {
			return Filter{}, fserr.Invalid("name filter needs a pattern")
		}
		g, err := glob.Compile(rest)
		if err != nil {
			return Filter{}, fserr.Invalid("bad pattern %q: %v", rest, err)
		}
		return Filter{Kind: FilterName, Glob: g, raw: input}, nil
	case "r":
		if rest == "" {
			return Filter{}, fserr.Invalid("regex filter needs an expression")
		}
		re, err := regexp.Compile(rest)
		if err != nil {
			return Filter{}, fserr.Invalid("bad regex %q: %v", rest, err)
		}
		return Filter{Kind: FilterPattern, Re: re, raw: input}, nil
	case "d":
		return Filter{Kind: FilterDirs, raw: input}, nil
	}
	return Filter{}, nil
}

// Match reports whether the entry passes the filter.
func (f Filter) Match(e FileEntry) bool {
	switch f.Kind {
	case FilterExtension:
		return strings.EqualFold(strings.TrimPrefix(extOf(e.Name), "."), f.Ext)
	case FilterName:
		return f.Glob.Match(e.Name)
	case FilterPattern:
		return f.Re.MatchString(e.Name)
	case FilterDirs:
		return e.IsDir()
	}
	return true
}

// Active reports whether the filter restricts anything.
func (f Filter) Active() bool { return f.Kind != FilterAll }

func (f Filter) String() string {
	if f.Kind == FilterAll {
		return ""
	}
	return f.raw
}

func extOf(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 {
		return ""
	}
	return name[i:]
}
