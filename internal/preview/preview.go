// Package preview builds displayable representations of paths off the
// orchestration goroutine. Requests carry a per-tab generation token; the
// session drops any result whose token is no longer current, so stale
// work is discarded rather than interrupted.
package preview

// Kind tags what a Result holds.
type Kind uint8

const (
	KindText Kind = iota
	KindSyntax
	KindMarkdown
	KindBinary
	KindArchive
	KindDirectory
	KindUnsupported
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindSyntax:
		return "source"
	case KindMarkdown:
		return "markdown"
	case KindBinary:
		return "binary"
	case KindArchive:
		return "archive"
	case KindDirectory:
		return "directory"
	case KindUnsupported:
		return "unsupported"
	case KindError:
		return "error"
	}
	return "unknown"
}

// Request asks for a preview of Path on behalf of tab Tab. Gen is the
// tab's generation token at request time. ByteCap bounds how much of a
// regular file is read; Width is the render width for flowed formats.
type Request struct {
	Path    string
	Tab     int
	Gen     uint64
	ByteCap int64
	Width   int
}

// Result is the rendered preview. Lines are ready for display and may
// carry ANSI styling. Truncated marks a byte-capped read.
type Result struct {
	Path      string
	Tab       int
	Gen       uint64
	Kind      Kind
	Title     string
	Lines     []string
	Truncated bool
	Err       error
}
