package preview

import (
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/glamour"
)

// buildSource highlights recognized source files with chroma and falls
// back to a plain text preview for everything else, or when highlighting
// fails for any reason.
func buildSource(src string, req Request, res Result) Result {
	lexer := lexers.Match(filepath.Base(req.Path))
	if lexer == nil {
		return buildText(src, res)
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get("monokai")
	if style == nil {
		style = styles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	it, err := lexer.Tokenise(nil, src)
	if err != nil {
		return buildText(src, res)
	}
	var buf strings.Builder
	if err := formatter.Format(&buf, style, it); err != nil {
		return buildText(src, res)
	}
	res.Kind = KindSyntax
	res.Title = lexer.Config().Name
	res.Lines = splitLines(buf.String())
	return res
}

// buildMarkdown renders through glamour at the requested width; a
// rendering failure degrades to plain text rather than an error result.
func buildMarkdown(req Request, res Result) Result {
	data, truncated, err := readCapped(req.Path, req.ByteCap)
	if err != nil {
		res.Kind = KindError
		res.Err = err
		return res
	}
	res.Truncated = truncated

	width := req.Width
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return buildText(string(data), res)
	}
	out, err := r.Render(string(data))
	if err != nil {
		return buildText(string(data), res)
	}
	res.Kind = KindMarkdown
	res.Lines = splitLines(out)
	return res
}
