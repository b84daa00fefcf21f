package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"rovefs/internal/fsx"
	"rovefs/internal/session"
)

type uiStyles struct {
	headerStyle   lipgloss.Style
	mutedStyle    lipgloss.Style
	statusStyle   lipgloss.Style
	warnStyle     lipgloss.Style
	cursorStyle   lipgloss.Style
	selectedStyle lipgloss.Style
	reverseStyle  lipgloss.Style
	panelBorder   lipgloss.Style
}

func defaultStyles() uiStyles {
	return uiStyles{
		headerStyle:   lipgloss.NewStyle().Bold(true),
		mutedStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("243")),
		statusStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("75")).Bold(true),
		warnStyle:     lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true),
		cursorStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true),
		selectedStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("41")),
		reverseStyle:  lipgloss.NewStyle().Reverse(true),
		panelBorder:   lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
	}
}

func (model Model) View() string {
	if model.quitting {
		return ""
	}
	styles := defaultStyles()
	header := renderHeader(model, styles)
	body := renderBody(model, styles)
	footer := renderFooter(model, styles)
	return strings.Join([]string{header, body, footer}, "\n")
}

func renderHeader(model Model, styles uiStyles) string {
	tabs := make([]string, 0, len(model.sess.Tabs()))
	for i := range model.sess.Tabs() {
		label := fmt.Sprintf(" %d ", i+1)
		if i == model.sess.ActiveIndex() {
			label = styles.statusStyle.Render(label)
		} else {
			label = styles.mutedStyle.Render(label)
		}
		tabs = append(tabs, label)
	}
	dir := model.sess.CurrentDir()
	left := styles.headerStyle.Render("rovefs") + " " + strings.Join(tabs, "") + " " + breadcrumbs(dir)
	right := styles.mutedStyle.Render(model.git[dir])
	return padLine(left, right, model.width)
}

func renderBody(model Model, styles uiStyles) string {
	rows := model.listHeight()
	leftWidth, rightWidth, showRight := splitPanels(model.width)
	if !model.sess.Dual() || !showRight {
		return renderPane(model, styles, model.sess.ActiveTab(), true, model.width, rows)
	}
	sep := lipgloss.NewStyle().Foreground(lipgloss.Color("238")).Render("│")
	left := renderPane(model, styles, model.sess.ActiveTab(), true, leftWidth, rows)
	right := renderPane(model, styles, model.sess.BuddyTab(), false, rightWidth, rows)
	return lipgloss.JoinHorizontal(lipgloss.Top, left, sep, right)
}

// renderPane draws one tab: a title line plus rows listing lines, all
// inside the panel border.
func renderPane(model Model, styles uiStyles, t *session.Tab, active bool, width, rows int) string {
	textWidth := maxInt(width-4, 10)
	lines := []string{paneTitle(model, styles, t, active, textWidth)}
	lines = append(lines, paneBody(model, styles, t, active, textWidth, rows)...)
	for len(lines) < rows+1 {
		lines = append(lines, "")
	}
	return styles.panelBorder.Width(textWidth + 2).Render(strings.Join(lines[:rows+1], "\n"))
}

func paneTitle(model Model, styles uiStyles, t *session.Tab, active bool, width int) string {
	left := trimLeft(breadcrumbs(t.Dir), width-14)
	if active {
		left = styles.headerStyle.Render(left)
	} else {
		left = styles.mutedStyle.Render(left)
	}
	right := ""
	switch t.Display {
	case session.ModeDirectory:
		if t.Loading {
			right = "loading"
		} else {
			right = fmt.Sprintf("%d items", len(t.Entries))
		}
	case session.ModeTree:
		if t.Tree != nil {
			right = fmt.Sprintf("tree %d", t.Tree.Len())
		}
	case session.ModePreview:
		if t.PreviewRes != nil {
			right = t.PreviewRes.Kind.String()
			if t.PreviewRes.Truncated {
				right += " (truncated)"
			}
		}
	case session.ModeFlagged:
		right = fmt.Sprintf("%d flagged", model.sess.Flagged().Len())
	case session.ModeHelp:
		right = "help"
	}
	return padLine(left, styles.mutedStyle.Render(right), width)
}

func paneBody(model Model, styles uiStyles, t *session.Tab, active bool, width, rows int) []string {
	switch edit := t.Edit.(type) {
	case *session.NavigateMode:
		return menuLines(styles, edit, active, width, rows)
	case *session.ConfirmMode:
		return confirmLines(styles, edit, width, rows)
	case *session.BulkEditMode:
		return []string{"", fmt.Sprintf("  editing %d name(s) in $EDITOR", len(edit.Sources))}
	}
	switch t.Display {
	case session.ModeTree:
		return treeLines(model, styles, t, active, width, rows)
	case session.ModePreview:
		return previewLines(t, rows)
	case session.ModeFlagged:
		return flaggedLines(model, styles, t, active, width, rows)
	case session.ModeHelp:
		return helpLines(model, styles, t, rows)
	default:
		return listingLines(model, styles, t, active, width, rows)
	}
}

func listingLines(model Model, styles uiStyles, t *session.Tab, active bool, width, rows int) []string {
	if t.Loading {
		return []string{styles.mutedStyle.Render("loading...")}
	}
	if len(t.Entries) == 0 {
		return []string{styles.mutedStyle.Render("empty")}
	}
	start := clamp(t.Top, 0, maxInt(len(t.Entries)-1, 0))
	end := start + rows
	if end > len(t.Entries) {
		end = len(t.Entries)
	}
	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		e := t.Entries[i]
		flagged := model.sess.Flagged().Contains(e.Path)
		line := trimTo(listingLine(e, flagged), width)
		switch {
		case active && i == t.Cursor:
			line = styles.cursorStyle.Render(line)
		case flagged:
			line = styles.selectedStyle.Render(line)
		case !active && i == t.Cursor:
			line = styles.mutedStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return lines
}

func listingLine(e fsx.FileEntry, flagged bool) string {
	marker := " "
	if flagged {
		marker = "*"
	}
	name := e.Name
	if e.IsDir() {
		name += "/"
	}
	if e.Kind == fsx.KindSymlinkValid || e.Kind == fsx.KindSymlinkBroken {
		name += " -> " + e.LinkTarget
	}
	return fmt.Sprintf("%9s %s %c %s", e.FormatSize(), marker, e.Kind.Char(), name)
}

func treeLines(model Model, styles uiStyles, t *session.Tab, active bool, width, rows int) []string {
	if t.Tree == nil {
		return []string{styles.mutedStyle.Render("no tree")}
	}
	visible := t.Tree.VisibleSeq()
	if len(visible) == 0 {
		return []string{styles.mutedStyle.Render("empty")}
	}
	at := 0
	for i, id := range visible {
		if id == t.TreeCur {
			at = i
			break
		}
	}
	// No per-tree scroll state; the window recenters on the cursor.
	start := clamp(at-rows/2, 0, maxInt(len(visible)-rows, 0))
	end := start + rows
	if end > len(visible) {
		end = len(visible)
	}
	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		id := visible[i]
		marker := "  "
		if t.Tree.IsDir(id) {
			if t.Tree.Folded(id) {
				marker = "▸ "
			} else {
				marker = "▾ "
			}
		}
		name := t.Tree.Name(id)
		if t.Tree.IsDir(id) {
			name += "/"
		}
		flag := " "
		if model.sess.Flagged().Contains(t.Tree.Path(id)) {
			flag = "*"
		}
		line := trimTo(fmt.Sprintf("%s %s%s%s", flag, strings.Repeat("  ", t.Tree.Depth(id)), marker, name), width)
		if active && id == t.TreeCur {
			line = styles.cursorStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return lines
}

func previewLines(t *session.Tab, rows int) []string {
	res := t.PreviewRes
	if res == nil {
		return []string{"building preview..."}
	}
	if res.Err != nil {
		return []string{res.Err.Error()}
	}
	start := clamp(t.PreviewOff, 0, maxInt(len(res.Lines)-1, 0))
	end := start + rows
	if end > len(res.Lines) {
		end = len(res.Lines)
	}
	return res.Lines[start:end]
}

func flaggedLines(model Model, styles uiStyles, t *session.Tab, active bool, width, rows int) []string {
	paths := model.sess.FlaggedPaths()
	if len(paths) == 0 {
		return []string{styles.mutedStyle.Render("nothing flagged")}
	}
	start := clamp(t.FlagCur-rows+1, 0, maxInt(len(paths)-1, 0))
	end := start + rows
	if end > len(paths) {
		end = len(paths)
	}
	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		line := trimTo(collapseHome(paths[i]), width)
		if active && i == t.FlagCur {
			line = styles.cursorStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return lines
}

func helpLines(model Model, styles uiStyles, t *session.Tab, rows int) []string {
	all := []string{
		styles.headerStyle.Render("Fixed keys"),
		"arrows move, left goes to the parent, right enters",
		"enter opens, esc cancels or goes back",
		"pgup/pgdn page, home/end jump, tab completes in prompts",
		"",
		styles.headerStyle.Render("Bindings"),
	}
	for _, entry := range model.keys.Help() {
		all = append(all, fmt.Sprintf("%-14s %s", entry.Keys, entry.Desc))
	}
	start := clamp(t.HelpOff, 0, maxInt(len(all)-1, 0))
	end := start + rows
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}

func menuLines(styles uiStyles, m *session.NavigateMode, active bool, width, rows int) []string {
	if len(m.Items) == 0 {
		return []string{styles.mutedStyle.Render("empty")}
	}
	start := clamp(m.Cursor-rows+1, 0, maxInt(len(m.Items)-1, 0))
	end := start + rows
	if end > len(m.Items) {
		end = len(m.Items)
	}
	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		item := m.Items[i]
		label := item.Label
		if item.Rune != 0 {
			label = fmt.Sprintf("%c  %s", item.Rune, label)
		}
		line := trimTo(label, width)
		if active && i == m.Cursor {
			line = styles.cursorStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return lines
}

func confirmLines(styles uiStyles, m *session.ConfirmMode, width, rows int) []string {
	lines := []string{
		styles.warnStyle.Render(fmt.Sprintf("%s %d file(s)?", m.Action, len(m.Paths))),
		"",
	}
	shown := m.Paths
	max := maxInt(rows-4, 1)
	if len(shown) > max {
		shown = shown[:max]
	}
	for _, p := range shown {
		lines = append(lines, trimTo("  "+collapseHome(p), width))
	}
	if rest := len(m.Paths) - len(shown); rest > 0 {
		lines = append(lines, styles.mutedStyle.Render(fmt.Sprintf("  ...and %d more", rest)))
	}
	lines = append(lines, "", styles.warnStyle.Render("y confirm   n cancel"))
	return lines
}

func renderFooter(model Model, styles uiStyles) string {
	t := model.sess.ActiveTab()
	first := statusLine(model, styles, t)
	second := infoLine(model, styles, t)
	return strings.Join([]string{first, second}, "\n")
}

// statusLine is the prompt while a text input is open, otherwise the
// transient status.
func statusLine(model Model, styles uiStyles, t *session.Tab) string {
	if m, ok := t.Edit.(*session.InputMode); ok {
		return styles.statusStyle.Render(m.Title()+" > ") + renderInput(styles, &m.Line)
	}
	line := trimStatus(model.status, model.width)
	if model.statusErr {
		return styles.warnStyle.Render(line)
	}
	return styles.mutedStyle.Render(line)
}

// renderInput shows the edit buffer with the cursor cell reversed.
func renderInput(styles uiStyles, line *session.InputLine) string {
	runes := []rune(line.String())
	cur := line.Cursor()
	if cur >= len(runes) {
		return string(runes) + styles.reverseStyle.Render(" ")
	}
	before := string(runes[:cur])
	under := styles.reverseStyle.Render(string(runes[cur]))
	return before + under + string(runes[cur+1:])
}

func infoLine(model Model, styles uiStyles, t *session.Tab) string {
	left := fmt.Sprintf("flagged %d  sort %s", model.sess.Flagged().Len(), t.Show.Sort)
	if t.Show.Hidden {
		left += "  hidden on"
	}
	if t.Show.Filter.Active() {
		left += "  filter " + t.Show.Filter.String()
	}
	if t.Search != "" {
		left += "  search " + t.Search
	}
	right := infoRight(model, styles, t)
	return padLine(styles.mutedStyle.Render(left), right, model.width)
}

// infoRight picks the right half of the info line. While a prompt is
// open the status line is occupied by the input, so a pending status
// shows here instead.
func infoRight(model Model, styles uiStyles, t *session.Tab) string {
	if _, ok := t.Edit.(*session.InputMode); ok && model.status != "" {
		line := trimStatus(model.status, model.width/2)
		if model.statusErr {
			return styles.warnStyle.Render(line)
		}
		return styles.mutedStyle.Render(line)
	}
	if hint := footerHint(t); hint != "" {
		return styles.mutedStyle.Render(hint)
	}
	if jv, ok := model.sess.RunningJob(); ok {
		return styles.statusStyle.Render(jobLine(jv, model.transfers.QueueLen()))
	}
	return styles.mutedStyle.Render("h help  q quit")
}

// footerHint names the keys that matter while a modal layer is open.
func footerHint(t *session.Tab) string {
	switch t.Edit.(type) {
	case *session.InputMode:
		return "enter commit  esc cancel"
	case *session.NavigateMode:
		return "enter select  esc close"
	case *session.ConfirmMode:
		return "y confirm  n cancel"
	case *session.SortMode:
		return "k kind  n name  m mtime  s size  e ext  upper desc  r reverse"
	case *session.MarkSetMode:
		return "press a mark character"
	case *session.BulkEditMode:
		return "save and quit the editor to apply"
	}
	return ""
}

func jobLine(jv session.JobView, queued int) string {
	p := jv.Progress
	done, total := p.BytesDone, p.BytesTotal
	if total == 0 {
		done, total = int64(p.FilesDone), int64(p.FilesTotal)
	}
	out := fmt.Sprintf("%s %s %d/%d", p.Op, progressBar(done, total, 18), p.FilesDone, p.FilesTotal)
	if queued > 0 {
		out += fmt.Sprintf(" +%d queued", queued)
	}
	return out
}

func breadcrumbs(path string) string {
	path = collapseHome(filepath.Clean(path))
	if path == string(filepath.Separator) {
		return path
	}
	parts := strings.Split(path, string(filepath.Separator))
	if len(parts) > 0 && parts[0] == "" {
		parts[0] = string(filepath.Separator)
	}
	return strings.Join(parts, " › ")
}

func collapseHome(path string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" || home == "/" {
		return path
	}
	if path == home {
		return "~"
	}
	if strings.HasPrefix(path, home+string(filepath.Separator)) {
		return "~" + path[len(home):]
	}
	return path
}

func padLine(left, right string, width int) string {
	if width <= 0 {
		return left
	}
	space := width - lipgloss.Width(left) - lipgloss.Width(right)
	if space < 1 {
		return left + " " + right
	}
	return left + strings.Repeat(" ", space) + right
}

func splitPanels(width int) (int, int, bool) {
	if width < 80 {
		return width, 0, false
	}
	left := (width - 1) / 2
	right := width - left - 1
	return left, right, true
}

func progressBar(done, total int64, width int) string {
	if width <= 0 || total <= 0 {
		return ""
	}
	filled := clamp(int(int64(width)*done/total), 0, width)
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "]"
}

func trimStatus(message string, width int) string {
	if width <= 0 {
		return message
	}
	max := width - 4
	if max <= 0 || len(message) <= max {
		return message
	}
	return message[:max] + "..."
}

// trimTo cuts a plain line to the pane width. Styling happens after.
func trimTo(s string, width int) string {
	if width <= 3 || lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-3]) + "..."
}

// trimLeft keeps the tail of a path line, which is the part that
// distinguishes deep directories.
func trimLeft(s string, width int) string {
	if width <= 3 || lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return "..." + string(runes[len(runes)-width+3:])
}

func clamp(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
