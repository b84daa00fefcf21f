// Package vcs summarises the git state of a directory for the header
// line. Everything is best effort: outside a repository, or on any git
// error, callers get an empty summary and render nothing.
package vcs

import (
	"fmt"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Info is one repository snapshot.
type Info struct {
	Branch    string
	Staged    int
	Modified  int
	Deleted   int
	Untracked int
	Conflicts int
}

func (i Info) Clean() bool {
	return i.Staged == 0 && i.Modified == 0 && i.Deleted == 0 && i.Untracked == 0 && i.Conflicts == 0
}

// Render formats the snapshot the way shell git prompts do, for
// example "master ●1 ✚2 …3" or "main ✔" when clean.
func (i Info) Render() string {
	var b strings.Builder
	b.WriteString(i.Branch)
	if i.Clean() {
		b.WriteString(" ✔")
		return b.String()
	}
	if i.Conflicts > 0 {
		fmt.Fprintf(&b, " ✖%d", i.Conflicts)
	}
	if i.Staged > 0 {
		fmt.Fprintf(&b, " ●%d", i.Staged)
	}
	if i.Modified > 0 {
		fmt.Fprintf(&b, " ✚%d", i.Modified)
	}
	if i.Deleted > 0 {
		fmt.Fprintf(&b, " -%d", i.Deleted)
	}
	if i.Untracked > 0 {
		fmt.Fprintf(&b, " …%d", i.Untracked)
	}
	return b.String()
}

// Status inspects the repository containing dir. dir may be anywhere
// inside the worktree.
func Status(dir string) (Info, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return Info{}, err
	}

	info := Info{Branch: branchName(repo)}

	wt, err := repo.Worktree()
	if err != nil {
		return Info{}, err
	}
	status, err := wt.Status()
	if err != nil {
		return Info{}, err
	}

	for _, fs := range status {
		if fs.Staging == git.UpdatedButUnmerged || fs.Worktree == git.UpdatedButUnmerged {
			info.Conflicts++
			continue
		}
		if fs.Worktree == git.Untracked {
			info.Untracked++
			continue
		}
		switch fs.Staging {
		case git.Unmodified:
		default:
			info.Staged++
		}
		switch fs.Worktree {
		case git.Modified:
			info.Modified++
		case git.Deleted:
			info.Deleted++
		}
	}
	return info, nil
}

// Summary is the forgiving form used by the UI.
func Summary(dir string) string {
	info, err := Status(dir)
	if err != nil {
		return ""
	}
	return info.Render()
}

// branchName reads HEAD without resolving it, so freshly initialised
// repositories with no commits still report their unborn branch.
func branchName(repo *git.Repository) string {
	ref, err := repo.Reference(plumbing.HEAD, false)
	if err != nil {
		return ""
	}
	if ref.Type() == plumbing.SymbolicReference {
		return ref.Target().Short()
	}
	h := ref.Hash().String()
	if len(h) > 7 {
		h = h[:7]
	}
	return ":" + h
}
