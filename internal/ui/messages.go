package ui

import (
	"time"

	"rovefs/internal/fsx"
	"rovefs/internal/preview"
	"rovefs/internal/session"
	"rovefs/internal/transfer"
	"rovefs/internal/watch"
)

type listingMsg struct {
	tabID   int
	dir     string
	entries []fsx.FileEntry
	err     error
}

type transferMsg struct {
	progress transfer.Progress
}

type previewMsg struct {
	result preview.Result
}

type reloadMsg struct {
	reload watch.Reload
}

type shellDoneMsg struct {
	out string
	err error
}

type interactiveDoneMsg struct {
	follow session.FollowUp
	err    error
}

type openDoneMsg struct {
	path string
	err  error
}

type gitInfoMsg struct {
	dir     string
	summary string
}

type tickMsg time.Time
