package tui

import (
	"github.com/vistral/vistral/internal/api"
	"github.com/vistral/vistral/internal/health"
	"github.com/vistral/vistral/internal/history"
	"github.com/vistral/vistral/internal/viewmodel"
)

type processDoneMsg struct {
	record *viewmodel.VideoRecord
	err    error
}

type historyLoadedMsg struct {
	items   []viewmodel.HistoryItem
	message string
	err     error
}

type detailsLoadedMsg struct {
	record *viewmodel.VideoRecord
	source history.DetailSource
	err    error
}

type sessionStartedMsg struct {
	err error
}

type sendDoneMsg struct {
	placeholderID string
	resp          *api.ChatMessageResponse
	err           error
}

// revealTickMsg advances the reveal cursor. The generation lets ticks
// scheduled against superseded content expire silently.
type revealTickMsg struct {
	gen int
}

type highlightExpiredMsg struct {
	gen int
}

type noticeExpiredMsg struct {
	gen int
}

type healthUpdateMsg struct {
	snap health.Snapshot
}
