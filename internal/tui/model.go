// Package tui is the three-pane terminal shell: video input and history on
// the left, the analyzed video (timeline, keyframes, summary, transcript)
// in the center, and the chat on the right.
package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vistral/vistral/internal/api"
	"github.com/vistral/vistral/internal/chat"
	"github.com/vistral/vistral/internal/config"
	"github.com/vistral/vistral/internal/health"
	"github.com/vistral/vistral/internal/history"
	"github.com/vistral/vistral/internal/markdown"
	"github.com/vistral/vistral/internal/reveal"
	"github.com/vistral/vistral/internal/viewmodel"
)

type focusArea int

const (
	focusInput focusArea = iota
	focusHistory
	focusCenter
	focusChat
)

type processingPhase int

const (
	phaseIdle processingPhase = iota
	phaseProcessing
	phaseCompleted
	phaseError
)

type centerTab int

const (
	tabKeyframes centerTab = iota
	tabSummary
	tabTranscript
)

// Model is the bubbletea application state. Everything that mutates chat
// semantics lives in the controller; the model owns presentation state
// only: focus, cursors, timers, and their generation guards.
type Model struct {
	cfg        *config.Config
	client     *api.Client
	controller *chat.Controller
	historySvc *history.Service
	monitor    *health.Monitor
	renderer   *markdown.Renderer

	urlInput  textinput.Model
	chatInput textinput.Model
	spin      spinner.Model
	chatView  viewport.Model

	width  int
	height int

	phase      processingPhase
	processErr string

	record       *viewmodel.VideoRecord
	recordSource history.DetailSource
	loadingVideo string // id being fetched from history, empty when none

	historyItems  []viewmodel.HistoryItem
	historyNote   string
	historyErr    bool
	historyCursor int

	tab            centerTab
	keyframeCursor int
	timelineAt     int // seconds

	highlighted  map[int]bool
	highlightGen int

	rev         reveal.State
	revealMsgID string

	notice      string
	noticeLevel chat.NoticeLevel
	noticeGen   int

	healthSnap health.Snapshot

	focus    focusArea
	quitting bool
}

// New assembles the shell. The monitor may be nil (health polling off).
func New(cfg *config.Config, client *api.Client, controller *chat.Controller,
	historySvc *history.Service, monitor *health.Monitor) (Model, error) {

	renderer, err := markdown.NewRenderer(defaultChatWidth)
	if err != nil {
		return Model{}, err
	}

	urlInput := textinput.New()
	urlInput.Placeholder = "YouTube URL or local video path"
	urlInput.Prompt = "> "
	urlInput.Focus()

	chatInput := textinput.New()
	chatInput.Placeholder = "Ask about this video"
	chatInput.Prompt = "> "

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = spinnerStyle

	return Model{
		cfg:        cfg,
		client:     client,
		controller: controller,
		historySvc: historySvc,
		monitor:    monitor,
		renderer:   renderer,
		urlInput:   urlInput,
		chatInput:  chatInput,
		spin:       spin,
		chatView:   viewport.New(defaultChatWidth, 20),
		focus:      focusInput,
	}, nil
}

const defaultChatWidth = 46

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{loadHistoryCmd(m.historySvc)}
	if m.monitor != nil {
		cmds = append(cmds, waitHealthCmd(m.monitor.Updates()))
	}
	return tea.Batch(cmds...)
}
