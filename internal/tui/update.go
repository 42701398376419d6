package tui

import (
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/vistral/vistral/internal/chat"
	"github.com/vistral/vistral/internal/history"
	"github.com/vistral/vistral/internal/viewmodel"
	"github.com/vistral/vistral/pkg/log"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.chatView.Width = m.chatPaneWidth() - 4
		m.chatView.Height = max(m.height-10, 5)
		m.refreshChatView()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if m.phase == phaseProcessing || m.loadingVideo != "" ||
			m.controller.State() == chat.StateInitializing ||
			m.controller.State() == chat.StateSending {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(msg)
			return m, cmd
		}
		return m, nil

	case processDoneMsg:
		return m.handleProcessDone(msg)

	case historyLoadedMsg:
		m.historyErr = msg.err != nil
		if msg.err != nil {
			log.Warn("history load failed", "error", msg.err)
			return m.flash(chat.NoticeWarn, "Couldn't load history; press R to retry")
		}
		m.historyItems = msg.items
		m.historyNote = msg.message
		if m.historyCursor >= len(m.historyItems) {
			m.historyCursor = max(len(m.historyItems)-1, 0)
		}
		return m, nil

	case detailsLoadedMsg:
		m.loadingVideo = ""
		if msg.err != nil {
			return m.flash(chat.NoticeError, "Couldn't load video: "+msg.err.Error())
		}
		return m.adoptRecord(msg.record, msg.source)

	case sessionStartedMsg:
		if msg.err != nil {
			model, cmd := m.flash(chat.NoticeError, "Chat unavailable: "+msg.err.Error()+"; press r to retry")
			return model, cmd
		}
		m.refreshChatView()
		return m, nil

	case sendDoneMsg:
		return m.handleSendDone(msg)

	case revealTickMsg:
		if !m.rev.Advance(msg.gen) {
			if m.revealMsgID != "" && m.rev.Done() && msg.gen == m.rev.Generation() {
				m.finishReveal()
			}
			return m, nil
		}
		m.refreshChatView()
		if m.rev.Done() {
			m.finishReveal()
			return m, nil
		}
		return m, revealTickCmd(m.cfg.Chat.RevealInterval, msg.gen)

	case highlightExpiredMsg:
		if msg.gen == m.highlightGen {
			m.highlighted = nil
		}
		return m, nil

	case noticeExpiredMsg:
		if msg.gen == m.noticeGen {
			m.notice = ""
		}
		return m, nil

	case healthUpdateMsg:
		m.healthSnap = msg.snap
		return m, waitHealthCmd(m.monitor.Updates())
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "tab":
		m.focus = (m.focus + 1) % 4
		return m.applyFocus()
	case "shift+tab":
		m.focus = (m.focus + 3) % 4
		return m.applyFocus()
	}

	switch m.focus {
	case focusInput:
		return m.handleInputKey(msg)
	case focusHistory:
		return m.handleHistoryKey(msg)
	case focusCenter:
		return m.handleCenterKey(msg)
	default:
		return m.handleChatKey(msg)
	}
}

func (m Model) applyFocus() (tea.Model, tea.Cmd) {
	m.urlInput.Blur()
	m.chatInput.Blur()

	switch m.focus {
	case focusInput:
		m.urlInput.Focus()
	case focusChat:
		m.chatInput.Focus()
		// session is created on first entry into the chat pane
		if m.record != nil && m.controller.State() == chat.StateNoSession {
			return m, tea.Batch(m.spin.Tick, startSessionCmd(m.controller))
		}
	}
	return m, nil
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "enter" {
		return m.submitVideo()
	}
	var cmd tea.Cmd
	m.urlInput, cmd = m.urlInput.Update(msg)
	return m, cmd
}

// submitVideo dispatches processing for the typed URL or file path.
// Ignored while a previous submission is still processing.
func (m Model) submitVideo() (tea.Model, tea.Cmd) {
	if m.phase == phaseProcessing {
		return m, nil
	}
	input := strings.TrimSpace(m.urlInput.Value())
	if input == "" {
		return m.flash(chat.NoticeWarn, "Enter a YouTube URL or a video file path first")
	}

	m.phase = phaseProcessing
	m.processErr = ""

	if strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") {
		return m, tea.Batch(m.spin.Tick, processURLCmd(m.client, input))
	}

	info, err := os.Stat(input)
	if err != nil {
		m.phase = phaseIdle
		return m.flash(chat.NoticeError, "File not found: "+input)
	}
	model, cmd := m.flash(chat.NoticeInfo,
		"Uploading "+info.Name()+" ("+humanize.Bytes(uint64(info.Size()))+")")
	return model, tea.Batch(cmd, m.spin.Tick, processFileCmd(m.client, input))
}

func (m Model) handleProcessDone(msg processDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.phase = phaseError
		m.processErr = msg.err.Error()
		return m.flash(chat.NoticeError, "Processing failed: "+msg.err.Error())
	}
	m.phase = phaseCompleted
	m.urlInput.SetValue("")
	model, cmd := m.adoptRecord(msg.record, history.SourceBackend)
	return model, tea.Batch(cmd, loadHistoryCmd(m.historySvc))
}

// adoptRecord installs a freshly loaded video: rebinds the chat, resets
// presentation cursors, and kills any running reveal or pulse.
func (m Model) adoptRecord(record *viewmodel.VideoRecord, source history.DetailSource) (tea.Model, tea.Cmd) {
	m.record = record
	m.recordSource = source
	m.controller.BindVideo(record.ID)
	m.tab = tabKeyframes
	m.keyframeCursor = 0
	m.timelineAt = 0
	m.highlighted = nil
	m.highlightGen++
	m.revealMsgID = ""
	m.rev.Set("")
	m.refreshChatView()

	if source == history.SourceCache {
		return m.flash(chat.NoticeWarn, "Backend unreachable; showing cached copy of "+record.Title)
	}
	return m, nil
}

func (m Model) handleHistoryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.historyCursor > 0 {
			m.historyCursor--
		}
	case "down", "j":
		if m.historyCursor < len(m.historyItems)-1 {
			m.historyCursor++
		}
	case "R":
		return m, loadHistoryCmd(m.historySvc)
	case "enter":
		return m.openHistoryItem()
	case "q":
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

// openHistoryItem loads details for the highlighted entry. Only completed
// videos are viewable; other statuses just explain themselves.
func (m Model) openHistoryItem() (tea.Model, tea.Cmd) {
	if m.historyCursor >= len(m.historyItems) {
		return m, nil
	}
	item := m.historyItems[m.historyCursor]
	if !item.Status.Viewable() {
		return m.flash(chat.NoticeInfo, "\""+item.Title+"\" is still "+string(item.Status))
	}
	if m.loadingVideo != "" {
		return m, nil
	}
	m.loadingVideo = item.ID
	return m, tea.Batch(m.spin.Tick, loadDetailsCmd(m.historySvc, item.ID))
}

func (m Model) handleCenterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "1":
		m.tab = tabKeyframes
	case "2":
		m.tab = tabSummary
	case "3":
		m.tab = tabTranscript
	case "left", "h":
		if m.tab == tabKeyframes && m.keyframeCursor > 0 {
			m.keyframeCursor--
			m.syncTimeline()
		}
	case "right", "l":
		if m.tab == tabKeyframes && m.record != nil && m.keyframeCursor < len(m.record.Keyframes)-1 {
			m.keyframeCursor++
			m.syncTimeline()
		}
	case "enter", " ":
		return m.attachCurrentKeyframe()
	case "q":
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) syncTimeline() {
	if m.record != nil && m.keyframeCursor < len(m.record.Keyframes) {
		m.timelineAt = m.record.Keyframes[m.keyframeCursor].Timestamp
	}
}

func (m Model) attachCurrentKeyframe() (tea.Model, tea.Cmd) {
	if m.record == nil || m.tab != tabKeyframes || m.keyframeCursor >= len(m.record.Keyframes) {
		return m, nil
	}
	result := m.controller.AttachKeyframe(m.record.Keyframes[m.keyframeCursor])
	if result.SeedPrompt != "" && strings.TrimSpace(m.chatInput.Value()) == "" {
		m.chatInput.SetValue(result.SeedPrompt)
		m.chatInput.CursorEnd()
	}
	return m.flash(result.Notice.Level, result.Notice.Text)
}

func (m Model) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		return m.submitQuestion()
	case "ctrl+l":
		m.controller.ClearChat()
		m.revealMsgID = ""
		m.rev.Set("")
		m.refreshChatView()
		return m, nil
	case "ctrl+s":
		// skip the reveal animation
		if m.revealMsgID != "" {
			m.rev.Skip()
			m.finishReveal()
		}
		return m, nil
	case "r":
		if m.chatInput.Value() == "" && m.controller.State() == chat.StateNoSession && m.record != nil {
			return m, tea.Batch(m.spin.Tick, startSessionCmd(m.controller))
		}
	case "up":
		m.chatView.ScrollUp(1)
		return m, nil
	case "down":
		m.chatView.ScrollDown(1)
		return m, nil
	}

	var cmd tea.Cmd
	m.chatInput, cmd = m.chatInput.Update(msg)
	return m, cmd
}

func (m Model) submitQuestion() (tea.Model, tea.Cmd) {
	pending := m.controller.BeginSend(m.chatInput.Value())
	if pending == nil {
		switch m.controller.State() {
		case chat.StateNoSession:
			if m.record != nil && strings.TrimSpace(m.chatInput.Value()) != "" {
				model, cmd := m.flash(chat.NoticeInfo, "Starting chat session first; send again once ready")
				return model, tea.Batch(cmd, m.spin.Tick, startSessionCmd(m.controller))
			}
		case chat.StateSending:
			return m.flash(chat.NoticeWarn, "Wait for the current answer before asking again")
		}
		return m, nil
	}

	// a question going out supersedes any answer still mid-reveal; complete
	// it so its chips render instead of leaving it Streaming forever
	if m.revealMsgID != "" {
		m.rev.Skip()
		m.finishReveal()
	}

	m.chatInput.SetValue("")
	m.refreshChatView()

	cmds := []tea.Cmd{m.spin.Tick, sendCmd(m.controller, pending)}
	for _, notice := range pending.Notices {
		var cmd tea.Cmd
		m, cmd = m.flash(notice.Level, notice.Text)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleSendDone(msg sendDoneMsg) (tea.Model, tea.Cmd) {
	outcome := m.controller.CompleteSend(msg.placeholderID, msg.resp, msg.err)
	if !outcome.Applied {
		return m, nil
	}
	if outcome.Failed {
		m.refreshChatView()
		return m, nil
	}

	// finish any superseded reveal before installing the new one
	if m.revealMsgID != "" {
		m.rev.Skip()
		m.finishReveal()
	}

	var cmds []tea.Cmd

	// install the reveal state before re-rendering: the first frame of a
	// new answer must be the empty prefix, never the full text
	gen := m.rev.Set(m.messageContent(outcome.MessageID))
	m.revealMsgID = outcome.MessageID
	m.refreshChatView()
	cmds = append(cmds, revealTickCmd(m.cfg.Chat.RevealInterval, gen))

	if len(outcome.RelatedKeyframes) > 0 {
		m.highlighted = make(map[int]bool, len(outcome.RelatedKeyframes))
		for _, id := range outcome.RelatedKeyframes {
			m.highlighted[id] = true
		}
		m.highlightGen++
		cmds = append(cmds, highlightCmd(m.cfg.Chat.HighlightWindow, m.highlightGen))
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) finishReveal() {
	if m.revealMsgID == "" {
		return
	}
	m.controller.FinishStreaming(m.revealMsgID)
	// land the timeline on the answer's reference point
	for _, message := range m.controller.Messages() {
		if message.ID == m.revealMsgID && message.HasTimestamp {
			m.timelineAt = message.Timestamp
		}
	}
	m.revealMsgID = ""
	m.refreshChatView()
}

func (m *Model) messageContent(id string) string {
	for _, message := range m.controller.Messages() {
		if message.ID == id {
			return message.Content
		}
	}
	return ""
}

// flash shows a transient notice in the status line.
func (m Model) flash(level chat.NoticeLevel, text string) (Model, tea.Cmd) {
	m.notice = text
	m.noticeLevel = level
	m.noticeGen++
	return m, noticeCmd(m.noticeGen)
}
