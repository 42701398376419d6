package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vistral/vistral/internal/chat"
	"github.com/vistral/vistral/internal/viewmodel"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

const (
	leftPaneWidth  = 30
	minTotalWidth  = 100
	timelineLength = 40
)

func (m Model) chatPaneWidth() int {
	if m.width >= minTotalWidth {
		return defaultChatWidth
	}
	return max(m.width/3, 30)
}

func (m Model) centerPaneWidth() int {
	w := m.width - leftPaneWidth - m.chatPaneWidth() - 6
	return max(w, 30)
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 {
		return "loading..."
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		m.viewLeftPane(),
		m.viewCenterPane(),
		m.viewChatPane(),
	)
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(" vistral")+dimStyle.Render(" / video analysis"),
		body,
		m.viewStatusBar(),
	)
}

func (m Model) pane(focus focusArea, width int, content string) string {
	style := paneStyle
	if m.focus == focus {
		style = focusedPane
	}
	return style.Width(width).Render(content)
}

func (m Model) viewLeftPane() string {
	var b strings.Builder

	b.WriteString(paneTitleStyle.Render("Analyze") + "\n")
	b.WriteString(m.urlInput.View() + "\n")
	switch m.phase {
	case phaseProcessing:
		b.WriteString(m.spin.View() + dimStyle.Render("Processing, this can take a while") + "\n")
	case phaseError:
		b.WriteString(errorStyle.Render("✗ "+m.processErr) + "\n")
	case phaseCompleted:
		b.WriteString(successStyle.Render("✔ Ready") + "\n")
	}

	b.WriteString("\n" + paneTitleStyle.Render("History") + "\n")
	b.WriteString(m.viewHistory())

	style := paneStyle
	if m.focus == focusInput || m.focus == focusHistory {
		style = focusedPane
	}
	return style.Width(leftPaneWidth).Render(b.String())
}

func (m Model) viewHistory() string {
	if m.historyErr {
		return errorStyle.Render("Unavailable") + dimStyle.Render(", R to retry")
	}
	if len(m.historyItems) == 0 {
		if m.historyNote != "" {
			return dimStyle.Render(m.historyNote)
		}
		return dimStyle.Render("No videos yet")
	}

	var b strings.Builder
	for i, item := range m.historyItems {
		line := item.Title
		if line == "" {
			line = item.ID
		}
		if item.Duration != "" {
			line += dimStyle.Render(" " + item.Duration)
		}
		if !item.Status.Viewable() {
			line += warnStyle.Render(" [" + string(item.Status) + "]")
		}
		if m.loadingVideo == item.ID {
			line = m.spin.View() + line
		}
		if i == m.historyCursor && m.focus == focusHistory {
			line = selectedStyle.Render("> ") + line
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}
	if m.historyNote != "" {
		b.WriteString(dimStyle.Render(m.historyNote) + "\n")
	}
	return b.String()
}

func (m Model) viewCenterPane() string {
	width := m.centerPaneWidth()
	if m.record == nil {
		empty := dimStyle.Render("Process a video or open one from history.")
		return m.pane(focusCenter, width, empty)
	}

	var b strings.Builder
	header := paneTitleStyle.Render(m.record.Title)
	if m.record.Duration != "" {
		header += dimStyle.Render("  " + m.record.Duration)
	}
	if m.record.Language != language.Und {
		header += dimStyle.Render("  " + display.English.Tags().Name(m.record.Language))
	}
	b.WriteString(header + "\n")
	b.WriteString(m.viewTimeline() + "\n\n")
	b.WriteString(m.viewTabs() + "\n\n")

	switch m.tab {
	case tabSummary:
		b.WriteString(m.renderer.Render(m.record.Summary))
	case tabTranscript:
		if m.record.Transcript == "" {
			b.WriteString(dimStyle.Render("No transcript available."))
		} else {
			b.WriteString(m.record.Transcript)
		}
	default:
		b.WriteString(m.viewKeyframes())
	}

	return m.pane(focusCenter, width, b.String())
}

// viewTimeline draws keyframe markers over a fixed-width strip, with the
// cursor positioned at the current timestamp.
func (m Model) viewTimeline() string {
	duration := m.durationSeconds()
	strip := []rune(strings.Repeat("─", timelineLength))
	if duration > 0 {
		for _, frame := range m.record.Keyframes {
			pos := frame.Timestamp * (timelineLength - 1) / duration
			if pos >= 0 && pos < timelineLength {
				strip[pos] = '●'
			}
		}
		cursor := m.timelineAt * (timelineLength - 1) / duration
		if cursor >= 0 && cursor < timelineLength {
			strip[cursor] = '▼'
		}
	}
	return timelineStyle.Render("0:00 ") + markerStyle.Render(string(strip)) +
		timelineStyle.Render(" "+m.record.Duration)
}

func (m Model) durationSeconds() int {
	parts := strings.SplitN(m.record.Duration, ":", 2)
	if len(parts) != 2 {
		return 0
	}
	var minutes, seconds int
	if _, err := fmt.Sscanf(m.record.Duration, "%d:%d", &minutes, &seconds); err != nil {
		return 0
	}
	return minutes*60 + seconds
}

func (m Model) viewTabs() string {
	labels := []string{"1 Keyframes", "2 Summary", "3 Transcript"}
	rendered := make([]string, len(labels))
	for i, label := range labels {
		if centerTab(i) == m.tab {
			rendered[i] = activeTabStyle.Render(label)
		} else {
			rendered[i] = tabStyle.Render(label)
		}
	}
	return strings.Join(rendered, dimStyle.Render("│"))
}

func (m Model) viewKeyframes() string {
	if len(m.record.Keyframes) == 0 {
		return dimStyle.Render("No keyframes extracted.")
	}

	attached := make(map[int]bool)
	for _, frame := range m.controller.SelectedKeyframes() {
		attached[frame.ID] = true
	}

	var b strings.Builder
	for i, frame := range m.record.Keyframes {
		marker := "  "
		if i == m.keyframeCursor && m.focus == focusCenter {
			marker = selectedStyle.Render("> ")
		}
		line := fmt.Sprintf("#%d %s  %s", frame.ID,
			viewmodel.FormatSeconds(frame.Timestamp), frame.Description)
		switch {
		case m.highlighted[frame.ID]:
			line = highlightStyle.Render(line)
		case attached[frame.ID]:
			line = chipStyle.Render(line + " ◉")
		}
		b.WriteString(marker + line + "\n")
	}

	if len(attached) > 0 {
		b.WriteString(dimStyle.Render(fmt.Sprintf("\n%d of %d keyframes attached to your next question",
			len(attached), chat.MaxSelectedKeyframes)))
	} else {
		b.WriteString(dimStyle.Render("\nenter attaches a keyframe to the chat"))
	}
	return b.String()
}

func (m Model) viewChatPane() string {
	var b strings.Builder
	b.WriteString(paneTitleStyle.Render("Chat") + " " + m.viewChatState() + "\n")
	b.WriteString(m.chatView.View() + "\n")
	b.WriteString(m.chatInput.View())
	return m.pane(focusChat, m.chatPaneWidth(), b.String())
}

func (m Model) viewChatState() string {
	switch m.controller.State() {
	case chat.StateInitializing:
		return m.spin.View() + dimStyle.Render("starting session")
	case chat.StateSending:
		return m.spin.View() + dimStyle.Render("thinking")
	case chat.StateReady:
		return successStyle.Render("●")
	default:
		if m.record == nil {
			return dimStyle.Render("no video")
		}
		return dimStyle.Render("no session; r to start")
	}
}

// refreshChatView re-renders the conversation into the viewport and keeps
// it pinned to the newest message.
func (m *Model) refreshChatView() {
	var b strings.Builder
	for _, message := range m.controller.Messages() {
		b.WriteString(m.renderMessage(message))
		b.WriteString("\n")
	}
	m.chatView.SetContent(b.String())
	m.chatView.GotoBottom()
}

func (m *Model) renderMessage(message chat.Message) string {
	if message.Role == chat.RoleUser {
		out := userBubbleStyle.Render("You: ") + message.Content
		if len(message.Attachments) > 0 {
			ids := make([]string, len(message.Attachments))
			for i, a := range message.Attachments {
				ids[i] = fmt.Sprintf("#%d", a.ID)
			}
			out += "\n" + chipStyle.Render("  ◉ keyframes "+strings.Join(ids, " "))
		}
		return out + "\n"
	}

	content := message.Content
	if message.ID == m.revealMsgID {
		content = m.rev.Visible()
	}
	if content == "" && !message.Failed {
		return m.spin.View() + dimStyle.Render("…") + "\n"
	}
	if message.Failed {
		return errorStyle.Render(content) + "\n"
	}

	out := m.renderer.Render(content)
	if !message.Streaming {
		var extras []string
		if message.HasTimestamp {
			extras = append(extras, "at "+viewmodel.FormatSeconds(message.Timestamp))
		}
		if len(message.RelatedKeyframes) > 0 {
			ids := make([]string, len(message.RelatedKeyframes))
			for i, id := range message.RelatedKeyframes {
				ids[i] = fmt.Sprintf("#%d", id)
			}
			extras = append(extras, "keyframes "+strings.Join(ids, " "))
		}
		if len(extras) > 0 {
			out += "\n" + chipStyle.Render("  ▸ "+strings.Join(extras, "  "))
		}
	}
	return out + "\n"
}

func (m Model) viewStatusBar() string {
	var left string
	switch {
	case m.notice != "" && m.noticeLevel == chat.NoticeError:
		left = errorStyle.Render(m.notice)
	case m.notice != "" && m.noticeLevel == chat.NoticeWarn:
		left = warnStyle.Render(m.notice)
	case m.notice != "":
		left = m.notice
	default:
		left = statusBarStyle.Render("tab: switch pane  ctrl+c: quit")
	}

	right := m.viewHealth()
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return " " + left + strings.Repeat(" ", gap) + right
}

func (m Model) viewHealth() string {
	if m.monitor == nil {
		return ""
	}
	snap := m.healthSnap
	switch {
	case snap.CheckedAt.IsZero():
		return dimStyle.Render("○ checking")
	case !snap.Reachable:
		return errorStyle.Render("○ backend offline")
	case snap.Degraded():
		return warnStyle.Render("◐ degraded: " + strings.Join(snap.DownServices(), ", "))
	default:
		return successStyle.Render("● backend ok")
	}
}
