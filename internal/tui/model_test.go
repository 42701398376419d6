package tui

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vistral/vistral/internal/api"
	"github.com/vistral/vistral/internal/chat"
	"github.com/vistral/vistral/internal/config"
	"github.com/vistral/vistral/internal/history"
	"github.com/vistral/vistral/internal/viewmodel"
)

func stubBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/analysis/chat/start", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"session_id": "sess-1"})
	})
	mux.HandleFunc("/analysis/chat/message", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"answer": "The rocket lifts off here.",
			"references": map[string]any{
				"time_ranges":  []map[string]float64{{"start_time": 135, "end_time": 150}},
				"keyframe_ids": []int{2},
			},
		})
	})
	mux.HandleFunc("/video/history", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"videos": []any{}})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testModel(t *testing.T) Model {
	t.Helper()
	srv := stubBackend(t)

	cfg, err := config.NewFromEnv(config.WithBaseURL(srv.URL))
	require.NoError(t, err)
	cfg.Chat.RevealInterval = time.Millisecond

	client, err := api.NewClient(srv.URL, api.NewSession(""))
	require.NoError(t, err)
	controller := chat.NewController(client)
	svc, err := history.NewService(client, nil, cfg.History.Limit)
	require.NoError(t, err)

	m, err := New(cfg, client, controller, svc, nil)
	require.NoError(t, err)
	m.width = 120
	m.height = 40
	return m
}

func testRecord() *viewmodel.VideoRecord {
	return &viewmodel.VideoRecord{
		ID:       "vid-42",
		Title:    "Launch Review",
		Duration: "5:23",
		Summary:  "Engine test recap.",
		Keyframes: []viewmodel.Keyframe{
			{ID: 1, Timestamp: 12, Description: "Ignition"},
			{ID: 2, Timestamp: 135, Description: "Separation"},
		},
		Transcript: "Liftoff confirmed.",
	}
}

func asModel(t *testing.T, tm tea.Model) Model {
	t.Helper()
	m, ok := tm.(Model)
	require.True(t, ok)
	return m
}

func TestSubmitVideoRequiresInput(t *testing.T) {
	m := testModel(t)

	next, _ := m.submitVideo()
	m = asModel(t, next)

	assert.Equal(t, phaseIdle, m.phase)
	assert.Contains(t, m.notice, "Enter a YouTube URL")
}

func TestSubmitVideoIgnoredWhileProcessing(t *testing.T) {
	m := testModel(t)
	m.phase = phaseProcessing
	m.urlInput.SetValue("https://youtu.be/abc")

	next, cmd := m.submitVideo()
	m = asModel(t, next)

	assert.Nil(t, cmd)
	assert.Equal(t, phaseProcessing, m.phase)
}

func TestProcessDoneAdoptsRecord(t *testing.T) {
	m := testModel(t)
	m.phase = phaseProcessing

	next, _ := m.Update(processDoneMsg{record: testRecord()})
	m = asModel(t, next)

	assert.Equal(t, phaseCompleted, m.phase)
	require.NotNil(t, m.record)
	assert.Equal(t, "Launch Review", m.record.Title)
	assert.Equal(t, chat.StateNoSession, m.controller.State())
}

func TestProcessDoneFailure(t *testing.T) {
	m := testModel(t)
	m.phase = phaseProcessing

	next, _ := m.Update(processDoneMsg{err: assert.AnError})
	m = asModel(t, next)

	assert.Equal(t, phaseError, m.phase)
	assert.Contains(t, m.notice, "Processing failed")
}

func TestHistoryGatesUnfinishedVideos(t *testing.T) {
	m := testModel(t)
	m.historyItems = []viewmodel.HistoryItem{
		{ID: "vid-9", Title: "In flight", Status: viewmodel.StatusProcessing},
	}
	m.focus = focusHistory

	next, cmd := m.openHistoryItem()
	m = asModel(t, next)

	assert.Nil(t, cmd)
	assert.Empty(t, m.loadingVideo)
	assert.Contains(t, m.notice, "still processing")
}

func TestHistoryLoadFailureOffersRetry(t *testing.T) {
	m := testModel(t)

	next, _ := m.Update(historyLoadedMsg{err: assert.AnError})
	m = asModel(t, next)

	assert.True(t, m.historyErr)
	assert.Contains(t, m.notice, "retry")
}

func TestAttachKeyframeSeedsPrompt(t *testing.T) {
	m := testModel(t)
	next, _ := m.adoptRecord(testRecord(), history.SourceBackend)
	m = asModel(t, next)
	m.focus = focusCenter

	next, _ = m.attachCurrentKeyframe()
	m = asModel(t, next)

	assert.Equal(t, chat.DefaultKeyframePrompt, m.chatInput.Value())
	require.Len(t, m.controller.SelectedKeyframes(), 1)

	// second attach of the same frame is a warning no-op and must not
	// overwrite the user's draft
	m.chatInput.SetValue("my own question")
	next, _ = m.attachCurrentKeyframe()
	m = asModel(t, next)

	assert.Equal(t, "my own question", m.chatInput.Value())
	assert.Len(t, m.controller.SelectedKeyframes(), 1)
	assert.Contains(t, m.notice, "already selected")
}

func TestSendFlowFillsPlaceholderAndStartsReveal(t *testing.T) {
	m := testModel(t)
	next, _ := m.adoptRecord(testRecord(), history.SourceBackend)
	m = asModel(t, next)
	require.NoError(t, m.controller.StartSession(context.Background()))

	m.focus = focusChat
	m.chatInput.SetValue("What happens at separation?")
	next, cmd := m.submitQuestion()
	m = asModel(t, next)
	require.NotNil(t, cmd)
	assert.Empty(t, m.chatInput.Value())
	assert.Equal(t, chat.StateSending, m.controller.State())

	done := drainForMsg[sendDoneMsg](t, cmd)
	next, cmd = m.Update(done)
	m = asModel(t, next)
	require.NotNil(t, cmd)

	messages := m.controller.Messages()
	require.Len(t, messages, 2)
	answer := messages[1]
	assert.Equal(t, "The rocket lifts off here.", answer.Content)
	assert.True(t, answer.Streaming)
	assert.Equal(t, answer.ID, m.revealMsgID)
	assert.True(t, m.highlighted[2])
}

func TestAnswerStaysHiddenUntilRevealTicks(t *testing.T) {
	m := testModel(t)
	next, _ := m.adoptRecord(testRecord(), history.SourceBackend)
	m = asModel(t, next)
	require.NoError(t, m.controller.StartSession(context.Background()))

	m.focus = focusChat
	m.chatInput.SetValue("What happens at separation?")
	next, cmd := m.submitQuestion()
	m = asModel(t, next)

	done := drainForMsg[sendDoneMsg](t, cmd)
	next, _ = m.Update(done)
	m = asModel(t, next)

	// the first frame after the answer lands is the empty prefix; the full
	// text must not be on screen before any tick
	assert.Equal(t, "", m.rev.Visible())
	assert.NotContains(t, m.chatView.View(), "The rocket lifts off")

	next, _ = m.Update(revealTickMsg{gen: m.rev.Generation()})
	m = asModel(t, next)
	assert.Equal(t, "T", m.rev.Visible())
}

func TestNewSendCompletesSupersededReveal(t *testing.T) {
	m := testModel(t)
	next, _ := m.adoptRecord(testRecord(), history.SourceBackend)
	m = asModel(t, next)
	require.NoError(t, m.controller.StartSession(context.Background()))
	m.focus = focusChat

	m.chatInput.SetValue("first question")
	next, cmd := m.submitQuestion()
	m = asModel(t, next)
	next, _ = m.Update(drainForMsg[sendDoneMsg](t, cmd))
	m = asModel(t, next)

	first := m.controller.Messages()[1]
	require.True(t, first.Streaming)

	// ask again while the first answer is still mid-reveal
	m.chatInput.SetValue("second question")
	next, cmd = m.submitQuestion()
	m = asModel(t, next)

	messages := m.controller.Messages()
	assert.False(t, messages[1].Streaming, "superseded answer must finish, not stream forever")
	assert.Equal(t, 135, m.timelineAt)

	next, _ = m.Update(drainForMsg[sendDoneMsg](t, cmd))
	m = asModel(t, next)

	messages = m.controller.Messages()
	require.Len(t, messages, 4)
	assert.False(t, messages[1].Streaming)
	assert.True(t, messages[3].Streaming)
	assert.Equal(t, messages[3].ID, m.revealMsgID)
}

func TestRevealStaleGenerationDoesNotAdvance(t *testing.T) {
	m := testModel(t)
	gen := m.rev.Set("hello")
	m.rev.Set("goodbye") // supersedes

	next, cmd := m.Update(revealTickMsg{gen: gen})
	m = asModel(t, next)

	assert.Nil(t, cmd)
	assert.Equal(t, "", m.rev.Visible())
}

func TestRevealFinishJumpsTimeline(t *testing.T) {
	m := testModel(t)
	next, _ := m.adoptRecord(testRecord(), history.SourceBackend)
	m = asModel(t, next)
	require.NoError(t, m.controller.StartSession(context.Background()))

	pending := m.controller.BeginSend("where?")
	require.NotNil(t, pending)
	resp, err := m.controller.Send(context.Background(), pending)
	require.NoError(t, err)
	outcome := m.controller.CompleteSend(pending.PlaceholderID, resp, err)
	require.True(t, outcome.Applied)

	m.revealMsgID = outcome.MessageID
	m.rev.Set("The rocket lifts off here.")
	m.rev.Skip()
	m.finishReveal()

	assert.Equal(t, 135, m.timelineAt)
	assert.Empty(t, m.revealMsgID)
	messages := m.controller.Messages()
	assert.False(t, messages[len(messages)-1].Streaming)
}

func TestViewRendersThreePanes(t *testing.T) {
	m := testModel(t)
	next, _ := m.adoptRecord(testRecord(), history.SourceBackend)
	m = asModel(t, next)

	out := m.View()
	assert.Contains(t, out, "Launch Review")
	assert.Contains(t, out, "Chat")
	assert.Contains(t, out, "History")
	assert.Contains(t, out, "Keyframes")
}

func TestDurationSeconds(t *testing.T) {
	m := testModel(t)
	m.record = &viewmodel.VideoRecord{Duration: "5:23"}
	assert.Equal(t, 323, m.durationSeconds())

	m.record = &viewmodel.VideoRecord{Duration: "raw"}
	assert.Equal(t, 0, m.durationSeconds())
}

// drainForMsg runs a command tree until a message of type T appears.
func drainForMsg[T tea.Msg](t *testing.T, cmd tea.Cmd) T {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		msg := next()
		if want, ok := msg.(T); ok {
			return want
		}
		if batch, ok := msg.(tea.BatchMsg); ok {
			queue = append(queue, batch...)
		}
	}
	t.Fatal("command produced no message of the wanted type")
	var zero T
	return zero
}
