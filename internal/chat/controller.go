package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/vistral/vistral/internal/api"
	"github.com/vistral/vistral/internal/viewmodel"
	"github.com/vistral/vistral/pkg/log"
)

// Fixed retrieval parameters for every chat question.
const (
	questionTopK          = 5
	questionAutoKeyframes = false
)

// DefaultKeyframePrompt seeds the input when the first keyframe lands in an
// empty selection.
const DefaultKeyframePrompt = "Tell me more about the selected keyframes."

// State is the chat session lifecycle.
type State int

const (
	StateNoSession State = iota
	StateInitializing
	StateReady
	StateSending
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateSending:
		return "sending"
	default:
		return "no session"
	}
}

// Role distinguishes the two message authors.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Attachment is a keyframe thumbnail pinned to a user message.
type Attachment struct {
	ID  int
	URL string
}

// Message is one chat bubble. Assistant messages start as empty
// placeholders and are filled when the backend answers; RelatedKeyframes is
// not shown (and the highlight pulse not applied) while Streaming is true.
type Message struct {
	ID               string
	Role             Role
	Content          string
	Timestamp        int // seconds, for the jump-to action
	HasTimestamp     bool
	RelatedKeyframes []int
	Attachments      []Attachment
	Streaming        bool
	Failed           bool
}

// NoticeLevel grades a user-facing notification.
type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeWarn
	NoticeError
)

// Notice is a transient, non-blocking notification the shell flashes in its
// status line.
type Notice struct {
	Level NoticeLevel
	Text  string
}

// AttachResult reports what an attach attempt did.
type AttachResult struct {
	Added bool
	// SeedPrompt is non-empty only when the first keyframe landed in an
	// empty selection and the input should be pre-filled.
	SeedPrompt string
	Notice     Notice
}

// PendingSend is a dispatched-but-unanswered question: the prepared wire
// request plus the placeholder the answer will land in.
type PendingSend struct {
	PlaceholderID string
	Request       api.ChatMessageRequest
	Notices       []Notice
}

// SendOutcome describes how a completed send changed the placeholder.
type SendOutcome struct {
	// Applied is false when the placeholder no longer exists (chat cleared
	// or video changed while the call was in flight).
	Applied          bool
	MessageID        string
	Failed           bool
	RelatedKeyframes []int // ids to pulse in the gallery; empty on failure
}

// Controller owns the per-video chat session lifecycle: session creation,
// message ordering, the bounded keyframe selection, and the
// single-in-flight send rule. All mutation goes through its methods; reads
// return snapshots. Safe for concurrent use.
type Controller struct {
	client *api.Client

	mu        sync.Mutex
	state     State
	videoID   string
	sessionID string
	messages  []Message
	selection Selection

	start singleflight.Group
}

// NewController creates a session-less controller bound to no video.
func NewController(client *api.Client) *Controller {
	return &Controller{client: client}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SessionID returns the backend session id, empty before Ready.
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Messages returns a snapshot of the conversation in send order.
func (c *Controller) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// SelectedKeyframes returns a snapshot of the pending selection.
func (c *Controller) SelectedKeyframes() []viewmodel.Keyframe {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selection.Items()
}

// BindVideo points the controller at a new video record. Any previous
// session is invalidated and messages and selection are dropped; the same
// id is a no-op so re-renders cannot wipe an ongoing conversation.
func (c *Controller) BindVideo(videoID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.videoID == videoID {
		return
	}
	c.videoID = videoID
	c.sessionID = ""
	c.state = StateNoSession
	c.messages = nil
	c.selection.Clear()
}

// StartSession creates the backend chat session for the bound video.
// Lazy and idempotent: without a bound video it fails, once Ready it is a
// no-op, and concurrent racers (chat-pane focus, a send attempt, and the
// retry key can all fire commands at once) join a single network call and
// all see its result. On failure the controller returns to NoSession;
// retry happens when the video changes or the caller invokes StartSession
// again.
func (c *Controller) StartSession(ctx context.Context) error {
	c.mu.Lock()
	if c.videoID == "" {
		c.mu.Unlock()
		return fmt.Errorf("no video bound")
	}
	if c.state == StateReady || c.state == StateSending {
		c.mu.Unlock()
		return nil
	}
	c.state = StateInitializing
	videoID := c.videoID
	c.mu.Unlock()

	v, err, _ := c.start.Do(videoID, func() (any, error) {
		// a racer that missed an already-completed flight finds the
		// session here instead of opening a duplicate one
		c.mu.Lock()
		if c.sessionID != "" && c.videoID == videoID {
			resp := &api.ChatStartResponse{SessionID: c.sessionID}
			c.mu.Unlock()
			return resp, nil
		}
		c.mu.Unlock()
		return c.client.StartChat(ctx, videoID)
	})

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.videoID != videoID {
		// superseded by a video change while in flight
		return nil
	}
	if err != nil {
		c.state = StateNoSession
		return fmt.Errorf("start chat session: %w", err)
	}

	resp := v.(*api.ChatStartResponse)
	c.sessionID = resp.SessionID
	c.state = StateReady
	log.Info("chat session ready", "video_id", videoID, "session_id", resp.SessionID)
	return nil
}

// AttachKeyframe adds a keyframe to the pending selection. Duplicates and
// attaches beyond the cap leave the selection unchanged and only produce a
// notice; the first keyframe landing in an empty selection also seeds the
// input with the default prompt.
func (c *Controller) AttachKeyframe(frame viewmodel.Keyframe) AttachResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.selection.Contains(frame.ID) {
		return AttachResult{Notice: Notice{NoticeWarn, fmt.Sprintf("Keyframe %d is already selected", frame.ID)}}
	}
	if c.selection.Len() >= MaxSelectedKeyframes {
		return AttachResult{Notice: Notice{NoticeWarn, fmt.Sprintf("Selection limit reached (%d keyframes)", MaxSelectedKeyframes)}}
	}

	wasEmpty := c.selection.Len() == 0
	c.selection.Add(frame)

	result := AttachResult{
		Added:  true,
		Notice: Notice{NoticeInfo, fmt.Sprintf("Keyframe %d attached to your next question", frame.ID)},
	}
	if wasEmpty {
		result.SeedPrompt = DefaultKeyframePrompt
	}
	return result
}

// DetachKeyframe removes a keyframe from the pending selection.
func (c *Controller) DetachKeyframe(id int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selection.Remove(id)
}

// BeginSend validates and stages an outgoing question: appends the user
// message (with any attached keyframes) and an empty assistant placeholder,
// consumes the selection, and moves to Sending. Returns nil when the text
// trims to empty or the controller is not Ready, including when another
// send is already in flight, so message order is strictly send order and no
// two sends race for the same placeholder.
func (c *Controller) BeginSend(text string) *PendingSend {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateReady {
		return nil
	}

	attachments := make([]Attachment, 0, c.selection.Len())
	for _, f := range c.selection.Items() {
		attachments = append(attachments, Attachment{ID: f.ID, URL: f.URL})
	}
	keyframeIDs := c.selection.IDs()

	user := Message{
		ID:          uuid.NewString(),
		Role:        RoleUser,
		Content:     trimmed,
		Attachments: attachments,
	}
	placeholder := Message{
		ID:   uuid.NewString(),
		Role: RoleAssistant,
	}
	c.messages = append(c.messages, user, placeholder)
	c.state = StateSending

	pending := &PendingSend{
		PlaceholderID: placeholder.ID,
		Request: api.ChatMessageRequest{
			SessionID:     c.sessionID,
			Question:      trimmed,
			KeyframeIDs:   keyframeIDs,
			TopK:          questionTopK,
			AutoKeyframes: questionAutoKeyframes,
		},
	}
	if len(keyframeIDs) > 0 {
		pending.Notices = append(pending.Notices, Notice{
			Level: NoticeInfo,
			Text:  fmt.Sprintf("%d keyframe(s) sent with your question", len(keyframeIDs)),
		})
	}
	c.selection.Clear()

	return pending
}

// Send issues the staged request. Blocking; meant to run off the UI loop.
func (c *Controller) Send(ctx context.Context, pending *PendingSend) (*api.ChatMessageResponse, error) {
	return c.client.SendChatMessage(ctx, pending.Request)
}

// CompleteSend lands the backend's answer (or failure) in the placeholder.
// On success the placeholder starts streaming and the related keyframe ids
// are handed back for the gallery pulse; on failure it becomes an error
// bubble embedding the detail and no reveal ever starts for it.
func (c *Controller) CompleteSend(placeholderID string, resp *api.ChatMessageResponse, err error) SendOutcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateSending {
		c.state = StateReady
	}

	idx := c.indexOfLocked(placeholderID)
	if idx < 0 {
		// chat cleared or video changed while in flight
		return SendOutcome{}
	}
	msg := &c.messages[idx]

	if err != nil {
		msg.Content = fmt.Sprintf("Sorry, I couldn't answer that: %v", err)
		msg.Failed = true
		log.Warn("chat send failed", "err", err)
		return SendOutcome{Applied: true, MessageID: msg.ID, Failed: true}
	}

	msg.Content = resp.Answer
	msg.Streaming = true
	if resp.References != nil {
		if len(resp.References.TimeRanges) > 0 {
			msg.Timestamp = int(resp.References.TimeRanges[0].StartTime)
			msg.HasTimestamp = true
		}
		msg.RelatedKeyframes = append([]int(nil), resp.References.KeyframeIDs...)
	}

	return SendOutcome{
		Applied:          true,
		MessageID:        msg.ID,
		RelatedKeyframes: append([]int(nil), msg.RelatedKeyframes...),
	}
}

// FinishStreaming marks an assistant message's reveal as complete, allowing
// its related-keyframe chips to show.
func (c *Controller) FinishStreaming(messageID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if idx := c.indexOfLocked(messageID); idx >= 0 {
		c.messages[idx].Streaming = false
	}
}

// ClearChat empties the conversation without touching the session id.
func (c *Controller) ClearChat() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = nil
}

func (c *Controller) indexOfLocked(id string) int {
	for i := range c.messages {
		if c.messages[i].ID == id {
			return i
		}
	}
	return -1
}
