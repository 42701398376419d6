package api

import "encoding/json"

// Wire types for the analysis backend. Polymorphic fields (metadata,
// summary, transcript, duration) stay json.RawMessage here; the viewmodel
// package decodes them shape by shape.

// HealthResponse is the GET /health payload.
type HealthResponse struct {
	Status string `json:"status"`
}

// ServiceStatusResponse is the GET /video/status payload.
type ServiceStatusResponse struct {
	Status   string          `json:"status"`
	Services map[string]bool `json:"services"`
}

// ProcessVideoResponse is returned by POST /video/process and
// GET /video/details/{video_id}.
type ProcessVideoResponse struct {
	Status                  string          `json:"status"`
	VideoID                 string          `json:"video_id"`
	KeyframesCount          int             `json:"keyframes_count,omitempty"`
	TranscriptSegmentsCount int             `json:"transcript_segments_count,omitempty"`
	Metadata                json.RawMessage `json:"metadata,omitempty"`
	VideoSummary            json.RawMessage `json:"video_summary,omitempty"`
	SummaryGenerated        bool            `json:"summary_generated,omitempty"`
}

// VideoHistoryItem is one entry of GET /video/history.
type VideoHistoryItem struct {
	ID               string          `json:"id"`
	Title            string          `json:"title"`
	Duration         json.RawMessage `json:"duration,omitempty"`
	CreatedAt        string          `json:"created_at"`
	ProcessingStatus string          `json:"processing_status"`
	SourceType       string          `json:"source_type"`
	ThumbnailURL     string          `json:"thumbnail_url,omitempty"`
}

// VideoHistoryResponse is the GET /video/history payload.
// Message carries the backend's explanation when the list is empty, e.g.
// for unauthenticated callers.
type VideoHistoryResponse struct {
	Status  string             `json:"status"`
	Videos  []VideoHistoryItem `json:"videos"`
	Total   int                `json:"total"`
	Message string             `json:"message,omitempty"`
}

// ChatStartRequest is the POST /analysis/chat/start payload.
type ChatStartRequest struct {
	VideoID string `json:"video_id"`
}

// ChatStartResponse is the POST /analysis/chat/start result.
type ChatStartResponse struct {
	Status                  string `json:"status"`
	SessionID               string `json:"session_id"`
	VideoID                 string `json:"video_id"`
	KeyframesCount          int    `json:"keyframes_count"`
	TranscriptSegmentsCount int    `json:"transcript_segments_count"`
}

// ChatMessageRequest is the POST /analysis/chat/message payload.
type ChatMessageRequest struct {
	SessionID     string `json:"session_id"`
	Question      string `json:"question"`
	KeyframeIDs   []int  `json:"keyframe_ids,omitempty"`
	TopK          int    `json:"top_k"`
	AutoKeyframes bool   `json:"auto_keyframes"`
}

// TimeRange is one referenced transcript span in a chat answer.
type TimeRange struct {
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	Text      string  `json:"text"`
}

// ChatReferences carries the evidence attached to a chat answer.
type ChatReferences struct {
	TimeRanges  []TimeRange     `json:"time_ranges,omitempty"`
	KeyframeIDs []int           `json:"keyframe_ids,omitempty"`
	Keyframes   json.RawMessage `json:"keyframes,omitempty"`
}

// ChatMessageResponse is the POST /analysis/chat/message result.
type ChatMessageResponse struct {
	Status        string          `json:"status"`
	SessionID     string          `json:"session_id"`
	Answer        string          `json:"answer"`
	References    *ChatReferences `json:"references,omitempty"`
	HistoryLength int             `json:"history_length"`
}

// SignInRequest is the POST /auth/signin payload.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUpRequest is the POST /auth/signup payload.
type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username,omitempty"`
}

// AuthUser describes the authenticated account.
type AuthUser struct {
	ID               string `json:"id"`
	Email            string `json:"email"`
	Username         string `json:"username,omitempty"`
	SubscriptionTier string `json:"subscription_tier,omitempty"`
}

// AuthResponse is returned by the auth endpoints.
type AuthResponse struct {
	User         AuthUser `json:"user"`
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
}
