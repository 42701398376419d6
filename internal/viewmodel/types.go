package viewmodel

import (
	"golang.org/x/text/language"
)

// VideoRecord is the normalized client-side representation of one analyzed
// video. It is owned by the application shell and passed down read-only to
// the display panes; a new submission or history load replaces it wholesale.
type VideoRecord struct {
	ID         string
	Title      string
	Duration   string // display form "M:SS"
	Summary    string // markdown, rendered as-is downstream
	Keyframes  []Keyframe
	Transcript string
	Language   language.Tag // detected from the transcript, Und when unknown
}

// Keyframe is a representative still extracted at a timestamp within the
// video. Immutable once constructed; IDs are unique within a record and
// ordering follows ascending timestamp.
type Keyframe struct {
	ID          int
	Timestamp   int // seconds
	Description string
	URL         string
}

// ProcessingStatus tags a history entry with its pipeline state.
type ProcessingStatus string

const (
	StatusPending    ProcessingStatus = "pending"
	StatusProcessing ProcessingStatus = "processing"
	StatusCompleted  ProcessingStatus = "completed"
	StatusFailed     ProcessingStatus = "failed"
)

// Viewable reports whether a history entry can be opened for details.
func (s ProcessingStatus) Viewable() bool {
	return s == StatusCompleted
}

// HistoryItem is one normalized entry of the user's processing history.
type HistoryItem struct {
	ID           string
	Title        string
	Duration     string
	CreatedAt    string
	Status       ProcessingStatus
	SourceType   string
	ThumbnailURL string
}
