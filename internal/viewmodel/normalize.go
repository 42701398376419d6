package viewmodel

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vistral/vistral/internal/api"
	"github.com/vistral/vistral/pkg/log"
)

// SummaryPlaceholder is shown when the backend produced no summary variant.
const SummaryPlaceholder = "Summary not available for this video."

// NormalizeRecord maps a raw /video/process or /video/details payload onto
// the fixed VideoRecord shape. Missing optional fields default and never
// fail; only the surrounding network call can error.
func NormalizeRecord(resp *api.ProcessVideoResponse) *VideoRecord {
	record := &VideoRecord{
		Summary: SelectSummary(resp.VideoSummary),
	}
	record.ID = resp.VideoID

	meta := decodeMetadata(resp.Metadata)
	record.Title = meta.title()
	record.Duration = FormatDurationRaw(meta.durationRaw())
	record.Transcript = DecodeTranscript(meta.Transcript)
	record.Keyframes = normalizeKeyframes(meta.Keyframes)
	record.Language = DetectLanguage(record.Transcript)
	return record
}

// NormalizeHistory maps raw history entries onto HistoryItems, preserving
// backend order.
func NormalizeHistory(items []api.VideoHistoryItem) []HistoryItem {
	out := make([]HistoryItem, 0, len(items))
	for _, item := range items {
		out = append(out, HistoryItem{
			ID:           item.ID,
			Title:        item.Title,
			Duration:     FormatDurationRaw(item.Duration),
			CreatedAt:    item.CreatedAt,
			Status:       ProcessingStatus(item.ProcessingStatus),
			SourceType:   item.SourceType,
			ThumbnailURL: item.ThumbnailURL,
		})
	}
	return out
}

type rawVideoInfo struct {
	Title    string          `json:"title"`
	Duration json.RawMessage `json:"duration"`
}

type rawMetadata struct {
	Title      string          `json:"title"`
	Duration   json.RawMessage `json:"duration"`
	Video      *rawVideoInfo   `json:"video"`
	Transcript json.RawMessage `json:"transcript"`
	Keyframes  []rawKeyframe   `json:"keyframes"`
}

func (m rawMetadata) title() string {
	if m.Title != "" {
		return m.Title
	}
	if m.Video != nil {
		return m.Video.Title
	}
	return ""
}

// durationRaw prefers the nested video.duration over the top-level field.
func (m rawMetadata) durationRaw() json.RawMessage {
	if m.Video != nil && len(m.Video.Duration) > 0 {
		return m.Video.Duration
	}
	return m.Duration
}

type rawKeyframe struct {
	FrameID          *int    `json:"frame_id"`
	Timestamp        float64 `json:"timestamp"`
	SceneDescription string  `json:"scene_description"`
	Description      string  `json:"description"`
	OSSImageURL      string  `json:"oss_image_url"`
}

type rawSummary struct {
	Detailed string `json:"detailed"`
	Standard string `json:"standard"`
	Brief    string `json:"brief"`
}

func decodeMetadata(raw json.RawMessage) rawMetadata {
	var meta rawMetadata
	if len(raw) == 0 {
		return meta
	}
	if err := json.Unmarshal(raw, &meta); err != nil {
		log.Debug("metadata shape not recognized", "err", err)
	}
	return meta
}

// SelectSummary picks exactly one summary variant in priority order
// detailed > standard > brief, defaulting to the placeholder only when all
// three are absent. Total over every present/absent combination.
func SelectSummary(raw json.RawMessage) string {
	var summary rawSummary
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &summary); err != nil {
			log.Debug("video_summary shape not recognized", "err", err)
		}
	}
	switch {
	case summary.Detailed != "":
		return summary.Detailed
	case summary.Standard != "":
		return summary.Standard
	case summary.Brief != "":
		return summary.Brief
	default:
		return SummaryPlaceholder
	}
}

// DecodeTranscript handles the three transcript encodings the backend is
// known to emit, each matched explicitly by its leading token:
//   - a plain string, used directly
//   - {"segments": [{"text": ...}, ...]}, segment texts joined by a space
//     in array order
//   - {"full_text": ...}
//
// Anything else is the unknown-shape branch: empty string, logged at debug.
func DecodeTranscript(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	case '{':
		var obj struct {
			Segments []struct {
				Text string `json:"text"`
			} `json:"segments"`
			FullText string `json:"full_text"`
		}
		if err := json.Unmarshal(trimmed, &obj); err == nil {
			if obj.Segments != nil {
				parts := make([]string, 0, len(obj.Segments))
				for _, seg := range obj.Segments {
					parts = append(parts, seg.Text)
				}
				return strings.Join(parts, " ")
			}
			if obj.FullText != "" {
				return obj.FullText
			}
		}
	}

	log.Debug("transcript shape not recognized", "prefix", previewShape(trimmed))
	return ""
}

// normalizeKeyframes assigns stable ids and defaults while preserving array
// order: id falls back to the 1-based index when frame_id is absent, the
// description falls back scene_description, description, "Keyframe {i+1}".
func normalizeKeyframes(raws []rawKeyframe) []Keyframe {
	frames := make([]Keyframe, 0, len(raws))
	for i, raw := range raws {
		frame := Keyframe{
			ID:        i + 1,
			Timestamp: int(raw.Timestamp),
			URL:       raw.OSSImageURL,
		}
		if raw.FrameID != nil {
			frame.ID = *raw.FrameID
		}
		switch {
		case raw.SceneDescription != "":
			frame.Description = raw.SceneDescription
		case raw.Description != "":
			frame.Description = raw.Description
		default:
			frame.Description = fmt.Sprintf("Keyframe %d", i+1)
		}
		frames = append(frames, frame)
	}
	return frames
}

// FormatDurationRaw renders a polymorphic duration field: numeric seconds
// become "M:SS", strings pass through unchanged, anything else is empty.
func FormatDurationRaw(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}

	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
		return ""
	}

	var seconds float64
	if err := json.Unmarshal(trimmed, &seconds); err == nil {
		return FormatSeconds(int(seconds))
	}
	return ""
}

// FormatSeconds renders a non-negative second count as "M:SS".
func FormatSeconds(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

func previewShape(raw []byte) string {
	const max = 24
	if len(raw) > max {
		return string(raw[:max]) + "..."
	}
	return string(raw)
}
