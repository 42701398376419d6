package viewmodel

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/vistral/vistral/internal/api"
)

func TestFormatSeconds(t *testing.T) {
	cases := []struct {
		seconds int
		want    string
	}{
		{0, "0:00"},
		{5, "0:05"},
		{59, "0:59"},
		{60, "1:00"},
		{323, "5:23"},
		{3600, "60:00"},
		{-3, "0:00"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatSeconds(tc.seconds), "seconds=%d", tc.seconds)
	}
}

func TestFormatDurationRaw(t *testing.T) {
	assert.Equal(t, "5:23", FormatDurationRaw(json.RawMessage(`323`)))
	assert.Equal(t, "5:23", FormatDurationRaw(json.RawMessage(`323.9`)))
	// string durations pass through unchanged, twice over
	once := FormatDurationRaw(json.RawMessage(`"12:45"`))
	assert.Equal(t, "12:45", once)
	assert.Equal(t, once, FormatDurationRaw(json.RawMessage(fmt.Sprintf("%q", once))))
	assert.Empty(t, FormatDurationRaw(nil))
	assert.Empty(t, FormatDurationRaw(json.RawMessage(`null`)))
	assert.Empty(t, FormatDurationRaw(json.RawMessage(`[1]`)))
}

func TestSelectSummary_TotalOverAllCombinations(t *testing.T) {
	variants := []string{"detailed", "standard", "brief"}
	for mask := 0; mask < 8; mask++ {
		fields := map[string]string{}
		for i, name := range variants {
			if mask&(1<<i) != 0 {
				fields[name] = name + " text"
			}
		}
		raw, err := json.Marshal(fields)
		require.NoError(t, err)

		got := SelectSummary(raw)
		switch {
		case fields["detailed"] != "":
			assert.Equal(t, "detailed text", got)
		case fields["standard"] != "":
			assert.Equal(t, "standard text", got)
		case fields["brief"] != "":
			assert.Equal(t, "brief text", got)
		default:
			assert.Equal(t, SummaryPlaceholder, got)
		}
	}
}

func TestSelectSummary_AbsentOrMalformed(t *testing.T) {
	assert.Equal(t, SummaryPlaceholder, SelectSummary(nil))
	assert.Equal(t, SummaryPlaceholder, SelectSummary(json.RawMessage(`"oops"`)))
}

func TestDecodeTranscript_String(t *testing.T) {
	got := DecodeTranscript(json.RawMessage(`"hello world"`))
	assert.Equal(t, "hello world", got)
}

func TestDecodeTranscript_Segments(t *testing.T) {
	raw := json.RawMessage(`{"segments": [{"text": "first"}, {"text": "second"}, {"text": "third"}]}`)
	assert.Equal(t, "first second third", DecodeTranscript(raw))
}

func TestDecodeTranscript_FullText(t *testing.T) {
	raw := json.RawMessage(`{"full_text": "the whole thing"}`)
	assert.Equal(t, "the whole thing", DecodeTranscript(raw))
}

func TestDecodeTranscript_UnknownShapes(t *testing.T) {
	assert.Empty(t, DecodeTranscript(nil))
	assert.Empty(t, DecodeTranscript(json.RawMessage(`null`)))
	assert.Empty(t, DecodeTranscript(json.RawMessage(`42`)))
	assert.Empty(t, DecodeTranscript(json.RawMessage(`["a", "b"]`)))
	assert.Empty(t, DecodeTranscript(json.RawMessage(`{"other": true}`)))
}

func TestNormalizeKeyframes_IDFallbackAndUniqueness(t *testing.T) {
	id7 := 7
	raws := []rawKeyframe{
		{FrameID: &id7, Timestamp: 15, SceneDescription: "intro"},
		{Timestamp: 83, Description: "comparison"},
		{Timestamp: 165},
	}

	frames := normalizeKeyframes(raws)
	require.Len(t, frames, 3)

	assert.Equal(t, 7, frames[0].ID)
	assert.Equal(t, 2, frames[1].ID)
	assert.Equal(t, 3, frames[2].ID)

	seen := map[int]bool{}
	for _, f := range frames {
		assert.False(t, seen[f.ID], "duplicate id %d", f.ID)
		seen[f.ID] = true
	}

	assert.Equal(t, "intro", frames[0].Description)
	assert.Equal(t, "comparison", frames[1].Description)
	assert.Equal(t, "Keyframe 3", frames[2].Description)
}

func TestNormalizeRecord_FullPayload(t *testing.T) {
	resp := &api.ProcessVideoResponse{
		Status:  "completed",
		VideoID: "vid-42",
		Metadata: json.RawMessage(`{
			"video": {"title": "Learning to Program", "duration": 323},
			"transcript": {"segments": [{"text": "welcome everyone"}, {"text": "to the course"}]},
			"keyframes": [
				{"frame_id": 1, "timestamp": 15, "scene_description": "intro", "oss_image_url": "http://img/1.jpg"},
				{"timestamp": 83, "description": "chart"}
			]
		}`),
		VideoSummary: json.RawMessage(`{"standard": "a standard summary"}`),
	}

	record := NormalizeRecord(resp)
	assert.Equal(t, "vid-42", record.ID)
	assert.Equal(t, "Learning to Program", record.Title)
	assert.Equal(t, "5:23", record.Duration)
	assert.Equal(t, "a standard summary", record.Summary)
	assert.Equal(t, "welcome everyone to the course", record.Transcript)
	require.Len(t, record.Keyframes, 2)
	assert.Equal(t, "http://img/1.jpg", record.Keyframes[0].URL)
	assert.Equal(t, 2, record.Keyframes[1].ID)
}

func TestNormalizeRecord_MissingOptionalFieldsNeverFail(t *testing.T) {
	record := NormalizeRecord(&api.ProcessVideoResponse{VideoID: "bare"})
	assert.Equal(t, "bare", record.ID)
	assert.Empty(t, record.Title)
	assert.Empty(t, record.Duration)
	assert.Empty(t, record.Transcript)
	assert.Empty(t, record.Keyframes)
	assert.Equal(t, SummaryPlaceholder, record.Summary)
	assert.Equal(t, language.Und, record.Language)
}

func TestNormalizeRecord_TopLevelDurationString(t *testing.T) {
	record := NormalizeRecord(&api.ProcessVideoResponse{
		VideoID:  "v",
		Metadata: json.RawMessage(`{"title": "T", "duration": "7:08", "transcript": "short"}`),
	})
	assert.Equal(t, "7:08", record.Duration)
	assert.Equal(t, "T", record.Title)
}

func TestNormalizeHistory(t *testing.T) {
	items := NormalizeHistory([]api.VideoHistoryItem{
		{ID: "a", Title: "First", Duration: json.RawMessage(`125`), ProcessingStatus: "completed", SourceType: "youtube"},
		{ID: "b", Title: "Second", ProcessingStatus: "processing", SourceType: "upload"},
	})
	require.Len(t, items, 2)
	assert.Equal(t, "2:05", items[0].Duration)
	assert.True(t, items[0].Status.Viewable())
	assert.False(t, items[1].Status.Viewable())
}

func TestDetectLanguage(t *testing.T) {
	assert.Equal(t, language.Und, DetectLanguage(""))
	assert.Equal(t, language.Und, DetectLanguage("hi"))

	tag := DetectLanguage("This is a reasonably long English sentence that the detector should recognize without much trouble.")
	assert.Equal(t, language.English, tag)
}
