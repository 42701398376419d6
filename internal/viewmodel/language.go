package viewmodel

import (
	"strings"

	"github.com/abadojack/whatlanggo"
	"golang.org/x/text/language"
)

// Transcripts shorter than this give unreliable detection results.
const minDetectionLength = 20

// DetectLanguage guesses the transcript language for display in the summary
// header. Returns language.Und for empty or inconclusive input.
func DetectLanguage(text string) language.Tag {
	text = strings.TrimSpace(text)
	if len(text) < minDetectionLength {
		return language.Und
	}

	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return language.Und
	}

	code := info.Lang.Iso6391()
	if code == "" {
		return language.Und
	}
	return language.All.Make(code)
}
