package reveal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReveal_ExactlyNPlusOnePrefixes(t *testing.T) {
	const content = "hello, video"

	var s State
	gen := s.Set(content)

	prefixes := []string{s.Visible()}
	for s.Advance(gen) {
		prefixes = append(prefixes, s.Visible())
	}

	require.Len(t, prefixes, len(content)+1)
	assert.Equal(t, "", prefixes[0])
	assert.Equal(t, content, prefixes[len(prefixes)-1])
	seen := map[string]bool{}
	for _, p := range prefixes {
		assert.False(t, seen[p], "prefix %q repeated", p)
		seen[p] = true
	}
	assert.True(t, s.Done())
}

func TestReveal_StaleGenerationNeverRenders(t *testing.T) {
	var s State
	oldGen := s.Set("first answer")
	require.True(t, s.Advance(oldGen))

	newGen := s.Set("second")
	assert.Equal(t, "", s.Visible(), "cursor resets on new content")

	// the superseded timer keeps firing but moves nothing
	assert.False(t, s.Advance(oldGen))
	assert.Equal(t, "", s.Visible())

	assert.True(t, s.Advance(newGen))
	assert.Equal(t, "s", s.Visible())
}

func TestReveal_AdvancePastEndStops(t *testing.T) {
	var s State
	gen := s.Set("ab")
	assert.True(t, s.Advance(gen))
	assert.True(t, s.Advance(gen))
	assert.False(t, s.Advance(gen))
	assert.Equal(t, "ab", s.Visible())
}

func TestReveal_SkipAndUnicode(t *testing.T) {
	var s State
	gen := s.Set("héllo 世界")

	require.True(t, s.Advance(gen))
	require.True(t, s.Advance(gen))
	assert.Equal(t, "hé", s.Visible(), "advances whole runes, not bytes")

	s.Skip()
	assert.True(t, s.Done())
	assert.Equal(t, "héllo 世界", s.Visible())
}

func TestReveal_EmptyContentIsImmediatelyDone(t *testing.T) {
	var s State
	gen := s.Set("")
	assert.True(t, s.Done())
	assert.False(t, s.Advance(gen))
}
