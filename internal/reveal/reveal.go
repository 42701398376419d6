// Package reveal implements the character-by-character display of an
// already-complete answer string. The full text is known up front; this is
// a presentation effect, not transport streaming. The timer itself lives in
// the UI loop; this package only owns the cursor and the generation guard
// that keeps stale timers from rendering.
package reveal

// State tracks the reveal cursor for one piece of content.
//
// Every Set bumps the generation; an Advance carrying an older generation
// is a no-op, so a timer scheduled against superseded content can keep
// firing without ever touching the new text. Owned by the UI loop, not
// safe for concurrent use.
type State struct {
	content []rune
	cursor  int
	gen     int
}

// Set installs new content, resets the cursor, and returns the generation
// a timer must carry to advance this content.
func (s *State) Set(content string) int {
	s.content = []rune(content)
	s.cursor = 0
	s.gen++
	return s.gen
}

// Generation returns the current content's generation.
func (s *State) Generation() int {
	return s.gen
}

// Advance moves the cursor one rune forward on behalf of the timer tick
// carrying gen. Returns false, without moving, when the tick is stale or
// the reveal already finished, i.e. no further tick should be scheduled.
func (s *State) Advance(gen int) bool {
	if gen != s.gen || s.cursor >= len(s.content) {
		return false
	}
	s.cursor++
	return true
}

// Skip jumps the cursor to the end of the current content.
func (s *State) Skip() {
	s.cursor = len(s.content)
}

// Visible returns the revealed prefix.
func (s *State) Visible() string {
	return string(s.content[:s.cursor])
}

// Done reports whether the whole content is revealed.
func (s *State) Done() bool {
	return s.cursor >= len(s.content)
}
