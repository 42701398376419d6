package chat

import "github.com/vistral/vistral/internal/viewmodel"

// MaxSelectedKeyframes caps how many keyframes can ride along with one
// outgoing question.
const MaxSelectedKeyframes = 5

// Selection is the bounded ordered set of keyframes attached to the next
// outgoing message. Deduplicated by keyframe id, insertion-ordered, cleared
// when a send consumes it. Not safe for concurrent use on its own; the
// Controller serializes access.
type Selection struct {
	frames []viewmodel.Keyframe
}

// Contains reports whether a keyframe id is already selected.
func (s *Selection) Contains(id int) bool {
	for _, f := range s.frames {
		if f.ID == id {
			return true
		}
	}
	return false
}

// Add appends a keyframe when it is neither a duplicate nor beyond the cap.
func (s *Selection) Add(frame viewmodel.Keyframe) bool {
	if s.Contains(frame.ID) || len(s.frames) >= MaxSelectedKeyframes {
		return false
	}
	s.frames = append(s.frames, frame)
	return true
}

// Remove drops a keyframe by id, reporting whether it was present.
func (s *Selection) Remove(id int) bool {
	for i, f := range s.frames {
		if f.ID == id {
			s.frames = append(s.frames[:i], s.frames[i+1:]...)
			return true
		}
	}
	return false
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.frames = nil
}

// Len returns the number of selected keyframes.
func (s *Selection) Len() int {
	return len(s.frames)
}

// Items returns a copy of the selected keyframes in insertion order.
func (s *Selection) Items() []viewmodel.Keyframe {
	out := make([]viewmodel.Keyframe, len(s.frames))
	copy(out, s.frames)
	return out
}

// IDs returns the selected keyframe ids in insertion order.
func (s *Selection) IDs() []int {
	ids := make([]int, 0, len(s.frames))
	for _, f := range s.frames {
		ids = append(ids, f.ID)
	}
	return ids
}
