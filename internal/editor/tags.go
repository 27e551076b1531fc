package editor

import (
	"slices"
	"strings"
)

// Keys that commit or edit the tag input.
const (
	TagKeyEnter     = "Enter"
	TagKeyComma     = ","
	TagKeyBackspace = "Backspace"
)

// TagKeyResult tells the tag input what to show after a key press.
type TagKeyResult struct {
	Input          string   `json:"input"`
	PreventDefault bool     `json:"prevent_default"`
	Tags           []string `json:"tags"`
}

// AddTag appends a trimmed tag. Blank and duplicate tags are rejected.
func (s *Session) AddTag(raw string) bool {
	tag := strings.TrimSpace(raw)
	var ok bool
	s.track(func() { ok = s.addTagLocked(tag) })
	return ok
}

func (s *Session) addTagLocked(tag string) bool {
	if tag == "" || slices.Contains(s.tags, tag) {
		return false
	}
	s.tags = append(s.tags, tag)
	s.meta++
	return true
}

// RemoveTag drops tag if present.
func (s *Session) RemoveTag(tag string) bool {
	var ok bool
	s.track(func() {
		idx := slices.Index(s.tags, tag)
		if idx < 0 {
			return
		}
		s.tags = slices.Delete(s.tags, idx, idx+1)
		s.meta++
		ok = true
	})
	return ok
}

// TagKey handles a key press in the tag input holding input. Enter and comma
// commit the trimmed input as a tag and clear it; Backspace on an empty input
// removes the last tag.
func (s *Session) TagKey(key, input string) TagKeyResult {
	res := TagKeyResult{Input: input}
	s.track(func() {
		switch key {
		case TagKeyEnter, TagKeyComma:
			res.PreventDefault = true
			if s.addTagLocked(strings.TrimSpace(input)) {
				res.Input = ""
			}
		case TagKeyBackspace:
			if input == "" && len(s.tags) > 0 {
				s.tags = s.tags[:len(s.tags)-1]
				s.meta++
			}
		}
		res.Tags = slices.Clone(s.tags)
	})
	return res
}
