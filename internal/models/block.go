// Package models defines the domain types for Pensieri.
package models

import "strings"

// Tag is the semantic type of a block. The set is closed.
type Tag string

const (
	TagParagraph Tag = "p"
	TagHeading1  Tag = "h1"
	TagHeading2  Tag = "h2"
	TagQuote     Tag = "blockquote"
)

// Tags lists every block tag in toolbar order.
var Tags = []Tag{TagParagraph, TagHeading1, TagHeading2, TagQuote}

// Valid reports whether t is one of the known block tags.
func (t Tag) Valid() bool {
	switch t {
	case TagParagraph, TagHeading1, TagHeading2, TagQuote:
		return true
	}
	return false
}

// ParseTag accepts both the markup element names ("p", "h1", "h2",
// "blockquote") and the descriptive names ("paragraph", "heading-1",
// "heading-2", "quote").
func ParseTag(s string) (Tag, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "p", "paragraph":
		return TagParagraph, true
	case "h1", "heading-1":
		return TagHeading1, true
	case "h2", "heading-2":
		return TagHeading2, true
	case "blockquote", "quote":
		return TagQuote, true
	}
	return "", false
}

// Block is one paragraph-like unit of editable rich text.
type Block struct {
	ID      string `json:"id"`
	Content string `json:"content"`
	Tag     Tag    `json:"tag"`
}

// Rect is an on-screen bounding rectangle in CSS pixels.
type Rect struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Selection is a snapshot of the user's text selection inside one block.
// Start and End are rune offsets into the block's plain text, [Start, End).
type Selection struct {
	BlockID string `json:"block_id"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
	Text    string `json:"text"`
	Rect    Rect   `json:"rect"`
}

// Collapsed reports whether the selection has no extent.
func (s Selection) Collapsed() bool {
	return s.Start == s.End
}

// Normalized returns the selection with Start <= End.
func (s Selection) Normalized() Selection {
	if s.Start > s.End {
		s.Start, s.End = s.End, s.Start
	}
	return s
}
