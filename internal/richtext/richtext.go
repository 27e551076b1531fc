// Package richtext is the span-based rich text model behind block content.
//
// A Text is an ordered list of spans; every span carries a style bit set and
// an optional link target. Offsets are rune offsets into the plain text, and
// ranges are half-open: [start, end).
package richtext

import (
	"strings"
	"unicode/utf8"
)

// Style is a bit set of inline formatting flags.
type Style uint8

const (
	Bold Style = 1 << iota
	Italic
	Underline
)

// Has reports whether every flag in f is set on s.
func (s Style) Has(f Style) bool {
	return s&f == f
}

// Span is a run of text sharing one style and link target.
type Span struct {
	Text  string
	Style Style
	Href  string
}

func (s Span) sameFormat(o Span) bool {
	return s.Style == o.Style && s.Href == o.Href
}

// Text is a rich text value. The zero value is an empty text.
type Text struct {
	spans []Span
}

// New returns an unstyled text holding plain.
func New(plain string) *Text {
	t := &Text{}
	if plain != "" {
		t.spans = []Span{{Text: plain}}
	}
	return t
}

// FromSpans builds a text from spans, merging adjacent runs with equal formatting.
func FromSpans(spans []Span) *Text {
	t := &Text{spans: append([]Span(nil), spans...)}
	t.normalize()
	return t
}

// Spans returns a copy of the spans.
func (t *Text) Spans() []Span {
	return append([]Span(nil), t.spans...)
}

// String returns the plain text.
func (t *Text) String() string {
	var sb strings.Builder
	for _, sp := range t.spans {
		sb.WriteString(sp.Text)
	}
	return sb.String()
}

// Len returns the length of the plain text in runes.
func (t *Text) Len() int {
	n := 0
	for _, sp := range t.spans {
		n += utf8.RuneCountInString(sp.Text)
	}
	return n
}

// Slice returns the plain text of [start, end).
func (t *Text) Slice(start, end int) string {
	start, end = t.clamp(start, end)
	r := []rune(t.String())
	return string(r[start:end])
}

// HasStyle reports whether every rune in [start, end) carries f.
// An empty range never has a style.
func (t *Text) HasStyle(start, end int, f Style) bool {
	start, end = t.clamp(start, end)
	if start == end {
		return false
	}
	pos := 0
	for _, sp := range t.spans {
		n := utf8.RuneCountInString(sp.Text)
		if pos+n > start && pos < end && !sp.Style.Has(f) {
			return false
		}
		pos += n
	}
	return true
}

// Toggle flips f over [start, end): it is removed when the whole range
// already carries it and added everywhere otherwise.
func (t *Text) Toggle(start, end int, f Style) {
	i, j := t.bounds(start, end)
	if i == j {
		return
	}
	all := true
	for k := i; k < j; k++ {
		if !t.spans[k].Style.Has(f) {
			all = false
			break
		}
	}
	for k := i; k < j; k++ {
		if all {
			t.spans[k].Style &^= f
		} else {
			t.spans[k].Style |= f
		}
	}
	t.normalize()
}

// SetLink points [start, end) at href. An empty href removes the link.
func (t *Text) SetLink(start, end int, href string) {
	i, j := t.bounds(start, end)
	for k := i; k < j; k++ {
		t.spans[k].Href = href
	}
	t.normalize()
}

// Replace substitutes [start, end) with plain text. The inserted run takes
// the formatting of the first replaced span, or of the span before start
// when the range is empty.
func (t *Text) Replace(start, end int, text string) {
	i, j := t.bounds(start, end)

	var format Span
	switch {
	case i < j:
		format = t.spans[i]
	case i > 0:
		format = t.spans[i-1]
	}

	next := make([]Span, 0, len(t.spans)+1)
	next = append(next, t.spans[:i]...)
	next = append(next, Span{Text: text, Style: format.Style, Href: format.Href})
	next = append(next, t.spans[j:]...)
	t.spans = next
	t.normalize()
}

func (t *Text) clamp(start, end int) (int, int) {
	if start > end {
		start, end = end, start
	}
	n := t.Len()
	start = min(max(start, 0), n)
	end = min(max(end, 0), n)
	return start, end
}

// bounds splits spans at start and end and returns the span index range
// covering [start, end).
func (t *Text) bounds(start, end int) (int, int) {
	start, end = t.clamp(start, end)
	i := t.split(start)
	j := t.split(end)
	return i, j
}

// split guarantees a span boundary at rune offset at and returns the index
// of the first span starting there.
func (t *Text) split(at int) int {
	pos := 0
	for i, sp := range t.spans {
		if at == pos {
			return i
		}
		n := utf8.RuneCountInString(sp.Text)
		if at < pos+n {
			r := []rune(sp.Text)
			left := Span{Text: string(r[:at-pos]), Style: sp.Style, Href: sp.Href}
			right := Span{Text: string(r[at-pos:]), Style: sp.Style, Href: sp.Href}
			t.spans = append(t.spans[:i], append([]Span{left, right}, t.spans[i+1:]...)...)
			return i + 1
		}
		pos += n
	}
	return len(t.spans)
}

func (t *Text) normalize() {
	out := t.spans[:0]
	for _, sp := range t.spans {
		if sp.Text == "" {
			continue
		}
		if n := len(out); n > 0 && out[n-1].sameFormat(sp) {
			out[n-1].Text += sp.Text
			continue
		}
		out = append(out, sp)
	}
	t.spans = out
}
