package richtext

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/unicode/norm"
)

var fragmentContext = &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}

// Parse reads an editable markup fragment (the HTML a content-editable
// surface produces) into a Text. Unknown elements contribute their text.
func Parse(markup string) (*Text, error) {
	if markup == "" {
		return &Text{}, nil
	}
	nodes, err := html.ParseFragment(strings.NewReader(markup), fragmentContext)
	if err != nil {
		return nil, fmt.Errorf("richtext: parse: %w", err)
	}
	var spans []Span
	for _, n := range nodes {
		walk(n, 0, "", &spans)
	}
	return FromSpans(spans), nil
}

func walk(n *html.Node, style Style, href string, out *[]Span) {
	switch n.Type {
	case html.TextNode:
		*out = append(*out, Span{Text: n.Data, Style: style, Href: href})
		return
	case html.ElementNode:
		switch n.DataAtom {
		case atom.B, atom.Strong:
			style |= Bold
		case atom.I, atom.Em:
			style |= Italic
		case atom.U:
			style |= Underline
		case atom.A:
			href = attr(n, "href")
		case atom.Br:
			*out = append(*out, Span{Text: "\n", Style: style, Href: href})
			return
		case atom.Script, atom.Style:
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, style, href, out)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// Markup renders the text back into an editable markup fragment.
func (t *Text) Markup() string {
	var sb strings.Builder
	for _, sp := range t.spans {
		s := strings.ReplaceAll(html.EscapeString(sp.Text), "\n", "<br>")
		if sp.Style.Has(Underline) {
			s = "<u>" + s + "</u>"
		}
		if sp.Style.Has(Italic) {
			s = "<i>" + s + "</i>"
		}
		if sp.Style.Has(Bold) {
			s = "<b>" + s + "</b>"
		}
		if sp.Href != "" {
			s = `<a href="` + html.EscapeString(sp.Href) + `">` + s + "</a>"
		}
		sb.WriteString(s)
	}
	return sb.String()
}

// Markdown renders the text as inline Markdown. Underline has no Markdown
// form and is kept as a <u> element.
func (t *Text) Markdown() string {
	var sb strings.Builder
	for _, sp := range t.spans {
		s := sp.Text
		if sp.Style.Has(Underline) {
			s = "<u>" + s + "</u>"
		}
		if sp.Style.Has(Italic) {
			s = "_" + s + "_"
		}
		if sp.Style.Has(Bold) {
			s = "**" + s + "**"
		}
		if sp.Href != "" {
			s = "[" + s + "](" + sp.Href + ")"
		}
		sb.WriteString(s)
	}
	return sb.String()
}

// Plain returns the NFC-normalized plain text of a markup fragment. Markup
// that fails to parse is returned normalized as-is.
func Plain(markup string) string {
	t, err := Parse(markup)
	if err != nil {
		return norm.NFC.String(markup)
	}
	return norm.NFC.String(t.String())
}

// IsBlank reports whether a markup fragment has no visible text once
// whitespace (including non-breaking spaces) is trimmed.
func IsBlank(markup string) bool {
	return strings.TrimSpace(Plain(markup)) == ""
}
