package export

import (
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/starford/pensieri/internal/models"
	"github.com/starford/pensieri/internal/richtext"
)

var (
	linkRe      = regexp.MustCompile(`\[([^\]]+)\]\(([^)\s]+)\)`)
	boldRe      = regexp.MustCompile(`\*\*(.+?)\*\*`)
	italicRe    = regexp.MustCompile(`(^|\W)_([^_]+)_(\W|$)`)
	underlineRe = regexp.MustCompile(`&lt;u&gt;(.*?)&lt;/u&gt;`)
)

// Document is the exportable view of an editor document.
type Document struct {
	Frontmatter
	Blocks []models.Block
}

// Render writes doc as Markdown. Blank blocks are skipped.
func Render(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeFrontmatter(&buf, doc.Frontmatter); err != nil {
		return nil, err
	}
	first := true
	for _, b := range doc.Blocks {
		if richtext.IsBlank(b.Content) {
			continue
		}
		txt, err := richtext.Parse(b.Content)
		if err != nil {
			return nil, fmt.Errorf("export: block %s: %w", b.ID, err)
		}
		if !first {
			buf.WriteString("\n")
		}
		first = false
		buf.WriteString(renderBlock(b.Tag, txt.Markdown()))
		buf.WriteString("\n")
	}
	return buf.Bytes(), nil
}

func renderBlock(tag models.Tag, md string) string {
	switch tag {
	case models.TagHeading1:
		return "# " + strings.ReplaceAll(md, "\n", " ")
	case models.TagHeading2:
		return "## " + strings.ReplaceAll(md, "\n", " ")
	case models.TagQuote:
		return "> " + strings.ReplaceAll(md, "\n", "\n> ")
	}
	return md
}

// Parse reads Markdown produced by Render (or written by hand) back into a
// document. Paragraphs are separated by blank lines; "# ", "## " and "> "
// prefixes select the block tag. When the header has no title the first
// level-one heading supplies it.
func Parse(data []byte) (*Document, error) {
	fm, body := splitFrontmatter(data)
	doc := &Document{Frontmatter: fm}

	for _, para := range splitParagraphs(body) {
		tag, lines := classify(para)
		content, err := inlineMarkup(strings.Join(lines, "\n"))
		if err != nil {
			return nil, err
		}
		doc.Blocks = append(doc.Blocks, models.Block{Tag: tag, Content: content})
		if doc.Title == "" && tag == models.TagHeading1 {
			doc.Title = richtext.Plain(content)
		}
	}
	return doc, nil
}

func splitParagraphs(body string) [][]string {
	var out [][]string
	var cur []string
	for _, line := range strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(line) == "" {
			if len(cur) > 0 {
				out = append(out, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, line)
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

func classify(lines []string) (models.Tag, []string) {
	head := lines[0]
	switch {
	case strings.HasPrefix(head, "## "):
		return models.TagHeading2, []string{strings.TrimSpace(strings.Join(append([]string{head[3:]}, lines[1:]...), " "))}
	case strings.HasPrefix(head, "# "):
		return models.TagHeading1, []string{strings.TrimSpace(strings.Join(append([]string{head[2:]}, lines[1:]...), " "))}
	case strings.HasPrefix(head, ">"):
		out := make([]string, len(lines))
		for i, l := range lines {
			l = strings.TrimPrefix(l, ">")
			out[i] = strings.TrimPrefix(l, " ")
		}
		return models.TagQuote, out
	}
	return models.TagParagraph, lines
}

// inlineMarkup converts inline Markdown into canonical editable markup.
func inlineMarkup(md string) (string, error) {
	s := html.EscapeString(md)
	s = underlineRe.ReplaceAllString(s, "<u>$1</u>")
	s = linkRe.ReplaceAllString(s, `<a href="$2">$1</a>`)
	s = boldRe.ReplaceAllString(s, "<b>$1</b>")
	s = italicRe.ReplaceAllString(s, "$1<i>$2</i>$3")
	s = strings.ReplaceAll(s, "\n", "<br>")

	txt, err := richtext.Parse(s)
	if err != nil {
		return "", fmt.Errorf("export: inline markup: %w", err)
	}
	return txt.Markup(), nil
}
