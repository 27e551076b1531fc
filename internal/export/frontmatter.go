// Package export converts editor documents to and from Markdown with a YAML
// frontmatter header carrying the title, topic, tags and cover.
package export

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const delim = "---"

// Frontmatter is the document metadata header.
type Frontmatter struct {
	Title string   `yaml:"title,omitempty"`
	Topic string   `yaml:"topic,omitempty"`
	Tags  []string `yaml:"tags,omitempty"`
	Cover string   `yaml:"cover,omitempty"`
}

// splitFrontmatter separates the YAML header between leading --- lines from
// the Markdown body. Missing or unparsable headers leave the whole input as
// body.
func splitFrontmatter(data []byte) (Frontmatter, string) {
	trimmed := bytes.TrimLeft(data, "\n\r")
	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return Frontmatter{}, string(data)
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return Frontmatter{}, string(data)
	}

	var fm Frontmatter
	if err := yaml.Unmarshal(rest[:idx], &fm); err != nil {
		return Frontmatter{}, string(data)
	}
	body := strings.TrimLeft(string(rest[idx+1+len(delim):]), "\n\r")
	return fm, body
}

func writeFrontmatter(buf *bytes.Buffer, fm Frontmatter) error {
	if fm.Title == "" && fm.Topic == "" && len(fm.Tags) == 0 && fm.Cover == "" {
		return nil
	}
	out, err := yaml.Marshal(fm)
	if err != nil {
		return fmt.Errorf("export: encode frontmatter: %w", err)
	}
	buf.WriteString(delim + "\n")
	buf.Write(out)
	buf.WriteString(delim + "\n\n")
	return nil
}
