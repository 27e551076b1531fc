package toolbar

import (
	"strings"

	"github.com/starford/pensieri/internal/models"
)

// BlockTypeOption is one button of the block-type bar.
type BlockTypeOption struct {
	Tag    models.Tag `json:"tag"`
	Label  string     `json:"label"`
	Active bool       `json:"active"`
}

var blockTypeLabels = map[models.Tag]string{
	models.TagParagraph: "Normal Text",
	models.TagHeading1:  "Heading 1",
	models.TagHeading2:  "Heading 2",
	models.TagQuote:     "Quote",
}

// BlockTypeOptions lists the block types with the one matching active
// highlighted. An invalid or empty active tag highlights normal text.
func BlockTypeOptions(active models.Tag) []BlockTypeOption {
	if !active.Valid() {
		active = models.TagParagraph
	}
	out := make([]BlockTypeOption, 0, len(models.Tags))
	for _, tag := range models.Tags {
		out = append(out, BlockTypeOption{
			Tag:    tag,
			Label:  blockTypeLabels[tag],
			Active: tag == active,
		})
	}
	return out
}

// SelectBlockType forwards a valid tag to set. Invalid tags are dropped.
func SelectBlockType(tag models.Tag, set func(models.Tag) bool) bool {
	if !tag.Valid() {
		return false
	}
	return set(tag)
}

// Shortcut binds a key chord to an inline action.
type Shortcut struct {
	Action Action `json:"action"`
	Label  string `json:"label"`
	Key    string `json:"key"`
}

// Shortcuts lists the inline formatting buttons of the block-type bar.
var Shortcuts = []Shortcut{
	{Action: ActionBold, Label: "Bold", Key: "b"},
	{Action: ActionItalic, Label: "Italic", Key: "i"},
	{Action: ActionUnderline, Label: "Underline", Key: "u"},
	{Action: ActionLink, Label: "Link", Key: "k"},
}

// ShortcutAction resolves a key pressed together with the primary modifier.
func ShortcutAction(key string) (Action, bool) {
	key = strings.ToLower(key)
	for _, s := range Shortcuts {
		if s.Key == key {
			return s.Action, true
		}
	}
	return "", false
}
