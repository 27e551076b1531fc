package blockdoc

import (
	"github.com/starford/pensieri/internal/models"
	"github.com/starford/pensieri/internal/richtext"
)

// Key names the keys the block model reacts to.
type Key string

const (
	KeyEnter     Key = "Enter"
	KeyBackspace Key = "Backspace"
)

// KeyEvent is a key press inside a block.
type KeyEvent struct {
	Key   Key  `json:"key"`
	Shift bool `json:"shift"`
}

// KeyResult reports what a key press did. PreventDefault tells the editing
// surface to suppress its own handling (newline insertion, character erase).
type KeyResult struct {
	PreventDefault bool   `json:"prevent_default"`
	Inserted       string `json:"inserted,omitempty"`
	Removed        string `json:"removed,omitempty"`
}

// HandleKey applies the triggering policy for a key press in block id.
// live is the block's content as currently shown by the editing surface; it
// is stored first and the decision is made against it rather than against
// the last synced content.
//
//   - Enter without Shift splits: a paragraph is inserted after id.
//   - Backspace on a block whose trimmed text is empty removes it.
//
// Unknown ids are ignored.
func (d *Document) HandleKey(id string, ev KeyEvent, live string) KeyResult {
	if _, ok := d.blocks[id]; !ok {
		return KeyResult{}
	}
	d.UpdateContent(id, live)

	switch ev.Key {
	case KeyEnter:
		if ev.Shift {
			return KeyResult{}
		}
		newID, _ := d.InsertAfter(id, models.TagParagraph)
		return KeyResult{PreventDefault: true, Inserted: newID}

	case KeyBackspace:
		if !richtext.IsBlank(live) {
			return KeyResult{}
		}
		res := KeyResult{PreventDefault: true}
		if d.DeleteAndMerge(id) {
			res.Removed = id
		}
		return res
	}
	return KeyResult{}
}
