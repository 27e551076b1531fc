// Package blockdoc implements the block document model: an ordered sequence
// of editable blocks with structural edit operations and focus management.
//
// Blocks live in an arena keyed by id; order is an index list of ids.
// Structural edits touch only the index list, so block values are never
// copied or re-keyed. A Document is not safe for concurrent use; callers
// serialize access (see editor.Session).
package blockdoc

import (
	"slices"

	"github.com/google/uuid"

	"github.com/starford/pensieri/internal/models"
	"github.com/starford/pensieri/internal/richtext"
)

// Placeholder is shown in the first block of an otherwise empty document.
const Placeholder = "Tell your story..."

// CaretPlacement says where the text cursor lands when a block takes focus.
type CaretPlacement string

const (
	CaretStart CaretPlacement = "start"
	CaretEnd   CaretPlacement = "end"
)

// FocusRequest asks the editing surface to move input focus to a block.
// Offset is the caret position in runes of the block's plain text.
type FocusRequest struct {
	BlockID string         `json:"block_id"`
	Caret   CaretPlacement `json:"caret"`
	Offset  int            `json:"offset"`
}

// Option configures a Document.
type Option func(*Document)

// WithIDGenerator overrides the block id generator.
func WithIDGenerator(fn func() string) Option {
	return func(d *Document) {
		d.newID = fn
	}
}

// Document is the ordered block sequence plus the active-block pointer.
type Document struct {
	blocks  map[string]*models.Block
	order   []string
	active  string
	version uint64
	pending []FocusRequest
	newID   func() string
}

// New returns a document holding one empty paragraph.
func New(opts ...Option) *Document {
	d := newDocument(opts)
	d.append(models.Block{ID: d.newID(), Tag: models.TagParagraph})
	return d
}

// FromBlocks returns a document holding copies of blocks in order. Blocks
// with an empty or duplicate id get a fresh one and invalid tags become
// paragraphs. An empty input yields the same single paragraph as New.
func FromBlocks(blocks []models.Block, opts ...Option) *Document {
	d := newDocument(opts)
	for _, b := range blocks {
		if _, dup := d.blocks[b.ID]; b.ID == "" || dup {
			b.ID = d.newID()
		}
		if !b.Tag.Valid() {
			b.Tag = models.TagParagraph
		}
		d.append(b)
	}
	if len(d.order) == 0 {
		d.append(models.Block{ID: d.newID(), Tag: models.TagParagraph})
	}
	return d
}

func newDocument(opts []Option) *Document {
	d := &Document{
		blocks: make(map[string]*models.Block),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Document) append(b models.Block) {
	blk := b
	d.blocks[blk.ID] = &blk
	d.order = append(d.order, blk.ID)
}

// Len returns the number of blocks.
func (d *Document) Len() int { return len(d.order) }

// Version increases on every observable change.
func (d *Document) Version() uint64 { return d.version }

// Blocks returns copies of the blocks in document order.
func (d *Document) Blocks() []models.Block {
	out := make([]models.Block, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, *d.blocks[id])
	}
	return out
}

// Block returns a copy of the block with the given id.
func (d *Document) Block(id string) (models.Block, bool) {
	b, ok := d.blocks[id]
	if !ok {
		return models.Block{}, false
	}
	return *b, true
}

// Index returns the position of id in the sequence, or -1.
func (d *Document) Index(id string) int {
	if _, ok := d.blocks[id]; !ok {
		return -1
	}
	return slices.Index(d.order, id)
}

// InsertAfter creates an empty block with the given tag right after id and
// returns its id. Unknown ids are ignored and yield ok=false. Focus on the
// new block is queued, not applied; see FlushFocus.
func (d *Document) InsertAfter(id string, tag models.Tag) (string, bool) {
	idx := d.Index(id)
	if idx < 0 {
		return "", false
	}
	if !tag.Valid() {
		tag = models.TagParagraph
	}
	blk := &models.Block{ID: d.newID(), Tag: tag}
	d.blocks[blk.ID] = blk
	d.order = slices.Insert(d.order, idx+1, blk.ID)
	d.version++
	d.pending = append(d.pending, FocusRequest{BlockID: blk.ID, Caret: CaretStart})
	return blk.ID, true
}

// DeleteAndMerge removes id and queues focus on the preceding block with the
// caret at the end of its content. The removed block's text is not carried
// over. The first block is never removed, so the sequence never drops below
// one block.
func (d *Document) DeleteAndMerge(id string) bool {
	idx := d.Index(id)
	if idx <= 0 {
		return false
	}
	prev := d.order[idx-1]
	d.order = slices.Delete(d.order, idx, idx+1)
	delete(d.blocks, id)
	if d.active == id {
		d.active = ""
	}
	d.dropPending(id)
	d.version++
	d.pending = append(d.pending, FocusRequest{
		BlockID: prev,
		Caret:   CaretEnd,
		Offset:  len([]rune(richtext.Plain(d.blocks[prev].Content))),
	})
	return true
}

// UpdateContent replaces the content of id. Unknown ids are ignored.
func (d *Document) UpdateContent(id, content string) bool {
	b, ok := d.blocks[id]
	if !ok {
		return false
	}
	if b.Content == content {
		return true
	}
	b.Content = content
	d.version++
	return true
}

// SetTag replaces the tag of id. Unknown ids and invalid tags are ignored.
func (d *Document) SetTag(id string, tag models.Tag) bool {
	b, ok := d.blocks[id]
	if !ok || !tag.Valid() {
		return false
	}
	if b.Tag == tag {
		return true
	}
	b.Tag = tag
	d.version++
	return true
}

// Focus marks id as the active block.
func (d *Document) Focus(id string) bool {
	if _, ok := d.blocks[id]; !ok {
		return false
	}
	if d.active != id {
		d.active = id
		d.version++
	}
	return true
}

// Active returns the active block id, or "" when none is focused.
func (d *Document) Active() string { return d.active }

// ActiveTag returns the tag of the active block, paragraph when none is active.
func (d *Document) ActiveTag() models.Tag {
	if b, ok := d.blocks[d.active]; ok {
		return b.Tag
	}
	return models.TagParagraph
}

// Placeholder returns the prompt rendered inside id, if any.
func (d *Document) Placeholder(id string) string {
	if len(d.order) == 1 && d.order[0] == id {
		return Placeholder
	}
	return ""
}

// pendingFocus returns the queued focus requests without applying them.
func (d *Document) pendingFocus() []FocusRequest {
	return slices.Clone(d.pending)
}

// FlushFocus applies queued focus requests once the structure they refer to
// has been rendered. Requests for blocks removed in the meantime are
// dropped. It returns the requests that were applied, in order; the last one
// decides the active block.
func (d *Document) FlushFocus() []FocusRequest {
	var applied []FocusRequest
	for _, req := range d.pending {
		if _, ok := d.blocks[req.BlockID]; !ok {
			continue
		}
		d.Focus(req.BlockID)
		applied = append(applied, req)
	}
	d.pending = nil
	return applied
}

func (d *Document) dropPending(id string) {
	d.pending = slices.DeleteFunc(d.pending, func(r FocusRequest) bool {
		return r.BlockID == id
	})
}
