// Package editor implements the page controller: one editing session per
// open document, wiring title, cover, topic and tags to the block model, the
// toolbars and the text service.
package editor

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/starford/pensieri/internal/apperr"
	"github.com/starford/pensieri/internal/blockdoc"
	"github.com/starford/pensieri/internal/export"
	"github.com/starford/pensieri/internal/models"
	"github.com/starford/pensieri/internal/richtext"
	"github.com/starford/pensieri/internal/sse"
	"github.com/starford/pensieri/internal/textservice"
	"github.com/starford/pensieri/internal/toolbar"
	"github.com/starford/pensieri/internal/topics"
)

// SaveStatus is the autosave indicator.
type SaveStatus string

const (
	StatusSaved  SaveStatus = "saved"
	StatusSaving SaveStatus = "saving"
)

// savingHold is how long the indicator shows "saving" before "saved".
const savingHold = time.Second

// Notifier receives session events.
type Notifier interface {
	Publish(sse.Event)
	PublishChange(session string, version uint64)
}

type nopNotifier struct{}

func (nopNotifier) Publish(sse.Event)            {}
func (nopNotifier) PublishChange(string, uint64) {}

// BlockView is a block as rendered by the editing surface.
type BlockView struct {
	models.Block
	Placeholder string `json:"placeholder,omitempty"`
}

// View is a snapshot of a session for rendering.
type View struct {
	ID               string                    `json:"id"`
	Version          uint64                    `json:"version"`
	Title            string                    `json:"title"`
	Topic            string                    `json:"topic"`
	Tags             []string                  `json:"tags"`
	Cover            string                    `json:"cover,omitempty"`
	Blocks           []BlockView               `json:"blocks"`
	Active           string                    `json:"active,omitempty"`
	BlockTypes       []toolbar.BlockTypeOption `json:"block_types"`
	Shortcuts        []toolbar.Shortcut        `json:"shortcuts"`
	Bubble           toolbar.BubbleState       `json:"bubble"`
	Loading          bool                      `json:"loading"`
	Error            string                    `json:"error,omitempty"`
	TitleSuggestions []string                  `json:"title_suggestions,omitempty"`
	SaveStatus       SaveStatus                `json:"save_status"`
}

// Session is one open document. All methods are safe for concurrent use;
// document mutations are serialized by the session lock, and text-service
// calls run without holding it.
type Session struct {
	id      string
	text    *textservice.Service
	catalog *topics.Catalog
	notify  Notifier
	tracker *textservice.Tracker
	now     func() time.Time

	mu       sync.Mutex
	doc      *blockdoc.Document
	title    string
	topic    string
	tags     []string
	cover    string
	bubble   toolbar.Bubble
	lastSel  *models.Selection
	loading  int
	lastErr  string
	titles   []string
	meta     uint64
	status   SaveStatus
	dirty    bool
	edited   time.Time
	savingAt time.Time
	touched  time.Time
}

func newSession(id string, doc *blockdoc.Document, d Deps, now func() time.Time) *Session {
	if d.Notifier == nil {
		d.Notifier = nopNotifier{}
	}
	if d.Topics == nil {
		d.Topics = topics.Default()
	}
	return &Session{
		id:      id,
		text:    d.Text,
		catalog: d.Topics,
		notify:  d.Notifier,
		tracker: textservice.NewTracker(),
		now:     now,
		doc:     doc,
		tags:    []string{},
		status:  StatusSaved,
		touched: now(),
	}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// version combines the block model version with metadata edits.
func (s *Session) version() uint64 {
	return s.doc.Version() + s.meta
}

// changed records an edit and notifies subscribers. Callers hold s.mu.
func (s *Session) changed() {
	now := s.now()
	s.dirty = true
	s.edited = now
	s.touched = now
	s.notify.PublishChange(s.id, s.version())
}

// track runs fn under the lock and reports a change if the version moved.
func (s *Session) track(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := s.version()
	fn()
	s.touched = s.now()
	if s.version() != before {
		s.changed()
	}
}

// View returns a snapshot of the session.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Session) viewLocked() View {
	blocks := s.doc.Blocks()
	out := make([]BlockView, len(blocks))
	for i, b := range blocks {
		out[i] = BlockView{Block: b, Placeholder: s.doc.Placeholder(b.ID)}
	}
	return View{
		ID:               s.id,
		Version:          s.version(),
		Title:            s.title,
		Topic:            s.topic,
		Tags:             slices.Clone(s.tags),
		Cover:            s.cover,
		Blocks:           out,
		Active:           s.doc.Active(),
		BlockTypes:       toolbar.BlockTypeOptions(s.doc.ActiveTag()),
		Shortcuts:        slices.Clone(toolbar.Shortcuts),
		Bubble:           s.bubbleLocked(),
		Loading:          s.loading > 0,
		Error:            s.lastErr,
		TitleSuggestions: slices.Clone(s.titles),
		SaveStatus:       s.status,
	}
}

// HandleKey applies a key press inside a block and returns what the editing
// surface must do. Focus requests are released only after the structural
// change is committed, so the caller applies them to the re-rendered blocks.
func (s *Session) HandleKey(blockID string, ev blockdoc.KeyEvent, live string) (blockdoc.KeyResult, []blockdoc.FocusRequest) {
	var res blockdoc.KeyResult
	var focus []blockdoc.FocusRequest
	s.track(func() {
		s.setContentLocked(blockID, live)
		res = s.doc.HandleKey(blockID, ev, live)
		if res.Inserted != "" {
			blockOps.WithLabelValues("insert").Inc()
		}
		if res.Removed != "" {
			blockOps.WithLabelValues("delete").Inc()
			s.tracker.Forget(res.Removed)
			if s.lastSel != nil && s.lastSel.BlockID == res.Removed {
				s.lastSel = nil
			}
		}
		focus = s.doc.FlushFocus()
	})
	return res, focus
}

// InsertBlock inserts a block with tag after blockID and focuses it.
func (s *Session) InsertBlock(afterID string, tag models.Tag) (string, bool) {
	var id string
	var ok bool
	s.track(func() {
		id, ok = s.doc.InsertAfter(afterID, tag)
		if ok {
			blockOps.WithLabelValues("insert").Inc()
			s.doc.FlushFocus()
		}
	})
	return id, ok
}

// DeleteBlock removes blockID and focuses the previous block.
func (s *Session) DeleteBlock(blockID string) bool {
	var ok bool
	s.track(func() {
		ok = s.doc.DeleteAndMerge(blockID)
		if ok {
			blockOps.WithLabelValues("delete").Inc()
			s.tracker.Forget(blockID)
			s.doc.FlushFocus()
		}
	})
	return ok
}

// UpdateContent stores new content for a block. Unknown ids are ignored.
func (s *Session) UpdateContent(blockID, content string) bool {
	var ok bool
	s.track(func() { ok = s.setContentLocked(blockID, content) })
	return ok
}

// setContentLocked writes content and invalidates in-flight refines of the
// block when the content actually changed.
func (s *Session) setContentLocked(blockID, content string) bool {
	before := s.doc.Version()
	ok := s.doc.UpdateContent(blockID, content)
	if ok && s.doc.Version() != before {
		s.tracker.Bump(blockID)
	}
	return ok
}

// Focus marks a block as active.
func (s *Session) Focus(blockID string) bool {
	var ok bool
	s.track(func() { ok = s.doc.Focus(blockID) })
	return ok
}

// SetBlockType retags the active block. Without an active block nothing
// happens.
func (s *Session) SetBlockType(tag models.Tag) bool {
	var ok bool
	s.track(func() {
		ok = toolbar.SelectBlockType(tag, func(t models.Tag) bool {
			active := s.doc.Active()
			if active == "" {
				return false
			}
			return s.doc.SetTag(active, t)
		})
	})
	return ok
}

// SetTitle replaces the document title.
func (s *Session) SetTitle(title string) {
	s.track(func() {
		if s.title != title {
			s.title = title
			s.meta++
		}
	})
}

// SelectTitle applies a suggested title with surrounding quotes removed.
func (s *Session) SelectTitle(candidate string) string {
	title := textservice.CleanTitle(candidate)
	s.track(func() {
		s.titles = nil
		if s.title != title {
			s.title = title
			s.meta++
		}
	})
	return title
}

// SetTopic selects a topic from the catalog. An empty value clears it.
func (s *Session) SetTopic(value string) error {
	value = strings.TrimSpace(value)
	if value != "" && !s.catalog.Has(value) {
		return fmt.Errorf("editor: unknown topic %q: %w", value, apperr.ErrInvalidArgument)
	}
	s.track(func() {
		if s.topic != value {
			s.topic = value
			s.meta++
		}
	})
	return nil
}

// SetCover points the document at a stored cover blob.
func (s *Session) SetCover(name string) {
	s.track(func() {
		if s.cover != name {
			s.cover = name
			s.meta++
		}
	})
}

// RemoveCover clears the cover reference.
func (s *Session) RemoveCover() {
	s.SetCover("")
}

// Export returns the exportable form of the document.
func (s *Session) Export() export.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return export.Document{
		Frontmatter: export.Frontmatter{
			Title: s.title,
			Topic: s.topic,
			Tags:  slices.Clone(s.tags),
			Cover: s.cover,
		},
		Blocks: s.doc.Blocks(),
	}
}

// plainText joins the plain text of all blocks, one per line.
func (s *Session) plainTextLocked() string {
	var parts []string
	for _, b := range s.doc.Blocks() {
		if p := strings.TrimSpace(richtext.Plain(b.Content)); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "\n")
}

// tick advances the autosave indicator and returns the events to publish.
func (s *Session) tick(now time.Time, delay time.Duration) []sse.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.status == StatusSaving && now.Sub(s.savingAt) >= savingHold:
		s.status = StatusSaved
	case s.dirty && s.status != StatusSaving && now.Sub(s.edited) >= delay:
		s.status = StatusSaving
		s.savingAt = now
		s.dirty = false
	default:
		return nil
	}
	return []sse.Event{{
		Type:    sse.TypeSaveStatus,
		Session: s.id,
		Data:    map[string]any{"session": s.id, "status": s.status},
	}}
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touched
}
