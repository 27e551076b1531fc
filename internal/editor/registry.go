package editor

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/pensieri/internal/apperr"
	"github.com/starford/pensieri/internal/blockdoc"
	"github.com/starford/pensieri/internal/export"
	"github.com/starford/pensieri/internal/sse"
	"github.com/starford/pensieri/internal/textservice"
	"github.com/starford/pensieri/internal/topics"
)

const (
	DefaultSessionTTL    = 24 * time.Hour
	DefaultAutosaveDelay = 5 * time.Second
	tickInterval         = 250 * time.Millisecond
)

// Deps are the services shared by every session.
type Deps struct {
	Text     *textservice.Service
	Topics   *topics.Catalog
	Notifier Notifier
}

// Summary is the list entry of an open session.
type Summary struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Blocks     int        `json:"blocks"`
	SaveStatus SaveStatus `json:"save_status"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithSessionTTL sets how long an untouched session stays open.
func WithSessionTTL(d time.Duration) RegistryOption {
	return func(r *Registry) {
		if d > 0 {
			r.ttl = d
		}
	}
}

// WithAutosaveDelay sets the inactivity delay before the save indicator flips.
func WithAutosaveDelay(d time.Duration) RegistryOption {
	return func(r *Registry) {
		if d > 0 {
			r.autosave = d
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) RegistryOption {
	return func(r *Registry) { r.now = now }
}

// WithIDGenerator overrides session and block id generation.
func WithIDGenerator(fn func() string) RegistryOption {
	return func(r *Registry) { r.newID = fn }
}

// WithLogger sets the registry logger.
func WithLogger(l *slog.Logger) RegistryOption {
	return func(r *Registry) { r.logger = l }
}

// Registry holds the open editor sessions.
type Registry struct {
	deps     Deps
	ttl      time.Duration
	autosave time.Duration
	now      func() time.Time
	newID    func() string
	logger   *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates an empty registry.
func NewRegistry(deps Deps, opts ...RegistryOption) *Registry {
	if deps.Notifier == nil {
		deps.Notifier = nopNotifier{}
	}
	if deps.Topics == nil {
		deps.Topics = topics.Default()
	}
	r := &Registry{
		deps:     deps,
		ttl:      DefaultSessionTTL,
		autosave: DefaultAutosaveDelay,
		now:      time.Now,
		newID:    uuid.NewString,
		logger:   slog.Default(),
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create opens a session on a fresh document holding one empty paragraph.
func (r *Registry) Create() *Session {
	return r.add(blockdoc.New(blockdoc.WithIDGenerator(r.newID)))
}

// Import opens a session on an exported document. Topics missing from the
// catalog are dropped; blank and duplicate tags are skipped.
func (r *Registry) Import(doc export.Document) *Session {
	s := r.add(blockdoc.FromBlocks(doc.Blocks, blockdoc.WithIDGenerator(r.newID)))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.title = strings.TrimSpace(doc.Title)
	if r.deps.Topics.Has(doc.Topic) {
		s.topic = doc.Topic
	} else if doc.Topic != "" {
		r.logger.Warn("import: unknown topic dropped", slog.String("session", s.id), slog.String("topic", doc.Topic))
	}
	for _, t := range doc.Tags {
		s.addTagLocked(strings.TrimSpace(t))
	}
	s.cover = doc.Cover
	s.meta = 0
	return s
}

func (r *Registry) add(doc *blockdoc.Document) *Session {
	s := newSession(r.newID(), doc, r.deps, r.now)
	r.mu.Lock()
	r.sessions[s.id] = s
	r.mu.Unlock()
	sessionsActive.Inc()
	return s
}

// Get returns the session with id.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("editor: session %s: %w", id, apperr.ErrNotFound)
	}
	return s, nil
}

// Delete closes the session with id.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("editor: session %s: %w", id, apperr.ErrNotFound)
	}
	r.closed(id)
	return nil
}

func (r *Registry) closed(id string) {
	sessionsActive.Dec()
	r.deps.Notifier.Publish(sse.Event{
		Type:    sse.TypeSessionClosed,
		Session: id,
		Data:    map[string]string{"session": id},
	})
}

// List returns the open sessions, most recently used first.
func (r *Registry) List() []Summary {
	r.mu.RLock()
	all := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		all = append(all, s)
	}
	r.mu.RUnlock()

	out := make([]Summary, 0, len(all))
	for _, s := range all {
		s.mu.Lock()
		out = append(out, Summary{
			ID:         s.id,
			Title:      s.title,
			Blocks:     s.doc.Len(),
			SaveStatus: s.status,
			UpdatedAt:  s.touched,
		})
		s.mu.Unlock()
	}
	slices.SortFunc(out, func(a, b Summary) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// CoverInUse reports whether any open document shows the named cover.
func (r *Registry) CoverInUse(name string) bool {
	r.mu.RLock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.RUnlock()
	for _, s := range sessions {
		s.mu.Lock()
		cover := s.cover
		s.mu.Unlock()
		if cover == name {
			return true
		}
	}
	return false
}

// Run drives autosave indicators and closes idle sessions until ctx is done.
func (r *Registry) Run(ctx context.Context) error {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.tick(r.now())
		}
	}
}

func (r *Registry) tick(now time.Time) {
	r.mu.Lock()
	var expired []string
	live := make([]*Session, 0, len(r.sessions))
	for id, s := range r.sessions {
		if now.Sub(s.idleSince()) >= r.ttl {
			delete(r.sessions, id)
			expired = append(expired, id)
			continue
		}
		live = append(live, s)
	}
	r.mu.Unlock()

	for _, id := range expired {
		r.logger.Info("editor session expired", slog.String("session", id))
		r.closed(id)
	}
	for _, s := range live {
		for _, ev := range s.tick(now, r.autosave) {
			r.deps.Notifier.Publish(ev)
		}
	}
}
