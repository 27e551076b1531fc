package textservice

import "sync"

// Ticket identifies one request against a target. It is current as long as
// no newer request or edit has been registered for the same key.
type Ticket struct {
	Key string
	Gen uint64
}

// Tracker hands out per-key generation numbers so a slow response cannot
// overwrite a newer edit.
type Tracker struct {
	mu   sync.Mutex
	gens map[string]uint64
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{gens: make(map[string]uint64)}
}

// Begin registers a new request for key and returns its ticket. Any earlier
// ticket for key becomes stale.
func (t *Tracker) Begin(key string) Ticket {
	return Ticket{Key: key, Gen: t.Bump(key)}
}

// Bump invalidates outstanding tickets for key and returns the new generation.
func (t *Tracker) Bump(key string) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gens[key]++
	return t.gens[key]
}

// Current reports whether tk is still the newest generation for its key.
func (t *Tracker) Current(tk Ticket) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.gens[tk.Key] == tk.Gen
}

// Forget drops key. Tickets issued for it are stale afterwards.
func (t *Tracker) Forget(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.gens, key)
}
