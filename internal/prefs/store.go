package prefs

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/starford/pensieri/internal/apperr"
	"github.com/starford/pensieri/internal/models"
)

// stateSchemaVersion is bumped whenever State changes shape. Older payloads
// are upgraded on load; fields unknown to this version are dropped.
const stateSchemaVersion uint16 = 1

const stateKey = "state"

// Default preference values.
const (
	DefaultTheme            = models.ThemeLight
	DefaultReadingIntensity = 50
)

// State is the persisted application state.
type State struct {
	Schema      uint16             `msgpack:"schema"`
	Preferences models.Preferences `msgpack:"preferences"`
	Profile     models.Profile     `msgpack:"profile"`
}

// DefaultState returns the state of a fresh installation.
func DefaultState() State {
	return State{
		Schema: stateSchemaVersion,
		Preferences: models.Preferences{
			Theme:            DefaultTheme,
			ReadingIntensity: DefaultReadingIntensity,
		},
	}
}

// Store is the explicit application-state object. It is safe for
// concurrent use; writes are last-write-wins.
type Store struct {
	db     *DB
	logger *slog.Logger

	mu    sync.RWMutex
	state State
}

// NewStore loads the state from db, falling back to defaults when nothing
// has been stored yet.
func NewStore(db *DB, logger *slog.Logger) (*Store, error) {
	s := &Store{db: db, logger: logger, state: DefaultState()}
	row, err := db.Get(stateKey)
	if errors.Is(err, apperr.ErrNotFound) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	st, err := decodeState(row, logger)
	if err != nil {
		logger.Warn("prefs: stored state unreadable, using defaults", slog.String("error", err.Error()))
		return s, nil
	}
	s.state = st
	return s, nil
}

func decodeState(row *Row, logger *slog.Logger) (State, error) {
	st := DefaultState()
	if err := msgpack.Unmarshal(row.Payload, &st); err != nil {
		return State{}, fmt.Errorf("prefs: decode state: %w", err)
	}
	if row.Schema > stateSchemaVersion {
		logger.Warn("prefs: state written by a newer schema",
			slog.Int("stored", int(row.Schema)), slog.Int("known", int(stateSchemaVersion)))
	}
	st.Schema = stateSchemaVersion
	if !st.Preferences.Theme.Valid() {
		st.Preferences.Theme = DefaultTheme
	}
	st.Preferences.ReadingIntensity = min(max(st.Preferences.ReadingIntensity, 0), 100)
	return st, nil
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Preferences returns the current preferences.
func (s *Store) Preferences() models.Preferences {
	return s.State().Preferences
}

// Profile returns the current profile.
func (s *Store) Profile() models.Profile {
	return s.State().Profile
}

// PreferencesPatch is a partial preferences update.
type PreferencesPatch struct {
	Theme            *models.Theme `json:"theme,omitempty"`
	ReadingIntensity *int          `json:"reading_intensity,omitempty"`
	Authenticated    *bool         `json:"authenticated,omitempty"`
}

// Validate checks patch values.
func (p *PreferencesPatch) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.Theme, validation.NilOrNotEmpty,
			validation.In(models.ThemeLight, models.ThemeDark, models.ThemeReading)),
		validation.Field(&p.ReadingIntensity, validation.Min(0), validation.Max(100)),
	)
}

// UpdatePreferences applies patch and saves the result.
func (s *Store) UpdatePreferences(patch PreferencesPatch) (models.Preferences, error) {
	if err := patch.Validate(); err != nil {
		return models.Preferences{}, fmt.Errorf("prefs: %w: %w", apperr.ErrInvalidArgument, err)
	}
	st, err := s.update(func(st *State) {
		if patch.Theme != nil {
			st.Preferences.Theme = *patch.Theme
		}
		if patch.ReadingIntensity != nil {
			st.Preferences.ReadingIntensity = *patch.ReadingIntensity
		}
		if patch.Authenticated != nil {
			st.Preferences.Authenticated = *patch.Authenticated
		}
	})
	return st.Preferences, err
}

// SetProfile replaces the profile and saves it.
func (s *Store) SetProfile(p models.Profile) (models.Profile, error) {
	p.Name = strings.TrimSpace(p.Name)
	if err := validation.Validate(p.Name, validation.Required, validation.Length(1, 120)); err != nil {
		return models.Profile{}, fmt.Errorf("prefs: name: %w: %w", apperr.ErrInvalidArgument, err)
	}
	st, err := s.update(func(st *State) { st.Profile = p })
	return st.Profile, err
}

// update mutates the state under the lock and writes it through. On a
// failed write the in-memory state is left unchanged.
func (s *Store) update(fn func(*State)) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state
	fn(&next)
	next.Schema = stateSchemaVersion

	payload, err := msgpack.Marshal(&next)
	if err != nil {
		return s.state, fmt.Errorf("prefs: encode state: %w", err)
	}
	if err := s.db.Put(Row{Key: stateKey, Schema: stateSchemaVersion, Payload: payload}); err != nil {
		return s.state, err
	}
	s.state = next
	s.logger.Debug("prefs: state saved", slog.String("theme", string(next.Preferences.Theme)))
	return next, nil
}
