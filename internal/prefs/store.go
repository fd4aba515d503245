package prefs

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/HendryAvila/relnotes/internal/catalog"
)

const (
	// Key holds the serialized Preferences object.
	Key = "preferences"

	// Legacy keys from the two-key scheme. They are read once, folded
	// into Key and removed.
	legacyDarkModeKey  = "darkMode"
	legacyFavoritesKey = "favorites"
)

// Store owns the current preferences and persists every mutation.
// It is safe for concurrent use: each operation is a locked
// read-modify-write of the whole object.
type Store struct {
	mu      sync.Mutex
	kv      KV
	log     *zap.Logger
	cur     Preferences
	onWrite func(op string, err error)
}

// Open creates a Store over kv and loads the persisted state.
// A nil logger disables logging.
func Open(kv KV, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{kv: kv, log: log}
	s.Load()
	return s
}

// Load re-reads preferences from the KV and returns a snapshot. Missing
// or corrupt data yields Default(); anomalies are logged, never returned.
func (s *Store) Load() Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur = s.read()
	return s.cur.Clone()
}

func (s *Store) read() Preferences {
	data, found, err := s.kv.Get(Key)
	if err != nil {
		s.log.Warn("reading preferences failed, using defaults", zap.Error(err))
		return Default()
	}
	if !found {
		if p, ok := s.migrateLegacy(); ok {
			return p
		}
		return Default()
	}

	p := Default()
	if err := json.Unmarshal(data, &p); err != nil {
		s.log.Warn("stored preferences are corrupt, using defaults",
			zap.Error(err), zap.Int("bytes", len(data)))
		return Default()
	}
	if original := p.SortOption; p.normalize() {
		s.log.Warn("stored sort option is unknown, using default",
			zap.String("sort_option", string(original)))
	}
	return p.Clone()
}

// migrateLegacy builds preferences from the two-key scheme (a "true"/
// "false" dark mode string and a JSON array of favorite IDs). It
// persists the result under Key and removes the legacy keys.
func (s *Store) migrateLegacy() (Preferences, bool) {
	darkRaw, darkFound, derr := s.kv.Get(legacyDarkModeKey)
	favRaw, favFound, ferr := s.kv.Get(legacyFavoritesKey)
	if derr != nil || ferr != nil || (!darkFound && !favFound) {
		return Preferences{}, false
	}

	p := Default()
	if darkFound {
		dark, err := strconv.ParseBool(string(bytes.TrimSpace(darkRaw)))
		if err != nil {
			s.log.Warn("legacy dark mode value unreadable", zap.ByteString("value", darkRaw))
		}
		p.DarkMode = dark
	}
	if favFound {
		var favs []string
		if err := json.Unmarshal(favRaw, &favs); err != nil {
			s.log.Warn("legacy favorites unreadable", zap.Error(err))
		} else {
			p.Favorites = favs
		}
	}
	p.normalize()

	if err := s.write(p); err != nil {
		s.log.Warn("persisting migrated preferences failed", zap.Error(err))
		return p, true
	}
	for _, k := range []string{legacyDarkModeKey, legacyFavoritesKey} {
		if err := s.kv.Delete(k); err != nil {
			s.log.Warn("removing legacy preference key failed", zap.String("key", k), zap.Error(err))
		}
	}
	s.log.Info("migrated legacy preferences",
		zap.Int("favorites", len(p.Favorites)), zap.Bool("dark_mode", p.DarkMode))
	return p, true
}

// ObserveWrites registers fn to be called after every mutation with the
// operation name and the write result.
func (s *Store) ObserveWrites(fn func(op string, err error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onWrite = fn
}

// Snapshot returns a deep copy of the current preferences.
func (s *Store) Snapshot() Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur.Clone()
}

// mutate applies fn to the current preferences and writes the full
// object. The in-memory state keeps the mutation even if the write fails.
func (s *Store) mutate(op string, fn func(p *Preferences)) (Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cur.Clone()
	fn(&next)
	next.normalize()
	s.cur = next

	err := s.write(next)
	if s.onWrite != nil {
		s.onWrite(op, err)
	}
	if err != nil {
		s.log.Error("persisting preferences failed", zap.String("op", op), zap.Error(err))
		return next.Clone(), fmt.Errorf("%s: %w", op, err)
	}
	s.log.Debug("preferences updated", zap.String("op", op))
	return next.Clone(), nil
}

func (s *Store) write(p Preferences) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshaling preferences: %w", err)
	}
	return s.kv.Set(Key, data)
}

// ToggleFavorite flips membership of productID in the favorites set.
func (s *Store) ToggleFavorite(productID string) (Preferences, error) {
	return s.mutate("toggle favorite", func(p *Preferences) {
		p.Favorites = toggle(p.Favorites, productID)
	})
}

// ToggleTypeFilter flips membership of t in the active type filters.
func (s *Store) ToggleTypeFilter(t catalog.ChangeType) (Preferences, error) {
	return s.mutate("toggle type filter", func(p *Preferences) {
		p.ActiveTypeFilters = toggle(p.ActiveTypeFilters, t)
	})
}

// ClearTypeFilters empties the active type filters.
func (s *Store) ClearTypeFilters() (Preferences, error) {
	return s.mutate("clear type filters", func(p *Preferences) {
		p.ActiveTypeFilters = []catalog.ChangeType{}
	})
}

// SetSortOption replaces the sort option. Unknown options are rejected
// without touching the stored state.
func (s *Store) SetSortOption(o SortOption) (Preferences, error) {
	if err := ValidateSort(o); err != nil {
		return s.Snapshot(), err
	}
	return s.mutate("set sort option", func(p *Preferences) {
		p.SortOption = o
	})
}

// SetShowFavoritesOnly replaces the favorites-only flag.
func (s *Store) SetShowFavoritesOnly(v bool) (Preferences, error) {
	return s.mutate("set favorites only", func(p *Preferences) {
		p.ShowFavoritesOnly = v
	})
}

// SetDarkMode replaces the dark mode flag.
func (s *Store) SetDarkMode(v bool) (Preferences, error) {
	return s.mutate("set dark mode", func(p *Preferences) {
		p.DarkMode = v
	})
}

// ReplaceAll swaps in a whole new preferences object.
func (s *Store) ReplaceAll(next Preferences) (Preferences, error) {
	next = next.Clone()
	return s.mutate("replace all", func(p *Preferences) {
		*p = next
	})
}

// Export returns the current preferences as indented JSON, the format
// Import accepts.
func (s *Store) Export() ([]byte, error) {
	data, err := json.MarshalIndent(s.Snapshot(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling preferences: %w", err)
	}
	return data, nil
}

// ErrInvalidSettings is returned by Import when the document cannot be
// parsed or carries unknown values. The current state is left untouched.
var ErrInvalidSettings = errors.New("invalid settings")

// Import validates an exported settings document and replaces the
// current preferences with it. Fields absent from the document take
// their default values.
func (s *Store) Import(data []byte) (Preferences, error) {
	p := Default()
	if err := json.Unmarshal(data, &p); err != nil {
		return s.Snapshot(), fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	if err := ValidateSort(p.SortOption); err != nil {
		return s.Snapshot(), fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	for _, t := range p.ActiveTypeFilters {
		if err := catalog.ValidateType(t); err != nil {
			return s.Snapshot(), fmt.Errorf("%w: %w", ErrInvalidSettings, err)
		}
	}
	return s.ReplaceAll(p)
}

// Close closes the backing KV.
func (s *Store) Close() error {
	return s.kv.Close()
}
