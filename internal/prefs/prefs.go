// Package prefs implements the user preference store: favorites, change
// type filters, sort order, the favorites-only toggle and dark mode.
//
// Preferences are durable. Every mutation funnels through a named
// operation on Store, which rewrites the whole JSON object to the
// backing KV before returning (last write wins, no transaction log).
package prefs

import (
	"fmt"
	"slices"
	"strings"

	"github.com/HendryAvila/relnotes/internal/catalog"
)

// SortOption selects the ordering of the derived view.
type SortOption string

const (
	SortRecent       SortOption = "recent"
	SortAlphabetical SortOption = "alphabetical"
)

// validSorts is the set of allowed sort options.
var validSorts = map[SortOption]bool{
	SortRecent:       true,
	SortAlphabetical: true,
}

// ValidateSort returns an error if the sort option is not recognized.
func ValidateSort(o SortOption) error {
	if !validSorts[o] {
		return fmt.Errorf("invalid sort option %q: must be one of: recent, alphabetical", o)
	}
	return nil
}

// Preferences is the per-user configuration that drives the derived view.
// Favorites and ActiveTypeFilters have set semantics and are kept in a
// canonical order (IDs ascending, types in catalog.AllTypes order) so that
// two snapshots of the same sets compare equal.
type Preferences struct {
	Favorites         []string             `json:"favorites"`
	ActiveTypeFilters []catalog.ChangeType `json:"activeTypeFilters"`
	SortOption        SortOption           `json:"sortOption"`
	ShowFavoritesOnly bool                 `json:"showFavoritesOnly"`
	DarkMode          bool                 `json:"darkMode"`
}

// Default returns the preferences used on first run and whenever the
// persisted state is missing or unreadable.
func Default() Preferences {
	return Preferences{
		Favorites:         []string{},
		ActiveTypeFilters: []catalog.ChangeType{},
		SortOption:        SortRecent,
	}
}

// Clone returns a deep copy of p.
func (p Preferences) Clone() Preferences {
	out := p
	out.Favorites = slices.Clone(p.Favorites)
	out.ActiveTypeFilters = slices.Clone(p.ActiveTypeFilters)
	if out.Favorites == nil {
		out.Favorites = []string{}
	}
	if out.ActiveTypeFilters == nil {
		out.ActiveTypeFilters = []catalog.ChangeType{}
	}
	return out
}

// IsFavorite reports whether productID is in the favorites set.
func (p Preferences) IsFavorite(productID string) bool {
	return slices.Contains(p.Favorites, productID)
}

// IsFilterActive reports whether t is in the active type filter set.
func (p Preferences) IsFilterActive(t catalog.ChangeType) bool {
	return slices.Contains(p.ActiveTypeFilters, t)
}

// FavoriteSet returns Favorites as a lookup set.
func (p Preferences) FavoriteSet() map[string]bool {
	set := make(map[string]bool, len(p.Favorites))
	for _, id := range p.Favorites {
		set[id] = true
	}
	return set
}

// FilterSet returns ActiveTypeFilters as a lookup set.
func (p Preferences) FilterSet() map[catalog.ChangeType]bool {
	set := make(map[catalog.ChangeType]bool, len(p.ActiveTypeFilters))
	for _, t := range p.ActiveTypeFilters {
		set[t] = true
	}
	return set
}

// normalize resolves type aliases, removes duplicate set members,
// restores canonical order and falls back to the default sort for
// unknown options. It reports whether the sort option had to be
// replaced.
func (p *Preferences) normalize() (sortReplaced bool) {
	p.Favorites = dedupe(p.Favorites)
	slices.Sort(p.Favorites)
	for i, t := range p.ActiveTypeFilters {
		if canonical, err := catalog.ParseChangeType(string(t)); err == nil {
			p.ActiveTypeFilters[i] = canonical
		}
	}
	p.ActiveTypeFilters = dedupe(p.ActiveTypeFilters)
	slices.SortStableFunc(p.ActiveTypeFilters, compareTypes)
	if ValidateSort(p.SortOption) != nil {
		p.SortOption = SortRecent
		return true
	}
	return false
}

func dedupe[T comparable](in []T) []T {
	out := make([]T, 0, len(in))
	seen := make(map[T]bool, len(in))
	for _, v := range in {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// compareTypes orders known types by display order and unknown values
// after them, lexically.
func compareTypes(a, b catalog.ChangeType) int {
	ia, ib := slices.Index(catalog.AllTypes, a), slices.Index(catalog.AllTypes, b)
	switch {
	case ia >= 0 && ib >= 0:
		return ia - ib
	case ia >= 0:
		return -1
	case ib >= 0:
		return 1
	default:
		return strings.Compare(string(a), string(b))
	}
}

// toggle flips membership of v in the slice. The caller restores
// canonical order via normalize.
func toggle[T comparable](in []T, v T) []T {
	if i := slices.Index(in, v); i >= 0 {
		return slices.Delete(slices.Clone(in), i, i+1)
	}
	return append(slices.Clone(in), v)
}
