// Package view computes the derived view of the catalog: the exact
// products, and for each the exact changes, that a surface must render
// for a given preferences snapshot.
//
// Compute is pure. It never mutates its inputs, has no error cases and
// returns identical output for identical input.
package view

import (
	"slices"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/HendryAvila/relnotes/internal/catalog"
	"github.com/HendryAvila/relnotes/internal/prefs"
)

// Entry is one row of the derived view.
type Entry struct {
	Product catalog.Product `json:"product"`
	// Changes is the visible subset of Product.Changes, in source order.
	Changes []catalog.Change `json:"changes"`
}

// Compute applies favorite scoping, then type filtering, then ordering.
// The order of the steps is observable: ranking happens on the already
// filtered change lists.
func Compute(products []catalog.Product, p prefs.Preferences) []Entry {
	entries := scope(products, p)
	entries = filterTypes(entries, p.ActiveTypeFilters)
	order(entries, p.SortOption)
	return entries
}

// scope builds entries from products, keeping only favorites when
// ShowFavoritesOnly is set. Stale favorite IDs simply never match.
func scope(products []catalog.Product, p prefs.Preferences) []Entry {
	var favs map[string]bool
	if p.ShowFavoritesOnly {
		favs = p.FavoriteSet()
	}
	out := make([]Entry, 0, len(products))
	for _, prod := range products {
		if favs != nil && !favs[prod.ID] {
			continue
		}
		prod = prod.Clone()
		out = append(out, Entry{Product: prod, Changes: slices.Clone(prod.Changes)})
	}
	return out
}

// filterTypes narrows each entry to the active types and drops entries
// left empty. An empty filter set passes everything through.
func filterTypes(entries []Entry, active []catalog.ChangeType) []Entry {
	if len(active) == 0 {
		return entries
	}
	out := entries[:0:0]
	for _, e := range entries {
		var kept []catalog.Change
		for _, c := range e.Changes {
			if slices.Contains(active, c.Type) {
				kept = append(kept, c)
			}
		}
		if len(kept) == 0 {
			continue
		}
		e.Changes = kept
		out = append(out, e)
	}
	return out
}

// order sorts entries in place. Unknown options keep source order.
func order(entries []Entry, o prefs.SortOption) {
	switch o {
	case prefs.SortAlphabetical:
		// Collators keep scratch buffers; one per call.
		col := collate.New(language.English, collate.IgnoreCase)
		slices.SortStableFunc(entries, func(a, b Entry) int {
			return col.CompareString(a.Product.Name, b.Product.Name)
		})
	case prefs.SortRecent:
		slices.SortStableFunc(entries, func(a, b Entry) int {
			return latest(b).Compare(latest(a))
		})
	}
}

// latest returns the timestamp of the entry's first visible change, or
// the Unix epoch when there is none or its date does not parse.
func latest(e Entry) time.Time {
	epoch := time.Unix(0, 0).UTC()
	if len(e.Changes) == 0 {
		return epoch
	}
	t := e.Changes[0].Time()
	if t.IsZero() {
		return epoch
	}
	return t
}

// Stats summarizes a computed view.
type Stats struct {
	Products int `json:"products"`
	Changes  int `json:"changes"`
}

// Summary counts the products and visible changes in entries.
func Summary(entries []Entry) Stats {
	s := Stats{Products: len(entries)}
	for _, e := range entries {
		s.Changes += len(e.Changes)
	}
	return s
}

// Empty reports whether the view has nothing to show.
func (s Stats) Empty() bool { return s.Products == 0 }
