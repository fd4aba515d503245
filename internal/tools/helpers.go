// Package tools implements the MCP tool handlers for the release notes
// dashboard.
//
// Each tool receives its dependencies through its constructor and exposes
// Definition() for registration and Handle() for calls:
// - catalog.go: listing products and rendering the derived view
// - search.go: AI-assisted search
// - preferences.go: every preference mutation plus import/export
package tools

import (
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/relnotes/internal/catalog"
	"github.com/HendryAvila/relnotes/internal/prefs"
	"github.com/HendryAvila/relnotes/internal/view"
)

// PreferenceStore is the subset of prefs.Store the tools depend on.
type PreferenceStore interface {
	Snapshot() prefs.Preferences
	ToggleFavorite(productID string) (prefs.Preferences, error)
	ToggleTypeFilter(t catalog.ChangeType) (prefs.Preferences, error)
	ClearTypeFilters() (prefs.Preferences, error)
	SetSortOption(o prefs.SortOption) (prefs.Preferences, error)
	SetShowFavoritesOnly(v bool) (prefs.Preferences, error)
	SetDarkMode(v bool) (prefs.Preferences, error)
	Export() ([]byte, error)
	Import(data []byte) (prefs.Preferences, error)
}

// boolArg extracts a boolean argument, returning ok=false when the key is
// missing or not a boolean.
func boolArg(req mcp.CallToolRequest, key string) (value, ok bool) {
	value, ok = req.GetArguments()[key].(bool)
	return value, ok
}

// typeNames lists every change type name, for enum schemas.
func typeNames() []string {
	names := make([]string, len(catalog.AllTypes))
	for i, t := range catalog.AllTypes {
		names[i] = string(t)
	}
	return names
}

// formatPreferences renders p as a short markdown summary.
func formatPreferences(p prefs.Preferences) string {
	var sb strings.Builder
	sb.WriteString("## Preferences\n\n")
	fmt.Fprintf(&sb, "- **Sort**: %s\n", p.SortOption)
	fmt.Fprintf(&sb, "- **Favorites only**: %s\n", onOff(p.ShowFavoritesOnly))
	fmt.Fprintf(&sb, "- **Dark mode**: %s\n", onOff(p.DarkMode))

	if len(p.Favorites) == 0 {
		sb.WriteString("- **Favorites**: _none_\n")
	} else {
		fmt.Fprintf(&sb, "- **Favorites**: %s\n", strings.Join(p.Favorites, ", "))
	}

	if len(p.ActiveTypeFilters) == 0 {
		sb.WriteString("- **Type filters**: _all types shown_\n")
	} else {
		names := make([]string, len(p.ActiveTypeFilters))
		for i, t := range p.ActiveTypeFilters {
			names[i] = t.Emoji() + " " + string(t)
		}
		fmt.Fprintf(&sb, "- **Type filters**: %s\n", strings.Join(names, ", "))
	}
	return sb.String()
}

// formatView renders a computed view as markdown, including the empty
// state when nothing matches.
func formatView(entries []view.Entry, p prefs.Preferences, limit int) string {
	var sb strings.Builder
	stats := view.Summary(entries)

	if stats.Empty() {
		sb.WriteString("# No Matching Products Found\n\n")
		sb.WriteString("Try adjusting your filters or favorites.\n")
		if p.ShowFavoritesOnly {
			sb.WriteString("\n_Favorites only is on. Turn it off with `relnotes_set_favorites_only`._\n")
		}
		if len(p.ActiveTypeFilters) > 0 {
			sb.WriteString("\n_Type filters are active. Clear them with `relnotes_clear_type_filters`._\n")
		}
		return sb.String()
	}

	fmt.Fprintf(&sb, "# Release Notes (%d products, %d changes)\n\n", stats.Products, stats.Changes)
	favs := p.FavoriteSet()
	for _, e := range entries {
		star := ""
		if favs[e.Product.ID] {
			star = " ★"
		}
		fmt.Fprintf(&sb, "## %s %s%s\n", e.Product.Icon, e.Product.Name, star)
		fmt.Fprintf(&sb, "_id: %s_", e.Product.ID)
		if e.Product.URL != "" {
			fmt.Fprintf(&sb, " · %s", e.Product.URL)
		}
		sb.WriteString("\n\n")

		shown := e.Changes
		if limit > 0 && len(shown) > limit {
			shown = shown[:limit]
		}
		for _, c := range shown {
			fmt.Fprintf(&sb, "- %s **%s** (%s): %s\n", c.Type.Emoji(), c.Type, c.Day(), c.Description)
		}
		if hidden := len(e.Changes) - len(shown); hidden > 0 {
			fmt.Fprintf(&sb, "- _…and %d more_\n", hidden)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// mutationResult renders the outcome of a preference mutation. A failed
// write still reports the in-memory state, flagged as not persisted.
func mutationResult(action string, p prefs.Preferences, err error) *mcp.CallToolResult {
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf(
			"%s applied for this session but could not be saved: %v\n\n%s", action, err, formatPreferences(p)))
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s\n\n%s", action, formatPreferences(p)))
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
