package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/relnotes/internal/catalog"
	"github.com/HendryAvila/relnotes/internal/prefs"
)

// ─── ToggleFavoriteTool ─────────────────────────────────────────────────────

// ToggleFavoriteTool handles the relnotes_toggle_favorite MCP tool.
type ToggleFavoriteTool struct {
	catalog catalog.Store
	prefs   PreferenceStore
}

// NewToggleFavoriteTool creates a ToggleFavoriteTool.
func NewToggleFavoriteTool(c catalog.Store, p PreferenceStore) *ToggleFavoriteTool {
	return &ToggleFavoriteTool{catalog: c, prefs: p}
}

// Definition returns the MCP tool definition for relnotes_toggle_favorite.
func (t *ToggleFavoriteTool) Definition() mcp.Tool {
	return mcp.NewTool("relnotes_toggle_favorite",
		mcp.WithDescription("Add a product to favorites, or remove it if it is already one."),
		mcp.WithString("product_id",
			mcp.Required(),
			mcp.Description("Product ID as shown by relnotes_list_products"),
		),
	)
}

// Handle processes the relnotes_toggle_favorite tool call.
func (t *ToggleFavoriteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := strings.TrimSpace(req.GetString("product_id", ""))
	if id == "" {
		return mcp.NewToolResultError("'product_id' is required"), nil
	}

	p, err := t.prefs.ToggleFavorite(id)
	action := fmt.Sprintf("Removed **%s** from favorites.", id)
	if p.IsFavorite(id) {
		action = fmt.Sprintf("Added **%s** to favorites.", id)
	}
	if _, known := t.catalog.Product(id); !known {
		action += " (No product with this ID is in the catalog; it will never match.)"
	}
	return mutationResult(action, p, err), nil
}

// ─── ToggleTypeFilterTool ───────────────────────────────────────────────────

// ToggleTypeFilterTool handles the relnotes_toggle_type_filter MCP tool.
type ToggleTypeFilterTool struct {
	prefs PreferenceStore
}

// NewToggleTypeFilterTool creates a ToggleTypeFilterTool.
func NewToggleTypeFilterTool(p PreferenceStore) *ToggleTypeFilterTool {
	return &ToggleTypeFilterTool{prefs: p}
}

// Definition returns the MCP tool definition for relnotes_toggle_type_filter.
func (t *ToggleTypeFilterTool) Definition() mcp.Tool {
	return mcp.NewTool("relnotes_toggle_type_filter",
		mcp.WithDescription(
			"Turn a change type filter on or off. With no filters active every type is shown; "+
				"with one or more active only those types are shown.",
		),
		mcp.WithString("type",
			mcp.Required(),
			mcp.Description("Change type: "+strings.Join(typeNames(), ", ")+
				". Short forms like 'GA', 'Feature' or 'Security' are accepted."),
		),
	)
}

// Handle processes the relnotes_toggle_type_filter tool call.
func (t *ToggleTypeFilterTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw := req.GetString("type", "")
	if strings.TrimSpace(raw) == "" {
		return mcp.NewToolResultError("'type' is required"), nil
	}
	typ, err := catalog.ParseChangeType(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	p, err := t.prefs.ToggleTypeFilter(typ)
	action := fmt.Sprintf("Filter **%s** turned off.", typ)
	if p.IsFilterActive(typ) {
		action = fmt.Sprintf("Filter **%s** turned on.", typ)
	}
	return mutationResult(action, p, err), nil
}

// ─── ClearTypeFiltersTool ───────────────────────────────────────────────────

// ClearTypeFiltersTool handles the relnotes_clear_type_filters MCP tool.
type ClearTypeFiltersTool struct {
	prefs PreferenceStore
}

// NewClearTypeFiltersTool creates a ClearTypeFiltersTool.
func NewClearTypeFiltersTool(p PreferenceStore) *ClearTypeFiltersTool {
	return &ClearTypeFiltersTool{prefs: p}
}

// Definition returns the MCP tool definition for relnotes_clear_type_filters.
func (t *ClearTypeFiltersTool) Definition() mcp.Tool {
	return mcp.NewTool("relnotes_clear_type_filters",
		mcp.WithDescription("Clear all change type filters so every type is shown."),
	)
}

// Handle processes the relnotes_clear_type_filters tool call.
func (t *ClearTypeFiltersTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := t.prefs.ClearTypeFilters()
	return mutationResult("All type filters cleared.", p, err), nil
}

// ─── SetSortTool ────────────────────────────────────────────────────────────

// SetSortTool handles the relnotes_set_sort MCP tool.
type SetSortTool struct {
	prefs PreferenceStore
}

// NewSetSortTool creates a SetSortTool.
func NewSetSortTool(p PreferenceStore) *SetSortTool {
	return &SetSortTool{prefs: p}
}

// Definition returns the MCP tool definition for relnotes_set_sort.
func (t *SetSortTool) Definition() mcp.Tool {
	return mcp.NewTool("relnotes_set_sort",
		mcp.WithDescription(
			"Choose the dashboard order: 'recent' (newest first change first) or "+
				"'alphabetical' (by product name).",
		),
		mcp.WithString("sort",
			mcp.Required(),
			mcp.Description("Sort option"),
			mcp.Enum(string(prefs.SortRecent), string(prefs.SortAlphabetical)),
		),
	)
}

// Handle processes the relnotes_set_sort tool call.
func (t *SetSortTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opt := prefs.SortOption(strings.ToLower(strings.TrimSpace(req.GetString("sort", ""))))
	if err := prefs.ValidateSort(opt); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p, err := t.prefs.SetSortOption(opt)
	return mutationResult(fmt.Sprintf("Sorting by **%s**.", opt), p, err), nil
}

// ─── SetFavoritesOnlyTool ───────────────────────────────────────────────────

// SetFavoritesOnlyTool handles the relnotes_set_favorites_only MCP tool.
type SetFavoritesOnlyTool struct {
	prefs PreferenceStore
}

// NewSetFavoritesOnlyTool creates a SetFavoritesOnlyTool.
func NewSetFavoritesOnlyTool(p PreferenceStore) *SetFavoritesOnlyTool {
	return &SetFavoritesOnlyTool{prefs: p}
}

// Definition returns the MCP tool definition for relnotes_set_favorites_only.
func (t *SetFavoritesOnlyTool) Definition() mcp.Tool {
	return mcp.NewTool("relnotes_set_favorites_only",
		mcp.WithDescription("Show only favorite products (true) or all products (false)."),
		mcp.WithBoolean("enabled",
			mcp.Required(),
			mcp.Description("Whether to restrict the dashboard to favorites"),
		),
	)
}

// Handle processes the relnotes_set_favorites_only tool call.
func (t *SetFavoritesOnlyTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	enabled, ok := boolArg(req, "enabled")
	if !ok {
		return mcp.NewToolResultError("'enabled' is required and must be a boolean"), nil
	}
	p, err := t.prefs.SetShowFavoritesOnly(enabled)
	return mutationResult(fmt.Sprintf("Favorites only turned **%s**.", onOff(enabled)), p, err), nil
}

// ─── SetDarkModeTool ────────────────────────────────────────────────────────

// SetDarkModeTool handles the relnotes_set_dark_mode MCP tool.
type SetDarkModeTool struct {
	prefs PreferenceStore
}

// NewSetDarkModeTool creates a SetDarkModeTool.
func NewSetDarkModeTool(p PreferenceStore) *SetDarkModeTool {
	return &SetDarkModeTool{prefs: p}
}

// Definition returns the MCP tool definition for relnotes_set_dark_mode.
func (t *SetDarkModeTool) Definition() mcp.Tool {
	return mcp.NewTool("relnotes_set_dark_mode",
		mcp.WithDescription("Switch the dashboard theme between dark (true) and light (false)."),
		mcp.WithBoolean("enabled",
			mcp.Required(),
			mcp.Description("Whether dark mode is on"),
		),
	)
}

// Handle processes the relnotes_set_dark_mode tool call.
func (t *SetDarkModeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	enabled, ok := boolArg(req, "enabled")
	if !ok {
		return mcp.NewToolResultError("'enabled' is required and must be a boolean"), nil
	}
	p, err := t.prefs.SetDarkMode(enabled)
	return mutationResult(fmt.Sprintf("Dark mode turned **%s**.", onOff(enabled)), p, err), nil
}

// ─── ExportPreferencesTool ──────────────────────────────────────────────────

// ExportPreferencesTool handles the relnotes_export_preferences MCP tool.
type ExportPreferencesTool struct {
	prefs PreferenceStore
}

// NewExportPreferencesTool creates an ExportPreferencesTool.
func NewExportPreferencesTool(p PreferenceStore) *ExportPreferencesTool {
	return &ExportPreferencesTool{prefs: p}
}

// Definition returns the MCP tool definition for relnotes_export_preferences.
func (t *ExportPreferencesTool) Definition() mcp.Tool {
	return mcp.NewTool("relnotes_export_preferences",
		mcp.WithDescription(
			"Export the current preferences as JSON. The output can be passed unchanged "+
				"to relnotes_import_preferences.",
		),
	)
}

// Handle processes the relnotes_export_preferences tool call.
func (t *ExportPreferencesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := t.prefs.Export()
	if err != nil {
		return nil, fmt.Errorf("exporting preferences: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

// ─── ImportPreferencesTool ──────────────────────────────────────────────────

// ImportPreferencesTool handles the relnotes_import_preferences MCP tool.
type ImportPreferencesTool struct {
	prefs PreferenceStore
}

// NewImportPreferencesTool creates an ImportPreferencesTool.
func NewImportPreferencesTool(p PreferenceStore) *ImportPreferencesTool {
	return &ImportPreferencesTool{prefs: p}
}

// Definition returns the MCP tool definition for relnotes_import_preferences.
func (t *ImportPreferencesTool) Definition() mcp.Tool {
	return mcp.NewTool("relnotes_import_preferences",
		mcp.WithDescription(
			"Replace all preferences with an exported settings document. "+
				"Fields missing from the document are reset to their defaults.",
		),
		mcp.WithString("settings_json",
			mcp.Required(),
			mcp.Description("JSON produced by relnotes_export_preferences"),
		),
	)
}

// Handle processes the relnotes_import_preferences tool call.
func (t *ImportPreferencesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw := strings.TrimSpace(req.GetString("settings_json", ""))
	if raw == "" {
		return mcp.NewToolResultError("'settings_json' is required"), nil
	}
	p, err := t.prefs.Import([]byte(raw))
	if errors.Is(err, prefs.ErrInvalidSettings) {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mutationResult("Preferences imported.", p, err), nil
}
