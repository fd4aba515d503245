package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/relnotes/internal/catalog"
	"github.com/HendryAvila/relnotes/internal/view"
)

// ─── ListProductsTool ───────────────────────────────────────────────────────

// ListProductsTool handles the relnotes_list_products MCP tool.
type ListProductsTool struct {
	catalog catalog.Store
}

// NewListProductsTool creates a ListProductsTool.
func NewListProductsTool(c catalog.Store) *ListProductsTool {
	return &ListProductsTool{catalog: c}
}

// Definition returns the MCP tool definition for relnotes_list_products.
func (t *ListProductsTool) Definition() mcp.Tool {
	return mcp.NewTool("relnotes_list_products",
		mcp.WithDescription(
			"List every tracked product with its ID, name and number of changes. "+
				"Use the IDs with relnotes_toggle_favorite. Preferences are not applied here; "+
				"use relnotes_view for the filtered dashboard.",
		),
		mcp.WithString("format",
			mcp.Description("'markdown' (default) or 'json' (the raw product array)"),
			mcp.Enum("markdown", "json"),
		),
	)
}

// Handle processes the relnotes_list_products tool call.
func (t *ListProductsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	products := t.catalog.Products()

	if req.GetString("format", "markdown") == "json" {
		data, err := json.MarshalIndent(products, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshaling products: %w", err)
		}
		return mcp.NewToolResultText(string(data)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Products (%d)\n\n", len(products))
	sb.WriteString("| ID | Product | Changes | Latest |\n|----|---------|---------|--------|\n")
	for _, p := range products {
		latest := "n/a"
		if len(p.Changes) > 0 {
			latest = p.Changes[0].Day()
		}
		fmt.Fprintf(&sb, "| %s | %s %s | %d | %s |\n", p.ID, p.Icon, p.Name, len(p.Changes), latest)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// ─── ViewTool ───────────────────────────────────────────────────────────────

// ViewTool handles the relnotes_view MCP tool. It renders the derived
// view for the current preferences.
type ViewTool struct {
	catalog catalog.Store
	prefs   PreferenceStore
}

// NewViewTool creates a ViewTool.
func NewViewTool(c catalog.Store, p PreferenceStore) *ViewTool {
	return &ViewTool{catalog: c, prefs: p}
}

// Definition returns the MCP tool definition for relnotes_view.
func (t *ViewTool) Definition() mcp.Tool {
	return mcp.NewTool("relnotes_view",
		mcp.WithDescription(
			"Show the release notes dashboard: products scoped to favorites (if enabled), "+
				"changes narrowed to the active type filters, ordered by the chosen sort. "+
				"Reports a 'No Matching Products Found' state when filters exclude everything.",
		),
		mcp.WithNumber("max_changes",
			mcp.Description("Maximum changes listed per product (default 5, 0 = all)"),
		),
		mcp.WithString("format",
			mcp.Description("'markdown' (default) or 'json' (entries with visible changes)"),
			mcp.Enum("markdown", "json"),
		),
	)
}

// Handle processes the relnotes_view tool call.
func (t *ViewTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p := t.prefs.Snapshot()
	entries := view.Compute(t.catalog.Products(), p)

	if req.GetString("format", "markdown") == "json" {
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshaling view: %w", err)
		}
		return mcp.NewToolResultText(string(data)), nil
	}

	limit := int(req.GetFloat("max_changes", 5))
	if limit < 0 {
		return mcp.NewToolResultError("'max_changes' must be zero or positive"), nil
	}
	return mcp.NewToolResultText(formatView(entries, p, limit)), nil
}
