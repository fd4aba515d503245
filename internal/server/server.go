// Package server wires all MCP components and creates the server instance.
//
// This is the composition root for the MCP surface: it takes the shared
// catalog, preference store and AI service and injects them into the
// tools, prompts and resources that depend on them. No business logic
// lives here, only wiring.
package server

import (
	"errors"

	"github.com/mark3labs/mcp-go/server"

	"github.com/HendryAvila/relnotes/internal/aisearch"
	"github.com/HendryAvila/relnotes/internal/catalog"
	"github.com/HendryAvila/relnotes/internal/prompts"
	"github.com/HendryAvila/relnotes/internal/resources"
	"github.com/HendryAvila/relnotes/internal/tools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Deps are the shared components the MCP surface is built from. The
// caller owns their lifecycle.
type Deps struct {
	Catalog catalog.Store
	Prefs   tools.PreferenceStore
	AI      *aisearch.Service
}

// New creates and configures the MCP server with all tools, prompts,
// and resources registered.
func New(d Deps) (*server.MCPServer, error) {
	if d.Catalog == nil || d.Prefs == nil {
		return nil, errors.New("server: catalog and preference store are required")
	}
	if d.AI == nil {
		d.AI = aisearch.New(nil, nil)
	}

	s := server.NewMCPServer(
		"relnotes",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Register catalog tools ---

	listTool := tools.NewListProductsTool(d.Catalog)
	s.AddTool(listTool.Definition(), listTool.Handle)

	viewTool := tools.NewViewTool(d.Catalog, d.Prefs)
	s.AddTool(viewTool.Definition(), viewTool.Handle)

	searchTool := tools.NewAISearchTool(d.Catalog, d.AI)
	s.AddTool(searchTool.Definition(), searchTool.Handle)

	// --- Register preference tools ---

	favTool := tools.NewToggleFavoriteTool(d.Catalog, d.Prefs)
	s.AddTool(favTool.Definition(), favTool.Handle)

	filterTool := tools.NewToggleTypeFilterTool(d.Prefs)
	s.AddTool(filterTool.Definition(), filterTool.Handle)

	clearTool := tools.NewClearTypeFiltersTool(d.Prefs)
	s.AddTool(clearTool.Definition(), clearTool.Handle)

	sortTool := tools.NewSetSortTool(d.Prefs)
	s.AddTool(sortTool.Definition(), sortTool.Handle)

	favOnlyTool := tools.NewSetFavoritesOnlyTool(d.Prefs)
	s.AddTool(favOnlyTool.Definition(), favOnlyTool.Handle)

	darkTool := tools.NewSetDarkModeTool(d.Prefs)
	s.AddTool(darkTool.Definition(), darkTool.Handle)

	exportTool := tools.NewExportPreferencesTool(d.Prefs)
	s.AddTool(exportTool.Definition(), exportTool.Handle)

	importTool := tools.NewImportPreferencesTool(d.Prefs)
	s.AddTool(importTool.Definition(), importTool.Handle)

	// --- Register prompts ---

	whatsNew := prompts.NewWhatsNewPrompt()
	s.AddPrompt(whatsNew.Definition(), whatsNew.Handle)

	statusPrompt := prompts.NewStatusPrompt()
	s.AddPrompt(statusPrompt.Definition(), statusPrompt.Handle)

	// --- Register resources ---

	rh := resources.NewHandler(d.Catalog, d.Prefs)
	s.AddResource(rh.ProductsResource(), rh.HandleProducts)
	s.AddResource(rh.PreferencesResource(), rh.HandlePreferences)
	s.AddResource(rh.ViewResource(), rh.HandleView)

	return s, nil
}

// serverInstructions returns the system instructions that tell the AI
// how to use the release notes tools.
func serverInstructions() string {
	return `You have access to relnotes, a release notes dashboard for cloud products.

## WHAT IT HOLDS

A fixed catalog of products. Each product has dated changes, and each change
has one type: General Availability, Preview, Bug Fix, New Feature,
Deprecation or Security Bulletin.

The user also has persistent preferences: favorite products, active type
filters, a sort order (recent or alphabetical), a favorites-only toggle and
dark mode.

## HOW TO ANSWER QUESTIONS

- "What's new?" or "show me the dashboard": call relnotes_view. It applies the
  user's preferences, so what you see is what they see.
- Questions about one product: call relnotes_list_products to find its ID,
  then relnotes_view with format='json' or read relnotes://products.
- Open-ended questions ("any security fixes this month?"): call
  relnotes_ai_search. Answer only from what it returns.

## CHANGING PREFERENCES

Preferences persist across sessions. Only change them when the user asks.
- relnotes_toggle_favorite / relnotes_set_favorites_only
- relnotes_toggle_type_filter / relnotes_clear_type_filters
- relnotes_set_sort / relnotes_set_dark_mode
- relnotes_export_preferences / relnotes_import_preferences

If relnotes_view reports "No Matching Products Found", tell the user which
setting is hiding everything before changing anything.

## RULES

- Never invent changes, dates or products. The catalog is the only source.
- A preference tool error that says "could not be saved" means the change
  applies to this session only. Tell the user.`
}
