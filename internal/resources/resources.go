// Package resources implements MCP resource handlers for the release
// notes dashboard.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (relnotes://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/relnotes/internal/catalog"
	"github.com/HendryAvila/relnotes/internal/prefs"
	"github.com/HendryAvila/relnotes/internal/view"
)

const (
	ProductsURI    = "relnotes://products"
	PreferencesURI = "relnotes://preferences"
	ViewURI        = "relnotes://view"
)

// Snapshotter yields the current preferences.
type Snapshotter interface {
	Snapshot() prefs.Preferences
}

// Handler manages dashboard resource endpoints.
type Handler struct {
	catalog catalog.Store
	prefs   Snapshotter
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(c catalog.Store, p Snapshotter) *Handler {
	return &Handler{catalog: c, prefs: p}
}

// ProductsResource returns the MCP resource definition for the catalog.
func (h *Handler) ProductsResource() mcp.Resource {
	return mcp.NewResource(
		ProductsURI,
		"Release Notes Catalog",
		mcp.WithResourceDescription("Every tracked product with its full list of changes"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleProducts returns the full catalog as JSON.
func (h *Handler) HandleProducts(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonResource(req.Params.URI, h.catalog.Products())
}

// PreferencesResource returns the MCP resource definition for preferences.
func (h *Handler) PreferencesResource() mcp.Resource {
	return mcp.NewResource(
		PreferencesURI,
		"Dashboard Preferences",
		mcp.WithResourceDescription("Favorites, type filters, sort order, favorites-only and dark mode"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandlePreferences returns the current preferences as JSON.
func (h *Handler) HandlePreferences(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonResource(req.Params.URI, h.prefs.Snapshot())
}

// ViewResource returns the MCP resource definition for the derived view.
func (h *Handler) ViewResource() mcp.Resource {
	return mcp.NewResource(
		ViewURI,
		"Dashboard View",
		mcp.WithResourceDescription("Products and changes visible under the current preferences, in display order"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleView returns the derived view as JSON.
func (h *Handler) HandleView(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonResource(req.Params.URI, view.Compute(h.catalog.Products(), h.prefs.Snapshot()))
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
