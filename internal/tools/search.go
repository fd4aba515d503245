package tools

import (
	"context"
	"errors"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/relnotes/internal/aisearch"
	"github.com/HendryAvila/relnotes/internal/catalog"
)

// AISearchTool handles the relnotes_ai_search MCP tool.
type AISearchTool struct {
	catalog catalog.Store
	ai      *aisearch.Service
}

// NewAISearchTool creates an AISearchTool.
func NewAISearchTool(c catalog.Store, ai *aisearch.Service) *AISearchTool {
	return &AISearchTool{catalog: c, ai: ai}
}

// Definition returns the MCP tool definition for relnotes_ai_search.
func (t *AISearchTool) Definition() mcp.Tool {
	return mcp.NewTool("relnotes_ai_search",
		mcp.WithDescription(
			"Ask a natural-language question about the release notes. The answer is "+
				"generated only from the tracked products and their changes, in Markdown. "+
				"Without a configured API key a clearly labelled mock answer is returned.",
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The question, e.g. 'What security fixes shipped this month?'"),
		),
	)
}

// Handle processes the relnotes_ai_search tool call.
func (t *AISearchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := strings.TrimSpace(req.GetString("query", ""))

	answer, err := t.ai.Ask(ctx, query, t.catalog.Products())
	switch {
	case errors.Is(err, aisearch.ErrEmptyQuery):
		return mcp.NewToolResultError("'query' is required: ask a question about the release notes"), nil
	case err != nil:
		return mcp.NewToolResultError(aisearch.FailureMessage), nil
	}

	if answer.Fallback {
		return mcp.NewToolResultText("> **Mock answer** (no AI credential configured)\n\n" + answer.Text), nil
	}
	return mcp.NewToolResultText(answer.Text), nil
}
