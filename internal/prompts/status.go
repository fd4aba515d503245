package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// StatusPrompt handles the relnotes-status MCP prompt.
// It instructs the AI to read and present the current dashboard settings.
type StatusPrompt struct{}

// NewStatusPrompt creates a StatusPrompt.
func NewStatusPrompt() *StatusPrompt {
	return &StatusPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StatusPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("relnotes-status",
		mcp.WithPromptDescription(
			"Show the current dashboard settings: favorites, active filters, "+
				"sort order and how many products are visible.",
		),
	)
}

// Handle processes the relnotes-status prompt request.
func (p *StatusPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Release Notes Dashboard Status",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"Please run `relnotes_view` to check my release notes dashboard.\n\n" +
						"Then:\n" +
						"1. Tell me my favorites, active type filters, sort order and whether favorites-only is on\n" +
						"2. Tell me how many products and changes are visible\n" +
						"3. If nothing is visible, explain which setting is hiding everything and how to undo it\n" +
						"4. Suggest one or two tools I might use next",
				),
			},
		},
	}, nil
}
