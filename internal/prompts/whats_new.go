// Package prompts implements MCP prompt handlers for the release notes
// dashboard.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// WhatsNewPrompt handles the relnotes-whats-new MCP prompt.
// It asks the AI for a digest of recent changes, optionally narrowed to
// a product or a change type.
type WhatsNewPrompt struct{}

// NewWhatsNewPrompt creates a WhatsNewPrompt.
func NewWhatsNewPrompt() *WhatsNewPrompt {
	return &WhatsNewPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *WhatsNewPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("relnotes-whats-new",
		mcp.WithPromptDescription(
			"Summarize what changed recently across the tracked products. "+
				"Optionally focus on a single product or change type.",
		),
		mcp.WithArgument("product",
			mcp.ArgumentDescription("Product name or ID to focus on (default: all products)"),
		),
		mcp.WithArgument("type",
			mcp.ArgumentDescription("Change type to focus on, e.g. 'Security' or 'GA' (default: all types)"),
		),
	)
}

// Handle processes the relnotes-whats-new prompt request.
func (p *WhatsNewPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	var product, typ string
	if args := req.Params.Arguments; args != nil {
		product = args["product"]
		typ = args["type"]
	}

	scope := "all tracked products"
	if product != "" {
		scope = fmt.Sprintf("the product '%s'", product)
	}
	focus := ""
	if typ != "" {
		focus = fmt.Sprintf(" Only consider changes of type '%s'.", typ)
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("What's new in %s", scope),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"Give me a digest of the latest release notes for %s.%s\n\n"+
						"Please:\n"+
						"1. Run `relnotes_view` with format='json' and max_changes=0 to see what my current preferences show\n"+
						"2. If that view is empty, run `relnotes_list_products` with format='json' instead\n"+
						"3. Group the changes by product, newest first, with the date and type of each\n"+
						"4. Call out Security Bulletins and Deprecations first, since they may need action\n"+
						"5. Only use the data the tools return. Do not invent changes.",
					scope, focus,
				)),
			},
		},
	}, nil
}
