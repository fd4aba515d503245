package aisearch

import (
	"fmt"
	"strings"

	"github.com/HendryAvila/relnotes/internal/catalog"
)

const instructions = `You are an expert release notes assistant. Your task is to answer the user's question based *only* on the provided release note data.
Do not use any external knowledge.
Format your answer clearly using Markdown (e.g., lists, bold text) to make it easy to read.
If the data does not contain an answer to the question, politely state that you couldn't find the information in the recent release notes.`

// BuildContext renders products as the data block of the prompt:
//
//	Product: <name>
//	- (<YYYY-MM-DD>, <type>): <description>
//
// with a blank line between products.
func BuildContext(products []catalog.Product) string {
	blocks := make([]string, 0, len(products))
	for _, p := range products {
		var b strings.Builder
		fmt.Fprintf(&b, "Product: %s", p.Name)
		for _, c := range p.Changes {
			fmt.Fprintf(&b, "\n- (%s, %s): %s", c.Day(), c.Type, c.Description)
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}

// BuildPrompt assembles the full instruction, data block and question.
func BuildPrompt(query string, products []catalog.Product) string {
	var b strings.Builder
	b.WriteString(instructions)
	b.WriteString("\n\nHere is the release note data:\n---\n")
	b.WriteString(BuildContext(products))
	b.WriteString("\n---\n\n")
	fmt.Fprintf(&b, "User's question: \"%s\"\n", query)
	return b.String()
}

// FallbackAnswer is the mock answer returned when no generator is
// configured. It always quotes the query.
func FallbackAnswer(query string) string {
	return fmt.Sprintf("This is a mock AI response for your query: \"%s\". "+
		"To get real answers, please ensure your API key is configured correctly. "+
		"For example, I could tell you about the latest security updates or new features in Preview.", query)
}
