package aisearch

import (
	"context"
	"fmt"
)

// Providers.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// NewGenerator builds the generator for provider. An empty apiKey is
// not an error: it returns a nil Generator and the Service falls back
// to mock answers.
func NewGenerator(ctx context.Context, provider, apiKey, model, baseURL string) (Generator, error) {
	if apiKey == "" {
		return nil, nil
	}
	switch provider {
	case ProviderGemini, "":
		g, err := NewGeminiGenerator(ctx, apiKey, model)
		if err != nil {
			return nil, err
		}
		return g, nil
	case ProviderOpenAI:
		g, err := NewOpenAIGenerator(apiKey, model, baseURL)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q: must be one of: gemini, openai", provider)
	}
}
