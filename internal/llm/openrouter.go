package llm

import "fmt"

const defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

// OpenRouterProvider routes requests through OpenRouter's OpenAI-compatible
// API. Model IDs are vendor-prefixed, e.g. "anthropic/claude-sonnet-4-5",
// and pass through untouched.
type OpenRouterProvider struct {
	*OpenAIProvider
}

// NewOpenRouterProvider creates a provider targeting the OpenRouter API.
func NewOpenRouterProvider(cfg OpenRouterConfig) (*OpenRouterProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openrouter API key is required")
	}

	base := cfg.BaseURL
	if base == "" {
		base = defaultOpenRouterBaseURL
	}

	inner, err := newOpenAIClient(OpenAIConfig{
		APIKey:  cfg.APIKey,
		BaseURL: base,
	}, cfg.Model)
	if err != nil {
		return nil, err
	}

	return &OpenRouterProvider{OpenAIProvider: inner}, nil
}
