package llm

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Provider is the single abstraction the capability layer talks to.
// Implementations exist for Anthropic, OpenAI, Gemini, and OpenRouter,
// plus a deterministic mock for tests.
type Provider interface {
	// Generate sends one prompt and returns the model's output. When the
	// request carries a Schema, the provider asks for structured output
	// and validates the result against it before returning.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured with.
	ModelID() string
}

// Request describes one generation call.
type Request struct {
	// System sets the model's role and constraints.
	System string

	// Messages is the conversation so far. Most capabilities send a single
	// user message; the interview judge sends question and answer turns.
	Messages []Message

	// Schema, when set, is the JSON Schema the response must conform to.
	// When nil the response Content is the raw text.
	Schema *Schema

	// MaxTokens caps the response length.
	MaxTokens int

	// Temperature controls randomness, 0.0 to 1.0. Zero means deterministic.
	Temperature float64
}

// Message is a single turn in the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema defines the JSON structure expected back from the model.
// A Schema compiles itself at most once, so share schemas as package-level
// pointers rather than rebuilding them per call.
type Schema struct {
	// Name identifies the schema in provider structured-output requests.
	// Kebab-case, e.g. "skill-mentions".
	Name string

	// Description tells the model what the object represents.
	Description string

	// Definition is the JSON Schema definition as a map.
	Definition map[string]any

	once       sync.Once
	compiled   *jsonschema.Schema
	compileErr error
}

// Response holds the model's output.
type Response struct {
	// Content is the generated output. With a Schema on the request this
	// is the validated JSON object; without one it is the raw text.
	Content json.RawMessage

	// Usage reports token consumption for this request.
	Usage Usage

	// Model is the model that actually served the request.
	Model string

	// StopReason is normalized to "end" or "max_tokens".
	StopReason string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
