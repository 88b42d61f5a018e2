// File: api/schemas/interfaces.go
package schemas

import "context"

// GenerationOptions provides parameters to control the text generation
// process of a backend, such as creativity (temperature) and output length.
type GenerationOptions struct {
	Temperature float64 `json:"temperature"` // Controls randomness. Lower is more deterministic.
	MaxTokens   int     `json:"max_tokens"`  // Upper bound on generated tokens. 0 uses the provider default.
}

// GenerationRequest encapsulates a complete request to a generative backend:
// the system and user prompts plus generation options.
type GenerationRequest struct {
	SystemPrompt string            `json:"system_prompt"`
	UserPrompt   string            `json:"user_prompt"`
	Options      GenerationOptions `json:"options"`
}

// LLMClient defines a standard interface for interacting with a generative
// backend, abstracting the specifics of the underlying provider. A raised
// error is recorded per candidate by the aggregator and never aborts the
// sibling calls.
type LLMClient interface {
	// Generate produces a text completion based on the provided request.
	Generate(ctx context.Context, req GenerationRequest) (string, error)
	// Close cleans up any resources held by the client.
	Close() error
}
