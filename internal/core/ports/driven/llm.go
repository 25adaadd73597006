package driven

import (
	"context"
)

// CompletionOptions tunes a single LLM call
type CompletionOptions struct {
	// Temperature controls sampling randomness (0 = deterministic)
	Temperature float64

	// JSONMode requests a JSON object response where the provider supports it
	JSONMode bool

	// MaxTokens caps the response length (0 = provider default)
	MaxTokens int
}

// LLMService provides chat completions for email analysis and reply generation
type LLMService interface {
	// Complete runs a single system+user prompt and returns the raw response text
	Complete(ctx context.Context, system, user string, opts CompletionOptions) (string, error)

	// Model returns the model name being used
	Model() string

	// Ping verifies the LLM service is available
	Ping(ctx context.Context) error

	// Close releases resources held by the LLM service
	Close() error
}
