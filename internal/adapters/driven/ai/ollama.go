package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms/ollama"

	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/ports/driven"
)

// Ensure interface compliance
var (
	_ driven.EmbeddingService = (*OllamaEmbedding)(nil)
	_ driven.LLMService       = (*OllamaLLM)(nil)
)

// Known dimensions for common Ollama embedding models
var ollamaModelDimensions = map[string]int{
	"nomic-embed-text":  768,
	"mxbai-embed-large": 1024,
	"all-minilm":        384,
}

// OllamaEmbedding implements EmbeddingService against a local Ollama server
type OllamaEmbedding struct {
	llm        *ollama.LLM
	model      string
	dimensions int
}

// NewOllamaEmbedding creates a new Ollama embedding service
func NewOllamaEmbedding(baseURL, model string) (driven.EmbeddingService, error) {
	if model == "" {
		model = "nomic-embed-text"
	}
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	llm, err := ollama.New(
		ollama.WithServerURL(baseURL),
		ollama.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("create Ollama client: %w", err)
	}

	dimensions, ok := ollamaModelDimensions[model]
	if !ok {
		dimensions = 768
	}

	return &OllamaEmbedding{
		llm:        llm,
		model:      model,
		dimensions: dimensions,
	}, nil
}

// Embed generates embeddings for multiple texts
func (e *OllamaEmbedding) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	return e.llm.CreateEmbedding(ctx, texts)
}

// EmbedQuery generates an embedding for a search query
func (e *OllamaEmbedding) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	embeddings, err := e.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("no embedding returned for query")
	}
	return embeddings[0], nil
}

// Dimensions returns the embedding dimension size
func (e *OllamaEmbedding) Dimensions() int {
	return e.dimensions
}

// Model returns the model name being used
func (e *OllamaEmbedding) Model() string {
	return e.model
}

// HealthCheck verifies the embedding service is available
func (e *OllamaEmbedding) HealthCheck(ctx context.Context) error {
	_, err := e.EmbedQuery(ctx, "health check")
	return err
}

// Close releases resources held by the embedding service
func (e *OllamaEmbedding) Close() error {
	return nil
}

// OllamaLLM implements LLMService against a local Ollama server
type OllamaLLM struct {
	llm     *ollama.LLM
	model   string
	timeout time.Duration
}

// NewOllamaLLM creates a new Ollama chat completion service.
// A timeout of zero selects the default per-call limit.
func NewOllamaLLM(baseURL, model string, timeout time.Duration) (driven.LLMService, error) {
	if model == "" {
		model = "llama3"
	}
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if timeout <= 0 {
		timeout = defaultLLMTimeout
	}

	llm, err := ollama.New(
		ollama.WithServerURL(baseURL),
		ollama.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("create Ollama client: %w", err)
	}

	return &OllamaLLM{llm: llm, model: model, timeout: timeout}, nil
}

// Complete runs a single system+user prompt and returns the raw response text.
// The call is bounded by the configured timeout whatever the caller's context.
func (o *OllamaLLM) Complete(ctx context.Context, system, user string, opts driven.CompletionOptions) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	return generateContent(ctx, o.llm, system, user, opts)
}

// Model returns the model name being used
func (o *OllamaLLM) Model() string {
	return o.model
}

// Ping verifies the LLM service is available
func (o *OllamaLLM) Ping(ctx context.Context) error {
	_, err := o.Complete(ctx, "", "ping", driven.CompletionOptions{MaxTokens: 1})
	return err
}

// Close releases resources held by the LLM service
func (o *OllamaLLM) Close() error {
	return nil
}
