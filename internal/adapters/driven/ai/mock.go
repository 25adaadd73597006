package ai

import (
	"context"
	"hash/fnv"

	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/ports/driven"
)

// Ensure interface compliance
var (
	_ driven.EmbeddingService = (*MockEmbedding)(nil)
	_ driven.LLMService       = (*MockLLM)(nil)
)

const mockEmbeddingDimensions = 384

// MockEmbedding is a deterministic embedding service for local development.
// The same text always maps to the same vector, so search behaviour is
// stable without any external provider.
type MockEmbedding struct{}

// NewMockEmbedding creates a mock embedding service
func NewMockEmbedding() *MockEmbedding {
	return &MockEmbedding{}
}

// Embed generates deterministic embeddings for multiple texts
func (m *MockEmbedding) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	result := make([][]float32, len(texts))
	for i, text := range texts {
		result[i] = hashEmbedding(text)
	}
	return result, nil
}

// EmbedQuery generates a deterministic embedding for a search query
func (m *MockEmbedding) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	return hashEmbedding(query), nil
}

// Dimensions returns the embedding dimension size
func (m *MockEmbedding) Dimensions() int {
	return mockEmbeddingDimensions
}

// Model returns the model name being used
func (m *MockEmbedding) Model() string {
	return "mock-embedding"
}

// HealthCheck always succeeds
func (m *MockEmbedding) HealthCheck(ctx context.Context) error {
	return nil
}

// Close releases nothing
func (m *MockEmbedding) Close() error {
	return nil
}

// hashEmbedding expands an FNV hash of the text into a pseudo-random vector
func hashEmbedding(text string) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	embedding := make([]float32, mockEmbeddingDimensions)
	for i := range embedding {
		seed = seed*1103515245 + 12345
		embedding[i] = float32(seed%1000) / 1000.0
	}
	return embedding
}

// MockLLM is a canned-response LLM for local development.
// Classification prompts get a neutral JSON object; everything else gets
// a short acknowledgement.
type MockLLM struct{}

// NewMockLLM creates a mock LLM service
func NewMockLLM() *MockLLM {
	return &MockLLM{}
}

// Complete returns a canned response appropriate to the request shape
func (m *MockLLM) Complete(ctx context.Context, system, user string, opts driven.CompletionOptions) (string, error) {
	if opts.JSONMode {
		return `{"priority": "medium", "category": "general", "keywords": []}`, nil
	}
	return "Thank you for reaching out. We have received your message and will follow up shortly.", nil
}

// Model returns the model name being used
func (m *MockLLM) Model() string {
	return "mock-llm"
}

// Ping always succeeds
func (m *MockLLM) Ping(ctx context.Context) error {
	return nil
}

// Close releases nothing
func (m *MockLLM) Close() error {
	return nil
}
