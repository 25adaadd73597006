package mocks

import (
	"context"
	"hash/fnv"
)

// MockEmbeddingService produces deterministic vectors seeded from the text
// hash, so the same chunk always lands at the same point in the index and
// search assertions stay stable across runs.
type MockEmbeddingService struct {
	dimensions int
	model      string
	failNext   error
}

// NewMockEmbeddingService creates a mock embedding service
func NewMockEmbeddingService() *MockEmbeddingService {
	return &MockEmbeddingService{
		dimensions: 384,
		model:      "mock-embedding-model",
	}
}

func (m *MockEmbeddingService) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := m.takeError(); err != nil {
		return nil, err
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = m.vectorFor(text)
	}
	return vectors, nil
}

func (m *MockEmbeddingService) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	if err := m.takeError(); err != nil {
		return nil, err
	}
	return m.vectorFor(query), nil
}

func (m *MockEmbeddingService) Dimensions() int {
	return m.dimensions
}

func (m *MockEmbeddingService) Model() string {
	return m.model
}

func (m *MockEmbeddingService) HealthCheck(ctx context.Context) error {
	return nil
}

func (m *MockEmbeddingService) Close() error {
	return nil
}

func (m *MockEmbeddingService) takeError() error {
	err := m.failNext
	m.failNext = nil
	return err
}

// vectorFor derives a pseudo-random but stable vector from the text
func (m *MockEmbeddingService) vectorFor(text string) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	vector := make([]float32, m.dimensions)
	for i := range vector {
		seed = seed*1103515245 + 12345
		vector[i] = float32(seed%1000) / 1000.0
	}
	return vector
}

// Test hooks

// SetFailNext makes the next Embed or EmbedQuery call fail with err.
func (m *MockEmbeddingService) SetFailNext(err error) {
	m.failNext = err
}

// SetDimensions changes the vector size produced by the mock.
func (m *MockEmbeddingService) SetDimensions(dim int) {
	m.dimensions = dim
}
