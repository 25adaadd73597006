package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/domain"
)

// MockKnowledgeIndex is an in-memory KnowledgeIndex for testing
type MockKnowledgeIndex struct {
	mu        sync.RWMutex
	dimension int
	vectors   [][]float32
	metas     []*domain.ChunkMeta
}

// NewMockKnowledgeIndex creates a new MockKnowledgeIndex
func NewMockKnowledgeIndex(dimension int) *MockKnowledgeIndex {
	return &MockKnowledgeIndex{dimension: dimension}
}

func (m *MockKnowledgeIndex) Add(ctx context.Context, vectors [][]float32, metas []*domain.ChunkMeta) error {
	if len(vectors) != len(metas) {
		return domain.ErrCountMismatch
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range vectors {
		if len(v) != m.dimension {
			return fmt.Errorf("vector dimension %d: %w", len(v), domain.ErrDimensionMismatch)
		}
	}
	m.vectors = append(m.vectors, vectors...)
	m.metas = append(m.metas, metas...)
	return nil
}

func (m *MockKnowledgeIndex) Search(ctx context.Context, query []float32, k int) ([]*domain.SearchHit, error) {
	if len(query) != m.dimension {
		return nil, domain.ErrDimensionMismatch
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	hits := make([]*domain.SearchHit, 0, len(m.metas))
	for i, v := range m.vectors {
		var dist float32
		for j := range v {
			d := v[j] - query[j]
			dist += d * d
		}
		hits = append(hits, &domain.SearchHit{Chunk: m.metas[i], Distance: dist})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })

	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

func (m *MockKnowledgeIndex) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vectors = nil
	m.metas = nil
	return nil
}

func (m *MockKnowledgeIndex) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.metas), nil
}

func (m *MockKnowledgeIndex) Dimension() int {
	return m.dimension
}

func (m *MockKnowledgeIndex) HealthCheck(ctx context.Context) error {
	return nil
}

func (m *MockKnowledgeIndex) Close() error {
	return nil
}
