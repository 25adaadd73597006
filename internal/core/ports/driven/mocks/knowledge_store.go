package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/domain"
)

// MockKnowledgeStore is a mock implementation of KnowledgeStore for testing
type MockKnowledgeStore struct {
	mu   sync.RWMutex
	docs map[string]*domain.KnowledgeDocument
}

// NewMockKnowledgeStore creates a new MockKnowledgeStore
func NewMockKnowledgeStore() *MockKnowledgeStore {
	return &MockKnowledgeStore{
		docs: make(map[string]*domain.KnowledgeDocument),
	}
}

func (m *MockKnowledgeStore) Save(ctx context.Context, doc *domain.KnowledgeDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *doc
	m.docs[doc.ID] = &clone
	return nil
}

func (m *MockKnowledgeStore) Get(ctx context.Context, id string) (*domain.KnowledgeDocument, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *doc
	return &clone, nil
}

func (m *MockKnowledgeStore) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*domain.KnowledgeDocument, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*domain.KnowledgeDocument
	for _, doc := range m.docs {
		if activeOnly && !doc.Active {
			continue
		}
		clone := *doc
		result = append(result, &clone)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if offset > 0 {
		if offset >= len(result) {
			return nil, nil
		}
		result = result[offset:]
	}
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *MockKnowledgeStore) ListActiveIDs(ctx context.Context) (map[string]bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make(map[string]bool)
	for id, doc := range m.docs {
		if doc.Active {
			ids[id] = true
		}
	}
	return ids, nil
}

func (m *MockKnowledgeStore) SetActive(ctx context.Context, id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return domain.ErrNotFound
	}
	doc.Active = active
	return nil
}

func (m *MockKnowledgeStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.docs, id)
	return nil
}

func (m *MockKnowledgeStore) Count(ctx context.Context) (int, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	total, active := 0, 0
	for _, doc := range m.docs {
		total++
		if doc.Active {
			active++
		}
	}
	return total, active, nil
}

func (m *MockKnowledgeStore) CategoryCounts(ctx context.Context) (map[string]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := make(map[string]int)
	for _, doc := range m.docs {
		if doc.Category != "" {
			counts[doc.Category]++
		}
	}
	return counts, nil
}
