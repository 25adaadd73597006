package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/domain"
	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/ports/driven"
)

// MockEmailStore is a mock implementation of EmailStore for testing
type MockEmailStore struct {
	mu       sync.RWMutex
	records  map[string]*domain.EmailRecord
	failNext error
}

// NewMockEmailStore creates a new MockEmailStore
func NewMockEmailStore() *MockEmailStore {
	return &MockEmailStore{
		records: make(map[string]*domain.EmailRecord),
	}
}

func (m *MockEmailStore) Save(ctx context.Context, rec *domain.EmailRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}
	clone := *rec
	m.records[rec.ID] = &clone
	return nil
}

func (m *MockEmailStore) Get(ctx context.Context, id string) (*domain.EmailRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *rec
	return &clone, nil
}

func (m *MockEmailStore) GetByExternalID(ctx context.Context, externalID string) (*domain.EmailRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, rec := range m.records {
		if rec.ExternalID == externalID {
			clone := *rec
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockEmailStore) ExistsByExternalID(ctx context.Context, externalID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.takeFailure(); err != nil {
		return false, err
	}
	for _, rec := range m.records {
		if rec.ExternalID == externalID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockEmailStore) List(ctx context.Context, filter driven.EmailFilter) ([]*domain.EmailRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*domain.EmailRecord
	for _, rec := range m.records {
		if filter.Status != "" && rec.Status != filter.Status {
			continue
		}
		if filter.Priority != "" && rec.Priority != filter.Priority {
			continue
		}
		if filter.Sender != "" && rec.Sender != filter.Sender {
			continue
		}
		clone := *rec
		result = append(result, &clone)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ReceivedAt.After(result[j].ReceivedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return nil, nil
		}
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (m *MockEmailStore) ListProcessedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*domain.EmailRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*domain.EmailRecord
	for _, rec := range m.records {
		if !rec.Status.IsTerminal() {
			continue
		}
		if rec.ProcessedAt == nil || !rec.ProcessedAt.Before(cutoff) {
			continue
		}
		clone := *rec
		result = append(result, &clone)
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}

func (m *MockEmailStore) ListRespondedSince(ctx context.Context, cutoff time.Time, limit int) ([]*domain.EmailRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*domain.EmailRecord
	for _, rec := range m.records {
		if rec.Status != domain.EmailStatusResponded {
			continue
		}
		if rec.ProcessedAt == nil || rec.ProcessedAt.Before(cutoff) {
			continue
		}
		clone := *rec
		result = append(result, &clone)
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}

func (m *MockEmailStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.records, id)
	return nil
}

func (m *MockEmailStore) Count(ctx context.Context, filter driven.EmailFilter) (int, error) {
	records, err := m.List(ctx, driven.EmailFilter{Status: filter.Status, Priority: filter.Priority, Sender: filter.Sender})
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

func (m *MockEmailStore) Stats(ctx context.Context) (*domain.EmailStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &domain.EmailStats{
		ByStatus:   make(map[domain.EmailStatus]int),
		ByPriority: make(map[domain.Priority]int),
	}
	for _, rec := range m.records {
		stats.Total++
		stats.ByStatus[rec.Status]++
		stats.ByPriority[rec.Priority]++
	}
	return stats, nil
}

// Helper methods for testing

// SetFailNext makes the next Save or ExistsByExternalID call fail with err.
func (m *MockEmailStore) SetFailNext(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = err
}

func (m *MockEmailStore) takeFailure() error {
	err := m.failNext
	m.failNext = nil
	return err
}

// StoredCount returns the number of stored records.
func (m *MockEmailStore) StoredCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// MockResponseStore is a mock implementation of ResponseStore for testing
type MockResponseStore struct {
	mu        sync.RWMutex
	responses map[string]*domain.ResponseRecord
	failNext  error
}

// NewMockResponseStore creates a new MockResponseStore
func NewMockResponseStore() *MockResponseStore {
	return &MockResponseStore{
		responses: make(map[string]*domain.ResponseRecord),
	}
}

func (m *MockResponseStore) Save(ctx context.Context, rec *domain.ResponseRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failNext; err != nil {
		m.failNext = nil
		return err
	}
	clone := *rec
	m.responses[rec.ID] = &clone
	return nil
}

func (m *MockResponseStore) Get(ctx context.Context, id string) (*domain.ResponseRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.responses[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *rec
	return &clone, nil
}

func (m *MockResponseStore) GetByEmail(ctx context.Context, emailID string) ([]*domain.ResponseRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*domain.ResponseRecord
	for _, rec := range m.responses {
		if rec.EmailID == emailID {
			clone := *rec
			result = append(result, &clone)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (m *MockResponseStore) GetLatestByEmail(ctx context.Context, emailID string) (*domain.ResponseRecord, error) {
	responses, err := m.GetByEmail(ctx, emailID)
	if err != nil {
		return nil, err
	}
	if len(responses) == 0 {
		return nil, domain.ErrNotFound
	}
	return responses[0], nil
}

func (m *MockResponseStore) MarkSent(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.responses[id]
	if !ok {
		return domain.ErrNotFound
	}
	rec.MarkSent()
	return nil
}

func (m *MockResponseStore) DeleteByEmail(ctx context.Context, emailID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, rec := range m.responses {
		if rec.EmailID == emailID {
			delete(m.responses, id)
		}
	}
	return nil
}

// SetFailNext makes the next Save fail with err.
func (m *MockResponseStore) SetFailNext(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = err
}

func (m *MockResponseStore) Count(ctx context.Context) (int, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	total, sent := 0, 0
	for _, rec := range m.responses {
		total++
		if rec.Sent {
			sent++
		}
	}
	return total, sent, nil
}
