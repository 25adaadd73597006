package mocks

import (
	"context"
	"sync"

	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/domain"
)

// MockSettingsStore is an in-memory SettingsStore for testing
type MockSettingsStore struct {
	mu         sync.RWMutex
	settings   *domain.Settings
	aiSettings *domain.AISettings
}

// NewMockSettingsStore creates a new MockSettingsStore
func NewMockSettingsStore() *MockSettingsStore {
	return &MockSettingsStore{}
}

func (m *MockSettingsStore) GetSettings(ctx context.Context) (*domain.Settings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.settings == nil {
		return nil, domain.ErrNotFound
	}
	clone := *m.settings
	return &clone, nil
}

func (m *MockSettingsStore) SaveSettings(ctx context.Context, settings *domain.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *settings
	m.settings = &clone
	return nil
}

func (m *MockSettingsStore) GetAISettings(ctx context.Context) (*domain.AISettings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.aiSettings == nil {
		return nil, domain.ErrNotFound
	}
	clone := *m.aiSettings
	return &clone, nil
}

func (m *MockSettingsStore) SaveAISettings(ctx context.Context, settings *domain.AISettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *settings
	m.aiSettings = &clone
	return nil
}
