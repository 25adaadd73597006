package mocks

import (
	"context"
	"sync"

	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/domain"
	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/ports/driven"
)

// MockMailProvider is a mock implementation of MailProvider for testing.
// Queue messages with AddUnread; sent messages and read marks are recorded
// for assertions.
type MockMailProvider struct {
	mu       sync.Mutex
	unread   []*domain.InboundMessage
	sent     []*driven.OutboundMessage
	drafts   []*driven.OutboundMessage
	read     map[string]bool
	fetchErr error
	sendErr  error
}

// NewMockMailProvider creates a new MockMailProvider
func NewMockMailProvider() *MockMailProvider {
	return &MockMailProvider{
		read: make(map[string]bool),
	}
}

func (m *MockMailProvider) Provider() string {
	return "mock"
}

func (m *MockMailProvider) FetchUnread(ctx context.Context, limit int) ([]*domain.InboundMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	if limit <= 0 || limit > len(m.unread) {
		limit = len(m.unread)
	}
	return append([]*domain.InboundMessage(nil), m.unread[:limit]...), nil
}

func (m *MockMailProvider) MarkRead(ctx context.Context, externalID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.read[externalID] = true

	remaining := m.unread[:0]
	for _, msg := range m.unread {
		if msg.ExternalID != externalID {
			remaining = append(remaining, msg)
		}
	}
	m.unread = remaining
	return nil
}

func (m *MockMailProvider) Send(ctx context.Context, msg *driven.OutboundMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *MockMailProvider) SaveDraft(ctx context.Context, msg *driven.OutboundMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drafts = append(m.drafts, msg)
	return nil
}

func (m *MockMailProvider) TestConnection(ctx context.Context) error {
	return nil
}

func (m *MockMailProvider) Close() error {
	return nil
}

// Helper methods for testing

// AddUnread queues a message for the next FetchUnread.
func (m *MockMailProvider) AddUnread(msg *domain.InboundMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unread = append(m.unread, msg)
}

// Sent returns all dispatched messages.
func (m *MockMailProvider) Sent() []*driven.OutboundMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*driven.OutboundMessage(nil), m.sent...)
}

// Drafts returns all messages saved as drafts.
func (m *MockMailProvider) Drafts() []*driven.OutboundMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*driven.OutboundMessage(nil), m.drafts...)
}

// WasRead reports whether MarkRead was called for the external ID.
func (m *MockMailProvider) WasRead(externalID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.read[externalID]
}

// SetFetchError makes FetchUnread fail with err.
func (m *MockMailProvider) SetFetchError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchErr = err
}

// SetSendError makes Send fail with err.
func (m *MockMailProvider) SetSendError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendErr = err
}
