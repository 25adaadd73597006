package mail

import (
	"context"
	"fmt"
	"sync"

	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/domain"
	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/ports/driven"
)

// Ensure MockProvider implements MailProvider
var _ driven.MailProvider = (*MockProvider)(nil)

// MockProvider is an in-memory mail provider for local development and tests.
// Seeded messages are served by FetchUnread until marked read; sent messages
// are collected for inspection.
type MockProvider struct {
	mu      sync.Mutex
	inbox   []*domain.InboundMessage
	read    map[string]bool
	sent    []*driven.OutboundMessage
	drafts  []*driven.OutboundMessage
	sendErr error
}

// NewMockProvider creates an empty mock mailbox
func NewMockProvider() *MockProvider {
	return &MockProvider{
		read: make(map[string]bool),
	}
}

// Seed adds a message to the mock inbox
func (m *MockProvider) Seed(msg *domain.InboundMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inbox = append(m.inbox, msg)
}

// FailSends makes every subsequent Send return the given error
func (m *MockProvider) FailSends(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendErr = err
}

// Sent returns a copy of all dispatched messages
func (m *MockProvider) Sent() []*driven.OutboundMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*driven.OutboundMessage, len(m.sent))
	copy(out, m.sent)
	return out
}

// Provider returns the provider name
func (m *MockProvider) Provider() string {
	return "mock"
}

// FetchUnread retrieves up to limit unread messages from the mock inbox
func (m *MockProvider) FetchUnread(ctx context.Context, limit int) ([]*domain.InboundMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*domain.InboundMessage
	for _, msg := range m.inbox {
		if m.read[msg.ExternalID] {
			continue
		}
		out = append(out, msg)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// MarkRead marks a message as read in the mock inbox
func (m *MockProvider) MarkRead(ctx context.Context, externalID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, msg := range m.inbox {
		if msg.ExternalID == externalID {
			m.read[externalID] = true
			return nil
		}
	}
	return fmt.Errorf("message %s: %w", externalID, domain.ErrNotFound)
}

// Send records an outbound message
func (m *MockProvider) Send(ctx context.Context, msg *driven.OutboundMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, msg)
	return nil
}

// SaveDraft records an outbound message as a draft
func (m *MockProvider) SaveDraft(ctx context.Context, msg *driven.OutboundMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drafts = append(m.drafts, msg)
	return nil
}

// Drafts returns a copy of all saved drafts
func (m *MockProvider) Drafts() []*driven.OutboundMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*driven.OutboundMessage, len(m.drafts))
	copy(out, m.drafts)
	return out
}

// TestConnection always succeeds
func (m *MockProvider) TestConnection(ctx context.Context) error {
	return nil
}

// Close releases nothing
func (m *MockProvider) Close() error {
	return nil
}
