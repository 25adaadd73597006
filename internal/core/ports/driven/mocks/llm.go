package mocks

import (
	"context"
	"sync"

	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/ports/driven"
)

// MockLLMService is a mock implementation of LLMService for testing.
// Responses are returned in the order they were queued; when the queue is
// empty the default response is returned.
type MockLLMService struct {
	mu              sync.Mutex
	queued          []string
	defaultResponse string
	err             error
	calls           int
}

// NewMockLLMService creates a new MockLLMService
func NewMockLLMService() *MockLLMService {
	return &MockLLMService{
		defaultResponse: "mock response",
	}
}

func (m *MockLLMService) Complete(ctx context.Context, system, user string, opts driven.CompletionOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	if m.err != nil {
		return "", m.err
	}
	if len(m.queued) > 0 {
		response := m.queued[0]
		m.queued = m.queued[1:]
		return response, nil
	}
	return m.defaultResponse, nil
}

func (m *MockLLMService) Model() string {
	return "mock-llm-model"
}

func (m *MockLLMService) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

func (m *MockLLMService) Close() error {
	return nil
}

// Helper methods for testing

// QueueResponse appends a scripted response.
func (m *MockLLMService) QueueResponse(response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queued = append(m.queued, response)
}

// SetDefaultResponse sets the response used when the queue is empty.
func (m *MockLLMService) SetDefaultResponse(response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultResponse = response
}

// SetError makes every call fail with err until cleared.
func (m *MockLLMService) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many completions were requested.
func (m *MockLLMService) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
