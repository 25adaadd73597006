package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockDistributedLock tracks named locks in memory with TTL expiry, standing
// in for the Redis and Postgres lock adapters in scheduler tests.
type MockDistributedLock struct {
	mu       sync.Mutex
	locks    map[string]time.Time
	failNext error
}

// NewMockDistributedLock creates a mock distributed lock
func NewMockDistributedLock() *MockDistributedLock {
	return &MockDistributedLock{
		locks: make(map[string]time.Time),
	}
}

func (m *MockDistributedLock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.takeError(); err != nil {
		return false, err
	}

	if expiry, held := m.locks[name]; held && time.Now().Before(expiry) {
		return false, nil
	}
	m.locks[name] = time.Now().Add(ttl)
	return true, nil
}

func (m *MockDistributedLock) Release(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.takeError(); err != nil {
		return err
	}

	delete(m.locks, name)
	return nil
}

func (m *MockDistributedLock) Extend(ctx context.Context, name string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.takeError(); err != nil {
		return err
	}

	expiry, held := m.locks[name]
	if !held || time.Now().After(expiry) {
		return fmt.Errorf("lock %s not held", name)
	}
	m.locks[name] = time.Now().Add(ttl)
	return nil
}

func (m *MockDistributedLock) Ping(ctx context.Context) error {
	return nil
}

func (m *MockDistributedLock) takeError() error {
	err := m.failNext
	m.failNext = nil
	return err
}

// Test hooks

// SetFailNext makes the next lock operation fail with err.
func (m *MockDistributedLock) SetFailNext(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = err
}

// SetHeld marks a lock as held by another instance for the given TTL.
func (m *MockDistributedLock) SetHeld(name string, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locks[name] = time.Now().Add(ttl)
}

// IsHeld reports whether a lock is currently held.
func (m *MockDistributedLock) IsHeld(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	expiry, held := m.locks[name]
	return held && time.Now().Before(expiry)
}
