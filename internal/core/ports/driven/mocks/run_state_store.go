package mocks

import (
	"context"
	"sync"

	"github.com/quillhq/docsync/internal/core/domain"
)

// MockRunStateStore is a mock implementation of RunStateStore for testing
type MockRunStateStore struct {
	mu     sync.RWMutex
	states map[string]*domain.RunState
}

// NewMockRunStateStore creates a new MockRunStateStore
func NewMockRunStateStore() *MockRunStateStore {
	return &MockRunStateStore{
		states: make(map[string]*domain.RunState),
	}
}

func (m *MockRunStateStore) Save(ctx context.Context, state *domain.RunState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *state
	m.states[state.SourceID] = &cp
	return nil
}

func (m *MockRunStateStore) Get(ctx context.Context, sourceID string) (*domain.RunState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.states[sourceID]
	if !ok {
		return nil, nil
	}
	cp := *state
	return &cp, nil
}

func (m *MockRunStateStore) Delete(ctx context.Context, sourceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, sourceID)
	return nil
}
