package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/quillhq/docsync/internal/core/domain"
)

// MockIdentityStore is a mock implementation of IdentityStore for testing
type MockIdentityStore struct {
	mu         sync.RWMutex
	identities map[string]*domain.Identity

	ExistsErr error
	RecordErr error
}

// NewMockIdentityStore creates a new MockIdentityStore
func NewMockIdentityStore() *MockIdentityStore {
	return &MockIdentityStore{
		identities: make(map[string]*domain.Identity),
	}
}

func identityKey(id domain.Identity) string {
	return fmt.Sprintf("%s|%s|%d|%d", id.SourceID, id.RemoteRef, id.Size, id.ModifiedAt.UTC().Unix())
}

func (m *MockIdentityStore) Exists(ctx context.Context, id domain.Identity) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ExistsErr != nil {
		return false, m.ExistsErr
	}
	_, ok := m.identities[identityKey(id)]
	return ok, nil
}

func (m *MockIdentityStore) Record(ctx context.Context, id *domain.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RecordErr != nil {
		return m.RecordErr
	}
	key := identityKey(*id)
	if _, ok := m.identities[key]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *id
	m.identities[key] = &cp
	return nil
}

func (m *MockIdentityStore) DeleteBySource(ctx context.Context, sourceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, id := range m.identities {
		if id.SourceID == sourceID {
			delete(m.identities, key)
		}
	}
	return nil
}

// Helper methods for testing

func (m *MockIdentityStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.identities)
}

// Seed records an identity without the insert-if-absent check.
func (m *MockIdentityStore) Seed(id domain.Identity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.identities[identityKey(id)] = &id
}
