package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/quillhq/docsync/internal/core/domain"
)

// MockSourceStore is a mock implementation of SourceStore for testing
type MockSourceStore struct {
	mu      sync.RWMutex
	sources map[string]*domain.Source

	SaveErr error
}

// NewMockSourceStore creates a new MockSourceStore
func NewMockSourceStore() *MockSourceStore {
	return &MockSourceStore{
		sources: make(map[string]*domain.Source),
	}
}

func (m *MockSourceStore) Save(ctx context.Context, source *domain.Source) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	cp := *source
	m.sources[source.ID] = &cp
	return nil
}

func (m *MockSourceStore) Get(ctx context.Context, tenantID, id string) (*domain.Source, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	source, ok := m.sources[id]
	if !ok || source.TenantID != tenantID {
		return nil, domain.ErrNotFound
	}
	cp := *source
	return &cp, nil
}

func (m *MockSourceStore) GetByID(ctx context.Context, id string) (*domain.Source, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	source, ok := m.sources[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *source
	return &cp, nil
}

func (m *MockSourceStore) List(ctx context.Context, tenantID string) ([]*domain.Source, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Source
	for _, source := range m.sources {
		if source.TenantID == tenantID {
			cp := *source
			cp.Secrets = nil
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (m *MockSourceStore) ListDue(ctx context.Context, now time.Time) ([]*domain.Source, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Source
	for _, source := range m.sources {
		if source.Enabled && source.IsDue(now) {
			cp := *source
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (m *MockSourceStore) UpdateLastRun(ctx context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	source, ok := m.sources[id]
	if !ok {
		return domain.ErrNotFound
	}
	source.LastRunAt = &at
	return nil
}

func (m *MockSourceStore) UpdateSecrets(ctx context.Context, id string, secrets *domain.SourceSecrets) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	source, ok := m.sources[id]
	if !ok {
		return domain.ErrNotFound
	}
	source.Secrets = secrets
	return nil
}

func (m *MockSourceStore) Delete(ctx context.Context, tenantID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	source, ok := m.sources[id]
	if !ok || source.TenantID != tenantID {
		return domain.ErrNotFound
	}
	delete(m.sources, id)
	return nil
}

// Helper methods for testing

func (m *MockSourceStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sources = make(map[string]*domain.Source)
}

func (m *MockSourceStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sources)
}
