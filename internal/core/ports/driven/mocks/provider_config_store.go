package mocks

import (
	"context"
	"sync"

	"github.com/quillhq/docsync/internal/core/domain"
)

// MockProviderConfigStore is a mock implementation of ProviderConfigStore
// for testing
type MockProviderConfigStore struct {
	mu      sync.RWMutex
	configs map[domain.ProviderType]*domain.ProviderConfig
}

// NewMockProviderConfigStore creates a new MockProviderConfigStore
func NewMockProviderConfigStore() *MockProviderConfigStore {
	return &MockProviderConfigStore{
		configs: make(map[domain.ProviderType]*domain.ProviderConfig),
	}
}

func (m *MockProviderConfigStore) Save(ctx context.Context, cfg *domain.ProviderConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *cfg
	m.configs[cfg.ProviderType] = &cp
	return nil
}

func (m *MockProviderConfigStore) Get(ctx context.Context, providerType domain.ProviderType) (*domain.ProviderConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cfg, ok := m.configs[providerType]
	if !ok {
		return nil, nil
	}
	cp := *cfg
	return &cp, nil
}

func (m *MockProviderConfigStore) Delete(ctx context.Context, providerType domain.ProviderType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.configs, providerType)
	return nil
}
