// Package connectors wires the per-provider drivers behind the core's
// Connector and OAuth ports and exposes a single registry the services
// resolve providers through.
package connectors

import (
	"context"
	"fmt"
	"sync"

	"github.com/quillhq/docsync/internal/core/domain"
	"github.com/quillhq/docsync/internal/core/ports/driven"
)

// CreateFunc builds a provider connector for one source with its resolved
// credential.
type CreateFunc func(ctx context.Context, source *domain.Source, cred driven.ResolvedCredential) (driven.Connector, error)

// Factory is a registry of connector constructors and OAuth handlers keyed
// by provider type.
type Factory struct {
	mu       sync.RWMutex
	creators map[domain.ProviderType]CreateFunc
	oauth    map[domain.ProviderType]OAuthHandler
}

var _ driven.ConnectorFactory = (*Factory)(nil)

// NewFactory returns an empty registry.
func NewFactory() *Factory {
	return &Factory{
		creators: make(map[domain.ProviderType]CreateFunc),
		oauth:    make(map[domain.ProviderType]OAuthHandler),
	}
}

// Register adds a connector constructor for a provider type.
func (f *Factory) Register(pt domain.ProviderType, create CreateFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creators[pt] = create
}

// RegisterOAuthHandler adds the OAuth handler for a cloud-drive provider.
func (f *Factory) RegisterOAuthHandler(pt domain.ProviderType, h OAuthHandler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.oauth[pt] = h
}

// Create builds a connector for the source's provider.
func (f *Factory) Create(ctx context.Context, source *domain.Source, cred driven.ResolvedCredential) (driven.Connector, error) {
	f.mu.RLock()
	create, ok := f.creators[source.ProviderType]
	f.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("provider %s: %w", source.ProviderType, domain.ErrUnsupportedProvider)
	}
	return create(ctx, source, cred)
}

// SupportedTypes lists the registered provider types.
func (f *Factory) SupportedTypes() []domain.ProviderType {
	f.mu.RLock()
	defer f.mu.RUnlock()
	types := make([]domain.ProviderType, 0, len(f.creators))
	for pt := range f.creators {
		types = append(types, pt)
	}
	return types
}

// GetOAuthHandler returns the OAuth handler for a provider, or an
// ErrUnsupportedProvider error when none is registered.
func (f *Factory) GetOAuthHandler(pt domain.ProviderType) (OAuthHandler, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	h, ok := f.oauth[pt]
	if !ok {
		return nil, fmt.Errorf("no oauth handler for provider %s: %w", pt, domain.ErrUnsupportedProvider)
	}
	return h, nil
}
