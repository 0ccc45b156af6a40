package driven

import (
	"context"
	"time"

	"github.com/quillhq/docsync/internal/core/domain"
)

// SourceStore persists source configurations, scoped by tenant.
// Retrieval returns sources with decrypted secrets; services strip secrets
// before anything crosses the driving boundary.
type SourceStore interface {
	// Save creates or updates a source, encrypting its secrets at rest.
	Save(ctx context.Context, source *domain.Source) error

	// Get retrieves a tenant's source by id, with decrypted secrets.
	Get(ctx context.Context, tenantID, id string) (*domain.Source, error)

	// GetByID retrieves a source by id alone, with decrypted secrets.
	// Used by the scheduler, which runs outside any tenant request.
	GetByID(ctx context.Context, id string) (*domain.Source, error)

	// List retrieves a tenant's sources, newest first. Listed sources carry
	// no secrets.
	List(ctx context.Context, tenantID string) ([]*domain.Source, error)

	// ListDue retrieves enabled sources whose schedule interval has elapsed
	// at now, across tenants.
	ListDue(ctx context.Context, now time.Time) ([]*domain.Source, error)

	// UpdateLastRun sets the last-run timestamp. Last-write-wins.
	UpdateLastRun(ctx context.Context, id string, at time.Time) error

	// UpdateSecrets replaces the source's encrypted secrets.
	UpdateSecrets(ctx context.Context, id string, secrets *domain.SourceSecrets) error

	// Delete removes the source. The caller is responsible for deleting the
	// source's identity ledger in the same operation.
	Delete(ctx context.Context, tenantID, id string) error
}

// RunStateStore persists the most recent run per source.
type RunStateStore interface {
	// Save upserts the run state for a source.
	Save(ctx context.Context, state *domain.RunState) error

	// Get retrieves the run state for a source, or nil if it never ran.
	Get(ctx context.Context, sourceID string) (*domain.RunState, error)

	// Delete removes the run state for a source.
	Delete(ctx context.Context, sourceID string) error
}

// ProviderConfigStore persists OAuth app registrations per cloud provider.
type ProviderConfigStore interface {
	Save(ctx context.Context, cfg *domain.ProviderConfig) error
	Get(ctx context.Context, providerType domain.ProviderType) (*domain.ProviderConfig, error)
	Delete(ctx context.Context, providerType domain.ProviderType) error
}
