package driving

import (
	"context"

	"github.com/quillhq/docsync/internal/core/domain"
)

// SourceInput is the payload for creating or updating a source.
// Secret fields are applied when non-nil and otherwise preserved, so a save
// never has to round-trip secrets through the caller.
type SourceInput struct {
	Name            string                `json:"name"`
	ProviderType    domain.ProviderType   `json:"provider_type"`
	Enabled         *bool                 `json:"enabled,omitempty"`
	IntervalMinutes int                   `json:"interval_minutes"`
	Config          domain.SourceConfig   `json:"config"`
	Secrets         *domain.SourceSecrets `json:"secrets,omitempty"`
}

// ConnectionStatus reports whether a source holds a usable credential, how
// many documents it has imported and, for cloud drives, which account it is
// connected as.
type ConnectionStatus struct {
	Connected         bool                `json:"connected"`
	ImportedDocuments int                 `json:"imported_documents"`
	AccountInfo       *domain.AccountInfo `json:"account_info,omitempty"`
}

// SourceService is the registry boundary: CRUD over source configurations
// plus the side-effecting operations around credentials.
type SourceService interface {
	// List returns a tenant's sources as safe summaries.
	List(ctx context.Context, tenantID string) ([]*domain.SourceSummary, error)

	// Get returns a tenant's source without secrets.
	Get(ctx context.Context, tenantID, id string) (*domain.Source, error)

	// Upsert validates the provider-specific config shape and persists the
	// source, returning its id.
	Upsert(ctx context.Context, tenantID, creatorID, id string, input SourceInput) (string, error)

	// Delete removes the source together with its dedup ledger history.
	Delete(ctx context.Context, tenantID, id string) error

	// Disconnect clears the stored OAuth tokens without deleting the source.
	Disconnect(ctx context.Context, tenantID, id string) error

	// RotateRunSecret generates a new external run-hook secret, stores only
	// its hash, and returns the plaintext exactly once.
	RotateRunSecret(ctx context.Context, tenantID, id string) (string, error)

	// VerifyRunSecret checks a presented run-hook secret against the stored
	// hash. Used by the externally-triggered run endpoint.
	VerifyRunSecret(ctx context.Context, sourceID, secret string) (*domain.Source, error)

	// GetConnectionStatus reports connectivity and, for cloud drives, the
	// connected account.
	GetConnectionStatus(ctx context.Context, tenantID, id string) (*ConnectionStatus, error)

	// ListRemoteFolders browses one folder level of a cloud source.
	// Each call is stateless; parent "" means the account root.
	ListRemoteFolders(ctx context.Context, tenantID, id, parent string) ([]domain.Folder, error)

	// SelectFolder persists the operator's folder pick into the config.
	SelectFolder(ctx context.Context, tenantID, id, folderID, folderName string) error
}
