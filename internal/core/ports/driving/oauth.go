package driving

import (
	"context"

	"github.com/quillhq/docsync/internal/core/domain"
)

// AuthorizeRequest starts the OAuth connect flow for a cloud-drive source.
type AuthorizeRequest struct {
	TenantID    string
	SourceID    string
	RedirectURI string
}

// AuthorizeResponse carries the provider consent URL the operator is sent to.
type AuthorizeResponse struct {
	AuthURL string `json:"auth_url"`
	State   string `json:"state"`
}

// CallbackRequest is the provider redirect back into the engine.
type CallbackRequest struct {
	State string
	Code  string
}

// CallbackResult identifies the source that was connected.
type CallbackResult struct {
	SourceID     string              `json:"source_id"`
	TenantID     string              `json:"tenant_id"`
	ProviderType domain.ProviderType `json:"provider_type"`
	AccountInfo  *domain.AccountInfo `json:"account_info,omitempty"`
}

// OAuthService runs the authorization-code-with-PKCE flow that connects
// cloud-drive sources.
type OAuthService interface {
	// Authorize mints a single-use state record and returns the provider
	// consent URL. Fails with domain.ErrNotConfigured when no app
	// registration exists for the source's provider.
	Authorize(ctx context.Context, req AuthorizeRequest) (*AuthorizeResponse, error)

	// Callback consumes the state, exchanges the code, and stores the
	// refresh token on the source. The state is single-use; replays fail
	// with domain.ErrNotFound.
	Callback(ctx context.Context, req CallbackRequest) (*CallbackResult, error)
}

// ProviderAdminService manages per-provider OAuth app registrations.
type ProviderAdminService interface {
	SaveProviderConfig(ctx context.Context, cfg *domain.ProviderConfig) error
	GetProviderConfig(ctx context.Context, pt domain.ProviderType) (*domain.ProviderConfig, error)
	DeleteProviderConfig(ctx context.Context, pt domain.ProviderType) error
}
