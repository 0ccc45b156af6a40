package driven

import (
	"context"
	"time"
)

// OAuthState carries one authorization round-trip across the provider
// redirect. Single-use, short-lived.
type OAuthState struct {
	State        string
	SourceID     string
	TenantID     string
	ProviderType string
	CodeVerifier string
	RedirectURI  string
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

// OAuthStateStore persists OAuth flow state between authorize and callback.
type OAuthStateStore interface {
	// Save stores a new state.
	Save(ctx context.Context, state *OAuthState) error

	// GetAndDelete atomically retrieves and consumes the state.
	// Returns nil when the state is unknown or expired.
	GetAndDelete(ctx context.Context, state string) (*OAuthState, error)
}
