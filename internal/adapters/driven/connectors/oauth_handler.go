package connectors

import (
	"context"

	"github.com/quillhq/docsync/internal/core/domain"
)

// OAuthToken is a provider token response in neutral form.
type OAuthToken struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
	TokenType    string
	Scope        string
}

// OAuthConfig carries the app registration and flow parameters a handler
// needs to build and complete an authorization.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string
}

// OAuthHandler implements one provider's authorization-code flow. All
// handlers use PKCE; providers that ignore the verifier simply do so.
type OAuthHandler interface {
	// DefaultScopes returns the scopes the engine requests for this
	// provider. Read-only access where the provider offers it.
	DefaultScopes() []string

	// BuildAuthURL returns the consent URL for the given state and PKCE
	// challenge.
	BuildAuthURL(cfg OAuthConfig, state, codeChallenge string) string

	// ExchangeCode swaps an authorization code for tokens.
	ExchangeCode(ctx context.Context, cfg OAuthConfig, code, codeVerifier string) (*OAuthToken, error)

	// RefreshToken obtains a fresh access token from a refresh token.
	RefreshToken(ctx context.Context, cfg OAuthConfig, refreshToken string) (*OAuthToken, error)

	// GetUserInfo identifies the connected account with the access token.
	GetUserInfo(ctx context.Context, accessToken string) (*domain.AccountInfo, error)
}
