package gdrive

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/quillhq/docsync/internal/adapters/driven/connectors"
	"github.com/quillhq/docsync/internal/core/domain"
)

// OAuthHandler implements the Google authorization-code flow with PKCE.
type OAuthHandler struct{}

var _ connectors.OAuthHandler = (*OAuthHandler)(nil)

// NewOAuthHandler returns the Google OAuth handler.
func NewOAuthHandler() *OAuthHandler {
	return &OAuthHandler{}
}

// DefaultScopes requests read-only Drive access plus the user's email for
// the connection status display.
func (h *OAuthHandler) DefaultScopes() []string {
	return []string{
		drive.DriveReadonlyScope,
		"https://www.googleapis.com/auth/userinfo.email",
	}
}

func oauthConfig(cfg connectors.OAuthConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Scopes:       cfg.Scopes,
		Endpoint:     google.Endpoint,
	}
}

// BuildAuthURL returns the consent URL. access_type=offline with
// prompt=consent forces Google to issue a refresh token on every connect,
// not only the first.
func (h *OAuthHandler) BuildAuthURL(cfg connectors.OAuthConfig, state, codeChallenge string) string {
	return oauthConfig(cfg).AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
		oauth2.SetAuthURLParam("code_challenge", codeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)
}

// ExchangeCode swaps the authorization code for tokens.
func (h *OAuthHandler) ExchangeCode(ctx context.Context, cfg connectors.OAuthConfig, code, codeVerifier string) (*connectors.OAuthToken, error) {
	tok, err := oauthConfig(cfg).Exchange(ctx, code,
		oauth2.SetAuthURLParam("code_verifier", codeVerifier),
	)
	if err != nil {
		return nil, domain.NewConnectorError(domain.ProviderTypeGoogleDrive, "oauth_exchange", err)
	}
	if tok.RefreshToken == "" {
		return nil, domain.NewConnectorError(domain.ProviderTypeGoogleDrive, "oauth_exchange",
			fmt.Errorf("provider returned no refresh token"))
	}
	return fromToken(tok), nil
}

// RefreshToken obtains a fresh access token.
func (h *OAuthHandler) RefreshToken(ctx context.Context, cfg connectors.OAuthConfig, refreshToken string) (*connectors.OAuthToken, error) {
	ts := oauthConfig(cfg).TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	tok, err := ts.Token()
	if err != nil {
		return nil, domain.NewConnectorError(domain.ProviderTypeGoogleDrive, "oauth_refresh", err)
	}
	return fromToken(tok), nil
}

// GetUserInfo identifies the connected Google account via the Drive About
// resource.
func (h *OAuthHandler) GetUserInfo(ctx context.Context, accessToken string) (*domain.AccountInfo, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	svc, err := drive.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, domain.NewConnectorError(domain.ProviderTypeGoogleDrive, "user_info", err)
	}
	about, err := svc.About.Get().Fields("user").Context(ctx).Do()
	if err != nil {
		return nil, domain.NewConnectorError(domain.ProviderTypeGoogleDrive, "user_info", err)
	}
	info := &domain.AccountInfo{}
	if about.User != nil {
		info.Email = about.User.EmailAddress
		info.DisplayName = about.User.DisplayName
	}
	return info, nil
}

func fromToken(tok *oauth2.Token) *connectors.OAuthToken {
	out := &connectors.OAuthToken{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
	}
	if !tok.Expiry.IsZero() {
		out.ExpiresIn = int64(time.Until(tok.Expiry).Seconds())
	}
	return out
}
