package dropbox

import (
	"context"
	"fmt"
	"time"

	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/users"
	"golang.org/x/oauth2"

	"github.com/quillhq/docsync/internal/adapters/driven/connectors"
	"github.com/quillhq/docsync/internal/core/domain"
)

var endpoint = oauth2.Endpoint{
	AuthURL:  "https://www.dropbox.com/oauth2/authorize",
	TokenURL: "https://api.dropboxapi.com/oauth2/token",
}

// OAuthHandler implements the Dropbox authorization-code flow with PKCE.
type OAuthHandler struct{}

var _ connectors.OAuthHandler = (*OAuthHandler)(nil)

// NewOAuthHandler returns the Dropbox OAuth handler.
func NewOAuthHandler() *OAuthHandler {
	return &OAuthHandler{}
}

// DefaultScopes requests read-only file and account access.
func (h *OAuthHandler) DefaultScopes() []string {
	return []string{"files.content.read", "files.metadata.read", "account_info.read"}
}

func oauthConfig(cfg connectors.OAuthConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Scopes:       cfg.Scopes,
		Endpoint:     endpoint,
	}
}

// BuildAuthURL returns the consent URL. token_access_type=offline makes
// Dropbox issue a refresh token.
func (h *OAuthHandler) BuildAuthURL(cfg connectors.OAuthConfig, state, codeChallenge string) string {
	return oauthConfig(cfg).AuthCodeURL(state,
		oauth2.SetAuthURLParam("token_access_type", "offline"),
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
		return nil, domain.NewConnectorError(domain.ProviderTypeDropbox, "oauth_exchange", err)
	}
	if tok.RefreshToken == "" {
		return nil, domain.NewConnectorError(domain.ProviderTypeDropbox, "oauth_exchange",
			fmt.Errorf("provider returned no refresh token"))
	}
	return fromToken(tok), nil
}

// RefreshToken obtains a fresh access token. Dropbox refresh tokens are
// long-lived and the refresh response never rotates them.
func (h *OAuthHandler) RefreshToken(ctx context.Context, cfg connectors.OAuthConfig, refreshToken string) (*connectors.OAuthToken, error) {
	ts := oauthConfig(cfg).TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	tok, err := ts.Token()
	if err != nil {
		return nil, domain.NewConnectorError(domain.ProviderTypeDropbox, "oauth_refresh", err)
	}
	return fromToken(tok), nil
}

// GetUserInfo identifies the connected Dropbox account.
func (h *OAuthHandler) GetUserInfo(ctx context.Context, accessToken string) (*domain.AccountInfo, error) {
	client := users.New(dropbox.Config{Token: accessToken, LogLevel: dropbox.LogOff})
	acct, err := client.GetCurrentAccount()
	if err != nil {
		return nil, domain.NewConnectorError(domain.ProviderTypeDropbox, "user_info", err)
	}
	info := &domain.AccountInfo{Email: acct.Email}
	if acct.Name != nil {
		info.DisplayName = acct.Name.DisplayName
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
