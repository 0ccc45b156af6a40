package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/quillhq/docsync/internal/adapters/driven/connectors"
	"github.com/quillhq/docsync/internal/core/domain"
	"github.com/quillhq/docsync/internal/core/ports/driven"
	"github.com/quillhq/docsync/internal/core/ports/driving"
)

// oauthStateTTL bounds how long a consent round-trip may take.
const oauthStateTTL = 10 * time.Minute

// OAuthFlow implements the authorization-code-with-PKCE flow that connects
// cloud-drive sources. The callback here is the only code path that writes
// a refresh token.
type OAuthFlow struct {
	sources         driven.SourceStore
	providerConfigs driven.ProviderConfigStore
	states          driven.OAuthStateStore
	factory         *connectors.Factory
	baseURL         string
	logger          *slog.Logger
}

var _ driving.OAuthService = (*OAuthFlow)(nil)

// OAuthFlowConfig holds dependencies for OAuthFlow.
type OAuthFlowConfig struct {
	SourceStore         driven.SourceStore
	ProviderConfigStore driven.ProviderConfigStore
	OAuthStateStore     driven.OAuthStateStore
	ConnectorFactory    *connectors.Factory

	// BaseURL is the externally reachable engine URL the provider
	// redirects back to, e.g. "https://sync.example.com".
	BaseURL string

	Logger *slog.Logger
}

// NewOAuthFlow creates the OAuth flow service.
func NewOAuthFlow(cfg OAuthFlowConfig) *OAuthFlow {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &OAuthFlow{
		sources:         cfg.SourceStore,
		providerConfigs: cfg.ProviderConfigStore,
		states:          cfg.OAuthStateStore,
		factory:         cfg.ConnectorFactory,
		baseURL:         cfg.BaseURL,
		logger:          logger,
	}
}

// Authorize mints a single-use state and returns the provider consent URL.
func (f *OAuthFlow) Authorize(ctx context.Context, req driving.AuthorizeRequest) (*driving.AuthorizeResponse, error) {
	source, err := f.sources.Get(ctx, req.TenantID, req.SourceID)
	if err != nil {
		return nil, fmt.Errorf("get source: %w", err)
	}
	if !source.ProviderType.IsCloudDrive() {
		return nil, fmt.Errorf("provider %s does not use OAuth: %w", source.ProviderType, domain.ErrInvalidInput)
	}

	providerCfg, err := f.providerConfig(ctx, source.ProviderType)
	if err != nil {
		return nil, err
	}

	handler, err := f.factory.GetOAuthHandler(source.ProviderType)
	if err != nil {
		return nil, err
	}

	state, err := randomHex(32)
	if err != nil {
		return nil, fmt.Errorf("generate state: %w", err)
	}
	codeVerifier, err := randomHex(48)
	if err != nil {
		return nil, fmt.Errorf("generate code verifier: %w", err)
	}

	redirectURI := req.RedirectURI
	if redirectURI == "" {
		redirectURI = f.baseURL + "/api/v1/oauth/callback"
	}

	now := time.Now().UTC()
	record := &driven.OAuthState{
		State:        state,
		SourceID:     source.ID,
		TenantID:     req.TenantID,
		ProviderType: string(source.ProviderType),
		CodeVerifier: codeVerifier,
		RedirectURI:  redirectURI,
		CreatedAt:    now,
		ExpiresAt:    now.Add(oauthStateTTL),
	}
	if err := f.states.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("save oauth state: %w", err)
	}

	oauthCfg := connectors.OAuthConfig{
		ClientID:     providerCfg.ClientID,
		ClientSecret: providerCfg.ClientSecret,
		RedirectURI:  redirectURI,
		Scopes:       handler.DefaultScopes(),
	}
	authURL := handler.BuildAuthURL(oauthCfg, state, codeChallengeS256(codeVerifier))

	f.logger.Info("oauth authorize started",
		"source_id", source.ID,
		"provider", source.ProviderType,
	)
	return &driving.AuthorizeResponse{AuthURL: authURL, State: state}, nil
}

// Callback consumes the state, exchanges the code, and stores the refresh
// token on the source's secrets.
func (f *OAuthFlow) Callback(ctx context.Context, req driving.CallbackRequest) (*driving.CallbackResult, error) {
	record, err := f.states.GetAndDelete(ctx, req.State)
	if err != nil {
		return nil, fmt.Errorf("get oauth state: %w", err)
	}
	if record == nil || time.Now().After(record.ExpiresAt) {
		return nil, fmt.Errorf("oauth state invalid or expired: %w", domain.ErrNotFound)
	}

	providerType := domain.ProviderType(record.ProviderType)
	providerCfg, err := f.providerConfig(ctx, providerType)
	if err != nil {
		return nil, err
	}
	handler, err := f.factory.GetOAuthHandler(providerType)
	if err != nil {
		return nil, err
	}

	oauthCfg := connectors.OAuthConfig{
		ClientID:     providerCfg.ClientID,
		ClientSecret: providerCfg.ClientSecret,
		RedirectURI:  record.RedirectURI,
		Scopes:       handler.DefaultScopes(),
	}
	token, err := handler.ExchangeCode(ctx, oauthCfg, req.Code, record.CodeVerifier)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	source, err := f.sources.Get(ctx, record.TenantID, record.SourceID)
	if err != nil {
		return nil, fmt.Errorf("get source: %w", err)
	}

	secrets := source.Secrets
	if secrets == nil {
		secrets = &domain.SourceSecrets{}
	}
	secrets.RefreshToken = token.RefreshToken
	secrets.AccessToken = token.AccessToken
	if token.ExpiresIn > 0 {
		expiry := time.Now().UTC().Add(time.Duration(token.ExpiresIn) * time.Second)
		secrets.TokenExpiry = &expiry
	} else {
		secrets.TokenExpiry = nil
	}

	if err := f.sources.UpdateSecrets(ctx, source.ID, secrets); err != nil {
		return nil, fmt.Errorf("store tokens: %w", err)
	}

	result := &driving.CallbackResult{
		SourceID:     source.ID,
		TenantID:     source.TenantID,
		ProviderType: providerType,
	}
	if info, err := handler.GetUserInfo(ctx, token.AccessToken); err == nil {
		result.AccountInfo = info
	} else {
		f.logger.Warn("could not resolve connected account", "source_id", source.ID, "error", err)
	}

	f.logger.Info("oauth connected",
		"source_id", source.ID,
		"provider", providerType,
	)
	return result, nil
}

func (f *OAuthFlow) providerConfig(ctx context.Context, pt domain.ProviderType) (*domain.ProviderConfig, error) {
	cfg, err := f.providerConfigs.Get(ctx, pt)
	if err != nil {
		return nil, fmt.Errorf("get provider config: %w", err)
	}
	if cfg == nil || !cfg.Enabled || !cfg.IsConfigured() {
		return nil, fmt.Errorf("provider %s: %w", pt, domain.ErrNotConfigured)
	}
	return cfg, nil
}

// randomHex returns n random bytes hex-encoded.
func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// codeChallengeS256 derives the PKCE S256 challenge from a verifier.
func codeChallengeS256(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
