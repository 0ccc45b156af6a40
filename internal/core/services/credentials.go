package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/quillhq/docsync/internal/adapters/driven/connectors"
	"github.com/quillhq/docsync/internal/core/domain"
	"github.com/quillhq/docsync/internal/core/ports/driven"
)

// refreshSkew refreshes access tokens this long before they expire.
const refreshSkew = 2 * time.Minute

// CredentialResolver turns a source's stored secrets into a ready-to-use
// connector credential. Transfer secrets pass straight through; cloud
// sources get their access token refreshed when missing or near expiry.
// Refreshed access tokens live in memory only and are never written back.
type CredentialResolver struct {
	providerConfigs driven.ProviderConfigStore
	factory         *connectors.Factory
	logger          *slog.Logger
}

// CredentialResolverConfig holds dependencies for CredentialResolver.
type CredentialResolverConfig struct {
	ProviderConfigStore driven.ProviderConfigStore
	ConnectorFactory    *connectors.Factory
	Logger              *slog.Logger
}

// NewCredentialResolver creates a credential resolver.
func NewCredentialResolver(cfg CredentialResolverConfig) *CredentialResolver {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &CredentialResolver{
		providerConfigs: cfg.ProviderConfigStore,
		factory:         cfg.ConnectorFactory,
		logger:          logger,
	}
}

// Resolve produces the credential a connector for this source needs.
// The source must carry decrypted secrets.
func (r *CredentialResolver) Resolve(ctx context.Context, source *domain.Source) (driven.ResolvedCredential, error) {
	if source.ProviderType.IsTransfer() {
		if source.Secrets == nil {
			return driven.ResolvedCredential{}, fmt.Errorf("source %s: %w", source.ID, domain.ErrNotConnected)
		}
		return driven.ResolvedCredential{Secrets: source.Secrets}, nil
	}

	token, err := r.accessToken(ctx, source)
	if err != nil {
		return driven.ResolvedCredential{}, err
	}
	return driven.ResolvedCredential{AccessToken: token}, nil
}

func (r *CredentialResolver) accessToken(ctx context.Context, source *domain.Source) (string, error) {
	secrets := source.Secrets
	if secrets == nil || secrets.RefreshToken == "" {
		return "", fmt.Errorf("source %s: %w", source.ID, domain.ErrNotConnected)
	}

	// Reuse a still-valid access token from the same decrypted record.
	if secrets.AccessToken != "" && secrets.TokenExpiry != nil &&
		time.Until(*secrets.TokenExpiry) > refreshSkew {
		return secrets.AccessToken, nil
	}

	oauthCfg, err := r.oauthConfig(ctx, source.ProviderType)
	if err != nil {
		return "", err
	}

	handler, err := r.factory.GetOAuthHandler(source.ProviderType)
	if err != nil {
		return "", err
	}

	tok, err := handler.RefreshToken(ctx, oauthCfg, secrets.RefreshToken)
	if err != nil {
		r.logger.Warn("token refresh rejected",
			"source_id", source.ID,
			"provider", source.ProviderType,
			"error", err,
		)
		return "", fmt.Errorf("refresh token for source %s: %w", source.ID, domain.ErrReauthRequired)
	}
	return tok.AccessToken, nil
}

// oauthConfig loads the provider's app registration, failing with
// ErrNotConfigured when absent or disabled.
func (r *CredentialResolver) oauthConfig(ctx context.Context, pt domain.ProviderType) (connectors.OAuthConfig, error) {
	cfg, err := r.providerConfigs.Get(ctx, pt)
	if err != nil {
		return connectors.OAuthConfig{}, fmt.Errorf("get provider config: %w", err)
	}
	if cfg == nil || !cfg.Enabled || !cfg.IsConfigured() {
		return connectors.OAuthConfig{}, fmt.Errorf("provider %s: %w", pt, domain.ErrNotConfigured)
	}
	return connectors.OAuthConfig{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
	}, nil
}
