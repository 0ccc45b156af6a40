package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/quillhq/docsync/internal/adapters/driven/connectors"
	"github.com/quillhq/docsync/internal/core/domain"
	"github.com/quillhq/docsync/internal/core/ports/driven/mocks"
)

func createTestCredentialResolver(t *testing.T) (*CredentialResolver, *mocks.MockProviderConfigStore, *stubOAuthHandler) {
	t.Helper()

	providerConfigs := mocks.NewMockProviderConfigStore()
	handler := &stubOAuthHandler{}

	factory := connectors.NewFactory()
	factory.RegisterOAuthHandler(domain.ProviderTypeGoogleDrive, handler)

	resolver := NewCredentialResolver(CredentialResolverConfig{
		ProviderConfigStore: providerConfigs,
		ConnectorFactory:    factory,
	})
	return resolver, providerConfigs, handler
}

func TestResolve_TransferSecretsPassThrough(t *testing.T) {
	resolver, _, _ := createTestCredentialResolver(t)

	source := testSFTPSource()
	cred, err := resolver.Resolve(context.Background(), source)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cred.Secrets == nil || cred.Secrets.Password != source.Secrets.Password {
		t.Errorf("expected stored secrets passed through, got %+v", cred.Secrets)
	}
}

func TestResolve_TransferWithoutSecrets(t *testing.T) {
	resolver, _, _ := createTestCredentialResolver(t)

	source := testSFTPSource()
	source.Secrets = nil
	_, err := resolver.Resolve(context.Background(), source)
	if !errors.Is(err, domain.ErrNotConnected) {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
}

func TestResolve_CloudWithoutRefreshToken(t *testing.T) {
	resolver, _, _ := createTestCredentialResolver(t)

	source := driveSource()
	source.Secrets = &domain.SourceSecrets{}
	_, err := resolver.Resolve(context.Background(), source)
	if !errors.Is(err, domain.ErrNotConnected) {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
}

func TestResolve_ReusesValidAccessToken(t *testing.T) {
	resolver, _, handler := createTestCredentialResolver(t)
	handler.refreshErr = errors.New("refresh must not be called")

	expiry := time.Now().Add(time.Hour)
	source := driveSource()
	source.Secrets = &domain.SourceSecrets{
		RefreshToken: "refresh-token",
		AccessToken:  "cached-token",
		TokenExpiry:  &expiry,
	}

	cred, err := resolver.Resolve(context.Background(), source)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cred.AccessToken != "cached-token" {
		t.Errorf("expected cached token reused, got %q", cred.AccessToken)
	}
}

func TestResolve_RefreshesNearExpiryToken(t *testing.T) {
	resolver, providerConfigs, _ := createTestCredentialResolver(t)
	enableProvider(t, providerConfigs)

	// Inside the refresh skew window: the cached token is not trusted.
	expiry := time.Now().Add(30 * time.Second)
	source := driveSource()
	source.Secrets = &domain.SourceSecrets{
		RefreshToken: "refresh-token",
		AccessToken:  "stale-token",
		TokenExpiry:  &expiry,
	}

	cred, err := resolver.Resolve(context.Background(), source)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cred.AccessToken != "refreshed" {
		t.Errorf("expected refreshed token, got %q", cred.AccessToken)
	}
}

func TestResolve_RefreshRejectedNeedsReauth(t *testing.T) {
	resolver, providerConfigs, handler := createTestCredentialResolver(t)
	enableProvider(t, providerConfigs)
	handler.refreshErr = errors.New("invalid_grant")

	source := driveSource()
	source.Secrets = &domain.SourceSecrets{RefreshToken: "revoked-token"}

	_, err := resolver.Resolve(context.Background(), source)
	if !errors.Is(err, domain.ErrReauthRequired) {
		t.Errorf("expected ErrReauthRequired, got %v", err)
	}
}

func TestResolve_ProviderNotConfigured(t *testing.T) {
	resolver, _, _ := createTestCredentialResolver(t)

	source := driveSource()
	source.Secrets = &domain.SourceSecrets{RefreshToken: "refresh-token"}

	_, err := resolver.Resolve(context.Background(), source)
	if !errors.Is(err, domain.ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}

func TestResolve_DisabledProviderNotConfigured(t *testing.T) {
	resolver, providerConfigs, _ := createTestCredentialResolver(t)
	_ = providerConfigs.Save(context.Background(), &domain.ProviderConfig{
		ProviderType: domain.ProviderTypeGoogleDrive,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Enabled:      false,
	})

	source := driveSource()
	source.Secrets = &domain.SourceSecrets{RefreshToken: "refresh-token"}

	_, err := resolver.Resolve(context.Background(), source)
	if !errors.Is(err, domain.ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}
