package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/quillhq/docsync/internal/core/domain"
	"github.com/quillhq/docsync/internal/core/ports/driven"
	"github.com/quillhq/docsync/internal/core/ports/driving"
)

// ProviderAdmin manages per-provider OAuth app registrations.
type ProviderAdmin struct {
	store  driven.ProviderConfigStore
	logger *slog.Logger
}

var _ driving.ProviderAdminService = (*ProviderAdmin)(nil)

// NewProviderAdmin creates the provider registration service.
func NewProviderAdmin(store driven.ProviderConfigStore, logger *slog.Logger) *ProviderAdmin {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProviderAdmin{store: store, logger: logger}
}

// SaveProviderConfig stores an OAuth app registration for a cloud provider.
func (p *ProviderAdmin) SaveProviderConfig(ctx context.Context, cfg *domain.ProviderConfig) error {
	if !cfg.ProviderType.IsCloudDrive() {
		return fmt.Errorf("provider %s needs no app registration: %w", cfg.ProviderType, domain.ErrInvalidInput)
	}
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return fmt.Errorf("client id and secret required: %w", domain.ErrInvalidInput)
	}
	if err := p.store.Save(ctx, cfg); err != nil {
		return fmt.Errorf("save provider config: %w", err)
	}
	p.logger.Info("provider config saved", "provider", cfg.ProviderType, "enabled", cfg.Enabled)
	return nil
}

// GetProviderConfig returns a registration with the client secret blanked.
func (p *ProviderAdmin) GetProviderConfig(ctx context.Context, pt domain.ProviderType) (*domain.ProviderConfig, error) {
	cfg, err := p.store.Get(ctx, pt)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, domain.ErrNotFound
	}
	cfg.ClientSecret = ""
	return cfg, nil
}

// DeleteProviderConfig removes a registration. Existing source refresh
// tokens become unusable at their next refresh.
func (p *ProviderAdmin) DeleteProviderConfig(ctx context.Context, pt domain.ProviderType) error {
	if err := p.store.Delete(ctx, pt); err != nil {
		return err
	}
	p.logger.Info("provider config deleted", "provider", pt)
	return nil
}
