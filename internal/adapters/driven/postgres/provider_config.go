package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/quillhq/docsync/internal/core/domain"
	"github.com/quillhq/docsync/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ProviderConfigStore = (*ProviderConfigStore)(nil)

// ProviderConfigStore implements driven.ProviderConfigStore using
// PostgreSQL. Client secrets are encrypted at rest.
type ProviderConfigStore struct {
	db        *DB
	encryptor *SecretEncryptor
}

// NewProviderConfigStore creates a ProviderConfigStore.
func NewProviderConfigStore(db *DB, encryptor *SecretEncryptor) *ProviderConfigStore {
	return &ProviderConfigStore{db: db, encryptor: encryptor}
}

// Save upserts an OAuth app registration.
func (s *ProviderConfigStore) Save(ctx context.Context, cfg *domain.ProviderConfig) error {
	secretBlob, err := s.encryptor.Encrypt(cfg.ClientSecret)
	if err != nil {
		return fmt.Errorf("encrypt client secret: %w", err)
	}

	query := `
		INSERT INTO provider_configs (provider_type, client_id, client_secret, enabled, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (provider_type) DO UPDATE SET
			client_id = EXCLUDED.client_id,
			client_secret = EXCLUDED.client_secret,
			enabled = EXCLUDED.enabled,
			updated_at = NOW()
	`
	_, err = s.db.ExecContext(ctx, query,
		string(cfg.ProviderType), cfg.ClientID, secretBlob, cfg.Enabled)
	return err
}

// Get retrieves a registration with the client secret decrypted.
// Returns nil when the provider has no registration.
func (s *ProviderConfigStore) Get(ctx context.Context, providerType domain.ProviderType) (*domain.ProviderConfig, error) {
	query := `
		SELECT provider_type, client_id, client_secret, enabled
		FROM provider_configs
		WHERE provider_type = $1
	`
	var cfg domain.ProviderConfig
	var secretBlob []byte
	err := s.db.QueryRowContext(ctx, query, string(providerType)).Scan(
		&cfg.ProviderType,
		&cfg.ClientID,
		&secretBlob,
		&cfg.Enabled,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := s.encryptor.Decrypt(secretBlob, &cfg.ClientSecret); err != nil {
		return nil, fmt.Errorf("decrypt client secret: %w", err)
	}
	return &cfg, nil
}

// Delete removes a registration.
func (s *ProviderConfigStore) Delete(ctx context.Context, providerType domain.ProviderType) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM provider_configs WHERE provider_type = $1`, string(providerType))
	if err != nil {
		return err
	}
	return checkAffected(res)
}
