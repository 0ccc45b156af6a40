package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/quillhq/docsync/internal/core/domain"
	"github.com/quillhq/docsync/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.SourceStore = (*SourceStore)(nil)

// SourceStore implements driven.SourceStore using PostgreSQL.
// Secrets are encrypted as one blob before storage.
type SourceStore struct {
	db        *DB
	encryptor *SecretEncryptor
}

// NewSourceStore creates a SourceStore.
func NewSourceStore(db *DB, encryptor *SecretEncryptor) *SourceStore {
	return &SourceStore{db: db, encryptor: encryptor}
}

const sourceColumns = `id, tenant_id, name, provider_type, enabled, interval_minutes,
       last_run_at, config, secrets, created_at, updated_at, created_by`

// Listing never needs credentials; selecting NULL skips decryption per row.
const sourceColumnsNoSecrets = `id, tenant_id, name, provider_type, enabled, interval_minutes,
       last_run_at, config, NULL, created_at, updated_at, created_by`

// Save creates or updates a source.
func (s *SourceStore) Save(ctx context.Context, source *domain.Source) error {
	configJSON, err := json.Marshal(source.Config)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	var secretsBlob []byte
	if source.Secrets != nil {
		secretsBlob, err = s.encryptor.Encrypt(source.Secrets)
		if err != nil {
			return fmt.Errorf("encrypt secrets: %w", err)
		}
	}

	query := `
		INSERT INTO sources (id, tenant_id, name, provider_type, enabled, interval_minutes,
		                     last_run_at, config, secrets, created_at, updated_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			provider_type = EXCLUDED.provider_type,
			enabled = EXCLUDED.enabled,
			interval_minutes = EXCLUDED.interval_minutes,
			config = EXCLUDED.config,
			secrets = COALESCE(EXCLUDED.secrets, sources.secrets),
			updated_at = EXCLUDED.updated_at
	`

	_, err = s.db.ExecContext(ctx, query,
		source.ID,
		source.TenantID,
		source.Name,
		string(source.ProviderType),
		source.Enabled,
		source.IntervalMinutes,
		NullTime(source.LastRunAt),
		configJSON,
		secretsBlob,
		source.CreatedAt,
		source.UpdatedAt,
		source.CreatedBy,
	)
	return err
}

// Get retrieves a tenant's source by id, with decrypted secrets.
func (s *SourceStore) Get(ctx context.Context, tenantID, id string) (*domain.Source, error) {
	query := `SELECT ` + sourceColumns + ` FROM sources WHERE tenant_id = $1 AND id = $2`
	return s.scanOne(s.db.QueryRowContext(ctx, query, tenantID, id))
}

// GetByID retrieves a source by id alone, with decrypted secrets.
func (s *SourceStore) GetByID(ctx context.Context, id string) (*domain.Source, error) {
	query := `SELECT ` + sourceColumns + ` FROM sources WHERE id = $1`
	return s.scanOne(s.db.QueryRowContext(ctx, query, id))
}

// List retrieves a tenant's sources, newest first, without secrets.
func (s *SourceStore) List(ctx context.Context, tenantID string) ([]*domain.Source, error) {
	query := `SELECT ` + sourceColumnsNoSecrets + ` FROM sources WHERE tenant_id = $1 ORDER BY created_at DESC`
	rows, err := s.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return s.scanAll(rows)
}

// ListDue retrieves enabled sources whose schedule interval has elapsed.
func (s *SourceStore) ListDue(ctx context.Context, now time.Time) ([]*domain.Source, error) {
	query := `SELECT ` + sourceColumns + `
		FROM sources
		WHERE enabled = TRUE
		  AND interval_minutes > 0
		  AND (last_run_at IS NULL
		       OR last_run_at + (interval_minutes * INTERVAL '1 minute') <= $1)
		ORDER BY last_run_at NULLS FIRST
	`
	rows, err := s.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return s.scanAll(rows)
}

// UpdateLastRun sets the last-run timestamp. Last-write-wins.
func (s *SourceStore) UpdateLastRun(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sources SET last_run_at = $2, updated_at = NOW() WHERE id = $1`, id, at)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

// UpdateSecrets replaces the source's encrypted secrets blob.
func (s *SourceStore) UpdateSecrets(ctx context.Context, id string, secrets *domain.SourceSecrets) error {
	blob, err := s.encryptor.Encrypt(secrets)
	if err != nil {
		return fmt.Errorf("encrypt secrets: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE sources SET secrets = $2, updated_at = NOW() WHERE id = $1`, id, blob)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

// Delete removes a tenant's source.
func (s *SourceStore) Delete(ctx context.Context, tenantID, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM sources WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (s *SourceStore) scanOne(row *sql.Row) (*domain.Source, error) {
	source, err := scanSource(row.Scan, s.encryptor)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	return source, err
}

func (s *SourceStore) scanAll(rows *sql.Rows) ([]*domain.Source, error) {
	var sources []*domain.Source
	for rows.Next() {
		source, err := scanSource(rows.Scan, s.encryptor)
		if err != nil {
			return nil, err
		}
		sources = append(sources, source)
	}
	return sources, rows.Err()
}

func scanSource(scan func(...any) error, encryptor *SecretEncryptor) (*domain.Source, error) {
	var source domain.Source
	var configJSON, secretsBlob []byte
	var lastRunAt sql.NullTime

	err := scan(
		&source.ID,
		&source.TenantID,
		&source.Name,
		&source.ProviderType,
		&source.Enabled,
		&source.IntervalMinutes,
		&lastRunAt,
		&configJSON,
		&secretsBlob,
		&source.CreatedAt,
		&source.UpdatedAt,
		&source.CreatedBy,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(configJSON, &source.Config); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	source.LastRunAt = TimePtr(lastRunAt)

	if len(secretsBlob) > 0 {
		var secrets domain.SourceSecrets
		if err := encryptor.Decrypt(secretsBlob, &secrets); err != nil {
			return nil, fmt.Errorf("decrypt secrets for source %s: %w", source.ID, err)
		}
		source.Secrets = &secrets
	}
	return &source, nil
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
