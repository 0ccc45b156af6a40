package postgres

import (
	"context"
	"database/sql"

	"github.com/quillhq/docsync/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.OAuthStateStore = (*OAuthStateStore)(nil)

// OAuthStateStore implements driven.OAuthStateStore using PostgreSQL.
type OAuthStateStore struct {
	db *DB
}

// NewOAuthStateStore creates an OAuthStateStore.
func NewOAuthStateStore(db *DB) *OAuthStateStore {
	return &OAuthStateStore{db: db}
}

// Save stores a new OAuth state, clearing expired rows opportunistically.
func (s *OAuthStateStore) Save(ctx context.Context, state *driven.OAuthState) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM oauth_states WHERE expires_at < NOW()`); err != nil {
		return err
	}

	query := `
		INSERT INTO oauth_states (state, source_id, tenant_id, provider_type, code_verifier, redirect_uri, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		state.State,
		state.SourceID,
		state.TenantID,
		state.ProviderType,
		state.CodeVerifier,
		state.RedirectURI,
		state.CreatedAt,
		state.ExpiresAt,
	)
	return err
}

// GetAndDelete atomically retrieves and consumes a state. DELETE with
// RETURNING guarantees single use even under concurrent callbacks.
func (s *OAuthStateStore) GetAndDelete(ctx context.Context, stateValue string) (*driven.OAuthState, error) {
	query := `
		DELETE FROM oauth_states
		WHERE state = $1 AND expires_at > NOW()
		RETURNING state, source_id, tenant_id, provider_type, code_verifier, redirect_uri, created_at, expires_at
	`
	var state driven.OAuthState
	err := s.db.QueryRowContext(ctx, query, stateValue).Scan(
		&state.State,
		&state.SourceID,
		&state.TenantID,
		&state.ProviderType,
		&state.CodeVerifier,
		&state.RedirectURI,
		&state.CreatedAt,
		&state.ExpiresAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}
