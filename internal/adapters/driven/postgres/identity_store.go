package postgres

import (
	"context"

	"github.com/quillhq/docsync/internal/core/domain"
	"github.com/quillhq/docsync/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.IdentityStore = (*IdentityStore)(nil)

// IdentityStore implements the dedup ledger on PostgreSQL. The primary key
// over (source_id, remote_ref, size_bytes, modified_at) makes Record an
// atomic insert-if-absent.
type IdentityStore struct {
	db *DB
}

// NewIdentityStore creates an IdentityStore.
func NewIdentityStore(db *DB) *IdentityStore {
	return &IdentityStore{db: db}
}

// Exists reports whether the exact identity tuple has been recorded.
func (s *IdentityStore) Exists(ctx context.Context, id domain.Identity) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM import_identities
			WHERE source_id = $1 AND remote_ref = $2 AND size_bytes = $3 AND modified_at = $4
		)
	`
	var exists bool
	err := s.db.QueryRowContext(ctx, query, id.SourceID, id.RemoteRef, id.Size, id.ModifiedAt).Scan(&exists)
	return exists, err
}

// Record inserts the identity if absent. Returns domain.ErrAlreadyExists
// when a concurrent run recorded the same tuple first.
func (s *IdentityStore) Record(ctx context.Context, id *domain.Identity) error {
	query := `
		INSERT INTO import_identities (source_id, remote_ref, size_bytes, modified_at, document_id, imported_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (source_id, remote_ref, size_bytes, modified_at) DO NOTHING
	`
	res, err := s.db.ExecContext(ctx, query,
		id.SourceID, id.RemoteRef, id.Size, id.ModifiedAt, id.DocumentID, id.ImportedAt)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrAlreadyExists
	}
	return nil
}

// DeleteBySource removes a source's whole ledger.
func (s *IdentityStore) DeleteBySource(ctx context.Context, sourceID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM import_identities WHERE source_id = $1`, sourceID)
	return err
}
