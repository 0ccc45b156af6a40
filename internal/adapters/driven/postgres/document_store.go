package postgres

import (
	"context"

	"github.com/quillhq/docsync/internal/core/domain"
	"github.com/quillhq/docsync/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore implements driven.DocumentStore using PostgreSQL.
type DocumentStore struct {
	db *DB
}

// NewDocumentStore creates a DocumentStore.
func NewDocumentStore(db *DB) *DocumentStore {
	return &DocumentStore{db: db}
}

// SaveDocument inserts a new document row.
func (s *DocumentStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	query := `
		INSERT INTO documents (id, tenant_id, source_id, remote_ref, filename, mime_type,
		                       size_bytes, blob_path, status, document_type, bank_account_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := s.db.ExecContext(ctx, query,
		doc.ID,
		doc.TenantID,
		doc.SourceID,
		doc.RemoteRef,
		doc.Filename,
		doc.MimeType,
		doc.SizeBytes,
		doc.BlobPath,
		string(doc.Status),
		doc.DocumentType,
		doc.BankAccountID,
		doc.CreatedAt,
	)
	return err
}

// SaveStatement inserts a bank-statement row.
func (s *DocumentStore) SaveStatement(ctx context.Context, st *domain.BankStatement) error {
	query := `
		INSERT INTO bank_statements (id, tenant_id, document_id, bank_account_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		st.ID, st.TenantID, st.DocumentID, st.BankAccountID, st.Status, st.CreatedAt)
	return err
}

// CountBySource returns the number of documents imported from a source.
func (s *DocumentStore) CountBySource(ctx context.Context, sourceID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM documents WHERE source_id = $1`, sourceID).Scan(&count)
	return count, err
}
