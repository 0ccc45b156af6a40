package driven

import (
	"context"

	"github.com/quillhq/docsync/internal/core/domain"
)

// DocumentStore persists imported document metadata and statement links.
type DocumentStore interface {
	// SaveDocument inserts a new document row.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// SaveStatement inserts a bank-statement row linking a document to an
	// account.
	SaveStatement(ctx context.Context, st *domain.BankStatement) error

	// CountBySource returns the number of documents imported from a source.
	CountBySource(ctx context.Context, sourceID string) (int, error)
}

// BlobStore is the durable byte storage documents reference.
// No two-phase commit is available; the import writer compensates by
// deleting the blob when the metadata write fails.
type BlobStore interface {
	// Put writes data under path with the given content type.
	Put(ctx context.Context, path string, data []byte, contentType string) error

	// Delete removes the blob at path. Deleting a missing blob is not an error.
	Delete(ctx context.Context, path string) error
}
