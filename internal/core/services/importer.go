package services

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quillhq/docsync/internal/core/domain"
	"github.com/quillhq/docsync/internal/core/ports/driven"
)

// ImportWriter persists one validated file as a document: blob first, then
// metadata, compensating by deleting the blob when the metadata write fails.
type ImportWriter struct {
	documents driven.DocumentStore
	blobs     driven.BlobStore
	logger    *slog.Logger
}

// ImportWriterConfig holds dependencies for ImportWriter.
type ImportWriterConfig struct {
	DocumentStore driven.DocumentStore
	BlobStore     driven.BlobStore
	Logger        *slog.Logger
}

// NewImportWriter creates an import writer.
func NewImportWriter(cfg ImportWriterConfig) *ImportWriter {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ImportWriter{
		documents: cfg.DocumentStore,
		blobs:     cfg.BlobStore,
		logger:    logger,
	}
}

// Import writes the file's bytes and metadata and returns the new document.
// Failures wrap domain.ErrImportWriteFailed; no identity is recorded by this
// method, so a failed import is retried on the next run.
func (w *ImportWriter) Import(ctx context.Context, source *domain.Source, file domain.RemoteFile, data []byte, mimeType string) (*domain.Document, error) {
	id := uuid.NewString()
	filename := sanitizeFilename(file.Name)
	blobPath := fmt.Sprintf("tenants/%s/documents/%s%s", source.TenantID, id, strings.ToLower(filepath.Ext(filename)))

	if err := w.blobs.Put(ctx, blobPath, data, mimeType); err != nil {
		return nil, fmt.Errorf("put blob %s: %v: %w", blobPath, err, domain.ErrImportWriteFailed)
	}

	doc := &domain.Document{
		ID:            id,
		TenantID:      source.TenantID,
		SourceID:      source.ID,
		RemoteRef:     file.Ref,
		Filename:      filename,
		MimeType:      mimeType,
		SizeBytes:     int64(len(data)),
		BlobPath:      blobPath,
		Status:        domain.DocumentStatusImported,
		DocumentType:  source.Config.DocumentType,
		BankAccountID: source.Config.BankAccountID,
		CreatedAt:     time.Now().UTC(),
	}

	if err := w.documents.SaveDocument(ctx, doc); err != nil {
		// Compensate so no orphaned bytes outlive the failed import.
		if derr := w.blobs.Delete(ctx, blobPath); derr != nil {
			w.logger.Warn("orphaned blob after failed metadata write",
				"blob_path", blobPath, "error", derr)
		}
		return nil, fmt.Errorf("save document %s: %v: %w", id, err, domain.ErrImportWriteFailed)
	}

	if source.Config.DocumentType == domain.DocumentTypeBankStatement {
		st := &domain.BankStatement{
			ID:            uuid.NewString(),
			TenantID:      source.TenantID,
			DocumentID:    doc.ID,
			BankAccountID: source.Config.BankAccountID,
			Status:        domain.BankStatementStatusImported,
			CreatedAt:     time.Now().UTC(),
		}
		// The document import already succeeded; a failed statement link is
		// logged, not rolled back.
		if err := w.documents.SaveStatement(ctx, st); err != nil {
			w.logger.Error("failed to link bank statement",
				"document_id", doc.ID,
				"bank_account_id", source.Config.BankAccountID,
				"error", err,
			)
		}
	}

	return doc, nil
}

// sanitizeFilename strips any path component and control characters from a
// remote file name before it becomes document metadata.
func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		if r < 0x20 || r == 0x7f {
			continue
		}
		b.WriteRune(r)
	}
	out := strings.TrimSpace(b.String())
	if out == "" || out == "." || out == ".." {
		return "unnamed"
	}
	return out
}
