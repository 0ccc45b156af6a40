package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/quillhq/docsync/internal/core/domain"
	"github.com/quillhq/docsync/internal/core/ports/driven/mocks"
)

func TestImport_WritesBlobAndMetadata(t *testing.T) {
	documentStore := mocks.NewMockDocumentStore()
	blobStore := mocks.NewMockBlobStore()
	writer := NewImportWriter(ImportWriterConfig{
		DocumentStore: documentStore,
		BlobStore:     blobStore,
	})

	source := testSFTPSource()
	file := remoteFile(1)

	doc, err := writer.Import(context.Background(), source, file, pdfBytes, "application/pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Filename != "report-1.pdf" {
		t.Errorf("unexpected filename %q", doc.Filename)
	}
	if doc.TenantID != "tenant-1" || doc.SourceID != "source-1" {
		t.Errorf("unexpected ownership: %+v", doc)
	}
	if !strings.HasPrefix(doc.BlobPath, "tenants/tenant-1/documents/") || !strings.HasSuffix(doc.BlobPath, ".pdf") {
		t.Errorf("unexpected blob path %q", doc.BlobPath)
	}
	if !blobStore.Has(doc.BlobPath) {
		t.Error("expected blob stored")
	}
	if documentStore.DocumentCount() != 1 {
		t.Errorf("expected 1 document, got %d", documentStore.DocumentCount())
	}
}

func TestImport_MetadataFailureDeletesBlob(t *testing.T) {
	documentStore := mocks.NewMockDocumentStore()
	documentStore.SaveDocumentErr = errors.New("connection refused")
	blobStore := mocks.NewMockBlobStore()
	writer := NewImportWriter(ImportWriterConfig{
		DocumentStore: documentStore,
		BlobStore:     blobStore,
	})

	_, err := writer.Import(context.Background(), testSFTPSource(), remoteFile(1), pdfBytes, "application/pdf")
	if !errors.Is(err, domain.ErrImportWriteFailed) {
		t.Fatalf("expected ErrImportWriteFailed, got %v", err)
	}
	if blobStore.Count() != 0 {
		t.Error("expected compensating blob delete after metadata failure")
	}
}

func TestImport_BlobFailureWritesNothing(t *testing.T) {
	documentStore := mocks.NewMockDocumentStore()
	blobStore := mocks.NewMockBlobStore()
	blobStore.PutErr = errors.New("bucket unavailable")
	writer := NewImportWriter(ImportWriterConfig{
		DocumentStore: documentStore,
		BlobStore:     blobStore,
	})

	_, err := writer.Import(context.Background(), testSFTPSource(), remoteFile(1), pdfBytes, "application/pdf")
	if !errors.Is(err, domain.ErrImportWriteFailed) {
		t.Fatalf("expected ErrImportWriteFailed, got %v", err)
	}
	if documentStore.DocumentCount() != 0 {
		t.Error("expected no document when the blob write fails")
	}
}

func TestImport_BankStatementSourceLinksStatement(t *testing.T) {
	documentStore := mocks.NewMockDocumentStore()
	blobStore := mocks.NewMockBlobStore()
	writer := NewImportWriter(ImportWriterConfig{
		DocumentStore: documentStore,
		BlobStore:     blobStore,
	})

	source := testSFTPSource()
	source.Config.DocumentType = domain.DocumentTypeBankStatement
	source.Config.BankAccountID = "acct-42"

	doc, err := writer.Import(context.Background(), source, remoteFile(1), pdfBytes, "application/pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.BankAccountID != "acct-42" {
		t.Errorf("expected bank account carried on document, got %q", doc.BankAccountID)
	}
	statements := documentStore.Statements()
	if len(statements) != 1 {
		t.Fatalf("expected 1 statement link, got %d", len(statements))
	}
	if statements[0].Status != domain.BankStatementStatusImported {
		t.Errorf("expected statement status %q, got %q",
			domain.BankStatementStatusImported, statements[0].Status)
	}
	if statements[0].BankAccountID != "acct-42" {
		t.Errorf("expected statement linked to acct-42, got %q", statements[0].BankAccountID)
	}
}

func TestImport_StatementLinkFailureKeepsDocument(t *testing.T) {
	documentStore := mocks.NewMockDocumentStore()
	documentStore.SaveStatementErr = errors.New("fk violation")
	blobStore := mocks.NewMockBlobStore()
	writer := NewImportWriter(ImportWriterConfig{
		DocumentStore: documentStore,
		BlobStore:     blobStore,
	})

	source := testSFTPSource()
	source.Config.DocumentType = domain.DocumentTypeBankStatement
	source.Config.BankAccountID = "acct-42"

	if _, err := writer.Import(context.Background(), source, remoteFile(1), pdfBytes, "application/pdf"); err != nil {
		t.Fatalf("statement link failure must not fail the import: %v", err)
	}
	if documentStore.DocumentCount() != 1 {
		t.Error("expected document kept")
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "statement.pdf", "statement.pdf"},
		{"unix path stripped", "/outbound/2026/statement.pdf", "statement.pdf"},
		{"windows path stripped", `C:\exports\statement.pdf`, "statement.pdf"},
		{"control chars removed", "state\x00ment\x1f.pdf", "statement.pdf"},
		{"empty becomes unnamed", "", "unnamed"},
		{"dot becomes unnamed", ".", "unnamed"},
		{"dotdot becomes unnamed", "..", "unnamed"},
		{"whitespace trimmed", "  report.csv  ", "report.csv"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeFilename(tt.in); got != tt.want {
				t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestImport_RecordsSizeOfDownloadedBytes(t *testing.T) {
	documentStore := mocks.NewMockDocumentStore()
	blobStore := mocks.NewMockBlobStore()
	writer := NewImportWriter(ImportWriterConfig{
		DocumentStore: documentStore,
		BlobStore:     blobStore,
	})

	// Listed size can lag the actual content; the document records what
	// was imported.
	file := domain.RemoteFile{
		Ref:        "/outbound/grew.pdf",
		Name:       "grew.pdf",
		Size:       1,
		ModifiedAt: time.Now().UTC(),
	}
	doc, err := writer.Import(context.Background(), testSFTPSource(), file, pdfBytes, "application/pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.SizeBytes != int64(len(pdfBytes)) {
		t.Errorf("expected size %d, got %d", len(pdfBytes), doc.SizeBytes)
	}
}
