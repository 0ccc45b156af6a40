package domain

import "time"

// DocumentStatus tracks a document through review.
type DocumentStatus string

const (
	DocumentStatusImported DocumentStatus = "imported"
)

// BankStatementStatusImported marks a statement link created by a completed
// import.
const BankStatementStatusImported = "imported"

// Document is the output artifact of one successful import.
type Document struct {
	ID            string         `json:"id"`
	TenantID      string         `json:"tenant_id"`
	SourceID      string         `json:"source_id"`
	RemoteRef     string         `json:"remote_ref"`
	Filename      string         `json:"filename"`
	MimeType      string         `json:"mime_type"`
	SizeBytes     int64          `json:"size_bytes"`
	BlobPath      string         `json:"blob_path"`
	Status        DocumentStatus `json:"status"`
	DocumentType  string         `json:"document_type,omitempty"`
	BankAccountID string         `json:"bank_account_id,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// BankStatement links an imported document to a bank account.
type BankStatement struct {
	ID            string    `json:"id"`
	TenantID      string    `json:"tenant_id"`
	DocumentID    string    `json:"document_id"`
	BankAccountID string    `json:"bank_account_id"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}
