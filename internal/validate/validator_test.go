package validate

import (
	"bytes"
	"errors"
	"testing"

	"github.com/quillhq/docsync/internal/core/domain"
)

var pdfHeader = []byte("%PDF-1.7\n%some content\n%%EOF")

var pngHeader = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0}

func TestValidateAcceptsPDF(t *testing.T) {
	v := New(0)
	mime, err := v.Validate("statement.pdf", pdfHeader)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mime != "application/pdf" {
		t.Errorf("mime = %q, want application/pdf", mime)
	}
}

func TestValidateAcceptsCSVByExtension(t *testing.T) {
	v := New(0)
	mime, err := v.Validate("export.csv", []byte("date,amount\n2026-01-01,10.50\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mime != "text/csv" {
		t.Errorf("mime = %q, want text/csv", mime)
	}
}

func TestValidateRejectsUnsupportedType(t *testing.T) {
	v := New(0)
	_, err := v.Validate("payload.bin", []byte{0x7f, 'E', 'L', 'F', 2, 1, 1, 0})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestValidateRejectsExtensionMismatch(t *testing.T) {
	v := New(0)
	// PNG bytes claiming to be a pdf.
	_, err := v.Validate("report.pdf", pngHeader)
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestValidateRejectsOversize(t *testing.T) {
	v := New(16)
	_, err := v.Validate("big.pdf", bytes.Repeat([]byte{'a'}, 32))
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if !domain.IsValidationRejected(err) {
		t.Error("IsValidationRejected should report true")
	}
}

func TestValidateRejectsEmpty(t *testing.T) {
	v := New(0)
	if _, err := v.Validate("empty.pdf", nil); err == nil {
		t.Fatal("expected error for empty file")
	}
}

func TestDefaultMaxSize(t *testing.T) {
	if got := New(0).MaxSize(); got != DefaultMaxSizeBytes {
		t.Errorf("MaxSize() = %d, want %d", got, DefaultMaxSizeBytes)
	}
	if got := New(1024).MaxSize(); got != 1024 {
		t.Errorf("MaxSize() = %d, want 1024", got)
	}
}
