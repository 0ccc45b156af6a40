// Package validate gates remote file content before import. Files are
// sniffed by content and checked against an allow-list of document and
// spreadsheet formats, a size ceiling, and their claimed extension.
package validate

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/quillhq/docsync/internal/core/domain"
)

// DefaultMaxSizeBytes caps file imports at 25 MiB.
const DefaultMaxSizeBytes = 25 << 20

// allowed maps the canonical MIME type of each accepted format to the file
// extensions it may legitimately carry.
var allowed = map[string][]string{
	"application/pdf": {".pdf"},
	"image/png":       {".png"},
	"image/jpeg":      {".jpg", ".jpeg"},
	"image/gif":       {".gif"},
	"image/webp":      {".webp"},
	"text/csv":        {".csv"},
	"application/vnd.ms-excel":                                          {".xls"},
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": {".xlsx"},
}

// csv content often sniffs as plain text; accept the sniff when the
// extension claims csv.
const plainText = "text/plain"

// Validator screens downloaded content before it reaches the import writer.
type Validator struct {
	maxSize int64
}

// New returns a validator with the given size ceiling. maxSize <= 0 applies
// DefaultMaxSizeBytes.
func New(maxSize int64) *Validator {
	if maxSize <= 0 {
		maxSize = DefaultMaxSizeBytes
	}
	return &Validator{maxSize: maxSize}
}

// Validate checks the file content and returns its canonical MIME type.
// Rejections are *domain.ValidationError so callers can separate policy
// rejections from operational failures.
func (v *Validator) Validate(filename string, data []byte) (string, error) {
	if int64(len(data)) > v.maxSize {
		return "", &domain.ValidationError{
			Filename: filename,
			Reason:   fmt.Sprintf("file size %d exceeds limit of %d bytes", len(data), v.maxSize),
		}
	}
	if len(data) == 0 {
		return "", &domain.ValidationError{Filename: filename, Reason: "file is empty"}
	}

	detected := mimetype.Detect(data)
	mime := baseMIME(detected.String())
	ext := strings.ToLower(filepath.Ext(filename))

	if mime == plainText && ext == ".csv" {
		mime = "text/csv"
	}

	exts, ok := allowed[mime]
	if !ok {
		return "", &domain.ValidationError{
			Filename: filename,
			Reason:   fmt.Sprintf("unsupported file type %s", mime),
		}
	}
	if ext != "" && !contains(exts, ext) {
		return "", &domain.ValidationError{
			Filename: filename,
			Reason:   fmt.Sprintf("extension %s does not match detected type %s", ext, mime),
		}
	}
	return mime, nil
}

// MaxSize returns the configured size ceiling in bytes.
func (v *Validator) MaxSize() int64 {
	return v.maxSize
}

func baseMIME(m string) string {
	if i := strings.Index(m, ";"); i >= 0 {
		m = m[:i]
	}
	return strings.TrimSpace(m)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
