package driving

import (
	"context"

	"github.com/quillhq/docsync/internal/core/domain"
)

// TestResult is the outcome of a connectivity probe against a source.
type TestResult struct {
	OK          bool                `json:"ok"`
	Error       string              `json:"error,omitempty"`
	FilesListed int                 `json:"files_listed"`
	AccountInfo *domain.AccountInfo `json:"account_info,omitempty"`
}

// RunService drives sync runs against configured sources.
type RunService interface {
	// RunSource executes one full sync pass for the source. limit <= 0
	// applies the default per-run import cap. Returns the run result even
	// when the run failed partway; a refused run carries Status refused.
	RunSource(ctx context.Context, tenantID, sourceID string, limit int) (*domain.RunResult, error)

	// TestSource connects and lists without downloading or importing.
	TestSource(ctx context.Context, tenantID, sourceID string) (*TestResult, error)

	// GetRunState returns the last recorded run outcome for a source.
	GetRunState(ctx context.Context, tenantID, sourceID string) (*domain.RunState, error)
}
