package driven

import (
	"context"

	"github.com/quillhq/docsync/internal/core/domain"
)

// IdentityStore is the durable dedup ledger of previously imported remote
// identities, one row per successful import per source.
type IdentityStore interface {
	// Exists reports whether the exact identity tuple has been recorded.
	Exists(ctx context.Context, id domain.Identity) (bool, error)

	// Record inserts the identity if absent. A concurrent retry of the same
	// source recording the same tuple must not create a second row; the
	// insert is atomic insert-if-absent and returns domain.ErrAlreadyExists
	// when the tuple was recorded by someone else first.
	Record(ctx context.Context, id *domain.Identity) error

	// DeleteBySource removes a source's whole ledger. Called when the source
	// is deleted, since orphaned identities are meaningless.
	DeleteBySource(ctx context.Context, sourceID string) error
}
