package domain

import "time"

// Identity is the dedup key for one imported file: the remote ref plus the
// exact size and modification time observed at import. A file whose size or
// modification time changes is a new, distinct identity.
type Identity struct {
	SourceID   string    `json:"source_id"`
	RemoteRef  string    `json:"remote_ref"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`

	// DocumentID is the document created by the import that recorded
	// this identity.
	DocumentID string    `json:"document_id"`
	ImportedAt time.Time `json:"imported_at"`
}

// IdentityOf derives the dedup key of a listed candidate.
func IdentityOf(sourceID string, f RemoteFile) Identity {
	return Identity{
		SourceID:   sourceID,
		RemoteRef:  f.Ref,
		Size:       f.Size,
		ModifiedAt: f.ModifiedAt.UTC().Truncate(time.Second),
	}
}

// Matches reports whether two identities address the same import.
// Comparison is exact on all three key fields.
func (i Identity) Matches(other Identity) bool {
	return i.SourceID == other.SourceID &&
		i.RemoteRef == other.RemoteRef &&
		i.Size == other.Size &&
		i.ModifiedAt.Equal(other.ModifiedAt)
}
