package domain

import (
	"strings"
	"time"
)

// DrivePrefix namespaces shared-drive identifiers so the folder picker can
// treat shared drives as one more folder level without protocol leakage.
const DrivePrefix = "drive:"

// RemoteFile is an ephemeral, per-run candidate produced by listing.
// Ref is the provider's file identity: an opaque id for cloud drives,
// an absolute remote path for transfer protocols.
type RemoteFile struct {
	Ref        string    `json:"ref"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
	MimeType   string    `json:"mime_type,omitempty"`
}

// Folder is a browsable remote folder.
type Folder struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	// Shared marks synthetic pseudo-root entries for shared drives/spaces.
	Shared bool `json:"shared,omitempty"`
}

// DriveRef builds a namespaced shared-drive folder id.
func DriveRef(driveID string) string {
	return DrivePrefix + driveID
}

// SplitDriveRef returns the raw drive id and true when ref addresses a
// shared drive rather than an ordinary folder.
func SplitDriveRef(ref string) (string, bool) {
	if strings.HasPrefix(ref, DrivePrefix) {
		return strings.TrimPrefix(ref, DrivePrefix), true
	}
	return ref, false
}

// AccountInfo identifies the remote account a cloud source is connected as.
// Informational only, never used for authorization decisions.
type AccountInfo struct {
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}
