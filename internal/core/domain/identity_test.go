package domain

import (
	"testing"
	"time"
)

func TestIdentityOf(t *testing.T) {
	modified := time.Date(2026, 8, 1, 12, 30, 45, 999999999, time.UTC)
	file := RemoteFile{
		Ref:        "/outbound/statement.pdf",
		Name:       "statement.pdf",
		Size:       2048,
		ModifiedAt: modified,
	}

	id := IdentityOf("source-1", file)
	if id.SourceID != "source-1" || id.RemoteRef != file.Ref || id.Size != 2048 {
		t.Errorf("unexpected identity %+v", id)
	}
	// Sub-second precision is truncated so identities survive stores that
	// round timestamps.
	if id.ModifiedAt.Nanosecond() != 0 {
		t.Errorf("expected truncated modification time, got %v", id.ModifiedAt)
	}
}

func TestIdentityMatches(t *testing.T) {
	modified := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	base := Identity{
		SourceID:   "source-1",
		RemoteRef:  "/outbound/statement.pdf",
		Size:       2048,
		ModifiedAt: modified,
	}

	same := base
	if !base.Matches(same) {
		t.Error("identical identities must match")
	}

	// The same wall-clock instant in another zone still matches.
	zoned := base
	zoned.ModifiedAt = modified.In(time.FixedZone("CET", 3600))
	if !base.Matches(zoned) {
		t.Error("identities must compare instants, not zones")
	}

	changedSize := base
	changedSize.Size = 4096
	if base.Matches(changedSize) {
		t.Error("a size change is a new identity")
	}

	changedTime := base
	changedTime.ModifiedAt = modified.Add(time.Second)
	if base.Matches(changedTime) {
		t.Error("a modification time change is a new identity")
	}

	otherSource := base
	otherSource.SourceID = "source-2"
	if base.Matches(otherSource) {
		t.Error("identities are scoped per source")
	}
}

func TestSplitDriveRef(t *testing.T) {
	id, shared := SplitDriveRef("drive:0AAbc123")
	if !shared || id != "0AAbc123" {
		t.Errorf("expected shared drive id, got %q shared=%v", id, shared)
	}

	id, shared = SplitDriveRef("1FolderId")
	if shared || id != "1FolderId" {
		t.Errorf("expected ordinary folder id untouched, got %q shared=%v", id, shared)
	}

	if DriveRef("0AAbc123") != "drive:0AAbc123" {
		t.Errorf("unexpected drive ref %q", DriveRef("0AAbc123"))
	}
}
