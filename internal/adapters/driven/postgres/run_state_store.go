package postgres

import (
	"context"
	"database/sql"

	"github.com/quillhq/docsync/internal/core/domain"
	"github.com/quillhq/docsync/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.RunStateStore = (*RunStateStore)(nil)

// RunStateStore implements driven.RunStateStore using PostgreSQL.
// One row per source, overwritten by each run.
type RunStateStore struct {
	db *DB
}

// NewRunStateStore creates a RunStateStore.
func NewRunStateStore(db *DB) *RunStateStore {
	return &RunStateStore{db: db}
}

// Save upserts the run state for a source.
func (s *RunStateStore) Save(ctx context.Context, state *domain.RunState) error {
	query := `
		INSERT INTO run_states (source_id, status, listed, skipped, imported, failed, error, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (source_id) DO UPDATE SET
			status = EXCLUDED.status,
			listed = EXCLUDED.listed,
			skipped = EXCLUDED.skipped,
			imported = EXCLUDED.imported,
			failed = EXCLUDED.failed,
			error = EXCLUDED.error,
			started_at = EXCLUDED.started_at,
			completed_at = EXCLUDED.completed_at
	`
	_, err := s.db.ExecContext(ctx, query,
		state.SourceID,
		string(state.Status),
		state.Listed,
		state.Skipped,
		state.Imported,
		state.Failed,
		state.Error,
		NullTime(state.StartedAt),
		NullTime(state.CompletedAt),
	)
	return err
}

// Get retrieves the run state for a source, or nil if it never ran.
func (s *RunStateStore) Get(ctx context.Context, sourceID string) (*domain.RunState, error) {
	query := `
		SELECT source_id, status, listed, skipped, imported, failed, error, started_at, completed_at
		FROM run_states
		WHERE source_id = $1
	`
	var state domain.RunState
	var startedAt, completedAt sql.NullTime
	err := s.db.QueryRowContext(ctx, query, sourceID).Scan(
		&state.SourceID,
		&state.Status,
		&state.Listed,
		&state.Skipped,
		&state.Imported,
		&state.Failed,
		&state.Error,
		&startedAt,
		&completedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	state.StartedAt = TimePtr(startedAt)
	state.CompletedAt = TimePtr(completedAt)
	return &state, nil
}

// Delete removes the run state for a source.
func (s *RunStateStore) Delete(ctx context.Context, sourceID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM run_states WHERE source_id = $1`, sourceID)
	return err
}
