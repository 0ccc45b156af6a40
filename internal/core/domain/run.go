package domain

import "time"

// DefaultRunLimit bounds per-run third-party API usage and processing time.
const DefaultRunLimit = 10

// RunStatus represents the terminal state of one run.
type RunStatus string

const (
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusRefused   RunStatus = "refused"
)

// FileOutcome classifies what happened to one candidate.
type FileOutcome string

const (
	FileOutcomeImported FileOutcome = "imported"
	FileOutcomeSkipped  FileOutcome = "skipped"
	FileOutcomeFailed   FileOutcome = "failed"
)

// FileFailure records why one candidate failed without aborting the batch.
type FileFailure struct {
	Name   string `json:"name"`
	Ref    string `json:"ref"`
	Reason string `json:"reason"`
}

// RunResult aggregates one run of the ingestion pipeline for a single source.
// Counts are always reported, even on total failure, so operators can
// distinguish "nothing to import" from "could not connect".
type RunResult struct {
	SourceID  string        `json:"source_id"`
	Status    RunStatus     `json:"status"`
	Listed    int           `json:"listed"`
	Skipped   int           `json:"skipped"`
	Imported  int           `json:"imported"`
	Failed    int           `json:"failed"`
	Failures  []FileFailure `json:"failures,omitempty"`
	Error     string        `json:"error,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	Duration  float64       `json:"duration_seconds"`
}

// RunState is the durable per-source record of the most recent run,
// surfaced in source summaries.
type RunState struct {
	SourceID    string     `json:"source_id"`
	Status      RunStatus  `json:"status"`
	Listed      int        `json:"listed"`
	Skipped     int        `json:"skipped"`
	Imported    int        `json:"imported"`
	Failed      int        `json:"failed"`
	Error       string     `json:"error,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// StateOf converts a run result into its durable record.
func (r *RunResult) StateOf() *RunState {
	completed := r.StartedAt.Add(time.Duration(r.Duration * float64(time.Second)))
	return &RunState{
		SourceID:    r.SourceID,
		Status:      r.Status,
		Listed:      r.Listed,
		Skipped:     r.Skipped,
		Imported:    r.Imported,
		Failed:      r.Failed,
		Error:       r.Error,
		StartedAt:   &r.StartedAt,
		CompletedAt: &completed,
	}
}
