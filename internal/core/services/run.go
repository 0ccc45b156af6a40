package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/quillhq/docsync/internal/core/domain"
	"github.com/quillhq/docsync/internal/core/ports/driven"
	"github.com/quillhq/docsync/internal/core/ports/driving"
	"github.com/quillhq/docsync/internal/fileglob"
	"github.com/quillhq/docsync/internal/validate"
)

// runLockTTL bounds how long a crashed run can block its source.
const runLockTTL = 10 * time.Minute

// fileTimeout bounds the download-validate-import cycle for one candidate.
const fileTimeout = 2 * time.Minute

// RunOrchestrator executes the ingestion pipeline for one source at a time:
// list, dedup against the identity ledger, download, validate, import,
// record identity. File-level failures never abort the batch.
type RunOrchestrator struct {
	sources     driven.SourceStore
	identities  driven.IdentityStore
	runStates   driven.RunStateStore
	factory     driven.ConnectorFactory
	credentials *CredentialResolver
	importer    *ImportWriter
	validator   *validate.Validator
	lock        driven.DistributedLock
	logger      *slog.Logger
}

var _ driving.RunService = (*RunOrchestrator)(nil)

// RunOrchestratorConfig holds dependencies for RunOrchestrator.
// Lock is optional; without it concurrent runs of the same source are still
// safe because the identity ledger insert is the final dedup guard.
type RunOrchestratorConfig struct {
	SourceStore        driven.SourceStore
	IdentityStore      driven.IdentityStore
	RunStateStore      driven.RunStateStore
	ConnectorFactory   driven.ConnectorFactory
	CredentialResolver *CredentialResolver
	ImportWriter       *ImportWriter
	Validator          *validate.Validator
	Lock               driven.DistributedLock
	Logger             *slog.Logger
}

// NewRunOrchestrator creates a run orchestrator.
func NewRunOrchestrator(cfg RunOrchestratorConfig) *RunOrchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	validator := cfg.Validator
	if validator == nil {
		validator = validate.New(0)
	}
	return &RunOrchestrator{
		sources:     cfg.SourceStore,
		identities:  cfg.IdentityStore,
		runStates:   cfg.RunStateStore,
		factory:     cfg.ConnectorFactory,
		credentials: cfg.CredentialResolver,
		importer:    cfg.ImportWriter,
		validator:   validator,
		lock:        cfg.Lock,
		logger:      logger,
	}
}

// RunSource executes one full sync pass for a tenant's source.
func (o *RunOrchestrator) RunSource(ctx context.Context, tenantID, sourceID string, limit int) (*domain.RunResult, error) {
	source, err := o.sources.Get(ctx, tenantID, sourceID)
	if err != nil {
		return nil, fmt.Errorf("get source: %w", err)
	}
	return o.run(ctx, source, limit)
}

// RunSourceDirect executes a run for an already-loaded source. Used by the
// scheduler, which fetches due sources itself.
func (o *RunOrchestrator) RunSourceDirect(ctx context.Context, source *domain.Source, limit int) (*domain.RunResult, error) {
	return o.run(ctx, source, limit)
}

func (o *RunOrchestrator) run(ctx context.Context, source *domain.Source, limit int) (*domain.RunResult, error) {
	startedAt := time.Now()
	if limit <= 0 {
		limit = domain.DefaultRunLimit
	}

	o.logger.Info("starting run",
		"source_id", source.ID,
		"provider", source.ProviderType,
		"limit", limit,
	)

	if refusal := o.eligibility(source); refusal != nil {
		return o.refuse(ctx, source, startedAt, refusal)
	}

	if o.lock != nil {
		lockName := "run:" + source.ID
		acquired, err := o.lock.Acquire(ctx, lockName, runLockTTL)
		if err != nil {
			o.logger.Warn("lock acquire failed, continuing unlocked",
				"source_id", source.ID, "error", err)
		} else if !acquired {
			// No state saved: the holder's run will report its own outcome.
			return &domain.RunResult{
				SourceID:  source.ID,
				Status:    domain.RunStatusRefused,
				Error:     domain.ErrRunInProgress.Error(),
				StartedAt: startedAt,
				Duration:  time.Since(startedAt).Seconds(),
			}, domain.ErrRunInProgress
		} else {
			defer func() {
				if err := o.lock.Release(context.WithoutCancel(ctx), lockName); err != nil {
					o.logger.Warn("lock release failed", "source_id", source.ID, "error", err)
				}
			}()
		}
	}

	connector, err := o.connect(ctx, source)
	if err != nil {
		return o.fail(ctx, source, startedAt, err)
	}
	defer connector.Close()

	candidates, err := o.listCandidates(ctx, source, connector)
	if err != nil {
		return o.fail(ctx, source, startedAt, err)
	}

	result := &domain.RunResult{
		SourceID:  source.ID,
		Status:    domain.RunStatusCompleted,
		Listed:    len(candidates),
		StartedAt: startedAt,
	}

	for _, file := range candidates {
		if err := ctx.Err(); err != nil {
			return o.fail(ctx, source, startedAt, err)
		}
		// Failed candidates count toward the cap: the limit bounds remote
		// fetch attempts, not successes. Skips stay free so an
		// already-imported backlog cannot stall the run.
		if result.Imported+result.Failed >= limit {
			break
		}

		fileCtx, cancel := context.WithTimeout(ctx, fileTimeout)
		outcome, err := o.processFile(fileCtx, source, connector, file)
		cancel()
		switch outcome {
		case domain.FileOutcomeImported:
			result.Imported++
		case domain.FileOutcomeSkipped:
			result.Skipped++
		case domain.FileOutcomeFailed:
			result.Failed++
			result.Failures = append(result.Failures, domain.FileFailure{
				Name:   file.Name,
				Ref:    file.Ref,
				Reason: err.Error(),
			})
			o.logger.Warn("file failed",
				"source_id", source.ID,
				"file", file.Name,
				"error", err,
			)
		}
	}

	result.Duration = time.Since(startedAt).Seconds()
	o.finish(ctx, source, result)

	o.logger.Info("run completed",
		"source_id", source.ID,
		"listed", result.Listed,
		"imported", result.Imported,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"duration_seconds", result.Duration,
	)
	return result, nil
}

// eligibility returns the reason a run must be refused, or nil.
func (o *RunOrchestrator) eligibility(source *domain.Source) error {
	if !source.Enabled {
		return fmt.Errorf("source is disabled: %w", domain.ErrInvalidInput)
	}
	if source.ProviderType.IsCloudDrive() {
		if !source.IsConnected() {
			return domain.ErrNotConnected
		}
		if !source.HasFolderSelected() {
			return domain.ErrNoFolderSelected
		}
	}
	return nil
}

// listCandidates lists and applies the glob for cloud sources. Transfer
// connectors filter during their own recursive walk.
func (o *RunOrchestrator) listCandidates(ctx context.Context, source *domain.Source, connector driven.Connector) ([]domain.RemoteFile, error) {
	files, err := connector.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}

	if source.ProviderType.IsTransfer() {
		return files, nil
	}

	matcher, err := fileglob.Compile(source.Config.GlobOrDefault())
	if err != nil {
		return nil, fmt.Errorf("compile glob: %w", err)
	}
	matched := files[:0]
	for _, f := range files {
		if matcher.Match(f.Name) {
			matched = append(matched, f)
		}
	}
	return matched, nil
}

func (o *RunOrchestrator) connect(ctx context.Context, source *domain.Source) (driven.Connector, error) {
	cred, err := o.credentials.Resolve(ctx, source)
	if err != nil {
		return nil, err
	}
	connector, err := o.factory.Create(ctx, source, cred)
	if err != nil {
		return nil, fmt.Errorf("create connector: %w", err)
	}
	return connector, nil
}

// processFile handles one candidate end to end. The identity is recorded
// only after the import fully succeeds, so any earlier failure leaves the
// file eligible for retry on the next run.
func (o *RunOrchestrator) processFile(ctx context.Context, source *domain.Source, connector driven.Connector, file domain.RemoteFile) (domain.FileOutcome, error) {
	identity := domain.IdentityOf(source.ID, file)

	exists, err := o.identities.Exists(ctx, identity)
	if err != nil {
		return domain.FileOutcomeFailed, fmt.Errorf("check identity: %w", err)
	}
	if exists {
		return domain.FileOutcomeSkipped, nil
	}

	// Size is known from the listing; reject before downloading.
	if file.Size > o.validator.MaxSize() {
		return domain.FileOutcomeFailed, &domain.ValidationError{
			Filename: file.Name,
			Reason:   fmt.Sprintf("file size %d exceeds limit of %d bytes", file.Size, o.validator.MaxSize()),
		}
	}

	data, err := connector.Download(ctx, file)
	if err != nil {
		return domain.FileOutcomeFailed, fmt.Errorf("download: %w", err)
	}

	mimeType, err := o.validator.Validate(file.Name, data)
	if err != nil {
		return domain.FileOutcomeFailed, err
	}

	doc, err := o.importer.Import(ctx, source, file, data, mimeType)
	if err != nil {
		return domain.FileOutcomeFailed, err
	}

	identity.DocumentID = doc.ID
	identity.ImportedAt = time.Now().UTC()
	if err := o.identities.Record(ctx, &identity); err != nil {
		// A concurrent run recorded the same tuple first; the file is
		// imported either way.
		if errors.Is(err, domain.ErrAlreadyExists) {
			o.logger.Warn("identity recorded by concurrent run",
				"source_id", source.ID, "ref", file.Ref)
			return domain.FileOutcomeImported, nil
		}
		return domain.FileOutcomeFailed, fmt.Errorf("record identity: %w", err)
	}
	return domain.FileOutcomeImported, nil
}

// TestSource connects and lists without downloading or importing anything.
func (o *RunOrchestrator) TestSource(ctx context.Context, tenantID, sourceID string) (*driving.TestResult, error) {
	source, err := o.sources.Get(ctx, tenantID, sourceID)
	if err != nil {
		return nil, fmt.Errorf("get source: %w", err)
	}

	connector, err := o.connect(ctx, source)
	if err != nil {
		return &driving.TestResult{Error: err.Error()}, nil
	}
	defer connector.Close()

	result := &driving.TestResult{OK: true}

	if source.ProviderType.IsCloudDrive() {
		if info, err := connector.AccountInfo(ctx); err == nil {
			result.AccountInfo = info
		}
	}

	files, err := connector.List(ctx)
	if err != nil {
		return &driving.TestResult{Error: err.Error()}, nil
	}
	result.FilesListed = len(files)
	return result, nil
}

// GetRunState returns the last recorded run outcome for a tenant's source.
func (o *RunOrchestrator) GetRunState(ctx context.Context, tenantID, sourceID string) (*domain.RunState, error) {
	if _, err := o.sources.Get(ctx, tenantID, sourceID); err != nil {
		return nil, fmt.Errorf("get source: %w", err)
	}
	state, err := o.runStates.Get(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("get run state: %w", err)
	}
	if state == nil {
		return nil, domain.ErrNotFound
	}
	return state, nil
}

// refuse records a refused run. Last-run still advances so a permanently
// misconfigured source does not hot-loop the scheduler.
func (o *RunOrchestrator) refuse(ctx context.Context, source *domain.Source, startedAt time.Time, reason error) (*domain.RunResult, error) {
	result := &domain.RunResult{
		SourceID:  source.ID,
		Status:    domain.RunStatusRefused,
		Error:     reason.Error(),
		StartedAt: startedAt,
		Duration:  time.Since(startedAt).Seconds(),
	}
	o.finish(ctx, source, result)
	o.logger.Warn("run refused", "source_id", source.ID, "reason", reason)
	return result, reason
}

func (o *RunOrchestrator) fail(ctx context.Context, source *domain.Source, startedAt time.Time, err error) (*domain.RunResult, error) {
	result := &domain.RunResult{
		SourceID:  source.ID,
		Status:    domain.RunStatusFailed,
		Error:     err.Error(),
		StartedAt: startedAt,
		Duration:  time.Since(startedAt).Seconds(),
	}
	o.finish(ctx, source, result)
	o.logger.Error("run failed",
		"source_id", source.ID,
		"duration_seconds", result.Duration,
		"error", err,
	)
	return result, err
}

// finish persists the durable run record and advances the last-run mark.
// Both writes are best-effort; the run's outcome stands regardless.
func (o *RunOrchestrator) finish(ctx context.Context, source *domain.Source, result *domain.RunResult) {
	if result.Duration == 0 {
		result.Duration = time.Since(result.StartedAt).Seconds()
	}
	ctx = context.WithoutCancel(ctx)
	if err := o.runStates.Save(ctx, result.StateOf()); err != nil {
		o.logger.Warn("failed to save run state", "source_id", source.ID, "error", err)
	}
	if err := o.sources.UpdateLastRun(ctx, source.ID, result.StartedAt); err != nil {
		o.logger.Warn("failed to update last run", "source_id", source.ID, "error", err)
	}
}
