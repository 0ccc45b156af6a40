package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/quillhq/docsync/internal/core/domain"
	"github.com/quillhq/docsync/internal/core/ports/driven"
)

// Scheduler polls for due sources and hands them to the run orchestrator.
//
// For multi-instance deployments, configure a DistributedLock so only one
// scheduler polls per tick. The per-source lock inside the orchestrator and
// the identity ledger remain the guards against duplicate imports either way.
type Scheduler struct {
	sources      driven.SourceStore
	orchestrator *RunOrchestrator
	lock         driven.DistributedLock
	logger       *slog.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	interval time.Duration
	lockTTL  time.Duration
	runLimit int
}

// SchedulerConfig holds configuration for the scheduler.
type SchedulerConfig struct {
	SourceStore  driven.SourceStore
	Orchestrator *RunOrchestrator
	Lock         driven.DistributedLock
	Logger       *slog.Logger

	// PollInterval is how often to poll for due sources (default: 30s).
	PollInterval time.Duration

	// LockTTL is the TTL for the scheduler lock (default: 2x poll interval).
	LockTTL time.Duration

	// RunLimit caps imports per scheduled run (default: domain.DefaultRunLimit).
	RunLimit int
}

// NewScheduler creates a scheduler.
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	interval := cfg.PollInterval
	if interval == 0 {
		interval = 30 * time.Second
	}
	lockTTL := cfg.LockTTL
	if lockTTL == 0 {
		lockTTL = 2 * interval
	}
	return &Scheduler{
		sources:      cfg.SourceStore,
		orchestrator: cfg.Orchestrator,
		lock:         cfg.Lock,
		logger:       logger,
		interval:     interval,
		lockTTL:      lockTTL,
		runLimit:     cfg.RunLimit,
	}
}

// Start begins the polling loop. It runs until Stop is called or the
// context is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	s.logger.Info("scheduler starting", "poll_interval", s.interval)
	go s.loop(ctx)
}

// Stop gracefully stops the scheduler, waiting for an in-flight tick.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	close(s.stopCh)
	s.mu.Unlock()

	<-s.doneCh

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler context cancelled")
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick runs every due source once, sequentially. Runs are short-lived by
// construction, so one slow source delays the rest of the tick rather than
// piling up goroutines.
func (s *Scheduler) tick(ctx context.Context) {
	if s.lock != nil {
		acquired, err := s.lock.Acquire(ctx, "scheduler", s.lockTTL)
		if err != nil {
			s.logger.Warn("failed to acquire scheduler lock", "error", err)
			return
		}
		if !acquired {
			return
		}
		defer func() {
			if err := s.lock.Release(ctx, "scheduler"); err != nil {
				s.logger.Warn("failed to release scheduler lock", "error", err)
			}
		}()
	}

	now := time.Now().UTC()
	due, err := s.sources.ListDue(ctx, now)
	if err != nil {
		s.logger.Error("failed to list due sources", "error", err)
		return
	}

	for _, source := range due {
		if ctx.Err() != nil {
			return
		}
		if !source.IsDue(now) {
			continue
		}

		result, err := s.orchestrator.RunSourceDirect(ctx, source, s.runLimit)
		if err != nil {
			if errors.Is(err, domain.ErrRunInProgress) {
				continue
			}
			s.logger.Error("scheduled run failed",
				"source_id", source.ID,
				"error", err,
			)
			continue
		}
		s.logger.Info("scheduled run finished",
			"source_id", source.ID,
			"status", result.Status,
			"imported", result.Imported,
		)
	}
}
