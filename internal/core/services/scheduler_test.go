package services

import (
	"context"
	"testing"
	"time"

	"github.com/quillhq/docsync/internal/core/domain"
	"github.com/quillhq/docsync/internal/core/ports/driven/mocks"
)

func createTestScheduler(t *testing.T) (
	*Scheduler,
	*mocks.MockSourceStore,
	*mocks.MockConnectorFactory,
	*mocks.MockRunStateStore,
) {
	t.Helper()

	orchestrator, sourceStore, _, runStateStore, factory, _, _ := createTestRunOrchestrator(t)
	scheduler := NewScheduler(SchedulerConfig{
		SourceStore:  sourceStore,
		Orchestrator: orchestrator,
		PollInterval: time.Hour, // ticks are driven manually in tests
	})
	return scheduler, sourceStore, factory, runStateStore
}

func TestSchedulerTick_RunsDueSources(t *testing.T) {
	scheduler, sourceStore, factory, runStateStore := createTestScheduler(t)
	ctx := context.Background()

	due := testSFTPSource()
	_ = sourceStore.Save(ctx, due)

	recent := testSFTPSource()
	recent.ID = "source-2"
	now := time.Now().UTC()
	recent.LastRunAt = &now
	_ = sourceStore.Save(ctx, recent)

	factory.Connector().ListFn = func(ctx context.Context) ([]domain.RemoteFile, error) {
		return []domain.RemoteFile{remoteFile(1)}, nil
	}
	factory.Connector().DownloadFn = func(ctx context.Context, file domain.RemoteFile) ([]byte, error) {
		return pdfBytes, nil
	}

	scheduler.tick(ctx)

	state, _ := runStateStore.Get(ctx, "source-1")
	if state == nil || state.Status != domain.RunStatusCompleted {
		t.Errorf("expected due source run, got %+v", state)
	}
	if state != nil && state.Imported != 1 {
		t.Errorf("expected 1 import, got %d", state.Imported)
	}

	if state, _ := runStateStore.Get(ctx, "source-2"); state != nil {
		t.Errorf("recently run source must not run again, got %+v", state)
	}
}

func TestSchedulerTick_AdvancesScheduleOnRefusal(t *testing.T) {
	scheduler, sourceStore, _, runStateStore := createTestScheduler(t)
	ctx := context.Background()

	// Connected but mis-set cloud source: due forever unless refusals
	// advance the schedule.
	source := &domain.Source{
		ID:              "source-1",
		TenantID:        "tenant-1",
		Name:            "Drive",
		ProviderType:    domain.ProviderTypeGoogleDrive,
		Enabled:         true,
		IntervalMinutes: 60,
		Secrets:         &domain.SourceSecrets{RefreshToken: "refresh"},
	}
	_ = sourceStore.Save(ctx, source)

	scheduler.tick(ctx)

	state, _ := runStateStore.Get(ctx, "source-1")
	if state == nil || state.Status != domain.RunStatusRefused {
		t.Fatalf("expected refused run state, got %+v", state)
	}
	saved, _ := sourceStore.GetByID(ctx, "source-1")
	if saved.LastRunAt == nil {
		t.Fatal("expected last run advanced so the source is not retried every tick")
	}

	due, _ := sourceStore.ListDue(ctx, time.Now().UTC())
	if len(due) != 0 {
		t.Errorf("expected no due sources after refusal, got %d", len(due))
	}
}

func TestSchedulerTick_SkipsWhenLockHeld(t *testing.T) {
	orchestrator, sourceStore, _, runStateStore, _, _, _ := createTestRunOrchestrator(t)
	lock := mocks.NewMockDistributedLock()
	scheduler := NewScheduler(SchedulerConfig{
		SourceStore:  sourceStore,
		Orchestrator: orchestrator,
		Lock:         lock,
		PollInterval: time.Hour,
	})
	ctx := context.Background()
	_ = sourceStore.Save(ctx, testSFTPSource())

	lock.Hold("scheduler", time.Minute)
	scheduler.tick(ctx)

	if state, _ := runStateStore.Get(ctx, "source-1"); state != nil {
		t.Errorf("expected no runs while another scheduler holds the lock, got %+v", state)
	}
}

func TestScheduler_StartStop(t *testing.T) {
	scheduler, _, _, _ := createTestScheduler(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scheduler.Start(ctx)
	scheduler.Start(ctx) // second start is a no-op
	scheduler.Stop()
	scheduler.Stop() // second stop is a no-op
}

func TestSchedulerTick_DisabledSourceNeverDue(t *testing.T) {
	scheduler, sourceStore, _, runStateStore := createTestScheduler(t)
	ctx := context.Background()

	source := testSFTPSource()
	source.Enabled = false
	_ = sourceStore.Save(ctx, source)

	scheduler.tick(ctx)

	if state, _ := runStateStore.Get(ctx, "source-1"); state != nil {
		t.Errorf("disabled sources must never be scheduled, got %+v", state)
	}
}
