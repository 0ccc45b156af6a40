package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/quillhq/docsync/internal/core/domain"
	"github.com/quillhq/docsync/internal/core/ports/driven"
	"github.com/quillhq/docsync/internal/core/ports/driving"
)

// SourceRegistry implements the source management boundary.
type SourceRegistry struct {
	sources     driven.SourceStore
	identities  driven.IdentityStore
	runStates   driven.RunStateStore
	documents   driven.DocumentStore
	factory     driven.ConnectorFactory
	credentials *CredentialResolver
	logger      *slog.Logger
}

var _ driving.SourceService = (*SourceRegistry)(nil)

// SourceRegistryConfig holds dependencies for SourceRegistry.
type SourceRegistryConfig struct {
	SourceStore        driven.SourceStore
	IdentityStore      driven.IdentityStore
	RunStateStore      driven.RunStateStore
	DocumentStore      driven.DocumentStore
	ConnectorFactory   driven.ConnectorFactory
	CredentialResolver *CredentialResolver
	Logger             *slog.Logger
}

// NewSourceRegistry creates a source registry.
func NewSourceRegistry(cfg SourceRegistryConfig) *SourceRegistry {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SourceRegistry{
		sources:     cfg.SourceStore,
		identities:  cfg.IdentityStore,
		runStates:   cfg.RunStateStore,
		documents:   cfg.DocumentStore,
		factory:     cfg.ConnectorFactory,
		credentials: cfg.CredentialResolver,
		logger:      logger,
	}
}

// List returns a tenant's sources as safe summaries with last-run status.
func (r *SourceRegistry) List(ctx context.Context, tenantID string) ([]*domain.SourceSummary, error) {
	sources, err := r.sources.List(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	summaries := make([]*domain.SourceSummary, 0, len(sources))
	for _, s := range sources {
		summary := s.ToSummary()
		if state, err := r.runStates.Get(ctx, s.ID); err == nil && state != nil {
			summary.LastRunStatus = string(state.Status)
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// Get returns a tenant's source with secrets stripped.
func (r *SourceRegistry) Get(ctx context.Context, tenantID, id string) (*domain.Source, error) {
	source, err := r.sources.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	source.Secrets = nil
	return source, nil
}

// Upsert validates and persists a source. On update, omitted secret fields
// keep their stored values so callers never need to echo secrets back.
func (r *SourceRegistry) Upsert(ctx context.Context, tenantID, creatorID, id string, input driving.SourceInput) (string, error) {
	now := time.Now().UTC()

	var existing *domain.Source
	if id != "" {
		var err error
		existing, err = r.sources.Get(ctx, tenantID, id)
		if err != nil {
			return "", err
		}
	}

	source := &domain.Source{
		ID:              id,
		TenantID:        tenantID,
		Name:            input.Name,
		ProviderType:    input.ProviderType,
		IntervalMinutes: input.IntervalMinutes,
		Config:          input.Config,
		Enabled:         true,
		CreatedAt:       now,
		UpdatedAt:       now,
		CreatedBy:       creatorID,
	}
	if input.Enabled != nil {
		source.Enabled = *input.Enabled
	}

	if existing != nil {
		source.CreatedAt = existing.CreatedAt
		source.CreatedBy = existing.CreatedBy
		source.LastRunAt = existing.LastRunAt
		if input.ProviderType == "" {
			source.ProviderType = existing.ProviderType
		}
		source.Secrets = mergeSecrets(existing.Secrets, input.Secrets)
		// Changing provider invalidates the stored credential wholesale.
		// An empty set is written explicitly so the store cannot keep the
		// old blob.
		if source.ProviderType != existing.ProviderType {
			source.Secrets = input.Secrets
			if source.Secrets == nil {
				source.Secrets = &domain.SourceSecrets{}
			}
		}
	} else {
		source.ID = uuid.NewString()
		source.Secrets = input.Secrets
	}

	if err := source.Validate(); err != nil {
		return "", err
	}

	if err := r.sources.Save(ctx, source); err != nil {
		return "", fmt.Errorf("save source: %w", err)
	}

	r.logger.Info("source saved",
		"source_id", source.ID,
		"tenant_id", tenantID,
		"provider", source.ProviderType,
	)
	return source.ID, nil
}

// mergeSecrets overlays non-empty incoming secret fields on the stored set.
func mergeSecrets(existing, incoming *domain.SourceSecrets) *domain.SourceSecrets {
	if incoming == nil {
		return existing
	}
	if existing == nil {
		return incoming
	}
	merged := *existing
	if incoming.Password != "" {
		merged.Password = incoming.Password
	}
	if incoming.PrivateKeyPEM != "" {
		merged.PrivateKeyPEM = incoming.PrivateKeyPEM
		merged.Passphrase = incoming.Passphrase
	}
	if incoming.HostKeyFingerprint != "" {
		merged.HostKeyFingerprint = incoming.HostKeyFingerprint
	}
	if incoming.ClientCertPEM != "" {
		merged.ClientCertPEM = incoming.ClientCertPEM
		merged.ClientKeyPEM = incoming.ClientKeyPEM
	}
	if incoming.CACertPEM != "" {
		merged.CACertPEM = incoming.CACertPEM
	}
	return &merged
}

// Delete removes the source along with its identity ledger and run record,
// so re-adding the same remote later starts from a clean slate.
func (r *SourceRegistry) Delete(ctx context.Context, tenantID, id string) error {
	if _, err := r.sources.Get(ctx, tenantID, id); err != nil {
		return err
	}
	if err := r.identities.DeleteBySource(ctx, id); err != nil {
		return fmt.Errorf("delete identity ledger: %w", err)
	}
	if err := r.runStates.Delete(ctx, id); err != nil {
		r.logger.Warn("failed to delete run state", "source_id", id, "error", err)
	}
	if err := r.sources.Delete(ctx, tenantID, id); err != nil {
		return fmt.Errorf("delete source: %w", err)
	}
	r.logger.Info("source deleted", "source_id", id, "tenant_id", tenantID)
	return nil
}

// Disconnect drops the stored OAuth tokens, keeping the source itself.
func (r *SourceRegistry) Disconnect(ctx context.Context, tenantID, id string) error {
	source, err := r.sources.Get(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if !source.ProviderType.IsCloudDrive() {
		return fmt.Errorf("provider %s has no OAuth connection: %w", source.ProviderType, domain.ErrInvalidInput)
	}

	secrets := source.Secrets
	if secrets == nil {
		secrets = &domain.SourceSecrets{}
	}
	secrets.RefreshToken = ""
	secrets.AccessToken = ""
	secrets.TokenExpiry = nil

	if err := r.sources.UpdateSecrets(ctx, id, secrets); err != nil {
		return fmt.Errorf("update secrets: %w", err)
	}
	r.logger.Info("source disconnected", "source_id", id, "tenant_id", tenantID)
	return nil
}

// RotateRunSecret mints a new run-hook secret, stores only its bcrypt hash,
// and returns the plaintext exactly once.
func (r *SourceRegistry) RotateRunSecret(ctx context.Context, tenantID, id string) (string, error) {
	source, err := r.sources.Get(ctx, tenantID, id)
	if err != nil {
		return "", err
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	plaintext := hex.EncodeToString(raw)

	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash secret: %w", err)
	}

	secrets := source.Secrets
	if secrets == nil {
		secrets = &domain.SourceSecrets{}
	}
	secrets.RunHookSecretHash = string(hash)

	if err := r.sources.UpdateSecrets(ctx, id, secrets); err != nil {
		return "", fmt.Errorf("update secrets: %w", err)
	}
	r.logger.Info("run secret rotated", "source_id", id, "tenant_id", tenantID)
	return plaintext, nil
}

// VerifyRunSecret checks a presented run-hook secret against the stored
// hash and returns the source on success. Failures are uniformly
// ErrUnauthorized so callers cannot probe which sources have hooks.
func (r *SourceRegistry) VerifyRunSecret(ctx context.Context, sourceID, secret string) (*domain.Source, error) {
	source, err := r.sources.GetByID(ctx, sourceID)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}
	if source.Secrets == nil || source.Secrets.RunHookSecretHash == "" {
		return nil, domain.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(source.Secrets.RunHookSecretHash), []byte(secret)); err != nil {
		return nil, domain.ErrUnauthorized
	}
	return source, nil
}

// GetConnectionStatus reports connectivity, resolving the live account for
// connected cloud sources.
func (r *SourceRegistry) GetConnectionStatus(ctx context.Context, tenantID, id string) (*driving.ConnectionStatus, error) {
	source, err := r.sources.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	status := &driving.ConnectionStatus{Connected: source.IsConnected()}
	if count, err := r.documents.CountBySource(ctx, source.ID); err == nil {
		status.ImportedDocuments = count
	} else {
		r.logger.Warn("failed to count imported documents",
			"source_id", source.ID, "error", err)
	}
	if !source.ProviderType.IsCloudDrive() || !status.Connected {
		return status, nil
	}

	connector, err := r.connect(ctx, source)
	if err != nil {
		// A rejected refresh token means the connection is gone.
		status.Connected = false
		return status, nil
	}
	defer connector.Close()

	if info, err := connector.AccountInfo(ctx); err == nil {
		status.AccountInfo = info
	}
	return status, nil
}

// ListRemoteFolders browses one folder level of a cloud source.
func (r *SourceRegistry) ListRemoteFolders(ctx context.Context, tenantID, id, parent string) ([]domain.Folder, error) {
	source, err := r.sources.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if !source.ProviderType.IsCloudDrive() {
		return nil, domain.ErrBrowseNotSupported
	}
	if !source.IsConnected() {
		return nil, domain.ErrNotConnected
	}

	connector, err := r.connect(ctx, source)
	if err != nil {
		return nil, err
	}
	defer connector.Close()

	folders, err := connector.ListFolders(ctx, parent)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	return folders, nil
}

// SelectFolder persists the operator's folder pick.
func (r *SourceRegistry) SelectFolder(ctx context.Context, tenantID, id, folderID, folderName string) error {
	source, err := r.sources.Get(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if !source.ProviderType.IsCloudDrive() {
		return fmt.Errorf("provider %s selects folders by path config: %w", source.ProviderType, domain.ErrInvalidInput)
	}
	if folderID == "" {
		return fmt.Errorf("folder id required: %w", domain.ErrInvalidInput)
	}

	source.Config.FolderID = folderID
	source.Config.FolderName = folderName
	source.UpdatedAt = time.Now().UTC()

	if err := r.sources.Save(ctx, source); err != nil {
		return fmt.Errorf("save source: %w", err)
	}
	r.logger.Info("folder selected", "source_id", id, "folder_id", folderID)
	return nil
}

func (r *SourceRegistry) connect(ctx context.Context, source *domain.Source) (driven.Connector, error) {
	cred, err := r.credentials.Resolve(ctx, source)
	if err != nil {
		return nil, err
	}
	return r.factory.Create(ctx, source, cred)
}
