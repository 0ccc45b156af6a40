package domain

import (
	"strings"
	"time"
)

// DocumentTypeBankStatement marks a source whose imports should be linked to
// a bank account as statements.
const DocumentTypeBankStatement = "bank_statement"

// Source is a tenant's configured connection to one remote provider.
type Source struct {
	ID              string       `json:"id"`
	TenantID        string       `json:"tenant_id"`
	Name            string       `json:"name"`
	ProviderType    ProviderType `json:"provider_type"`
	Enabled         bool         `json:"enabled"`
	IntervalMinutes int          `json:"interval_minutes"`
	LastRunAt       *time.Time   `json:"last_run_at,omitempty"`
	Config          SourceConfig `json:"config"`

	// Secrets contains decrypted secret values. Populated when fetching a
	// single source from the store, nil when listing. Never serialized.
	Secrets *SourceSecrets `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	CreatedBy string    `json:"created_by"`
}

// SourceConfig holds provider-specific, non-secret configuration.
// The provider tag on the owning Source decides which fields are meaningful.
type SourceConfig struct {
	// Transfer protocols (sftp, ftps)
	Host       string `json:"host,omitempty"`
	Port       int    `json:"port,omitempty"`
	Username   string `json:"username,omitempty"`
	RemoteRoot string `json:"remote_root,omitempty"`
	Glob       string `json:"glob,omitempty"`

	// Cloud drives (gdrive, dropbox)
	FolderID   string `json:"folder_id,omitempty"`
	FolderName string `json:"folder_name,omitempty"`

	// Any provider
	DocumentType  string `json:"document_type,omitempty"`
	BankAccountID string `json:"bank_account_id,omitempty"`
}

// SourceSecrets contains decrypted secret values. Encrypted as one blob
// before storage and decrypted on retrieval.
type SourceSecrets struct {
	// Transfer protocols
	Password           string `json:"password,omitempty"`
	PrivateKeyPEM      string `json:"private_key_pem,omitempty"`
	Passphrase         string `json:"passphrase,omitempty"`
	HostKeyFingerprint string `json:"host_key_fingerprint,omitempty"`
	ClientCertPEM      string `json:"client_cert_pem,omitempty"`
	ClientKeyPEM       string `json:"client_key_pem,omitempty"`
	CACertPEM          string `json:"ca_cert_pem,omitempty"`

	// OAuth cloud drives
	RefreshToken string     `json:"refresh_token,omitempty"`
	AccessToken  string     `json:"access_token,omitempty"`
	TokenExpiry  *time.Time `json:"token_expiry,omitempty"`

	// Bcrypt hash of the external run-hook secret; plaintext is shown once
	// at rotation and never stored.
	RunHookSecretHash string `json:"run_hook_secret_hash,omitempty"`
}

// SourceSummary is a safe view without secrets for listing.
type SourceSummary struct {
	ID              string       `json:"id"`
	TenantID        string       `json:"tenant_id"`
	Name            string       `json:"name"`
	ProviderType    ProviderType `json:"provider_type"`
	Enabled         bool         `json:"enabled"`
	IntervalMinutes int          `json:"interval_minutes"`
	LastRunAt       *time.Time   `json:"last_run_at,omitempty"`
	Connected       bool         `json:"connected"`
	FolderName      string       `json:"folder_name,omitempty"`
	LastRunStatus   string       `json:"last_run_status,omitempty"`
}

// ToSummary converts a Source to its safe listing view.
func (s *Source) ToSummary() *SourceSummary {
	return &SourceSummary{
		ID:              s.ID,
		TenantID:        s.TenantID,
		Name:            s.Name,
		ProviderType:    s.ProviderType,
		Enabled:         s.Enabled,
		IntervalMinutes: s.IntervalMinutes,
		LastRunAt:       s.LastRunAt,
		Connected:       s.IsConnected(),
		FolderName:      s.Config.FolderName,
	}
}

// IsConnected reports whether the source holds a usable credential.
// Transfer sources are connected once saved; cloud sources need a refresh token.
func (s *Source) IsConnected() bool {
	if s.ProviderType.IsTransfer() {
		return true
	}
	return s.Secrets != nil && s.Secrets.RefreshToken != ""
}

// Port returns the configured port, falling back to the provider default.
func (s *Source) Port() int {
	if s.Config.Port > 0 {
		return s.Config.Port
	}
	return s.ProviderType.DefaultPort()
}

// HasFolderSelected reports whether a cloud source has a folder picked.
func (s *Source) HasFolderSelected() bool {
	return s.Config.FolderID != ""
}

// IsDue reports whether a scheduled run is owed at now.
// Disabled sources and sources with a non-positive interval are never due.
func (s *Source) IsDue(now time.Time) bool {
	if !s.Enabled || s.IntervalMinutes <= 0 {
		return false
	}
	if s.LastRunAt == nil {
		return true
	}
	return now.Sub(*s.LastRunAt) >= time.Duration(s.IntervalMinutes)*time.Minute
}

// GlobOrDefault returns the configured glob, defaulting to match-all.
func (c SourceConfig) GlobOrDefault() string {
	if c.Glob == "" {
		return "**/*"
	}
	return c.Glob
}

// Validate checks the config shape against the provider tag.
func (s *Source) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrInvalidInput
	}
	if !s.ProviderType.IsSupported() {
		return ErrUnsupportedProvider
	}
	switch {
	case s.ProviderType.IsTransfer():
		if s.Config.Host == "" || s.Config.Username == "" {
			return ErrInvalidInput
		}
		// A cloud folder id on a transfer source means the caller mixed up
		// provider config shapes.
		if s.Config.FolderID != "" {
			return ErrInvalidInput
		}
	case s.ProviderType.IsCloudDrive():
		if s.Config.Host != "" || s.Config.RemoteRoot != "" {
			return ErrInvalidInput
		}
	}
	if s.Config.DocumentType == DocumentTypeBankStatement && s.Config.BankAccountID == "" {
		return ErrInvalidInput
	}
	return nil
}

// DefaultPort returns the conventional port for a transfer provider.
func (pt ProviderType) DefaultPort() int {
	switch pt {
	case ProviderTypeSFTP:
		return 22
	case ProviderTypeFTPS:
		return 21
	}
	return 0
}
