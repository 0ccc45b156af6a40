package domain

import (
	"errors"
	"testing"
	"time"
)

func validTransferSource() *Source {
	return &Source{
		ID:              "source-123",
		TenantID:        "tenant-1",
		Name:            "Statements Drop",
		ProviderType:    ProviderTypeSFTP,
		Enabled:         true,
		IntervalMinutes: 60,
		Config: SourceConfig{
			Host:       "files.example.com",
			Username:   "ops",
			RemoteRoot: "/outbound",
		},
	}
}

func TestSourceValidate(t *testing.T) {
	if err := validTransferSource().Validate(); err != nil {
		t.Errorf("expected valid source, got %v", err)
	}

	s := validTransferSource()
	s.Name = "   "
	if err := s.Validate(); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for blank name, got %v", err)
	}

	s = validTransferSource()
	s.ProviderType = "webdav"
	if err := s.Validate(); !errors.Is(err, ErrUnsupportedProvider) {
		t.Errorf("expected ErrUnsupportedProvider, got %v", err)
	}

	s = validTransferSource()
	s.Config.Host = ""
	if err := s.Validate(); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for missing host, got %v", err)
	}

	// Cloud folder config on a transfer source is a shape mix-up.
	s = validTransferSource()
	s.Config.FolderID = "folder-1"
	if err := s.Validate(); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for mixed config shapes, got %v", err)
	}

	cloud := &Source{
		ID:              "source-456",
		TenantID:        "tenant-1",
		Name:            "Drive",
		ProviderType:    ProviderTypeGoogleDrive,
		IntervalMinutes: 60,
	}
	if err := cloud.Validate(); err != nil {
		t.Errorf("expected valid cloud source, got %v", err)
	}
	cloud.Config.Host = "files.example.com"
	if err := cloud.Validate(); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for host on cloud source, got %v", err)
	}
}

func TestSourceValidate_BankStatementNeedsAccount(t *testing.T) {
	s := validTransferSource()
	s.Config.DocumentType = DocumentTypeBankStatement
	if err := s.Validate(); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput without bank account, got %v", err)
	}
	s.Config.BankAccountID = "acct-1"
	if err := s.Validate(); err != nil {
		t.Errorf("expected valid with account, got %v", err)
	}
}

func TestSourceIsConnected(t *testing.T) {
	if !validTransferSource().IsConnected() {
		t.Error("transfer sources are connected once saved")
	}

	cloud := &Source{ProviderType: ProviderTypeDropbox}
	if cloud.IsConnected() {
		t.Error("cloud source without refresh token must not be connected")
	}
	cloud.Secrets = &SourceSecrets{RefreshToken: "refresh"}
	if !cloud.IsConnected() {
		t.Error("cloud source with refresh token is connected")
	}
}

func TestSourceIsDue(t *testing.T) {
	now := time.Now().UTC()

	s := validTransferSource()
	if !s.IsDue(now) {
		t.Error("never-run enabled source is due immediately")
	}

	s.Enabled = false
	if s.IsDue(now) {
		t.Error("disabled source is never due")
	}

	s = validTransferSource()
	s.IntervalMinutes = 0
	if s.IsDue(now) {
		t.Error("source without an interval is never due")
	}

	s = validTransferSource()
	recent := now.Add(-30 * time.Minute)
	s.LastRunAt = &recent
	if s.IsDue(now) {
		t.Error("source inside its interval is not due")
	}

	old := now.Add(-61 * time.Minute)
	s.LastRunAt = &old
	if !s.IsDue(now) {
		t.Error("source past its interval is due")
	}
}

func TestSourcePort(t *testing.T) {
	s := validTransferSource()
	if s.Port() != 22 {
		t.Errorf("expected sftp default 22, got %d", s.Port())
	}
	s.ProviderType = ProviderTypeFTPS
	if s.Port() != 21 {
		t.Errorf("expected ftps default 21, got %d", s.Port())
	}
	s.Config.Port = 2222
	if s.Port() != 2222 {
		t.Errorf("expected configured port, got %d", s.Port())
	}
}

func TestToSummaryOmitsSecrets(t *testing.T) {
	s := validTransferSource()
	s.Secrets = &SourceSecrets{Password: "hunter2"}
	s.Config.FolderName = ""

	summary := s.ToSummary()
	if summary.ID != s.ID || summary.Name != s.Name {
		t.Errorf("unexpected summary %+v", summary)
	}
	if !summary.Connected {
		t.Error("expected transfer source reported connected")
	}
}

func TestGlobOrDefault(t *testing.T) {
	c := SourceConfig{}
	if c.GlobOrDefault() != "**/*" {
		t.Errorf("expected match-all default, got %q", c.GlobOrDefault())
	}
	c.Glob = "**/*.pdf"
	if c.GlobOrDefault() != "**/*.pdf" {
		t.Errorf("expected configured glob, got %q", c.GlobOrDefault())
	}
}
