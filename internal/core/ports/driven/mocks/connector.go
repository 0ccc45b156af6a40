package mocks

import (
	"context"
	"sync"

	"github.com/quillhq/docsync/internal/core/domain"
	"github.com/quillhq/docsync/internal/core/ports/driven"
)

// MockConnector is a mock implementation of Connector for testing
type MockConnector struct {
	TypeFn        func() domain.ProviderType
	ListFn        func(ctx context.Context) ([]domain.RemoteFile, error)
	ListFoldersFn func(ctx context.Context, parent string) ([]domain.Folder, error)
	DownloadFn    func(ctx context.Context, file domain.RemoteFile) ([]byte, error)
	AccountInfoFn func(ctx context.Context) (*domain.AccountInfo, error)
	CloseFn       func() error

	mu        sync.Mutex
	downloads []string
	closed    bool
}

// NewMockConnector creates a new MockConnector
func NewMockConnector() *MockConnector {
	return &MockConnector{}
}

func (m *MockConnector) Type() domain.ProviderType {
	if m.TypeFn != nil {
		return m.TypeFn()
	}
	return domain.ProviderTypeSFTP
}

func (m *MockConnector) List(ctx context.Context) ([]domain.RemoteFile, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx)
	}
	return nil, nil
}

func (m *MockConnector) ListFolders(ctx context.Context, parent string) ([]domain.Folder, error) {
	if m.ListFoldersFn != nil {
		return m.ListFoldersFn(ctx, parent)
	}
	return nil, domain.ErrBrowseNotSupported
}

func (m *MockConnector) Download(ctx context.Context, file domain.RemoteFile) ([]byte, error) {
	m.mu.Lock()
	m.downloads = append(m.downloads, file.Ref)
	m.mu.Unlock()
	if m.DownloadFn != nil {
		return m.DownloadFn(ctx, file)
	}
	return []byte{}, nil
}

func (m *MockConnector) AccountInfo(ctx context.Context) (*domain.AccountInfo, error) {
	if m.AccountInfoFn != nil {
		return m.AccountInfoFn(ctx)
	}
	return nil, domain.ErrBrowseNotSupported
}

func (m *MockConnector) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	if m.CloseFn != nil {
		return m.CloseFn()
	}
	return nil
}

// Helper methods for testing

// Downloads returns the refs downloaded so far, in order.
func (m *MockConnector) Downloads() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.downloads...)
}

// Closed reports whether Close was called.
func (m *MockConnector) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// MockConnectorFactory is a mock implementation of ConnectorFactory for testing
type MockConnectorFactory struct {
	CreateFn         func(ctx context.Context, source *domain.Source, cred driven.ResolvedCredential) (driven.Connector, error)
	SupportedTypesFn func() []domain.ProviderType
	connector        *MockConnector
}

// NewMockConnectorFactory creates a new MockConnectorFactory
func NewMockConnectorFactory() *MockConnectorFactory {
	return &MockConnectorFactory{
		connector: NewMockConnector(),
	}
}

func (m *MockConnectorFactory) Create(ctx context.Context, source *domain.Source, cred driven.ResolvedCredential) (driven.Connector, error) {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, source, cred)
	}
	return m.connector, nil
}

func (m *MockConnectorFactory) SupportedTypes() []domain.ProviderType {
	if m.SupportedTypesFn != nil {
		return m.SupportedTypesFn()
	}
	return []domain.ProviderType{
		domain.ProviderTypeSFTP,
		domain.ProviderTypeFTPS,
		domain.ProviderTypeGoogleDrive,
		domain.ProviderTypeDropbox,
	}
}

// Connector returns the default connector handed out by Create.
func (m *MockConnectorFactory) Connector() *MockConnector {
	return m.connector
}

// SetConnector sets the connector returned by Create.
func (m *MockConnectorFactory) SetConnector(c *MockConnector) {
	m.connector = c
}
