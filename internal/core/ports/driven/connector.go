package driven

import (
	"context"

	"github.com/quillhq/docsync/internal/core/domain"
)

// Connector is the uniform contract over one remote provider.
// Connectors are created per run (or per browse call) by the ConnectorFactory
// with an already-resolved credential; they never read stored secrets.
type Connector interface {
	// Type returns the provider type.
	Type() domain.ProviderType

	// List enumerates regular files under the source's configured root or
	// selected folder. Transfer drivers apply the source's glob during
	// listing; cloud drivers return the folder's children unfiltered and the
	// caller applies the glob. An empty folder yields an empty list, not an
	// error. A partial listing (one failed page) aborts the whole call.
	List(ctx context.Context) ([]domain.RemoteFile, error)

	// ListFolders enumerates folder-typed children of parent for the
	// browsing UI. Transfer drivers return ErrBrowseNotSupported. For cloud
	// drives an empty parent means the account root, and the root listing
	// additionally includes any shared drives/spaces as pseudo-folders with
	// DrivePrefix-namespaced ids.
	ListFolders(ctx context.Context, parent string) ([]domain.Folder, error)

	// Download fetches the raw bytes of one listed candidate.
	Download(ctx context.Context, file domain.RemoteFile) ([]byte, error)

	// AccountInfo identifies the connected account. Cloud drives only;
	// transfer drivers return ErrBrowseNotSupported.
	AccountInfo(ctx context.Context) (*domain.AccountInfo, error)

	// Close releases the underlying connection. Stateless drivers return nil.
	Close() error
}

// ResolvedCredential is the ready-to-use credential for one connector
// invocation, produced by the credential manager. It lives on the call stack
// only and is never persisted.
type ResolvedCredential struct {
	// Transfer protocols: the source's static secrets, passed through.
	Secrets *domain.SourceSecrets

	// Cloud drives: a short-lived access token refreshed for this call.
	AccessToken string
}

// ConnectorFactory creates connectors for sources.
type ConnectorFactory interface {
	// Create builds a connector for the source using the resolved credential.
	Create(ctx context.Context, source *domain.Source, cred ResolvedCredential) (Connector, error)

	// SupportedTypes returns all registered provider types.
	SupportedTypes() []domain.ProviderType
}
