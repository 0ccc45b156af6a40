// Package dropbox implements the Dropbox source driver. Files and folders
// are addressed by Dropbox ids; mounted shared folders appear in the normal
// listing, so the browse root needs no synthetic entries.
package dropbox

import (
	"context"
	"fmt"
	"io"

	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/files"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/users"
	"golang.org/x/time/rate"

	"github.com/quillhq/docsync/internal/core/domain"
	"github.com/quillhq/docsync/internal/core/ports/driven"
)

// Dropbox data-plane calls rate limit aggressively per app; pace well under
// the documented burst allowance.
var limiter = rate.NewLimiter(rate.Limit(5), 10)

// Connector is a Dropbox API client scoped to one source.
type Connector struct {
	files    files.Client
	users    users.Client
	folderID string
}

var _ driven.Connector = (*Connector)(nil)

// New builds a Dropbox client from the resolved access token.
func New(ctx context.Context, source *domain.Source, cred driven.ResolvedCredential) (driven.Connector, error) {
	if cred.AccessToken == "" {
		return nil, domain.NewConnectorError(domain.ProviderTypeDropbox, "connect", fmt.Errorf("no access token resolved"))
	}
	cfg := dropbox.Config{Token: cred.AccessToken, LogLevel: dropbox.LogOff}
	return &Connector{
		files:    files.New(cfg),
		users:    users.New(cfg),
		folderID: source.Config.FolderID,
	}, nil
}

// Type returns the provider type.
func (c *Connector) Type() domain.ProviderType {
	return domain.ProviderTypeDropbox
}

// List returns the files directly inside the selected folder. Listing is
// non-recursive; the caller applies the source's glob.
func (c *Connector) List(ctx context.Context) ([]domain.RemoteFile, error) {
	if c.folderID == "" {
		return nil, domain.ErrNoFolderSelected
	}

	var out []domain.RemoteFile
	collect := func(entries []files.IsMetadata) {
		for _, e := range entries {
			f, ok := e.(*files.FileMetadata)
			if !ok {
				continue
			}
			out = append(out, domain.RemoteFile{
				Ref:        f.Id,
				Name:       f.Name,
				Size:       int64(f.Size),
				ModifiedAt: f.ServerModified.UTC(),
			})
		}
	}

	if err := limiter.Wait(ctx); err != nil {
		return nil, domain.NewConnectorError(domain.ProviderTypeDropbox, "list", err)
	}
	res, err := c.files.ListFolder(files.NewListFolderArg(c.folderID))
	if err != nil {
		return nil, domain.NewConnectorError(domain.ProviderTypeDropbox, "list", err)
	}
	collect(res.Entries)

	for res.HasMore {
		if err := limiter.Wait(ctx); err != nil {
			return nil, domain.NewConnectorError(domain.ProviderTypeDropbox, "list", err)
		}
		res, err = c.files.ListFolderContinue(files.NewListFolderContinueArg(res.Cursor))
		if err != nil {
			return nil, domain.NewConnectorError(domain.ProviderTypeDropbox, "list", err)
		}
		collect(res.Entries)
	}
	return out, nil
}

// ListFolders returns the folder children of parent; "" is the account root.
// Shared folders the user has mounted show up here like any other folder.
func (c *Connector) ListFolders(ctx context.Context, parent string) ([]domain.Folder, error) {
	var out []domain.Folder
	collect := func(entries []files.IsMetadata) {
		for _, e := range entries {
			f, ok := e.(*files.FolderMetadata)
			if !ok {
				continue
			}
			out = append(out, domain.Folder{ID: f.Id, Name: f.Name})
		}
	}

	if err := limiter.Wait(ctx); err != nil {
		return nil, domain.NewConnectorError(domain.ProviderTypeDropbox, "list_folders", err)
	}
	res, err := c.files.ListFolder(files.NewListFolderArg(parent))
	if err != nil {
		return nil, domain.NewConnectorError(domain.ProviderTypeDropbox, "list_folders", err)
	}
	collect(res.Entries)

	for res.HasMore {
		if err := limiter.Wait(ctx); err != nil {
			return nil, domain.NewConnectorError(domain.ProviderTypeDropbox, "list_folders", err)
		}
		res, err = c.files.ListFolderContinue(files.NewListFolderContinueArg(res.Cursor))
		if err != nil {
			return nil, domain.NewConnectorError(domain.ProviderTypeDropbox, "list_folders", err)
		}
		collect(res.Entries)
	}
	return out, nil
}

// Download fetches one file's content by id.
func (c *Connector) Download(ctx context.Context, file domain.RemoteFile) ([]byte, error) {
	if err := limiter.Wait(ctx); err != nil {
		return nil, domain.NewConnectorError(domain.ProviderTypeDropbox, "download", err)
	}
	_, content, err := c.files.Download(files.NewDownloadArg(file.Ref))
	if err != nil {
		return nil, domain.NewConnectorError(domain.ProviderTypeDropbox, "download", err)
	}
	defer content.Close()

	data, err := io.ReadAll(content)
	if err != nil {
		return nil, domain.NewConnectorError(domain.ProviderTypeDropbox, "download", err)
	}
	return data, nil
}

// AccountInfo identifies the connected Dropbox account.
func (c *Connector) AccountInfo(ctx context.Context) (*domain.AccountInfo, error) {
	if err := limiter.Wait(ctx); err != nil {
		return nil, domain.NewConnectorError(domain.ProviderTypeDropbox, "account_info", err)
	}
	acct, err := c.users.GetCurrentAccount()
	if err != nil {
		return nil, domain.NewConnectorError(domain.ProviderTypeDropbox, "account_info", err)
	}
	info := &domain.AccountInfo{Email: acct.Email}
	if acct.Name != nil {
		info.DisplayName = acct.Name.DisplayName
	}
	return info, nil
}

// Close is a no-op; the Dropbox client holds no session state.
func (c *Connector) Close() error {
	return nil
}
