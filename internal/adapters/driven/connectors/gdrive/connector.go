// Package gdrive implements the Google Drive source driver. Files are
// addressed by opaque Drive ids; shared drives surface as pseudo-folders at
// the browse root. API calls are paced with a shared rate limiter to stay
// inside per-user quota.
package gdrive

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/quillhq/docsync/internal/core/domain"
	"github.com/quillhq/docsync/internal/core/ports/driven"
)

const (
	listPageSize = 200

	fileFields = "nextPageToken, files(id, name, size, modifiedTime, mimeType)"

	folderMIME = "application/vnd.google-apps.folder"
)

// Drive's per-user quota is 12000 queries per minute; 10/s leaves headroom
// for other consumers of the same app registration.
var limiter = rate.NewLimiter(rate.Limit(10), 20)

// Connector is a Drive API client scoped to one source.
type Connector struct {
	svc      *drive.Service
	folderID string
}

var _ driven.Connector = (*Connector)(nil)

// New builds a Drive client from the resolved access token.
func New(ctx context.Context, source *domain.Source, cred driven.ResolvedCredential) (driven.Connector, error) {
	if cred.AccessToken == "" {
		return nil, domain.NewConnectorError(domain.ProviderTypeGoogleDrive, "connect", fmt.Errorf("no access token resolved"))
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cred.AccessToken})
	svc, err := drive.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, domain.NewConnectorError(domain.ProviderTypeGoogleDrive, "connect", err)
	}
	return &Connector{svc: svc, folderID: source.Config.FolderID}, nil
}

// Type returns the provider type.
func (c *Connector) Type() domain.ProviderType {
	return domain.ProviderTypeGoogleDrive
}

// List returns the regular files directly inside the selected folder.
// Listing is non-recursive; the folder choice is the scope. The caller
// applies the source's glob.
func (c *Connector) List(ctx context.Context) ([]domain.RemoteFile, error) {
	if c.folderID == "" {
		return nil, domain.ErrNoFolderSelected
	}

	parent, driveID := resolveFolder(c.folderID)

	var files []domain.RemoteFile
	pageToken := ""
	for {
		if err := limiter.Wait(ctx); err != nil {
			return nil, domain.NewConnectorError(domain.ProviderTypeGoogleDrive, "list", err)
		}
		call := c.svc.Files.List().
			Q(fmt.Sprintf("'%s' in parents and trashed = false and mimeType != '%s'", parent, folderMIME)).
			Fields(fileFields).
			PageSize(listPageSize).
			SupportsAllDrives(true).
			IncludeItemsFromAllDrives(true)
		if driveID != "" {
			call = call.Corpora("drive").DriveId(driveID)
		}
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		res, err := call.Context(ctx).Do()
		if err != nil {
			return nil, domain.NewConnectorError(domain.ProviderTypeGoogleDrive, "list", err)
		}
		for _, f := range res.Files {
			modified, _ := time.Parse(time.RFC3339, f.ModifiedTime)
			files = append(files, domain.RemoteFile{
				Ref:        f.Id,
				Name:       f.Name,
				Size:       f.Size,
				ModifiedAt: modified.UTC(),
				MimeType:   f.MimeType,
			})
		}
		if res.NextPageToken == "" {
			return files, nil
		}
		pageToken = res.NextPageToken
	}
}

// ListFolders returns folder children of parent. The root listing ("") is
// My Drive's top level plus one pseudo-folder per shared drive.
func (c *Connector) ListFolders(ctx context.Context, parent string) ([]domain.Folder, error) {
	var folders []domain.Folder

	if parent == "" {
		drives, err := c.listSharedDrives(ctx)
		if err != nil {
			return nil, err
		}
		folders = append(folders, drives...)
		parent = "root"
	}

	id, driveID := resolveFolder(parent)

	pageToken := ""
	for {
		if err := limiter.Wait(ctx); err != nil {
			return nil, domain.NewConnectorError(domain.ProviderTypeGoogleDrive, "list_folders", err)
		}
		call := c.svc.Files.List().
			Q(fmt.Sprintf("'%s' in parents and trashed = false and mimeType = '%s'", id, folderMIME)).
			Fields("nextPageToken, files(id, name)").
			PageSize(listPageSize).
			SupportsAllDrives(true).
			IncludeItemsFromAllDrives(true)
		if driveID != "" {
			call = call.Corpora("drive").DriveId(driveID)
		}
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		res, err := call.Context(ctx).Do()
		if err != nil {
			return nil, domain.NewConnectorError(domain.ProviderTypeGoogleDrive, "list_folders", err)
		}
		for _, f := range res.Files {
			folders = append(folders, domain.Folder{ID: f.Id, Name: f.Name})
		}
		if res.NextPageToken == "" {
			return folders, nil
		}
		pageToken = res.NextPageToken
	}
}

func (c *Connector) listSharedDrives(ctx context.Context) ([]domain.Folder, error) {
	var folders []domain.Folder
	pageToken := ""
	for {
		if err := limiter.Wait(ctx); err != nil {
			return nil, domain.NewConnectorError(domain.ProviderTypeGoogleDrive, "list_folders", err)
		}
		call := c.svc.Drives.List().PageSize(100)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		res, err := call.Context(ctx).Do()
		if err != nil {
			return nil, domain.NewConnectorError(domain.ProviderTypeGoogleDrive, "list_folders", err)
		}
		for _, d := range res.Drives {
			folders = append(folders, domain.Folder{
				ID:     domain.DriveRef(d.Id),
				Name:   d.Name,
				Shared: true,
			})
		}
		if res.NextPageToken == "" {
			return folders, nil
		}
		pageToken = res.NextPageToken
	}
}

// Download fetches the raw content of one file by id.
func (c *Connector) Download(ctx context.Context, file domain.RemoteFile) ([]byte, error) {
	if err := limiter.Wait(ctx); err != nil {
		return nil, domain.NewConnectorError(domain.ProviderTypeGoogleDrive, "download", err)
	}
	res, err := c.svc.Files.Get(file.Ref).SupportsAllDrives(true).Context(ctx).Download()
	if err != nil {
		return nil, domain.NewConnectorError(domain.ProviderTypeGoogleDrive, "download", err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, domain.NewConnectorError(domain.ProviderTypeGoogleDrive, "download", err)
	}
	return data, nil
}

// AccountInfo identifies the connected Google account.
func (c *Connector) AccountInfo(ctx context.Context) (*domain.AccountInfo, error) {
	if err := limiter.Wait(ctx); err != nil {
		return nil, domain.NewConnectorError(domain.ProviderTypeGoogleDrive, "account_info", err)
	}
	about, err := c.svc.About.Get().Fields("user").Context(ctx).Do()
	if err != nil {
		return nil, domain.NewConnectorError(domain.ProviderTypeGoogleDrive, "account_info", err)
	}
	info := &domain.AccountInfo{}
	if about.User != nil {
		info.Email = about.User.EmailAddress
		info.DisplayName = about.User.DisplayName
	}
	return info, nil
}

// Close is a no-op; the Drive client holds no session state.
func (c *Connector) Close() error {
	return nil
}

// resolveFolder maps a stored folder id to the Drive query parent. A
// drive-prefixed id addresses a shared drive's root, where Drive uses the
// drive id itself as the parent.
func resolveFolder(folderID string) (parent, driveID string) {
	if id, ok := domain.SplitDriveRef(folderID); ok {
		return id, id
	}
	if strings.TrimSpace(folderID) == "" {
		return "root", ""
	}
	return folderID, ""
}
