// Package ftps implements the FTPS source driver using explicit TLS
// (AUTH TLS) with optional mutual TLS when a client certificate is
// configured. Listing walks the configured remote root recursively and
// applies the source's glob.
package ftps

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net"
	"path"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"

	"github.com/quillhq/docsync/internal/core/domain"
	"github.com/quillhq/docsync/internal/core/ports/driven"
	"github.com/quillhq/docsync/internal/fileglob"
)

const dialTimeout = 15 * time.Second

// Connector is a live FTPS control connection scoped to one source.
type Connector struct {
	conn    *ftp.ServerConn
	root    string
	matcher *fileglob.Matcher
}

var _ driven.Connector = (*Connector)(nil)

// New dials the source's server with explicit TLS and logs in with the
// resolved credential.
func New(ctx context.Context, source *domain.Source, cred driven.ResolvedCredential) (driven.Connector, error) {
	if cred.Secrets == nil {
		return nil, domain.NewConnectorError(domain.ProviderTypeFTPS, "connect", fmt.Errorf("no credentials resolved"))
	}

	matcher, err := fileglob.Compile(source.Config.GlobOrDefault())
	if err != nil {
		return nil, domain.NewConnectorError(domain.ProviderTypeFTPS, "connect", err)
	}

	tlsCfg, err := tlsConfig(source.Config.Host, cred.Secrets)
	if err != nil {
		return nil, domain.NewConnectorError(domain.ProviderTypeFTPS, "connect", err)
	}

	addr := net.JoinHostPort(source.Config.Host, fmt.Sprintf("%d", source.Port()))
	conn, err := ftp.Dial(addr,
		ftp.DialWithContext(ctx),
		ftp.DialWithTimeout(dialTimeout),
		ftp.DialWithExplicitTLS(tlsCfg),
	)
	if err != nil {
		return nil, domain.NewConnectorError(domain.ProviderTypeFTPS, "connect", err)
	}

	if err := conn.Login(source.Config.Username, cred.Secrets.Password); err != nil {
		conn.Quit()
		return nil, domain.NewConnectorError(domain.ProviderTypeFTPS, "connect", err)
	}

	root := strings.TrimSuffix(source.Config.RemoteRoot, "/")
	if root == "" {
		root = "."
	}

	return &Connector{conn: conn, root: root, matcher: matcher}, nil
}

// tlsConfig builds the TLS client config, loading a client certificate for
// mutual TLS and a private CA bundle when configured.
func tlsConfig(host string, secrets *domain.SourceSecrets) (*tls.Config, error) {
	cfg := &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12}

	if secrets.ClientCertPEM != "" {
		if secrets.ClientKeyPEM == "" {
			return nil, fmt.Errorf("client certificate configured without key")
		}
		cert, err := tls.X509KeyPair([]byte(secrets.ClientCertPEM), []byte(secrets.ClientKeyPEM))
		if err != nil {
			return nil, fmt.Errorf("load client certificate: %w", err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}

	if secrets.CACertPEM != "" {
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM([]byte(secrets.CACertPEM)) {
			return nil, fmt.Errorf("no certificates parsed from CA bundle")
		}
		cfg.RootCAs = pool
	}

	return cfg, nil
}

// Type returns the provider type.
func (c *Connector) Type() domain.ProviderType {
	return domain.ProviderTypeFTPS
}

// List walks the remote root recursively and returns files matching the glob.
func (c *Connector) List(ctx context.Context) ([]domain.RemoteFile, error) {
	var files []domain.RemoteFile
	if err := c.walk(ctx, c.root, "", &files); err != nil {
		return nil, err
	}
	return files, nil
}

func (c *Connector) walk(ctx context.Context, dir, prefix string, out *[]domain.RemoteFile) error {
	if err := ctx.Err(); err != nil {
		return domain.NewConnectorError(domain.ProviderTypeFTPS, "list", err)
	}
	entries, err := c.conn.List(dir)
	if err != nil {
		return domain.NewConnectorError(domain.ProviderTypeFTPS, "list", err)
	}
	for _, e := range entries {
		if e.Name == "." || e.Name == ".." {
			continue
		}
		rel := e.Name
		if prefix != "" {
			rel = prefix + "/" + e.Name
		}
		full := path.Join(dir, e.Name)
		switch e.Type {
		case ftp.EntryTypeFolder:
			if err := c.walk(ctx, full, rel, out); err != nil {
				return err
			}
		case ftp.EntryTypeFile:
			if !c.matcher.Match(rel) {
				continue
			}
			*out = append(*out, domain.RemoteFile{
				Ref:        full,
				Name:       rel,
				Size:       int64(e.Size),
				ModifiedAt: e.Time.UTC(),
			})
		}
	}
	return nil
}

// ListFolders is not supported for transfer protocols.
func (c *Connector) ListFolders(ctx context.Context, parent string) ([]domain.Folder, error) {
	return nil, domain.ErrBrowseNotSupported
}

// Download retrieves one file by its full remote path.
func (c *Connector) Download(ctx context.Context, file domain.RemoteFile) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.NewConnectorError(domain.ProviderTypeFTPS, "download", err)
	}
	resp, err := c.conn.Retr(file.Ref)
	if err != nil {
		return nil, domain.NewConnectorError(domain.ProviderTypeFTPS, "download", err)
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return nil, domain.NewConnectorError(domain.ProviderTypeFTPS, "download", err)
	}
	return data, nil
}

// AccountInfo is not meaningful for transfer protocols.
func (c *Connector) AccountInfo(ctx context.Context) (*domain.AccountInfo, error) {
	return nil, domain.ErrBrowseNotSupported
}

// Close sends QUIT and tears down the control connection.
func (c *Connector) Close() error {
	return c.conn.Quit()
}
