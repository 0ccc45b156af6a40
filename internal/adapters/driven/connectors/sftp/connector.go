// Package sftp implements the SFTP source driver on top of an SSH
// transport. The driver lists recursively under the configured remote root,
// applies the source's glob during listing, and verifies the server host key
// against a pinned fingerprint when one is configured.
package sftp

import (
	"context"
	"fmt"
	"io"
	"net"
	"path"
	"strings"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"github.com/quillhq/docsync/internal/core/domain"
	"github.com/quillhq/docsync/internal/core/ports/driven"
	"github.com/quillhq/docsync/internal/fileglob"
)

const dialTimeout = 15 * time.Second

// Connector is a live SFTP session scoped to one source.
type Connector struct {
	sshClient  *ssh.Client
	sftpClient *sftp.Client
	root       string
	matcher    *fileglob.Matcher
}

var _ driven.Connector = (*Connector)(nil)

// New dials the source's SFTP server and authenticates with the resolved
// credential. Password and private-key auth are supported; a configured host
// key fingerprint is enforced, otherwise the key is accepted on first use.
func New(ctx context.Context, source *domain.Source, cred driven.ResolvedCredential) (driven.Connector, error) {
	if cred.Secrets == nil {
		return nil, domain.NewConnectorError(domain.ProviderTypeSFTP, "connect", fmt.Errorf("no credentials resolved"))
	}

	auth, err := authMethods(cred.Secrets)
	if err != nil {
		return nil, domain.NewConnectorError(domain.ProviderTypeSFTP, "connect", err)
	}

	matcher, err := fileglob.Compile(source.Config.GlobOrDefault())
	if err != nil {
		return nil, domain.NewConnectorError(domain.ProviderTypeSFTP, "connect", err)
	}

	cfg := &ssh.ClientConfig{
		User:            source.Config.Username,
		Auth:            auth,
		HostKeyCallback: hostKeyCallback(cred.Secrets.HostKeyFingerprint),
		Timeout:         dialTimeout,
	}

	addr := net.JoinHostPort(source.Config.Host, fmt.Sprintf("%d", source.Port()))
	sshClient, err := dialSSH(ctx, addr, cfg)
	if err != nil {
		return nil, domain.NewConnectorError(domain.ProviderTypeSFTP, "connect", err)
	}

	sftpClient, err := sftp.NewClient(sshClient)
	if err != nil {
		sshClient.Close()
		return nil, domain.NewConnectorError(domain.ProviderTypeSFTP, "connect", err)
	}

	root := source.Config.RemoteRoot
	if root == "" {
		root = "."
	}

	return &Connector{
		sshClient:  sshClient,
		sftpClient: sftpClient,
		root:       root,
		matcher:    matcher,
	}, nil
}

// dialSSH runs the dial under the context so a cancelled run does not hang
// on an unresponsive server.
func dialSSH(ctx context.Context, addr string, cfg *ssh.ClientConfig) (*ssh.Client, error) {
	d := net.Dialer{Timeout: cfg.Timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	c, chans, reqs, err := ssh.NewClientConn(conn, addr, cfg)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return ssh.NewClient(c, chans, reqs), nil
}

func authMethods(secrets *domain.SourceSecrets) ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod
	if secrets.PrivateKeyPEM != "" {
		var signer ssh.Signer
		var err error
		if secrets.Passphrase != "" {
			signer, err = ssh.ParsePrivateKeyWithPassphrase([]byte(secrets.PrivateKeyPEM), []byte(secrets.Passphrase))
		} else {
			signer, err = ssh.ParsePrivateKey([]byte(secrets.PrivateKeyPEM))
		}
		if err != nil {
			return nil, fmt.Errorf("parse private key: %w", err)
		}
		methods = append(methods, ssh.PublicKeys(signer))
	}
	if secrets.Password != "" {
		methods = append(methods, ssh.Password(secrets.Password))
	}
	if len(methods) == 0 {
		return nil, fmt.Errorf("no password or private key configured")
	}
	return methods, nil
}

func hostKeyCallback(fingerprint string) ssh.HostKeyCallback {
	if fingerprint == "" {
		return ssh.InsecureIgnoreHostKey()
	}
	return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		got := ssh.FingerprintSHA256(key)
		if got != fingerprint {
			return fmt.Errorf("host key mismatch for %s: got %s", hostname, got)
		}
		return nil
	}
}

// Type returns the provider type.
func (c *Connector) Type() domain.ProviderType {
	return domain.ProviderTypeSFTP
}

// List walks the remote root recursively and returns regular files whose
// path relative to the root matches the source's glob.
func (c *Connector) List(ctx context.Context) ([]domain.RemoteFile, error) {
	var files []domain.RemoteFile
	walker := c.sftpClient.Walk(c.root)
	for walker.Step() {
		if err := ctx.Err(); err != nil {
			return nil, domain.NewConnectorError(domain.ProviderTypeSFTP, "list", err)
		}
		if err := walker.Err(); err != nil {
			return nil, domain.NewConnectorError(domain.ProviderTypeSFTP, "list", err)
		}
		info := walker.Stat()
		if info == nil || info.IsDir() || !info.Mode().IsRegular() {
			continue
		}
		rel := relPath(c.root, walker.Path())
		if !c.matcher.Match(rel) {
			continue
		}
		files = append(files, domain.RemoteFile{
			Ref:        walker.Path(),
			Name:       rel,
			Size:       info.Size(),
			ModifiedAt: info.ModTime().UTC(),
		})
	}
	return files, nil
}

// ListFolders is not supported for transfer protocols; the remote root is
// configured, not browsed.
func (c *Connector) ListFolders(ctx context.Context, parent string) ([]domain.Folder, error) {
	return nil, domain.ErrBrowseNotSupported
}

// Download fetches one file by its full remote path.
func (c *Connector) Download(ctx context.Context, file domain.RemoteFile) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.NewConnectorError(domain.ProviderTypeSFTP, "download", err)
	}
	f, err := c.sftpClient.Open(file.Ref)
	if err != nil {
		return nil, domain.NewConnectorError(domain.ProviderTypeSFTP, "download", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, domain.NewConnectorError(domain.ProviderTypeSFTP, "download", err)
	}
	return data, nil
}

// AccountInfo is not meaningful for transfer protocols.
func (c *Connector) AccountInfo(ctx context.Context) (*domain.AccountInfo, error) {
	return nil, domain.ErrBrowseNotSupported
}

// Close tears down the SFTP session and the SSH transport under it.
func (c *Connector) Close() error {
	err := c.sftpClient.Close()
	if cerr := c.sshClient.Close(); err == nil {
		err = cerr
	}
	return err
}

func relPath(root, full string) string {
	rel := strings.TrimPrefix(full, root)
	rel = strings.TrimPrefix(rel, "/")
	if rel == "" {
		rel = path.Base(full)
	}
	return rel
}
