package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	shell "github.com/ipfs/go-ipfs-api"
	"github.com/ruteri/fincrypt/interfaces"
)

// unixfsFile is the link type of a regular file in a UnixFS directory.
const unixfsFile = 2

// IPFSKeyStore serves public keys published as a UnixFS directory:
//
//	/ipfs/<root>/public_keys/<name>
type IPFSKeyStore struct {
	shell       *shell.Shell
	host        string
	port        string
	root        string
	log         *slog.Logger
	locationURI string
}

// NewIPFSKeyStore creates a new IPFS key store reading from the directory
// root through the node API at host:port.
func NewIPFSKeyStore(host, port, root string, timeout time.Duration, log *slog.Logger) (*IPFSKeyStore, error) {
	root = strings.Trim(root, "/")
	if root == "" {
		return nil, fmt.Errorf("%w: missing IPFS root", interfaces.ErrInvalidLocationURI)
	}

	apiURL := fmt.Sprintf("%s:%s", host, port)
	sh := shell.NewShell(apiURL)
	if timeout > 0 {
		sh.SetTimeout(timeout)
	}

	return &IPFSKeyStore{
		shell:       sh,
		host:        host,
		port:        port,
		root:        root,
		log:         log,
		locationURI: fmt.Sprintf("ipfs://%s/%s?timeout=%s", apiURL, root, timeout),
	}, nil
}

// Fetch retrieves a public key. Returns ErrKeyNotFound if the directory has
// no such link and ErrBackendUnavailable if the IPFS node is not accessible.
func (b *IPFSKeyStore) Fetch(ctx context.Context, role interfaces.KeyRole, name string) ([]byte, error) {
	if role != interfaces.PublicRole {
		return nil, fmt.Errorf("%w: %s keys are not served from IPFS", interfaces.ErrRoleUnsupported, role)
	}
	if err := interfaces.ValidateKeyName(name); err != nil {
		return nil, err
	}

	start := time.Now()
	keyPath := b.dirPath() + "/" + name

	if !b.shell.IsUp() {
		b.log.Warn("IPFS node unavailable",
			slog.String("host", b.host),
			slog.String("port", b.port))
		return nil, interfaces.ErrBackendUnavailable
	}

	reader, err := b.shell.Cat(keyPath)
	if err != nil {
		if strings.Contains(err.Error(), "no link named") {
			b.log.Debug("Key not found in IPFS",
				slog.String("path", keyPath),
				slog.Duration("duration", time.Since(start)))
			return nil, fmt.Errorf("%w: public key %q", interfaces.ErrKeyNotFound, name)
		}

		b.log.Error("Failed to fetch key from IPFS",
			slog.String("path", keyPath),
			"err", err,
			slog.Duration("duration", time.Since(start)))
		return nil, fmt.Errorf("failed to fetch key from IPFS: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read key from IPFS: %w", err)
	}

	b.log.Debug("Fetched key from IPFS",
		slog.String("path", keyPath),
		slog.Int("size", len(data)),
		slog.Duration("duration", time.Since(start)))

	return data, nil
}

// List returns the file links of the public key directory.
func (b *IPFSKeyStore) List(ctx context.Context, role interfaces.KeyRole) ([]string, error) {
	if role != interfaces.PublicRole {
		return nil, fmt.Errorf("%w: %s keys are not served from IPFS", interfaces.ErrRoleUnsupported, role)
	}

	links, err := b.shell.List(b.dirPath())
	if err != nil {
		return nil, fmt.Errorf("failed to list IPFS directory: %w", err)
	}

	names := make([]string, 0, len(links))
	for _, link := range links {
		if link.Type != unixfsFile || interfaces.ValidateKeyName(link.Name) != nil {
			continue
		}
		names = append(names, link.Name)
	}
	sort.Strings(names)
	return names, nil
}

// Available checks if the IPFS node is accessible.
func (b *IPFSKeyStore) Available(ctx context.Context) bool {
	return b.shell.IsUp()
}

// Name returns a unique identifier for this key store.
func (b *IPFSKeyStore) Name() string {
	return fmt.Sprintf("ipfs-%s-%s", b.host, b.port)
}

// LocationURI returns the URI that identifies this key store.
func (b *IPFSKeyStore) LocationURI() string {
	return b.locationURI
}

func (b *IPFSKeyStore) dirPath() string {
	if strings.HasPrefix(b.root, "ipns/") || strings.HasPrefix(b.root, "ipfs/") {
		return "/" + b.root + "/" + DefaultPublicKeyDir
	}
	return "/ipfs/" + b.root + "/" + DefaultPublicKeyDir
}
