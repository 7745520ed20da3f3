package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/ruteri/fincrypt/interfaces"
)

const (
	// DefaultPublicKeyDir holds one key file per correspondent, named after them.
	DefaultPublicKeyDir = "public_keys"
	// DefaultPrivateKeyDir holds the local private key file.
	DefaultPrivateKeyDir = "private_key"
)

// FileKeyStore implements a key store on the local file system:
//
//	<baseDir>/public_keys/<name>
//	<baseDir>/private_key/private.asc
type FileKeyStore struct {
	baseDir     string
	publicDir   string
	privatePath string
	log         *slog.Logger
	locationURI string
}

// NewFileKeyStore creates a file key store rooted at baseDir. Empty publicDir
// and privateDir select the default layout; relative values are resolved
// against baseDir.
func NewFileKeyStore(baseDir, publicDir, privateDir string, log *slog.Logger) (*FileKeyStore, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("%w: empty key directory", interfaces.ErrInvalidLocationURI)
	}
	if publicDir == "" {
		publicDir = DefaultPublicKeyDir
	}
	if privateDir == "" {
		privateDir = DefaultPrivateKeyDir
	}
	if !filepath.IsAbs(publicDir) {
		publicDir = filepath.Join(baseDir, publicDir)
	}
	if !filepath.IsAbs(privateDir) {
		privateDir = filepath.Join(baseDir, privateDir)
	}

	return &FileKeyStore{
		baseDir:     baseDir,
		publicDir:   publicDir,
		privatePath: filepath.Join(privateDir, interfaces.PrivateKeyName),
		log:         log,
		locationURI: fmt.Sprintf("file://%s", baseDir),
	}, nil
}

// Fetch reads a key file. Returns ErrKeyNotFound if the file doesn't exist.
func (b *FileKeyStore) Fetch(ctx context.Context, role interfaces.KeyRole, name string) ([]byte, error) {
	filePath, err := b.keyPath(role, name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s key %q", interfaces.ErrKeyNotFound, role, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}

	b.log.Debug("Fetched key from file",
		slog.String("path", filePath),
		slog.Int("size", len(data)))

	return data, nil
}

// List returns the names of the regular, non-hidden files in the public key
// directory. The private role always lists the single private key.
func (b *FileKeyStore) List(ctx context.Context, role interfaces.KeyRole) ([]string, error) {
	if role == interfaces.PrivateRole {
		if _, err := os.Stat(b.privatePath); err != nil {
			return []string{}, nil
		}
		return []string{interfaces.PrivateKeyName}, nil
	}

	entries, err := os.ReadDir(b.publicDir)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list public keys: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() || interfaces.ValidateKeyName(entry.Name()) != nil {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Available checks if the file key store is accessible by verifying the base directory exists.
func (b *FileKeyStore) Available(ctx context.Context) bool {
	info, err := os.Stat(b.baseDir)
	if err != nil || !info.IsDir() {
		b.log.Debug("File key store unavailable", "err", err)
		return false
	}
	return true
}

// Name returns a unique identifier for this key store.
func (b *FileKeyStore) Name() string {
	return fmt.Sprintf("file-%s", filepath.Base(b.baseDir))
}

// LocationURI returns the URI that identifies this key store.
func (b *FileKeyStore) LocationURI() string {
	return b.locationURI
}

func (b *FileKeyStore) keyPath(role interfaces.KeyRole, name string) (string, error) {
	switch role {
	case interfaces.PrivateRole:
		return b.privatePath, nil
	case interfaces.PublicRole:
		if err := interfaces.ValidateKeyName(name); err != nil {
			return "", err
		}
		return filepath.Join(b.publicDir, name), nil
	default:
		return "", fmt.Errorf("%w: %s", interfaces.ErrRoleUnsupported, role)
	}
}
