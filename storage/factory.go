package storage

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/ruteri/fincrypt/interfaces"
)

// KeyStoreFactory creates key stores from location URIs and combines them
// into a multi-backend with fallback.
type KeyStoreFactory struct {
	log *slog.Logger
}

// NewKeyStoreFactory creates a new factory instance.
func NewKeyStoreFactory(logger *slog.Logger) *KeyStoreFactory {
	return &KeyStoreFactory{log: logger}
}

// KeyStoreFor creates a key store from a location URI.
// The URI format should be [scheme]://[auth@]host[:port][/path][?params]
//
// Supported schemes:
//   - file:///path?public=public_keys&private=private_key - local key directory
//   - s3://[ACCESS_KEY:SECRET_KEY@]bucket/prefix?region=us-east-1&endpoint=... - public keys
//   - vault://[TOKEN@]host:port/mount/path?tls=false - public and private keys
//   - ipfs://host:port/<cid or ipns/name>?timeout=30s - public keys
//   - dns://[server[:port]]/zone?net=tcp&timeout=5s - public keys in TXT records
func (f *KeyStoreFactory) KeyStoreFor(location interfaces.KeyStoreLocation) (interfaces.KeyStore, error) {
	switch location.Scheme {
	case "file":
		return f.createFileKeyStore(location)
	case "s3":
		return f.createS3KeyStore(location)
	case "vault":
		return f.createVaultKeyStore(location)
	case "ipfs":
		return f.createIPFSKeyStore(location)
	case "dns":
		return f.createDNSKeyStore(location)
	default:
		return nil, fmt.Errorf("%w: unsupported key store scheme %q", interfaces.ErrInvalidLocationURI, location.Scheme)
	}
}

// KeyStoreForURI parses uri and creates the key store it names.
func (f *KeyStoreFactory) KeyStoreForURI(uri string) (interfaces.KeyStore, error) {
	location, err := interfaces.NewKeyStoreLocation(uri)
	if err != nil {
		return nil, err
	}
	return f.KeyStoreFor(location)
}

// CreateMultiBackend creates a multi-backend key store from a list of locations.
// Locations that fail to produce a key store are logged and skipped.
// Returns an error if no valid key store could be created.
func (f *KeyStoreFactory) CreateMultiBackend(locations []interfaces.KeyStoreLocation) (interfaces.KeyStore, error) {
	backends := make([]interfaces.KeyStore, 0, len(locations))

	for _, location := range locations {
		backend, err := f.KeyStoreFor(location)
		if err != nil {
			f.log.Warn("Failed to create key store",
				"err", err,
				slog.String("locationURI", location.String()))
			continue
		}
		backends = append(backends, backend)
	}

	if len(backends) == 0 {
		return nil, fmt.Errorf("no valid key stores created")
	}
	if len(backends) == 1 {
		return backends[0], nil
	}

	return NewMultiKeyStore(backends, f.log), nil
}

// CreateMultiBackendFromURIs parses each URI and creates a key store trying
// them in order. Unparseable URIs are logged and skipped like locations that
// fail to produce a key store.
func (f *KeyStoreFactory) CreateMultiBackendFromURIs(uris []string) (interfaces.KeyStore, error) {
	locations := make([]interfaces.KeyStoreLocation, 0, len(uris))
	for _, uri := range uris {
		location, err := interfaces.NewKeyStoreLocation(uri)
		if err != nil {
			f.log.Warn("Skipping invalid key store URI", "err", err, slog.String("locationURI", uri))
			continue
		}
		locations = append(locations, location)
	}
	return f.CreateMultiBackend(locations)
}

// createFileKeyStore handles file:///absolute/path and file://./relative/path.
func (f *KeyStoreFactory) createFileKeyStore(loc interfaces.KeyStoreLocation) (interfaces.KeyStore, error) {
	f.log.Debug("Creating file key store", slog.String("uri", loc.String()))

	path := loc.Path
	if loc.Host != "" {
		path = loc.Host + "/" + strings.TrimPrefix(path, "/")
	}
	if path == "" {
		return nil, fmt.Errorf("%w: empty path in file URI: %s", interfaces.ErrInvalidLocationURI, loc.String())
	}

	return NewFileKeyStore(path, loc.GetParam("public"), loc.GetParam("private"), f.log)
}

// createS3KeyStore handles s3://[ACCESS_KEY:SECRET_KEY@]bucket-name/prefix?region=...&endpoint=...
func (f *KeyStoreFactory) createS3KeyStore(loc interfaces.KeyStoreLocation) (interfaces.KeyStore, error) {
	f.log.Debug("Creating S3 key store", slog.String("bucket", loc.Host))

	if loc.Host == "" {
		return nil, fmt.Errorf("%w: missing S3 bucket", interfaces.ErrInvalidLocationURI)
	}

	region := loc.GetParam("region")
	if region == "" {
		region = "us-east-1"
	}

	accessKey, secretKey := splitAuth(loc.Auth)
	return NewS3KeyStore(loc.Host, loc.Path, region, loc.GetParam("endpoint"), accessKey, secretKey, f.log)
}

// createVaultKeyStore handles vault://[TOKEN@]host:port/mount/path?tls=false.
// The first path element is the KV v2 mount.
func (f *KeyStoreFactory) createVaultKeyStore(loc interfaces.KeyStoreLocation) (interfaces.KeyStore, error) {
	f.log.Debug("Creating Vault key store", slog.String("host", loc.Host))

	if loc.Host == "" {
		return nil, fmt.Errorf("%w: missing Vault address", interfaces.ErrInvalidLocationURI)
	}
	mount, dataPath, _ := strings.Cut(strings.Trim(loc.Path, "/"), "/")
	if mount == "" {
		return nil, fmt.Errorf("%w: missing Vault mount path", interfaces.ErrInvalidLocationURI)
	}

	scheme := "https"
	if loc.GetParam("tls") == "false" {
		scheme = "http"
	}

	token, _ := splitAuth(loc.Auth)
	return NewVaultKeyStore(scheme+"://"+loc.Host, mount, dataPath, VaultAuth{Token: token}, f.log)
}

// createIPFSKeyStore handles ipfs://host:port/<root>?timeout=30s.
func (f *KeyStoreFactory) createIPFSKeyStore(loc interfaces.KeyStoreLocation) (interfaces.KeyStore, error) {
	f.log.Debug("Creating IPFS key store", slog.String("uri", loc.String()))

	u, err := url.Parse("//" + loc.Host)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrInvalidLocationURI, err)
	}
	host, port := u.Hostname(), u.Port()
	if host == "" {
		host = "localhost"
	}
	if port == "" {
		port = "5001" // Default IPFS API port
	}

	timeout, err := durationParam(loc, "timeout", 30*time.Second)
	if err != nil {
		return nil, err
	}

	return NewIPFSKeyStore(host, port, loc.Path, timeout, f.log)
}

// createDNSKeyStore handles dns://server:port/zone?net=tcp&timeout=5s.
func (f *KeyStoreFactory) createDNSKeyStore(loc interfaces.KeyStoreLocation) (interfaces.KeyStore, error) {
	f.log.Debug("Creating DNS key store", slog.String("uri", loc.String()))

	timeout, err := durationParam(loc, "timeout", 5*time.Second)
	if err != nil {
		return nil, err
	}

	return NewDNSKeyStore(loc.Host, strings.Trim(loc.Path, "/"), loc.GetParam("net"), timeout, f.log)
}

func splitAuth(auth string) (user, password string) {
	if auth == "" {
		return "", ""
	}
	u, p, _ := strings.Cut(auth, ":")
	if v, err := url.PathUnescape(u); err == nil {
		u = v
	}
	if v, err := url.PathUnescape(p); err == nil {
		p = v
	}
	return u, p
}

func durationParam(loc interfaces.KeyStoreLocation, name string, fallback time.Duration) (time.Duration, error) {
	raw := loc.GetParam(name)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: bad %s %q", interfaces.ErrInvalidLocationURI, name, raw)
	}
	return d, nil
}
