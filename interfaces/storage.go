package interfaces

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
)

// KeyStoreLocation represents URI for a key store backend.
type KeyStoreLocation struct {
	Raw    string     // Original URI
	Scheme string     // Protocol
	Host   string     // Hostname
	Path   string     // Resource path
	Query  url.Values // Query parameters
	Auth   string     // Authentication info
}

// NewKeyStoreLocation creates a new key store location from a URI string with validation.
func NewKeyStoreLocation(uri string) (KeyStoreLocation, error) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return KeyStoreLocation{}, fmt.Errorf("%w: %v", ErrInvalidLocationURI, err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	switch scheme {
	case "file", "s3", "ipfs", "vault", "dns":
		// Valid scheme
	default:
		return KeyStoreLocation{}, fmt.Errorf("%w: unsupported key store scheme %q", ErrInvalidLocationURI, parsed.Scheme)
	}

	var auth string
	if parsed.User != nil {
		auth = parsed.User.String()
	}

	return KeyStoreLocation{
		Raw:    uri,
		Scheme: scheme,
		Host:   parsed.Host,
		Path:   parsed.Path,
		Query:  parsed.Query(),
		Auth:   auth,
	}, nil
}

// String returns the original URI string.
func (loc KeyStoreLocation) String() string {
	return loc.Raw
}

// GetParam returns a query parameter value.
func (loc KeyStoreLocation) GetParam(name string) string {
	return loc.Query.Get(name)
}

// GetParamBool returns a boolean query parameter value.
func (loc KeyStoreLocation) GetParamBool(name string) bool {
	value := loc.Query.Get(name)
	return value == "true" || value == "1" || value == "yes"
}

var (
	// ErrKeyNotFound is returned when a requested key file does not exist in the key store.
	// It is the one condition treated as fatal for a whole encrypt or decrypt operation.
	ErrKeyNotFound = errors.New("key not found")

	// ErrBackendUnavailable is returned when a key store backend is not accessible.
	ErrBackendUnavailable = errors.New("key store backend unavailable")

	// ErrInvalidLocationURI is returned when a key store URI is malformed or unsupported.
	// URIs must follow the format: [scheme]://[auth@]host[:port][/path][?params]
	ErrInvalidLocationURI = errors.New("invalid key store location URI")

	// ErrInvalidKeyName is returned for key names that could escape the key store namespace.
	ErrInvalidKeyName = errors.New("invalid key name")

	// ErrRoleUnsupported is returned by backends that cannot hold keys of the requested role,
	// e.g. DNS never serves private keys.
	ErrRoleUnsupported = errors.New("key role not supported by backend")

	// ErrListUnsupported is returned by backends that cannot enumerate their keys.
	ErrListUnsupported = errors.New("key listing not supported by backend")
)

// PrivateKeyName is the name under which the private key is looked up.
const PrivateKeyName = "private.asc"

// ValidateKeyName rejects names that are empty, hidden, or contain path elements.
func ValidateKeyName(name string) error {
	if name == "" || name == "." || name == ".." || strings.HasPrefix(name, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidKeyName, name)
	}
	if strings.ContainsAny(name, "/\\\x00") || path.Base(name) != name {
		return fmt.Errorf("%w: %q", ErrInvalidKeyName, name)
	}
	return nil
}

// KeyStore provides read access to key files. Keys are returned as the raw
// textual file content (URL-safe base64 of the DER container).
type KeyStore interface {
	// Fetch retrieves a key file by role and name. The name is ignored for PrivateRole.
	Fetch(ctx context.Context, role KeyRole, name string) ([]byte, error)

	// List returns the names of the keys of a role, sorted.
	List(ctx context.Context, role KeyRole) ([]string, error)

	// Available checks if backend is accessible.
	Available(ctx context.Context) bool

	// Name returns identifier for logging.
	Name() string

	// LocationURI returns URI identifying this backend.
	LocationURI() string
}

// KeyStoreFactory creates key stores.
type KeyStoreFactory interface {
	// KeyStoreFor creates backend from URI.
	// Supports file://, s3://, ipfs://, vault://, dns://
	KeyStoreFor(location KeyStoreLocation) (KeyStore, error)

	// CreateMultiBackend creates aggregated key store with fallback.
	CreateMultiBackend(locations []KeyStoreLocation) (KeyStore, error)
}
