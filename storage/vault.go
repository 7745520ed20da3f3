package storage

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/vault/api"
	"github.com/ruteri/fincrypt/interfaces"
)

// vaultKeyField is the KV field holding the key file text.
const vaultKeyField = "key"

// VaultKeyStore reads key files from a HashiCorp Vault KV v2 engine:
//
//	<mount>/data/<path>/public/<name>   {"key": "<key file text>"}
//	<mount>/data/<path>/private         {"key": "<key file text>"}
//
// It is the only remote backend that serves the private key.
type VaultKeyStore struct {
	client      *api.Client
	mountPath   string
	dataPath    string
	log         *slog.Logger
	locationURI string
}

// VaultAuth selects how the key store authenticates to Vault. Token takes
// precedence over ClientCert when both are set.
type VaultAuth struct {
	Token      string
	ClientCert *tls.Certificate
}

// NewVaultKeyStore creates a new Vault key store.
//
// Parameters:
//   - address: Vault server address (e.g. https://vault.example.com:8200)
//   - mountPath: KV v2 mount path (e.g. "secret")
//   - dataPath: Path within the mount (e.g. "fincrypt/alice")
//   - auth: token or TLS client certificate
//   - log: Structured logger for operational insights
func NewVaultKeyStore(address, mountPath, dataPath string, auth VaultAuth, log *slog.Logger) (*VaultKeyStore, error) {
	config := api.DefaultConfig()
	config.Address = address

	if auth.ClientCert != nil && auth.Token == "" {
		config.HttpClient = &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					Certificates: []tls.Certificate{*auth.ClientCert},
				},
			},
			Timeout: 30 * time.Second,
		}
	}

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}
	if auth.Token != "" {
		client.SetToken(auth.Token)
	}

	mountPath = strings.Trim(mountPath, "/")
	dataPath = strings.Trim(dataPath, "/")

	return &VaultKeyStore{
		client:      client,
		mountPath:   mountPath,
		dataPath:    dataPath,
		log:         log,
		locationURI: fmt.Sprintf("vault://%s/%s/%s", strings.TrimPrefix(strings.TrimPrefix(address, "https://"), "http://"), mountPath, dataPath),
	}, nil
}

// Fetch reads a key file from Vault using the KV v2 API.
func (b *VaultKeyStore) Fetch(ctx context.Context, role interfaces.KeyRole, name string) ([]byte, error) {
	start := time.Now()

	secretPath, err := b.secretPath("data", role, name)
	if err != nil {
		return nil, err
	}

	secret, err := b.client.Logical().ReadWithContext(ctx, secretPath)
	if err != nil {
		b.log.Error("Failed to read from Vault",
			slog.String("path", secretPath),
			"err", err)
		return nil, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}

	if secret == nil || secret.Data == nil {
		b.log.Debug("Key not found in Vault", slog.String("path", secretPath))
		return nil, fmt.Errorf("%w: %s key %q", interfaces.ErrKeyNotFound, role, name)
	}

	// KV v2 nests the stored fields under "data"; deleted versions leave it nil.
	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: %s key %q", interfaces.ErrKeyNotFound, role, name)
	}

	content, ok := data[vaultKeyField].(string)
	if !ok {
		b.log.Error("Key field not found in Vault data", slog.String("path", secretPath))
		return nil, fmt.Errorf("key field %q not found in Vault data", vaultKeyField)
	}

	b.log.Debug("Fetched key from Vault",
		slog.String("path", secretPath),
		slog.Duration("duration", time.Since(start)))

	return []byte(content), nil
}

// List enumerates the public keys through the KV v2 metadata endpoint.
func (b *VaultKeyStore) List(ctx context.Context, role interfaces.KeyRole) ([]string, error) {
	if role == interfaces.PrivateRole {
		if _, err := b.Fetch(ctx, role, ""); err != nil {
			return []string{}, nil
		}
		return []string{interfaces.PrivateKeyName}, nil
	}

	listPath := fmt.Sprintf("%s/metadata/%s", b.mountPath, b.joinData("public"))
	secret, err := b.client.Logical().ListWithContext(ctx, listPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}
	if secret == nil || secret.Data == nil {
		return []string{}, nil
	}

	raw, _ := secret.Data["keys"].([]interface{})
	names := make([]string, 0, len(raw))
	for _, k := range raw {
		name, ok := k.(string)
		// Trailing slashes mark sub-folders.
		if !ok || interfaces.ValidateKeyName(name) != nil {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Available checks if the Vault backend is accessible.
// It uses the health endpoint to verify that Vault is initialized and unsealed.
func (b *VaultKeyStore) Available(ctx context.Context) bool {
	healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	health, err := b.client.Sys().HealthWithContext(healthCtx)
	if err != nil {
		b.log.Debug("Vault health check failed", "err", err)
		return false
	}

	if !health.Initialized || health.Sealed {
		b.log.Debug("Vault is not available",
			slog.Bool("initialized", health.Initialized),
			slog.Bool("sealed", health.Sealed))
		return false
	}

	return true
}

// Name returns a unique identifier for this key store.
func (b *VaultKeyStore) Name() string {
	return fmt.Sprintf("vault-%s-%s", b.mountPath, b.dataPath)
}

// LocationURI returns the URI that identifies this key store.
func (b *VaultKeyStore) LocationURI() string {
	return b.locationURI
}

func (b *VaultKeyStore) secretPath(kind string, role interfaces.KeyRole, name string) (string, error) {
	switch role {
	case interfaces.PrivateRole:
		return fmt.Sprintf("%s/%s/%s", b.mountPath, kind, b.joinData("private")), nil
	case interfaces.PublicRole:
		if err := interfaces.ValidateKeyName(name); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s/%s/%s", b.mountPath, kind, b.joinData("public/"+name)), nil
	default:
		return "", fmt.Errorf("%w: %s", interfaces.ErrRoleUnsupported, role)
	}
}

func (b *VaultKeyStore) joinData(p string) string {
	if b.dataPath == "" {
		return p
	}
	return b.dataPath + "/" + p
}
