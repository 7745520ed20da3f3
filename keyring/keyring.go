// Package keyring turns key files held by a key store into typed key
// material: public keys of correspondents and the local private key.
package keyring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ruteri/fincrypt/cryptoutils"
	"github.com/ruteri/fincrypt/interfaces"
)

// KeyInfo describes one public key for enumeration.
type KeyInfo struct {
	Name        string
	Owner       interfaces.KeyOwner
	KeySizeBits int
	Fingerprint cryptoutils.Fingerprint

	// Err is set when the key file could not be read or parsed.
	Err error
}

// Keyring loads key material from a key store.
type Keyring struct {
	store  interfaces.KeyStore
	hasher interfaces.Hasher
	log    *slog.Logger
}

// New creates a keyring over store. Fingerprints use SHA-512.
func New(store interfaces.KeyStore, log *slog.Logger) *Keyring {
	if log == nil {
		log = slog.Default()
	}
	return &Keyring{
		store:  store,
		hasher: cryptoutils.SHA512{},
		log:    log,
	}
}

// PublicKey loads the public key file of a correspondent.
func (k *Keyring) PublicKey(ctx context.Context, name string) (*interfaces.PublicKeyMaterial, error) {
	text, err := k.store.Fetch(ctx, interfaces.PublicRole, name)
	if err != nil {
		return nil, err
	}
	pub, err := cryptoutils.ParsePublicKeyFile(text)
	if err != nil {
		return nil, fmt.Errorf("public key %q: %w", name, err)
	}
	return pub, nil
}

// PrivateKey loads the local private key file.
func (k *Keyring) PrivateKey(ctx context.Context) (*interfaces.PrivateKeyMaterial, error) {
	text, err := k.store.Fetch(ctx, interfaces.PrivateRole, interfaces.PrivateKeyName)
	if err != nil {
		return nil, err
	}
	priv, err := cryptoutils.ParsePrivateKeyFile(text)
	if err != nil {
		return nil, fmt.Errorf("private key: %w", err)
	}
	return priv, nil
}

// Enumerate describes every public key the store can list. Keys that fail
// to load are reported with Err set rather than aborting the listing.
func (k *Keyring) Enumerate(ctx context.Context) ([]KeyInfo, error) {
	names, err := k.store.List(ctx, interfaces.PublicRole)
	if err != nil {
		return nil, fmt.Errorf("failed to list public keys: %w", err)
	}

	infos := make([]KeyInfo, 0, len(names))
	for _, name := range names {
		infos = append(infos, k.describe(ctx, name))
	}
	return infos, nil
}

func (k *Keyring) describe(ctx context.Context, name string) KeyInfo {
	info := KeyInfo{Name: name}

	text, err := k.store.Fetch(ctx, interfaces.PublicRole, name)
	if err != nil {
		info.Err = err
		return info
	}
	info.Fingerprint = cryptoutils.NewFingerprint(text, k.hasher)

	pub, err := cryptoutils.ParsePublicKeyFile(text)
	if err != nil {
		if !errors.Is(err, cryptoutils.ErrMalformedKeyFile) {
			k.log.Warn("Unexpected key parse failure", slog.String("key", name), "err", err)
		}
		info.Err = err
		return info
	}
	info.Owner = pub.Owner
	info.KeySizeBits = pub.KeySizeBits
	return info
}
