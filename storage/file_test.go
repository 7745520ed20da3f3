package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ruteri/fincrypt/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeKeyDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, DefaultPublicKeyDir), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, DefaultPrivateKeyDir), 0700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultPublicKeyDir, "bob"), []byte("bob-key"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultPublicKeyDir, "alice"), []byte("alice-key"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultPublicKeyDir, ".hidden"), []byte("x"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, DefaultPublicKeyDir, "subdir"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultPrivateKeyDir, interfaces.PrivateKeyName), []byte("private-key"), 0600))
	return dir
}

func TestFileKeyStore(t *testing.T) {
	dir := writeKeyDir(t)
	ctx := context.Background()

	store, err := NewFileKeyStore(dir, "", "", discardLogger())
	require.NoError(t, err)
	assert.True(t, store.Available(ctx))
	assert.Equal(t, "file://"+dir, store.LocationURI())

	data, err := store.Fetch(ctx, interfaces.PublicRole, "bob")
	require.NoError(t, err)
	assert.Equal(t, []byte("bob-key"), data)

	data, err = store.Fetch(ctx, interfaces.PrivateRole, "ignored")
	require.NoError(t, err)
	assert.Equal(t, []byte("private-key"), data)

	_, err = store.Fetch(ctx, interfaces.PublicRole, "mallory")
	assert.ErrorIs(t, err, interfaces.ErrKeyNotFound)

	for _, name := range []string{"../private_key/private.asc", "..", ".hidden", "a/b", ""} {
		_, err = store.Fetch(ctx, interfaces.PublicRole, name)
		assert.ErrorIs(t, err, interfaces.ErrInvalidKeyName, name)
	}

	names, err := store.List(ctx, interfaces.PublicRole)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, names)

	names, err = store.List(ctx, interfaces.PrivateRole)
	require.NoError(t, err)
	assert.Equal(t, []string{interfaces.PrivateKeyName}, names)
}

func TestFileKeyStoreCustomLayout(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "pub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pub", "bob"), []byte("bob-key"), 0644))

	store, err := NewFileKeyStore(dir, "pub", "priv", discardLogger())
	require.NoError(t, err)

	data, err := store.Fetch(context.Background(), interfaces.PublicRole, "bob")
	require.NoError(t, err)
	assert.Equal(t, []byte("bob-key"), data)

	_, err = store.Fetch(context.Background(), interfaces.PrivateRole, "")
	assert.ErrorIs(t, err, interfaces.ErrKeyNotFound)

	names, err := store.List(context.Background(), interfaces.PrivateRole)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestFileKeyStoreMissingDirectory(t *testing.T) {
	store, err := NewFileKeyStore(filepath.Join(t.TempDir(), "missing"), "", "", discardLogger())
	require.NoError(t, err)

	assert.False(t, store.Available(context.Background()))
	names, err := store.List(context.Background(), interfaces.PublicRole)
	require.NoError(t, err)
	assert.Empty(t, names)

	_, err = NewFileKeyStore("", "", "", discardLogger())
	assert.ErrorIs(t, err, interfaces.ErrInvalidLocationURI)
}

func TestKeyStoreFactory(t *testing.T) {
	dir := writeKeyDir(t)
	factory := NewKeyStoreFactory(discardLogger())

	store, err := factory.KeyStoreForURI("file://" + dir)
	require.NoError(t, err)
	assert.IsType(t, &FileKeyStore{}, store)
	data, err := store.Fetch(context.Background(), interfaces.PublicRole, "alice")
	require.NoError(t, err)
	assert.Equal(t, []byte("alice-key"), data)

	store, err = factory.KeyStoreForURI("s3://AKID:secret@keys-bucket/team?region=eu-west-1&endpoint=http://localhost:9000")
	require.NoError(t, err)
	assert.Equal(t, "s3-keys-bucket", store.Name())
	assert.NotContains(t, store.LocationURI(), "secret")

	store, err = factory.KeyStoreForURI("vault://token@localhost:8200/secret/fincrypt/alice?tls=false")
	require.NoError(t, err)
	assert.Equal(t, "vault-secret-fincrypt/alice", store.Name())

	store, err = factory.KeyStoreForURI("ipfs://localhost:5001/bafyroot?timeout=10s")
	require.NoError(t, err)
	assert.Equal(t, "ipfs-localhost-5001", store.Name())

	store, err = factory.KeyStoreForURI("dns://127.0.0.1:5353/keys.example.com")
	require.NoError(t, err)
	assert.Equal(t, "dns-keys.example.com", store.Name())

	for _, uri := range []string{
		"github://owner/repo",
		"s3:///prefix",
		"vault://localhost:8200",
		"ipfs://localhost:5001/",
		"ipfs://localhost:5001/root?timeout=soon",
		"dns://127.0.0.1",
		"file://",
	} {
		_, err := factory.KeyStoreForURI(uri)
		assert.ErrorIs(t, err, interfaces.ErrInvalidLocationURI, uri)
	}
}

func TestKeyStoreFactoryMultiBackend(t *testing.T) {
	dir := writeKeyDir(t)
	factory := NewKeyStoreFactory(discardLogger())

	fileLoc, err := interfaces.NewKeyStoreLocation("file://" + dir)
	require.NoError(t, err)
	badLoc, err := interfaces.NewKeyStoreLocation("dns://127.0.0.1")
	require.NoError(t, err)
	ipfsLoc, err := interfaces.NewKeyStoreLocation("ipfs://localhost:5001/bafyroot")
	require.NoError(t, err)

	store, err := factory.CreateMultiBackend([]interfaces.KeyStoreLocation{fileLoc, badLoc})
	require.NoError(t, err)
	assert.IsType(t, &FileKeyStore{}, store)

	store, err = factory.CreateMultiBackend([]interfaces.KeyStoreLocation{fileLoc, ipfsLoc})
	require.NoError(t, err)
	assert.IsType(t, &MultiKeyStore{}, store)

	_, err = factory.CreateMultiBackend([]interfaces.KeyStoreLocation{badLoc})
	assert.Error(t, err)
}

func TestKeyStoreFactoryFromURIs(t *testing.T) {
	dir := writeKeyDir(t)
	factory := NewKeyStoreFactory(discardLogger())

	store, err := factory.CreateMultiBackendFromURIs([]string{"ftp://nowhere", "file://" + dir})
	require.NoError(t, err)
	assert.IsType(t, &FileKeyStore{}, store)

	key, err := store.Fetch(context.Background(), interfaces.PublicRole, "bob")
	require.NoError(t, err)
	assert.Equal(t, []byte("bob-key"), key)

	_, err = factory.CreateMultiBackendFromURIs([]string{"::not a uri"})
	assert.Error(t, err)

	_, err = factory.CreateMultiBackendFromURIs(nil)
	assert.Error(t, err)
}
