package fincrypt

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/ruteri/fincrypt/cryptoutils"
	"github.com/ruteri/fincrypt/interfaces"
	"github.com/ruteri/fincrypt/keyring"
	"github.com/ruteri/fincrypt/metrics"
	"github.com/ruteri/fincrypt/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type party struct {
	name    string
	public  *interfaces.KeyContainer
	private *interfaces.KeyContainer
}

func newParty(t *testing.T, name string) party {
	t.Helper()
	pub, priv, err := cryptoutils.GenerateKeyContainer(1024, name, name+"@example.com")
	require.NoError(t, err)
	return party{name: name, public: pub, private: priv}
}

func writeKey(t *testing.T, path string, c *interfaces.KeyContainer) {
	t.Helper()
	text, err := cryptoutils.MarshalKeyFile(c)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, text, 0644))
}

// newService sets up a key directory owned by self that knows the public
// keys of peers.
func newService(t *testing.T, self party, opts Options, m *metrics.Metrics, peers ...party) *Service {
	t.Helper()
	dir := t.TempDir()
	writeKey(t, filepath.Join(dir, storage.DefaultPrivateKeyDir, interfaces.PrivateKeyName), self.private)
	for _, p := range peers {
		writeKey(t, filepath.Join(dir, storage.DefaultPublicKeyDir, p.name), p.public)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := storage.NewFileKeyStore(dir, "", "", log)
	require.NoError(t, err)
	return New(keyring.New(store, log), nil, m, opts, log)
}

func TestEncryptDecrypt(t *testing.T) {
	alice, bob := newParty(t, "alice"), newParty(t, "bob")
	m := metrics.NewMetrics("test")
	aliceSvc := newService(t, alice, DefaultOptions(), nil, bob)
	bobSvc := newService(t, bob, DefaultOptions(), m, alice)
	ctx := context.Background()

	plaintext := []byte(strings.Repeat("the quick brown fox jumps over the lazy dog\n", 20))
	text, err := aliceSvc.EncryptMessage(ctx, "bob", plaintext)
	require.NoError(t, err)

	for _, line := range strings.Split(text, "\n") {
		assert.LessOrEqual(t, len(line), cryptoutils.DefaultArmorWidth)
	}

	res, err := bobSvc.DecryptMessage(ctx, "alice", text)
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.True(t, res.Decrypted())
	assert.True(t, res.Decompressed())
	assert.Equal(t, plaintext, res.Plaintext)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Decryptions.WithLabelValues(metrics.OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Verifications.WithLabelValues(metrics.OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Decompressions.WithLabelValues(metrics.OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.KeyFetches.WithLabelValues("public", metrics.OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.KeyFetches.WithLabelValues("private", metrics.OutcomeOK)))
}

func TestEncryptDecryptUncompressed(t *testing.T) {
	alice, bob := newParty(t, "alice"), newParty(t, "bob")
	opts := Options{ArmorWidth: 0, Compress: false}
	aliceSvc := newService(t, alice, opts, nil, bob)
	bobSvc := newService(t, bob, opts, nil, alice)
	ctx := context.Background()

	text, err := aliceSvc.EncryptMessage(ctx, "bob", []byte("hello"))
	require.NoError(t, err)
	assert.NotContains(t, text, "\n")

	res, err := bobSvc.DecryptMessage(ctx, "alice", text)
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, []byte("hello"), res.Plaintext)
}

func TestDecryptWrongSender(t *testing.T) {
	alice, bob, carol := newParty(t, "alice"), newParty(t, "bob"), newParty(t, "carol")
	m := metrics.NewMetrics("test")
	aliceSvc := newService(t, alice, DefaultOptions(), nil, bob)
	bobSvc := newService(t, bob, DefaultOptions(), m, alice, carol)
	ctx := context.Background()

	text, err := aliceSvc.EncryptMessage(ctx, "bob", []byte("from alice"))
	require.NoError(t, err)

	res, err := bobSvc.DecryptMessage(ctx, "carol", text)
	require.NoError(t, err)
	assert.True(t, res.Decrypted())
	assert.Equal(t, []byte("from alice"), res.Plaintext)
	assert.False(t, res.Verified)
	assert.False(t, res.OK())
	// carol's modulus may be smaller than alice's signature blocks
	assert.True(t, errors.Is(res.VerifyErr, cryptoutils.ErrSignatureMismatch) ||
		errors.Is(res.VerifyErr, cryptoutils.ErrMalformedSignature), res.VerifyErr)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Verifications.WithLabelValues(metrics.OutcomeFailed)))
}

func TestDecryptNotForMe(t *testing.T) {
	alice, bob, carol := newParty(t, "alice"), newParty(t, "bob"), newParty(t, "carol")
	aliceSvc := newService(t, alice, DefaultOptions(), nil, bob)
	carolSvc := newService(t, carol, DefaultOptions(), nil, alice)
	ctx := context.Background()

	text, err := aliceSvc.EncryptMessage(ctx, "bob", []byte("for bob only"))
	require.NoError(t, err)

	res, err := carolSvc.DecryptMessage(ctx, "alice", text)
	require.NoError(t, err)
	assert.False(t, res.Decrypted())
	assert.Nil(t, res.Plaintext)
	assert.ErrorIs(t, res.DecryptErr, cryptoutils.ErrDecryptionFailed)
	assert.True(t, res.Verified)
}

func TestDecompressionFailure(t *testing.T) {
	alice, bob := newParty(t, "alice"), newParty(t, "bob")
	m := metrics.NewMetrics("test")
	aliceSvc := newService(t, alice, Options{Compress: false}, nil, bob)
	bobSvc := newService(t, bob, DefaultOptions(), m, alice)
	ctx := context.Background()

	text, err := aliceSvc.EncryptMessage(ctx, "bob", []byte("not a zlib stream"))
	require.NoError(t, err)

	res, err := bobSvc.DecryptMessage(ctx, "alice", text)
	require.NoError(t, err)
	assert.True(t, res.Decrypted())
	assert.False(t, res.Decompressed())
	assert.Nil(t, res.Plaintext)
	assert.ErrorIs(t, res.DecompressErr, cryptoutils.ErrDecompressionFailed)
	assert.True(t, res.Verified)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Decompressions.WithLabelValues(metrics.OutcomeFailed)))
}

func TestDecompressionLimit(t *testing.T) {
	alice, bob := newParty(t, "alice"), newParty(t, "bob")
	aliceSvc := newService(t, alice, DefaultOptions(), nil, bob)
	opts := DefaultOptions()
	opts.MaxPlaintextBytes = 64 << 10
	bobSvc := newService(t, bob, opts, nil, alice)
	ctx := context.Background()

	// Zeros deflate to a tiny envelope that inflates past the limit.
	text, err := aliceSvc.EncryptMessage(ctx, "bob", make([]byte, 1<<20))
	require.NoError(t, err)
	assert.Less(t, len(text), 16<<10)

	res, err := bobSvc.DecryptMessage(ctx, "alice", text)
	require.NoError(t, err)
	assert.True(t, res.Decrypted())
	assert.False(t, res.Decompressed())
	assert.Nil(t, res.Plaintext)
	assert.ErrorIs(t, res.DecompressErr, cryptoutils.ErrDecompressionFailed)
	assert.True(t, res.Verified)

	text, err = aliceSvc.EncryptMessage(ctx, "bob", make([]byte, 64<<10))
	require.NoError(t, err)
	res, err = bobSvc.DecryptMessage(ctx, "alice", text)
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Len(t, res.Plaintext, 64<<10)
}

func TestFatalErrors(t *testing.T) {
	alice, bob := newParty(t, "alice"), newParty(t, "bob")
	m := metrics.NewMetrics("test")
	svc := newService(t, alice, DefaultOptions(), m, bob)
	ctx := context.Background()

	_, err := svc.EncryptMessage(ctx, "mallory", []byte("x"))
	assert.ErrorIs(t, err, interfaces.ErrKeyNotFound)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Encryptions.WithLabelValues(metrics.OutcomeFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.KeyFetches.WithLabelValues("public", metrics.OutcomeFailed)))

	_, err = svc.EncryptMessage(ctx, "../bob", []byte("x"))
	assert.ErrorIs(t, err, interfaces.ErrInvalidKeyName)

	_, err = svc.DecryptMessage(ctx, "bob", "no separator here")
	assert.ErrorIs(t, err, cryptoutils.ErrInvalidEnvelopeFormat)

	_, err = svc.DecryptMessage(ctx, "mallory", "a|b")
	assert.ErrorIs(t, err, interfaces.ErrKeyNotFound)
}

func TestKeys(t *testing.T) {
	alice, bob, carol := newParty(t, "alice"), newParty(t, "bob"), newParty(t, "carol")
	svc := newService(t, alice, DefaultOptions(), nil, bob, carol)

	infos, err := svc.Keys(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "bob", infos[0].Name)
	assert.Equal(t, "carol@example.com", infos[1].Owner.Email)
	assert.Len(t, infos[1].Fingerprint.Digest, 64)
}
