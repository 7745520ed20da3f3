// Package fincrypt combines the keyring and the envelope engine into the
// encrypt, decrypt and key listing operations offered by the command line
// tool and the HTTP API. Plaintext is optionally zlib-compressed before it
// is sealed, and output is wrapped for display.
package fincrypt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ruteri/fincrypt/cryptoutils"
	"github.com/ruteri/fincrypt/interfaces"
	"github.com/ruteri/fincrypt/keyring"
	"github.com/ruteri/fincrypt/metrics"
)

// Options controls how messages are framed around the envelope engine.
type Options struct {
	// ArmorWidth wraps output text; zero leaves it on one line.
	ArmorWidth int

	// Compress deflates plaintext before sealing and inflates it after opening.
	Compress bool

	// MaxPlaintextBytes caps the inflated size of a received message.
	// Non-positive selects cryptoutils.DefaultMaxPlaintextSize.
	MaxPlaintextBytes int64
}

// DefaultOptions wraps at 76 columns and compresses, as the command line
// tool always has.
func DefaultOptions() Options {
	return Options{
		ArmorWidth:        cryptoutils.DefaultArmorWidth,
		Compress:          true,
		MaxPlaintextBytes: cryptoutils.DefaultMaxPlaintextSize,
	}
}

// Result is the outcome of DecryptMessage. Decryption and verification are
// independent: a message can decrypt and fail verification, or verify and
// fail to decrypt. Plaintext is nil unless both decryption and, when
// enabled, decompression succeeded.
type Result struct {
	Plaintext []byte
	Verified  bool

	DecryptErr    error
	DecompressErr error
	VerifyErr     error
}

// Decrypted reports whether the envelope opened with the local private key.
func (r *Result) Decrypted() bool {
	return r.DecryptErr == nil
}

// Decompressed reports whether the plaintext was recovered in full.
func (r *Result) Decompressed() bool {
	return r.DecryptErr == nil && r.DecompressErr == nil
}

// OK reports whether the plaintext was recovered and the signature matched.
func (r *Result) OK() bool {
	return r.Decompressed() && r.Verified
}

// Service encrypts and decrypts messages with keys from a keyring. It is
// safe for concurrent use.
type Service struct {
	keys    *keyring.Keyring
	engine  *cryptoutils.Engine
	metrics *metrics.Metrics
	opts    Options
	log     *slog.Logger
}

// New creates the service. A nil engine selects cryptoutils.NewEngine and
// nil metrics disables instrumentation.
func New(keys *keyring.Keyring, engine *cryptoutils.Engine, m *metrics.Metrics, opts Options, log *slog.Logger) *Service {
	if engine == nil {
		engine = cryptoutils.NewEngine()
	}
	if log == nil {
		log = slog.Default()
	}
	if opts.MaxPlaintextBytes <= 0 {
		opts.MaxPlaintextBytes = cryptoutils.DefaultMaxPlaintextSize
	}
	return &Service{
		keys:    keys,
		engine:  engine,
		metrics: m,
		opts:    opts,
		log:     log,
	}
}

// EncryptMessage seals plaintext for recipient, signs it with the local
// private key and returns the wrapped text.
func (s *Service) EncryptMessage(ctx context.Context, recipient string, plaintext []byte) (string, error) {
	start := time.Now()
	text, err := s.encrypt(ctx, recipient, plaintext)
	if s.metrics != nil {
		s.metrics.Encryptions.WithLabelValues(metrics.Outcome(err)).Inc()
		s.metrics.OperationDuration.WithLabelValues("encrypt").Observe(time.Since(start).Seconds())
	}
	if err != nil {
		s.log.Debug("Encryption failed", slog.String("recipient", recipient), "err", err)
	}
	return text, err
}

func (s *Service) encrypt(ctx context.Context, recipient string, plaintext []byte) (string, error) {
	pub, err := s.publicKey(ctx, recipient)
	if err != nil {
		return "", err
	}
	own, err := s.privateKey(ctx)
	if err != nil {
		return "", err
	}

	message := plaintext
	if s.opts.Compress {
		if message, err = cryptoutils.Compress(plaintext); err != nil {
			return "", err
		}
	}

	signed, err := s.engine.EncryptAndSign(message, pub, own)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt for %s: %w", recipient, err)
	}
	return cryptoutils.Armor(signed, s.opts.ArmorWidth), nil
}

// DecryptMessage opens text sent by sender and verifies its signature. The
// returned error covers only failures that prevent both steps: missing
// keys and text without a signature.
func (s *Service) DecryptMessage(ctx context.Context, sender string, text string) (*Result, error) {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.OperationDuration.WithLabelValues("decrypt").Observe(time.Since(start).Seconds())
		}
	}()

	pub, err := s.publicKey(ctx, sender)
	if err != nil {
		return nil, err
	}
	own, err := s.privateKey(ctx)
	if err != nil {
		return nil, err
	}

	res, err := s.engine.DecryptAndVerify(cryptoutils.Dearmor(text), pub, own)
	if err != nil {
		if s.metrics != nil {
			s.metrics.Decryptions.WithLabelValues(metrics.OutcomeFailed).Inc()
			s.metrics.Verifications.WithLabelValues(metrics.OutcomeFailed).Inc()
		}
		return nil, err
	}

	result := &Result{
		Verified:   res.Verified,
		DecryptErr: res.DecryptErr,
		VerifyErr:  res.VerifyErr,
	}
	if res.Decrypted() {
		result.Plaintext = res.Plaintext
		if s.opts.Compress {
			result.Plaintext, result.DecompressErr = cryptoutils.Decompress(res.Plaintext, s.opts.MaxPlaintextBytes)
		}
	}

	s.observe(sender, result)
	return result, nil
}

func (s *Service) observe(sender string, r *Result) {
	log := s.log.With(slog.String("sender", sender))
	if r.DecryptErr != nil {
		log.Info("Decryption failed", "err", r.DecryptErr)
	} else if r.DecompressErr != nil {
		log.Info("Decompression failed", "err", r.DecompressErr)
	}
	if r.VerifyErr != nil {
		log.Info("Verification failed", "err", r.VerifyErr)
	}

	if s.metrics == nil {
		return
	}
	s.metrics.Decryptions.WithLabelValues(metrics.Outcome(r.DecryptErr)).Inc()
	s.metrics.Verifications.WithLabelValues(metrics.Outcome(r.VerifyErr)).Inc()
	if r.Decrypted() && s.opts.Compress {
		s.metrics.Decompressions.WithLabelValues(metrics.Outcome(r.DecompressErr)).Inc()
	}
}

// PrivateKey loads the local private key; servers call it at startup to fail early.
func (s *Service) PrivateKey(ctx context.Context) (*interfaces.PrivateKeyMaterial, error) {
	return s.privateKey(ctx)
}

// Keys describes every public key in the key store.
func (s *Service) Keys(ctx context.Context) ([]keyring.KeyInfo, error) {
	return s.keys.Enumerate(ctx)
}

func (s *Service) publicKey(ctx context.Context, name string) (*interfaces.PublicKeyMaterial, error) {
	pub, err := s.keys.PublicKey(ctx, name)
	s.observeFetch(interfaces.PublicRole, err)
	return pub, err
}

func (s *Service) privateKey(ctx context.Context) (*interfaces.PrivateKeyMaterial, error) {
	priv, err := s.keys.PrivateKey(ctx)
	s.observeFetch(interfaces.PrivateRole, err)
	return priv, err
}

func (s *Service) observeFetch(role interfaces.KeyRole, err error) {
	if err != nil && !errors.Is(err, interfaces.ErrKeyNotFound) {
		s.log.Warn("Key lookup failed", slog.String("role", role.String()), "err", err)
	}
	if s.metrics != nil {
		s.metrics.KeyFetches.WithLabelValues(role.String(), metrics.Outcome(err)).Inc()
	}
}
