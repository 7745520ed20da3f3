package cryptoutils

import (
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/ruteri/fincrypt/interfaces"
)

// Seal encrypts plaintext for the recipient.
//
// A fresh symmetric key and IV encrypt the plaintext. Key and IV are chunked
// at the recipient's chunk size and each block is raised to the recipient's
// public exponent. Ciphertext blocks are only radix-encoded, at their chunk
// width. The result is three comma-joined groups separated by underscores:
//
//	<key blocks>_<iv blocks>_<ciphertext blocks>
func (e *Engine) Seal(plaintext []byte, recipient *interfaces.PublicKeyMaterial) (string, error) {
	if recipient == nil {
		return "", fmt.Errorf("%w: no recipient key", interfaces.ErrInvalidKeyMaterial)
	}
	chunkSize := recipient.ChunkSize()
	if chunkSize <= 0 {
		return "", fmt.Errorf("%w: key size %d bits", interfaces.ErrInvalidKeyMaterial, recipient.KeySizeBits)
	}

	key := make([]byte, e.cipher.KeySize())
	if _, err := io.ReadFull(e.rand, key); err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}
	iv := make([]byte, e.cipher.IVSize())
	if _, err := io.ReadFull(e.rand, iv); err != nil {
		return "", fmt.Errorf("failed to generate IV: %w", err)
	}

	ciphertext, err := e.cipher.Encrypt(key, iv, plaintext)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt: %w", err)
	}

	wrappedKey, err := exponentiate(ToBlocks(key, chunkSize), recipient.PublicExponent, recipient.Modulus)
	if err != nil {
		return "", fmt.Errorf("failed to wrap key: %w", err)
	}
	wrappedIV, err := exponentiate(ToBlocks(iv, chunkSize), recipient.PublicExponent, recipient.Modulus)
	if err != nil {
		return "", fmt.Errorf("failed to wrap IV: %w", err)
	}

	widths := chunkWidths(len(ciphertext), chunkSize)
	message := make([]string, len(widths))
	for i, block := range ToBlocks(ciphertext, chunkSize) {
		message[i] = EncodeRadix64Width(block, widths[i])
	}

	return strings.Join([]string{
		joinBlocks(wrappedKey),
		joinBlocks(wrappedIV),
		strings.Join(message, blockSeparator),
	}, groupSeparator), nil
}

// Open reverses Seal with the recipient's private key. A malformed envelope
// returns ErrInvalidEnvelopeFormat; every later failure is a *DecryptionError.
func (e *Engine) Open(envelope string, own *interfaces.PrivateKeyMaterial) ([]byte, error) {
	groups := strings.Split(envelope, groupSeparator)
	if len(groups) != 3 {
		return nil, fmt.Errorf("%w: expected 3 groups, got %d", ErrInvalidEnvelopeFormat, len(groups))
	}
	for i, g := range groups {
		if g == "" {
			return nil, fmt.Errorf("%w: group %d is empty", ErrInvalidEnvelopeFormat, i)
		}
	}

	if own == nil {
		return nil, &DecryptionError{Reason: fmt.Errorf("%w: no private key", interfaces.ErrInvalidKeyMaterial)}
	}
	chunkSize := own.ChunkSize()
	if chunkSize <= 0 {
		return nil, &DecryptionError{Reason: fmt.Errorf("%w: key size %d bits", interfaces.ErrInvalidKeyMaterial, own.KeySizeBits)}
	}

	key, err := e.unwrap(groups[0], own, e.cipher.KeySize())
	if err != nil {
		return nil, &DecryptionError{Reason: fmt.Errorf("key: %w", err)}
	}
	iv, err := e.unwrap(groups[1], own, e.cipher.IVSize())
	if err != nil {
		return nil, &DecryptionError{Reason: fmt.Errorf("iv: %w", err)}
	}
	ciphertext, err := decodeMessage(groups[2], chunkSize)
	if err != nil {
		return nil, &DecryptionError{Reason: fmt.Errorf("message: %w", err)}
	}

	plaintext, err := e.cipher.Decrypt(key, iv, ciphertext)
	if err != nil {
		return nil, &DecryptionError{Reason: err}
	}
	return plaintext, nil
}

func (e *Engine) unwrap(group string, own *interfaces.PrivateKeyMaterial, size int) ([]byte, error) {
	blocks, err := splitBlocks(group)
	if err != nil {
		return nil, err
	}
	blocks, err = exponentiate(blocks, own.PrivateExponent, own.Modulus)
	if err != nil {
		return nil, err
	}
	return FromBlocks(blocks, own.ChunkSize(), size)
}

// decodeMessage reassembles ciphertext blocks. Non-final blocks are full
// chunks; the final block's width comes from its digit count.
func decodeMessage(group string, chunkSize int) ([]byte, error) {
	parts := strings.Split(group, blockSeparator)
	blocks := make([]*big.Int, len(parts))
	widths := make([]int, len(parts))
	for i, p := range parts {
		b, w, err := DecodeRadix64Width(p)
		if err != nil {
			return nil, err
		}
		if i < len(parts)-1 {
			w = chunkSize
		}
		if w > chunkSize {
			return nil, fmt.Errorf("%w: block %d is %d bytes, chunk size %d", ErrBlockWidth, i, w, chunkSize)
		}
		blocks[i], widths[i] = b, w
	}
	return FromBlockWidths(blocks, widths)
}
