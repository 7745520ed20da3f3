package cryptoutils

import (
	"crypto/subtle"
	"fmt"

	"github.com/ruteri/fincrypt/interfaces"
)

// Sign hashes message, chunks the digest at the signer's chunk size and
// raises every block to the signer's private signing exponent. Blocks are
// radix-encoded and comma-joined.
func (e *Engine) Sign(message []byte, signer *interfaces.PrivateKeyMaterial) (string, error) {
	if signer == nil {
		return "", fmt.Errorf("%w: no signing key", interfaces.ErrInvalidKeyMaterial)
	}
	chunkSize := signer.ChunkSize()
	if chunkSize <= 0 {
		return "", fmt.Errorf("%w: key size %d bits", interfaces.ErrInvalidKeyMaterial, signer.KeySizeBits)
	}

	digest := e.hasher.Sum(message)
	blocks, err := exponentiate(ToBlocks(digest, chunkSize), signer.SigPrivateExponent, signer.SigModulus)
	if err != nil {
		return "", fmt.Errorf("failed to sign digest: %w", err)
	}
	return joinBlocks(blocks), nil
}

// VerifySignature checks signature against message with the signer's public
// verification exponent. It returns ErrMalformedSignature when the signature
// cannot be decoded into a digest and ErrSignatureMismatch when it decodes
// to a different digest.
func (e *Engine) VerifySignature(message []byte, signature string, signer *interfaces.PublicKeyMaterial) error {
	if signer == nil {
		return fmt.Errorf("%w: no signer key", ErrMalformedSignature)
	}
	chunkSize := signer.ChunkSize()
	if chunkSize <= 0 {
		return fmt.Errorf("%w: key size %d bits", ErrMalformedSignature, signer.KeySizeBits)
	}

	blocks, err := splitBlocks(signature)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedSignature, err)
	}
	blocks, err = exponentiate(blocks, signer.SigPublicExponent, signer.SigModulus)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedSignature, err)
	}

	expected := e.hasher.Sum(message)
	alleged, err := FromBlocks(blocks, chunkSize, len(expected))
	if err != nil {
		// A block wider than its chunk decodes to no digest at all.
		return fmt.Errorf("%w: %v", ErrSignatureMismatch, err)
	}
	if subtle.ConstantTimeCompare(alleged, expected) != 1 {
		return ErrSignatureMismatch
	}
	return nil
}

// Verify reports whether signature matches message. It never fails; use
// VerifySignature for the reason.
func (e *Engine) Verify(message []byte, signature string, signer *interfaces.PublicKeyMaterial) bool {
	return e.VerifySignature(message, signature, signer) == nil
}
