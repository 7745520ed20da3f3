package cryptoutils

import (
	"fmt"
	"strings"

	"github.com/ruteri/fincrypt/interfaces"
)

// DecryptResult carries the independent outcomes of DecryptAndVerify.
// Plaintext is nil when decryption failed; Verified is false when the
// signature did not match. The error fields keep the reasons for logging.
type DecryptResult struct {
	Plaintext []byte
	Verified  bool

	DecryptErr error
	VerifyErr  error
}

// Decrypted reports whether the plaintext was recovered.
func (r *DecryptResult) Decrypted() bool {
	return r.DecryptErr == nil
}

// EncryptAndSign seals message for the recipient and signs the sealed text
// with the signer's private key:
//
//	<envelope>|<signature>
func (e *Engine) EncryptAndSign(message []byte, recipient *interfaces.PublicKeyMaterial, signer *interfaces.PrivateKeyMaterial) (string, error) {
	sealed, err := e.Seal(message, recipient)
	if err != nil {
		return "", err
	}
	signature, err := e.Sign([]byte(sealed), signer)
	if err != nil {
		return "", err
	}
	return sealed + signatureSeparator + signature, nil
}

// DecryptAndVerify splits signed text at the first '|' and then attempts
// decryption and verification independently: the signature covers the
// envelope text, so a message may decrypt but fail verification or verify
// but fail to decrypt. Only a missing separator is returned as an error.
func (e *Engine) DecryptAndVerify(text string, sender *interfaces.PublicKeyMaterial, own *interfaces.PrivateKeyMaterial) (*DecryptResult, error) {
	envelope, signature, ok := strings.Cut(text, signatureSeparator)
	if !ok {
		return nil, fmt.Errorf("%w: missing signature separator", ErrInvalidEnvelopeFormat)
	}

	result := &DecryptResult{}

	plaintext, err := e.Open(envelope, own)
	if err != nil {
		result.DecryptErr = err
	} else {
		result.Plaintext = plaintext
	}

	if err := e.VerifySignature([]byte(envelope), signature, sender); err != nil {
		result.VerifyErr = err
	} else {
		result.Verified = true
	}

	return result, nil
}
