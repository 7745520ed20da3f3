package cryptoutils

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/subtle"
	"fmt"
)

const (
	// AESKeySize is the size of an AES-256 key in bytes.
	AESKeySize = 32
	// AESIVSize is the size of a CBC initialization vector in bytes.
	AESIVSize = aes.BlockSize
)

// AESCBC is AES-256 in CBC mode with PKCS#7 padding.
type AESCBC struct{}

// KeySize returns the AES-256 key length.
func (AESCBC) KeySize() int { return AESKeySize }

// IVSize returns the CBC IV length.
func (AESCBC) IVSize() int { return AESIVSize }

// Encrypt pads plaintext to the block size and encrypts it. An empty
// plaintext yields one block of padding.
func (c AESCBC) Encrypt(key, iv, plaintext []byte) ([]byte, error) {
	block, err := c.newCipher(key, iv)
	if err != nil {
		return nil, err
	}

	padLen := aes.BlockSize - len(plaintext)%aes.BlockSize
	buf := make([]byte, len(plaintext)+padLen)
	copy(buf, plaintext)
	copy(buf[len(plaintext):], bytes.Repeat([]byte{byte(padLen)}, padLen))

	cipher.NewCBCEncrypter(block, iv).CryptBlocks(buf, buf)
	return buf, nil
}

// Decrypt decrypts and strips PKCS#7 padding, returning ErrInvalidPadding
// when the padding does not check out.
func (c AESCBC) Decrypt(key, iv, ciphertext []byte) ([]byte, error) {
	block, err := c.newCipher(key, iv)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: ciphertext length %d is not a positive multiple of %d", ErrInvalidPadding, len(ciphertext), aes.BlockSize)
	}

	buf := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(buf, ciphertext)

	padLen := int(buf[len(buf)-1])
	if padLen == 0 || padLen > aes.BlockSize {
		return nil, ErrInvalidPadding
	}
	pad := buf[len(buf)-padLen:]
	if subtle.ConstantTimeCompare(pad, bytes.Repeat([]byte{byte(padLen)}, padLen)) != 1 {
		return nil, ErrInvalidPadding
	}
	return buf[:len(buf)-padLen], nil
}

func (AESCBC) newCipher(key, iv []byte) (cipher.Block, error) {
	if len(key) != AESKeySize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidKeySize, len(key), AESKeySize)
	}
	if len(iv) != AESIVSize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidIVSize, len(iv), AESIVSize)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	return block, nil
}
