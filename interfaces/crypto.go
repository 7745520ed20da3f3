package interfaces

// SymmetricCipher encrypts bulk data inside the hybrid envelope. Padding is
// owned by the cipher; Decrypt must fail distinguishably on invalid padding.
type SymmetricCipher interface {
	// KeySize is the key length in bytes.
	KeySize() int
	// IVSize is the initialization vector length in bytes.
	IVSize() int
	Encrypt(key, iv, plaintext []byte) ([]byte, error)
	Decrypt(key, iv, ciphertext []byte) ([]byte, error)
}

// Hasher is a fixed-output cryptographic digest.
type Hasher interface {
	Sum(data []byte) []byte
	// Size is the digest length in bytes.
	Size() int
	// Name identifies the algorithm, e.g. for fingerprints.
	Name() string
}
