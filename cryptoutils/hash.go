package cryptoutils

import "crypto/sha512"

// SHA512 is the digest signed by the signature engine.
type SHA512 struct{}

func (SHA512) Sum(data []byte) []byte {
	sum := sha512.Sum512(data)
	return sum[:]
}

func (SHA512) Size() int { return sha512.Size }

func (SHA512) Name() string { return "SHA512" }
