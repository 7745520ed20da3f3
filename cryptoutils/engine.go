package cryptoutils

import (
	"crypto/rand"
	"io"
	"math/big"
	"strings"

	"github.com/ruteri/fincrypt/interfaces"
)

// Wire separators.
const (
	blockSeparator     = ","
	groupSeparator     = "_"
	signatureSeparator = "|"
)

// Engine seals, opens, signs and verifies envelopes. It holds no mutable
// state and is safe for concurrent use as long as its random source is.
type Engine struct {
	cipher interfaces.SymmetricCipher
	hasher interfaces.Hasher
	rand   io.Reader
}

// NewEngine returns an engine using AES-256-CBC, SHA-512 and crypto/rand.
func NewEngine() *Engine {
	return &Engine{
		cipher: AESCBC{},
		hasher: SHA512{},
		rand:   rand.Reader,
	}
}

// WithCipher returns a copy of the engine using another symmetric cipher.
func (e *Engine) WithCipher(c interfaces.SymmetricCipher) *Engine {
	cp := *e
	cp.cipher = c
	return &cp
}

// WithHasher returns a copy of the engine using another digest.
func (e *Engine) WithHasher(h interfaces.Hasher) *Engine {
	cp := *e
	cp.hasher = h
	return &cp
}

// WithRand returns a copy of the engine drawing symmetric keys from r.
func (e *Engine) WithRand(r io.Reader) *Engine {
	cp := *e
	cp.rand = r
	return &cp
}

// Hasher returns the digest the engine signs.
func (e *Engine) Hasher() interfaces.Hasher {
	return e.hasher
}

func joinBlocks(blocks []*big.Int) string {
	encoded := make([]string, len(blocks))
	for i, b := range blocks {
		encoded[i] = EncodeRadix64(b)
	}
	return strings.Join(encoded, blockSeparator)
}

func splitBlocks(group string) ([]*big.Int, error) {
	parts := strings.Split(group, blockSeparator)
	blocks := make([]*big.Int, len(parts))
	for i, p := range parts {
		b, err := DecodeRadix64(p)
		if err != nil {
			return nil, err
		}
		blocks[i] = b
	}
	return blocks, nil
}

// exponentiate applies ModExp to every block.
func exponentiate(blocks []*big.Int, exponent, modulus *big.Int) ([]*big.Int, error) {
	out := make([]*big.Int, len(blocks))
	for i, b := range blocks {
		r, err := ModExp(b, exponent, modulus)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}
