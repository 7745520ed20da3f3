package cryptoutils

import (
	"encoding/hex"
	"strings"

	"github.com/ruteri/fincrypt/interfaces"
)

// Fingerprint identifies a key file by the digest of its text.
type Fingerprint struct {
	Algorithm string
	Digest    []byte
}

// NewFingerprint hashes the key file text as stored, surrounding whitespace
// included, so two parties holding the same file see the same fingerprint.
func NewFingerprint(keyText []byte, h interfaces.Hasher) Fingerprint {
	return Fingerprint{Algorithm: h.Name(), Digest: h.Sum(keyText)}
}

// String formats the digest as colon-separated upper-case hex pairs.
func (f Fingerprint) String() string {
	h := strings.ToUpper(hex.EncodeToString(f.Digest))
	pairs := make([]string, 0, len(h)/2)
	for i := 0; i+1 < len(h); i += 2 {
		pairs = append(pairs, h[i:i+2])
	}
	return strings.Join(pairs, ":")
}

// Randomart renders the fingerprint as a drunken-bishop picture.
func (f Fingerprint) Randomart() string {
	return Randomart(f.Digest, f.Algorithm)
}
