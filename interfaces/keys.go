package interfaces

import (
	"errors"
	"fmt"
	"math/big"
)

// KeyRole tells which file a key container was loaded from.
type KeyRole int

const (
	// PublicRole for public key files shared by other parties
	PublicRole KeyRole = iota
	// PrivateRole for the local private key file
	PrivateRole
)

// String returns role name.
func (r KeyRole) String() string {
	switch r {
	case PublicRole:
		return "public"
	case PrivateRole:
		return "private"
	default:
		return "unknown"
	}
}

// ErrInvalidKeyMaterial is returned when a key container has unusable values.
var ErrInvalidKeyMaterial = errors.New("invalid key material")

// KeyOwner identifies the person a key belongs to.
type KeyOwner struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// KeyContainer is the shared key file schema. Exp and SigExp hold public
// exponents when loaded from a public key file and private exponents when
// loaded from the private key file.
type KeyContainer struct {
	KeySize int
	Mod     *big.Int
	Exp     *big.Int
	SigMod  *big.Int
	SigExp  *big.Int
	Name    string
	Email   string
}

// Validate checks the container holds usable numbers.
func (c *KeyContainer) Validate() error {
	if c.KeySize <= 0 || c.KeySize%8 != 0 {
		return fmt.Errorf("%w: key size %d is not a positive multiple of 8", ErrInvalidKeyMaterial, c.KeySize)
	}
	fields := []struct {
		name  string
		value *big.Int
	}{{"mod", c.Mod}, {"exp", c.Exp}, {"sigmod", c.SigMod}, {"sigexp", c.SigExp}}
	for _, f := range fields {
		if f.value == nil || f.value.Sign() <= 0 {
			return fmt.Errorf("%w: %s must be positive", ErrInvalidKeyMaterial, f.name)
		}
	}
	return nil
}

// AsPublic converts a container loaded from a public key file.
func (c *KeyContainer) AsPublic() (*PublicKeyMaterial, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &PublicKeyMaterial{
		KeySizeBits:       c.KeySize,
		Modulus:           new(big.Int).Set(c.Mod),
		PublicExponent:    new(big.Int).Set(c.Exp),
		SigModulus:        new(big.Int).Set(c.SigMod),
		SigPublicExponent: new(big.Int).Set(c.SigExp),
		Owner:             KeyOwner{Name: c.Name, Email: c.Email},
	}, nil
}

// AsPrivate converts a container loaded from the private key file.
func (c *KeyContainer) AsPrivate() (*PrivateKeyMaterial, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &PrivateKeyMaterial{
		KeySizeBits:        c.KeySize,
		Modulus:            new(big.Int).Set(c.Mod),
		PrivateExponent:    new(big.Int).Set(c.Exp),
		SigModulus:         new(big.Int).Set(c.SigMod),
		SigPrivateExponent: new(big.Int).Set(c.SigExp),
		Owner:              KeyOwner{Name: c.Name, Email: c.Email},
	}, nil
}

// PublicKeyMaterial is a recipient's or sender's public key: the encryption
// pair (Modulus, PublicExponent) and the verification pair (SigModulus,
// SigPublicExponent). The two moduli may differ.
type PublicKeyMaterial struct {
	KeySizeBits       int
	Modulus           *big.Int
	PublicExponent    *big.Int
	SigModulus        *big.Int
	SigPublicExponent *big.Int
	Owner             KeyOwner
}

// ChunkSize returns the block size in bytes used when chunking for this key.
func (k *PublicKeyMaterial) ChunkSize() int {
	return k.KeySizeBits / 8
}

// Container converts the material back to the shared schema.
func (k *PublicKeyMaterial) Container() *KeyContainer {
	return &KeyContainer{
		KeySize: k.KeySizeBits,
		Mod:     k.Modulus,
		Exp:     k.PublicExponent,
		SigMod:  k.SigModulus,
		SigExp:  k.SigPublicExponent,
		Name:    k.Owner.Name,
		Email:   k.Owner.Email,
	}
}

// PrivateKeyMaterial is the local private key: the decryption pair (Modulus,
// PrivateExponent) and the signing pair (SigModulus, SigPrivateExponent).
type PrivateKeyMaterial struct {
	KeySizeBits        int
	Modulus            *big.Int
	PrivateExponent    *big.Int
	SigModulus         *big.Int
	SigPrivateExponent *big.Int
	Owner              KeyOwner
}

// ChunkSize returns the block size in bytes used when chunking for this key.
func (k *PrivateKeyMaterial) ChunkSize() int {
	return k.KeySizeBits / 8
}

// Container converts the material back to the shared schema.
func (k *PrivateKeyMaterial) Container() *KeyContainer {
	return &KeyContainer{
		KeySize: k.KeySizeBits,
		Mod:     k.Modulus,
		Exp:     k.PrivateExponent,
		SigMod:  k.SigModulus,
		SigExp:  k.SigPrivateExponent,
		Name:    k.Owner.Name,
		Email:   k.Owner.Email,
	}
}
