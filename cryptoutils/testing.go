package cryptoutils

import (
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"math/big"

	"github.com/ruteri/fincrypt/interfaces"
)

// GenerateKeyContainer creates a key container with independent encryption
// and signing RSA key pairs of the given size. The returned private and
// public containers share moduli and differ in exponents.
func GenerateKeyContainer(bits int, name, email string) (public, private *interfaces.KeyContainer, err error) {
	encKey, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate encryption key: %w", err)
	}
	sigKey, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate signing key: %w", err)
	}

	public = &interfaces.KeyContainer{
		KeySize: bits,
		Mod:     encKey.N,
		Exp:     big.NewInt(int64(encKey.E)),
		SigMod:  sigKey.N,
		SigExp:  big.NewInt(int64(sigKey.E)),
		Name:    name,
		Email:   email,
	}
	private = &interfaces.KeyContainer{
		KeySize: bits,
		Mod:     encKey.N,
		Exp:     encKey.D,
		SigMod:  sigKey.N,
		SigExp:  sigKey.D,
		Name:    name,
		Email:   email,
	}
	return public, private, nil
}

// GenerateTestKeyPair returns role-tagged key material for one party. It is
// meant for tests and local tooling.
func GenerateTestKeyPair(bits int) (*interfaces.PublicKeyMaterial, *interfaces.PrivateKeyMaterial, error) {
	pubC, privC, err := GenerateKeyContainer(bits, "test", "test@example.com")
	if err != nil {
		return nil, nil, err
	}
	pub, err := pubC.AsPublic()
	if err != nil {
		return nil, nil, err
	}
	priv, err := privC.AsPrivate()
	if err != nil {
		return nil, nil, err
	}
	return pub, priv, nil
}
