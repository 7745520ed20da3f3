package cryptoutils

import (
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"

	"github.com/ruteri/fincrypt/interfaces"
	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"
)

// Key files hold the URL-safe base64 encoding of this DER structure:
//
//	FinCryptKey ::= SEQUENCE {
//	    keysize INTEGER,
//	    mod     INTEGER,
//	    exp     INTEGER,
//	    sigmod  INTEGER,
//	    sigexp  INTEGER,
//	    name    UTF8String,
//	    email   UTF8String
//	}

// ParseKeyFile decodes key file text into the shared key container. Whitespace
// is ignored and both padded and unpadded base64 are accepted.
func ParseKeyFile(text []byte) (*interfaces.KeyContainer, error) {
	der, err := decodeKeyText(Dearmor(string(text)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedKeyFile, err)
	}

	input := cryptobyte.String(der)
	var seq cryptobyte.String
	if !input.ReadASN1(&seq, asn1.SEQUENCE) || !input.Empty() {
		return nil, fmt.Errorf("%w: not a DER sequence", ErrMalformedKeyFile)
	}

	keySize := new(big.Int)
	c := &interfaces.KeyContainer{
		Mod:    new(big.Int),
		Exp:    new(big.Int),
		SigMod: new(big.Int),
		SigExp: new(big.Int),
	}
	for _, field := range []struct {
		name string
		out  *big.Int
	}{{"keysize", keySize}, {"mod", c.Mod}, {"exp", c.Exp}, {"sigmod", c.SigMod}, {"sigexp", c.SigExp}} {
		if !seq.ReadASN1Integer(field.out) {
			return nil, fmt.Errorf("%w: bad %s integer", ErrMalformedKeyFile, field.name)
		}
	}
	if !keySize.IsInt64() || keySize.Int64() > 1<<20 {
		return nil, fmt.Errorf("%w: key size out of range", ErrMalformedKeyFile)
	}
	c.KeySize = int(keySize.Int64())

	if c.Name, err = readText(&seq); err != nil {
		return nil, fmt.Errorf("%w: name: %v", ErrMalformedKeyFile, err)
	}
	if c.Email, err = readText(&seq); err != nil {
		return nil, fmt.Errorf("%w: email: %v", ErrMalformedKeyFile, err)
	}
	if !seq.Empty() {
		return nil, fmt.Errorf("%w: trailing data in sequence", ErrMalformedKeyFile)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedKeyFile, err)
	}
	return c, nil
}

// ParsePublicKeyFile parses a key file loaded from the public key role.
func ParsePublicKeyFile(text []byte) (*interfaces.PublicKeyMaterial, error) {
	c, err := ParseKeyFile(text)
	if err != nil {
		return nil, err
	}
	return c.AsPublic()
}

// ParsePrivateKeyFile parses the key file loaded from the private key role.
func ParsePrivateKeyFile(text []byte) (*interfaces.PrivateKeyMaterial, error) {
	c, err := ParseKeyFile(text)
	if err != nil {
		return nil, err
	}
	return c.AsPrivate()
}

// MarshalKeyFile encodes a key container as key file text.
func MarshalKeyFile(c *interfaces.KeyContainer) ([]byte, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var b cryptobyte.Builder
	b.AddASN1(asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1Int64(int64(c.KeySize))
		b.AddASN1BigInt(c.Mod)
		b.AddASN1BigInt(c.Exp)
		b.AddASN1BigInt(c.SigMod)
		b.AddASN1BigInt(c.SigExp)
		b.AddASN1(asn1.UTF8String, func(b *cryptobyte.Builder) {
			b.AddBytes([]byte(c.Name))
		})
		b.AddASN1(asn1.UTF8String, func(b *cryptobyte.Builder) {
			b.AddBytes([]byte(c.Email))
		})
	})
	der, err := b.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal key: %w", err)
	}

	out := make([]byte, base64.URLEncoding.EncodedLen(len(der)))
	base64.URLEncoding.Encode(out, der)
	return out, nil
}

func decodeKeyText(s string) ([]byte, error) {
	if s == "" {
		return nil, errors.New("empty key file")
	}
	data, err := base64.URLEncoding.DecodeString(s)
	if err == nil {
		return data, nil
	}
	return base64.RawURLEncoding.DecodeString(s)
}

func readText(s *cryptobyte.String) (string, error) {
	var (
		value cryptobyte.String
		tag   asn1.Tag
	)
	if !s.ReadAnyASN1(&value, &tag) {
		return "", errors.New("missing string")
	}
	switch tag {
	case asn1.UTF8String, asn1.PrintableString, asn1.IA5String, asn1.OCTET_STRING:
		return string(value), nil
	default:
		return "", fmt.Errorf("unexpected tag %d", tag)
	}
}
