package cryptoutils

import (
	"fmt"
	"math/big"

	"filippo.io/bigmod"
)

// ModExp computes base^exponent mod modulus. The exponentiation runs in time
// independent of the base and exponent values since exponents may be private
// key material. base must satisfy 0 <= base < modulus; a larger block would
// wrap and could never be recovered.
func ModExp(base, exponent, modulus *big.Int) (*big.Int, error) {
	if modulus == nil || modulus.Cmp(big.NewInt(1)) <= 0 || modulus.Bit(0) == 0 {
		return nil, fmt.Errorf("%w: modulus must be odd and greater than one", ErrInvalidModulus)
	}
	if base == nil || base.Sign() < 0 || base.Cmp(modulus) >= 0 {
		return nil, fmt.Errorf("%w: %d-bit block, %d-bit modulus", ErrBlockOutOfRange, bitLen(base), modulus.BitLen())
	}
	if exponent == nil || exponent.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative exponent", ErrBlockOutOfRange)
	}

	m, err := bigmod.NewModulusFromBig(modulus)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidModulus, err)
	}

	x, err := bigmod.NewNat().SetBytes(base.Bytes(), m)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBlockOutOfRange, err)
	}

	out := bigmod.NewNat().Exp(x, exponent.Bytes(), m)
	return new(big.Int).SetBytes(out.Bytes(m)), nil
}

func bitLen(x *big.Int) int {
	if x == nil {
		return 0
	}
	return x.BitLen()
}
