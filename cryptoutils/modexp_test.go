package cryptoutils

import (
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModExp(t *testing.T) {
	r, err := ModExp(big.NewInt(4), big.NewInt(13), big.NewInt(497))
	require.NoError(t, err)
	assert.Equal(t, int64(445), r.Int64())

	r, err = ModExp(big.NewInt(0), big.NewInt(65537), big.NewInt(497))
	require.NoError(t, err)
	assert.Equal(t, int64(0), r.Int64())

	r, err = ModExp(big.NewInt(5), big.NewInt(0), big.NewInt(497))
	require.NoError(t, err)
	assert.Equal(t, int64(1), r.Int64())
}

func TestModExpMatchesBigInt(t *testing.T) {
	modulus, err := rand.Prime(rand.Reader, 512)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		base, err := rand.Int(rand.Reader, modulus)
		require.NoError(t, err)
		exponent, err := rand.Int(rand.Reader, modulus)
		require.NoError(t, err)

		got, err := ModExp(base, exponent, modulus)
		require.NoError(t, err)
		assert.Equal(t, 0, new(big.Int).Exp(base, exponent, modulus).Cmp(got))
	}
}

func TestModExpRejectsOutOfRangeBlocks(t *testing.T) {
	modulus := big.NewInt(497)

	_, err := ModExp(big.NewInt(497), big.NewInt(3), modulus)
	assert.ErrorIs(t, err, ErrBlockOutOfRange)

	_, err = ModExp(big.NewInt(1000), big.NewInt(3), modulus)
	assert.ErrorIs(t, err, ErrBlockOutOfRange)

	_, err = ModExp(big.NewInt(-1), big.NewInt(3), modulus)
	assert.ErrorIs(t, err, ErrBlockOutOfRange)

	_, err = ModExp(big.NewInt(2), big.NewInt(-3), modulus)
	assert.ErrorIs(t, err, ErrBlockOutOfRange)
}

func TestModExpRejectsBadModulus(t *testing.T) {
	for _, m := range []*big.Int{nil, big.NewInt(0), big.NewInt(1), big.NewInt(496), big.NewInt(-7)} {
		_, err := ModExp(big.NewInt(0), big.NewInt(3), m)
		assert.ErrorIs(t, err, ErrInvalidModulus)
	}
}
