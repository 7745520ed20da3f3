package cryptoutils

import (
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRadix64(t *testing.T) {
	testCases := []struct {
		value   int64
		encoded string
	}{
		{0, ""},
		{1, "B"},
		{25, "Z"},
		{26, "a"},
		{52, "0"},
		{62, "+"},
		{63, "="},
		{64, "BA"},
		{4095, "=="},
	}

	for _, tc := range testCases {
		t.Run(tc.encoded, func(t *testing.T) {
			assert.Equal(t, tc.encoded, EncodeRadix64(big.NewInt(tc.value)))
			decoded, err := DecodeRadix64(tc.encoded)
			require.NoError(t, err)
			assert.Equal(t, tc.value, decoded.Int64())
		})
	}
}

func TestRadix64LargeValues(t *testing.T) {
	x, ok := new(big.Int).SetString("123456789012345678901234567890123456789012345678901234567890", 10)
	require.True(t, ok)

	decoded, err := DecodeRadix64(EncodeRadix64(x))
	require.NoError(t, err)
	assert.Equal(t, 0, x.Cmp(decoded))
}

func TestRadix64InvalidDigit(t *testing.T) {
	for _, s := range []string{"/", "AB/C", "A B", "é", "A,B"} {
		_, err := DecodeRadix64(s)
		assert.ErrorIs(t, err, ErrInvalidRadixDigit, s)
	}
}

func TestRadix64Width(t *testing.T) {
	assert.Equal(t, "AAA", EncodeRadix64Width(big.NewInt(0), 2))
	assert.Equal(t, "AAB", EncodeRadix64Width(big.NewInt(1), 2))

	for w := 1; w <= 260; w++ {
		data := make([]byte, w)
		data[w-1] = byte(w)
		x := new(big.Int).SetBytes(data)

		s := EncodeRadix64Width(x, w)
		v, width, err := DecodeRadix64Width(s)
		require.NoError(t, err)
		assert.Equal(t, w, width, "width %d", w)
		assert.Equal(t, 0, x.Cmp(v))
	}
}

func TestRadix64WidthUnpadded(t *testing.T) {
	// Digit counts without a matching width fall back to the value's width.
	v, width, err := DecodeRadix64Width("B")
	require.NoError(t, err)
	assert.Equal(t, int64(1), v.Int64())
	assert.Equal(t, 1, width)

	v, width, err = DecodeRadix64Width("")
	require.NoError(t, err)
	assert.Equal(t, int64(0), v.Int64())
	assert.Equal(t, 0, width)

	_, _, err = DecodeRadix64Width("A!")
	assert.ErrorIs(t, err, ErrInvalidRadixDigit)
}

func TestToBlocks(t *testing.T) {
	blocks := ToBlocks([]byte{0x01, 0x02, 0x03, 0x04, 0x05}, 2)
	require.Len(t, blocks, 3)
	assert.Equal(t, int64(0x0102), blocks[0].Int64())
	assert.Equal(t, int64(0x0304), blocks[1].Int64())
	assert.Equal(t, int64(0x05), blocks[2].Int64())

	assert.Empty(t, ToBlocks(nil, 4))
	assert.Panics(t, func() { ToBlocks([]byte{1}, 0) })
}

func TestFromBlocksKeepsLeadingZeros(t *testing.T) {
	data := []byte{0x00, 0x00, 0x01, 0x02, 0x00, 0x03, 0x00}
	blocks := ToBlocks(data, 2)

	// Minimal-width decoding loses every leading zero byte.
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, FromBlocksTruncating(blocks))

	restored, err := FromBlocks(blocks, 2, len(data))
	require.NoError(t, err)
	assert.Equal(t, data, restored)
}

func TestFromBlocksErrors(t *testing.T) {
	blocks := ToBlocks([]byte{0x01, 0x02, 0x03}, 2)

	_, err := FromBlocks(blocks, 2, 5)
	assert.ErrorIs(t, err, ErrBlockWidth)

	_, err = FromBlocks(blocks, 0, 3)
	assert.ErrorIs(t, err, ErrBlockWidth)

	_, err = FromBlockWidths([]*big.Int{big.NewInt(0x1234)}, []int{1})
	assert.ErrorIs(t, err, ErrBlockWidth)

	_, err = FromBlockWidths([]*big.Int{big.NewInt(-1)}, []int{4})
	assert.ErrorIs(t, err, ErrBlockWidth)

	_, err = FromBlockWidths([]*big.Int{big.NewInt(1)}, []int{1, 2})
	assert.ErrorIs(t, err, ErrBlockWidth)

	out, err := FromBlocks(nil, 4, 0)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestArmor(t *testing.T) {
	text := strings.Repeat("abcdefghij", 20)

	armored := Armor(text, DefaultArmorWidth)
	lines := strings.Split(armored, "\n")
	require.Len(t, lines, 3)
	assert.Len(t, lines[0], 76)
	assert.Len(t, lines[1], 76)
	assert.Len(t, lines[2], 48)

	assert.Equal(t, text, Dearmor(armored))
	assert.Equal(t, text, Dearmor(" \t"+strings.ReplaceAll(armored, "\n", "\r\n")+"\n"))
	assert.Equal(t, text, Armor(text, 0))
	assert.Equal(t, "short", Armor("short", 76))
}

func TestCompress(t *testing.T) {
	data := []byte(strings.Repeat("compressible ", 100))

	compressed, err := Compress(data)
	require.NoError(t, err)
	assert.Less(t, len(compressed), len(data))

	restored, err := Decompress(compressed, 0)
	require.NoError(t, err)
	assert.Equal(t, data, restored)

	empty, err := Compress(nil)
	require.NoError(t, err)
	restored, err = Decompress(empty, DefaultMaxPlaintextSize)
	require.NoError(t, err)
	assert.Empty(t, restored)

	_, err = Decompress([]byte("not zlib"), 0)
	assert.ErrorIs(t, err, ErrDecompressionFailed)

	_, err = Decompress(compressed[:len(compressed)-4], 0)
	assert.ErrorIs(t, err, ErrDecompressionFailed)
}

func TestDecompressLimit(t *testing.T) {
	data := make([]byte, 1<<20)
	compressed, err := Compress(data)
	require.NoError(t, err)
	require.Less(t, len(compressed), 4096)

	restored, err := Decompress(compressed, int64(len(data)))
	require.NoError(t, err)
	assert.Len(t, restored, len(data))

	restored, err = Decompress(compressed, int64(len(data))-1)
	assert.ErrorIs(t, err, ErrDecompressionFailed)
	assert.Nil(t, restored)

	restored, err = Decompress(compressed, 0)
	require.NoError(t, err)
	assert.Len(t, restored, len(data))
}
