package cryptoutils

import (
	"fmt"
	"math/big"
	"strings"
)

// Radix64Alphabet lists the digit symbols of the radix-64 text codec in value
// order. This encodes integer values, not bytes, and is unrelated to RFC 4648.
const Radix64Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+="

var (
	radixBase   = big.NewInt(64)
	radixLookup = func() (t [256]int8) {
		for i := range t {
			t[i] = -1
		}
		for i := 0; i < len(Radix64Alphabet); i++ {
			t[Radix64Alphabet[i]] = int8(i)
		}
		return t
	}()
)

// EncodeRadix64 writes x most-significant digit first with no padding.
// Zero encodes to the empty string.
func EncodeRadix64(x *big.Int) string {
	if x.Sign() <= 0 {
		return ""
	}
	// 6 bits per digit
	digits := make([]byte, 0, (x.BitLen()+5)/6)
	v := new(big.Int).Set(x)
	rem := new(big.Int)
	for v.Sign() > 0 {
		v.QuoRem(v, radixBase, rem)
		digits = append(digits, Radix64Alphabet[rem.Int64()])
	}
	for i, j := 0, len(digits)-1; i < j; i, j = i+1, j-1 {
		digits[i], digits[j] = digits[j], digits[i]
	}
	return string(digits)
}

// DecodeRadix64 is the inverse of EncodeRadix64. The empty string decodes to zero.
func DecodeRadix64(s string) (*big.Int, error) {
	v := new(big.Int)
	digit := new(big.Int)
	for i := 0; i < len(s); i++ {
		d := radixLookup[s[i]]
		if d < 0 {
			return nil, fmt.Errorf("%w: %q at offset %d", ErrInvalidRadixDigit, s[i], i)
		}
		v.Mul(v, radixBase)
		v.Add(v, digit.SetInt64(int64(d)))
	}
	return v, nil
}

// radixDigitsForWidth is the number of radix-64 digits that hold byteWidth bytes.
func radixDigitsForWidth(byteWidth int) int {
	return (4*byteWidth + 2) / 3
}

// EncodeRadix64Width encodes x left-padded with the zero digit to the digit
// count of a byteWidth-byte chunk. The digit count identifies the width on
// decode; the value is unchanged for decoders that ignore widths.
//
// Padding changes the wire text: EncodeRadix64 never emits leading zero
// digits, so envelopes from older unpadded encoders differ byte for byte
// even though both decode to the same blocks.
func EncodeRadix64Width(x *big.Int, byteWidth int) string {
	s := EncodeRadix64(x)
	if n := radixDigitsForWidth(byteWidth); len(s) < n {
		s = strings.Repeat(Radix64Alphabet[:1], n-len(s)) + s
	}
	return s
}

// DecodeRadix64Width decodes s and the byte width it was encoded at. Digit
// counts no width produces come from unpadded encoders; their width is the
// minimal width of the value.
func DecodeRadix64Width(s string) (*big.Int, int, error) {
	v, err := DecodeRadix64(s)
	if err != nil {
		return nil, 0, err
	}
	width := 3 * len(s) / 4
	if radixDigitsForWidth(width) != len(s) || (v.BitLen()+7)/8 > width {
		width = (v.BitLen() + 7) / 8
	}
	return v, width, nil
}
