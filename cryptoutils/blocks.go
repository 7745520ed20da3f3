package cryptoutils

import (
	"fmt"
	"math/big"
)

// ToBlocks splits data into chunkSize-byte pieces and reads each as a
// big-endian unsigned integer. The final chunk may be shorter.
//
// chunkSize must be positive; ToBlocks panics otherwise. Key material
// reports its chunk size through ChunkSize, which callers check first.
func ToBlocks(data []byte, chunkSize int) []*big.Int {
	if chunkSize <= 0 {
		panic("cryptoutils: chunk size must be positive")
	}
	blocks := make([]*big.Int, 0, (len(data)+chunkSize-1)/chunkSize)
	for start := 0; start < len(data); start += chunkSize {
		end := min(start+chunkSize, len(data))
		blocks = append(blocks, new(big.Int).SetBytes(data[start:end]))
	}
	return blocks
}

// chunkWidths returns the byte width of every chunk ToBlocks produces for a
// payload of totalLen bytes.
func chunkWidths(totalLen, chunkSize int) []int {
	widths := make([]int, 0, (totalLen+chunkSize-1)/chunkSize)
	for remaining := totalLen; remaining > 0; remaining -= chunkSize {
		widths = append(widths, min(remaining, chunkSize))
	}
	return widths
}

// FromBlocks reassembles a payload of exactly totalLen bytes. Every chunk but
// the last is decoded at chunkSize bytes, zero-padded on the left; the last
// one at the remainder. Leading zero bytes therefore survive the round trip.
func FromBlocks(blocks []*big.Int, chunkSize, totalLen int) ([]byte, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size %d", ErrBlockWidth, chunkSize)
	}
	widths := chunkWidths(totalLen, chunkSize)
	if len(widths) != len(blocks) {
		return nil, fmt.Errorf("%w: got %d blocks, want %d for %d bytes", ErrBlockWidth, len(blocks), len(widths), totalLen)
	}
	return FromBlockWidths(blocks, widths)
}

// FromBlockWidths decodes each block at its own fixed width and concatenates
// the results.
func FromBlockWidths(blocks []*big.Int, widths []int) ([]byte, error) {
	if len(blocks) != len(widths) {
		return nil, fmt.Errorf("%w: %d blocks, %d widths", ErrBlockWidth, len(blocks), len(widths))
	}
	total := 0
	for _, w := range widths {
		total += w
	}

	out := make([]byte, total)
	offset := 0
	for i, block := range blocks {
		w := widths[i]
		if block.Sign() < 0 || (block.BitLen()+7)/8 > w {
			return nil, fmt.Errorf("%w: block %d needs %d bytes, have %d", ErrBlockWidth, i, (block.BitLen()+7)/8, w)
		}
		block.FillBytes(out[offset : offset+w])
		offset += w
	}
	return out, nil
}

// FromBlocksTruncating reassembles blocks using only as many bytes as each
// integer needs. Chunks that started with zero bytes come back shorter than
// they went in; this is the historical wire behaviour and is kept for
// reading old envelopes and for tests.
func FromBlocksTruncating(blocks []*big.Int) []byte {
	var out []byte
	for _, block := range blocks {
		out = append(out, block.Bytes()...)
	}
	return out
}
