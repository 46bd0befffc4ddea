// Package palette implements the palette-indexed storage used for block and
// biome sections: 4096 small indices bit-packed into little-endian 32-bit
// words, followed by the palette the indices point into.
package palette

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/cqdetdev/bedrockdb/stream"
)

const (
	// Size is the number of cells in a 16x16x16 section.
	Size = 4096
	// MaxBitWidth is the largest bit width a section may use.
	MaxBitWidth = 32
	// MaxEntries is the largest palette a section may carry.
	MaxEntries = Size
)

// ErrInvalidSection is returned when a section is malformed: an index past
// the end of the palette, an empty or oversized palette, or an unsupported
// bit width. It wraps stream.ErrInvalidData.
var ErrInvalidSection = fmt.Errorf("invalid palette section: %w", stream.ErrInvalidData)

// ErrIndexOutOfRange is returned when an index points past the palette. It
// wraps ErrInvalidSection. The section has been read in full when it is
// returned.
var ErrIndexOutOfRange = fmt.Errorf("palette index out of range: %w", ErrInvalidSection)

// Index returns the position of the cell at x, y, z (each in [0, 16)) in
// the flat cell order shared by encoding and decoding.
func Index(x, y, z int) int {
	return (x<<4|z)<<4 | y
}

// Pos is the inverse of Index.
func Pos(i int) (x, y, z int) {
	return i >> 8, i & 0xF, (i >> 4) & 0xF
}

// WordCount returns the number of 32-bit words that hold Size indices of
// bitWidth bits. Indices never straddle words.
func WordCount(bitWidth int) int {
	if bitWidth <= 0 {
		return 0
	}
	perWord := 32 / bitWidth
	return (Size + perWord - 1) / perWord
}

// bitWidths are the widths Bedrock writes, smallest first.
var bitWidths = [...]int{1, 2, 3, 4, 5, 6, 8, 16}

// BitWidthFor returns the smallest standard bit width able to index a
// palette of n entries. A palette of one entry needs no indices at all.
func BitWidthFor(n int) int {
	if n <= 1 {
		return 0
	}
	for _, b := range bitWidths {
		if 1<<b >= n {
			return b
		}
	}
	return MaxBitWidth
}

func mask(bitWidth int) uint32 {
	return uint32(uint64(1)<<bitWidth - 1)
}

// Unpack extracts Size indices of bitWidth bits from packed, reading
// WordCount(bitWidth) little-endian words and taking indices from the low
// bits of each word upwards. Unused high bits are ignored.
func Unpack(packed []byte, bitWidth int) ([]uint32, error) {
	if bitWidth < 1 || bitWidth > MaxBitWidth {
		return nil, fmt.Errorf("unpack %d-bit indices: %w", bitWidth, ErrInvalidSection)
	}
	words := WordCount(bitWidth)
	if len(packed) < words*4 {
		return nil, fmt.Errorf("unpack %d-bit indices from %d bytes, need %d: %w", bitWidth, len(packed), words*4, stream.ErrEndOfStream)
	}
	perWord, m := 32/bitWidth, mask(bitWidth)
	out := make([]uint32, Size)
	i := 0
	for w := 0; w < words; w++ {
		word := binary.LittleEndian.Uint32(packed[w*4:])
		for j := 0; j < perWord && i < Size; j++ {
			out[i] = word >> (j * bitWidth) & m
			i++
		}
	}
	return out, nil
}

// Pack is the inverse of Unpack. indices must hold Size values, each fitting
// in bitWidth bits.
func Pack(indices []uint16, bitWidth int) ([]byte, error) {
	if bitWidth < 1 || bitWidth > MaxBitWidth {
		return nil, fmt.Errorf("pack %d-bit indices: %w", bitWidth, ErrInvalidSection)
	}
	if len(indices) != Size {
		return nil, fmt.Errorf("pack %d indices: %w", len(indices), ErrInvalidSection)
	}
	perWord, m := 32/bitWidth, mask(bitWidth)
	out := make([]byte, WordCount(bitWidth)*4)
	for w := range WordCount(bitWidth) {
		var word uint32
		for j := 0; j < perWord; j++ {
			i := w*perWord + j
			if i >= Size {
				break
			}
			v := uint32(indices[i])
			if v&^m != 0 {
				return nil, fmt.Errorf("pack index %d into %d bits: %w", v, bitWidth, ErrInvalidSection)
			}
			word |= v << (j * bitWidth)
		}
		binary.LittleEndian.PutUint32(out[w*4:], word)
	}
	return out, nil
}

// IsInvalid reports whether err came from malformed section data rather
// than from an I/O problem. Callers treat such sections as absent.
func IsInvalid(err error) bool {
	return errors.Is(err, stream.ErrInvalidData) || errors.Is(err, stream.ErrEndOfStream) || errors.Is(err, stream.ErrInvalidFormat)
}
