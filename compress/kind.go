// Package compress implements the whole-buffer compression kinds that can
// wrap a persisted NBT payload, and detection of the kind from the first
// byte of a payload.
package compress

import (
	"fmt"

	"github.com/cqdetdev/bedrockdb/stream"
)

// Kind identifies a compression format. The value of each known kind is
// the first byte of a payload compressed with it, which is how Detect
// recognises it.
type Kind byte

const (
	// Auto asks decoders to detect the kind from the payload.
	Auto Kind = 0x00
	// None is an uncompressed NBT payload, which starts with a compound tag.
	None Kind = 0x0A
	// Gzip is an RFC 1952 stream.
	Gzip Kind = 0x1F
	// Zlib is an RFC 1950 stream.
	Zlib Kind = 0x78
	// Snappy is a framed snappy stream.
	Snappy Kind = 0xFF
	// LZ4 is an LZ4 frame.
	LZ4 Kind = 0x04
)

// String returns a lower-case name for the kind.
func (k Kind) String() string {
	switch k {
	case Auto:
		return "auto"
	case None:
		return "none"
	case Gzip:
		return "gzip"
	case Zlib:
		return "zlib"
	case Snappy:
		return "snappy"
	case LZ4:
		return "lz4"
	}
	return fmt.Sprintf("Kind(%#02x)", byte(k))
}

// Detect returns the kind of the payload passed by looking at its first
// byte. An empty payload or an unknown first byte fails with
// stream.ErrInvalidData.
func Detect(data []byte) (Kind, error) {
	if len(data) == 0 {
		return Auto, fmt.Errorf("detect compression: empty payload: %w", stream.ErrInvalidData)
	}
	switch k := Kind(data[0]); k {
	case None, Gzip, Zlib, Snappy, LZ4:
		return k, nil
	}
	return Auto, fmt.Errorf("detect compression: unknown first byte %#02x: %w", data[0], stream.ErrInvalidData)
}
