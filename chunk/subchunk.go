package chunk

import (
	"fmt"

	"github.com/cqdetdev/bedrockdb/palette"
	"github.com/cqdetdev/bedrockdb/stream"
)

var (
	// ErrUnsupportedVersion is returned for a sub-chunk or chunk version
	// that cannot be decoded.
	ErrUnsupportedVersion = fmt.Errorf("unsupported version: %w", stream.ErrInvalidData)
	// ErrIndexMismatch is returned when a sub-chunk names a vertical index
	// other than the one in its key.
	ErrIndexMismatch = fmt.Errorf("sub-chunk index mismatch: %w", stream.ErrInvalidData)
)

// Layer indices within a sub-chunk.
const (
	TerrainLayer = 0
	LiquidLayer  = 1
)

// SubChunk is a 16x16x16 section of a chunk. Layers[0] holds terrain and
// the optional Layers[1] holds the liquid overlay, such as water inside
// waterlogged blocks.
type SubChunk struct {
	Index   int8
	Version uint8
	Layers  []*palette.Section[Block]
}

// NewSubChunk returns a version 9 sub-chunk filled with air.
func NewSubChunk(index int8) *SubChunk {
	return &SubChunk{Index: index, Version: 9, Layers: []*palette.Section[Block]{palette.Uniform(Air())}}
}

// Layer returns layer i, or nil.
func (s *SubChunk) Layer(i int) *palette.Section[Block] {
	if i < 0 || i >= len(s.Layers) {
		return nil
	}
	return s.Layers[i]
}

// Block returns the block at x, y, z in layer, each coordinate in [0, 16).
func (s *SubChunk) Block(x, y, z, layer int) (Block, bool) {
	l := s.Layer(layer)
	if l == nil {
		return Block{}, false
	}
	return l.At(x&15, y&15, z&15), true
}

// Empty reports whether the terrain layer holds nothing but air.
func (s *SubChunk) Empty() bool {
	l := s.Layer(TerrainLayer)
	if l == nil {
		return true
	}
	for _, b := range l.Palette {
		if !b.IsAir() {
			return false
		}
	}
	return true
}

type layerDecoder func(r *stream.Reader, index int8) ([]*palette.Section[Block], error)

var subChunkDecoders = map[uint8]layerDecoder{
	1: decodeV1,
	8: decodeV8,
	9: decodeV9,
}

// DecodeSubChunk decodes a sub-chunk record stored under vertical index
// index. It reads a storage version byte and dispatches on it: version 1
// holds a single layer, version 8 a layer count and the layers, and
// version 9 additionally the vertical index, which must equal index.
//
// Any layer failing validation fails the whole sub-chunk with an error
// matching stream.ErrInvalidData, stream.ErrInvalidFormat or
// stream.ErrEndOfStream.
func DecodeSubChunk(data []byte, index int8) (*SubChunk, error) {
	r := stream.NewLittleEndianReader(data)
	version, err := r.Uint8()
	if err != nil {
		return nil, fmt.Errorf("read sub-chunk version: %w", err)
	}
	decode, ok := subChunkDecoders[version]
	if !ok {
		return nil, fmt.Errorf("sub-chunk version %d: %w", version, ErrUnsupportedVersion)
	}
	layers, err := decode(r, index)
	if err != nil {
		return nil, fmt.Errorf("sub-chunk %d version %d: %w", index, version, err)
	}
	return &SubChunk{Index: index, Version: version, Layers: layers}, nil
}

func decodeV1(r *stream.Reader, _ int8) ([]*palette.Section[Block], error) {
	return decodeLayers(r, 1)
}

func decodeV8(r *stream.Reader, _ int8) ([]*palette.Section[Block], error) {
	n, err := r.Uint8()
	if err != nil {
		return nil, fmt.Errorf("read layer count: %w", err)
	}
	return decodeLayers(r, int(n))
}

func decodeV9(r *stream.Reader, index int8) ([]*palette.Section[Block], error) {
	n, err := r.Uint8()
	if err != nil {
		return nil, fmt.Errorf("read layer count: %w", err)
	}
	y, err := r.Int8()
	if err != nil {
		return nil, fmt.Errorf("read vertical index: %w", err)
	}
	if y != index {
		return nil, fmt.Errorf("record names %d: %w", y, ErrIndexMismatch)
	}
	return decodeLayers(r, int(n))
}

func decodeLayers(r *stream.Reader, n int) ([]*palette.Section[Block], error) {
	if n == 0 {
		return nil, fmt.Errorf("no terrain layer: %w", stream.ErrInvalidData)
	}
	layers := make([]*palette.Section[Block], n)
	for i := range layers {
		l, err := palette.Decode(r, readBlock)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		layers[i] = l
	}
	return layers, nil
}

// EncodeSubChunk encodes s as a version 9 sub-chunk record.
func EncodeSubChunk(s *SubChunk) ([]byte, error) {
	switch {
	case len(s.Layers) == 0:
		return nil, fmt.Errorf("encode sub-chunk without layers: %w", stream.ErrInvalidData)
	case len(s.Layers) > 255:
		return nil, fmt.Errorf("encode sub-chunk with %d layers: %w", len(s.Layers), stream.ErrValueTooLarge)
	}
	w := stream.NewLittleEndianWriter()
	_ = w.Uint8(9)
	_ = w.Uint8(uint8(len(s.Layers)))
	_ = w.Int8(s.Index)
	for i, l := range s.Layers {
		if err := l.Encode(w, writeBlock); err != nil {
			return nil, fmt.Errorf("encode layer %d: %w", i, err)
		}
	}
	return w.Bytes(), nil
}
