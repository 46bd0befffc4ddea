package chunk

import (
	"errors"
	"fmt"

	"github.com/cqdetdev/bedrockdb/palette"
	"github.com/cqdetdev/bedrockdb/stream"
)

const (
	heightmapSize    = 256 * 2
	legacyBiomesSize = heightmapSize + 256
)

// biomeEnd is a section header that ends the section list.
const biomeEnd = 0xFF

// BiomeColumn holds the heightmap and the biome ids of a chunk.
type BiomeColumn struct {
	// Heightmap holds the height of the highest block of each column,
	// indexed z*16+x.
	Heightmap [256]int16
	// MinIndex is the vertical index of Sections[0].
	MinIndex int8
	// Sections holds one section per vertical index from MinIndex up. A
	// nil entry is a section that failed to decode.
	Sections []*palette.Section[int32]
	// Legacy is set for columns read from the flat 2D record, which holds
	// one biome per x, z column.
	Legacy bool
}

// Section returns the section at vertical index y, or nil.
func (c *BiomeColumn) Section(y int8) *palette.Section[int32] {
	i := int(y) - int(c.MinIndex)
	if i < 0 || i >= len(c.Sections) {
		return nil
	}
	return c.Sections[i]
}

// Biome returns the biome id at x, z in [0, 16) and block height y.
func (c *BiomeColumn) Biome(x, y, z int) (int32, bool) {
	if y>>4 < -128 || y>>4 > 127 {
		return 0, false
	}
	s := c.Section(int8(y >> 4))
	if s == nil {
		return 0, false
	}
	return s.At(x&15, y&15, z&15), true
}

// Height returns the heightmap entry of column x, z.
func (c *BiomeColumn) Height(x, z int) int16 {
	return c.Heightmap[(z&15)*16+x&15]
}

func readHeightmap(r *stream.Reader, c *BiomeColumn) error {
	for i := range c.Heightmap {
		v, err := r.Int16()
		if err != nil {
			return fmt.Errorf("read heightmap: %w", err)
		}
		c.Heightmap[i] = v
	}
	return nil
}

// DecodeBiomes3D decodes a 3D biome record: a 256-entry heightmap followed
// by biome sections starting at vertical index minIndex. Sections are read
// until a 0xFF header byte or the end of data. A section with an index
// outside its palette is recorded as nil and reading continues; any other
// malformed section ends the list. Only a short heightmap fails the record.
func DecodeBiomes3D(data []byte, minIndex int8) (*BiomeColumn, error) {
	r := stream.NewLittleEndianReader(data)
	c := &BiomeColumn{MinIndex: minIndex}
	if err := readHeightmap(r, c); err != nil {
		return nil, err
	}
	for r.Remaining() > 0 && len(c.Sections) < 256 {
		header, _ := r.Uint8()
		if header == biomeEnd {
			break
		}
		s, err := palette.DecodeBody(r, int(header>>1), palette.ReadInt32)
		if errors.Is(err, palette.ErrIndexOutOfRange) {
			c.Sections = append(c.Sections, nil)
			continue
		}
		if err != nil {
			break
		}
		s.Runtime = header&1 == 1
		c.Sections = append(c.Sections, s)
	}
	return c, nil
}

// DecodeBiomes2D decodes a flat 2D biome record: a 256-entry heightmap
// followed by one byte per column, indexed z*16+x. The column biomes are
// applied to every vertical index in [minIndex, maxIndex].
func DecodeBiomes2D(data []byte, minIndex, maxIndex int8) (*BiomeColumn, error) {
	if len(data) < legacyBiomesSize {
		return nil, fmt.Errorf("2D biomes of %d bytes: %w", len(data), stream.ErrEndOfStream)
	}
	r := stream.NewLittleEndianReader(data)
	c := &BiomeColumn{MinIndex: minIndex, Legacy: true}
	if err := readHeightmap(r, c); err != nil {
		return nil, err
	}
	ids := data[heightmapSize:legacyBiomesSize]

	var pal []int32
	lookup := map[byte]uint16{}
	indices := make([]uint16, palette.Size)
	for i := range indices {
		x, _, z := palette.Pos(i)
		id := ids[z*16+x]
		p, ok := lookup[id]
		if !ok {
			p = uint16(len(pal))
			lookup[id] = p
			pal = append(pal, int32(id))
		}
		indices[i] = p
	}
	s, err := palette.NewSection(pal, indices)
	if err != nil {
		return nil, err
	}
	for y := int(minIndex); y <= int(maxIndex); y++ {
		c.Sections = append(c.Sections, s)
	}
	return c, nil
}

// EncodeBiomes3D encodes c in the layout DecodeBiomes3D reads. Every
// section must be present.
func EncodeBiomes3D(c *BiomeColumn) ([]byte, error) {
	w := stream.NewLittleEndianWriter()
	for _, h := range c.Heightmap {
		_ = w.Int16(h)
	}
	for i, s := range c.Sections {
		if s == nil {
			return nil, fmt.Errorf("encode biomes: section %d absent: %w", int(c.MinIndex)+i, stream.ErrInvalidData)
		}
		if err := s.Encode(w, palette.WriteInt32); err != nil {
			return nil, fmt.Errorf("encode biome section %d: %w", int(c.MinIndex)+i, err)
		}
	}
	return w.Bytes(), nil
}
