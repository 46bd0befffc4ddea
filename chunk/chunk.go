// Package chunk decodes the records of a Bedrock chunk into a queryable
// column: palette-indexed sub-chunks, biomes, block entities, entities and
// pending ticks.
package chunk

import (
	"maps"
	"slices"

	"github.com/cqdetdev/bedrockdb/dbkey"
	"github.com/cqdetdev/bedrockdb/nbt"
	"github.com/df-mc/dragonfly/server/block/cube"
)

// Chunk is a 16x16 full-height column assembled from the records of one
// chunk position. It owns every decoded value it holds.
type Chunk struct {
	X, Z      int32
	Dimension dbkey.Dimension
	// Version is the value of the chunk version record.
	Version uint8
	// MinIndex is the lowest vertical index of the chunk: the dimension's
	// lowest index when any sub-chunk lies below zero, otherwise 0.
	MinIndex  int8
	SubChunks map[int8]*SubChunk
	// BlockEntities is keyed by world block position.
	BlockEntities map[cube.Pos]*nbt.Tag
	Entities      []*nbt.Tag
	Biomes        *BiomeColumn
	PendingTicks  *PendingTicks
}

func newChunk(x, z int32, dim dbkey.Dimension) *Chunk {
	return &Chunk{
		X:             x,
		Z:             z,
		Dimension:     dim,
		SubChunks:     map[int8]*SubChunk{},
		BlockEntities: map[cube.Pos]*nbt.Tag{},
	}
}

// Range returns the block height range of the chunk's dimension.
func (c *Chunk) Range() cube.Range {
	return c.Dimension.Range()
}

func (c *Chunk) inRange(y int) bool {
	r := c.Range()
	return y >= r.Min() && y <= r.Max()
}

// SubChunk returns the sub-chunk at vertical index y, or nil.
func (c *Chunk) SubChunk(y int8) *SubChunk {
	return c.SubChunks[y]
}

// Indices returns the vertical indices of the present sub-chunks in
// ascending order.
func (c *Chunk) Indices() []int8 {
	return slices.Sorted(maps.Keys(c.SubChunks))
}

// Block returns the terrain block at x, z in [0, 16) and block height y.
// It reports false where no sub-chunk is stored.
func (c *Chunk) Block(x, y, z int) (Block, bool) {
	return c.BlockLayer(x, y, z, TerrainLayer)
}

// BlockLayer is like Block but reads the given layer.
func (c *Chunk) BlockLayer(x, y, z, layer int) (Block, bool) {
	if !c.inRange(y) {
		return Block{}, false
	}
	s := c.SubChunks[int8(y>>4)]
	if s == nil {
		return Block{}, false
	}
	return s.Block(x, y, z, layer)
}

// Biome returns the biome id at x, z in [0, 16) and block height y.
func (c *Chunk) Biome(x, y, z int) (int32, bool) {
	if c.Biomes == nil || !c.inRange(y) {
		return 0, false
	}
	return c.Biomes.Biome(x, y, z)
}

// HighestBlock returns the height of the highest non-air terrain block in
// column x, z.
func (c *Chunk) HighestBlock(x, z int) (int, bool) {
	idx := c.Indices()
	for i := len(idx) - 1; i >= 0; i-- {
		s := c.SubChunks[idx[i]]
		if s.Empty() {
			continue
		}
		for y := 15; y >= 0; y-- {
			if b, ok := s.Block(x, y, z, TerrainLayer); ok && !b.IsAir() {
				return int(idx[i])*16 + y, true
			}
		}
	}
	return 0, false
}

// BlockEntity returns the block entity at world position pos.
func (c *Chunk) BlockEntity(pos cube.Pos) (*nbt.Tag, bool) {
	t, ok := c.BlockEntities[pos]
	return t, ok
}
