package bedrockdb

import (
	"github.com/cqdetdev/bedrockdb/chunk"
	"github.com/cqdetdev/bedrockdb/dbkey"
	"github.com/df-mc/dragonfly/server/world"
)

// ChunkIterator iterates over the chunks of a DB in Morton order within each
// dimension. Chunks are loaded lazily by Next.
//
// The positions are collected from a snapshot of the store when the
// iterator is created. Chunks written afterwards are not visited, and a
// chunk deleted afterwards ends iteration with an error matching
// ErrNotFound.
//
// When an error is encountered, any call to Next will return false and will
// yield no chunks. The error can be queried by calling the Error method.
// Calling Release is still necessary.
type ChunkIterator struct {
	db      *DB
	err     error
	keys    []chunkKey
	current int
	c       *chunk.Chunk
	pos     world.ChunkPos
	dim     dbkey.Dimension
}

// newChunkIterator creates a new chunk iterator.
func newChunkIterator(db *DB, r *IteratorRange) *ChunkIterator {
	iter := &ChunkIterator{db: db, current: -1}
	idx, err := scanPositions(db.store, r)
	if err != nil {
		iter.err = err
		return iter
	}
	iter.keys = make([]chunkKey, 0, idx.count())
	idx.iterate(func(key chunkKey) bool {
		iter.keys = append(iter.keys, key)
		return true
	})
	return iter
}

// Next moves the iterator to the next chunk.
// It returns false if the iterator is exhausted.
func (iter *ChunkIterator) Next() bool {
	if iter.err != nil {
		return false
	}

	iter.current++
	if iter.current >= len(iter.keys) {
		iter.c = nil
		return false
	}

	key := iter.keys[iter.current]
	iter.pos, iter.dim = key.pos, key.dim

	var err error
	iter.c, err = iter.db.loadChunk(key)
	if err != nil {
		iter.err = err
		return false
	}
	return true
}

// Chunk returns the current chunk, or nil if none.
func (iter *ChunkIterator) Chunk() *chunk.Chunk {
	return iter.c
}

// Position returns the position of the current chunk.
func (iter *ChunkIterator) Position() world.ChunkPos {
	return iter.pos
}

// Dimension returns the dimension of the current chunk.
func (iter *ChunkIterator) Dimension() dbkey.Dimension {
	return iter.dim
}

// Len returns the number of chunks the iterator visits.
func (iter *ChunkIterator) Len() int {
	return len(iter.keys)
}

// Release releases resources associated with the iterator.
func (iter *ChunkIterator) Release() {
	iter.keys = nil
	iter.c = nil
}

// Error returns any accumulated error.
func (iter *ChunkIterator) Error() error {
	return iter.err
}

// IteratorRange limits what chunks are returned by a ChunkIterator.
type IteratorRange struct {
	// Min and Max limit what chunk positions are returned. Min is inclusive
	// and Max exclusive. A zero value for both causes all positions to be
	// within range.
	Min, Max world.ChunkPos
	// Dimension specifies what dimension chunks should be from.
	// If nil, all dimensions are included.
	Dimension world.Dimension
}

// within checks if a position and dimension is within the IteratorRange.
// A nil range admits everything.
func (r *IteratorRange) within(pos world.ChunkPos, dim dbkey.Dimension) bool {
	if r == nil {
		return true
	}
	if r.Dimension != nil && DimensionOf(r.Dimension) != dim {
		return false
	}
	return ((r.Min == world.ChunkPos{}) && (r.Max == world.ChunkPos{})) ||
		inArea(pos, r.Min, r.Max)
}

// inArea reports whether pos lies in [lo, hi).
func inArea(pos, lo, hi world.ChunkPos) bool {
	return pos[0] >= lo[0] && pos[0] < hi[0] && pos[1] >= lo[1] && pos[1] < hi[1]
}
