package bedrockdb

import (
	"cmp"
	"slices"

	"github.com/cqdetdev/bedrockdb/dbkey"
	"github.com/cqdetdev/bedrockdb/store"
	"github.com/df-mc/dragonfly/server/world"
)

// mortonEncode encodes 2D chunk coordinates into a Z-order (Morton) code,
// so that chunks close to each other get close codes.
//
// The sign bit of each coordinate is flipped first, which keeps the order
// continuous across zero. The bits of x and z are then interleaved:
//
//	x: bits at even positions 0, 2, 4, ...
//	z: bits at odd positions 1, 3, 5, ...
func mortonEncode(x, z int32) uint64 {
	return spread(uint32(x)^1<<31) | spread(uint32(z)^1<<31)<<1
}

// mortonDecode decodes a Morton code back to x and z coordinates.
func mortonDecode(code uint64) (x, z int32) {
	return int32(compact(code) ^ 1<<31), int32(compact(code>>1) ^ 1<<31)
}

// spread moves the bits of v to the even bit positions.
func spread(v uint32) uint64 {
	u := uint64(v)
	u = (u | (u << 16)) & 0x0000FFFF0000FFFF
	u = (u | (u << 8)) & 0x00FF00FF00FF00FF
	u = (u | (u << 4)) & 0x0F0F0F0F0F0F0F0F
	u = (u | (u << 2)) & 0x3333333333333333
	u = (u | (u << 1)) & 0x5555555555555555
	return u
}

// compact is the inverse of spread.
func compact(u uint64) uint32 {
	u &= 0x5555555555555555
	u = (u | (u >> 1)) & 0x3333333333333333
	u = (u | (u >> 2)) & 0x0F0F0F0F0F0F0F0F
	u = (u | (u >> 4)) & 0x00FF00FF00FF00FF
	u = (u | (u >> 8)) & 0x0000FFFF0000FFFF
	u = (u | (u >> 16)) & 0x00000000FFFFFFFF
	return uint32(u)
}

// positionIndex is the set of chunk positions found in a store, ordered by
// dimension and then by Morton code.
type positionIndex struct {
	keys []chunkKey
}

// scanPositions collects the positions of every chunk holding a version
// record that r admits. The scan reads one store snapshot.
func scanPositions(s store.Store, r *IteratorRange) (*positionIndex, error) {
	it := s.NewIterator(nil)
	defer it.Release()

	seen := map[chunkKey]struct{}{}
	for it.Next() {
		k, ok := dbkey.Decode(it.Key()).(dbkey.SubChunk)
		if !ok || k.Type != dbkey.Version && k.Type != dbkey.LegacyVersion {
			continue
		}
		key := chunkKey{pos: world.ChunkPos{k.X, k.Z}, dim: k.Dimension}
		if r.within(key.pos, key.dim) {
			seen[key] = struct{}{}
		}
	}
	if err := it.Error(); err != nil {
		return nil, err
	}
	idx := &positionIndex{keys: make([]chunkKey, 0, len(seen))}
	for key := range seen {
		idx.keys = append(idx.keys, key)
	}
	slices.SortFunc(idx.keys, func(a, b chunkKey) int {
		return cmp.Or(
			cmp.Compare(a.dim, b.dim),
			cmp.Compare(mortonEncode(a.pos[0], a.pos[1]), mortonEncode(b.pos[0], b.pos[1])),
		)
	})
	return idx, nil
}

// count returns the number of positions in the index.
func (idx *positionIndex) count() int {
	return len(idx.keys)
}

// iterate calls fn for each position in order until fn returns false.
func (idx *positionIndex) iterate(fn func(key chunkKey) bool) {
	for _, key := range idx.keys {
		if !fn(key) {
			return
		}
	}
}
