package bedrockdb

import (
	"math"
	"testing"

	"github.com/cqdetdev/bedrockdb/chunk"
	"github.com/cqdetdev/bedrockdb/dbkey"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/stretchr/testify/require"
)

func TestMortonRoundTrip(t *testing.T) {
	for _, p := range [][2]int32{
		{0, 0}, {1, -1}, {-1, 1}, {123, -4567},
		{math.MaxInt32, math.MinInt32}, {math.MinInt32, math.MaxInt32},
	} {
		x, z := mortonDecode(mortonEncode(p[0], p[1]))
		require.Equal(t, p, [2]int32{x, z})
	}
}

func TestMortonOrderAcrossZero(t *testing.T) {
	// Within one axis the code grows with the coordinate.
	prev := mortonEncode(-3, 0)
	for x := int32(-2); x <= 3; x++ {
		code := mortonEncode(x, 0)
		require.Greater(t, code, prev, "x=%d", x)
		prev = code
	}
	require.Less(t, mortonEncode(0, 0), mortonEncode(0, 1))
	require.Less(t, mortonEncode(-1, -1), mortonEncode(0, 0))
}

func TestChunkCacheEviction(t *testing.T) {
	c := chunk.NewSubChunk(0)
	one := &chunk.Chunk{SubChunks: map[int8]*chunk.SubChunk{0: c}}
	size := chunkSize(one)

	// Room for two chunks per shard.
	cache := newChunkCache(2 * size * cacheShardCount)
	var keys []chunkKey
	for x := int32(0); len(keys) < 3; x++ {
		key := chunkKey{pos: world.ChunkPos{x, 0}}
		if cache.shard(key) == cache.shard(chunkKey{}) {
			keys = append(keys, key)
		}
	}
	gen := cache.generation(keys[0])
	cache.put(keys[0], one, gen)
	cache.put(keys[1], one, gen)
	require.NotNil(t, cache.get(keys[0]))
	cache.put(keys[2], one, gen)

	// keys[1] was least recently used.
	require.Nil(t, cache.get(keys[1]))
	require.NotNil(t, cache.get(keys[0]))
	require.NotNil(t, cache.get(keys[2]))
	require.Equal(t, 2, cache.len())
	require.Equal(t, 2*size, cache.currentSize())

	cache.invalidate(keys[0])
	require.Nil(t, cache.get(keys[0]))
	cache.invalidateIf(func(chunkKey) bool { return true })
	require.Zero(t, cache.len())
	require.Zero(t, cache.currentSize())
}

func TestChunkCacheOversized(t *testing.T) {
	cache := newChunkCache(0)
	cache.put(chunkKey{dim: dbkey.Nether}, &chunk.Chunk{}, 0)
	require.Nil(t, cache.get(chunkKey{dim: dbkey.Nether}))
	require.Equal(t, int64(1), cache.stats().ChunkLoads)
	require.Equal(t, int64(1), cache.stats().CacheMisses)
}

func TestChunkCacheStaleLoad(t *testing.T) {
	cache := newChunkCache(1 << 20 * cacheShardCount)
	key := chunkKey{pos: world.ChunkPos{4, 2}}

	// A load racing an invalidation of its own key is not cached.
	gen := cache.generation(key)
	cache.invalidate(key)
	cache.put(key, &chunk.Chunk{}, gen)
	require.Nil(t, cache.get(key))

	// Nor is one racing a bulk invalidation.
	gen = cache.generation(key)
	cache.invalidateIf(func(chunkKey) bool { return false })
	cache.put(key, &chunk.Chunk{}, gen)
	require.Nil(t, cache.get(key))

	cache.put(key, &chunk.Chunk{}, cache.generation(key))
	require.NotNil(t, cache.get(key))
}

func TestCorners(t *testing.T) {
	lo, hi := corners(world.ChunkPos{3, -1}, world.ChunkPos{-2, 4})
	require.Equal(t, world.ChunkPos{-2, -1}, lo)
	require.Equal(t, world.ChunkPos{4, 5}, hi)
	require.True(t, inArea(world.ChunkPos{3, 4}, lo, hi))
	require.False(t, inArea(world.ChunkPos{4, 4}, lo, hi))
}

func TestPredictNext(t *testing.T) {
	require.Empty(t, predictNext(world.ChunkPos{}, [2]int32{}))
	require.Equal(t, []world.ChunkPos{{1, 0}, {2, 0}, {3, 0}}, predictNext(world.ChunkPos{}, [2]int32{5, 0}))
	require.Equal(t, []world.ChunkPos{
		{-1, 1}, {-2, 2}, {-3, 3},
		{-2, 1}, {-1, 2},
	}, predictNext(world.ChunkPos{}, [2]int32{-1, 1}))
}
