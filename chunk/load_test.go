package chunk_test

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/cqdetdev/bedrockdb/chunk"
	"github.com/cqdetdev/bedrockdb/dbkey"
	"github.com/cqdetdev/bedrockdb/nbt"
	"github.com/cqdetdev/bedrockdb/palette"
	"github.com/cqdetdev/bedrockdb/store"
	"github.com/cqdetdev/bedrockdb/stream"
	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/stretchr/testify/require"
)

func openMem(t *testing.T) *store.LevelDB {
	t.Helper()
	db, err := store.OpenMem()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func put(t *testing.T, db store.Store, k dbkey.Key, v []byte) {
	t.Helper()
	require.NoError(t, db.Put(k.Bytes(), v))
}

func putSubChunk(t *testing.T, db store.Store, x, z int32, dim dbkey.Dimension, s *chunk.SubChunk) {
	t.Helper()
	data, err := chunk.EncodeSubChunk(s)
	require.NoError(t, err)
	put(t, db, dbkey.Terrain(x, z, dim, s.Index), data)
}

func entity(id string, pos ...int32) *nbt.Tag {
	e := nbt.MustCompound("", nbt.NewString("identifier", id))
	for i, name := range []string{"x", "y", "z"}[:len(pos)] {
		_ = e.Add(nbt.NewInt(name, pos[i]))
	}
	return e
}

func marshalAll(t *testing.T, tags ...*nbt.Tag) []byte {
	t.Helper()
	b, err := nbt.MarshalAll(tags...)
	require.NoError(t, err)
	return b
}

func TestLoadChunk(t *testing.T) {
	db := openMem(t)
	const x, z = 3, -7
	dim := dbkey.Overworld

	put(t, db, dbkey.ChunkRecord(x, z, dim, dbkey.Version), []byte{40})
	low := chunk.NewSubChunk(-4)
	low.Layers[0] = palette.Uniform(stone)
	putSubChunk(t, db, x, z, dim, low)
	putSubChunk(t, db, x, z, dim, chunk.NewSubChunk(2))
	put(t, db, dbkey.Terrain(x, z, dim, 5), []byte{9, 1, 4})

	put(t, db, dbkey.ChunkRecord(x, z, dim, dbkey.BlockEntity), marshalAll(t,
		entity("Chest", 50, -60, -110),
		entity("Sign", 51, 70, -111),
		entity("Broken"),
	))

	put(t, db, dbkey.ChunkRecord(x, z, dim, dbkey.Entity), marshalAll(t, entity("minecraft:cow")))
	ids := [][8]byte{{1}, {2}, {3}}
	put(t, db, dbkey.DigestPointer{X: x, Z: z, Dimension: dim}, chunk.EncodeDigest(ids))
	put(t, db, dbkey.ActorDigest{ID: ids[0]}, marshalAll(t, entity("minecraft:pig")))
	put(t, db, dbkey.ActorDigest{ID: ids[1]}, []byte{0x0A, 0xFF})

	ticks := &chunk.PendingTicks{CurrentTick: 99, Ticks: []chunk.PendingTick{
		{Pos: cube.Pos{48, 64, -112}, Time: 120, Block: water},
	}}
	put(t, db, dbkey.ChunkRecord(x, z, dim, dbkey.PendingTicks), marshal(t, ticks.Tag()))

	biomes := &chunk.BiomeColumn{MinIndex: -4}
	for range 24 {
		biomes.Sections = append(biomes.Sections, palette.Uniform[int32](1))
	}
	data, err := chunk.EncodeBiomes3D(biomes)
	require.NoError(t, err)
	put(t, db, dbkey.ChunkRecord(x, z, dim, dbkey.Data3D), data)

	var logs bytes.Buffer
	l := chunk.Loader{Source: db, Log: slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))}
	c, err := l.Load(x, z, dim)
	require.NoError(t, err)

	require.Equal(t, uint8(40), c.Version)
	require.Equal(t, int8(-4), c.MinIndex)
	require.Equal(t, []int8{-4, 2}, c.Indices())

	b, ok := c.Block(0, -64, 0)
	require.True(t, ok)
	require.True(t, b.Equal(stone))
	b, ok = c.Block(0, 40, 0)
	require.True(t, ok)
	require.True(t, b.IsAir())
	_, ok = c.Block(0, 80, 0)
	require.False(t, ok)
	h, ok := c.HighestBlock(0, 0)
	require.True(t, ok)
	require.Equal(t, -49, h)

	require.Len(t, c.BlockEntities, 2)
	be, ok := c.BlockEntity(cube.Pos{50, -60, -110})
	require.True(t, ok)
	id, _ := be.Get("identifier").Text()
	require.Equal(t, "Chest", id)

	var names []string
	for _, e := range c.Entities {
		n, _ := e.Get("identifier").Text()
		names = append(names, n)
	}
	require.Equal(t, []string{"minecraft:cow", "minecraft:pig"}, names)

	require.NotNil(t, c.PendingTicks)
	require.Equal(t, int32(99), c.PendingTicks.CurrentTick)
	require.Len(t, c.PendingTicks.Ticks, 1)
	require.Equal(t, cube.Pos{48, 64, -112}, c.PendingTicks.Ticks[0].Pos)
	require.True(t, c.PendingTicks.Ticks[0].Block.Equal(water))

	biome, ok := c.Biome(8, 300, 8)
	require.True(t, ok)
	require.Equal(t, int32(1), biome)

	require.Contains(t, logs.String(), "skip chunk record")
	require.Contains(t, logs.String(), "SubChunkPrefix")
}

func TestLoadVersionRecord(t *testing.T) {
	db := openMem(t)
	l := chunk.Loader{Source: db}

	_, err := l.Load(0, 0, dbkey.Nether)
	require.ErrorIs(t, err, store.ErrNotFound)

	put(t, db, dbkey.ChunkRecord(0, 0, dbkey.Nether, dbkey.LegacyVersion), []byte{7})
	v, err := l.Version(0, 0, dbkey.Nether)
	require.NoError(t, err)
	require.Equal(t, uint8(7), v)

	put(t, db, dbkey.ChunkRecord(0, 0, dbkey.Nether, dbkey.Version), []byte{40, 1})
	_, err = l.Load(0, 0, dbkey.Nether)
	require.ErrorIs(t, err, stream.ErrInvalidData)
}

func TestLoadNonNegativeMinIndex(t *testing.T) {
	db := openMem(t)
	put(t, db, dbkey.ChunkRecord(1, 1, dbkey.End, dbkey.Version), []byte{40})
	putSubChunk(t, db, 1, 1, dbkey.End, chunk.NewSubChunk(0))

	c, err := chunk.Loader{Source: db}.Load(1, 1, dbkey.End)
	require.NoError(t, err)
	require.Equal(t, int8(0), c.MinIndex)
	require.Equal(t, dbkey.End, c.Dimension)
	require.Nil(t, c.Biomes)
	require.Nil(t, c.PendingTicks)
	require.Empty(t, c.Entities)
}

func TestLoadReadOptions(t *testing.T) {
	db := openMem(t)
	put(t, db, dbkey.ChunkRecord(0, 0, dbkey.Overworld, dbkey.Version), []byte{40})
	putSubChunk(t, db, 0, 0, dbkey.Overworld, chunk.NewSubChunk(0))
	put(t, db, dbkey.ChunkRecord(0, 0, dbkey.Overworld, dbkey.Entity), marshalAll(t, entity("minecraft:cow")))

	c, err := chunk.Loader{Source: db, Options: chunk.ReadEntities}.Load(0, 0, dbkey.Overworld)
	require.NoError(t, err)
	require.Empty(t, c.SubChunks)
	require.Len(t, c.Entities, 1)

	c, err = chunk.Loader{Source: db, Options: chunk.ReadBlockAndBiome}.Load(0, 0, dbkey.Overworld)
	require.NoError(t, err)
	require.Len(t, c.SubChunks, 1)
	require.Empty(t, c.Entities)

	require.True(t, chunk.ReadAll.Has(chunk.ReadPendingTicks|chunk.ReadBlocks))
	require.False(t, chunk.ReadBlockAndBiome.Has(chunk.ReadEntities))
}

func TestLoadLegacyBiomes(t *testing.T) {
	db := openMem(t)
	put(t, db, dbkey.ChunkRecord(0, 0, dbkey.Overworld, dbkey.Version), []byte{40})
	data := heightmap()
	data = append(data, bytes.Repeat([]byte{21}, 256)...)
	put(t, db, dbkey.ChunkRecord(0, 0, dbkey.Overworld, dbkey.Data2D), data)

	c, err := chunk.Loader{Source: db, Options: chunk.ReadBiomes}.Load(0, 0, dbkey.Overworld)
	require.NoError(t, err)
	require.True(t, c.Biomes.Legacy)
	id, ok := c.Biome(15, -64, 15)
	require.True(t, ok)
	require.Equal(t, int32(21), id)
}

type failingGetter struct{ err error }

func (f failingGetter) Get([]byte) ([]byte, error) { return nil, f.err }

func TestLoadStoreError(t *testing.T) {
	_, err := chunk.Loader{Source: failingGetter{store.ErrClosed}}.Load(0, 0, dbkey.Overworld)
	require.ErrorIs(t, err, store.ErrClosed)

	boom := errors.New("boom")
	_, err = chunk.Loader{Source: failingGetter{boom}}.SubChunk(0, 0, dbkey.Overworld, 0)
	require.ErrorIs(t, err, boom)
}

func TestLoaderSubChunk(t *testing.T) {
	db := openMem(t)
	l := chunk.Loader{Source: db}
	_, err := l.SubChunk(0, 0, dbkey.Overworld, 1)
	require.ErrorIs(t, err, store.ErrNotFound)

	putSubChunk(t, db, 0, 0, dbkey.Overworld, chunk.NewSubChunk(1))
	s, err := l.SubChunk(0, 0, dbkey.Overworld, 1)
	require.NoError(t, err)
	require.True(t, s.Empty())
}

func TestDigest(t *testing.T) {
	ids := [][8]byte{{1, 2, 3, 4, 5, 6, 7, 8}, {9}}
	got, err := chunk.DecodeDigest(chunk.EncodeDigest(ids))
	require.NoError(t, err)
	require.Equal(t, ids, got)

	_, err = chunk.DecodeDigest(make([]byte, 9))
	require.ErrorIs(t, err, stream.ErrInvalidData)
}

func TestPendingTicksSkipInvalid(t *testing.T) {
	valid := nbt.MustCompound("",
		water.Tag(),
		nbt.NewLong("time", 5),
		nbt.NewInt("x", 1), nbt.NewInt("y", 2), nbt.NewInt("z", 3),
	)
	require.NoError(t, valid.Rename("", "blockState"))
	wrongTime := valid.Clone()
	require.NoError(t, wrongTime.Put(nbt.NewInt("time", 5)))

	root := nbt.MustCompound("",
		nbt.NewInt("currentTick", 10),
		nbt.MustList("tickList", nbt.TypeCompound, valid, wrongTime, nbt.MustCompound("")),
	)
	p, err := chunk.DecodePendingTicks(root)
	require.NoError(t, err)
	require.Equal(t, int32(10), p.CurrentTick)
	require.Len(t, p.Ticks, 1)
	require.Equal(t, cube.Pos{1, 2, 3}, p.Ticks[0].Pos)
	require.Equal(t, int64(5), p.Ticks[0].Time)

	_, err = chunk.DecodePendingTicks(nbt.NewInt("", 1))
	require.ErrorIs(t, err, stream.ErrInvalidData)
}
