package bedrockdb_test

import (
	"context"
	"testing"

	"github.com/cqdetdev/bedrockdb"
	"github.com/cqdetdev/bedrockdb/chunk"
	"github.com/cqdetdev/bedrockdb/dbkey"
	"github.com/cqdetdev/bedrockdb/nbt"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/stretchr/testify/require"
)

// storeActors writes a digest pointer for the chunk at pos listing ids and
// an actor record for each id.
func storeActors(t testing.TB, db *bedrockdb.DB, pos world.ChunkPos, dim world.Dimension, ids ...[8]byte) {
	t.Helper()
	d := bedrockdb.DimensionOf(dim)
	require.NoError(t, db.PutRecord(dbkey.DigestPointer{X: pos[0], Z: pos[1], Dimension: d}, chunk.EncodeDigest(ids)))
	for _, id := range ids {
		require.NoError(t, db.PutTag(dbkey.ActorDigest{ID: id}, nbt.MustCompound("", nbt.NewString("identifier", "minecraft:cow"))))
	}
}

func storeGrid(t testing.TB, db *bedrockdb.DB, r int32, dim world.Dimension) {
	t.Helper()
	for x := -r; x <= r; x++ {
		for z := -r; z <= r; z++ {
			storeChunk(t, db, world.ChunkPos{x, z}, dim)
		}
	}
}

func countChunks(t *testing.T, db *bedrockdb.DB, dim world.Dimension) int {
	t.Helper()
	iter := db.NewChunkIterator(&bedrockdb.IteratorRange{Dimension: dim})
	defer iter.Release()
	require.NoError(t, iter.Error())
	return iter.Len()
}

func TestDeleteChunks(t *testing.T) {
	db := openMem(t, nil)
	storeChunk(t, db, world.ChunkPos{0, 0}, world.Overworld, 0)
	storeActors(t, db, world.ChunkPos{0, 0}, world.Overworld, [8]byte{1}, [8]byte{2})
	storeChunk(t, db, world.ChunkPos{1, 1}, world.Overworld)
	storeChunk(t, db, world.ChunkPos{0, 0}, world.Nether, 0)
	storeActors(t, db, world.ChunkPos{0, 0}, world.Nether, [8]byte{3})
	require.NoError(t, db.PutRecord(dbkey.NamedGlobal{Name: dbkey.Portals}, []byte{0}))

	_, err := db.LoadChunk(world.ChunkPos{0, 0}, world.Overworld)
	require.NoError(t, err)

	n, err := db.DeleteChunks(context.Background(), world.Overworld)
	require.NoError(t, err)
	// Version and sub-chunk, digest pointer and two actors, one version.
	require.Equal(t, 6, n)

	_, err = db.LoadChunk(world.ChunkPos{0, 0}, world.Overworld)
	require.ErrorIs(t, err, bedrockdb.ErrNotFound)
	require.Zero(t, countChunks(t, db, world.Overworld))
	_, err = db.Record(dbkey.ActorDigest{ID: [8]byte{1}})
	require.ErrorIs(t, err, bedrockdb.ErrNotFound)

	require.Equal(t, 1, countChunks(t, db, world.Nether))
	_, err = db.Record(dbkey.ActorDigest{ID: [8]byte{3}})
	require.NoError(t, err)
	_, err = db.Record(dbkey.NamedGlobal{Name: dbkey.Portals})
	require.NoError(t, err)
}

func TestDeleteChunksWithin(t *testing.T) {
	o := testOptions()
	o.BatchThreshold = 1
	db := openMem(t, o)
	storeGrid(t, db, 2, world.Overworld)

	// Corners in any order, both inclusive.
	n, err := db.DeleteChunksWithin(context.Background(), world.Overworld, world.ChunkPos{1, 1}, world.ChunkPos{-1, -1})
	require.NoError(t, err)
	require.Equal(t, 9, n)
	require.Equal(t, 16, countChunks(t, db, world.Overworld))

	ok, err := db.HasChunk(world.ChunkPos{1, -1}, world.Overworld)
	require.NoError(t, err)
	require.False(t, ok)
	ok, err = db.HasChunk(world.ChunkPos{2, -1}, world.Overworld)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestDeleteChunksOutside(t *testing.T) {
	db := openMem(t, nil)
	storeGrid(t, db, 2, world.Overworld)
	storeGrid(t, db, 1, world.End)

	n, err := db.DeleteChunksOutside(context.Background(), world.Overworld, world.ChunkPos{0, 0}, world.ChunkPos{0, 0})
	require.NoError(t, err)
	require.Equal(t, 24, n)
	require.Equal(t, 1, countChunks(t, db, world.Overworld))
	require.Equal(t, 9, countChunks(t, db, world.End))

	ok, err := db.HasChunk(world.ChunkPos{0, 0}, world.Overworld)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestDeleteChunksCancelled(t *testing.T) {
	db := openMem(t, nil)
	storeGrid(t, db, 1, world.Overworld)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n, err := db.DeleteChunks(ctx, world.Overworld)
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, n)
	require.Equal(t, 9, countChunks(t, db, world.Overworld))
}

func TestDeleteChunksReadOnly(t *testing.T) {
	db := openMem(t, bedrockdb.ReadOnlyOptions())
	_, err := db.DeleteChunks(context.Background(), world.Overworld)
	require.ErrorIs(t, err, bedrockdb.ErrReadOnly)
}
