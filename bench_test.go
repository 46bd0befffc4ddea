package bedrockdb_test

import (
	"context"
	"testing"

	"github.com/cqdetdev/bedrockdb"
	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/df-mc/dragonfly/server/world"
	dfchunk "github.com/df-mc/dragonfly/server/world/chunk"
	"github.com/df-mc/dragonfly/server/world/mcdb"
	"github.com/stretchr/testify/require"
)

// createTestColumn creates a simple test chunk column.
func createTestColumn(r cube.Range) *dfchunk.Column {
	c := dfchunk.New(0, r)
	return &dfchunk.Column{Chunk: c}
}

// writeMCDBWorld writes n chunks in rows of 10 to a new world in dir through
// dragonfly's provider.
func writeMCDBWorld(tb testing.TB, dir string, n int) {
	tb.Helper()
	db, err := mcdb.Open(dir)
	require.NoError(tb, err)
	for i := range n {
		pos := world.ChunkPos{int32(i % 10), int32(i / 10)}
		require.NoError(tb, db.StoreColumn(pos, world.Overworld, createTestColumn(world.Overworld.Range())))
	}
	require.NoError(tb, db.Close())
}

func openWorld(tb testing.TB, dir string, o *bedrockdb.Options) *bedrockdb.DB {
	tb.Helper()
	db, err := bedrockdb.Config{Options: o}.Open(dir)
	require.NoError(tb, err)
	tb.Cleanup(func() { _ = db.Close() })
	return db
}

func TestReadMCDBWorld(t *testing.T) {
	dir := t.TempDir()
	writeMCDBWorld(t, dir, 20)

	db := openWorld(t, dir, bedrockdb.ReadOnlyOptions())
	iter := db.NewChunkIterator(&bedrockdb.IteratorRange{Dimension: world.Overworld})
	defer iter.Release()
	require.Equal(t, 20, iter.Len())
	for iter.Next() {
		c := iter.Chunk()
		require.NotZero(t, c.Version)
	}
	require.NoError(t, iter.Error())

	s, err := db.Settings()
	require.NoError(t, err)
	require.NotEmpty(t, s.Name)
}

// BenchmarkLoadChunk benchmarks chunk loading with the cache disabled.
func BenchmarkLoadChunk(b *testing.B) {
	dir := b.TempDir()
	writeMCDBWorld(b, dir, 100)
	o := bedrockdb.ReadOnlyOptions()
	o.CacheSize = 0
	db := openWorld(b, dir, o)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		pos := world.ChunkPos{int32(i % 10), int32(i / 10 % 10)}
		_, _ = db.LoadChunk(pos, world.Overworld)
	}
}

// BenchmarkLoadChunkCached benchmarks chunk loading served from the cache.
func BenchmarkLoadChunkCached(b *testing.B) {
	dir := b.TempDir()
	writeMCDBWorld(b, dir, 100)
	db := openWorld(b, dir, bedrockdb.ReadOnlyOptions())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		pos := world.ChunkPos{int32(i % 10), int32(i / 10 % 10)}
		_, _ = db.LoadChunk(pos, world.Overworld)
	}
}

// BenchmarkLevelDBLoad benchmarks chunk loading through dragonfly's provider.
func BenchmarkLevelDBLoad(b *testing.B) {
	dir := b.TempDir()
	writeMCDBWorld(b, dir, 100)
	db, err := mcdb.Open(dir)
	require.NoError(b, err)
	defer db.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		pos := world.ChunkPos{int32(i % 10), int32(i / 10 % 10)}
		_, _ = db.LoadColumn(pos, world.Overworld)
	}
}

// BenchmarkLoadArea benchmarks parallel area loading.
func BenchmarkLoadArea(b *testing.B) {
	dir := b.TempDir()
	writeMCDBWorld(b, dir, 400)
	o := bedrockdb.ReadOnlyOptions()
	o.CacheSize = 0
	db := openWorld(b, dir, o)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		// 11x11 area.
		_, _ = db.LoadArea(world.ChunkPos{5, 20}, 5, world.Overworld)
	}
}

// BenchmarkChunkIterator benchmarks a full scan of a world.
func BenchmarkChunkIterator(b *testing.B) {
	dir := b.TempDir()
	writeMCDBWorld(b, dir, 400)
	o := bedrockdb.BulkOptions()
	o.ReadOnly = true
	db := openWorld(b, dir, o)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		iter := db.NewChunkIterator(nil)
		for iter.Next() {
		}
		iter.Release()
	}
}

// BenchmarkDeleteChunks benchmarks deleting every chunk of a world.
func BenchmarkDeleteChunks(b *testing.B) {
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		dir := b.TempDir()
		writeMCDBWorld(b, dir, 100)
		db, err := bedrockdb.Config{Options: bedrockdb.BulkOptions()}.Open(dir)
		require.NoError(b, err)
		b.StartTimer()

		_, err = db.DeleteChunks(context.Background(), world.Overworld)
		require.NoError(b, err)
		require.NoError(b, db.Close())
	}
}
