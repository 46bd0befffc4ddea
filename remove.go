package bedrockdb

import (
	"context"
	"fmt"

	"github.com/cqdetdev/bedrockdb/chunk"
	"github.com/cqdetdev/bedrockdb/dbkey"
	"github.com/cqdetdev/bedrockdb/store"
	"github.com/df-mc/dragonfly/server/world"
)

// DeleteChunks deletes every chunk of a dimension: all of its chunk records,
// its digest pointers and the actor records they list. It returns the
// number of keys deleted.
//
// The store is scanned with a single iterator over a snapshot, so chunks
// written during the call may survive. Deletes are written in batches of
// about Options.BatchThreshold bytes and ctx is checked once per scanned
// key. On cancellation the batches already written stay deleted.
func (db *DB) DeleteChunks(ctx context.Context, dim world.Dimension) (int, error) {
	return db.deleteChunks(ctx, "all", DimensionOf(dim), func(int32, int32) bool { return true })
}

// DeleteChunksWithin deletes the chunks of a dimension inside the rectangle
// spanned by corners a and b, both inclusive, in the manner of DeleteChunks.
func (db *DB) DeleteChunksWithin(ctx context.Context, dim world.Dimension, a, b world.ChunkPos) (int, error) {
	lo, hi := corners(a, b)
	return db.deleteChunks(ctx, "within", DimensionOf(dim), func(x, z int32) bool {
		return inArea(world.ChunkPos{x, z}, lo, hi)
	})
}

// DeleteChunksOutside deletes the chunks of a dimension outside the
// rectangle spanned by corners a and b, both inclusive, in the manner of
// DeleteChunks.
func (db *DB) DeleteChunksOutside(ctx context.Context, dim world.Dimension, a, b world.ChunkPos) (int, error) {
	lo, hi := corners(a, b)
	return db.deleteChunks(ctx, "outside", DimensionOf(dim), func(x, z int32) bool {
		return !inArea(world.ChunkPos{x, z}, lo, hi)
	})
}

// corners returns the inclusive lower corner and the exclusive upper corner
// of the rectangle spanned by a and b.
func corners(a, b world.ChunkPos) (lo, hi world.ChunkPos) {
	lo = world.ChunkPos{min(a[0], b[0]), min(a[1], b[1])}
	hi = world.ChunkPos{max(a[0], b[0]) + 1, max(a[1], b[1]) + 1}
	return lo, hi
}

func (db *DB) deleteChunks(ctx context.Context, mode string, dim dbkey.Dimension, match func(x, z int32) bool) (deleted int, err error) {
	if err := db.writable(); err != nil {
		return 0, err
	}
	defer db.cache.invalidateIf(func(key chunkKey) bool {
		return key.dim == dim && match(key.pos[0], key.pos[1])
	})

	var (
		batch   store.Batch
		pending int
		flushes int
	)
	flush := func() error {
		if batch.Len() == 0 {
			return nil
		}
		if err := db.store.Write(&batch); err != nil {
			return fmt.Errorf("delete chunks: write batch: %w", err)
		}
		deleted += pending
		pending = 0
		flushes++
		batch.Reset()
		return nil
	}

	it := db.store.NewIterator(nil)
	defer it.Release()
	for it.Next() {
		if err := ctx.Err(); err != nil {
			return deleted, err
		}
		switch k := dbkey.Decode(it.Key()).(type) {
		case dbkey.SubChunk:
			if k.Dimension == dim && match(k.X, k.Z) {
				batch.Delete(it.Key())
				pending++
			}
		case dbkey.DigestPointer:
			if k.Dimension != dim || !match(k.X, k.Z) {
				continue
			}
			batch.Delete(it.Key())
			pending++
			ids, err := chunk.DecodeDigest(it.Value())
			if err != nil {
				db.log().Debug("delete chunks: skip actors of digest", "key", dbkey.String(k), "err", err)
				continue
			}
			for _, id := range ids {
				batch.Delete(dbkey.ActorDigest{ID: id}.Bytes())
				pending++
			}
		}
		if batch.Size() > db.conf.Options.BatchThreshold {
			if err := flush(); err != nil {
				return deleted, err
			}
		}
	}
	if err := it.Error(); err != nil {
		return deleted, fmt.Errorf("delete chunks: scan: %w", err)
	}
	if err := flush(); err != nil {
		return deleted, err
	}
	if err := db.store.CompactRange(nil, nil); err != nil {
		return deleted, fmt.Errorf("delete chunks: compact: %w", err)
	}
	db.log().Info("deleted chunks", "mode", mode, "dimension", dim, "records", deleted, "batches", flushes)
	return deleted, nil
}
