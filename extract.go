package bedrockdb

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/cqdetdev/bedrockdb/chunk"
	"github.com/cqdetdev/bedrockdb/dbkey"
	"github.com/df-mc/dragonfly/server/world"
)

// StringKeys returns the named global keys present in the world, except
// those listed in exclude, in the order of dbkey.NamedGlobals.
func (db *DB) StringKeys(exclude ...string) ([]dbkey.NamedGlobal, error) {
	if err := db.readable(); err != nil {
		return nil, err
	}
	var keys []dbkey.NamedGlobal
	for _, name := range dbkey.NamedGlobals {
		if slices.Contains(exclude, name) {
			continue
		}
		k := dbkey.NamedGlobal{Name: name}
		ok, err := db.store.Has(k.Bytes())
		if err != nil {
			return nil, fmt.Errorf("string keys: %w", err)
		}
		if ok {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// ChunkKeys returns the keys of every record of the chunk at pos in key
// order.
func (db *DB) ChunkKeys(pos world.ChunkPos, dim world.Dimension) ([]dbkey.SubChunk, error) {
	if err := db.readable(); err != nil {
		return nil, err
	}
	d := DimensionOf(dim)
	it := db.store.NewIterator(dbkey.ChunkPrefix(pos[0], pos[1], d))
	defer it.Release()

	var keys []dbkey.SubChunk
	for it.Next() {
		// Overworld prefixes are also prefixes of other dimensions' keys.
		k, ok := dbkey.Decode(it.Key()).(dbkey.SubChunk)
		if ok && k.Dimension == d && k.X == pos[0] && k.Z == pos[1] {
			keys = append(keys, k)
		}
	}
	if err := it.Error(); err != nil {
		return nil, fmt.Errorf("chunk keys: %w", err)
	}
	return keys, nil
}

// ActorKeys returns the digest pointer key of the chunk at pos followed by
// the keys of the actor records it lists that exist. It returns nil when the
// chunk has no valid digest pointer.
func (db *DB) ActorKeys(pos world.ChunkPos, dim world.Dimension) ([]dbkey.Key, error) {
	pointer := dbkey.DigestPointer{X: pos[0], Z: pos[1], Dimension: DimensionOf(dim)}
	v, err := db.Record(pointer)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	ids, err := chunk.DecodeDigest(v)
	if err != nil || len(ids) == 0 {
		return nil, nil
	}
	keys := []dbkey.Key{pointer}
	for _, id := range ids {
		k := dbkey.ActorDigest{ID: id}
		ok, err := db.store.Has(k.Bytes())
		if err != nil {
			return nil, fmt.Errorf("actor keys: %w", err)
		}
		if ok {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// PrefixedKeys returns every key starting with prefix in key order.
func (db *DB) PrefixedKeys(prefix []byte) ([][]byte, error) {
	if err := db.readable(); err != nil {
		return nil, err
	}
	it := db.store.NewIterator(prefix)
	defer it.Release()

	var keys [][]byte
	for it.Next() {
		keys = append(keys, bytes.Clone(it.Key()))
	}
	if err := it.Error(); err != nil {
		return nil, fmt.Errorf("prefixed keys: %w", err)
	}
	return keys, nil
}
