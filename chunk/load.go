package chunk

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/cqdetdev/bedrockdb/dbkey"
	"github.com/cqdetdev/bedrockdb/nbt"
	"github.com/cqdetdev/bedrockdb/store"
	"github.com/cqdetdev/bedrockdb/stream"
	"github.com/df-mc/dragonfly/server/block/cube"
)

// ReadOptions selects the parts of a chunk that Load decodes.
type ReadOptions uint8

const (
	ReadBlocks ReadOptions = 1 << iota
	ReadBiomes
	ReadPendingTicks
	ReadBlockEntities
	ReadEntities

	ReadAll           = ReadBlocks | ReadBiomes | ReadPendingTicks | ReadBlockEntities | ReadEntities
	ReadBlockAndBiome = ReadBlocks | ReadBiomes
)

// Has reports whether o selects every part in f.
func (o ReadOptions) Has(f ReadOptions) bool {
	return o&f == f
}

// Loader assembles chunks from the records of a store.
type Loader struct {
	Source store.Getter
	// Options selects what Load decodes. The zero value reads everything.
	Options ReadOptions
	// Log receives a Debug line for every optional record that is skipped.
	// A nil Log discards.
	Log *slog.Logger
}

func (l Loader) options() ReadOptions {
	if l.Options == 0 {
		return ReadAll
	}
	return l.Options
}

func (l Loader) log() *slog.Logger {
	if l.Log == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l.Log
}

// get returns the value of k, or ok false when it is absent.
func (l Loader) get(k dbkey.Key) (v []byte, ok bool, err error) {
	v, err = l.Source.Get(k.Bytes())
	if errors.Is(err, store.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", dbkey.String(k), err)
	}
	return v, true, nil
}

func (l Loader) skip(k dbkey.Key, err error) {
	attrs := []any{"key", dbkey.String(k), "err", err}
	if sk, ok := k.(dbkey.SubChunk); ok {
		attrs = append(attrs, "type", sk.Type.String())
	}
	l.log().Debug("skip chunk record", attrs...)
}

// Version returns the version of the chunk at x, z. The current version
// record is read first, then the legacy one. A chunk without either fails
// with an error matching store.ErrNotFound and a malformed one with an
// error matching stream.ErrInvalidData.
func (l Loader) Version(x, z int32, dim dbkey.Dimension) (uint8, error) {
	for _, t := range [...]dbkey.RecordType{dbkey.Version, dbkey.LegacyVersion} {
		k := dbkey.ChunkRecord(x, z, dim, t)
		v, ok, err := l.get(k)
		if err != nil {
			return 0, err
		}
		if !ok {
			continue
		}
		if len(v) != 1 {
			return 0, fmt.Errorf("%s holds %d bytes: %w", dbkey.String(k), len(v), stream.ErrInvalidData)
		}
		return v[0], nil
	}
	return 0, fmt.Errorf("chunk %d %d in %v has no version: %w", x, z, dim, store.ErrNotFound)
}

// SubChunk reads the sub-chunk at vertical index y. An absent record fails
// with an error matching store.ErrNotFound.
func (l Loader) SubChunk(x, z int32, dim dbkey.Dimension, y int8) (*SubChunk, error) {
	k := dbkey.Terrain(x, z, dim, y)
	v, ok, err := l.get(k)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", dbkey.String(k), store.ErrNotFound)
	}
	return DecodeSubChunk(v, y)
}

// Load assembles the chunk at x, z. Only the version record is mandatory:
// absent optional records leave their part empty, and malformed ones are
// skipped and logged. Store failures other than a missing key are returned.
func (l Loader) Load(x, z int32, dim dbkey.Dimension) (*Chunk, error) {
	version, err := l.Version(x, z, dim)
	if err != nil {
		return nil, err
	}
	c := newChunk(x, z, dim)
	c.Version = version
	opts := l.options()

	if opts.Has(ReadBlocks) {
		if err := l.loadSubChunks(c); err != nil {
			return nil, err
		}
	}
	if opts.Has(ReadBiomes) {
		if err := l.loadBiomes(c); err != nil {
			return nil, err
		}
	}
	if opts.Has(ReadBlockEntities) {
		if err := l.loadBlockEntities(c); err != nil {
			return nil, err
		}
	}
	if opts.Has(ReadEntities) {
		if err := l.loadEntities(c); err != nil {
			return nil, err
		}
	}
	if opts.Has(ReadPendingTicks) {
		if err := l.loadPendingTicks(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (l Loader) loadSubChunks(c *Chunk) error {
	lo, hi := c.Dimension.SubChunkRange()
	for y := int(lo); y <= int(hi); y++ {
		k := dbkey.Terrain(c.X, c.Z, c.Dimension, int8(y))
		v, ok, err := l.get(k)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		s, err := DecodeSubChunk(v, int8(y))
		if err != nil {
			l.skip(k, err)
			continue
		}
		c.SubChunks[int8(y)] = s
		if y < 0 {
			c.MinIndex = lo
		}
	}
	return nil
}

func (l Loader) loadBiomes(c *Chunk) error {
	lo, hi := c.Dimension.SubChunkRange()
	k := dbkey.ChunkRecord(c.X, c.Z, c.Dimension, dbkey.Data3D)
	v, ok, err := l.get(k)
	if err != nil {
		return err
	}
	if ok {
		if c.Biomes, err = DecodeBiomes3D(v, lo); err == nil {
			return nil
		}
		l.skip(k, err)
	}
	k = dbkey.ChunkRecord(c.X, c.Z, c.Dimension, dbkey.Data2D)
	if v, ok, err = l.get(k); err != nil || !ok {
		return err
	}
	if c.Biomes, err = DecodeBiomes2D(v, lo, hi); err != nil {
		l.skip(k, err)
	}
	return nil
}

func (l Loader) loadBlockEntities(c *Chunk) error {
	k := dbkey.ChunkRecord(c.X, c.Z, c.Dimension, dbkey.BlockEntity)
	v, ok, err := l.get(k)
	if err != nil || !ok {
		return err
	}
	tags, err := nbt.UnmarshalAll(v)
	if err != nil {
		l.skip(k, err)
	}
	for _, t := range tags {
		pos, ok := tagPos(t)
		if !ok {
			l.skip(k, fmt.Errorf("block entity %s without position: %w", t, stream.ErrInvalidData))
			continue
		}
		c.BlockEntities[pos] = t
	}
	return nil
}

// tagPos reads the integer x, y and z of a compound.
func tagPos(t *nbt.Tag) (cube.Pos, bool) {
	if t.Type() != nbt.TypeCompound {
		return cube.Pos{}, false
	}
	var pos cube.Pos
	for i, name := range [3]string{"x", "y", "z"} {
		v, ok := t.Get(name).Int()
		if !ok {
			return cube.Pos{}, false
		}
		pos[i] = int(v)
	}
	return pos, true
}

func (l Loader) loadEntities(c *Chunk) error {
	k := dbkey.ChunkRecord(c.X, c.Z, c.Dimension, dbkey.Entity)
	v, ok, err := l.get(k)
	if err != nil {
		return err
	}
	if ok {
		tags, err := nbt.UnmarshalAll(v)
		if err != nil {
			l.skip(k, err)
		}
		for _, t := range tags {
			if t.Type() == nbt.TypeCompound {
				c.Entities = append(c.Entities, t)
			}
		}
	}

	ids, err := l.digest(c.X, c.Z, c.Dimension)
	if err != nil {
		return err
	}
	for _, id := range ids {
		ak := dbkey.ActorDigest{ID: id}
		v, ok, err := l.get(ak)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		t, err := nbt.Unmarshal(v)
		if err == nil && t.Type() != nbt.TypeCompound {
			err = fmt.Errorf("actor is %v: %w", t.Type(), stream.ErrInvalidData)
		}
		if err != nil {
			l.skip(ak, err)
			continue
		}
		c.Entities = append(c.Entities, t)
	}
	return nil
}

// digest returns the actor ids referenced by the digest pointer of the
// chunk at x, z. A malformed pointer is skipped.
func (l Loader) digest(x, z int32, dim dbkey.Dimension) ([][8]byte, error) {
	k := dbkey.DigestPointer{X: x, Z: z, Dimension: dim}
	v, ok, err := l.get(k)
	if err != nil || !ok {
		return nil, err
	}
	ids, err := DecodeDigest(v)
	if err != nil {
		l.skip(k, err)
		return nil, nil
	}
	return ids, nil
}

// DecodeDigest splits a digest pointer value into 8-byte actor ids.
func DecodeDigest(v []byte) ([][8]byte, error) {
	if len(v)%8 != 0 {
		return nil, fmt.Errorf("digest of %d bytes: %w", len(v), stream.ErrInvalidData)
	}
	ids := make([][8]byte, len(v)/8)
	for i := range ids {
		copy(ids[i][:], v[i*8:])
	}
	return ids, nil
}

// EncodeDigest joins actor ids into a digest pointer value.
func EncodeDigest(ids [][8]byte) []byte {
	v := make([]byte, 0, len(ids)*8)
	for _, id := range ids {
		v = append(v, id[:]...)
	}
	return v
}

func (l Loader) loadPendingTicks(c *Chunk) error {
	k := dbkey.ChunkRecord(c.X, c.Z, c.Dimension, dbkey.PendingTicks)
	v, ok, err := l.get(k)
	if err != nil || !ok {
		return err
	}
	t, err := nbt.Unmarshal(v)
	if err == nil {
		c.PendingTicks, err = DecodePendingTicks(t)
	}
	if err != nil {
		l.skip(k, err)
	}
	return nil
}
