package bedrockdb

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cqdetdev/bedrockdb/chunk"
	"github.com/cqdetdev/bedrockdb/dbkey"
	"github.com/cqdetdev/bedrockdb/nbt"
	"github.com/cqdetdev/bedrockdb/store"
	"github.com/df-mc/dragonfly/server/world"
)

var (
	// ErrNotFound is returned when a chunk or record is not found in the
	// database.
	ErrNotFound = store.ErrNotFound
	// ErrClosed is returned by every operation on a closed DB.
	ErrClosed = store.ErrClosed
	// ErrReadOnly is returned by writes to a DB opened read-only.
	ErrReadOnly = errors.New("world is read-only")
)

// DB is a Bedrock world: its LevelDB records and its level.dat. A DB is safe
// for concurrent use.
type DB struct {
	conf   Config
	dir    string
	store  store.Store
	loader chunk.Loader
	cache  *chunkCache
	closed atomic.Bool

	// mu serialises level.dat reads and writes.
	mu sync.Mutex

	// Predictive prefetcher for chunk loading. Nil when disabled.
	prefetcher *Prefetcher
}

// newDB creates a new DB instance.
func newDB(conf Config, dir string, s store.Store) *DB {
	o := conf.Options
	db := &DB{
		conf:  conf,
		dir:   dir,
		store: s,
		cache: newChunkCache(o.CacheSize),
	}
	db.loader = chunk.Loader{Source: s, Options: o.ReadOptions, Log: o.Log}
	if o.PrefetchWorkers > 0 {
		db.prefetcher = NewPrefetcher(db, o.PrefetchWorkers)
	}
	return db
}

// Dir returns the world directory. It is empty for a DB created with
// Config.New without one.
func (db *DB) Dir() string {
	return db.dir
}

// Store returns the underlying record store.
func (db *DB) Store() store.Store {
	return db.store
}

func (db *DB) log() *slog.Logger {
	return db.conf.Options.Log
}

func (db *DB) readable() error {
	if db.closed.Load() {
		return ErrClosed
	}
	return nil
}

func (db *DB) writable() error {
	if err := db.readable(); err != nil {
		return err
	}
	if db.conf.Options.ReadOnly {
		return ErrReadOnly
	}
	return nil
}

// LoadChunk reads the chunk at a position and dimension. If no chunk at
// that position exists, errors.Is(err, ErrNotFound) equals true. Chunks are
// shared with the cache and must not be modified.
func (db *DB) LoadChunk(pos world.ChunkPos, dim world.Dimension) (*chunk.Chunk, error) {
	return db.loadChunk(chunkKey{pos: pos, dim: DimensionOf(dim)})
}

func (db *DB) loadChunk(key chunkKey) (*chunk.Chunk, error) {
	if err := db.readable(); err != nil {
		return nil, err
	}
	if c := db.cache.get(key); c != nil {
		return c, nil
	}
	gen := db.cache.generation(key)
	c, err := db.loader.Load(key.pos[0], key.pos[1], key.dim)
	if err != nil {
		return nil, fmt.Errorf("load chunk %v in %v: %w", key.pos, key.dim, err)
	}
	db.cache.put(key, c, gen)
	return c, nil
}

// HasChunk reports whether a chunk exists at a position and dimension.
func (db *DB) HasChunk(pos world.ChunkPos, dim world.Dimension) (bool, error) {
	if err := db.readable(); err != nil {
		return false, err
	}
	_, err := db.loader.Version(pos[0], pos[1], DimensionOf(dim))
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// LoadSubChunk reads the sub-chunk at vertical index y without assembling
// the rest of the chunk.
func (db *DB) LoadSubChunk(pos world.ChunkPos, dim world.Dimension, y int8) (*chunk.SubChunk, error) {
	if err := db.readable(); err != nil {
		return nil, err
	}
	return db.loader.SubChunk(pos[0], pos[1], DimensionOf(dim), y)
}

// LoadArea loads the chunks within radius of center in parallel. Missing
// chunks are left out.
func (db *DB) LoadArea(center world.ChunkPos, radius int, dim world.Dimension) ([]*chunk.Chunk, error) {
	var chunks []*chunk.Chunk
	var mu sync.Mutex
	var wg sync.WaitGroup
	errCh := make(chan error, 1)

	d := DimensionOf(dim)
	for dx := -radius; dx <= radius; dx++ {
		for dz := -radius; dz <= radius; dz++ {
			key := chunkKey{pos: world.ChunkPos{center[0] + int32(dx), center[1] + int32(dz)}, dim: d}
			wg.Add(1)
			go func() {
				defer wg.Done()
				c, err := db.loadChunk(key)
				if err != nil {
					if !errors.Is(err, ErrNotFound) {
						select {
						case errCh <- err:
						default:
						}
					}
					return
				}
				mu.Lock()
				chunks = append(chunks, c)
				mu.Unlock()
			}()
		}
	}

	wg.Wait()
	close(errCh)

	if err := <-errCh; err != nil {
		return nil, err
	}
	return chunks, nil
}

// StoreVersion writes the version record of a chunk, creating the chunk if
// it did not exist.
func (db *DB) StoreVersion(pos world.ChunkPos, dim world.Dimension, version uint8) error {
	return db.PutRecord(dbkey.ChunkRecord(pos[0], pos[1], DimensionOf(dim), dbkey.Version), []byte{version})
}

// StoreSubChunk writes a sub-chunk record in storage version 9.
func (db *DB) StoreSubChunk(pos world.ChunkPos, dim world.Dimension, s *chunk.SubChunk) error {
	data, err := chunk.EncodeSubChunk(s)
	if err != nil {
		return err
	}
	return db.PutRecord(dbkey.Terrain(pos[0], pos[1], DimensionOf(dim), s.Index), data)
}

// StoreBiomes writes the 3D biome record of a chunk.
func (db *DB) StoreBiomes(pos world.ChunkPos, dim world.Dimension, c *chunk.BiomeColumn) error {
	data, err := chunk.EncodeBiomes3D(c)
	if err != nil {
		return err
	}
	return db.PutRecord(dbkey.ChunkRecord(pos[0], pos[1], DimensionOf(dim), dbkey.Data3D), data)
}

// Record returns the raw value stored under k.
func (db *DB) Record(k dbkey.Key) ([]byte, error) {
	if err := db.readable(); err != nil {
		return nil, err
	}
	v, err := db.store.Get(k.Bytes())
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", dbkey.String(k), err)
	}
	return v, nil
}

// Tag returns the NBT document stored under k.
func (db *DB) Tag(k dbkey.Key) (*nbt.Tag, error) {
	v, err := db.Record(k)
	if err != nil {
		return nil, err
	}
	t, err := nbt.Unmarshal(v)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", dbkey.String(k), err)
	}
	return t, nil
}

// DecodeRecord decodes the NBT compound stored under k into v, a pointer to
// a struct with `nbt` field tags or to a map[string]any.
func (db *DB) DecodeRecord(k dbkey.Key, v any) error {
	t, err := db.Tag(k)
	if err != nil {
		return err
	}
	return t.Unmarshal(v)
}

// PutRecord stores value under k. Writing a chunk record drops the chunk
// from the cache. A key that would not decode back to k fails with
// dbkey.ErrInvalidKey.
func (db *DB) PutRecord(k dbkey.Key, value []byte) error {
	if err := db.writable(); err != nil {
		return err
	}
	if err := dbkey.Validate(k); err != nil {
		return fmt.Errorf("put: %w", err)
	}
	if err := db.store.Put(k.Bytes(), value); err != nil {
		return fmt.Errorf("put %s: %w", dbkey.String(k), err)
	}
	db.invalidateKey(k)
	return nil
}

// PutTag stores t under k.
func (db *DB) PutTag(k dbkey.Key, t *nbt.Tag) error {
	data, err := nbt.Marshal(t)
	if err != nil {
		return err
	}
	return db.PutRecord(k, data)
}

// DeleteRecord deletes the value stored under k.
func (db *DB) DeleteRecord(k dbkey.Key) error {
	if err := db.writable(); err != nil {
		return err
	}
	if err := db.store.Delete(k.Bytes()); err != nil {
		return fmt.Errorf("delete %s: %w", dbkey.String(k), err)
	}
	db.invalidateKey(k)
	return nil
}

// invalidateKey drops the cached chunks a key may belong to. Actor records
// do not name their chunk, so writing one clears the cache.
func (db *DB) invalidateKey(k dbkey.Key) {
	switch k := k.(type) {
	case dbkey.SubChunk:
		db.cache.invalidate(chunkKey{pos: world.ChunkPos{k.X, k.Z}, dim: k.Dimension})
	case dbkey.DigestPointer:
		db.cache.invalidate(chunkKey{pos: world.ChunkPos{k.X, k.Z}, dim: k.Dimension})
	case dbkey.ActorDigest:
		db.cache.invalidateIf(func(chunkKey) bool { return true })
	}
}

// NewChunkIterator returns a ChunkIterator over the chunks within r. A nil
// range visits every chunk.
func (db *DB) NewChunkIterator(r *IteratorRange) *ChunkIterator {
	if err := db.readable(); err != nil {
		return &ChunkIterator{err: err}
	}
	return newChunkIterator(db, r)
}

// Stats returns chunk read statistics of the DB.
func (db *DB) Stats() Stats {
	return db.cache.stats()
}

// Prefetcher returns the prefetcher for registering viewer positions, or nil
// when prefetching is disabled.
func (db *DB) Prefetcher() *Prefetcher {
	return db.prefetcher
}

// Compact compacts the whole key range of the store.
func (db *DB) Compact() error {
	if err := db.writable(); err != nil {
		return err
	}
	return db.store.CompactRange(nil, nil)
}

// Close stops the prefetcher and closes the store. Closing twice returns
// ErrClosed.
func (db *DB) Close() error {
	if !db.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	if db.prefetcher != nil {
		db.prefetcher.Stop()
	}
	if err := db.store.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return nil
}

// StartStatsLogger starts a background goroutine that logs chunk statistics
// at the specified interval. Returns a function to stop the logger.
func (db *DB) StartStatsLogger(interval time.Duration) (stop func()) {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.C:
				db.LogStats()
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
	}
}

// LogStats logs current chunk statistics once.
func (db *DB) LogStats() {
	stats := db.Stats()
	db.log().Info("world stats",
		"reads", stats.ChunkReads,
		"loads", stats.ChunkLoads,
		"cache_hits", stats.CacheHits,
		"cache_misses", stats.CacheMisses,
		"cache_hit_rate", fmt.Sprintf("%.1f%%", stats.HitRate()*100),
		"cached_chunks", stats.Cached,
		"cached_bytes", stats.CachedBytes,
	)
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
