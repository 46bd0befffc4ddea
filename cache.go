package bedrockdb

import (
	"container/list"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/cqdetdev/bedrockdb/chunk"
	"github.com/cqdetdev/bedrockdb/dbkey"
	"github.com/df-mc/dragonfly/server/world"
)

// chunkKey uniquely identifies a chunk by position and dimension.
type chunkKey struct {
	pos world.ChunkPos
	dim dbkey.Dimension
}

// prefix returns the key bytes shared by every record of the chunk.
func (k chunkKey) prefix() []byte {
	return dbkey.ChunkPrefix(k.pos[0], k.pos[1], k.dim)
}

// chunkCache is a thread-safe LRU cache of decoded chunks. It is split into
// shards, each with its own lock and byte budget.
type chunkCache struct {
	shards [cacheShardCount]*cacheShard
	hits   atomic.Int64
	misses atomic.Int64
	reads  atomic.Int64
	loads  atomic.Int64
}

const cacheShardCount = 16

// cacheShard is a single shard of the cache. gen is bumped by every
// invalidation so that loads which read the store before it do not cache
// their result.
type cacheShard struct {
	mu      sync.Mutex
	entries map[chunkKey]*list.Element
	lru     *list.List
	size    int64
	maxSize int64
	gen     uint64
}

// cacheEntry represents a cached chunk with its estimated size.
type cacheEntry struct {
	key  chunkKey
	c    *chunk.Chunk
	size int64
}

// newChunkCache creates a new chunk cache holding about maxSize bytes.
func newChunkCache(maxSize int64) *chunkCache {
	c := &chunkCache{}
	for i := range c.shards {
		c.shards[i] = &cacheShard{
			entries: make(map[chunkKey]*list.Element, 256),
			lru:     list.New(),
			maxSize: maxSize / cacheShardCount,
		}
	}
	return c
}

// shard returns the shard for a key by hashing its record prefix.
func (c *chunkCache) shard(key chunkKey) *cacheShard {
	return c.shards[xxhash.Sum64(key.prefix())&(cacheShardCount-1)]
}

// chunkSize estimates the memory held by a decoded chunk.
func chunkSize(c *chunk.Chunk) int64 {
	size := int64(1024)
	for _, s := range c.SubChunks {
		for _, l := range s.Layers {
			size += int64(len(l.Indices))*2 + int64(len(l.Palette))*64
		}
	}
	if c.Biomes != nil {
		size += int64(len(c.Biomes.Sections)) * 64
	}
	return size + int64(len(c.Entities)+len(c.BlockEntities))*256
}

// get retrieves a chunk from the cache, returning nil if not found.
func (c *chunkCache) get(key chunkKey) *chunk.Chunk {
	c.reads.Add(1)
	shard := c.shard(key)

	shard.mu.Lock()
	defer shard.mu.Unlock()
	elem, ok := shard.entries[key]
	if !ok {
		c.misses.Add(1)
		return nil
	}
	c.hits.Add(1)
	shard.lru.MoveToFront(elem)
	return elem.Value.(*cacheEntry).c
}

// generation returns the invalidation generation of the shard holding key.
// It must be read before the chunk is loaded from the store and passed to
// put.
func (c *chunkCache) generation(key chunkKey) uint64 {
	shard := c.shard(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()
	return shard.gen
}

// put adds or replaces a chunk loaded at generation gen, evicting the least
// recently used chunks of the shard until it fits. A chunk larger than the
// shard is not cached, nor is one loaded before the latest invalidation of
// its shard.
func (c *chunkCache) put(key chunkKey, ch *chunk.Chunk, gen uint64) {
	c.loads.Add(1)
	shard := c.shard(key)
	size := chunkSize(ch)

	shard.mu.Lock()
	defer shard.mu.Unlock()

	if gen != shard.gen {
		return
	}
	if elem, ok := shard.entries[key]; ok {
		shard.remove(elem)
	}
	if size > shard.maxSize {
		return
	}
	for shard.size+size > shard.maxSize && shard.lru.Len() > 0 {
		shard.remove(shard.lru.Back())
	}
	shard.entries[key] = shard.lru.PushFront(&cacheEntry{key: key, c: ch, size: size})
	shard.size += size
}

// remove drops elem from the shard. The shard lock must be held.
func (s *cacheShard) remove(elem *list.Element) {
	e := elem.Value.(*cacheEntry)
	s.size -= e.size
	delete(s.entries, e.key)
	s.lru.Remove(elem)
}

// invalidate drops the chunk at key.
func (c *chunkCache) invalidate(key chunkKey) {
	shard := c.shard(key)
	shard.mu.Lock()
	shard.gen++
	if elem, ok := shard.entries[key]; ok {
		shard.remove(elem)
	}
	shard.mu.Unlock()
}

// invalidateIf drops every chunk for which fn returns true.
func (c *chunkCache) invalidateIf(fn func(key chunkKey) bool) {
	for _, shard := range c.shards {
		shard.mu.Lock()
		shard.gen++
		for key, elem := range shard.entries {
			if fn(key) {
				shard.remove(elem)
			}
		}
		shard.mu.Unlock()
	}
}

// currentSize returns the current estimated size of the cache.
func (c *chunkCache) currentSize() int64 {
	var total int64
	for _, shard := range c.shards {
		shard.mu.Lock()
		total += shard.size
		shard.mu.Unlock()
	}
	return total
}

// len returns the number of entries in the cache.
func (c *chunkCache) len() int {
	var total int
	for _, shard := range c.shards {
		shard.mu.Lock()
		total += len(shard.entries)
		shard.mu.Unlock()
	}
	return total
}

// stats returns cache statistics.
func (c *chunkCache) stats() Stats {
	return Stats{
		ChunkReads:  c.reads.Load(),
		ChunkLoads:  c.loads.Load(),
		CacheHits:   c.hits.Load(),
		CacheMisses: c.misses.Load(),
		CachedBytes: c.currentSize(),
		Cached:      c.len(),
	}
}

// Stats holds chunk read statistics of a DB.
type Stats struct {
	// ChunkReads counts LoadChunk calls.
	ChunkReads int64
	// ChunkLoads counts chunks decoded from the store.
	ChunkLoads  int64
	CacheHits   int64
	CacheMisses int64
	// CachedBytes is the estimated size of the cached chunks.
	CachedBytes int64
	Cached      int
}

// HitRate returns the share of reads served from the cache, from 0 to 1.
func (s Stats) HitRate() float64 {
	if s.ChunkReads == 0 {
		return 0
	}
	return float64(s.CacheHits) / float64(s.ChunkReads)
}
