package bedrockdb

import (
	"sync"
	"sync/atomic"

	"github.com/cqdetdev/bedrockdb/dbkey"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/google/uuid"
)

// Prefetcher predicts the chunks moving viewers will need and loads them
// into the chunk cache ahead of time.
type Prefetcher struct {
	db         *DB
	viewers    sync.Map // map[uuid.UUID]*viewerTracker
	prefetchCh chan chunkKey
	workers    int
	enabled    atomic.Bool
	queued     atomic.Int64
	dropped    atomic.Int64
	stopCh     chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup
}

// viewerTracker tracks movement data for a single viewer.
type viewerTracker struct {
	mu       sync.Mutex
	lastPos  world.ChunkPos
	velocity [2]int32 // Movement velocity (dx, dz)
}

// NewPrefetcher creates a prefetcher loading chunks of db with the given
// number of workers.
func NewPrefetcher(db *DB, workers int) *Prefetcher {
	if workers <= 0 {
		workers = 2
	}
	p := &Prefetcher{
		db:         db,
		prefetchCh: make(chan chunkKey, 128),
		workers:    workers,
		stopCh:     make(chan struct{}),
	}
	p.enabled.Store(true)
	p.start()
	return p
}

// start launches prefetch workers.
func (p *Prefetcher) start() {
	for range p.workers {
		p.wg.Add(1)
		go p.worker()
	}
}

// worker processes prefetch requests.
func (p *Prefetcher) worker() {
	defer p.wg.Done()
	for {
		select {
		case key := <-p.prefetchCh:
			if !p.enabled.Load() {
				continue
			}
			if _, err := p.db.loadChunk(key); err != nil {
				p.db.log().Debug("prefetch chunk", "pos", key.pos, "dimension", key.dim, "err", err)
			}
		case <-p.stopCh:
			return
		}
	}
}

// UpdateViewer records the chunk position of a viewer and queues the chunks
// ahead of its movement.
func (p *Prefetcher) UpdateViewer(id uuid.UUID, pos world.ChunkPos, dim world.Dimension) {
	if !p.enabled.Load() {
		return
	}

	val, ok := p.viewers.Load(id)
	if !ok {
		val, _ = p.viewers.LoadOrStore(id, &viewerTracker{lastPos: pos})
	}
	tracker := val.(*viewerTracker)

	tracker.mu.Lock()
	dx := pos[0] - tracker.lastPos[0]
	dz := pos[1] - tracker.lastPos[1]
	// Smooth velocity with previous value.
	tracker.velocity = [2]int32{
		(tracker.velocity[0] + dx) / 2,
		(tracker.velocity[1] + dz) / 2,
	}
	tracker.lastPos = pos
	vel := tracker.velocity
	tracker.mu.Unlock()

	if vel[0] == 0 && vel[1] == 0 {
		return
	}
	d := DimensionOf(dim)
	for _, pred := range predictNext(pos, vel) {
		p.enqueue(chunkKey{pos: pred, dim: d})
	}
}

// Prefetch queues a single chunk for loading.
func (p *Prefetcher) Prefetch(pos world.ChunkPos, dim dbkey.Dimension) {
	if p.enabled.Load() {
		p.enqueue(chunkKey{pos: pos, dim: dim})
	}
}

// enqueue queues key without blocking. A full queue drops the request.
func (p *Prefetcher) enqueue(key chunkKey) {
	select {
	case p.prefetchCh <- key:
		p.queued.Add(1)
	default:
		p.dropped.Add(1)
	}
}

// predictNext predicts the next chunks to load based on position and velocity.
func predictNext(pos world.ChunkPos, vel [2]int32) []world.ChunkPos {
	predictions := make([]world.ChunkPos, 0, 5)

	// Normalize velocity to unit direction [-1, 0, 1].
	dx, dz := sign(vel[0]), sign(vel[1])
	if dx == 0 && dz == 0 {
		return predictions
	}

	// Predict 1-3 chunks ahead.
	for i := int32(1); i <= 3; i++ {
		predictions = append(predictions, world.ChunkPos{pos[0] + dx*i, pos[1] + dz*i})
	}

	// Add cone predictions when moving diagonally.
	if dx != 0 && dz != 0 {
		predictions = append(predictions,
			world.ChunkPos{pos[0] + dx*2, pos[1] + dz},
			world.ChunkPos{pos[0] + dx, pos[1] + dz*2},
		)
	}
	return predictions
}

func sign(v int32) int32 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// RemoveViewer stops tracking a viewer.
func (p *Prefetcher) RemoveViewer(id uuid.UUID) {
	p.viewers.Delete(id)
}

// SetEnabled enables or disables prefetching.
func (p *Prefetcher) SetEnabled(enabled bool) {
	p.enabled.Store(enabled)
}

// Stop stops all prefetch workers. It is safe to call more than once.
func (p *Prefetcher) Stop() {
	p.enabled.Store(false)
	p.stopOnce.Do(func() { close(p.stopCh) })
	p.wg.Wait()
}

// PrefetchStats holds prefetcher statistics.
type PrefetchStats struct {
	Viewers  int
	QueueLen int
	Queued   int64
	Dropped  int64
}

// Stats returns prefetch statistics.
func (p *Prefetcher) Stats() PrefetchStats {
	s := PrefetchStats{
		QueueLen: len(p.prefetchCh),
		Queued:   p.queued.Load(),
		Dropped:  p.dropped.Load(),
	}
	p.viewers.Range(func(_, _ any) bool {
		s.Viewers++
		return true
	})
	return s
}
