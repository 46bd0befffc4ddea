package bedrockdb

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cqdetdev/bedrockdb/chunk"
	"github.com/cqdetdev/bedrockdb/store"
	"github.com/df-mc/goleveldb/leveldb/opt"
)

// Options holds configuration options for a world database.
type Options struct {
	// CacheSize is the approximate number of bytes of decoded chunks kept in
	// memory. Defaults to 256MB. Zero disables the cache.
	CacheSize int64

	// ReadOptions selects the parts of a chunk that are decoded on load.
	// Defaults to chunk.ReadAll.
	ReadOptions chunk.ReadOptions

	// BatchThreshold is the approximate number of bytes a bulk delete
	// collects before flushing its batch. Defaults to 20000.
	BatchThreshold int

	// BlockCompression is the LevelDB table block compression. Bedrock
	// writes raw deflate, opt.FlateCompression.
	BlockCompression opt.Compression

	// ReadOnly opens the database and level.dat without write access.
	ReadOnly bool

	// PrefetchWorkers is the number of goroutines loading chunks ahead of
	// viewers. Zero disables the prefetcher.
	PrefetchWorkers int

	// Log is the Logger to use for debug messages and errors.
	// If nil, defaults to slog.Default().
	Log *slog.Logger
}

// DefaultOptions returns options suited to serving a world.
func DefaultOptions() *Options {
	return &Options{
		CacheSize:        256 * 1024 * 1024, // 256MB
		ReadOptions:      chunk.ReadAll,
		BatchThreshold:   20000,
		BlockCompression: opt.FlateCompression,
		PrefetchWorkers:  2,
		Log:              slog.Default(),
	}
}

// ReadOnlyOptions returns options for inspecting a world without modifying
// it, for example one a game is running on.
func ReadOnlyOptions() *Options {
	o := DefaultOptions()
	o.ReadOnly = true
	o.PrefetchWorkers = 0
	return o
}

// BulkOptions returns options for tools scanning or pruning a whole world:
// a small cache, no prefetching and larger delete batches.
func BulkOptions() *Options {
	return &Options{
		CacheSize:        16 * 1024 * 1024,
		ReadOptions:      chunk.ReadBlockAndBiome,
		BatchThreshold:   4 * 1024 * 1024,
		BlockCompression: opt.FlateCompression,
		Log:              slog.Default(),
	}
}

// Config holds configuration for opening a world.
type Config struct {
	Options *Options
}

func (conf Config) normalise() Config {
	o := DefaultOptions()
	if conf.Options != nil {
		c := *conf.Options
		o = &c
	}
	if o.Log == nil {
		o.Log = slog.Default()
	}
	if o.ReadOptions == 0 {
		o.ReadOptions = chunk.ReadAll
	}
	if o.BatchThreshold <= 0 {
		o.BatchThreshold = 20000
	}
	if o.BlockCompression == opt.DefaultCompression {
		o.BlockCompression = opt.FlateCompression
	}
	o.Log = o.Log.With("provider", "bedrockdb")
	return Config{Options: o}
}

// Open opens the world in the directory passed. The records are read from
// the LevelDB database in its db subdirectory and the metadata from its
// level.dat. Unless the options are read-only, a missing directory is
// created.
func (conf Config) Open(dir string) (*DB, error) {
	conf = conf.normalise()
	o := conf.Options
	if !o.ReadOnly {
		if err := os.MkdirAll(dbPath(dir), 0777); err != nil {
			return nil, fmt.Errorf("open world: %w", err)
		}
	} else if _, err := os.Stat(dbPath(dir)); err != nil {
		return nil, fmt.Errorf("open world: %w", err)
	}
	s, err := store.Open(dbPath(dir), &store.Options{
		Compression: o.BlockCompression,
		BlockSize:   16 * opt.KiB,
		WriteBuffer: 4 * opt.MiB,
		ReadOnly:    o.ReadOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("open world: %w", err)
	}
	return newDB(conf, dir, s), nil
}

// New returns a DB over an already open store. The DB takes ownership of s
// and closes it on Close. dir locates level.dat and may be empty when the
// world has none.
func (conf Config) New(dir string, s store.Store) *DB {
	return newDB(conf.normalise(), dir, s)
}

// Open opens the world in dir using default options.
func Open(dir string) (*DB, error) {
	var conf Config
	return conf.Open(dir)
}

// ErrNoDir is returned by level.dat operations of a DB opened without a
// world directory.
var ErrNoDir = errors.New("world has no directory")

// dbPath returns the path to the LevelDB database of a world.
func dbPath(dir string) string {
	return filepath.Join(dir, "db")
}

// levelDatPath returns the path to the level.dat of a world.
func levelDatPath(dir string) string {
	return filepath.Join(dir, "level.dat")
}

// levelNamePath returns the path to the levelname.txt of a world.
func levelNamePath(dir string) string {
	return filepath.Join(dir, "levelname.txt")
}
