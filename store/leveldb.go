package store

import (
	"errors"
	"fmt"

	"github.com/df-mc/goleveldb/leveldb"
	"github.com/df-mc/goleveldb/leveldb/opt"
	"github.com/df-mc/goleveldb/leveldb/storage"
	"github.com/df-mc/goleveldb/leveldb/util"
)

// Options configures a LevelDB store.
type Options struct {
	// Compression is the block compression. Bedrock writes raw deflate
	// blocks, which is opt.FlateCompression.
	Compression opt.Compression
	// BlockSize is the uncompressed size of a table block. Defaults to 16KiB.
	BlockSize int
	// WriteBuffer is the size of the memtable. Defaults to 4MiB.
	WriteBuffer int
	// ReadOnly opens the database without write access.
	ReadOnly bool
}

// DefaultOptions returns the options Bedrock itself uses.
func DefaultOptions() *Options {
	return &Options{
		Compression: opt.FlateCompression,
		BlockSize:   16 * opt.KiB,
		WriteBuffer: 4 * opt.MiB,
	}
}

func (o *Options) ldb() *opt.Options {
	return &opt.Options{
		Compression: o.Compression,
		BlockSize:   o.BlockSize,
		WriteBuffer: o.WriteBuffer,
		ReadOnly:    o.ReadOnly,
	}
}

// LevelDB is a Store backed by a LevelDB database.
type LevelDB struct {
	db *leveldb.DB
}

// Open opens or creates the LevelDB database in dir.
func Open(dir string, o *Options) (*LevelDB, error) {
	if o == nil {
		o = DefaultOptions()
	}
	db, err := leveldb.OpenFile(dir, o.ldb())
	if err != nil {
		return nil, fmt.Errorf("open leveldb %v: %w", dir, err)
	}
	return &LevelDB{db: db}, nil
}

// OpenMem opens an empty database held in memory.
func OpenMem() (*LevelDB, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), DefaultOptions().ldb())
	if err != nil {
		return nil, fmt.Errorf("open memory leveldb: %w", err)
	}
	return &LevelDB{db: db}, nil
}

// DB returns the underlying LevelDB handle.
func (l *LevelDB) DB() *leveldb.DB { return l.db }

func (l *LevelDB) Get(key []byte) ([]byte, error) {
	return l.db.Get(key, nil)
}

func (l *LevelDB) Has(key []byte) (bool, error) {
	return l.db.Has(key, nil)
}

func (l *LevelDB) Put(key, value []byte) error {
	return l.db.Put(key, value, nil)
}

func (l *LevelDB) Delete(key []byte) error {
	return l.db.Delete(key, nil)
}

func (l *LevelDB) NewIterator(prefix []byte) Iterator {
	if prefix == nil {
		return l.db.NewIterator(nil, nil)
	}
	return l.db.NewIterator(util.BytesPrefix(prefix), nil)
}

func (l *LevelDB) Write(b *Batch) error {
	return l.db.Write(&b.b, nil)
}

func (l *LevelDB) CompactRange(start, limit []byte) error {
	return l.db.CompactRange(util.Range{Start: start, Limit: limit})
}

func (l *LevelDB) Close() error {
	if err := l.db.Close(); err != nil && !errors.Is(err, leveldb.ErrClosed) {
		return err
	}
	return nil
}
