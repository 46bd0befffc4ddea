// Package store defines the ordered key/value store that world records are
// read from and written to, and implements it on LevelDB.
package store

import (
	"github.com/df-mc/goleveldb/leveldb"
)

var (
	// ErrNotFound is returned by Get when a key is absent.
	ErrNotFound = leveldb.ErrNotFound
	// ErrClosed is returned by every operation on a closed store.
	ErrClosed = leveldb.ErrClosed
)

// Getter reads single records. Get returns ErrNotFound for absent keys.
type Getter interface {
	Get(key []byte) ([]byte, error)
}

// Iterator walks keys in byte order. An iterator reads a snapshot taken
// when it was created: writes and deletes made afterwards, including those
// made while iterating, are not observed. An iterator must be released.
type Iterator interface {
	First() bool
	Last() bool
	Seek(key []byte) bool
	Next() bool
	Prev() bool
	Valid() bool
	Key() []byte
	Value() []byte
	Release()
	Error() error
}

// Store is an ordered byte-string store.
type Store interface {
	Getter
	Has(key []byte) (bool, error)
	Put(key, value []byte) error
	Delete(key []byte) error
	// NewIterator returns an iterator over keys starting with prefix. A nil
	// prefix iterates every key.
	NewIterator(prefix []byte) Iterator
	// Write applies b atomically.
	Write(b *Batch) error
	// CompactRange compacts keys in [start, limit). Nil bounds are open.
	CompactRange(start, limit []byte) error
	Close() error
}

// Batch collects writes applied atomically by Store.Write. Size tracks the
// approximate number of key and value bytes held.
type Batch struct {
	b    leveldb.Batch
	size int
}

// Put records a write of value under key.
func (b *Batch) Put(key, value []byte) {
	b.b.Put(key, value)
	b.size += len(key) + len(value)
}

// Delete records the deletion of key.
func (b *Batch) Delete(key []byte) {
	b.b.Delete(key)
	b.size += len(key)
}

// Len returns the number of writes recorded.
func (b *Batch) Len() int { return b.b.Len() }

// Size returns the approximate size of the batch in bytes.
func (b *Batch) Size() int { return b.size }

// Reset empties the batch.
func (b *Batch) Reset() {
	b.b.Reset()
	b.size = 0
}
