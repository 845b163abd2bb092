// Package kv is the key/value abstraction documents are persisted on.
package kv

// DB is a key value database
type DB interface {
	// Tx executes fn in a transaction. Update transactions are committed if fn returns nil.
	Tx(isUpdate bool, fn func(Tx) error) error
	// NewBatch returns a write batch
	NewBatch() Batch
	// Close closes the database
	Close() error
}

// IterOpts configures an iterator
type IterOpts struct {
	Prefix  []byte `json:"prefix"`
	Seek    []byte `json:"seek"`
	Reverse bool   `json:"reverse"`
}

// Tx is a database transaction
type Tx interface {
	// Get returns the value of the key or nil if it does not exist
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Delete(key []byte) error
	NewIterator(opts IterOpts) Iterator
}

// Iterator iterates over keys in lexicographic order
type Iterator interface {
	Seek(key []byte)
	Close()
	Valid() bool
	Key() []byte
	Value() ([]byte, error)
	Next()
}

// Batch is a batch of writes flushed together
type Batch interface {
	Set(key, value []byte) error
	Delete(key []byte) error
	Flush() error
}
