package badger

import (
	"github.com/autom8ter/livequery/kv"
	"github.com/dgraph-io/badger/v3"
)

type badgerIterator struct {
	opts kv.IterOpts
	iter *badger.Iterator
}

func (b *badgerIterator) Seek(key []byte) {
	b.iter.Seek(key)
}

func (b *badgerIterator) Close() {
	b.iter.Close()
}

func (b *badgerIterator) Valid() bool {
	if b.opts.Prefix != nil {
		return b.iter.ValidForPrefix(b.opts.Prefix)
	}
	return b.iter.Valid()
}

func (b *badgerIterator) Key() []byte {
	return b.iter.Item().KeyCopy(nil)
}

func (b *badgerIterator) Value() ([]byte, error) {
	return b.iter.Item().ValueCopy(nil)
}

func (b *badgerIterator) Next() {
	b.iter.Next()
}
