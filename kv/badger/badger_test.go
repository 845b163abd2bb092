package badger_test

import (
	"fmt"
	"testing"

	"github.com/autom8ter/livequery/kv"
	"github.com/autom8ter/livequery/kv/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test(t *testing.T) {
	db, err := badger.New("")
	require.Nil(t, err)
	defer db.Close()
	data := map[string]string{}
	for i := 0; i < 10; i++ {
		data[fmt.Sprint(i)] = fmt.Sprint(i)
	}
	t.Run("set", func(t *testing.T) {
		assert.Nil(t, db.Tx(true, func(tx kv.Tx) error {
			for k, v := range data {
				assert.Nil(t, tx.Set([]byte(k), []byte(v)))
			}
			return nil
		}))
	})
	t.Run("get", func(t *testing.T) {
		assert.Nil(t, db.Tx(false, func(tx kv.Tx) error {
			for k, v := range data {
				data, err := tx.Get([]byte(k))
				assert.Nil(t, err)
				assert.EqualValues(t, v, string(data))
			}
			missing, err := tx.Get([]byte("missing"))
			assert.Nil(t, err)
			assert.Nil(t, missing)
			return nil
		}))
	})
	t.Run("batch", func(t *testing.T) {
		batch := db.NewBatch()
		for k, v := range data {
			assert.Nil(t, batch.Set([]byte("batch."+k), []byte(v)))
		}
		assert.Nil(t, batch.Flush())
		assert.Nil(t, db.Tx(false, func(tx kv.Tx) error {
			for k, v := range data {
				data, err := tx.Get([]byte("batch." + k))
				assert.Nil(t, err)
				assert.EqualValues(t, v, string(data))
			}
			return nil
		}))
	})
	t.Run("iterate prefix", func(t *testing.T) {
		assert.Nil(t, db.Tx(false, func(tx kv.Tx) error {
			iter := tx.NewIterator(kv.IterOpts{
				Prefix: []byte("batch."),
			})
			defer iter.Close()
			i := 0
			var last string
			for iter.Valid() {
				i++
				val, err := iter.Value()
				assert.Nil(t, err)
				key := string(iter.Key())
				assert.EqualValues(t, data[key[len("batch."):]], string(val))
				assert.True(t, key > last)
				last = key
				iter.Next()
			}
			assert.Equal(t, len(data), i)
			return nil
		}))
	})
	t.Run("delete", func(t *testing.T) {
		assert.Nil(t, db.Tx(true, func(tx kv.Tx) error {
			return tx.Delete([]byte("0"))
		}))
		assert.Nil(t, db.Tx(false, func(tx kv.Tx) error {
			val, err := tx.Get([]byte("0"))
			assert.Nil(t, err)
			assert.Nil(t, val)
			return nil
		}))
	})
}
