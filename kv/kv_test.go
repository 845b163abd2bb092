package kv_test

import (
	"testing"

	"github.com/autom8ter/livequery/errors"
	"github.com/autom8ter/livequery/kv"
	_ "github.com/autom8ter/livequery/kv/badger"
	"github.com/autom8ter/livequery/kv/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	t.Run("badger", func(t *testing.T) {
		db, err := registry.Open("badger", map[string]any{
			"storage_path": "",
		})
		require.NoError(t, err)
		defer db.Close()
		assert.Nil(t, db.Tx(true, func(tx kv.Tx) error {
			return tx.Set([]byte("hello"), []byte("world"))
		}))
		assert.Nil(t, db.Tx(false, func(tx kv.Tx) error {
			val, err := tx.Get([]byte("hello"))
			assert.Equal(t, "world", string(val))
			return err
		}))
	})
	t.Run("unregistered", func(t *testing.T) {
		_, err := registry.Open("tikv", nil)
		require.NotNil(t, err)
		assert.Equal(t, errors.Validation, errors.Extract(err).Code)
		assert.Contains(t, errors.Extract(err).Message(), "badger")
	})
	t.Run("providers", func(t *testing.T) {
		assert.Contains(t, registry.Providers(), "badger")
	})
}
