package util_test

import (
	"testing"

	"github.com/autom8ter/livequery/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUtil(t *testing.T) {
	t.Run("yaml / json conversions", func(t *testing.T) {
		const raw = `{"contact":{"email":"a@b.c"},"name":"alice"}`
		yml, err := util.JSONToYAML([]byte(raw))
		require.Nil(t, err)
		jsonData, err := util.YAMLToJSON(yml)
		require.Nil(t, err)
		assert.JSONEq(t, raw, string(jsonData))
		same, err := util.YAMLToJSON([]byte(raw))
		require.Nil(t, err)
		assert.Equal(t, raw, string(same))
	})
	t.Run("json string", func(t *testing.T) {
		assert.Equal(t, `{"a":1}`, util.JSONString(map[string]any{"a": 1}))
	})
	t.Run("decode", func(t *testing.T) {
		type usr struct {
			Name string `json:"name"`
			Age  int    `json:"age"`
		}
		var u usr
		assert.Nil(t, util.Decode(map[string]any{"name": "alice", "age": "30"}, &u))
		assert.Equal(t, usr{Name: "alice", Age: 30}, u)
	})
	t.Run("validate", func(t *testing.T) {
		type usr struct {
			Name string `validate:"required"`
		}
		assert.NotNil(t, util.ValidateStruct(usr{}))
		assert.Nil(t, util.ValidateStruct(usr{Name: "alice"}))
	})
	t.Run("to slice", func(t *testing.T) {
		values, ok := util.ToSlice([]string{"a", "b"})
		assert.True(t, ok)
		assert.Equal(t, []any{"a", "b"}, values)
		_, ok = util.ToSlice("a")
		assert.False(t, ok)
		_, ok = util.ToSlice(nil)
		assert.False(t, ok)
	})
}
