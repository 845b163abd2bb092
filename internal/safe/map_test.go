package safe_test

import (
	"fmt"
	"testing"

	"github.com/autom8ter/livequery/internal/safe"
	"github.com/spf13/cast"
	"github.com/stretchr/testify/assert"
)

func Test(t *testing.T) {
	m := safe.Map[map[string]any]{}
	assert.False(t, m.Exists("1"))
	for i := 0; i < 10; i++ {
		m.Set(fmt.Sprint(i), map[string]any{
			"value": i,
		})
	}
	assert.Equal(t, 10, m.Len())
	for i := 0; i < 10; i++ {
		assert.True(t, m.Exists(fmt.Sprint(i)))
		entry := m.Get(fmt.Sprint(i))
		assert.Equal(t, entry["value"], i)
	}
	var keys []string
	m.Range(func(key string, entry map[string]any) bool {
		assert.Equal(t, entry["value"], cast.ToInt(key))
		keys = append(keys, key)
		return true
	})
	assert.Equal(t, []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9"}, keys)
	m.Range(func(key string, _ map[string]any) bool {
		m.Del(key)
		return true
	})
	for i := 0; i < 10; i++ {
		assert.False(t, m.Exists(fmt.Sprint(i)))
	}
	assert.Empty(t, m.AsMap())
}
