package prefix_test

import (
	"bytes"
	"testing"

	"github.com/autom8ter/livequery/internal/prefix"
	"github.com/stretchr/testify/assert"
)

func TestPrefix(t *testing.T) {
	key := prefix.Document("users/abc/posts", "123")
	assert.True(t, bytes.HasPrefix(key, prefix.Collection("users/abc/posts")))
	assert.True(t, bytes.HasPrefix(key, prefix.Collection("/users/abc/posts/")))
	assert.False(t, bytes.HasPrefix(key, prefix.Collection("users/abc")))
	assert.False(t, bytes.HasPrefix(prefix.Document("users2", "1"), prefix.Collection("users")))
	assert.Equal(t, "123", prefix.ID("users/abc/posts", key))
}
