package firestore_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	gfirestore "cloud.google.com/go/firestore"
	"github.com/autom8ter/livequery/filter"
	"github.com/autom8ter/livequery/firestore"
	"github.com/autom8ter/livequery/model"
	"github.com/autom8ter/livequery/store"
	"github.com/segmentio/ksuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityFilter(t *testing.T) {
	t.Run("where", func(t *testing.T) {
		ef, err := firestore.EntityFilter(filter.Where{Field: "age", Op: filter.OpGte, Value: 3})
		require.Nil(t, err)
		assert.Equal(t, gfirestore.PropertyFilter{Path: "age", Operator: ">=", Value: 3}, ef)
	})
	t.Run("starts with i", func(t *testing.T) {
		constraints := filter.Compile(filter.Filters{filter.Is("name", filter.OpStartsWithI, "al")}, "")
		require.Len(t, constraints, 1)
		ef, err := firestore.EntityFilter(constraints[0])
		require.Nil(t, err)
		or, ok := ef.(gfirestore.OrFilter)
		require.True(t, ok)
		require.Len(t, or.Filters, 3)
		and, ok := or.Filters[2].(gfirestore.AndFilter)
		require.True(t, ok)
		assert.Equal(t, gfirestore.PropertyFilter{Path: "name", Operator: ">=", Value: "Al"}, and.Filters[0])
		assert.Equal(t, gfirestore.PropertyFilter{Path: "name", Operator: "<=", Value: "Al" + filter.MaxChar}, and.Filters[1])
	})
	t.Run("unsupported operator", func(t *testing.T) {
		_, err := firestore.EntityFilter(filter.Where{Field: "name", Op: filter.OpStartsWith, Value: "al"})
		assert.NotNil(t, err)
	})
}

func TestStartAfter(t *testing.T) {
	values, err := firestore.StartAfter([]any{30, "alice"})
	require.Nil(t, err)
	assert.Equal(t, []any{30, "alice"}, values)
	values, err = firestore.StartAfter(30)
	require.Nil(t, err)
	assert.Equal(t, []any{30}, values)
	_, err = firestore.StartAfter([]any{})
	assert.NotNil(t, err)
	_, err = firestore.StartAfter(store.NewDocument("x"))
	assert.NotNil(t, err)
	assert.Equal(t, gfirestore.Desc, firestore.Direction(model.Desc))
	assert.Equal(t, gfirestore.Asc, firestore.Direction(""))
}

// TestEmulator runs against a firestore emulator when FIRESTORE_EMULATOR_HOST is set
func TestEmulator(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST is not set")
	}
	ctx := context.Background()
	loader, err := firestore.Open(ctx, "livequery-test", nil)
	require.Nil(t, err)
	defer loader.Close()
	collection := fmt.Sprintf("users-%s", ksuid.New().String())
	for i := 0; i < 5; i++ {
		_, err := loader.Client().Collection(collection).Doc(fmt.Sprintf("u%d", i)).Set(ctx, map[string]any{
			"name": fmt.Sprintf("user %d", i),
			"age":  i,
		})
		require.Nil(t, err)
	}
	query := model.Query{
		Filters: filter.Compile(filter.Filters{filter.Is("age", filter.OpGte, 1)}, ""),
		OrderBy: []model.OrderBy{model.Ascending("age")},
		Limit:   2,
	}
	page, err := loader.Load(ctx, collection, query)
	require.Nil(t, err)
	require.Len(t, page.Documents, 2)
	assert.Equal(t, "u1", page.Documents[0].ID())
	require.NotNil(t, page.Cursor)
	query.StartAfter = page.Cursor
	page, err = loader.Load(ctx, collection, query)
	require.Nil(t, err)
	require.Len(t, page.Documents, 2)
	assert.Equal(t, "u3", page.Documents[0].ID())
}
