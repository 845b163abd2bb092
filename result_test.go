package livequery_test

import (
	"context"
	"testing"
	"time"

	"github.com/autom8ter/livequery"
	"github.com/autom8ter/livequery/filter"
	"github.com/autom8ter/livequery/model"
	"github.com/autom8ter/livequery/store"
	"github.com/autom8ter/livequery/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type user struct {
	Name string `json:"name"`
	Age  int    `json:"age"`
}

func TestFromLoader(t *testing.T) {
	assert.Nil(t, testutil.TestDB(25, func(ctx context.Context, db *store.DB) {
		t.Run("maps documents", func(t *testing.T) {
			load := livequery.FromLoader[user](db)
			result, err := load(ctx, testutil.UserCollection, model.Query{Limit: 10}, livequery.DefaultMapper[user]())
			require.Nil(t, err)
			assert.Len(t, result.Items, 10)
			assert.NotNil(t, result.Cursor)
			for _, usr := range result.Items {
				assert.NotEmpty(t, usr.Name)
			}
		})
		t.Run("pages through a store", func(t *testing.T) {
			state := livequery.NewState(livequery.Options{
				Filters: filter.Filters{filter.Is("age", filter.OpGte, 0)},
				OrderBy: []model.OrderBy{model.Ascending("age")},
				Limit:   10,
			})
			e, err := livequery.New[user](testutil.UserCollection, state, db, livequery.WithDebounce[user](time.Millisecond))
			require.Nil(t, err)
			defer e.Close()
			require.Eventually(t, func() bool {
				return len(e.State().Items) == 10 && !e.State().Loading
			}, waitFor, tick)
			e.LoadNext()
			require.Eventually(t, func() bool {
				return len(e.State().Items) == 20 && !e.State().Loading
			}, waitFor, tick)
			e.LoadNext()
			require.Eventually(t, func() bool {
				return len(e.State().Items) == 25 && !e.State().Loading
			}, waitFor, tick)
			snapshot := e.State()
			assert.Nil(t, snapshot.Cursor)
			for i := 1; i < len(snapshot.Items); i++ {
				assert.LessOrEqual(t, snapshot.Items[i-1].Age, snapshot.Items[i].Age)
			}
		})
	}))
}
