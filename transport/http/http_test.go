package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/autom8ter/livequery"
	"github.com/autom8ter/livequery/errors"
	"github.com/autom8ter/livequery/filter"
	"github.com/autom8ter/livequery/model"
	"github.com/autom8ter/livequery/store"
	"github.com/autom8ter/livequery/testutil"
	transport "github.com/autom8ter/livequery/transport/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func seedNumbered(t *testing.T, ctx context.Context, db *store.DB, count int) {
	var docs []*store.Document
	for i := 0; i < count; i++ {
		doc, err := store.NewDocumentFrom(fmt.Sprintf("doc%02d", i), map[string]any{
			"name":    fmt.Sprintf("user %02d", i),
			"age":     i % 5,
			"contact": map[string]any{"email": fmt.Sprintf("user%02d@example.com", i)},
		})
		require.Nil(t, err)
		docs = append(docs, doc)
	}
	require.Nil(t, db.PutAll(ctx, testutil.UserCollection, docs))
}

func TestClient(t *testing.T) {
	assert.Nil(t, testutil.TestDB(0, func(ctx context.Context, db *store.DB) {
		s := httptest.NewServer(transport.New(db).Handler())
		defer s.Close()
		client := transport.NewClient(s.URL)
		seedNumbered(t, ctx, db, 12)

		t.Run("put get", func(t *testing.T) {
			doc := testutil.NewUserDoc()
			_, err := client.Put(ctx, testutil.UserCollection, doc)
			require.Nil(t, err)
			got, err := client.Get(ctx, testutil.UserCollection, doc.ID())
			require.Nil(t, err)
			assert.Equal(t, doc.Get("contact.email"), got.Get("contact.email"))
		})
		t.Run("put invalid", func(t *testing.T) {
			doc, err := store.NewDocumentFrom("bad", map[string]any{"name": "x"})
			require.Nil(t, err)
			_, err = client.Put(ctx, testutil.UserCollection, doc)
			require.NotNil(t, err)
			assert.Equal(t, errors.Validation, errors.Extract(err).Code)
		})
		t.Run("patch", func(t *testing.T) {
			got, err := client.Patch(ctx, testutil.UserCollection, "doc00", map[string]any{"language": "en"})
			require.Nil(t, err)
			assert.Equal(t, "en", got.Get("language"))
			assert.Equal(t, "user 00", got.Get("name"))
		})
		t.Run("delete", func(t *testing.T) {
			doc := testutil.NewUserDoc()
			_, err := client.Put(ctx, testutil.UserCollection, doc)
			require.Nil(t, err)
			require.Nil(t, client.Delete(ctx, testutil.UserCollection, doc.ID()))
			_, err = client.Get(ctx, testutil.UserCollection, doc.ID())
			assert.Equal(t, errors.NotFound, errors.Extract(err).Code)
		})
		t.Run("load", func(t *testing.T) {
			page, err := client.Load(ctx, testutil.UserCollection, model.Query{
				Filters: filter.Compile(filter.Filters{filter.Eq("age", 2), filter.Is("name", filter.OpStartsWith, "user ")}, ""),
				OrderBy: []model.OrderBy{model.Descending("name")},
			})
			require.Nil(t, err)
			require.Len(t, page.Documents, 2)
			assert.Equal(t, "doc07", page.Documents[0].ID())
			assert.Equal(t, "doc02", page.Documents[1].ID())
			assert.Nil(t, page.Cursor)
		})
		t.Run("load with values cursor", func(t *testing.T) {
			page, err := client.Load(ctx, testutil.UserCollection, model.Query{
				OrderBy:    []model.OrderBy{model.Ascending("name")},
				StartAfter: []any{"user 09"},
			})
			require.Nil(t, err)
			require.Len(t, page.Documents, 2)
			assert.Equal(t, "doc10", page.Documents[0].ID())
		})
		t.Run("invalid query", func(t *testing.T) {
			_, err := client.Load(ctx, testutil.UserCollection, model.Query{Limit: -1})
			assert.Equal(t, errors.Validation, errors.Extract(err).Code)
		})
		t.Run("executor pages through the server", func(t *testing.T) {
			state := livequery.NewState(livequery.Options{
				Filters: filter.Filters{filter.Is("name", filter.OpStartsWith, "user")},
				OrderBy: []model.OrderBy{model.Ascending("age"), model.Ascending("name")},
				Limit:   5,
			})
			e, err := livequery.New[model.Snapshot](testutil.UserCollection, state, client,
				livequery.WithDebounce[model.Snapshot](time.Millisecond))
			require.Nil(t, err)
			defer e.Close()
			for _, count := range []int{5, 10, 12} {
				if count > 5 {
					e.LoadNext()
				}
				require.Eventually(t, func() bool {
					snapshot := e.State()
					return !snapshot.Loading && len(snapshot.Items) == count
				}, 2*time.Second, 5*time.Millisecond)
			}
			snapshot := e.State()
			assert.Nil(t, snapshot.Cursor)
			assert.Equal(t, "doc00", snapshot.Items[0].ID())
			seen := map[string]bool{}
			for _, item := range snapshot.Items {
				assert.False(t, seen[item.ID()], "duplicate %s", item.ID())
				seen[item.ID()] = true
			}
		})
	}))
}

func TestServer(t *testing.T) {
	assert.Nil(t, testutil.TestDB(0, func(ctx context.Context, db *store.DB) {
		seedNumbered(t, ctx, db, 3)
		t.Run("query filters object", func(t *testing.T) {
			s := httptest.NewServer(transport.New(db).Handler())
			defer s.Close()
			body := `{"filters": {"contact": {"email": {"operator": "starts-with", "value": "user01"}}}, "limit": 1}`
			resp, err := http.Post(s.URL+"/collections/user/query", "application/json", bytes.NewBufferString(body))
			require.Nil(t, err)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			var out transport.QueryResponse
			require.Nil(t, json.NewDecoder(resp.Body).Decode(&out))
			require.Len(t, out.Documents, 1)
			assert.Equal(t, "doc01", out.Documents[0].ID())
			require.NotNil(t, out.Cursor)
			assert.Equal(t, "doc01", out.Cursor.ID)
		})
		t.Run("invalid order by", func(t *testing.T) {
			s := httptest.NewServer(transport.New(db).Handler())
			defer s.Close()
			body := `{"order_by": [{"field": "age", "direction": "sideways"}]}`
			resp, err := http.Post(s.URL+"/collections/user/query", "application/json", bytes.NewBufferString(body))
			require.Nil(t, err)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
		t.Run("metrics", func(t *testing.T) {
			s := httptest.NewServer(transport.New(db).Handler())
			defer s.Close()
			_, err := http.Get(s.URL + "/collections/user/docs/doc00")
			require.Nil(t, err)
			resp, err := http.Get(s.URL + "/metrics")
			require.Nil(t, err)
			defer resp.Body.Close()
			bits, err := io.ReadAll(resp.Body)
			require.Nil(t, err)
			assert.Contains(t, string(bits), "livequery_http_requests_total")
		})
		t.Run("rate limit", func(t *testing.T) {
			s := httptest.NewServer(transport.New(db, transport.WithRateLimit(rate.Limit(0.001), 1)).Handler())
			defer s.Close()
			resp, err := http.Get(s.URL + "/collections/user/docs/doc00")
			require.Nil(t, err)
			resp.Body.Close()
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			resp, err = http.Get(s.URL + "/collections/user/docs/doc00")
			require.Nil(t, err)
			resp.Body.Close()
			assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
		})
	}))
}
