package benchmarks

import (
	"context"
	"testing"

	"github.com/autom8ter/livequery/filter"
	"github.com/autom8ter/livequery/model"
	"github.com/autom8ter/livequery/store"
	"github.com/autom8ter/livequery/testutil"
	"github.com/stretchr/testify/assert"
)

func BenchmarkQuery(b *testing.B) {
	b.ReportAllocs()
	assert.Nil(b, testutil.TestDB(1000, func(ctx context.Context, db *store.DB) {
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_, err := db.Load(ctx, testutil.UserCollection, model.Query{
				Filters: []filter.Constraint{
					filter.Where{Field: "age", Op: filter.OpGt, Value: 50},
				},
			})
			assert.NoError(b, err)
		}
	}))
}

func BenchmarkQueryOrderedPage(b *testing.B) {
	b.ReportAllocs()
	assert.Nil(b, testutil.TestDB(1000, func(ctx context.Context, db *store.DB) {
		query := model.Query{
			Filters: filter.Compile(filter.Filters{filter.Is("name", filter.OpStartsWithI, "a")}, ""),
			OrderBy: []model.OrderBy{model.Descending("age"), model.Ascending("name")},
			Limit:   20,
		}
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_, err := db.Load(ctx, testutil.UserCollection, query)
			assert.NoError(b, err)
		}
	}))
}

func BenchmarkPut(b *testing.B) {
	b.ReportAllocs()
	assert.Nil(b, testutil.TestDB(0, func(ctx context.Context, db *store.DB) {
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_, err := db.Put(ctx, testutil.UserCollection, testutil.NewUserDoc())
			assert.NoError(b, err)
		}
	}))
}

func BenchmarkCompile(b *testing.B) {
	b.ReportAllocs()
	filters := filter.Filters{
		filter.Is("name", filter.OpStartsWithI, "al"),
		filter.Object("contact", filter.Is("email", filter.OpStartsWith, "al")),
		filter.AnyOf("", filter.Is("age", filter.OpLt, 18), filter.Is("age", filter.OpGt, 65)),
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		filter.Compile(filters, "")
	}
}
