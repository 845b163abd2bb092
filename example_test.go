package livequery_test

import (
	"context"
	"fmt"
	"time"

	"github.com/autom8ter/livequery"
	"github.com/autom8ter/livequery/filter"
	_ "github.com/autom8ter/livequery/kv/badger"
	"github.com/autom8ter/livequery/model"
	"github.com/autom8ter/livequery/store"
)

func getDB() *store.DB {
	db, err := store.Open("badger", map[string]any{"storage_path": ""})
	if err != nil {
		panic(err)
	}
	for _, name := range []string{"alice", "Albert", "bob", "carol"} {
		doc, err := store.NewDocumentFrom(name, map[string]any{"name": name})
		if err != nil {
			panic(err)
		}
		if _, err := db.Put(context.Background(), "user", doc); err != nil {
			panic(err)
		}
	}
	return db
}

func ExampleNew() {
	db := getDB()
	defer db.Close()
	state := livequery.NewState(livequery.Options{
		Filters: filter.Filters{filter.Is("name", filter.OpStartsWithI, "al")},
		OrderBy: []model.OrderBy{model.Ascending("name")},
	})
	done := make(chan struct{})
	e, err := livequery.New[string]("user", state, db,
		livequery.WithDebounce[string](time.Millisecond),
		livequery.WithMap[string](func(snapshot model.Snapshot) (string, error) {
			return snapshot.Data()["name"].(string), nil
		}),
		livequery.OnLoadComplete(func(result *livequery.Result[string], err error) {
			close(done)
		}),
	)
	if err != nil {
		panic(err)
	}
	defer e.Close()
	<-done
	fmt.Println(e.State().Items)
	// Output: [Albert alice]
}
