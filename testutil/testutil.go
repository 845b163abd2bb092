package testutil

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	_ "embed"

	"github.com/autom8ter/livequery/model"
	"github.com/autom8ter/livequery/store"
	"github.com/brianvoe/gofakeit/v6"

	_ "github.com/autom8ter/livequery/kv/badger"
)

const UserCollection = "user"

var (
	//go:embed testdata/user.json
	UserSchema []byte
)

// NewUserDoc returns a fake user document
func NewUserDoc() *store.Document {
	doc, err := store.NewDocumentFrom(gofakeit.UUID(), map[string]any{
		"name": gofakeit.Name(),
		"contact": map[string]any{
			"email": gofakeit.Email(),
		},
		"account_id": gofakeit.IntRange(0, 100),
		"language":   gofakeit.Language(),
		"gender":     gofakeit.Gender(),
		"age":        gofakeit.IntRange(0, 100),
		"tags":       []string{gofakeit.HackerNoun(), gofakeit.HackerVerb()},
	})
	if err != nil {
		panic(err)
	}
	return doc
}

// NewDocs returns documents with the given ids, each with a name field equal to its id
func NewDocs(ids ...string) []*store.Document {
	var docs []*store.Document
	for _, id := range ids {
		doc, err := store.NewDocumentFrom(id, map[string]any{"name": id})
		if err != nil {
			panic(err)
		}
		docs = append(docs, doc)
	}
	return docs
}

// Page returns a page of documents with the given cursor
func Page(cursor any, docs ...*store.Document) *model.Page {
	page := &model.Page{Cursor: cursor}
	for _, doc := range docs {
		page.Documents = append(page.Documents, doc)
	}
	return page
}

// TestDB runs fn against a store backed by an in-memory badger database with the user
// collection's schema registered. count fake users are written before fn runs.
func TestDB(count int, fn func(ctx context.Context, db *store.DB), opts ...store.Opt) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	opts = append([]store.Opt{store.WithSchema(UserCollection, UserSchema)}, opts...)
	db, err := store.Open("badger", map[string]any{"storage_path": ""}, opts...)
	if err != nil {
		return err
	}
	defer db.Close()
	var docs []*store.Document
	for i := 0; i < count; i++ {
		docs = append(docs, NewUserDoc())
	}
	if len(docs) > 0 {
		if err := db.PutAll(ctx, UserCollection, docs); err != nil {
			return err
		}
	}
	fn(ctx, db)
	return nil
}

// TempDir creates a temporary storage directory and returns a function that removes it
func TempDir() (string, func(), error) {
	dir, err := os.MkdirTemp("", "livequery")
	if err != nil {
		return "", nil, err
	}
	return dir, func() { os.RemoveAll(dir) }, nil
}

// Call is a recorded call to a Loader
type Call struct {
	Collection string
	Query      model.Query
	done       chan struct{}
	once       sync.Once
	page       *model.Page
	err        error
}

// Resolve completes the call with the page or error
func (c *Call) Resolve(page *model.Page, err error) {
	c.once.Do(func() {
		c.page, c.err = page, err
		close(c.done)
	})
}

// Loader is a scripted model.Loader. Calls block until they are resolved unless Handler is set.
type Loader struct {
	Handler func(ctx context.Context, collection string, query model.Query) (*model.Page, error)

	mu    sync.Mutex
	calls []*Call
}

// Load records the call and waits for it to be resolved
func (l *Loader) Load(ctx context.Context, collection string, query model.Query) (*model.Page, error) {
	call := &Call{Collection: collection, Query: query, done: make(chan struct{})}
	l.mu.Lock()
	l.calls = append(l.calls, call)
	l.mu.Unlock()
	if l.Handler != nil {
		call.Resolve(l.Handler(ctx, collection, query))
	}
	select {
	case <-call.done:
		return call.page, call.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Calls returns the recorded calls
func (l *Loader) Calls() []*Call {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*Call{}, l.calls...)
}

// Count returns the number of recorded calls
func (l *Loader) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.calls)
}

// Call returns the i-th recorded call
func (l *Loader) Call(i int) *Call {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i >= len(l.calls) {
		panic(fmt.Sprintf("call %d was not made, %d calls recorded", i, len(l.calls)))
	}
	return l.calls[i]
}
