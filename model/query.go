// Package model holds the compiled query handed to a document store and the page it returns.
package model

import (
	"context"

	"github.com/autom8ter/livequery/filter"
)

// Query is a compiled query against a collection of documents
type Query struct {
	// Filters are primitive constraints combined as a conjunction
	Filters []filter.Constraint `json:"filters"`
	// OrderBy orders the result set in the given field order
	OrderBy []OrderBy `json:"order_by,omitempty"`
	// Limit is the page size. Zero means no limit.
	Limit int `json:"limit,omitempty"`
	// StartAfter is either a Snapshot previously returned by the store, a tuple of order field values, or a single value
	StartAfter any `json:"-"`
}

// Page is a page of documents
type Page struct {
	// Documents are the documents that make up the page
	Documents []Snapshot
	// Cursor is the continuation token for the next page. It is nil when the result set is exhausted.
	Cursor any
}

// Snapshot is a document returned by a store
type Snapshot interface {
	// ID returns the document's id
	ID() string
	// Data returns the document's fields
	Data() map[string]any
	// DataTo decodes the document's fields into v
	DataTo(v any) error
}

// Loader lists documents from a collection
type Loader interface {
	Load(ctx context.Context, collection string, query Query) (*Page, error)
}

// LoaderFunc is a function that implements Loader
type LoaderFunc func(ctx context.Context, collection string, query Query) (*Page, error)

// Load calls the function
func (f LoaderFunc) Load(ctx context.Context, collection string, query Query) (*Page, error) {
	return f(ctx, collection, query)
}
