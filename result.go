package livequery

import (
	"context"

	"github.com/autom8ter/livequery/errors"
	"github.com/autom8ter/livequery/model"
)

// Result is a page of mapped items
type Result[T any] struct {
	Items []T `json:"items"`
	// Cursor is the continuation token for the next page. It is nil when the result set is exhausted.
	Cursor any `json:"-"`
}

// Mapper maps a store snapshot into a view model
type Mapper[T any] func(snapshot model.Snapshot) (T, error)

// LoadFunc executes a query against a collection, mapping every snapshot with the mapper
type LoadFunc[T any] func(ctx context.Context, collection string, query model.Query, mapper Mapper[T]) (*Result[T], error)

// DefaultMapper returns the snapshot itself if it is a T and otherwise decodes the snapshot's data into a T
func DefaultMapper[T any]() Mapper[T] {
	return func(snapshot model.Snapshot) (T, error) {
		if value, ok := snapshot.(T); ok {
			return value, nil
		}
		var value T
		if err := snapshot.DataTo(&value); err != nil {
			return value, errors.Wrap(err, errors.Internal, "failed to map %s", snapshot.ID())
		}
		return value, nil
	}
}

// FromLoader adapts a store's list function into a LoadFunc
func FromLoader[T any](loader model.Loader) LoadFunc[T] {
	return func(ctx context.Context, collection string, query model.Query, mapper Mapper[T]) (*Result[T], error) {
		page, err := loader.Load(ctx, collection, query)
		if err != nil {
			return nil, err
		}
		result := &Result[T]{
			Items:  make([]T, 0, len(page.Documents)),
			Cursor: page.Cursor,
		}
		for _, snapshot := range page.Documents {
			item, err := mapper(snapshot)
			if err != nil {
				return nil, err
			}
			result.Items = append(result.Items, item)
		}
		return result, nil
	}
}
