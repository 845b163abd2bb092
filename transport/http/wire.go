package http

import (
	"encoding/json"

	"github.com/autom8ter/livequery/errors"
	"github.com/autom8ter/livequery/filter"
	"github.com/autom8ter/livequery/model"
	"github.com/autom8ter/livequery/store"
	"github.com/tidwall/gjson"
)

// QueryRequest is the body of a query request
type QueryRequest struct {
	// Filters is either an array of constraints or a filters object
	Filters json.RawMessage `json:"filters,omitempty"`
	OrderBy []model.OrderBy `json:"order_by,omitempty" validate:"dive"`
	Limit   int             `json:"limit,omitempty" validate:"gte=0"`
	// StartAfter is the cursor the page starts after
	StartAfter *Cursor `json:"start_after,omitempty"`
}

// Cursor identifies a position in a result set, either by the id of a document in the result set
// or by a tuple of order by values
type Cursor struct {
	ID     string `json:"id,omitempty"`
	Values []any  `json:"values,omitempty"`
}

// QueryResponse is a page of documents
type QueryResponse struct {
	Documents []*store.Document `json:"documents"`
	// Cursor is set if there may be more documents after the page
	Cursor *Cursor `json:"cursor,omitempty"`
}

// constraints decodes the request's filters
func (q QueryRequest) constraints() ([]filter.Constraint, error) {
	if len(q.Filters) == 0 {
		return nil, nil
	}
	result := gjson.ParseBytes(q.Filters)
	switch {
	case result.Type == gjson.Null:
		return nil, nil
	case result.IsArray():
		return filter.ParseConstraints(q.Filters)
	case result.IsObject():
		filters, err := filter.Parse(q.Filters)
		if err != nil {
			return nil, err
		}
		if err := filters.Validate(); err != nil {
			return nil, err
		}
		return filter.Compile(filters, ""), nil
	}
	return nil, errors.New(errors.Validation, "filters must be an array of constraints or a filters object")
}

// requestCursor turns a query's start after value into a wire cursor
func requestCursor(startAfter any) (*Cursor, error) {
	switch cursor := startAfter.(type) {
	case nil:
		return nil, nil
	case *Cursor:
		return cursor, nil
	case Cursor:
		return &cursor, nil
	case model.Snapshot:
		return &Cursor{ID: cursor.ID()}, nil
	case []any:
		return &Cursor{Values: cursor}, nil
	}
	bits, err := json.Marshal(startAfter)
	if err != nil {
		return nil, errors.Wrap(err, errors.Validation, "unsupported start after cursor")
	}
	result := gjson.ParseBytes(bits)
	if result.IsArray() {
		return &Cursor{Values: result.Value().([]any)}, nil
	}
	return &Cursor{Values: []any{result.Value()}}, nil
}
