// Package livequery keeps a result set bound to a changing set of query options consistent.
// A State holds the current filters, limit, ordering and start after cursor, Merge applies
// partial updates to it, and an Executor re-executes the query whenever the options change,
// debouncing bursts of changes and discarding results that arrive after a newer execution started.
package livequery

import (
	"github.com/autom8ter/livequery/filter"
	"github.com/autom8ter/livequery/model"
)

// Revision counts how many times each option has been set. A field whose revision changed has
// changed by reference, even if it was set to an equal value.
type Revision struct {
	Filters    uint64 `json:"filters"`
	Limit      uint64 `json:"limit"`
	OrderBy    uint64 `json:"orderBy"`
	StartAfter uint64 `json:"startAfter"`
}

// Options are the options of a live query
type Options struct {
	// Filters is either filter.Filters or raw filter.Constraints
	Filters filter.Spec `json:"filters,omitempty"`
	// Limit is the page size. Zero means no limit.
	Limit int `json:"limit,omitempty"`
	// OrderBy orders the result set
	OrderBy []model.OrderBy `json:"orderBy,omitempty"`
	// StartAfter is the cursor the next page starts after
	StartAfter any `json:"-"`
	// Revision is maintained by the State holding the options
	Revision Revision `json:"revision"`
}

// Query compiles the options into a store query
func (o Options) Query() model.Query {
	return model.Query{
		Filters:    filter.Compile(o.Filters, ""),
		OrderBy:    o.OrderBy,
		Limit:      o.Limit,
		StartAfter: o.StartAfter,
	}
}
