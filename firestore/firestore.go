// Package firestore loads live query pages from Cloud Firestore.
package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/autom8ter/livequery/errors"
	"github.com/autom8ter/livequery/filter"
	"github.com/autom8ter/livequery/logger"
	"github.com/autom8ter/livequery/model"
	"github.com/autom8ter/livequery/util"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// Snapshot adapts a firestore document snapshot to model.Snapshot
type Snapshot struct {
	*firestore.DocumentSnapshot
}

// ID returns the document's id
func (s *Snapshot) ID() string {
	return s.Ref.ID
}

// Opt is an option for configuring a Loader
type Opt func(l *Loader)

// WithLogger sets the loader's logger
func WithLogger(l logger.Logger) Opt {
	return func(loader *Loader) {
		loader.logger = l
	}
}

// Loader implements model.Loader over a firestore client. A page's cursor is its last snapshot
// when the page is full.
type Loader struct {
	client *firestore.Client
	logger logger.Logger
}

// New creates a loader over an existing client
func New(client *firestore.Client, opts ...Opt) *Loader {
	l := &Loader{
		client: client,
		logger: logger.Noop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Open creates a client for the project and a loader over it. FIRESTORE_EMULATOR_HOST is honored.
func Open(ctx context.Context, projectID string, opts []option.ClientOption, loaderOpts ...Opt) (*Loader, error) {
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.Unavailable, "failed to create firestore client")
	}
	return New(client, loaderOpts...), nil
}

// Client returns the loader's firestore client
func (l *Loader) Client() *firestore.Client {
	return l.client
}

// Close closes the firestore client
func (l *Loader) Close() error {
	return l.client.Close()
}

// Load executes the query against the collection
func (l *Loader) Load(ctx context.Context, collection string, query model.Query) (*model.Page, error) {
	if collection == "" {
		return nil, errors.New(errors.Validation, "empty collection")
	}
	start := time.Now()
	q, err := Apply(l.client.Collection(collection).Query, query)
	if err != nil {
		return nil, err
	}
	iter := q.Documents(ctx)
	defer iter.Stop()
	page := &model.Page{}
	var last *Snapshot
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.Unavailable, "failed to query %s", collection)
		}
		last = &Snapshot{DocumentSnapshot: doc}
		page.Documents = append(page.Documents, last)
	}
	if query.Limit > 0 && len(page.Documents) >= query.Limit {
		page.Cursor = last
	}
	l.logger.Debug(ctx, "query executed", map[string]any{
		"collection": collection,
		"count":      len(page.Documents),
		"duration":   float64(time.Since(start).Microseconds()) / float64(1000),
	})
	return page, nil
}

// Apply applies the compiled query to a firestore query
func Apply(q firestore.Query, query model.Query) (firestore.Query, error) {
	for _, c := range query.Filters {
		ef, err := EntityFilter(c)
		if err != nil {
			return q, err
		}
		q = q.WhereEntity(ef)
	}
	for _, o := range query.OrderBy {
		q = q.OrderBy(o.Field, Direction(o.Direction))
	}
	if query.Limit > 0 {
		q = q.Limit(query.Limit)
	}
	if query.StartAfter != nil {
		cursor, err := StartAfter(query.StartAfter)
		if err != nil {
			return q, err
		}
		q = q.StartAfter(cursor...)
	}
	return q, nil
}

// EntityFilter translates a constraint into a firestore filter
func EntityFilter(c filter.Constraint) (firestore.EntityFilter, error) {
	switch c := c.(type) {
	case filter.Where:
		if !c.Op.IsStandard() {
			return nil, errors.New(errors.Validation, "unsupported firestore operator: '%s'", c.Op)
		}
		return firestore.PropertyFilter{
			Path:     c.Field,
			Operator: string(c.Op),
			Value:    c.Value,
		}, nil
	case filter.Group:
		var filters []firestore.EntityFilter
		for _, child := range c.Constraints {
			ef, err := EntityFilter(child)
			if err != nil {
				return nil, err
			}
			filters = append(filters, ef)
		}
		switch c.Op {
		case filter.And:
			return firestore.AndFilter{Filters: filters}, nil
		case filter.Or:
			return firestore.OrFilter{Filters: filters}, nil
		}
		return nil, errors.New(errors.Validation, "invalid composite operator: '%s'", c.Op)
	}
	return nil, errors.New(errors.Validation, "unsupported constraint: %#v", c)
}

// Direction translates an order direction
func Direction(direction model.Direction) firestore.Direction {
	if direction == model.Desc {
		return firestore.Desc
	}
	return firestore.Asc
}

// StartAfter translates a start after cursor into firestore cursor arguments: a document
// snapshot or a list of order by field values
func StartAfter(cursor any) ([]any, error) {
	switch cursor := cursor.(type) {
	case *Snapshot:
		return []any{cursor.DocumentSnapshot}, nil
	case *firestore.DocumentSnapshot:
		return []any{cursor}, nil
	case model.Snapshot:
		return nil, errors.New(errors.Validation, "start after snapshot %s is not a firestore document", cursor.ID())
	}
	if values, ok := util.ToSlice(cursor); ok {
		if len(values) == 0 {
			return nil, errors.New(errors.Validation, "empty start after cursor")
		}
		return values, nil
	}
	return []any{cursor}, nil
}
