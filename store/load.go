package store

import (
	"context"
	"sort"
	"time"

	"github.com/autom8ter/livequery/errors"
	"github.com/autom8ter/livequery/internal/prefix"
	"github.com/autom8ter/livequery/kv"
	"github.com/autom8ter/livequery/model"
	"github.com/autom8ter/livequery/util"
	"github.com/samber/lo"
	"github.com/spf13/cast"
)

// Load lists the documents in the collection matching the query. Documents missing an
// order by field are excluded. Ties are broken by document id. The returned cursor is the
// last document of a full page and nil once the result set is exhausted.
func (db *DB) Load(ctx context.Context, collection string, query model.Query) (*model.Page, error) {
	if err := validCollection(collection); err != nil {
		return nil, err
	}
	if query.Limit < 0 {
		return nil, errors.New(errors.Validation, "negative limit: %d", query.Limit)
	}
	start := time.Now()
	var matched []*Document
	if err := db.kv.Tx(false, func(tx kv.Tx) error {
		iter := tx.NewIterator(kv.IterOpts{Prefix: prefix.Collection(collection)})
		defer iter.Close()
		for ; iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			bits, err := iter.Value()
			if err != nil {
				return err
			}
			doc, err := NewDocumentFromBytes(prefix.ID(collection, iter.Key()), bits)
			if err != nil {
				return err
			}
			if !hasFields(doc, query.OrderBy) {
				continue
			}
			ok, err := doc.Match(query.Filters)
			if err != nil {
				return err
			}
			if ok {
				matched = append(matched, doc)
			}
		}
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, 0, "failed to load %s", collection)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return comparePositions(positionOf(matched[i], query.OrderBy), positionOf(matched[j], query.OrderBy), query.OrderBy) < 0
	})
	if query.StartAfter != nil {
		cursor, err := db.cursorPosition(query.StartAfter, query.OrderBy)
		if err != nil {
			return nil, err
		}
		matched = lo.Filter(matched, func(doc *Document, _ int) bool {
			return comparePositions(positionOf(doc, query.OrderBy), cursor, query.OrderBy) > 0
		})
	}
	page := &model.Page{}
	if query.Limit > 0 && len(matched) >= query.Limit {
		matched = matched[:query.Limit]
		page.Cursor = matched[len(matched)-1]
	}
	page.Documents = lo.Map(matched, func(doc *Document, _ int) model.Snapshot {
		return doc
	})
	db.logger.Debug(ctx, "query executed", map[string]any{
		"collection": collection,
		"count":      len(page.Documents),
		"duration":   since(start),
	})
	return page, nil
}

func (db *DB) cursorPosition(startAfter any, orderBy []model.OrderBy) (position, error) {
	switch cursor := startAfter.(type) {
	case *Document:
		return positionOf(cursor, orderBy), nil
	case model.Snapshot:
		doc, err := NewDocumentFrom(cursor.ID(), cursor.Data())
		if err != nil {
			return position{}, err
		}
		return positionOf(doc, orderBy), nil
	}
	values, ok := util.ToSlice(startAfter)
	if !ok {
		values = []any{startAfter}
	}
	if len(values) == 0 {
		return position{}, errors.New(errors.Validation, "empty start after cursor")
	}
	if len(orderBy) == 0 {
		return position{id: cast.ToString(values[0]), hasID: true}, nil
	}
	if len(values) > len(orderBy) {
		return position{}, errors.New(errors.Validation, "start after cursor has more values than order by fields")
	}
	return position{values: values}, nil
}

func hasFields(doc *Document, orderBy []model.OrderBy) bool {
	for _, o := range orderBy {
		if !doc.Exists(o.Field) {
			return false
		}
	}
	return true
}
