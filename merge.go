package livequery

import (
	"github.com/autom8ter/livequery/errors"
	"github.com/autom8ter/livequery/filter"
	"github.com/autom8ter/livequery/model"
	"github.com/tidwall/gjson"
)

type fieldState int

const (
	undefined fieldState = iota
	null
	defined
)

// Field is an optional update value. The zero value is undefined and leaves the option unchanged.
type Field[T any] struct {
	value T
	state fieldState
}

// Set returns a field holding the value
func Set[T any](value T) Field[T] {
	return Field[T]{value: value, state: defined}
}

// Null returns a field that clears the option
func Null[T any]() Field[T] {
	return Field[T]{state: null}
}

// Defined returns true if the field is either set or null
func (f Field[T]) Defined() bool {
	return f.state != undefined
}

// IsNull returns true if the field clears the option
func (f Field[T]) IsNull() bool {
	return f.state == null
}

// Get returns the value and true if the field is set
func (f Field[T]) Get() (T, bool) {
	return f.value, f.state == defined
}

// Update is a partial update of a State's options
type Update struct {
	Filters    Field[filter.Spec]
	Limit      Field[int]
	OrderBy    Field[[]model.OrderBy]
	StartAfter Field[any]
}

// Merge applies the update to the state as a single mutation. Set filters are deep merged into
// the existing filters (raw constraints replace them), null filters clear them. Every other
// option is replaced when it is defined, null clearing it to its zero value. A nil update is a no-op.
func Merge(state *State, update *Update) {
	if update == nil {
		return
	}
	state.update(func(o *Options) bool {
		var changed bool
		if update.Filters.Defined() {
			o.Filters = mergeFilters(o.Filters, update.Filters)
			o.Revision.Filters++
			changed = true
		}
		if update.Limit.Defined() {
			o.Limit, _ = update.Limit.Get()
			o.Revision.Limit++
			changed = true
		}
		if update.OrderBy.Defined() {
			o.OrderBy, _ = update.OrderBy.Get()
			o.Revision.OrderBy++
			changed = true
		}
		if update.StartAfter.Defined() {
			o.StartAfter, _ = update.StartAfter.Get()
			o.Revision.StartAfter++
			changed = true
		}
		return changed
	})
}

// MergeFunc translates an arbitrary update, such as form values, with mapUpdate and merges the result
func MergeFunc[V any](state *State, update *V, mapUpdate func(V) *Update) {
	if update == nil || mapUpdate == nil {
		return
	}
	Merge(state, mapUpdate(*update))
}

func mergeFilters(prev filter.Spec, next Field[filter.Spec]) filter.Spec {
	spec, ok := next.Get()
	if !ok || spec == nil {
		return filter.Filters{}
	}
	patch, ok := spec.(filter.Filters)
	if !ok {
		return spec
	}
	base, _ := prev.(filter.Filters)
	return filter.Merge(base, patch)
}

// ParseUpdate parses a json update. Absent keys are undefined and null keys clear the option.
// filters may be a filters object or an array of raw constraints, orderBy may be any shape
// model.NormalizeOrder accepts. A null document returns a nil update.
func ParseUpdate(data []byte) (*Update, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New(errors.Validation, "invalid update json")
	}
	root := gjson.ParseBytes(data)
	if root.Type == gjson.Null {
		return nil, nil
	}
	if !root.IsObject() {
		return nil, errors.New(errors.Validation, "update must be an object")
	}
	update := &Update{}
	if result := root.Get("filters"); result.Exists() {
		switch {
		case result.Type == gjson.Null:
			update.Filters = Null[filter.Spec]()
		case result.IsArray():
			constraints, err := filter.ParseConstraints([]byte(result.Raw))
			if err != nil {
				return nil, err
			}
			update.Filters = Set[filter.Spec](filter.Constraints(constraints))
		default:
			filters, err := filter.Parse([]byte(result.Raw))
			if err != nil {
				return nil, err
			}
			update.Filters = Set[filter.Spec](filters)
		}
	}
	if result := root.Get("limit"); result.Exists() {
		switch result.Type {
		case gjson.Null:
			update.Limit = Null[int]()
		case gjson.Number:
			update.Limit = Set(int(result.Int()))
		default:
			return nil, errors.New(errors.Validation, "limit must be a number")
		}
	}
	if result := root.Get("orderBy"); result.Exists() {
		if result.Type == gjson.Null {
			update.OrderBy = Null[[]model.OrderBy]()
		} else {
			orderBy, err := model.NormalizeOrder(result.Value())
			if err != nil {
				return nil, err
			}
			update.OrderBy = Set(orderBy)
		}
	}
	if result := root.Get("startAfter"); result.Exists() {
		if result.Type == gjson.Null {
			update.StartAfter = Null[any]()
		} else {
			update.StartAfter = Set(result.Value())
		}
	}
	return update, nil
}
