package store

import (
	"reflect"
	"strings"

	"github.com/autom8ter/livequery/errors"
	"github.com/autom8ter/livequery/filter"
	"github.com/autom8ter/livequery/model"
	"github.com/autom8ter/livequery/util"
	"github.com/samber/lo"
	"github.com/spf13/cast"
)

// Match returns true if the document satisfies every constraint
func (d *Document) Match(constraints []filter.Constraint) (bool, error) {
	for _, c := range constraints {
		ok, err := d.matchConstraint(c)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func (d *Document) matchConstraint(c filter.Constraint) (bool, error) {
	switch c := c.(type) {
	case filter.Where:
		return d.matchWhere(c)
	case filter.Group:
		switch c.Op {
		case filter.And:
			return d.Match(c.Constraints)
		case filter.Or:
			for _, child := range c.Constraints {
				ok, err := d.matchConstraint(child)
				if err != nil {
					return false, err
				}
				if ok {
					return true, nil
				}
			}
			return false, nil
		default:
			return false, errors.New(errors.Validation, "invalid composite operator: '%s'", c.Op)
		}
	default:
		return false, errors.New(errors.Validation, "unsupported constraint: %#v", c)
	}
}

// matchWhere follows document store semantics: a document missing the field never matches
func (d *Document) matchWhere(w filter.Where) (bool, error) {
	field := d.result.Get(w.Field)
	if !field.Exists() {
		if !w.Op.IsStandard() {
			return false, errors.New(errors.Validation, "invalid operator: '%s'", w.Op)
		}
		return false, nil
	}
	value := field.Value()
	switch w.Op {
	case filter.OpEq:
		return equal(value, w.Value), nil
	case filter.OpNeq:
		return !equal(value, w.Value), nil
	case filter.OpLt, filter.OpLte, filter.OpGt, filter.OpGte:
		c, ok := compare(value, w.Value)
		if !ok {
			return false, nil
		}
		switch w.Op {
		case filter.OpLt:
			return c < 0, nil
		case filter.OpLte:
			return c <= 0, nil
		case filter.OpGt:
			return c > 0, nil
		default:
			return c >= 0, nil
		}
	case filter.OpIn, filter.OpNotIn:
		candidates, ok := util.ToSlice(w.Value)
		if !ok {
			return false, errors.New(errors.Validation, "'%s' requires a list value on field '%s'", w.Op, w.Field)
		}
		found := lo.ContainsBy(candidates, func(candidate any) bool {
			return equal(value, candidate)
		})
		return found == (w.Op == filter.OpIn), nil
	case filter.OpArrayContains:
		elements, ok := util.ToSlice(value)
		if !ok {
			return false, nil
		}
		return lo.ContainsBy(elements, func(element any) bool {
			return equal(element, w.Value)
		}), nil
	case filter.OpArrayContainsAny:
		elements, ok := util.ToSlice(value)
		if !ok {
			return false, nil
		}
		candidates, ok := util.ToSlice(w.Value)
		if !ok {
			return false, errors.New(errors.Validation, "'%s' requires a list value on field '%s'", w.Op, w.Field)
		}
		return lo.ContainsBy(elements, func(element any) bool {
			return lo.ContainsBy(candidates, func(candidate any) bool {
				return equal(element, candidate)
			})
		}), nil
	default:
		return false, errors.New(errors.Validation, "invalid operator: '%s'", w.Op)
	}
}

func isNumber(value any) bool {
	switch reflect.ValueOf(value).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// compare compares two values of the same comparable kind. ok is false if they are not comparable.
func compare(a, b any) (int, bool) {
	switch {
	case isNumber(a) && isNumber(b):
		fa, fb := cast.ToFloat64(a), cast.ToFloat64(b)
		switch {
		case fa < fb:
			return -1, true
		case fa > fb:
			return 1, true
		}
		return 0, true
	}
	switch a := a.(type) {
	case string:
		if b, ok := b.(string); ok {
			return strings.Compare(a, b), true
		}
	case bool:
		if b, ok := b.(bool); ok {
			switch {
			case a == b:
				return 0, true
			case !a:
				return -1, true
			}
			return 1, true
		}
	}
	return 0, false
}

func equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if c, ok := compare(a, b); ok {
		return c == 0
	}
	return util.JSONString(a) == util.JSONString(b)
}

// typeRank orders values of different types: null, booleans, numbers, strings, everything else
func typeRank(value any) int {
	switch {
	case value == nil:
		return 0
	case isNumber(value):
		return 2
	}
	switch value.(type) {
	case bool:
		return 1
	case string:
		return 3
	}
	return 4
}

// compareOrder is a total order over json values
func compareOrder(a, b any) int {
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		return ra - rb
	}
	if c, ok := compare(a, b); ok {
		return c
	}
	if ra == 0 {
		return 0
	}
	return strings.Compare(util.JSONString(a), util.JSONString(b))
}

// position is a document's place in an ordered result set
type position struct {
	values []any
	id     string
	hasID  bool
}

func positionOf(doc *Document, orderBy []model.OrderBy) position {
	values := make([]any, 0, len(orderBy))
	for _, o := range orderBy {
		values = append(values, doc.Get(o.Field))
	}
	return position{values: values, id: doc.ID(), hasID: true}
}

// comparePositions compares the order values, then ids when both positions have one. Ties on a
// partial tuple compare equal.
func comparePositions(a, b position, orderBy []model.OrderBy) int {
	for i, o := range orderBy {
		if i >= len(a.values) || i >= len(b.values) {
			return 0
		}
		c := compareOrder(a.values[i], b.values[i])
		if o.Direction == model.Desc {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	if len(a.values) < len(orderBy) || len(b.values) < len(orderBy) {
		return 0
	}
	if a.hasID && b.hasID {
		return strings.Compare(a.id, b.id)
	}
	return 0
}
