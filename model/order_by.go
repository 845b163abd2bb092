package model

import (
	"strings"

	"github.com/autom8ter/livequery/errors"
	"github.com/spf13/cast"
)

// Direction indicates whether results should be sorted in ascending or descending order
type Direction string

const (
	// Asc indicates ascending order
	Asc Direction = "asc"
	// Desc indicates descending order
	Desc Direction = "desc"
)

// OrderBy orders the result set by a given field in a given direction
type OrderBy struct {
	// Field is the field path to sort on
	Field string `json:"field" validate:"required"`
	// Direction is the sort direction
	Direction Direction `json:"direction" validate:"omitempty,oneof=asc desc"`
}

// Ascending orders by the field in ascending order
func Ascending(field string) OrderBy {
	return OrderBy{Field: field, Direction: Asc}
}

// Descending orders by the field in descending order
func Descending(field string) OrderBy {
	return OrderBy{Field: field, Direction: Desc}
}

// NormalizeOrder normalizes a singular or list order spec into an ordered list of field/direction pairs.
// A nil spec returns nil (no ordering). Accepted shapes are a field path, an OrderBy, a map with
// fieldPath and direction keys, or a list of any of those. Direction defaults to ascending.
func NormalizeOrder(spec any) ([]OrderBy, error) {
	switch spec := spec.(type) {
	case nil:
		return nil, nil
	case []OrderBy:
		return normalizeList(spec)
	case []string:
		return normalizeList(spec)
	case []any:
		return normalizeList(spec)
	case []map[string]any:
		return normalizeList(spec)
	default:
		ob, err := normalizeOne(spec)
		if err != nil {
			return nil, err
		}
		return []OrderBy{ob}, nil
	}
}

func normalizeList[T any](specs []T) ([]OrderBy, error) {
	if specs == nil {
		return nil, nil
	}
	var normalized = make([]OrderBy, 0, len(specs))
	for _, spec := range specs {
		ob, err := normalizeOne(spec)
		if err != nil {
			return nil, err
		}
		normalized = append(normalized, ob)
	}
	return normalized, nil
}

func normalizeOne(spec any) (OrderBy, error) {
	var ob OrderBy
	switch spec := spec.(type) {
	case string:
		ob = OrderBy{Field: spec}
	case OrderBy:
		ob = spec
	case *OrderBy:
		if spec == nil {
			return OrderBy{}, errors.New(errors.Validation, "nil order by")
		}
		ob = *spec
	case map[string]any:
		ob = OrderBy{
			Field:     cast.ToString(spec["fieldPath"]),
			Direction: Direction(cast.ToString(spec["direction"])),
		}
	default:
		return OrderBy{}, errors.New(errors.Validation, "unsupported order by: %#v", spec)
	}
	if ob.Field == "" {
		return OrderBy{}, errors.New(errors.Validation, "empty order by field path")
	}
	ob.Direction = Direction(strings.ToLower(string(ob.Direction)))
	switch ob.Direction {
	case "":
		ob.Direction = Asc
	case Asc, Desc:
	default:
		return OrderBy{}, errors.New(errors.Validation, "invalid order by direction: '%s'", ob.Direction)
	}
	return ob, nil
}
