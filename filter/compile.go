package filter

import (
	"reflect"

	"github.com/spf13/cast"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Compile translates a filter spec into a flat list of primitive constraints. Entries are
// compiled in order so compiling the same spec twice yields identical constraint lists.
// Raw Constraints are returned unchanged.
func Compile(spec Spec, basePath string) []Constraint {
	if spec == nil || spec.Empty() {
		return []Constraint{}
	}
	switch spec := spec.(type) {
	case Constraints:
		return spec
	case Filters:
		return compileFilters(spec, basePath)
	default:
		return []Constraint{}
	}
}

func compileFilters(filters Filters, basePath string) []Constraint {
	var constraints = []Constraint{}
	for _, entry := range filters {
		path := basePath + entry.Path
		switch node := entry.Node.(type) {
		case Primitive:
			constraints = append(constraints, compilePrimitive(path, node.Op, node.Value)...)
		case Composite:
			constraints = append(constraints, Group{
				Op:          node.Op,
				Constraints: compileFilters(node.Filters, basePath),
			})
		case Nested:
			constraints = append(constraints, compileFilters(Filters(node), path+".")...)
		case Scalar:
			constraints = append(constraints, Where{Field: path, Op: OpEq, Value: node.Value})
		case nil:
			constraints = append(constraints, Where{Field: path, Op: OpEq, Value: nil})
		}
	}
	return constraints
}

func compilePrimitive(path string, op Op, value any) []Constraint {
	switch op {
	case OpStartsWith:
		if isFalsy(value) {
			return nil
		}
		return prefixRange(path, cast.ToString(value))
	case OpStartsWithI:
		if isFalsy(value) {
			return nil
		}
		prefix := cast.ToString(value)
		// the store only supports lexicographic ranges so case folding is approximated
		// with the common spellings of the prefix
		return []Constraint{Group{
			Op: Or,
			Constraints: []Constraint{
				Group{Op: And, Constraints: prefixRange(path, prefix)},
				Group{Op: And, Constraints: prefixRange(path, cases.Lower(language.Und).String(prefix))},
				Group{Op: And, Constraints: prefixRange(path, titleCase(prefix))},
			},
		}}
	default:
		return []Constraint{Where{Field: path, Op: op, Value: value}}
	}
}

func prefixRange(path string, prefix string) []Constraint {
	return []Constraint{
		Where{Field: path, Op: OpGte, Value: prefix},
		Where{Field: path, Op: OpLte, Value: prefix + MaxChar},
	}
}

// titleCase capitalizes the first letter of each word
func titleCase(s string) string {
	return cases.Title(language.Und).String(s)
}

func isFalsy(value any) bool {
	if value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return rv.IsZero()
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
