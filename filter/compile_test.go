package filter_test

import (
	"testing"

	"github.com/autom8ter/livequery/filter"
	"github.com/stretchr/testify/assert"
)

func TestCompile(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, filter.Compile(nil, ""))
		assert.Empty(t, filter.Compile(filter.Filters{}, ""))
		assert.NotNil(t, filter.Compile(filter.Filters{}, ""))
	})
	t.Run("raw constraints pass through", func(t *testing.T) {
		raw := filter.Constraints{
			filter.Where{Field: "age", Op: filter.OpGt, Value: 10},
			filter.Group{Op: filter.Or, Constraints: []filter.Constraint{
				filter.Where{Field: "a", Op: filter.OpEq, Value: 1},
			}},
		}
		assert.Equal(t, []filter.Constraint(raw), filter.Compile(raw, "ignored."))
	})
	t.Run("scalar equality", func(t *testing.T) {
		constraints := filter.Compile(filter.Filters{filter.Eq("name", "Alice"), filter.Eq("age", 30)}, "")
		assert.Equal(t, []filter.Constraint{
			filter.Where{Field: "name", Op: filter.OpEq, Value: "Alice"},
			filter.Where{Field: "age", Op: filter.OpEq, Value: 30},
		}, constraints)
	})
	t.Run("standard operators", func(t *testing.T) {
		constraints := filter.Compile(filter.Filters{
			filter.Is("age", filter.OpGte, 21),
			filter.Is("tags", filter.OpArrayContainsAny, []string{"a", "b"}),
			filter.Is("status", filter.OpNotIn, []string{"deleted"}),
		}, "")
		assert.Equal(t, []filter.Constraint{
			filter.Where{Field: "age", Op: filter.OpGte, Value: 21},
			filter.Where{Field: "tags", Op: filter.OpArrayContainsAny, Value: []string{"a", "b"}},
			filter.Where{Field: "status", Op: filter.OpNotIn, Value: []string{"deleted"}},
		}, constraints)
	})
	t.Run("base path", func(t *testing.T) {
		constraints := filter.Compile(filter.Filters{filter.Eq("email", "a@b.c")}, "contact.")
		assert.Equal(t, []filter.Constraint{
			filter.Where{Field: "contact.email", Op: filter.OpEq, Value: "a@b.c"},
		}, constraints)
	})
	t.Run("nested field paths", func(t *testing.T) {
		constraints := filter.Compile(filter.Filters{
			filter.Object("contact",
				filter.Eq("email", "a@b.c"),
				filter.Object("address", filter.Is("zip", filter.OpIn, []string{"10001"})),
			),
		}, "")
		assert.Equal(t, []filter.Constraint{
			filter.Where{Field: "contact.email", Op: filter.OpEq, Value: "a@b.c"},
			filter.Where{Field: "contact.address.zip", Op: filter.OpIn, Value: []string{"10001"}},
		}, constraints)
	})
	t.Run("starts with", func(t *testing.T) {
		constraints := filter.Compile(filter.Filters{filter.Is("name", filter.OpStartsWith, "Al")}, "")
		assert.Equal(t, []filter.Constraint{
			filter.Where{Field: "name", Op: filter.OpGte, Value: "Al"},
			filter.Where{Field: "name", Op: filter.OpLte, Value: "Al" + filter.MaxChar},
		}, constraints)
	})
	t.Run("starts with falsy", func(t *testing.T) {
		for _, v := range []any{"", nil, 0, false} {
			assert.Empty(t, filter.Compile(filter.Filters{filter.Is("name", filter.OpStartsWith, v)}, ""))
			assert.Empty(t, filter.Compile(filter.Filters{filter.Is("name", filter.OpStartsWithI, v)}, ""))
		}
	})
	t.Run("starts with case insensitive", func(t *testing.T) {
		constraints := filter.Compile(filter.Filters{filter.Is("name", filter.OpStartsWithI, "al")}, "")
		assert.Len(t, constraints, 1)
		or, ok := constraints[0].(filter.Group)
		assert.True(t, ok)
		assert.Equal(t, filter.Or, or.Op)
		assert.Len(t, or.Constraints, 3)
		var prefixes []any
		leaves := 0
		for _, branch := range or.Constraints {
			and, ok := branch.(filter.Group)
			assert.True(t, ok)
			assert.Equal(t, filter.And, and.Op)
			assert.Len(t, and.Constraints, 2)
			leaves += len(and.Constraints)
			prefixes = append(prefixes, and.Constraints[0].(filter.Where).Value)
		}
		assert.Equal(t, 6, leaves)
		assert.Equal(t, []any{"al", "al", "Al"}, prefixes)
	})
	t.Run("starts with case insensitive title cases words", func(t *testing.T) {
		constraints := filter.Compile(filter.Filters{filter.Is("name", filter.OpStartsWithI, "JOHN sm")}, "")
		or := constraints[0].(filter.Group)
		assert.Equal(t, filter.Group{Op: filter.And, Constraints: []filter.Constraint{
			filter.Where{Field: "name", Op: filter.OpGte, Value: "John Sm"},
			filter.Where{Field: "name", Op: filter.OpLte, Value: "John Sm" + filter.MaxChar},
		}}, or.Constraints[2])
		assert.Equal(t, "john sm", or.Constraints[1].(filter.Group).Constraints[0].(filter.Where).Value)
	})
	t.Run("composite", func(t *testing.T) {
		constraints := filter.Compile(filter.Filters{filter.AnyOf("", filter.Eq("a", 1), filter.Eq("b", 2))}, "")
		assert.Equal(t, []filter.Constraint{
			filter.Group{Op: filter.Or, Constraints: []filter.Constraint{
				filter.Where{Field: "a", Op: filter.OpEq, Value: 1},
				filter.Where{Field: "b", Op: filter.OpEq, Value: 2},
			}},
		}, constraints)
	})
	t.Run("composite keeps base path", func(t *testing.T) {
		constraints := filter.Compile(filter.Filters{
			filter.Object("contact", filter.AllOf("any", filter.Eq("email", "x"), filter.Is("age", filter.OpLt, 3))),
		}, "")
		assert.Equal(t, []filter.Constraint{
			filter.Group{Op: filter.And, Constraints: []filter.Constraint{
				filter.Where{Field: "contact.email", Op: filter.OpEq, Value: "x"},
				filter.Where{Field: "contact.age", Op: filter.OpLt, Value: 3},
			}},
		}, constraints)
	})
	t.Run("deterministic", func(t *testing.T) {
		spec := filter.Filters{
			filter.Eq("z", 1),
			filter.Is("name", filter.OpStartsWithI, "bo"),
			filter.Object("a", filter.Eq("y", 2), filter.Eq("b", 3)),
			filter.AnyOf("", filter.Eq("q", 1), filter.Is("r", filter.OpStartsWith, "x")),
		}
		first := filter.Compile(spec, "")
		for i := 0; i < 10; i++ {
			assert.Equal(t, first, filter.Compile(spec, ""))
		}
	})
}
