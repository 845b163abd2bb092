// Package filter compiles nested, declarative filter trees into the flat primitive
// constraints a document store understands.
package filter

import "strings"

// MaxChar sorts after any realistic string content in the store's lexicographic ordering.
// It bounds the upper end of prefix range queries.
const MaxChar = "\uf8ff"

// Op is an operator used to compare a value to a document's field value
type Op string

const (
	// OpEq matches on equality
	OpEq Op = "=="
	// OpNeq matches on inequality
	OpNeq Op = "!="
	// OpLt matches on less than
	OpLt Op = "<"
	// OpLte matches on less than or equal to
	OpLte Op = "<="
	// OpGt matches on greater than
	OpGt Op = ">"
	// OpGte matches on greater than or equal to
	OpGte Op = ">="
	// OpIn matches on the field value being contained in a list
	OpIn Op = "in"
	// OpNotIn matches on the field value not being contained in a list
	OpNotIn Op = "not-in"
	// OpArrayContains matches on an array field containing the value
	OpArrayContains Op = "array-contains"
	// OpArrayContainsAny matches on an array field containing any element of a list
	OpArrayContainsAny Op = "array-contains-any"
	// OpStartsWith matches string fields with the given prefix
	OpStartsWith Op = "starts-with"
	// OpStartsWithI matches string fields with the given prefix, ignoring case
	OpStartsWithI Op = "starts-with-i"
)

var standardOps = map[Op]struct{}{
	OpEq:               {},
	OpNeq:              {},
	OpLt:               {},
	OpLte:              {},
	OpGt:               {},
	OpGte:              {},
	OpIn:               {},
	OpNotIn:            {},
	OpArrayContains:    {},
	OpArrayContainsAny: {},
}

// IsStandard returns true if the operator can be sent to the store without translation
func (o Op) IsStandard() bool {
	_, ok := standardOps[o]
	return ok
}

// Valid returns true if the operator is a standard or convenience operator
func (o Op) Valid() bool {
	return o.IsStandard() || o == OpStartsWith || o == OpStartsWithI
}

// Logic combines constraints
type Logic string

const (
	And Logic = "AND"
	Or  Logic = "OR"
)

// Valid returns true if the logic operator is AND or OR
func (l Logic) Valid() bool {
	return l == And || l == Or
}

// ParseLogic parses a logic operator case-insensitively
func ParseLogic(s string) (Logic, bool) {
	l := Logic(strings.ToUpper(s))
	return l, l.Valid()
}

// Node is a value in a filter tree: Scalar, Primitive, Composite or Nested
type Node interface {
	isNode()
}

// Scalar matches a field on equality
type Scalar struct {
	Value any
}

// Primitive compares a field against a value with an operator
type Primitive struct {
	Op    Op
	Value any
}

// Composite combines child filters with AND or OR
type Composite struct {
	Op      Logic
	Filters Filters
}

// Nested descends into a sub-object: child paths are joined to the parent path with '.'
type Nested Filters

func (Scalar) isNode()    {}
func (Primitive) isNode() {}
func (Composite) isNode() {}
func (Nested) isNode()    {}

// Entry is a single field path and the filter applied to it
type Entry struct {
	Path string
	Node Node
}

// Spec is a filter specification: either Filters or raw Constraints
type Spec interface {
	isSpec()
	// Empty returns true if the spec selects everything
	Empty() bool
}

// Filters is an ordered filter tree. Order is significant: it is the compile order.
type Filters []Entry

func (Filters) isSpec() {}

// Empty returns true if there are no entries
func (f Filters) Empty() bool {
	return len(f) == 0
}

// Get returns the node at the given path (top level only)
func (f Filters) Get(path string) (Node, bool) {
	i := f.index(path)
	if i < 0 {
		return nil, false
	}
	return f[i].Node, true
}

func (f Filters) index(path string) int {
	for i, e := range f {
		if e.Path == path {
			return i
		}
	}
	return -1
}

// Constraints is a raw list of primitive constraints that bypasses compilation
type Constraints []Constraint

func (Constraints) isSpec() {}

// Empty returns true if there are no constraints
func (c Constraints) Empty() bool {
	return len(c) == 0
}

// Field creates a filter entry
func Field(path string, node Node) Entry {
	return Entry{Path: path, Node: node}
}

// Eq creates an equality entry
func Eq(path string, value any) Entry {
	return Entry{Path: path, Node: Scalar{Value: value}}
}

// Is creates a primitive entry
func Is(path string, op Op, value any) Entry {
	return Entry{Path: path, Node: Primitive{Op: op, Value: value}}
}

// Object creates a nested entry
func Object(path string, entries ...Entry) Entry {
	return Entry{Path: path, Node: Nested(entries)}
}

// AllOf creates a composite AND entry. The path is only used as the entry's key.
func AllOf(path string, entries ...Entry) Entry {
	return Entry{Path: path, Node: Composite{Op: And, Filters: entries}}
}

// AnyOf creates a composite OR entry. The path is only used as the entry's key.
func AnyOf(path string, entries ...Entry) Entry {
	return Entry{Path: path, Node: Composite{Op: Or, Filters: entries}}
}

// Constraint is a primitive query constraint: Where or Group
type Constraint interface {
	isConstraint()
}

// Where compares a field path against a value with a standard operator
type Where struct {
	Field string
	Op    Op
	Value any
}

// Group combines constraints with AND or OR
type Group struct {
	Op          Logic
	Constraints []Constraint
}

func (Where) isConstraint() {}
func (Group) isConstraint() {}
