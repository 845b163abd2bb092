package filter

import (
	"github.com/autom8ter/livequery/errors"
)

// Merge deep merges patch into base and returns the result. Nested objects and composites
// with matching paths are merged recursively; any other node in patch replaces the node in
// base wholesale. Paths absent from base are appended in patch order. Neither input is modified.
func Merge(base, patch Filters) Filters {
	merged := base.Clone()
	for _, entry := range patch {
		i := merged.index(entry.Path)
		if i < 0 {
			merged = append(merged, cloneEntry(entry))
			continue
		}
		merged[i].Node = mergeNode(merged[i].Node, entry.Node)
	}
	return merged
}

func mergeNode(base, patch Node) Node {
	switch patch := patch.(type) {
	case Nested:
		if base, ok := base.(Nested); ok {
			return Nested(Merge(Filters(base), Filters(patch)))
		}
	case Composite:
		if base, ok := base.(Composite); ok {
			op := patch.Op
			if op == "" {
				op = base.Op
			}
			return Composite{Op: op, Filters: Merge(base.Filters, patch.Filters)}
		}
	}
	return cloneNode(patch)
}

// Clone deep copies the filter tree. Leaf values are shared.
func (f Filters) Clone() Filters {
	if f == nil {
		return nil
	}
	cloned := make(Filters, 0, len(f))
	for _, entry := range f {
		cloned = append(cloned, cloneEntry(entry))
	}
	return cloned
}

func cloneEntry(entry Entry) Entry {
	return Entry{Path: entry.Path, Node: cloneNode(entry.Node)}
}

func cloneNode(node Node) Node {
	switch node := node.(type) {
	case Nested:
		return Nested(Filters(node).Clone())
	case Composite:
		return Composite{Op: node.Op, Filters: node.Filters.Clone()}
	default:
		return node
	}
}

// Validate returns a validation error if the filter tree contains an unknown operator
func (f Filters) Validate() error {
	for _, entry := range f {
		if entry.Path == "" {
			if _, ok := entry.Node.(Composite); !ok {
				return errors.New(errors.Validation, "empty field path")
			}
		}
		switch node := entry.Node.(type) {
		case Primitive:
			if !node.Op.Valid() {
				return errors.New(errors.Validation, "invalid operator: '%s' on field '%s'", node.Op, entry.Path)
			}
		case Composite:
			if !node.Op.Valid() {
				return errors.New(errors.Validation, "invalid composite operator: '%s'", node.Op)
			}
			if err := node.Filters.Validate(); err != nil {
				return err
			}
		case Nested:
			if err := Filters(node).Validate(); err != nil {
				return errors.Wrap(err, 0, "invalid nested filter: '%s'", entry.Path)
			}
		}
	}
	return nil
}
