package filter

import (
	"bytes"
	"encoding/json"

	"github.com/autom8ter/livequery/errors"
	"github.com/samber/lo"
	"github.com/tidwall/gjson"
)

// Parse parses a JSON filter object. Object key order is preserved. An object whose keys are
// exactly {operator, value} is a primitive filter, exactly {operator, filters} is a composite,
// and any other object is a nested field path. The root object may itself be a composite.
func Parse(data []byte) (Filters, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	if !gjson.ValidBytes(data) {
		return nil, errors.New(errors.Validation, "invalid json: %s", string(data))
	}
	result := gjson.ParseBytes(data)
	return parseResult(result)
}

func parseResult(result gjson.Result) (Filters, error) {
	if result.Type == gjson.Null {
		return nil, nil
	}
	if !result.IsObject() {
		return nil, errors.New(errors.Validation, "filters must be a json object: %s", result.Raw)
	}
	if isComposite(result) {
		return Filters{{Path: "", Node: parseNode(result)}}, nil
	}
	return parseObject(result), nil
}

// UnmarshalJSON satisfies the json Unmarshaler interface
func (f *Filters) UnmarshalJSON(data []byte) error {
	filters, err := Parse(data)
	if err != nil {
		return err
	}
	*f = filters
	return nil
}

// MarshalJSON satisfies the json Marshaler interface
func (f Filters) MarshalJSON() ([]byte, error) {
	if len(f) == 1 && f[0].Path == "" {
		if _, ok := f[0].Node.(Composite); ok {
			return marshalNode(f[0].Node)
		}
	}
	return marshalObject(f)
}

func parseObject(obj gjson.Result) Filters {
	var filters = Filters{}
	obj.ForEach(func(key, value gjson.Result) bool {
		filters = append(filters, Entry{Path: key.String(), Node: parseNode(value)})
		return true
	})
	return filters
}

func parseNode(value gjson.Result) Node {
	if !value.IsObject() {
		return Scalar{Value: value.Value()}
	}
	switch {
	case hasExactKeys(value, "operator", "value"):
		return Primitive{
			Op:    Op(value.Get("operator").String()),
			Value: value.Get("value").Value(),
		}
	case isComposite(value):
		op, _ := ParseLogic(value.Get("operator").String())
		return Composite{
			Op:      op,
			Filters: parseObject(value.Get("filters")),
		}
	default:
		return Nested(parseObject(value))
	}
}

func isComposite(value gjson.Result) bool {
	return hasExactKeys(value, "operator", "filters") && value.Get("filters").IsObject()
}

func hasExactKeys(obj gjson.Result, keys ...string) bool {
	var (
		seen    = map[string]struct{}{}
		matches = true
	)
	obj.ForEach(func(key, _ gjson.Result) bool {
		if !lo.Contains(keys, key.String()) {
			matches = false
			return false
		}
		seen[key.String()] = struct{}{}
		return true
	})
	return matches && len(seen) == len(keys)
}

func marshalObject(filters Filters) ([]byte, error) {
	buf := bytes.NewBufferString("{")
	for i, entry := range filters {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(entry.Path)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		value, err := marshalNode(entry.Node)
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshalNode(node Node) ([]byte, error) {
	switch node := node.(type) {
	case Primitive:
		return json.Marshal(struct {
			Operator Op  `json:"operator"`
			Value    any `json:"value"`
		}{Operator: node.Op, Value: node.Value})
	case Composite:
		children, err := marshalObject(node.Filters)
		if err != nil {
			return nil, err
		}
		return json.Marshal(struct {
			Operator Logic           `json:"operator"`
			Filters  json.RawMessage `json:"filters"`
		}{Operator: node.Op, Filters: children})
	case Nested:
		return marshalObject(Filters(node))
	case Scalar:
		return json.Marshal(node.Value)
	default:
		return []byte("null"), nil
	}
}

// MarshalJSON encodes the constraint as {"field", "op", "value"}
func (w Where) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Field string `json:"field"`
		Op    Op     `json:"op"`
		Value any    `json:"value"`
	}{Field: w.Field, Op: w.Op, Value: w.Value})
}

// MarshalJSON encodes the constraint as {"op", "filters"}
func (g Group) MarshalJSON() ([]byte, error) {
	constraints := g.Constraints
	if constraints == nil {
		constraints = []Constraint{}
	}
	return json.Marshal(struct {
		Op      Logic        `json:"op"`
		Filters []Constraint `json:"filters"`
	}{Op: g.Op, Filters: constraints})
}

// ParseConstraints decodes a json array of encoded constraints
func ParseConstraints(data []byte) ([]Constraint, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []Constraint{}, nil
	}
	if !gjson.ValidBytes(data) {
		return nil, errors.New(errors.Validation, "invalid json: %s", string(data))
	}
	return parseConstraints(gjson.ParseBytes(data))
}

func parseConstraints(result gjson.Result) ([]Constraint, error) {
	if result.Type == gjson.Null {
		return []Constraint{}, nil
	}
	if !result.IsArray() {
		return nil, errors.New(errors.Validation, "constraints must be a json array: %s", result.Raw)
	}
	var constraints = []Constraint{}
	for _, element := range result.Array() {
		if !element.IsObject() {
			return nil, errors.New(errors.Validation, "invalid constraint: %s", element.Raw)
		}
		if element.Get("filters").Exists() {
			op, ok := ParseLogic(element.Get("op").String())
			if !ok {
				return nil, errors.New(errors.Validation, "invalid composite operator: '%s'", element.Get("op").String())
			}
			children, err := parseConstraints(element.Get("filters"))
			if err != nil {
				return nil, err
			}
			constraints = append(constraints, Group{Op: op, Constraints: children})
			continue
		}
		where := Where{
			Field: element.Get("field").String(),
			Op:    Op(element.Get("op").String()),
			Value: element.Get("value").Value(),
		}
		if where.Field == "" {
			return nil, errors.New(errors.Validation, "empty constraint field: %s", element.Raw)
		}
		if !where.Op.IsStandard() {
			return nil, errors.New(errors.Validation, "invalid operator: '%s'", where.Op)
		}
		constraints = append(constraints, where)
	}
	return constraints, nil
}
