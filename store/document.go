package store

import (
	"encoding/json"

	"github.com/autom8ter/livequery/errors"
	"github.com/autom8ter/livequery/util"
	flat2 "github.com/nqd/flat"
	"github.com/spf13/cast"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Document is a JSON document stored in a collection. It satisfies model.Snapshot.
type Document struct {
	id     string
	result gjson.Result
}

type documentJSON struct {
	ID   string          `json:"id"`
	Data json.RawMessage `json:"data"`
}

// UnmarshalJSON satisfies the json Unmarshaler interface. The expected shape is {"id": "", "data": {}}
func (d *Document) UnmarshalJSON(bytes []byte) error {
	var raw documentJSON
	if err := json.Unmarshal(bytes, &raw); err != nil {
		return errors.Wrap(err, errors.Validation, "invalid document")
	}
	if len(raw.Data) == 0 {
		raw.Data = []byte("{}")
	}
	doc, err := NewDocumentFromBytes(raw.ID, raw.Data)
	if err != nil {
		return err
	}
	*d = *doc
	return nil
}

// MarshalJSON satisfies the json Marshaler interface
func (d *Document) MarshalJSON() ([]byte, error) {
	return json.Marshal(documentJSON{ID: d.id, Data: d.Bytes()})
}

// NewDocument creates a new empty json document
func NewDocument(id string) *Document {
	return &Document{
		id:     id,
		result: gjson.Parse("{}"),
	}
}

// NewDocumentFromBytes creates a new document from the given json bytes
func NewDocumentFromBytes(id string, json []byte) (*Document, error) {
	if !gjson.ValidBytes(json) {
		return nil, errors.New(errors.Validation, "invalid json: %s", string(json))
	}
	d := &Document{
		id:     id,
		result: gjson.ParseBytes(json),
	}
	if !d.result.IsObject() {
		return nil, errors.New(errors.Validation, "invalid document: not a json object")
	}
	return d, nil
}

// NewDocumentFrom creates a new document from the given value - the value must be json compatible
func NewDocumentFrom(id string, value any) (*Document, error) {
	bits, err := json.Marshal(value)
	if err != nil {
		return nil, errors.Wrap(err, errors.Validation, "failed to json encode value: %#v", value)
	}
	return NewDocumentFromBytes(id, bits)
}

// ID returns the document's id
func (d *Document) ID() string {
	return d.id
}

// SetID sets the document's id
func (d *Document) SetID(id string) {
	d.id = id
}

// String returns the document's fields as a json string
func (d *Document) String() string {
	return d.result.Raw
}

// Bytes returns the document's fields as json bytes
func (d *Document) Bytes() []byte {
	return []byte(d.result.Raw)
}

// Data returns the document's fields as a map
func (d *Document) Data() map[string]any {
	return cast.ToStringMap(d.result.Value())
}

// DataTo decodes the document's fields into v based on json tags
func (d *Document) DataTo(v any) error {
	if err := json.Unmarshal(d.Bytes(), v); err != nil {
		return util.Decode(d.Data(), v)
	}
	return nil
}

// Clone allocates a new document with identical values
func (d *Document) Clone() *Document {
	return &Document{id: d.id, result: gjson.Parse(d.result.Raw)}
}

// Get gets a field on the document. Dot notation is supported.
func (d *Document) Get(field string) any {
	return d.result.Get(field).Value()
}

// Exists returns true if the field is set on the document
func (d *Document) Exists(field string) bool {
	return d.result.Get(field).Exists()
}

// Set sets a field on the document. Dot notation is supported.
func (d *Document) Set(field string, val any) error {
	result, err := sjson.Set(d.result.Raw, field, val)
	if err != nil {
		return errors.Wrap(err, errors.Validation, "failed to set field: %s", field)
	}
	if !gjson.Valid(result) {
		return errors.New(errors.Validation, "invalid document")
	}
	d.result = gjson.Parse(result)
	return nil
}

// SetAll sets all fields on the document. Dot notation is supported.
func (d *Document) SetAll(values map[string]any) error {
	for k, v := range values {
		if err := d.Set(k, v); err != nil {
			return err
		}
	}
	return nil
}

// Merge merges the fields into the document. Nested objects are merged, not overwritten.
func (d *Document) Merge(fields map[string]any) error {
	flattened, err := flat2.Flatten(fields, &flat2.Options{Delimiter: ".", Safe: true})
	if err != nil {
		return errors.Wrap(err, errors.Validation, "failed to flatten fields")
	}
	return d.SetAll(flattened)
}

// Del deletes a field from the document
func (d *Document) Del(field string) error {
	result, err := sjson.Delete(d.result.Raw, field)
	if err != nil {
		return errors.Wrap(err, errors.Validation, "failed to delete field: %s", field)
	}
	d.result = gjson.Parse(result)
	return nil
}
