// Package store is a local document store over a key value database. Its Load method is the
// store's native list function used by query executors.
package store

import (
	"context"
	"strings"
	"time"

	"github.com/autom8ter/livequery/errors"
	"github.com/autom8ter/livequery/internal/prefix"
	"github.com/autom8ter/livequery/kv"
	"github.com/autom8ter/livequery/kv/registry"
	"github.com/autom8ter/livequery/logger"
	"github.com/segmentio/ksuid"
	"github.com/xeipuuv/gojsonschema"
)

// DB is a document database
type DB struct {
	kv         kv.DB
	logger     logger.Logger
	rawSchemas map[string][]byte
	schemas    map[string]*gojsonschema.Schema
}

// Opt is an option for configuring a DB
type Opt func(db *DB)

// WithLogger sets the database logger
func WithLogger(l logger.Logger) Opt {
	return func(db *DB) {
		db.logger = l
	}
}

// WithSchema validates every document written to the collection against the JSON schema
func WithSchema(collection string, schema []byte) Opt {
	return func(db *DB) {
		db.rawSchemas[collection] = schema
	}
}

// Open opens a document database on a registered key value provider
func Open(provider string, params map[string]any, opts ...Opt) (*DB, error) {
	kvdb, err := registry.Open(provider, params)
	if err != nil {
		return nil, errors.Wrap(err, 0, "failed to open %s provider", provider)
	}
	return New(kvdb, opts...)
}

// New creates a document database on the key value database
func New(kvdb kv.DB, opts ...Opt) (*DB, error) {
	db := &DB{
		kv:         kvdb,
		logger:     logger.Noop(),
		rawSchemas: map[string][]byte{},
		schemas:    map[string]*gojsonschema.Schema{},
	}
	for _, opt := range opts {
		opt(db)
	}
	for collection, raw := range db.rawSchemas {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
		if err != nil {
			return nil, errors.Wrap(err, errors.Validation, "invalid json schema for collection: %s", collection)
		}
		db.schemas[collection] = schema
	}
	return db, nil
}

// Close closes the database
func (db *DB) Close() error {
	return db.kv.Close()
}

func (db *DB) validate(collection string, doc *Document) error {
	schema, ok := db.schemas[collection]
	if !ok {
		return nil
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(doc.Bytes()))
	if err != nil {
		return errors.Wrap(err, errors.Validation, "failed to validate document")
	}
	if !result.Valid() {
		var messages []string
		for _, e := range result.Errors() {
			messages = append(messages, e.String())
		}
		return errors.New(errors.Validation, "invalid %s document: %s", collection, strings.Join(messages, "; "))
	}
	return nil
}

func validCollection(collection string) error {
	if strings.Trim(collection, "/") == "" {
		return errors.New(errors.Validation, "empty collection")
	}
	return nil
}

// Put writes the document to the collection, replacing any existing document with the same id.
// A document without an id is assigned one. The document's id is returned.
func (db *DB) Put(ctx context.Context, collection string, doc *Document) (string, error) {
	if err := validCollection(collection); err != nil {
		return "", err
	}
	if doc.ID() == "" {
		doc.SetID(ksuid.New().String())
	}
	if err := db.validate(collection, doc); err != nil {
		return "", err
	}
	if err := db.kv.Tx(true, func(tx kv.Tx) error {
		return tx.Set(prefix.Document(collection, doc.ID()), doc.Bytes())
	}); err != nil {
		return "", errors.Wrap(err, errors.Internal, "failed to put %s/%s", collection, doc.ID())
	}
	db.logger.Debug(ctx, "put document", map[string]any{
		"collection": collection,
		"id":         doc.ID(),
	})
	return doc.ID(), nil
}

// PutAll writes the documents to the collection in a single batch
func (db *DB) PutAll(ctx context.Context, collection string, docs []*Document) error {
	if err := validCollection(collection); err != nil {
		return err
	}
	batch := db.kv.NewBatch()
	for _, doc := range docs {
		if doc.ID() == "" {
			doc.SetID(ksuid.New().String())
		}
		if err := db.validate(collection, doc); err != nil {
			return err
		}
		if err := batch.Set(prefix.Document(collection, doc.ID()), doc.Bytes()); err != nil {
			return errors.Wrap(err, errors.Internal, "failed to put %s/%s", collection, doc.ID())
		}
	}
	if err := batch.Flush(); err != nil {
		return errors.Wrap(err, errors.Internal, "failed to flush %s batch", collection)
	}
	db.logger.Debug(ctx, "put documents", map[string]any{
		"collection": collection,
		"count":      len(docs),
	})
	return nil
}

// Get returns the document with the given id
func (db *DB) Get(ctx context.Context, collection, id string) (*Document, error) {
	var doc *Document
	if err := db.kv.Tx(false, func(tx kv.Tx) error {
		var err error
		doc, err = db.get(tx, collection, id)
		return err
	}); err != nil {
		return nil, err
	}
	return doc, nil
}

func (db *DB) get(tx kv.Tx, collection, id string) (*Document, error) {
	bits, err := tx.Get(prefix.Document(collection, id))
	if err != nil {
		return nil, errors.Wrap(err, errors.Internal, "failed to get %s/%s", collection, id)
	}
	if bits == nil {
		return nil, errors.New(errors.NotFound, "%s/%s does not exist", collection, id)
	}
	return NewDocumentFromBytes(id, bits)
}

// Patch merges the fields into an existing document and returns the result
func (db *DB) Patch(ctx context.Context, collection, id string, fields map[string]any) (*Document, error) {
	var doc *Document
	if err := db.kv.Tx(true, func(tx kv.Tx) error {
		var err error
		doc, err = db.get(tx, collection, id)
		if err != nil {
			return err
		}
		if err := doc.Merge(fields); err != nil {
			return err
		}
		if err := db.validate(collection, doc); err != nil {
			return err
		}
		return tx.Set(prefix.Document(collection, id), doc.Bytes())
	}); err != nil {
		return nil, errors.Wrap(err, 0, "failed to patch %s/%s", collection, id)
	}
	return doc, nil
}

// Delete deletes the document with the given id
func (db *DB) Delete(ctx context.Context, collection, id string) error {
	if err := db.kv.Tx(true, func(tx kv.Tx) error {
		return tx.Delete(prefix.Document(collection, id))
	}); err != nil {
		return errors.Wrap(err, errors.Internal, "failed to delete %s/%s", collection, id)
	}
	db.logger.Debug(ctx, "deleted document", map[string]any{
		"collection": collection,
		"id":         id,
	})
	return nil
}

func since(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / float64(1000)
}
