// Package prefix builds the key layout documents are stored under.
package prefix

import (
	"bytes"
	"strings"
)

const sep = byte(0)

var documentsPrefix = []byte("documents")

// Collection returns the key prefix shared by every document in the collection.
// Collection paths may contain '/' separated segments.
func Collection(collection string) []byte {
	return join(documentsPrefix, []byte(strings.Trim(collection, "/")), nil)
}

// Document returns the key of a single document
func Document(collection, id string) []byte {
	return append(Collection(collection), []byte(id)...)
}

// ID returns the document id from a document key
func ID(collection string, key []byte) string {
	return string(bytes.TrimPrefix(key, Collection(collection)))
}

func join(parts ...[]byte) []byte {
	return bytes.Join(parts, []byte{sep})
}
