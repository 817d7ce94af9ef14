// Package docstore abstracts the backing document store. The core treats it
// as an opaque collection/key/document surface; the production deployment
// backs it with a cloud document database, tests and local runs use the
// in-memory implementation in the memstore subpackage.
package docstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no document exists for the key.
var ErrNotFound = errors.New("document not found")

// Document is a schemaless record. Values follow JSON conventions: numbers
// may come back as float64, nested objects as map[string]any.
type Document map[string]any

// Keyed pairs a document with its key, for query results.
type Keyed struct {
	Key string
	Doc Document
}

// Filter selects documents during a Query.
type Filter func(Document) bool

// UpdateFunc transforms a document inside Update. It receives nil when the
// document does not exist yet and returns the document to persist.
type UpdateFunc func(Document) (Document, error)

type Store interface {
	// Get retrieves a document. Returns ErrNotFound when absent.
	Get(ctx context.Context, collection, key string) (Document, error)

	// Put creates or replaces a document.
	Put(ctx context.Context, collection, key string, doc Document) error

	// Delete removes a document. Deleting an absent document is not an error.
	Delete(ctx context.Context, collection, key string) error

	// Query returns all documents in a collection matching the filter.
	// A nil filter matches everything.
	Query(ctx context.Context, collection string, filter Filter) ([]Keyed, error)

	// Update applies fn to the document under the store's atomicity guarantee.
	// Two concurrent Updates on the same key must not interleave.
	Update(ctx context.Context, collection, key string, fn UpdateFunc) error
}

// Clone returns a shallow copy of doc so callers cannot mutate stored state.
func Clone(doc Document) Document {
	if doc == nil {
		return nil
	}
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}
