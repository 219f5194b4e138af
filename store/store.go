package store

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Batch limits imposed by the store. Callers must chunk multi-item
// operations; exceeding a limit fails the whole call with ErrBatchTooLarge.
const (
	// MaxBatchPut is the maximum number of documents per PutMulti.
	MaxBatchPut = 25

	// MaxBatchDelete is the maximum number of keys per DeleteMulti.
	MaxBatchDelete = 25

	// MaxBatchGet is the maximum number of keys per GetMulti.
	MaxBatchGet = 100
)

// Document is a schemaless record addressed by kind and key.
type Document struct {
	// Kind groups documents of the same entity type (e.g. "User", "Post").
	Kind string

	// Key is the unique identifier within the kind.
	Key string

	// Attrs holds the document body as DynamoDB attribute values.
	// The key attribute "id" is managed by the store and must not appear here.
	Attrs map[string]types.AttributeValue
}

// Filter is a single-field equality condition.
type Filter struct {
	Field string
	Value string
}

// Query selects documents of one kind by a single equality filter,
// ordered by a single sort field.
type Query struct {
	Kind string

	// Eq is the equality filter. Exactly one filter is supported.
	Eq Filter

	// OrderBy names the sort attribute.
	OrderBy string

	// Descending reverses the sort order.
	Descending bool

	// Limit caps the number of returned documents (0 = no cap).
	Limit int
}

// Store is the document store contract. All operations are blocking I/O;
// none of them retry on failure.
type Store interface {
	// Get returns the document under kind/key, or ErrNotFound.
	Get(ctx context.Context, kind, key string) (*Document, error)

	// GetMulti returns one entry per key, in the same order as keys.
	// Absent documents are returned as nil entries, not errors.
	GetMulti(ctx context.Context, kind string, keys []string) ([]*Document, error)

	// Put writes a single document, replacing any existing one.
	Put(ctx context.Context, doc Document) error

	// PutMulti writes up to MaxBatchPut documents of one kind.
	PutMulti(ctx context.Context, docs []Document) error

	// DeleteMulti removes up to MaxBatchDelete keys. Missing keys are not
	// an error.
	DeleteMulti(ctx context.Context, kind string, keys []string) error

	// Query returns documents matching q, sorted by q.OrderBy.
	Query(ctx context.Context, q Query) ([]Document, error)

	// Keys pages through all keys of a kind. Pass the returned cursor to
	// fetch the next page; an empty cursor marks the end. The full key set
	// is never materialized in memory at once.
	Keys(ctx context.Context, kind, cursor string, pageSize int) ([]string, string, error)
}
