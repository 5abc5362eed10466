package store

import (
	"context"
	"errors"
)

var (
	ErrNotFound  = errors.New("document not found")
	ErrDuplicate = errors.New("document violates a unique constraint")
	ErrInvalidID = errors.New("invalid document id")
)

// Filter matches documents whose fields equal every given value.
// Keys are stored field names (the bson key, which is also the column name).
type Filter map[string]any

// Fields is the set of field assignments applied by an update.
type Fields map[string]any

// Document is implemented by pointers to stored models so repositories can
// read and assign identifiers without knowing the concrete type.
type Document[T any] interface {
	*T
	DocumentID() string
	SetDocumentID(id string)
}

// InsertResult mirrors the acknowledgement a document database returns for a single insert.
type InsertResult struct {
	Acknowledged bool   `json:"acknowledged"`
	InsertedID   string `json:"insertedId"`
}

type UpdateResult struct {
	Acknowledged  bool  `json:"acknowledged"`
	MatchedCount  int64 `json:"matchedCount"`
	ModifiedCount int64 `json:"modifiedCount"`
}

type DeleteResult struct {
	Acknowledged bool  `json:"acknowledged"`
	DeletedCount int64 `json:"deletedCount"`
}

type FindOptions struct {
	Limit int64
}

type FindOption func(*FindOptions)

// Limit caps the number of documents returned by Find.
func Limit(n int64) FindOption {
	return func(o *FindOptions) {
		o.Limit = n
	}
}

func collectFindOptions(opts []FindOption) FindOptions {
	var o FindOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Repository is a collection of documents of type T.
type Repository[T any] interface {
	Find(ctx context.Context, filter Filter, opts ...FindOption) ([]T, error)
	FindOne(ctx context.Context, filter Filter) (*T, error)
	FindByID(ctx context.Context, id string) (*T, error)
	Insert(ctx context.Context, doc *T) (InsertResult, error)
	UpdateByID(ctx context.Context, id string, fields Fields) (UpdateResult, error)
	// UpdateByIDWhere applies fields only when the document also matches where.
	UpdateByIDWhere(ctx context.Context, id string, where Filter, fields Fields) (UpdateResult, error)
	DeleteByID(ctx context.Context, id string) (DeleteResult, error)
}

// Transactor runs fn so that every repository call made with the context it
// receives commits or rolls back together.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// NoopTransactor runs fn directly, for backends without multi-document transactions.
type NoopTransactor struct{}

func (NoopTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
