package store

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

type memoryConfig struct {
	unique []string
}

type MemoryOption func(*memoryConfig)

// WithUniqueFields rejects inserts and updates that would give two documents the same value for field.
func WithUniqueFields(fields ...string) MemoryOption {
	return func(c *memoryConfig) {
		c.unique = append(c.unique, fields...)
	}
}

// MemoryRepository keeps documents in process memory, encoded with their bson
// tags so filters use the same field names as the database backends.
type MemoryRepository[T any, PT Document[T]] struct {
	mu     sync.RWMutex
	docs   map[string]bson.M
	order  []string
	unique []string
}

func NewMemoryRepository[T any, PT Document[T]](opts ...MemoryOption) *MemoryRepository[T, PT] {
	var cfg memoryConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return &MemoryRepository[T, PT]{
		docs:   make(map[string]bson.M),
		unique: cfg.unique,
	}
}

func (r *MemoryRepository[T, PT]) Find(_ context.Context, filter Filter, opts ...FindOption) ([]T, error) {
	o := collectFindOptions(opts)

	r.mu.RLock()
	defer r.mu.RUnlock()

	docs := make([]T, 0)
	for _, id := range r.order {
		m := r.docs[id]
		if !matches(m, filter) {
			continue
		}
		doc, err := decode[T](m)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
		if o.Limit > 0 && int64(len(docs)) >= o.Limit {
			break
		}
	}
	return docs, nil
}

func (r *MemoryRepository[T, PT]) FindOne(ctx context.Context, filter Filter) (*T, error) {
	docs, err := r.Find(ctx, filter, Limit(1))
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrNotFound
	}
	return &docs[0], nil
}

func (r *MemoryRepository[T, PT]) FindByID(_ context.Context, id string) (*T, error) {
	if id == "" {
		return nil, ErrInvalidID
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return decode[T](m)
}

func (r *MemoryRepository[T, PT]) Insert(_ context.Context, doc *T) (InsertResult, error) {
	if PT(doc).DocumentID() == "" {
		PT(doc).SetDocumentID(uuid.NewString())
	}
	id := PT(doc).DocumentID()
	m, err := encode(doc)
	if err != nil {
		return InsertResult{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.docs[id]; exists {
		return InsertResult{}, ErrDuplicate
	}
	if r.conflicts(id, m) {
		return InsertResult{}, ErrDuplicate
	}
	r.docs[id] = m
	r.order = append(r.order, id)
	return InsertResult{Acknowledged: true, InsertedID: id}, nil
}

func (r *MemoryRepository[T, PT]) UpdateByID(ctx context.Context, id string, fields Fields) (UpdateResult, error) {
	return r.UpdateByIDWhere(ctx, id, nil, fields)
}

func (r *MemoryRepository[T, PT]) UpdateByIDWhere(_ context.Context, id string, where Filter, fields Fields) (UpdateResult, error) {
	if id == "" {
		return UpdateResult{}, ErrInvalidID
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.docs[id]
	if !ok || !matches(current, where) {
		return UpdateResult{Acknowledged: true}, nil
	}

	next := bson.M{}
	for k, v := range current {
		next[k] = v
	}
	for k, v := range fields {
		next[k] = v
	}
	// Round-trip through T so stored values keep the types the struct declares.
	doc, err := decode[T](next)
	if err != nil {
		return UpdateResult{}, err
	}
	normalized, err := encode(doc)
	if err != nil {
		return UpdateResult{}, err
	}
	if r.conflicts(id, normalized) {
		return UpdateResult{}, ErrDuplicate
	}

	var modified int64
	if !reflect.DeepEqual(current, normalized) {
		modified = 1
	}
	r.docs[id] = normalized
	return UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: modified}, nil
}

func (r *MemoryRepository[T, PT]) DeleteByID(_ context.Context, id string) (DeleteResult, error) {
	if id == "" {
		return DeleteResult{}, ErrInvalidID
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.docs[id]; !ok {
		return DeleteResult{Acknowledged: true}, nil
	}
	delete(r.docs, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return DeleteResult{Acknowledged: true, DeletedCount: 1}, nil
}

// conflicts must be called with the write lock held.
func (r *MemoryRepository[T, PT]) conflicts(id string, m bson.M) bool {
	for _, field := range r.unique {
		v, ok := m[field]
		if !ok {
			continue
		}
		for otherID, other := range r.docs {
			if otherID != id && equalValues(other[field], v) {
				return true
			}
		}
	}
	return false
}

func matches(m bson.M, filter Filter) bool {
	for k, want := range filter {
		if !equalValues(m[k], want) {
			return false
		}
	}
	return true
}

// equalValues compares loosely so a named string type matches its stored plain string.
func equalValues(a, b any) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func encode(doc any) (bson.M, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return m, nil
}

func decode[T any](m bson.M) (*T, error) {
	raw, err := bson.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	var doc T
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &doc, nil
}
