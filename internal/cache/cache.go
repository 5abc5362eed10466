package cache

import (
	"context"
	"time"
)

// Cache stores JSON-encoded values by key.
type Cache interface {
	// Get decodes the value at key into dest and reports whether it was present.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Nop never holds anything.
type Nop struct{}

func (Nop) Get(context.Context, string, interface{}) (bool, error)        { return false, nil }
func (Nop) Set(context.Context, string, interface{}, time.Duration) error { return nil }
func (Nop) Delete(context.Context, ...string) error                       { return nil }
