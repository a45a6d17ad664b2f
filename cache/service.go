package cache

import (
	"context"
	"encoding/json"
)

// Category groups cached read functions that a write must invalidate together.
type Category string

// String implements fmt.Stringer.
func (c Category) String() string { return string(c) }

// KeySerializer builds a cache key from a function name + arbitrary args.
// It is responsible for producing stable keys across calls.
type KeySerializer interface {
	SerializeKey(method string, args ...any) string
}

// FetchFn is the function signature CacheService expects when fetching from the remote source.
// Payloads are kept as raw JSON so every backend can store them without type information.
type FetchFn = func(ctx context.Context) (json.RawMessage, error)

// CacheService exposes the read-through caching operations the registry needs.
// It is exported so that other packages can provide alternate cache backends.
type CacheService interface {
	GetOrFetch(ctx context.Context, key string, fetchFn FetchFn) (json.RawMessage, error)
	Delete(ctx context.Context, key string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
}
