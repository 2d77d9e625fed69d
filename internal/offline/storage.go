package offline

import (
	"context"
	"net/http"
)

// CacheStorage is the set of named cache stores, one per generation.
type CacheStorage interface {
	// Open returns the named store, creating it when absent.
	Open(ctx context.Context, name string) (Cache, error)
	// Keys lists store names.
	Keys(ctx context.Context) ([]string, error)
	// Delete drops the named store and reports whether it existed.
	Delete(ctx context.Context, name string) (bool, error)
	// Match searches every store for req and returns nil on a miss.
	Match(ctx context.Context, req *http.Request) (*Response, error)
}

// Cache is a single generation's request to response map.
type Cache interface {
	Name() string
	Match(ctx context.Context, req *http.Request) (*Response, error)
	Put(ctx context.Context, req *http.Request, resp *Response) error
}
