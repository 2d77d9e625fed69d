package offline

import (
	"context"
	"net/http"
	"slices"
	"sync"
)

// MemoryStorage keeps cache stores in process memory, in creation order.
type MemoryStorage struct {
	mu     sync.RWMutex
	order  []string
	stores map[string]*memoryCache
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{stores: map[string]*memoryCache{}}
}

func (s *MemoryStorage) Open(_ context.Context, name string) (Cache, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.stores[name]; ok {
		return c, nil
	}
	c := &memoryCache{name: name, entries: map[string]*Response{}}
	s.stores[name] = c
	s.order = append(s.order, name)
	return c, nil
}

func (s *MemoryStorage) Keys(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.order), nil
}

func (s *MemoryStorage) Delete(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.stores[name]; !ok {
		return false, nil
	}
	delete(s.stores, name)
	s.order = slices.DeleteFunc(s.order, func(n string) bool { return n == name })
	return true, nil
}

func (s *MemoryStorage) Match(ctx context.Context, req *http.Request) (*Response, error) {
	s.mu.RLock()
	stores := make([]*memoryCache, 0, len(s.order))
	for _, name := range s.order {
		stores = append(stores, s.stores[name])
	}
	s.mu.RUnlock()

	for _, c := range stores {
		if resp, _ := c.Match(ctx, req); resp != nil {
			return resp, nil
		}
	}
	return nil, nil
}

type memoryCache struct {
	name    string
	mu      sync.RWMutex
	entries map[string]*Response
}

func (c *memoryCache) Name() string { return c.name }

func (c *memoryCache) Match(_ context.Context, req *http.Request) (*Response, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[RequestKey(req)].Clone(), nil
}

func (c *memoryCache) Put(_ context.Context, req *http.Request, resp *Response) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[RequestKey(req)] = resp.Clone()
	return nil
}
