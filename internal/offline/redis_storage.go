package offline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"

	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

type hashSetStore interface {
	HGet(ctx context.Context, key, field string) (string, error)
	HSet(ctx context.Context, key, field string, value any) error
	SAdd(ctx context.Context, key string, members ...string) error
	SRem(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
	Del(ctx context.Context, keys ...string) error
	OfflineIndexKey() string
	OfflineStoreKey(name string) string
}

// RedisStorage keeps one hash per cache store plus a set of store names, so
// several edge processes can share generations.
type RedisStorage struct {
	kv hashSetStore
}

func NewRedisStorage(kv hashSetStore) (*RedisStorage, error) {
	if kv == nil {
		return nil, errors.New("redis client required")
	}
	return &RedisStorage{kv: kv}, nil
}

func (s *RedisStorage) Open(ctx context.Context, name string) (Cache, error) {
	if err := s.kv.SAdd(ctx, s.kv.OfflineIndexKey(), name); err != nil {
		return nil, fmt.Errorf("open cache %q: %w", name, err)
	}
	return &redisCache{name: name, kv: s.kv}, nil
}

// Keys returns store names sorted lexically; redis sets carry no creation order.
func (s *RedisStorage) Keys(ctx context.Context) ([]string, error) {
	names, err := s.kv.SMembers(ctx, s.kv.OfflineIndexKey())
	if err != nil {
		return nil, fmt.Errorf("list caches: %w", err)
	}
	slices.Sort(names)
	return names, nil
}

func (s *RedisStorage) Delete(ctx context.Context, name string) (bool, error) {
	names, err := s.Keys(ctx)
	if err != nil {
		return false, err
	}
	if !slices.Contains(names, name) {
		return false, nil
	}
	if err := s.kv.Del(ctx, s.kv.OfflineStoreKey(name)); err != nil {
		return false, fmt.Errorf("delete cache %q: %w", name, err)
	}
	if err := s.kv.SRem(ctx, s.kv.OfflineIndexKey(), name); err != nil {
		return false, fmt.Errorf("unlist cache %q: %w", name, err)
	}
	return true, nil
}

func (s *RedisStorage) Match(ctx context.Context, req *http.Request) (*Response, error) {
	names, err := s.Keys(ctx)
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		c := &redisCache{name: name, kv: s.kv}
		resp, err := c.Match(ctx, req)
		if err != nil {
			return nil, err
		}
		if resp != nil {
			return resp, nil
		}
	}
	return nil, nil
}

type redisCache struct {
	name string
	kv   hashSetStore
}

func (c *redisCache) Name() string { return c.name }

func (c *redisCache) Match(ctx context.Context, req *http.Request) (*Response, error) {
	raw, err := c.kv.HGet(ctx, c.kv.OfflineStoreKey(c.name), RequestKey(req))
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("match in %q: %w", c.name, err)
	}
	var resp Response
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, fmt.Errorf("decode cached response: %w", err)
	}
	return &resp, nil
}

func (c *redisCache) Put(ctx context.Context, req *http.Request, resp *Response) error {
	raw, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	if err := c.kv.HSet(ctx, c.kv.OfflineStoreKey(c.name), RequestKey(req), raw); err != nil {
		return fmt.Errorf("put in %q: %w", c.name, err)
	}
	return nil
}
