// Package redistest starts an in-process redis server for tests.
package redistest

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

// New returns a client connected to a fresh miniredis instance. The server
// lets tests move the clock with FastForward so TTLs actually expire.
func New(t testing.TB) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	client, err := redis.New(context.Background(), config.RedisConfig{Address: server.Addr()}, nil)
	if err != nil {
		t.Fatalf("connect to miniredis: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client, server
}

// NewClient is New for tests that never touch the server clock.
func NewClient(t testing.TB) *redis.Client {
	t.Helper()
	client, _ := New(t)
	return client
}
