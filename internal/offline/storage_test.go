package offline

import (
	"context"
	"net/http"
	"testing"

	"github.com/angelmondragon/storefront-backend/pkg/redis/redistest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStorage(t *testing.T, storage CacheStorage) {
	t.Helper()
	ctx := context.Background()

	v1, err := storage.Open(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, "v1", v1.Name())
	_, err = storage.Open(ctx, "v2")
	require.NoError(t, err)

	req := getRequest(t, "/index.html?lang=en")
	resp := &Response{
		Status: http.StatusOK,
		Type:   ResponseBasic,
		Header: http.Header{"Content-Type": {"text/html"}},
		Body:   []byte("<html></html>"),
	}
	require.NoError(t, v1.Put(ctx, req, resp))
	resp.Body[0] = 'X'

	got, err := storage.Match(ctx, getRequest(t, "/index.html?lang=en"))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "<html></html>", string(got.Body))
	assert.Equal(t, "text/html", got.Header.Get("Content-Type"))

	miss, err := storage.Match(ctx, getRequest(t, "/index.html"))
	require.NoError(t, err)
	assert.Nil(t, miss)

	keys, err := storage.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"v1", "v2"}, keys)

	ok, err := storage.Delete(ctx, "v1")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = storage.Delete(ctx, "v1")
	require.NoError(t, err)
	assert.False(t, ok)

	gone, err := storage.Match(ctx, getRequest(t, "/index.html?lang=en"))
	require.NoError(t, err)
	assert.Nil(t, gone)

	keys, err = storage.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"v2"}, keys)
}

func TestMemoryStorage(t *testing.T) {
	exerciseStorage(t, NewMemoryStorage())
}

func TestRedisStorage(t *testing.T) {
	storage, err := NewRedisStorage(redistest.NewClient(t))
	require.NoError(t, err)
	exerciseStorage(t, storage)
}

func TestNewRedisStorageRequiresClient(t *testing.T) {
	_, err := NewRedisStorage(nil)
	require.Error(t, err)
}
