package offline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubNetwork struct {
	mu        sync.Mutex
	responses map[string]*Response
	failPath  string
	calls     map[string]int
}

func newStubNetwork() *stubNetwork {
	return &stubNetwork{responses: map[string]*Response{}, calls: map[string]int{}}
}

func (s *stubNetwork) Fetch(_ context.Context, req *http.Request) (*Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	path := req.URL.Path
	s.calls[path]++
	if path == s.failPath {
		return nil, errors.New("network down")
	}
	if resp, ok := s.responses[path]; ok {
		return resp.Clone(), nil
	}
	return &Response{Status: http.StatusOK, Type: ResponseBasic, Body: []byte("body:" + path)}, nil
}

func (s *stubNetwork) count(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[path]
}

func getRequest(t *testing.T, target string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, target, nil)
	require.NoError(t, err)
	return req
}

func newTestWorker(t *testing.T, version string, storage CacheStorage, network Fetcher) *Worker {
	t.Helper()
	w, err := NewWorker(WorkerConfig{
		Version:  version,
		Manifest: DefaultManifest(),
		Bypass:   DefaultBypass("db.example.supabase.co"),
	}, storage, network, nil, nil)
	require.NoError(t, err)
	return w
}

func TestNewWorkerRequiresVersion(t *testing.T) {
	_, err := NewWorker(WorkerConfig{}, NewMemoryStorage(), newStubNetwork(), nil, nil)
	require.ErrorIs(t, err, ErrVersionRequired)
}

func TestInstallCachesManifest(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	network := newStubNetwork()
	w := newTestWorker(t, "storefront-v1", storage, network)

	require.NoError(t, w.OnInstall(ctx))
	assert.Equal(t, StateInstalled, w.State())
	assert.True(t, w.SkipWaiting())

	for _, entry := range DefaultManifest() {
		resp, err := storage.Match(ctx, getRequest(t, entry))
		require.NoError(t, err)
		require.NotNil(t, resp, entry)
		assert.Equal(t, "body:"+entry, string(resp.Body))
	}
	keys, _ := storage.Keys(ctx)
	assert.Equal(t, []string{"storefront-v1"}, keys)
}

func TestInstallFailureLeavesStoreEmptyAndRedundant(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	network := newStubNetwork()
	network.responses["/manifest.json"] = &Response{Status: http.StatusNotFound, Type: ResponseBasic}
	w := newTestWorker(t, "storefront-v1", storage, network)

	require.Error(t, w.OnInstall(ctx))
	assert.Equal(t, StateRedundant, w.State())

	for _, entry := range DefaultManifest() {
		resp, _ := storage.Match(ctx, getRequest(t, entry))
		assert.Nil(t, resp, entry)
	}

	network.responses = map[string]*Response{}
	network.failPath = "/logo192.png"
	w2 := newTestWorker(t, "storefront-v2", storage, network)
	require.Error(t, w2.OnInstall(ctx))
	assert.Equal(t, StateRedundant, w2.State())
}

func TestInstallTwiceIsRejected(t *testing.T) {
	w := newTestWorker(t, "storefront-v1", NewMemoryStorage(), newStubNetwork())
	require.NoError(t, w.OnInstall(context.Background()))
	require.ErrorIs(t, w.OnInstall(context.Background()), ErrInvalidState)
}

func TestFetchNeverCachesBypassedRequests(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	network := newStubNetwork()
	w := newTestWorker(t, "storefront-v1", storage, network)
	require.NoError(t, w.OnInstall(ctx))

	targets := []string{
		"/api/v1/products",
		"/admin/orders",
		"https://db.example.supabase.co/rest/v1/items",
	}
	for _, target := range targets {
		for range 2 {
			resp, err := w.OnFetch(ctx, getRequest(t, target))
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.Status)
		}
		w.Wait()
		cached, err := storage.Match(ctx, getRequest(t, target))
		require.NoError(t, err)
		assert.Nil(t, cached, target)
	}
	assert.Equal(t, 2, network.count("/api/v1/products"))
}

func TestFetchBypassWinsOverStaleEntry(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	network := newStubNetwork()
	w := newTestWorker(t, "storefront-v1", storage, network)
	require.NoError(t, w.OnInstall(ctx))

	store, err := storage.Open(ctx, "storefront-v1")
	require.NoError(t, err)
	stale := &Response{Status: http.StatusOK, Type: ResponseBasic, Body: []byte("stale products")}
	require.NoError(t, store.Put(ctx, getRequest(t, "/api/products"), stale))

	resp, err := w.OnFetch(ctx, getRequest(t, "/api/products"))
	require.NoError(t, err)
	assert.Equal(t, "body:/api/products", string(resp.Body))
	assert.Equal(t, 1, network.count("/api/products"))

	w.Wait()
	kept, err := storage.Match(ctx, getRequest(t, "/api/products"))
	require.NoError(t, err)
	require.NotNil(t, kept)
	assert.Equal(t, "stale products", string(kept.Body), "bypassed responses are never written back")
}

func TestReplacedWorkerDoesNotRecreateItsStore(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	network := newStubNetwork()
	host := NewHost(network, nil)

	old := newTestWorker(t, "storefront-v1", storage, network)
	require.NoError(t, host.Deploy(ctx, old))
	next := newTestWorker(t, "storefront-v2", storage, network)
	require.NoError(t, host.Deploy(ctx, next))
	require.Equal(t, StateRedundant, old.State())

	resp, err := old.OnFetch(ctx, getRequest(t, "/products/7"))
	require.NoError(t, err)
	assert.Equal(t, "body:/products/7", string(resp.Body))
	old.Wait()

	keys, err := storage.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"storefront-v2"}, keys)
}

func TestFetchCacheFirst(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	network := newStubNetwork()
	w := newTestWorker(t, "storefront-v1", storage, network)
	require.NoError(t, w.OnInstall(ctx))

	resp, err := w.OnFetch(ctx, getRequest(t, "/index.html"))
	require.NoError(t, err)
	assert.Equal(t, "body:/index.html", string(resp.Body))
	assert.Equal(t, 1, network.count("/index.html"), "hit must not touch the network")

	_, err = w.OnFetch(ctx, getRequest(t, "/products/42"))
	require.NoError(t, err)
	w.Wait()
	_, err = w.OnFetch(ctx, getRequest(t, "/products/42"))
	require.NoError(t, err)
	assert.Equal(t, 1, network.count("/products/42"))
}

func TestFetchSkipsNonCacheableResponses(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	network := newStubNetwork()
	network.responses["/missing"] = &Response{Status: http.StatusNotFound, Type: ResponseBasic}
	network.responses["/cdn.js"] = &Response{Status: http.StatusOK, Type: ResponseCORS}
	network.responses["/moved"] = &Response{Status: http.StatusFound, Type: ResponseOpaqueRedirect}
	w := newTestWorker(t, "storefront-v1", storage, network)
	require.NoError(t, w.OnInstall(ctx))

	for _, target := range []string{"/missing", "/cdn.js", "/moved"} {
		_, err := w.OnFetch(ctx, getRequest(t, target))
		require.NoError(t, err)
		w.Wait()
		cached, _ := storage.Match(ctx, getRequest(t, target))
		assert.Nil(t, cached, target)
	}
}

func TestFetchPropagatesNetworkFailureOnMiss(t *testing.T) {
	ctx := context.Background()
	network := newStubNetwork()
	w := newTestWorker(t, "storefront-v1", NewMemoryStorage(), network)
	require.NoError(t, w.OnInstall(ctx))

	network.failPath = "/offline-page"
	_, err := w.OnFetch(ctx, getRequest(t, "/offline-page"))
	require.Error(t, err)
}

type brokenStorage struct {
	*MemoryStorage
}

func (b brokenStorage) Open(ctx context.Context, name string) (Cache, error) {
	return nil, errors.New("quota exceeded")
}

func TestFetchStoreFailureIsIgnored(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewOfflineCacheMetrics(reg)
	w, err := NewWorker(WorkerConfig{Version: "v1"}, brokenStorage{NewMemoryStorage()}, newStubNetwork(), nil, m)
	require.NoError(t, err)

	resp, err := w.OnFetch(context.Background(), getRequest(t, "/page"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	w.Wait()

	families, err := reg.Gather()
	require.NoError(t, err)
	var failures float64
	for _, mf := range families {
		if mf.GetName() == "offline_cache_store_failures_total" {
			failures = mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	assert.Equal(t, float64(1), failures)
}

func TestActivateKeepsOnlyCurrentGeneration(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	for _, name := range []string{"storefront-v0", "storefront-v1", "scratch"} {
		_, err := storage.Open(ctx, name)
		require.NoError(t, err)
	}
	host := NewHost(newStubNetwork(), nil)
	w := newTestWorker(t, "storefront-v2", storage, newStubNetwork())

	require.NoError(t, host.Deploy(ctx, w))
	assert.Equal(t, StateActivated, w.State())
	assert.Same(t, w, host.Controller())

	keys, err := storage.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"storefront-v2"}, keys)
}

type flakyDeleteStorage struct {
	*MemoryStorage
}

func (f flakyDeleteStorage) Delete(ctx context.Context, name string) (bool, error) {
	if name == "locked" {
		return false, errors.New("locked")
	}
	return f.MemoryStorage.Delete(ctx, name)
}

func TestActivateAggregatesDeleteErrors(t *testing.T) {
	ctx := context.Background()
	storage := flakyDeleteStorage{NewMemoryStorage()}
	_, _ = storage.Open(ctx, "locked")
	_, _ = storage.Open(ctx, "old")
	w := newTestWorker(t, "v3", storage, newStubNetwork())
	require.NoError(t, w.OnInstall(ctx))

	err := w.OnActivate(ctx, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delete locked")
	assert.Equal(t, StateActivated, w.State())

	keys, _ := storage.Keys(ctx)
	assert.ElementsMatch(t, []string{"locked", "v3"}, keys)
}

func TestClearCacheMessageDropsEveryStore(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	_, _ = storage.Open(ctx, "old")
	w := newTestWorker(t, "storefront-v1", storage, newStubNetwork())
	require.NoError(t, w.OnInstall(ctx))

	require.NoError(t, w.OnMessage(ctx, Message{Type: "PING"}))
	keys, _ := storage.Keys(ctx)
	assert.Len(t, keys, 2)

	require.NoError(t, w.OnMessage(ctx, Message{Type: MessageClearCache}))
	keys, _ = storage.Keys(ctx)
	assert.Empty(t, keys)
}

func TestHostReplacesController(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	host := NewHost(newStubNetwork(), nil)

	v1 := newTestWorker(t, "v1", storage, newStubNetwork())
	require.NoError(t, host.Deploy(ctx, v1))
	v2 := newTestWorker(t, "v2", storage, newStubNetwork())
	require.NoError(t, host.Deploy(ctx, v2))

	assert.Equal(t, StateRedundant, v1.State())
	assert.Same(t, v2, host.Controller())
	keys, _ := storage.Keys(ctx)
	assert.Equal(t, []string{"v2"}, keys)
}

func TestHostFailedDeployKeepsController(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	host := NewHost(newStubNetwork(), nil)
	v1 := newTestWorker(t, "v1", storage, newStubNetwork())
	require.NoError(t, host.Deploy(ctx, v1))

	broken := newStubNetwork()
	broken.failPath = "/"
	v2 := newTestWorker(t, "v2", storage, broken)
	require.Error(t, host.Deploy(ctx, v2))
	assert.Same(t, v1, host.Controller())
	assert.Equal(t, StateActivated, v1.State())
	keys, _ := storage.Keys(ctx)
	assert.Equal(t, []string{"v1"}, keys)
}

func TestHostServeHTTP(t *testing.T) {
	ctx := context.Background()
	network := newStubNetwork()
	host := NewHost(network, nil)

	rec := httptest.NewRecorder()
	host.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/index.html", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, network.count("/index.html"))

	w := newTestWorker(t, "v1", NewMemoryStorage(), network)
	require.NoError(t, host.Deploy(ctx, w))
	before := network.count("/index.html")

	rec = httptest.NewRecorder()
	host.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/index.html", nil))
	assert.Equal(t, "body:/index.html", rec.Body.String())
	assert.Equal(t, before, network.count("/index.html"))

	network.failPath = "/api/v1/cart"
	rec = httptest.NewRecorder()
	host.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestPushNotification(t *testing.T) {
	w := newTestWorker(t, "v1", NewMemoryStorage(), newStubNetwork())

	n := w.OnPush([]byte("Flash sale today"))
	assert.Equal(t, "Flash sale today", n.Body)
	assert.Equal(t, "/logo192.png", n.Icon)
	require.Len(t, n.Actions, 2)
	assert.Equal(t, "explore", n.Actions[0].Action)
	assert.Equal(t, "close", n.Actions[1].Action)

	assert.Equal(t, defaultPushBody, w.OnPush(nil).Body)

	url, ok := w.OnNotificationClick("explore")
	assert.True(t, ok)
	assert.Equal(t, "/", url)
	_, ok = w.OnNotificationClick("close")
	assert.False(t, ok)
}
