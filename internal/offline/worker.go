package offline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// MessageClearCache asks the worker to drop every cache store.
const MessageClearCache = "CLEAR_CACHE"

var (
	ErrVersionRequired = errors.New("worker version is required")
	ErrInvalidState    = errors.New("invalid worker state transition")
)

// Message is a client-to-worker instruction.
type Message struct {
	Type string `json:"type"`
}

// WorkerConfig fixes what one worker generation caches and skips.
type WorkerConfig struct {
	Version  string
	Manifest []string
	Bypass   []string
}

// DefaultManifest is the application shell pre-cached on install.
func DefaultManifest() []string {
	return []string{
		"/",
		"/index.html",
		"/static/js/bundle.js",
		"/static/css/main.css",
		"/manifest.json",
		"/logo192.png",
	}
}

// DefaultBypass lists URL fragments that always go to the network.
func DefaultBypass(databaseHost string) []string {
	patterns := []string{"/api/", "/admin/"}
	if host := strings.TrimSpace(databaseHost); host != "" {
		patterns = append(patterns, host)
	}
	return patterns
}

// ClientClaimer takes control of open clients on activation.
type ClientClaimer interface {
	Claim(ctx context.Context, w *Worker) error
}

// Worker is one generation of the cache-first offline layer.
type Worker struct {
	cfg     WorkerConfig
	storage CacheStorage
	network Fetcher
	logg    *logger.Logger
	metrics *metrics.OfflineCacheMetrics

	mu          sync.Mutex
	state       State
	skipWaiting bool

	pending sync.WaitGroup
}

// NewWorker returns a worker in the parsed state.
func NewWorker(cfg WorkerConfig, storage CacheStorage, network Fetcher, logg *logger.Logger, m *metrics.OfflineCacheMetrics) (*Worker, error) {
	cfg.Version = strings.TrimSpace(cfg.Version)
	if cfg.Version == "" {
		return nil, ErrVersionRequired
	}
	if storage == nil || network == nil {
		return nil, errors.New("cache storage and fetcher are required")
	}
	if cfg.Manifest == nil {
		cfg.Manifest = DefaultManifest()
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Worker{
		cfg:     cfg,
		storage: storage,
		network: network,
		logg:    logg,
		metrics: m,
		state:   StateParsed,
	}, nil
}

func (w *Worker) Version() string { return w.cfg.Version }

func (w *Worker) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// SkipWaiting reports whether the worker asked to activate without waiting
// for older generations to release their clients.
func (w *Worker) SkipWaiting() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.skipWaiting
}

func (w *Worker) transition(from, to State) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != from {
		return fmt.Errorf("%w: %s -> %s from %s", ErrInvalidState, from, to, w.state)
	}
	w.state = to
	return nil
}

func (w *Worker) setState(s State) {
	w.mu.Lock()
	w.state = s
	w.mu.Unlock()
}

func (w *Worker) markRedundant() { w.setState(StateRedundant) }

// OnInstall pre-caches the manifest into the store named after Version.
// Every entry is fetched before anything is written; one failure leaves the
// store untouched and the worker redundant.
func (w *Worker) OnInstall(ctx context.Context) error {
	if err := w.transition(StateParsed, StateInstalling); err != nil {
		return err
	}
	ctx = w.logg.WithField(ctx, "cache_version", w.cfg.Version)

	fail := func(err error) error {
		w.markRedundant()
		w.metrics.IncInstall(false)
		w.logg.Error(ctx, "offline.install.failed", err)
		return err
	}

	fetched := make([]*Response, len(w.cfg.Manifest))
	reqs := make([]*http.Request, len(w.cfg.Manifest))
	g, gctx := errgroup.WithContext(ctx)
	for i, entry := range w.cfg.Manifest {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, entry, nil)
		if err != nil {
			return fail(fmt.Errorf("manifest entry %q: %w", entry, err))
		}
		reqs[i] = req
		g.Go(func() error {
			resp, err := w.network.Fetch(gctx, req)
			if err != nil {
				return fmt.Errorf("fetch %s: %w", entry, err)
			}
			if !resp.OK() {
				return fmt.Errorf("fetch %s: status %d", entry, resp.Status)
			}
			fetched[i] = resp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fail(err)
	}

	cache, err := w.storage.Open(ctx, w.cfg.Version)
	if err != nil {
		return fail(err)
	}

	for i, req := range reqs {
		if err := cache.Put(ctx, req, fetched[i]); err != nil {
			return fail(err)
		}
	}

	w.mu.Lock()
	w.state = StateInstalled
	w.skipWaiting = true
	w.mu.Unlock()

	w.metrics.IncInstall(true)
	w.logg.Info(w.logg.WithField(ctx, "entries", len(reqs)), "offline.install.complete")
	return nil
}

// OnActivate claims clients and deletes every store that belongs to another
// generation. Delete failures are returned together but do not block activation.
func (w *Worker) OnActivate(ctx context.Context, claimer ClientClaimer) error {
	if err := w.transition(StateInstalled, StateActivating); err != nil {
		return err
	}
	ctx = w.logg.WithField(ctx, "cache_version", w.cfg.Version)

	var errs error
	if claimer != nil {
		errs = multierr.Append(errs, claimer.Claim(ctx, w))
	}

	names, err := w.storage.Keys(ctx)
	if err != nil {
		errs = multierr.Append(errs, err)
	}
	deleted := 0
	for _, name := range names {
		if name == w.cfg.Version {
			continue
		}
		ok, err := w.storage.Delete(ctx, name)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("delete %s: %w", name, err))
			continue
		}
		if ok {
			deleted++
		}
	}
	w.metrics.AddStoresDeleted(deleted)

	w.setState(StateActivated)
	if errs != nil {
		w.logg.Error(ctx, "offline.activate.cleanup_failed", errs)
	}
	w.logg.Info(w.logg.WithField(ctx, "stores_deleted", deleted), "offline.activate.complete")
	return errs
}

// OnFetch answers one intercepted request with cache-first semantics.
func (w *Worker) OnFetch(ctx context.Context, req *http.Request) (*Response, error) {
	if req.Method != http.MethodGet || matchesAny(requestTarget(req, true), w.cfg.Bypass) {
		w.metrics.IncRequest(metrics.OutcomeBypass)
		return w.network.Fetch(ctx, req)
	}

	cached, err := w.storage.Match(ctx, req)
	if err != nil {
		w.logg.Warn(w.logg.WithField(ctx, "request", RequestKey(req)), "offline.match.failed")
	}
	if cached != nil {
		w.metrics.IncRequest(metrics.OutcomeHit)
		return cached, nil
	}

	w.metrics.IncRequest(metrics.OutcomeMiss)
	resp, err := w.network.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.Cacheable() && w.State() != StateRedundant {
		w.storeAsync(ctx, req, resp.Clone())
	}
	return resp, nil
}

func (w *Worker) storeAsync(ctx context.Context, req *http.Request, resp *Response) {
	ctx = context.WithoutCancel(ctx)
	w.pending.Add(1)
	go func() {
		defer w.pending.Done()
		// a replaced generation must not re-create the store its successor purged
		if w.State() == StateRedundant {
			return
		}
		cache, err := w.storage.Open(ctx, w.cfg.Version)
		if err == nil {
			err = cache.Put(ctx, req, resp)
		}
		if err != nil {
			w.metrics.IncStoreFailure()
			w.logg.Error(w.logg.WithField(ctx, "request", RequestKey(req)), "offline.store.failed", err)
		}
	}()
}

// Wait blocks until background cache writes finish.
func (w *Worker) Wait() {
	w.pending.Wait()
}

// OnMessage handles client messages. Unknown types are ignored.
func (w *Worker) OnMessage(ctx context.Context, msg Message) error {
	if msg.Type != MessageClearCache {
		return nil
	}
	names, err := w.storage.Keys(ctx)
	if err != nil {
		return err
	}
	var errs error
	deleted := 0
	for _, name := range names {
		ok, err := w.storage.Delete(ctx, name)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("delete %s: %w", name, err))
			continue
		}
		if ok {
			deleted++
		}
	}
	w.metrics.AddStoresDeleted(deleted)
	w.logg.Info(w.logg.WithField(ctx, "stores_deleted", deleted), "offline.cache.cleared")
	return errs
}
