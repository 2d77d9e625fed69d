package offline

import (
	"context"
	"net/http"
	"sync"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// Host plays the browser's role for workers: it installs and activates
// generations and routes intercepted requests to the active controller.
type Host struct {
	network Fetcher
	logg    *logger.Logger

	mu         sync.RWMutex
	controller *Worker
}

func NewHost(network Fetcher, logg *logger.Logger) *Host {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Host{network: network, logg: logg}
}

// Deploy installs w and, since installed workers skip waiting, activates it
// immediately. A failed install leaves the previous controller in place.
func (h *Host) Deploy(ctx context.Context, w *Worker) error {
	if err := w.OnInstall(ctx); err != nil {
		return err
	}
	if !w.SkipWaiting() {
		return nil
	}
	return w.OnActivate(ctx, h)
}

// Claim makes w the controller; the previous controller becomes redundant.
func (h *Host) Claim(ctx context.Context, w *Worker) error {
	h.mu.Lock()
	prev := h.controller
	h.controller = w
	h.mu.Unlock()

	if prev != nil && prev != w {
		prev.Wait()
		prev.markRedundant()
		h.logg.Info(h.logg.WithField(ctx, "previous_version", prev.Version()), "offline.controller.replaced")
	}
	return nil
}

// Controller returns the active worker, if any.
func (h *Host) Controller() *Worker {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.controller
}

func (h *Host) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		resp *Response
		err  error
	)
	if w := h.Controller(); w != nil {
		resp, err = w.OnFetch(ctx, r)
	} else {
		resp, err = h.network.Fetch(ctx, r)
	}
	if err != nil {
		h.logg.Error(h.logg.WithField(ctx, "request", RequestKey(r)), "offline.fetch.failed", err)
		http.Error(rw, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}
	if err := resp.Write(rw); err != nil {
		h.logg.Warn(ctx, "offline.response.write_failed")
	}
}
