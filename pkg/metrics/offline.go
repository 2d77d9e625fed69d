package metrics

import "github.com/prometheus/client_golang/prometheus"

// Offline cache request outcomes.
const (
	OutcomeHit    = "hit"
	OutcomeMiss   = "miss"
	OutcomeBypass = "bypass"
)

// OfflineCacheMetrics records how the cache-first worker serves traffic.
type OfflineCacheMetrics struct {
	requests      *prometheus.CounterVec
	storeFailures prometheus.Counter
	storesDeleted prometheus.Counter
	installs      *prometheus.CounterVec
}

// NewOfflineCacheMetrics registers the offline cache metrics on the provided registerer.
func NewOfflineCacheMetrics(reg prometheus.Registerer) *OfflineCacheMetrics {
	if reg == nil {
		return &OfflineCacheMetrics{}
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "offline_cache_requests_total",
		Help: "Intercepted requests by outcome.",
	}, []string{"outcome"})
	storeFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "offline_cache_store_failures_total",
		Help: "Responses that could not be written to the cache.",
	})
	storesDeleted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "offline_cache_stores_deleted_total",
		Help: "Cache generations deleted by activation or clear messages.",
	})
	installs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "offline_cache_installs_total",
		Help: "Worker installations by result.",
	}, []string{"result"})
	reg.MustRegister(requests, storeFailures, storesDeleted, installs)
	return &OfflineCacheMetrics{
		requests:      requests,
		storeFailures: storeFailures,
		storesDeleted: storesDeleted,
		installs:      installs,
	}
}

// IncRequest counts one intercepted request.
func (m *OfflineCacheMetrics) IncRequest(outcome string) {
	if m == nil || m.requests == nil {
		return
	}
	m.requests.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncStoreFailure counts a failed background cache write.
func (m *OfflineCacheMetrics) IncStoreFailure() {
	if m == nil || m.storeFailures == nil {
		return
	}
	m.storeFailures.Inc()
}

// AddStoresDeleted counts deleted cache generations.
func (m *OfflineCacheMetrics) AddStoresDeleted(n int) {
	if m == nil || m.storesDeleted == nil || n <= 0 {
		return
	}
	m.storesDeleted.Add(float64(n))
}

// IncInstall counts an install attempt; ok=false marks the worker redundant.
func (m *OfflineCacheMetrics) IncInstall(ok bool) {
	if m == nil || m.installs == nil {
		return
	}
	m.installs.WithLabelValues(resultLabel(ok)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}

func resultLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
