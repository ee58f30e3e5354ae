package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the funnel BFF.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration  *prometheus.HistogramVec
	externalErrors   *prometheus.CounterVec
	cacheHits        *prometheus.CounterVec
	cacheMisses      *prometheus.CounterVec
	entriesSaved     *prometheus.CounterVec
	proposalsCreated prometheus.Counter
	adminOps         *prometheus.CounterVec
	requestsTotal    *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "funil_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "funil_external_errors_total",
				Help: "Total errors from Supabase and other external services.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "funil_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "funil_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		entriesSaved: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "funil_entries_saved_total",
				Help: "Total daily entries persisted, by kind (insert/update).",
			},
			[]string{"kind"},
		),
		proposalsCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "funil_proposals_created_total",
				Help: "Total proposals created through daily entries.",
			},
		),
		adminOps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "funil_admin_operations_total",
				Help: "Total privileged admin operations, by operation and outcome.",
			},
			[]string{"operation", "outcome"},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "funil_requests_total",
				Help: "Total requests processed.",
			},
			[]string{"status"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrEntrySaved increments the entries counter; kind is "insert" or "update".
func (m *Metrics) IncrEntrySaved(kind string) {
	m.entriesSaved.WithLabelValues(kind).Inc()
}

// AddProposalsCreated counts proposals inserted by the entry workflow.
func (m *Metrics) AddProposalsCreated(n int) {
	m.proposalsCreated.Add(float64(n))
}

// IncrAdminOp increments the admin operation counter.
func (m *Metrics) IncrAdminOp(operation, outcome string) {
	m.adminOps.WithLabelValues(operation, outcome).Inc()
}

// IncrRequest increments the request counter with a status label.
func (m *Metrics) IncrRequest(status string) {
	m.requestsTotal.WithLabelValues(status).Inc()
}

// OpsSnapshot is a cheap point-in-time view of the counters, served on the
// internal ops endpoint without scraping the full registry.
type OpsSnapshot struct {
	TotalRequests float64 `json:"total_requests"`
	ErrorRate     float64 `json:"error_rate"`
	CacheHitRate  float64 `json:"cache_hit_rate"`
	EntriesSaved  float64 `json:"entries_saved"`
}

// GetOpsSnapshot gathers current counter values into an OpsSnapshot.
func (m *Metrics) GetOpsSnapshot() *OpsSnapshot {
	totalRequests := getCounterValue(m.requestsTotal, "success") +
		getCounterValue(m.requestsTotal, "error")
	errorCount := getCounterValue(m.requestsTotal, "error")
	cacheHits := getCounterValue(m.cacheHits, "bootstrap")
	cacheMisses := getCounterValue(m.cacheMisses, "bootstrap")
	entries := getCounterValue(m.entriesSaved, "insert") +
		getCounterValue(m.entriesSaved, "update")

	snap := &OpsSnapshot{
		TotalRequests: totalRequests,
		EntriesSaved:  entries,
	}
	if totalRequests > 0 {
		snap.ErrorRate = errorCount / totalRequests
	}
	if cacheHits+cacheMisses > 0 {
		snap.CacheHitRate = cacheHits / (cacheHits + cacheMisses)
	}
	return snap
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, labels ...string) float64 {
	counter := cv.WithLabelValues(labels...)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
