package metrics

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics encapsulates Prometheus instrumentation for the backend client and the dev gateway.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry
	handler  http.Handler

	backendDuration *prometheus.HistogramVec
	backendTotal    *prometheus.CounterVec
	gatewayDuration *prometheus.HistogramVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	cacheHitRatio   prometheus.Gauge
	bulkItems       *prometheus.CounterVec

	cacheHitCount  uint64
	cacheMissCount uint64
	requestCount   uint64
	failureCount   uint64
	durationTotal  uint64
}

// Snapshot is a lightweight aggregate for CLI/diagnostic output.
type Snapshot struct {
	BackendRequests          uint64    `json:"backend_requests"`
	BackendFailures          uint64    `json:"backend_failures"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	SubjectCacheHits         uint64    `json:"subject_cache_hits"`
	SubjectCacheMisses       uint64    `json:"subject_cache_misses"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}

// New registers the collectors on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	backendDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sicali_backend_request_duration_seconds",
		Help:    "Duration of requests issued to the school backend",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	backendTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sicali_backend_requests_total",
		Help: "Total number of requests issued to the school backend",
	}, []string{"method", "route", "status"})

	gatewayDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sicali_gateway_request_duration_seconds",
		Help:    "Duration of requests served by the dev gateway",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sicali_subject_cache_hits_total",
		Help: "Subject name lookups served from the in-memory table",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sicali_subject_cache_misses_total",
		Help: "Subject name lookups that required a backend fetch",
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sicali_subject_cache_hit_ratio",
		Help: "Ratio of subject cache hits to total lookups",
	})

	bulkItems := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sicali_bulk_items_total",
		Help: "Items processed by bulk operations by outcome",
	}, []string{"operation", "outcome"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(backendDuration, backendTotal, gatewayDuration, cacheHits, cacheMisses, cacheHitRatio, bulkItems, goroutines)

	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		backendDuration: backendDuration,
		backendTotal:    backendTotal,
		gatewayDuration: gatewayDuration,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		cacheHitRatio:   cacheHitRatio,
		bulkItems:       bulkItems,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry returns the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveBackendRequest records one backend round trip. outcome is the HTTP status code
// or "timeout"/"network" when no response arrived.
func (m *Metrics) ObserveBackendRequest(method, route, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.backendDuration.WithLabelValues(method, route, outcome).Observe(duration.Seconds())
	m.backendTotal.WithLabelValues(method, route, outcome).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.durationTotal, uint64(duration.Nanoseconds()))
	if code, err := strconv.Atoi(outcome); err != nil || code >= 400 {
		atomic.AddUint64(&m.failureCount, 1)
	}
}

// ObserveGatewayRequest records a request served by the dev gateway.
func (m *Metrics) ObserveGatewayRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.gatewayDuration.WithLabelValues(method, path, strconv.Itoa(status)).Observe(duration.Seconds())
}

// RecordCacheOperation records subject cache hit/miss and updates the hit ratio.
func (m *Metrics) RecordCacheOperation(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	total := hits + atomic.LoadUint64(&m.cacheMissCount)
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveBulk records the outcome counts of one bulk operation.
func (m *Metrics) ObserveBulk(operation string, fulfilled, rejected int) {
	if m == nil {
		return
	}
	m.bulkItems.WithLabelValues(operation, "fulfilled").Add(float64(fulfilled))
	m.bulkItems.WithLabelValues(operation, "rejected").Add(float64(rejected))
}

// Snapshot returns aggregated counters.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	requests := atomic.LoadUint64(&m.requestCount)
	var avg float64
	if requests > 0 {
		avg = float64(atomic.LoadUint64(&m.durationTotal)) / float64(requests) / float64(time.Millisecond)
	}
	return Snapshot{
		BackendRequests:          requests,
		BackendFailures:          atomic.LoadUint64(&m.failureCount),
		AverageRequestDurationMs: avg,
		SubjectCacheHits:         atomic.LoadUint64(&m.cacheHitCount),
		SubjectCacheMisses:       atomic.LoadUint64(&m.cacheMissCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
