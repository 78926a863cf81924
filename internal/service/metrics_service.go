package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService owns the Prometheus registry and the collectors exposed at
// /metrics. All methods are nil-safe so wiring stays unconditional.
type MetricsService struct {
	handler http.Handler

	httpDuration *prometheus.HistogramVec
	httpTotal    *prometheus.CounterVec

	cacheLookup   prometheus.Histogram
	cacheWrite    prometheus.Histogram
	cacheHitRatio prometheus.Gauge
	cacheHits     prometheus.Counter
	cacheMisses   prometheus.Counter

	dbDuration *prometheus.HistogramVec

	hitCount  uint64
	missCount uint64
}

// NewMetricsService builds the registry and registers every collector.
func NewMetricsService() *MetricsService {
	m := &MetricsService{
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		httpTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		cacheLookup: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cache_latency_seconds",
			Help:    "Latency of cache lookups",
			Buckets: prometheus.DefBuckets,
		}),
		cacheWrite: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cache_write_seconds",
			Help:    "Latency of cache writes",
			Buckets: prometheus.DefBuckets,
		}),
		cacheHitRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cache_hit_ratio",
			Help: "Ratio of cache hits to total lookups",
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total cache hits",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total cache misses",
		}),
		dbDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Duration of database queries",
			Buckets: prometheus.DefBuckets,
		}, []string{"query"}),
	}

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Current number of goroutines",
	}, func() float64 { return float64(runtime.NumGoroutine()) })

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		m.httpDuration, m.httpTotal,
		m.cacheLookup, m.cacheWrite,
		m.cacheHitRatio, m.cacheHits, m.cacheMisses,
		m.dbDuration, goroutines,
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Handler serves the scrape endpoint; 503 when metrics are not wired.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records one request against the duration histogram and
// the request counter.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.httpDuration.WithLabelValues(method, path, code).Observe(elapsed.Seconds())
	m.httpTotal.WithLabelValues(method, path, code).Inc()
}

// RecordCacheOperation counts a lookup and refreshes the hit-ratio gauge.
func (m *MetricsService) RecordCacheOperation(hit bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.cacheLookup.Observe(elapsed.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.hitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.missCount, 1)
	}

	hits := atomic.LoadUint64(&m.hitCount)
	total := hits + atomic.LoadUint64(&m.missCount)
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite records the latency of a cache set.
func (m *MetricsService) ObserveCacheWrite(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(elapsed.Seconds())
}

// ObserveDBQuery records a database query timing under the given label.
func (m *MetricsService) ObserveDBQuery(label string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.dbDuration.WithLabelValues(label).Observe(elapsed.Seconds())
}
