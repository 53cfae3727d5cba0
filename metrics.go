package courier

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector provides Prometheus metrics for the request pipeline:
// exchanges, cache effectiveness, decode fallbacks and the error-hook
// protocol. It is safe for concurrent use.
type MetricsCollector struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight *prometheus.GaugeVec

	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec
	cacheSize   *prometheus.GaugeVec

	decodeFallbacks *prometheus.CounterVec
	hookFaults      *prometheus.CounterVec
	recoveries      *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec

	registry prometheus.Registerer
}

// NewMetricsCollector creates a metrics collector on the default registerer.
func NewMetricsCollector() *MetricsCollector {
	return NewMetricsCollectorWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsCollectorWithRegistry creates a collector using the supplied
// registerer.
func NewMetricsCollectorWithRegistry(registry prometheus.Registerer) *MetricsCollector {
	return &MetricsCollector{
		requestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "courier_requests_total",
				Help: "Total number of pipeline calls resolved",
			},
			[]string{"method", "status_code", "endpoint"},
		),
		requestDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "courier_request_duration_seconds",
				Help:    "Duration of pipeline calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "status_code", "endpoint"},
		),
		requestsInFlight: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "courier_requests_in_flight",
				Help: "Number of pipeline calls currently in flight",
			},
			[]string{"method", "endpoint"},
		),
		cacheHits: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "courier_cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"method", "endpoint"},
		),
		cacheMisses: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "courier_cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"method", "endpoint"},
		),
		cacheSize: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "courier_cache_size",
				Help: "Current number of entries in cache",
			},
			[]string{"name"},
		),
		decodeFallbacks: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "courier_decode_fallbacks_total",
				Help: "Total number of degraded or failed body decodes",
			},
			[]string{"method", "endpoint"},
		),
		hookFaults: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "courier_hook_faults_total",
				Help: "Total number of error-hook faults swallowed into failure records",
			},
			[]string{"method", "endpoint"},
		),
		recoveries: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "courier_recoveries_total",
				Help: "Total number of failures recovered by error hooks",
			},
			[]string{"method", "endpoint"},
		),
		errorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "courier_errors_total",
				Help: "Total number of failures by taxonomy type",
			},
			[]string{"type", "method", "endpoint"},
		),
		registry: registry,
	}
}

// RecordRequest records call count and duration.
func (mc *MetricsCollector) RecordRequest(method, endpoint string, statusCode int, duration time.Duration) {
	if mc == nil {
		return
	}
	status := strconv.Itoa(statusCode)
	mc.requestsTotal.WithLabelValues(method, status, endpoint).Inc()
	mc.requestDuration.WithLabelValues(method, status, endpoint).Observe(duration.Seconds())
}

// RecordRequestStart increments the in-flight gauge.
func (mc *MetricsCollector) RecordRequestStart(method, endpoint string) {
	if mc == nil {
		return
	}
	mc.requestsInFlight.WithLabelValues(method, endpoint).Inc()
}

// RecordRequestEnd decrements the in-flight gauge.
func (mc *MetricsCollector) RecordRequestEnd(method, endpoint string) {
	if mc == nil {
		return
	}
	mc.requestsInFlight.WithLabelValues(method, endpoint).Dec()
}

// RecordCacheHit increments the cache hit counter.
func (mc *MetricsCollector) RecordCacheHit(method, endpoint string) {
	if mc == nil {
		return
	}
	mc.cacheHits.WithLabelValues(method, endpoint).Inc()
}

// RecordCacheMiss increments the cache miss counter.
func (mc *MetricsCollector) RecordCacheMiss(method, endpoint string) {
	if mc == nil {
		return
	}
	mc.cacheMisses.WithLabelValues(method, endpoint).Inc()
}

// RecordCacheSize sets the cache size gauge.
func (mc *MetricsCollector) RecordCacheSize(name string, size int) {
	if mc == nil {
		return
	}
	mc.cacheSize.WithLabelValues(name).Set(float64(size))
}

// RecordDecodeFallback increments the degraded-decode counter.
func (mc *MetricsCollector) RecordDecodeFallback(method, endpoint string) {
	if mc == nil {
		return
	}
	mc.decodeFallbacks.WithLabelValues(method, endpoint).Inc()
}

// RecordHookFault increments the swallowed error-hook fault counter.
func (mc *MetricsCollector) RecordHookFault(method, endpoint string) {
	if mc == nil {
		return
	}
	mc.hookFaults.WithLabelValues(method, endpoint).Inc()
}

// RecordRecovery increments the error-hook recovery counter.
func (mc *MetricsCollector) RecordRecovery(method, endpoint string) {
	if mc == nil {
		return
	}
	mc.recoveries.WithLabelValues(method, endpoint).Inc()
}

// RecordError increments the error counter by taxonomy type.
func (mc *MetricsCollector) RecordError(errorType, method, endpoint string) {
	if mc == nil {
		return
	}
	mc.errorsTotal.WithLabelValues(errorType, method, endpoint).Inc()
}
