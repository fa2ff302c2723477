package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	subscriptions   prometheus.Gauge
	snapshots       *prometheus.CounterVec
	fallbacks       prometheus.Counter
}

// NewMetricsService registers the core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for snapshot cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total snapshot cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total snapshot cache misses",
	})

	subscriptions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_live_subscriptions",
		Help: "Number of active catalog subscriptions",
	})

	snapshots := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_snapshots_delivered_total",
		Help: "Snapshots delivered to catalog subscribers",
	}, []string{"resource_type"})

	fallbacks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalog_fallback_served_total",
		Help: "Read requests answered with the static fallback dataset",
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheHits, cacheMisses, subscriptions, snapshots, fallbacks)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		subscriptions:   subscriptions,
		snapshots:       snapshots,
		fallbacks:       fallbacks,
	}
}

// Handler exposes the registry for the /metrics endpoint.
func (s *MetricsService) Handler() http.Handler {
	if s == nil {
		return promhttp.Handler()
	}
	return s.handler
}

// ObserveHTTPRequest records the outcome of an HTTP request.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if s == nil {
		return
	}
	labels := []string{method, path, strconv.Itoa(status)}
	s.requestDuration.WithLabelValues(labels...).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(labels...).Inc()
}

// RecordCacheOperation tracks a cache lookup and its latency.
func (s *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if s == nil {
		return
	}
	s.cacheLatency.Observe(duration.Seconds())
	if hit {
		s.cacheHits.Inc()
	} else {
		s.cacheMisses.Inc()
	}
}

// SubscriptionOpened increments the live-subscription gauge.
func (s *MetricsService) SubscriptionOpened() {
	if s == nil {
		return
	}
	s.subscriptions.Inc()
}

// SubscriptionClosed decrements the live-subscription gauge.
func (s *MetricsService) SubscriptionClosed() {
	if s == nil {
		return
	}
	s.subscriptions.Dec()
}

// SnapshotDelivered counts a delivered snapshot for a category.
func (s *MetricsService) SnapshotDelivered(resourceType string) {
	if s == nil {
		return
	}
	s.snapshots.WithLabelValues(resourceType).Inc()
}

// FallbackServed counts a read answered by the static fallback dataset.
func (s *MetricsService) FallbackServed() {
	if s == nil {
		return
	}
	s.fallbacks.Inc()
}
