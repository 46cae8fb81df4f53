package service

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/campushq/staff-attend-api/internal/models"
)

// MetricsService owns the prometheus registry plus a handful of cheap atomic
// counters exposed as a JSON snapshot for the admin dashboard.
type MetricsService struct {
	registry *prometheus.Registry

	httpDuration  *prometheus.HistogramVec
	httpTotal     *prometheus.CounterVec
	cacheOps      *prometheus.CounterVec
	cacheWriteDur prometheus.Histogram
	dbDuration    *prometheus.HistogramVec

	startedAt       time.Time
	requestsTotal   atomic.Int64
	inFlight        atomic.Int64
	cacheHits       atomic.Int64
	cacheMisses     atomic.Int64
	attendanceMarks atomic.Int64
	policyDenials   atomic.Int64
}

// NewMetricsService builds and registers all collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	s := &MetricsService{
		registry:  registry,
		startedAt: time.Now().UTC(),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route and method.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		httpTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests by route, method and status.",
		}, []string{"method", "route", "status"}),
		cacheOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_operations_total",
			Help: "Cache operations by type and result.",
		}, []string{"operation", "result"}),
		cacheWriteDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cache_write_duration_seconds",
			Help:    "Latency of cache writes.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
		dbDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query latency by operation.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}

	registry.MustRegister(s.httpDuration, s.httpTotal, s.cacheOps, s.cacheWriteDur, s.dbDuration)
	return s
}

// Handler exposes the prometheus scrape endpoint.
func (s *MetricsService) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}

// RequestStarted marks a request entering the stack.
func (s *MetricsService) RequestStarted() {
	s.inFlight.Add(1)
}

// ObserveHTTPRequest records a completed request.
func (s *MetricsService) ObserveHTTPRequest(method, route, status string, duration time.Duration) {
	s.inFlight.Add(-1)
	s.requestsTotal.Add(1)
	s.httpDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
	s.httpTotal.WithLabelValues(method, route, status).Inc()
}

// RecordCacheOperation tracks a cache operation outcome.
func (s *MetricsService) RecordCacheOperation(operation, result string) {
	s.cacheOps.WithLabelValues(operation, result).Inc()
	if operation == "get" {
		switch result {
		case "hit":
			s.cacheHits.Add(1)
		case "miss":
			s.cacheMisses.Add(1)
		}
	}
}

// ObserveCacheWrite records cache write latency.
func (s *MetricsService) ObserveCacheWrite(duration time.Duration) {
	s.cacheWriteDur.Observe(duration.Seconds())
}

// ObserveDBQuery records database query latency.
func (s *MetricsService) ObserveDBQuery(operation string, duration time.Duration) {
	s.dbDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordAttendanceMark bumps the attendance counter.
func (s *MetricsService) RecordAttendanceMark() {
	s.attendanceMarks.Add(1)
}

// RecordPolicyDenial bumps the denial counter.
func (s *MetricsService) RecordPolicyDenial() {
	s.policyDenials.Add(1)
}

// Snapshot returns current counter values.
func (s *MetricsService) Snapshot() models.SystemMetrics {
	hits := s.cacheHits.Load()
	misses := s.cacheMisses.Load()
	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}
	return models.SystemMetrics{
		UptimeSeconds:    time.Since(s.startedAt).Seconds(),
		RequestsTotal:    s.requestsTotal.Load(),
		RequestsInFlight: s.inFlight.Load(),
		CacheHits:        hits,
		CacheMisses:      misses,
		CacheHitRate:     hitRate,
		AttendanceMarks:  s.attendanceMarks.Load(),
		PolicyDenials:    s.policyDenials.Load(),
		CollectedAt:      time.Now().UTC(),
	}
}
