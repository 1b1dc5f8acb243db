package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/eco-report-api/internal/models"
)

const metricsNamespace = "eco_report"

// snapshotCounters mirrors a few Prometheus series so /metrics/summary can
// answer without scraping the registry.
type snapshotCounters struct {
	requests     atomic.Uint64
	requestNanos atomic.Uint64
	cacheHits    atomic.Uint64
	cacheMisses  atomic.Uint64
	reports      atomic.Uint64
	transitions  atomic.Uint64
	points       atomic.Uint64
}

func (s *snapshotCounters) hitRatio() float64 {
	hits, misses := s.cacheHits.Load(), s.cacheMisses.Load()
	if hits+misses == 0 {
		return 0
	}
	return float64(hits) / float64(hits+misses)
}

// MetricsService owns a private Prometheus registry with HTTP, cache and
// report lifecycle series. Every method is safe on a nil receiver.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler
	counts   snapshotCounters

	httpDuration *prometheus.HistogramVec
	cacheLookups *prometheus.CounterVec
	cacheRead    prometheus.Observer
	cacheWrite   prometheus.Observer

	reportsCreated  *prometheus.CounterVec
	duplicates      *prometheus.CounterVec
	transitions     *prometheus.CounterVec
	pointsCredited  prometheus.Counter
	achievements    *prometheus.CounterVec
	eventsPublished *prometheus.CounterVec
}

// NewMetricsService registers the collectors on a fresh registry.
func NewMetricsService() *MetricsService {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &MetricsService{registry: reg}
	m.httpDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route and status.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "route", "status"})
	m.cacheLookups = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Aggregate cache lookups by result.",
	}, []string{"result"})
	m.cacheRead = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "cache",
		Name:      "read_seconds",
		Help:      "Cache read latency.",
		Buckets:   prometheus.ExponentialBuckets(.0005, 2, 10),
	})
	m.cacheWrite = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "cache",
		Name:      "write_seconds",
		Help:      "Cache write latency.",
		Buckets:   prometheus.ExponentialBuckets(.0005, 2, 10),
	})
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Subsystem: "cache",
		Name:      "hit_ratio",
		Help:      "Share of cache lookups served from the cache since start.",
	}, m.counts.hitRatio)

	m.reportsCreated = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "reports_created_total",
		Help:      "Reports created by category and initial status.",
	}, []string{"category", "status"})
	m.duplicates = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "duplicate_matches_total",
		Help:      "New reports filed near an open report of the same category.",
	}, []string{"category"})
	m.transitions = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "status_transitions_total",
		Help:      "Applied report status transitions.",
	}, []string{"from", "to"})
	m.pointsCredited = factory.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "points_credited_total",
		Help:      "Eco-points credited to reporters.",
	})
	m.achievements = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "achievements_unlocked_total",
		Help:      "Achievements unlocked by code.",
	}, []string{"code"})
	m.eventsPublished = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "events_published_total",
		Help:      "Domain event deliveries by type and outcome.",
	}, []string{"type", "outcome"})

	m.handler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
	return m
}

// Handler serves the registry in the Prometheus exposition format. Without
// a service it answers 503.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records one served request.
func (m *MetricsService) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
	m.counts.requests.Add(1)
	m.counts.requestNanos.Add(uint64(duration))
}

// RecordCacheOperation records a cache lookup and its latency.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheRead.Observe(duration.Seconds())
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
		m.counts.cacheHits.Add(1)
		return
	}
	m.cacheLookups.WithLabelValues("miss").Inc()
	m.counts.cacheMisses.Add(1)
}

// ObserveCacheWrite records the latency of a cache write.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ReportCreated counts a new report; duplicate marks a proximity match.
func (m *MetricsService) ReportCreated(category models.ReportCategory, status models.ReportStatus, duplicate bool) {
	if m == nil {
		return
	}
	m.reportsCreated.WithLabelValues(string(category), string(status)).Inc()
	if duplicate {
		m.duplicates.WithLabelValues(string(category)).Inc()
	}
	m.counts.reports.Add(1)
}

// StatusChanged counts an applied transition and any points it credited.
func (m *MetricsService) StatusChanged(from, to models.ReportStatus, credited int) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(string(from), string(to)).Inc()
	m.counts.transitions.Add(1)
	if credited > 0 {
		m.pointsCredited.Add(float64(credited))
		m.counts.points.Add(uint64(credited))
	}
}

// AchievementsUnlocked counts each unlocked badge.
func (m *MetricsService) AchievementsUnlocked(unlocked []models.Achievement) {
	if m == nil {
		return
	}
	for _, a := range unlocked {
		m.achievements.WithLabelValues(string(a.Code)).Inc()
	}
}

// EventPublished counts broker deliveries by outcome.
func (m *MetricsService) EventPublished(eventType models.EventType, ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.eventsPublished.WithLabelValues(string(eventType), outcome).Inc()
}

// Snapshot summarises the process counters for the admin endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	out := models.SystemMetrics{Goroutines: runtime.NumGoroutine(), GeneratedAt: time.Now().UTC()}
	if m == nil {
		return out
	}
	out.RequestsTotal = m.counts.requests.Load()
	if out.RequestsTotal > 0 {
		out.AverageRequestDurationMs = float64(m.counts.requestNanos.Load()) / float64(out.RequestsTotal) / float64(time.Millisecond)
	}
	out.CacheHitRatio = m.counts.hitRatio()
	out.ReportsCreated = m.counts.reports.Load()
	out.Transitions = m.counts.transitions.Load()
	out.PointsCredited = m.counts.points.Load()
	return out
}
