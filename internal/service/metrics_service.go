package service

import (
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/section-allocator/internal/dto"
)

// Scheduling run outcomes used as metric labels.
const (
	RunOutcomeSuccess  = "success"
	RunOutcomeInvalid  = "invalid"
	RunOutcomeFailed   = "failed"
	PassFifo           = "fifo"
	PassLeastChosen    = "least_chosen"
	maxSkipReasonLabel = 64
)

// MetricsService encapsulates Prometheus instrumentation for the API and the scheduler.
type MetricsService struct {
	registry         *prometheus.Registry
	handler          http.Handler
	requestDuration  *prometheus.HistogramVec
	requestTotal     *prometheus.CounterVec
	cacheLatency     prometheus.Observer
	cacheWrite       prometheus.Observer
	cacheHitRatio    prometheus.Gauge
	cacheHits        prometheus.Counter
	cacheMisses      prometheus.Counter
	runTotal         *prometheus.CounterVec
	runDuration      *prometheus.HistogramVec
	sectionsAssigned *prometheus.CounterVec
	skipTotal        *prometheus.CounterVec
	underloaded      prometheus.Gauge
	jobsTotal        *prometheus.CounterVec

	cacheHitCount  uint64
	cacheMissCount uint64
}

// NewMetricsService registers the collectors on a private registry.
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
		Help:    "Latency for cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	runTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduler_runs_total",
		Help: "Scheduling runs by outcome",
	}, []string{"outcome"})

	runDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scheduler_run_duration_seconds",
		Help:    "Wall time of scheduling runs",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 300, 600},
	}, []string{"outcome"})

	sectionsAssigned := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduler_sections_assigned_total",
		Help: "Sections created by allocation pass",
	}, []string{"pass"})

	skipTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduler_skips_total",
		Help: "Skipped preferences and candidates by reason",
	}, []string{"reason"})

	underloaded := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "scheduler_underloaded_instructors",
		Help: "Underloaded instructors after the last successful run",
	})

	jobsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduler_jobs_total",
		Help: "Queued scheduling jobs by state",
	}, []string{"state"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		runTotal, runDuration, sectionsAssigned, skipTotal, underloaded, jobsTotal, goroutines)

	return &MetricsService{
		registry:         registry,
		handler:          promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:  requestDuration,
		requestTotal:     requestTotal,
		cacheLatency:     cacheLatency,
		cacheWrite:       cacheWrite,
		cacheHitRatio:    cacheHitRatio,
		cacheHits:        cacheHits,
		cacheMisses:      cacheMisses,
		runTotal:         runTotal,
		runDuration:      runDuration,
		sectionsAssigned: sectionsAssigned,
		skipTotal:        skipTotal,
		underloaded:      underloaded,
		jobsTotal:        jobsTotal,
	}
}

// Registry exposes the underlying registry for tests and custom collectors.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
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

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveScheduleRun records one run. Section and skip counters only move for committed runs.
func (m *MetricsService) ObserveScheduleRun(outcome string, result *dto.ScheduleResult, duration time.Duration) {
	if m == nil {
		return
	}
	m.runTotal.WithLabelValues(outcome).Inc()
	m.runDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	if outcome != RunOutcomeSuccess || result == nil {
		return
	}
	m.sectionsAssigned.WithLabelValues(PassFifo).Add(float64(result.Stats.FifoSections))
	m.sectionsAssigned.WithLabelValues(PassLeastChosen).Add(float64(result.Stats.LeastChosenSections))
	for _, skip := range result.Skips {
		m.skipTotal.WithLabelValues(skipReasonLabel(skip.Reason)).Inc()
	}
	m.underloaded.Set(float64(len(result.Underloaded)))
}

// ObserveJob counts queued job transitions: queued, succeeded, failed.
func (m *MetricsService) ObserveJob(state string) {
	if m == nil {
		return
	}
	m.jobsTotal.WithLabelValues(state).Inc()
}

// skipReasonLabel keeps label cardinality bounded; limit reasons embed counts.
func skipReasonLabel(reason string) string {
	if idx := strings.IndexByte(reason, '('); idx >= 0 {
		reason = reason[:idx]
	}
	if len(reason) > maxSkipReasonLabel {
		reason = reason[:maxSkipReasonLabel]
	}
	return strings.TrimSpace(reason)
}
