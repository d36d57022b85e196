package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SystemMetrics is the lightweight snapshot served on the ops dashboard.
type SystemMetrics struct {
	RequestCount     uint64  `json:"request_count"`
	AvgRequestMs     float64 `json:"avg_request_ms"`
	DBQueryCount     uint64  `json:"db_query_count"`
	AvgDBQueryMs     float64 `json:"avg_db_query_ms"`
	DraftHitRatio    float64 `json:"draft_hit_ratio"`
	EnrollmentsTotal uint64  `json:"enrollments_total"`
	PromotionsTotal  uint64  `json:"promotions_total"`
	ReportsGenerated uint64  `json:"reports_generated"`
	GoroutineCount   int     `json:"goroutine_count"`
}

// MetricsService encapsulates Prometheus instrumentation and provides
// lightweight snapshots for API consumption.
type MetricsService struct {
	registry         *prometheus.Registry
	handler          http.Handler
	requestDuration  *prometheus.HistogramVec
	requestTotal     *prometheus.CounterVec
	draftHitRatio    prometheus.Gauge
	draftHits        prometheus.Counter
	draftMisses      prometheus.Counter
	dbQueryDuration  *prometheus.HistogramVec
	enrollmentsTotal prometheus.Counter
	promotionsTotal  prometheus.Counter
	reportsGenerated prometheus.Counter

	draftHitCount        uint64
	draftMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	dbQueryCount         uint64
	dbQueryDurationTotal uint64
	enrollmentCount      uint64
	promotionCount       uint64
	reportCount          uint64
}

// NewMetricsService registers core Prometheus collectors.
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

	draftHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "draft_hit_ratio",
		Help: "Ratio of wizard draft lookups that found a live draft",
	})

	draftHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "draft_hits_total",
		Help: "Total wizard draft lookups served from Redis",
	})

	draftMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "draft_misses_total",
		Help: "Total wizard draft lookups that found no draft",
	})

	dbQueryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	enrollmentsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "enrollments_total",
		Help: "Total trainees enrolled, bulk and promotions included",
	})

	promotionsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "waitlist_promotions_total",
		Help: "Total trainees promoted off a waiting list",
	})

	reportsGenerated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reports_generated_total",
		Help: "Total background reports generated",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, draftHitRatio, draftHits, draftMisses, dbQueryDuration, enrollmentsTotal, promotionsTotal, reportsGenerated, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:         registry,
		handler:          handler,
		requestDuration:  requestDuration,
		requestTotal:     requestTotal,
		draftHitRatio:    draftHitRatio,
		draftHits:        draftHits,
		draftMisses:      draftMisses,
		dbQueryDuration:  dbQueryDuration,
		enrollmentsTotal: enrollmentsTotal,
		promotionsTotal:  promotionsTotal,
		reportsGenerated: reportsGenerated,
	}
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

// ObserveHTTPRequest records request metrics and aggregates simple stats
// for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordDraftLookup records whether a wizard draft lookup found a live
// draft and updates the hit ratio.
func (m *MetricsService) RecordDraftLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.draftHits.Inc()
		atomic.AddUint64(&m.draftHitCount, 1)
	} else {
		m.draftMisses.Inc()
		atomic.AddUint64(&m.draftMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.draftHitCount)
	misses := atomic.LoadUint64(&m.draftMissCount)
	total := hits + misses
	if total > 0 {
		m.draftHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveDBQuery records database query timing.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
	atomic.AddUint64(&m.dbQueryCount, 1)
	atomic.AddUint64(&m.dbQueryDurationTotal, uint64(duration.Nanoseconds()))
}

// CountEnrollment increments the enrollment counter.
func (m *MetricsService) CountEnrollment() {
	if m == nil {
		return
	}
	m.enrollmentsTotal.Inc()
	atomic.AddUint64(&m.enrollmentCount, 1)
}

// CountPromotion increments the waiting-list promotion counter.
func (m *MetricsService) CountPromotion() {
	if m == nil {
		return
	}
	m.promotionsTotal.Inc()
	atomic.AddUint64(&m.promotionCount, 1)
}

// CountReport increments the generated report counter.
func (m *MetricsService) CountReport() {
	if m == nil {
		return
	}
	m.reportsGenerated.Inc()
	atomic.AddUint64(&m.reportCount, 1)
}

// Snapshot returns aggregated metrics for the ops dashboard endpoint.
func (m *MetricsService) Snapshot() SystemMetrics {
	if m == nil {
		return SystemMetrics{}
	}
	hits := atomic.LoadUint64(&m.draftHitCount)
	misses := atomic.LoadUint64(&m.draftMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)
	dbCount := atomic.LoadUint64(&m.dbQueryCount)
	dbDuration := atomic.LoadUint64(&m.dbQueryDurationTotal)

	var hitRatio float64
	if total := hits + misses; total > 0 {
		hitRatio = float64(hits) / float64(total)
	}
	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}
	var avgDBMs float64
	if dbCount > 0 {
		avgDBMs = float64(dbDuration) / float64(dbCount) / float64(time.Millisecond)
	}

	return SystemMetrics{
		RequestCount:     requests,
		AvgRequestMs:     avgRequestMs,
		DBQueryCount:     dbCount,
		AvgDBQueryMs:     avgDBMs,
		DraftHitRatio:    hitRatio,
		EnrollmentsTotal: atomic.LoadUint64(&m.enrollmentCount),
		PromotionsTotal:  atomic.LoadUint64(&m.promotionCount),
		ReportsGenerated: atomic.LoadUint64(&m.reportCount),
		GoroutineCount:   runtime.NumGoroutine(),
	}
}
