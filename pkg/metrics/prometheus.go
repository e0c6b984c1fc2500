// Package metrics provides Prometheus metrics for the duelrank ranking engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the duelrank service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         prometheus.Registerer

	// Session Metrics
	sessionsStarted     prometheus.Counter
	itemsTracked        prometheus.Gauge
	comparisonsResolved prometheus.Counter
	groupComparisons    prometheus.Counter
	undoOperations      prometheus.Counter

	// Selection Metrics
	selectionLatency prometheus.Histogram
	poolResets       prometheus.Counter

	// Batch Queue Metrics
	batchFlushes   prometheus.Counter
	batchSize      prometheus.Histogram
	queueDepth     prometheus.Gauge
	ratingUpdates  prometheus.Counter
	collapsedPairs prometheus.Counter

	// Consistency Audit Metrics
	auditRuns         prometheus.Counter
	auditSkipped      prometheus.Counter
	auditDuration     prometheus.Histogram
	directViolations  prometheus.Counter
	cycleViolations   prometheus.Counter
	triadViolations   prometheus.Counter
	correctionApplied prometheus.Counter

	// Convergence Metrics
	convergenceChecks prometheus.Counter
	averageConfidence prometheus.Gauge
	stabilityScore    prometheus.Gauge

	// Confidence Cache Metrics
	cacheHits          prometheus.Counter
	cacheMisses        prometheus.Counter
	cacheInvalidations prometheus.Counter

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error Metrics
	errorRateByComponent *prometheus.CounterVec

	// System Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "duelrank",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // single registration site for all metrics
	// Ensure metrics are registered on the configured registry (custom by default)
	auto := promauto.With(m.registry)

	// Session Metrics
	m.sessionsStarted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sessions_started_total",
		Help:      "Total number of ranking sessions started",
	})

	m.itemsTracked = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "items_tracked",
		Help:      "Number of items in the current ranking session",
	})

	m.comparisonsResolved = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "comparisons_resolved_total",
		Help:      "Total number of resolved comparisons",
	})

	m.groupComparisons = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "group_comparisons_total",
		Help:      "Total number of resolved group (3+) comparisons",
	})

	m.undoOperations = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "undo_operations_total",
		Help:      "Total number of undo rollbacks",
	})

	// Selection Metrics
	m.selectionLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "selection_latency_milliseconds",
		Help:      "Histogram of comparison selection latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.poolResets = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "selection_pool_resets_total",
		Help:      "Total number of used-pool resets during selection",
	})

	// Batch Queue Metrics
	m.batchFlushes = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "batch_flushes_total",
		Help:      "Total number of update batch flushes",
	})

	m.batchSize = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "batch_size",
		Help:      "Histogram of flushed batch sizes",
		Buckets:   []float64{1, 2, 3, 4, 6, 8, 12, 16, 24, 32},
	})

	m.queueDepth = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_depth",
		Help:      "Current number of queued unapplied outcomes",
	})

	m.ratingUpdates = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rating_updates_total",
		Help:      "Total number of applied rating updates",
	})

	m.collapsedPairs = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "collapsed_pairs_total",
		Help:      "Total number of duplicate pairs collapsed within a batch",
	})

	// Consistency Audit Metrics
	m.auditRuns = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "audit_runs_total",
		Help:      "Total number of consistency audit passes",
	})

	m.auditSkipped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "audit_skipped_total",
		Help:      "Total number of audit passes skipped by the re-entrancy guard",
	})

	m.auditDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "audit_duration_milliseconds",
		Help:      "Histogram of consistency audit duration in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.directViolations = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "direct_violations_total",
		Help:      "Total number of detected direct rating/evidence contradictions",
	})

	m.cycleViolations = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cycle_violations_total",
		Help:      "Total number of detected preference cycles",
	})

	m.triadViolations = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "triad_violations_total",
		Help:      "Total number of detected inconsistent triads",
	})

	m.correctionApplied = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "corrections_applied_total",
		Help:      "Total number of corrective rating adjustments applied",
	})

	// Convergence Metrics
	m.convergenceChecks = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "convergence_checks_total",
		Help:      "Total number of convergence evaluations",
	})

	m.averageConfidence = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "average_confidence",
		Help:      "Mean per-item confidence over the current session",
	})

	m.stabilityScore = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "stability_score",
		Help:      "Rank-position stability over the trailing window",
	})

	// Confidence Cache Metrics
	m.cacheHits = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "confidence_cache_hits_total",
		Help:      "Total number of confidence cache hits",
	})

	m.cacheMisses = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "confidence_cache_misses_total",
		Help:      "Total number of confidence cache misses",
	})

	m.cacheInvalidations = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "confidence_cache_invalidations_total",
		Help:      "Total number of confidence cache entries invalidated",
	})

	// HTTP Performance Metrics
	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by endpoint, method and status",
	}, []string{"endpoint", "method", "status"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "Histogram of HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status"})

	// Error Metrics
	m.errorRateByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_component_total",
		Help:      "Total number of errors by component and type",
	}, []string{"component", "error_type"})

	// System Metrics
	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_bytes",
		Help:      "Current allocated memory in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutines",
		Help:      "Current number of goroutines",
	})
}

// RecordSessionStarted increments the sessions started counter.
func RecordSessionStarted() {
	globalManager.sessionsStarted.Inc()
}

// UpdateItemsTracked sets the current item count gauge.
func UpdateItemsTracked(count int) {
	globalManager.itemsTracked.Set(float64(count))
}

// RecordComparisonResolved increments the resolved comparisons counter.
func RecordComparisonResolved() {
	globalManager.comparisonsResolved.Inc()
}

// RecordGroupComparison increments the group comparisons counter.
func RecordGroupComparison() {
	globalManager.groupComparisons.Inc()
}

// RecordUndo increments the undo operations counter.
func RecordUndo() {
	globalManager.undoOperations.Inc()
}

// RecordSelectionLatency records selection latency in milliseconds.
func RecordSelectionLatency(latencyMs float64) {
	globalManager.selectionLatency.Observe(latencyMs)
}

// RecordPoolReset increments the used-pool reset counter.
func RecordPoolReset() {
	globalManager.poolResets.Inc()
}

// RecordBatchFlush records one flush with its size.
func RecordBatchFlush(size int) {
	globalManager.batchFlushes.Inc()
	globalManager.batchSize.Observe(float64(size))
}

// UpdateQueueDepth sets the pending outcome queue depth gauge.
func UpdateQueueDepth(depth int) {
	globalManager.queueDepth.Set(float64(depth))
}

// RecordRatingUpdate increments the applied rating update counter.
func RecordRatingUpdate() {
	globalManager.ratingUpdates.Inc()
}

// RecordCollapsedPair increments the collapsed duplicate pair counter.
func RecordCollapsedPair() {
	globalManager.collapsedPairs.Inc()
}

// RecordAuditRun increments the audit pass counter.
func RecordAuditRun() {
	globalManager.auditRuns.Inc()
}

// RecordAuditSkipped increments the skipped audit counter.
func RecordAuditSkipped() {
	globalManager.auditSkipped.Inc()
}

// RecordAuditDuration records audit duration in milliseconds.
func RecordAuditDuration(latencyMs float64) {
	globalManager.auditDuration.Observe(latencyMs)
}

// RecordDirectViolations adds to the direct violation counter.
func RecordDirectViolations(count int) {
	globalManager.directViolations.Add(float64(count))
}

// RecordCycleViolations adds to the cycle violation counter.
func RecordCycleViolations(count int) {
	globalManager.cycleViolations.Add(float64(count))
}

// RecordTriadViolations adds to the triad violation counter.
func RecordTriadViolations(count int) {
	globalManager.triadViolations.Add(float64(count))
}

// RecordCorrectionsApplied adds to the applied correction counter.
func RecordCorrectionsApplied(count int) {
	globalManager.correctionApplied.Add(float64(count))
}

// RecordConvergenceCheck increments the convergence evaluation counter.
func RecordConvergenceCheck() {
	globalManager.convergenceChecks.Inc()
}

// UpdateAverageConfidence sets the mean confidence gauge.
func UpdateAverageConfidence(value float64) {
	globalManager.averageConfidence.Set(value)
}

// UpdateStabilityScore sets the rank stability gauge.
func UpdateStabilityScore(value float64) {
	globalManager.stabilityScore.Set(value)
}

// RecordCacheHit increments the confidence cache hit counter.
func RecordCacheHit() {
	globalManager.cacheHits.Inc()
}

// RecordCacheMiss increments the confidence cache miss counter.
func RecordCacheMiss() {
	globalManager.cacheMisses.Inc()
}

// RecordCacheInvalidations adds to the cache invalidation counter.
func RecordCacheInvalidations(count int) {
	globalManager.cacheInvalidations.Add(float64(count))
}

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByComponent increments the per-component error counter.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the allocated-memory gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
