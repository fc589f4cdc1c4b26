// Package metrics provides Prometheus metrics for efficiency scans and merges.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns the Prometheus collectors of one registry.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Sample processing
	samplesProcessed prometheus.Counter
	samplesFailed    *prometheus.CounterVec
	sampleLatency    prometheus.Histogram

	// Event accounting
	eventsProcessed prometheus.Counter
	eventsSkipped   prometheus.Counter
	widthsScanned   prometheus.Gauge

	// Worker pool
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerPanics            prometheus.Counter
	queueSize               prometheus.Gauge
	queueCapacity           prometheus.Gauge
	queueEnqueueErrors      *prometheus.CounterVec

	// Merge
	mergePoints   prometheus.Counter
	mergeSkipped  prometheus.Counter
	mergeFailures *prometheus.CounterVec
	mergeRows     prometheus.Gauge

	// Recorder
	recorderErrors prometheus.Counter
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "effmap",
		subsystem: "engine",
		// Samples take from milliseconds (tiny test files) to minutes.
		histogramBuckets: prometheus.ExponentialBuckets(1, 4, 10),
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for all collectors
	auto := promauto.With(m.registry)

	m.samplesProcessed = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "samples_processed_total",
		Help:        "Total number of event samples turned into efficiency tables",
		ConstLabels: m.constLabels,
	})

	m.samplesFailed = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "samples_failed_total",
		Help:        "Total number of event samples that produced no efficiency table, by reason",
		ConstLabels: m.constLabels,
	}, []string{"reason"})

	m.sampleLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "sample_duration_milliseconds",
		Help:        "Wall time to read, scan and write one sample",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	})

	m.eventsProcessed = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "events_processed_total",
		Help:        "Total number of events that entered the efficiency average",
		ConstLabels: m.constLabels,
	})

	m.eventsSkipped = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "events_skipped_total",
		Help:        "Total number of events left without selected particles",
		ConstLabels: m.constLabels,
	})

	m.widthsScanned = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "widths_scanned",
		Help:        "Number of trial widths in the current scan",
		ConstLabels: m.constLabels,
	})

	m.workerActiveCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "worker_active_count",
		Help:        "Number of workers in the pool",
		ConstLabels: m.constLabels,
	})

	m.workerProcessingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "worker_processing_latency_milliseconds",
		Help:        "Time a worker spends on one job",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	})

	m.workerPanics = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "worker_panics_total",
		Help:        "Jobs that panicked and were converted into failures",
		ConstLabels: m.constLabels,
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "queue_size",
		Help:        "Jobs waiting for a worker",
		ConstLabels: m.constLabels,
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "queue_capacity",
		Help:        "Maximum number of queued jobs",
		ConstLabels: m.constLabels,
	})

	m.queueEnqueueErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "queue_enqueue_errors_total",
		Help:        "Rejected enqueue attempts, by reason",
		ConstLabels: m.constLabels,
	}, []string{"reason"})

	m.mergePoints = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "merge_points_total",
		Help:        "Mass points included in a merged grid",
		ConstLabels: m.constLabels,
	})

	m.mergeSkipped = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "merge_points_skipped_total",
		Help:        "Mass points skipped because no efficiency table was found",
		ConstLabels: m.constLabels,
	})

	m.mergeFailures = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "merge_failures_total",
		Help:        "Aborted merges, by reason",
		ConstLabels: m.constLabels,
	}, []string{"reason"})

	m.mergeRows = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "merge_rows",
		Help:        "Rows in the last merged grid",
		ConstLabels: m.constLabels,
	})

	m.recorderErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "recorder_errors_total",
		Help:        "Failed writes to the bookkeeping database",
		ConstLabels: m.constLabels,
	})
}

// RecordSampleProcessed increments the processed samples counter.
func RecordSampleProcessed() {
	globalManager.samplesProcessed.Inc()
}

// RecordSampleFailed increments the failed samples counter for reason.
func RecordSampleFailed(reason string) {
	globalManager.samplesFailed.WithLabelValues(reason).Inc()
}

// RecordSampleLatency records the processing time of one sample in milliseconds.
func RecordSampleLatency(latencyMs float64) {
	globalManager.sampleLatency.Observe(latencyMs)
}

// RecordEventsProcessed adds n events to the processed counter.
func RecordEventsProcessed(n int) {
	globalManager.eventsProcessed.Add(float64(n))
}

// RecordEventsSkipped adds n events to the skipped counter.
func RecordEventsSkipped(n int) {
	globalManager.eventsSkipped.Add(float64(n))
}

// UpdateWidthsScanned sets the size of the width grid.
func UpdateWidthsScanned(n int) {
	globalManager.widthsScanned.Set(float64(n))
}

// UpdateWorkerActiveCount sets the number of workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records the time spent on one job.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerPanic increments the recovered panic counter.
func RecordWorkerPanic() {
	globalManager.workerPanics.Inc()
}

// UpdateQueueSize sets the current queue length.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueueError increments the rejected enqueue counter for reason.
func RecordQueueEnqueueError(reason string) {
	globalManager.queueEnqueueErrors.WithLabelValues(reason).Inc()
}

// RecordMergePoint increments the merged mass point counter.
func RecordMergePoint() {
	globalManager.mergePoints.Inc()
}

// RecordMergeSkipped increments the skipped mass point counter.
func RecordMergeSkipped() {
	globalManager.mergeSkipped.Inc()
}

// RecordMergeFailure increments the aborted merge counter for reason.
func RecordMergeFailure(reason string) {
	globalManager.mergeFailures.WithLabelValues(reason).Inc()
}

// UpdateMergeRows sets the row count of the last merged grid.
func UpdateMergeRows(n int) {
	globalManager.mergeRows.Set(float64(n))
}

// RecordRecorderError increments the bookkeeping failure counter.
func RecordRecorderError() {
	globalManager.recorderErrors.Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// WriteTextfile writes the current state of the registry to path in the
// text exposition format, for the node exporter textfile collector.
func WriteTextfile(path string) error {
	if path == "" {
		return ErrNoTextfile
	}
	if err := prometheus.WriteToTextfile(path, customRegistry); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}
