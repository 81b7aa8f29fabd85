package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// LabelingMetrics contains Prometheus metrics for label ingestion and review.
type LabelingMetrics struct {
	registry *prometheus.Registry

	labelsIngestedTotal    *prometheus.CounterVec
	conceptsDroppedTotal   *prometheus.CounterVec
	ingestDuration         *prometheus.HistogramVec
	reviewDecisionsTotal   *prometheus.CounterVec
	reviewBatchSizeHist    prometheus.Histogram
	fetchJobsEnqueuedTotal *prometheus.CounterVec

	collectors []prometheus.Collector
}

// NewLabelingMetrics creates and registers new labeling metrics.
func NewLabelingMetrics(registry *prometheus.Registry) (*LabelingMetrics, error) {
	m := &LabelingMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *LabelingMetrics) initMetrics() {
	m.labelsIngestedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "labeling_labels_ingested_total",
			Help: "Total number of label suggestions persisted",
		},
		[]string{"provider", "initial_state"},
	)

	m.conceptsDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "labeling_concepts_dropped_total",
			Help: "Total number of provider concepts dropped for lack of a canonical mapping",
		},
		[]string{"provider"},
	)

	m.ingestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "labeling_ingest_duration_seconds",
			Help:    "Time taken for ingestion pipeline runs",
			Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount12),
		},
		[]string{"provider"},
	)

	m.reviewDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "labeling_review_decisions_total",
			Help: "Total number of review transition decisions",
		},
		[]string{"outcome"}, // applied, suppressed, warned, not_found
	)

	m.reviewBatchSizeHist = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "labeling_review_batch_size",
			Help:    "Number of entries per review batch",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
		},
	)

	m.fetchJobsEnqueuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "labeling_fetch_jobs_enqueued_total",
			Help: "Total number of annotation fetch jobs enqueued",
		},
		[]string{"provider"},
	)

	m.collectors = []prometheus.Collector{
		m.labelsIngestedTotal,
		m.conceptsDroppedTotal,
		m.ingestDuration,
		m.reviewDecisionsTotal,
		m.reviewBatchSizeHist,
		m.fetchJobsEnqueuedTotal,
	}
}

// Describe implements prometheus.Collector.
func (m *LabelingMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range m.collectors {
		c.Describe(ch)
	}
}

// Collect implements prometheus.Collector.
func (m *LabelingMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, c := range m.collectors {
		c.Collect(ch)
	}
}

// RecordLabelsIngested records persisted label suggestions.
func (m *LabelingMetrics) RecordLabelsIngested(provider, initialState string, count int) {
	m.labelsIngestedTotal.WithLabelValues(provider, initialState).Add(float64(count))
}

// RecordConceptsDropped records provider concepts without a canonical mapping.
func (m *LabelingMetrics) RecordConceptsDropped(provider string, count int) {
	m.conceptsDroppedTotal.WithLabelValues(provider).Add(float64(count))
}

// RecordIngestDuration records the duration of an ingestion pipeline run.
func (m *LabelingMetrics) RecordIngestDuration(provider string, seconds float64) {
	m.ingestDuration.WithLabelValues(provider).Observe(seconds)
}

// RecordReviewDecision records a single review transition outcome.
func (m *LabelingMetrics) RecordReviewDecision(outcome string) {
	m.reviewDecisionsTotal.WithLabelValues(outcome).Inc()
}

// RecordReviewBatchSize records the entry count of a review batch.
func (m *LabelingMetrics) RecordReviewBatchSize(size int) {
	m.reviewBatchSizeHist.Observe(float64(size))
}

// RecordFetchJobEnqueued records an enqueued annotation fetch job.
func (m *LabelingMetrics) RecordFetchJobEnqueued(provider string) {
	m.fetchJobsEnqueuedTotal.WithLabelValues(provider).Inc()
}
