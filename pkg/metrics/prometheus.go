package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder exposes the screener's Prometheus metrics.
type Recorder struct {
	operations    *prometheus.CounterVec
	matches       prometheus.Counter
	resolverScans prometheus.Counter
	skippedSets   prometheus.Counter
	duration      *prometheus.HistogramVec
}

// New creates a Prometheus metrics recorder on the default registry.
func New() *Recorder {
	return &Recorder{
		operations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "screener_operations_total",
				Help: "Total screener operations by type",
			},
			[]string{"operation"},
		),
		matches: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "screener_matches_total",
				Help: "Total match records returned",
			},
		),
		resolverScans: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "screener_resolver_corpus_scans_total",
				Help: "Corpus scans performed to resolve absent bounds",
			},
		),
		skippedSets: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "screener_aggregator_skipped_sets_total",
				Help: "Filter sets skipped during aggregation",
			},
		),
		duration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "screener_operation_duration_seconds",
				Help:    "Duration of screener operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordOperation counts one screener operation.
func (r *Recorder) RecordOperation(op string) {
	if r == nil {
		return
	}
	r.operations.WithLabelValues(op).Inc()
}

// RecordMatches counts match records returned to a caller.
func (r *Recorder) RecordMatches(n int) {
	if r == nil {
		return
	}
	r.matches.Add(float64(n))
}

// RecordResolverScan counts one extremes-resolving corpus scan.
func (r *Recorder) RecordResolverScan() {
	if r == nil {
		return
	}
	r.resolverScans.Inc()
}

// RecordSkippedSet counts a filter set skipped mid-aggregation.
func (r *Recorder) RecordSkippedSet() {
	if r == nil {
		return
	}
	r.skippedSets.Inc()
}

// RecordDuration records operation latency in seconds.
func (r *Recorder) RecordDuration(op string, seconds float64) {
	if r == nil {
		return
	}
	r.duration.WithLabelValues(op).Observe(seconds)
}
