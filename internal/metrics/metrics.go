// Package metrics provides Prometheus metrics for the refresh job and snapshot server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cycle outcomes
const (
	CyclePublished  = "published"
	CycleSuperseded = "superseded"
	CycleEmpty      = "empty"
	CycleFailed     = "failed"
)

// Thread fetch outcomes
const (
	ThreadStory     = "story"
	ThreadNoSummary = "no_summary"
	ThreadError     = "error"
)

var (
	// CyclesTotal counts refresh cycles by outcome.
	CyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "digest",
			Name:      "refresh_cycles_total",
			Help:      "Total number of refresh cycles by outcome",
		},
		[]string{"channel", "outcome"},
	)

	// CycleDuration measures how long a cycle takes from batch fetch to publish.
	CycleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "digest",
			Name:      "refresh_cycle_duration_seconds",
			Help:      "Duration of refresh cycles in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
		},
		[]string{"channel"},
	)

	// ThreadFetchesTotal counts per-post thread fetches by outcome.
	ThreadFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "digest",
			Name:      "thread_fetches_total",
			Help:      "Total number of thread fetches by outcome",
		},
		[]string{"channel", "outcome"},
	)

	// SnapshotStories is the number of stories in the live snapshot.
	SnapshotStories = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "digest",
			Name:      "snapshot_stories",
			Help:      "Number of stories in the live snapshot",
		},
		[]string{"channel"},
	)

	// SnapshotPublishedTimestamp is the unix time of the last publish.
	SnapshotPublishedTimestamp = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "digest",
			Name:      "snapshot_published_timestamp_seconds",
			Help:      "Unix time the live snapshot was published",
		},
		[]string{"channel"},
	)

	// PersistErrorsTotal counts failures to save or restore the snapshot.
	PersistErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "digest",
			Name:      "snapshot_persist_errors_total",
			Help:      "Total number of snapshot persistence errors",
		},
		[]string{"operation"},
	)
)

// RecordCycle records the outcome and duration of a cycle.
func RecordCycle(channel, outcome string, seconds float64) {
	CyclesTotal.WithLabelValues(channel, outcome).Inc()
	CycleDuration.WithLabelValues(channel).Observe(seconds)
}

// RecordThreadFetch records a single thread fetch.
func RecordThreadFetch(channel, outcome string) {
	ThreadFetchesTotal.WithLabelValues(channel, outcome).Inc()
}

// RecordPublish updates the live snapshot gauges.
func RecordPublish(channel string, stories int, unix float64) {
	SnapshotStories.WithLabelValues(channel).Set(float64(stories))
	SnapshotPublishedTimestamp.WithLabelValues(channel).Set(unix)
}

// RecordPersistError records a persistence error.
func RecordPersistError(operation string) {
	PersistErrorsTotal.WithLabelValues(operation).Inc()
}
