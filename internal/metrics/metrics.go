package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "gymbook"

var (
	once sync.Once

	refreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_refresh_total",
			Help:      "Count of snapshot refreshes by result.",
		},
		[]string{"result"},
	)

	refreshDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "snapshot_refresh_duration_seconds",
			Help:      "Time to fetch bookings and build a snapshot.",
			Buckets:   []float64{.01, .05, .1, .5, 1, 2, 5},
		},
	)

	snapshotSlots = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_slots",
			Help:      "Number of occupied slots in the published snapshot.",
		},
	)

	skippedRecords = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "skipped_records_total",
			Help:      "Bookings skipped because their slot time could not be parsed.",
		},
	)

	conflictChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conflict_checks_total",
			Help:      "Count of conflict checks by outcome.",
		},
		[]string{"outcome"},
	)

	suggestions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "suggestions_total",
			Help:      "Count of suggestion requests by kind.",
		},
		[]string{"kind"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(refreshTotal, refreshDuration, snapshotSlots, skippedRecords, conflictChecks, suggestions)
	})
}

// ObserveRefresh records one refresh attempt. result is "ok", "error" or "stale".
func ObserveRefresh(result string, took time.Duration) {
	refreshTotal.WithLabelValues(result).Inc()
	refreshDuration.Observe(took.Seconds())
}

func SetSnapshotSlots(n int) {
	snapshotSlots.Set(float64(n))
}

func AddSkipped(n int) {
	if n > 0 {
		skippedRecords.Add(float64(n))
	}
}

func IncConflictCheck(conflict bool) {
	outcome := "free"
	if conflict {
		outcome = "conflict"
	}
	conflictChecks.WithLabelValues(outcome).Inc()
}

// IncSuggestions counts a suggestion request; kind is "list" or "best".
func IncSuggestions(kind string) {
	suggestions.WithLabelValues(kind).Inc()
}
