// Package metrics registers the Prometheus collectors exposed at /metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// AllocationsTotal counts batch allocation attempts by outcome.
	AllocationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "scheduler",
		Name:      "allocations_total",
		Help:      "Batch allocation attempts by outcome (allocated, conflict, error)",
	}, []string{"outcome"})

	// ConflictChecks counts conflict-scanner invocations.
	ConflictChecks = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "scheduler",
		Name:      "conflict_checks_total",
		Help:      "Number of resource conflict scans executed",
	})

	// OpenConflicts is the number of double-booked (resource, event,
	// event) triples found by the most recent audit sweep.
	OpenConflicts = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "scheduler",
		Name:      "open_conflicts",
		Help:      "Double-booked pairs found by the last conflict sweep",
	})

	// SweepDuration observes audit sweep run time.
	SweepDuration = prometheus.NewSummary(prometheus.SummaryOpts{
		Namespace: "scheduler",
		Name:      "conflict_sweep_duration_seconds",
		Help:      "Time spent running the system-wide conflict sweep",
	})
)

func init() {
	prometheus.MustRegister(AllocationsTotal, ConflictChecks, OpenConflicts, SweepDuration)
}
