// Package metrics exposes Prometheus collectors for the ledger and the
// reporting engine. Collectors are registered on the default registry;
// the api package serves them at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TransactionsRecorded counts successfully recorded ledger transactions
	// by type (INCOME or EXPENSE).
	TransactionsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "festival_ledger",
		Name:      "transactions_recorded_total",
		Help:      "Ledger transactions recorded, by type.",
	}, []string{"type"})

	// AccountConflicts counts optimistic-concurrency conflicts on the
	// account document that were retried.
	AccountConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "festival_ledger",
		Name:      "account_version_conflicts_total",
		Help:      "Versioned account updates retried after a conflict.",
	})

	// RecorderFailures counts recordings that failed after validation,
	// including the append-after-update inconsistency window.
	RecorderFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "festival_ledger",
		Name:      "recorder_failures_total",
		Help:      "Failed income/expense recordings.",
	})

	// ReportBuilds counts festival report builds.
	ReportBuilds = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "festival_ledger",
		Name:      "report_builds_total",
		Help:      "Festival reconciliation reports built.",
	})

	// DashboardDegraded counts dashboard sub-fetches that failed and were
	// degraded to an empty section.
	DashboardDegraded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "festival_ledger",
		Name:      "dashboard_degraded_sections_total",
		Help:      "Dashboard sections degraded due to a failed sub-fetch.",
	}, []string{"section"})
)
