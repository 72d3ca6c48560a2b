package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ledgerGuardSkips = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_guard_skips_total",
		Help: "Remote imports skipped because the local window was empty and recently opened.",
	})

	ledgerUnavailable = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_unavailable_total",
		Help: "Local ledger operations that failed at the storage layer.",
	})

	ledgerRemoteImported = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_remote_imported_records_total",
		Help: "Completion records merged into the local ledger from the remote replica.",
	})

	ledgerRemotePullFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_remote_pull_failures_total",
		Help: "Background remote pulls that failed.",
	})

	daySettlements = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "day_settlements_total",
		Help: "Days settled into the ledger, by outcome and trigger.",
	}, []string{"outcome", "trigger"})

	snapshotDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "statistics_snapshot_duration_seconds",
		Help:    "Time to compute a statistics snapshot.",
		Buckets: prometheus.DefBuckets,
	})
)
