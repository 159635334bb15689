package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	OrdersCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fitledger_orders_created_total",
			Help: "Gateway orders created",
		},
	)

	CapturesCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fitledger_captures_completed_total",
			Help: "Successful payment captures",
		},
	)

	CaptureReplays = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fitledger_capture_replays_total",
			Help: "Capture calls rejected by the gateway as already captured",
		},
	)

	LedgerRecordsWritten = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fitledger_ledger_records_written_total",
			Help: "Purchase records written by capture fan-out",
		},
	)

	FanoutFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fitledger_fanout_failures_total",
			Help: "Per-item ledger writes that failed during capture fan-out",
		},
	)

	AccessChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitledger_access_checks_total",
			Help: "Entitlement checks by outcome",
		},
		[]string{"outcome"},
	)

	LazyDeactivations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fitledger_lazy_deactivations_total",
			Help: "Expired records deactivated during an access check",
		},
	)

	ReconciliationRepairs = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fitledger_reconciliation_repairs_total",
			Help: "Ledger records re-written by the reconciliation worker",
		},
	)

	GatewayRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fitledger_gateway_request_duration_seconds",
			Help:    "Latency of payment gateway calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)
)

func Register() {
	prometheus.MustRegister(
		OrdersCreated,
		CapturesCompleted,
		CaptureReplays,
		LedgerRecordsWritten,
		FanoutFailures,
		AccessChecks,
		LazyDeactivations,
		ReconciliationRepairs,
		GatewayRequestDuration,
	)
}
