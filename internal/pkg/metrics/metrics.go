// Package metrics defines and registers all custom Prometheus metrics for the
// restaurant back office API. It is the single source of truth for metric
// names, labels, and help strings.
//
// Metrics are registered with the default registry at package init via
// promauto; HTTP request metrics come from echoprometheus in the router.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "restaurant"

// ── Database metrics ──────────────────────────────────────────────────────────

// DBOperationsTotal counts raw SQL operations issued through the database layer.
// Labels:
//   - op: "query" or "transaction"
//   - result: "ok" or "error"
var DBOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "db_operations_total",
		Help:      "Total number of raw SQL operations, by operation and result.",
	},
	[]string{"op", "result"},
)

// DBOperationDuration measures raw SQL operation latency.
// Label:
//   - op: "query" or "transaction"
var DBOperationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "db_operation_duration_seconds",
		Help:      "Duration of raw SQL operations.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"op"},
)

// ── API handler metrics ───────────────────────────────────────────────────────

// HandlerRejectionsTotal counts requests stopped by the handler pipeline
// before the business handler ran.
// Label:
//   - reason: "method", "unauthorized", "forbidden", "validation"
var HandlerRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "api_handler_rejections_total",
		Help:      "Requests rejected by the handler pipeline, by reason.",
	},
	[]string{"reason"},
)

// ── Billing metrics ───────────────────────────────────────────────────────────

// BillingEventsProcessedTotal counts applied billing webhook events.
// Labels:
//   - type: provider event type (e.g. "customer.subscription.updated")
//   - result: "ok", "ignored" or "error"
var BillingEventsProcessedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "billing_events_processed_total",
		Help:      "Total number of billing webhook events applied, by type and result.",
	},
	[]string{"type", "result"},
)

// BillingEventsDedupTotal counts deduplication decisions.
// Label:
//   - result: "hit" (duplicate, skipped) or "miss" (new event)
var BillingEventsDedupTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "billing_events_dedup_total",
		Help:      "Total number of billing event deduplication checks, by result.",
	},
	[]string{"result"},
)

// BillingQueueDepth tracks pending events in each dispatcher worker channel.
// Label:
//   - worker_id: numeric worker index
var BillingQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "billing_queue_depth",
		Help:      "Current number of billing events pending in each worker channel.",
	},
	[]string{"worker_id"},
)

// ── Maintenance metrics ───────────────────────────────────────────────────────

// MaintenanceRunsTotal counts maintenance job runs.
// Label:
//   - result: "ok" or "error"
var MaintenanceRunsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "maintenance_runs_total",
		Help:      "Total number of maintenance job runs, by result.",
	},
	[]string{"result"},
)

// ObserveDB records one database operation.
func ObserveDB(op string, start time.Time, err error) {
	DBOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	DBOperationsTotal.WithLabelValues(op, Result(err)).Inc()
}

// Result maps an error to the "ok"/"error" label value.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
