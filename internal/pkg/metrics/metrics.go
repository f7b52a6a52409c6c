// Package metrics defines and registers all custom Prometheus metrics for the
// payment portal. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default registry on package init through
// promauto and exposed on /metrics by the API router. Core services and the backend
// client record into them directly.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "portal"

// ── Backend metrics ───────────────────────────────────────────────────────────

// BackendRequestsTotal counts REST calls made to the banking backend.
// Labels:
//   - operation: e.g. "login", "create_payment", "approve_payment"
//   - outcome: "ok" or "error"
var BackendRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "backend_requests_total",
		Help:      "Total number of backend REST calls, by operation and outcome.",
	},
	[]string{"operation", "outcome"},
)

// BackendRequestDuration measures backend round trips.
var BackendRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "backend_request_duration_seconds",
		Help:      "Duration of backend REST calls.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"operation"},
)

// ── Workflow metrics ──────────────────────────────────────────────────────────

// WorkflowTransitionsTotal counts state machine transitions.
// Labels:
//   - workflow: "registration", "payment" or "session"
//   - to: the state entered (e.g. "preview_confirm", "step_2", "authenticated")
var WorkflowTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "workflow_transitions_total",
		Help:      "Total number of workflow state transitions.",
	},
	[]string{"workflow", "to"},
)

// ConcurrencyConflictsTotal counts re-entrant triggers that were suppressed.
// Label:
//   - operation: e.g. "approve", "reject", "register", "add_admin"
var ConcurrencyConflictsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "concurrency_conflicts_total",
		Help:      "Total number of triggers rejected because the same operation was in flight.",
	},
	[]string{"operation"},
)

// ── Approval queue metrics ────────────────────────────────────────────────────

// ApprovalActionsTotal counts settled admin decisions.
// Labels:
//   - action: "approve" or "reject"
//   - result: "ok" or "error"
var ApprovalActionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "approval_actions_total",
		Help:      "Total number of approve/reject actions, by result.",
	},
	[]string{"action", "result"},
)

// PendingPaymentsQueued tracks the size of the last fetched approval queue.
var PendingPaymentsQueued = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "pending_payments_queued",
		Help:      "Number of pending payments in the last refreshed approval queue.",
	},
)
