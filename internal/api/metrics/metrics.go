// Package metrics defines the custom Prometheus metrics of the client
// registry. Metrics register with the default registry on import through
// promauto and are served by the /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "client_registry"

// ── Client metrics ────────────────────────────────────────────────────────────

// ClientsCreatedTotal counts clients created through the API or registration.
// Label:
//   - role: "reseller", "customer" or "admin"
var ClientsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "clients_created_total",
		Help:      "Total number of clients created, by role.",
	},
	[]string{"role"},
)

// ClientsImportedTotal counts records accepted by bulk imports and restores.
// Label:
//   - mode: "replace", "merge" or "restore"
var ClientsImportedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "clients_imported_total",
		Help:      "Total number of client records imported, by mode.",
	},
	[]string{"mode"},
)

// IdempotentReplaysTotal counts create requests answered from a stored
// Idempotency-Key instead of creating a new client.
var IdempotentReplaysTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "idempotent_replays_total",
		Help:      "Total number of create requests replayed from an idempotency key.",
	},
)

// ── Auth metrics ──────────────────────────────────────────────────────────────

// LoginsTotal counts login attempts.
// Label:
//   - result: "success", "invalid_credentials", "inactive" or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// ── Login recorder metrics ────────────────────────────────────────────────────

// LoginQueueDepth tracks the logins waiting in each recorder worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var LoginQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "login_queue_depth",
		Help:      "Current number of logins pending in each recorder worker channel.",
	},
	[]string{"worker_id"},
)

// LoginsDroppedTotal counts logins discarded because a worker queue was full.
var LoginsDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_dropped_total",
		Help:      "Total number of last-login updates dropped on a full queue.",
	},
)

// LoginRecordDuration measures how long stamping a last login takes.
var LoginRecordDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "login_record_duration_seconds",
		Help:      "Duration of a last-login update from dequeue to persistence.",
		Buckets:   prometheus.DefBuckets,
	},
)
