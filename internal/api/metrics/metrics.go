// Package metrics defines and registers all custom Prometheus metrics for the
// EstateLine CRM API. It is the single source of truth for metric names,
// labels, and help strings.
//
// All metrics register themselves with the default Prometheus registry via
// promauto at package init; the /metrics endpoint exposes them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "crm"

// ── Lead metrics ──────────────────────────────────────────────────────────────

// LeadsCreatedTotal counts new leads.
// Label:
//   - source: how the lead entered the system ("manual" or "import")
var LeadsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "leads_created_total",
		Help:      "Total number of leads created, by intake source.",
	},
	[]string{"source"},
)

// LeadAssignmentsTotal counts individual lead assignment outcomes.
// Labels:
//   - action: "assign" or "unassign"
//   - result: "ok" or "failed"
var LeadAssignmentsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lead_assignments_total",
		Help:      "Total number of per-lead assignment operations, by action and result.",
	},
	[]string{"action", "result"},
)

// LeadImportRowsTotal counts rows seen during Excel imports.
// Label:
//   - result: "imported" or "failed"
var LeadImportRowsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lead_import_rows_total",
		Help:      "Total number of spreadsheet rows processed during lead imports.",
	},
	[]string{"result"},
)

// ── Report metrics ────────────────────────────────────────────────────────────

// ReportsCreatedTotal counts submitted sales-visit reports.
var ReportsCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reports_created_total",
		Help:      "Total number of sales-visit reports submitted.",
	},
)

// ReportExportsTotal counts .xlsx downloads served to admins.
// Label:
//   - kind: "reports" or "summary"
var ReportExportsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "report_exports_total",
		Help:      "Total number of spreadsheet exports generated.",
	},
	[]string{"kind"},
)

// ── Geocoding metrics ─────────────────────────────────────────────────────────

// GeocodeCacheTotal counts reverse-geocode cache lookups.
// Label:
//   - result: "hit" or "miss"
var GeocodeCacheTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "geocode_cache_total",
		Help:      "Total number of reverse-geocode cache lookups, labelled by result (hit/miss).",
	},
	[]string{"result"},
)

// GeocodeQueueDepth tracks pending reverse-geocode jobs per worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var GeocodeQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "geocode_queue_depth",
		Help:      "Current number of reverse-geocode jobs pending in each worker channel.",
	},
	[]string{"worker_id"},
)

// GeocodeDuration measures a single reverse-geocode job end-to-end.
// Label:
//   - outcome: "resolved", "cached", or "error"
var GeocodeDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "geocode_duration_seconds",
		Help:      "Duration of reverse-geocode jobs from dequeue to address persistence.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"outcome"},
)
