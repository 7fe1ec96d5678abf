package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the application counters and histograms.
type Metrics struct {
	// Projection metrics
	ProjectionsServed    prometheus.Counter
	ProjectionDuration   prometheus.Histogram
	OccurrencesProjected *prometheus.CounterVec
	ProjectionAnomalies  prometheus.Counter
	SnapshotCache        *prometheus.CounterVec

	// Settlement metrics
	Materializations       prometheus.Counter
	SettlementsConfirmed   prometheus.Counter
	SettlementsReversed    prometheus.Counter
	MaterializeConflicts   prometheus.Counter
	SettlementDuration     prometheus.Histogram
	SettlementErrors       *prometheus.CounterVec
	CoalescedConfirmations prometheus.Counter

	// Obligation metrics
	ObligationOperations *prometheus.CounterVec

	// Outbox metrics
	EventsPublished *prometheus.CounterVec
	EventErrors     prometheus.Counter
}

// NewRegistry returns a registry holding the Go runtime and process
// collectors. Application and HTTP metrics are registered on top of it.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// New registers all application metrics with reg. Registering twice on the
// same registry panics.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		ProjectionsServed: f.NewCounter(prometheus.CounterOpts{
			Name: "duebook_projections_total",
			Help: "Total number of month projections served",
		}),
		ProjectionDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "duebook_projection_duration_seconds",
			Help:    "Duration of month projections including snapshot load",
			Buckets: prometheus.DefBuckets,
		}),
		OccurrencesProjected: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "duebook_occurrences_projected_total",
				Help: "Occurrences emitted by projections, by variant",
			},
			[]string{"variant"},
		),
		ProjectionAnomalies: f.NewCounter(prometheus.CounterOpts{
			Name: "duebook_projection_anomalies_total",
			Help: "Stored rows skipped by the projector because of malformed data",
		}),
		SnapshotCache: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "duebook_snapshot_cache_total",
				Help: "Row snapshot cache lookups and discarded fills by result",
			},
			[]string{"result"},
		),

		Materializations: f.NewCounter(prometheus.CounterOpts{
			Name: "duebook_materializations_total",
			Help: "Virtual occurrences turned into stored rows",
		}),
		SettlementsConfirmed: f.NewCounter(prometheus.CounterOpts{
			Name: "duebook_settlements_confirmed_total",
			Help: "Total number of confirmed settlements",
		}),
		SettlementsReversed: f.NewCounter(prometheus.CounterOpts{
			Name: "duebook_settlements_reversed_total",
			Help: "Total number of reversed settlements",
		}),
		MaterializeConflicts: f.NewCounter(prometheus.CounterOpts{
			Name: "duebook_materialize_conflicts_total",
			Help: "Confirmations rejected because the month was already materialized",
		}),
		SettlementDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "duebook_settlement_duration_seconds",
			Help:    "Duration of settlement operations",
			Buckets: prometheus.DefBuckets,
		}),
		SettlementErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "duebook_settlement_errors_total",
				Help: "Total number of settlement errors by operation",
			},
			[]string{"operation"},
		),
		CoalescedConfirmations: f.NewCounter(prometheus.CounterOpts{
			Name: "duebook_coalesced_confirmations_total",
			Help: "Duplicate in-flight confirmations that shared another call's result",
		}),

		ObligationOperations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "duebook_obligation_operations_total",
				Help: "Total obligation operations by type",
			},
			[]string{"operation"},
		),

		EventsPublished: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "duebook_events_published_total",
				Help: "Outbox events published by type",
			},
			[]string{"event_type"},
		),
		EventErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "duebook_event_publish_errors_total",
			Help: "Outbox events that failed to publish",
		}),
	}
}
