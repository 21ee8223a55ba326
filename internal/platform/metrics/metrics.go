package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the moderation core.
type Metrics struct {
	ActionsPerformed *prometheus.CounterVec
	ActionsRejected  *prometheus.CounterVec
	EntitiesCreated  *prometheus.CounterVec
	EventPublishes   *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
}

// New creates and registers all metrics against the given registerer. Tests
// pass a fresh registry so repeated construction never double-registers.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ActionsPerformed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "spisok_actions_performed_total",
			Help: "Accepted moderation actions by entity kind and action name",
		}, []string{"kind", "action"}),
		ActionsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "spisok_actions_rejected_total",
			Help: "Rejected moderation actions by entity kind and error code",
		}, []string{"kind", "code"}),
		EntitiesCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "spisok_entities_created_total",
			Help: "Entities created by intake, by entity kind",
		}, []string{"kind"}),
		EventPublishes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "spisok_event_publishes_total",
			Help: "Outbound event publishes by type and outcome",
		}, []string{"type", "outcome"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "spisok_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
	}
}

// IncActionPerformed records an accepted action. Nil-safe so services can
// run without metrics in tests.
func (m *Metrics) IncActionPerformed(kind, action string) {
	if m != nil {
		m.ActionsPerformed.WithLabelValues(kind, action).Inc()
	}
}

// IncActionRejected records a rejected action by error code.
func (m *Metrics) IncActionRejected(kind, code string) {
	if m != nil {
		m.ActionsRejected.WithLabelValues(kind, code).Inc()
	}
}

// IncEntityCreated records an intake creation.
func (m *Metrics) IncEntityCreated(kind string) {
	if m != nil {
		m.EntitiesCreated.WithLabelValues(kind).Inc()
	}
}

// IncEventPublish records an event publish attempt.
func (m *Metrics) IncEventPublish(eventType, outcome string) {
	if m != nil {
		m.EventPublishes.WithLabelValues(eventType, outcome).Inc()
	}
}
