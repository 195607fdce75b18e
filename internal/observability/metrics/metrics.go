// Package metrics exposes prometheus instruments for the authorization core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the registered collectors.
type Metrics struct {
	Registry *prometheus.Registry

	Decisions        *prometheus.CounterVec
	ActivityRecorded prometheus.Counter
}

// New builds and registers the collectors on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "teamgate_authz_decisions_total",
		Help: "Authorization decisions by resource kind and outcome.",
	}, []string{"resource", "decision"})

	activity := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "teamgate_activity_records_total",
		Help: "Activity log entries written.",
	})

	registry.MustRegister(decisions, activity)

	return &Metrics{
		Registry:         registry,
		Decisions:        decisions,
		ActivityRecorded: activity,
	}
}

// ObserveDecision counts one authorization decision.
func (m *Metrics) ObserveDecision(resource string, allowed bool) {
	if m == nil {
		return
	}
	decision := "deny"
	if allowed {
		decision = "allow"
	}
	m.Decisions.WithLabelValues(resource, decision).Inc()
}
