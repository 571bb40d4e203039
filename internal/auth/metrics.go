// ABOUTME: Prometheus counter for authentication pipeline outcomes
// ABOUTME: A nil *Metrics is valid and records nothing

package auth

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Pipeline outcome labels.
const (
	OutcomeAnonymous        = "anonymous"
	OutcomeInvalidToken     = "invalid_token"
	OutcomeUnknownPrincipal = "unknown_principal"
	OutcomeResolveError     = "resolve_error"
	OutcomeAuthenticated    = "authenticated"
)

// Metrics counts authentication attempts by outcome.
type Metrics struct {
	attempts *prometheus.CounterVec
}

// NewMetrics creates the counter and registers it with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskgate_auth_attempts_total",
				Help: "Authentication pipeline executions by outcome",
			},
			[]string{"outcome"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.attempts)
	}
	return m
}

func (m *Metrics) record(outcome string) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(outcome).Inc()
}
