package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/tendant/proforma-api/pkg/domain"
)

// Metrics counts session manager and password reset outcomes by failure kind.
type Metrics struct {
	operations *prometheus.CounterVec
	revoked    prometheus.Counter
}

// NewMetrics registers the auth counters with reg. A nil reg yields
// unregistered counters, which is what tests use.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "proforma",
			Subsystem: "auth",
			Name:      "operations_total",
			Help:      "Session and password reset operations by outcome.",
		}, []string{"operation", "outcome"}),
		revoked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "proforma",
			Subsystem: "auth",
			Name:      "sessions_revoked_total",
			Help:      "Sessions revoked by logout, rotation or account changes.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.operations, m.revoked)
	}
	return m
}

func (m *Metrics) observe(operation string, err error) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, domain.FailureKind(err)).Inc()
}

func (m *Metrics) sessionsRevoked(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.revoked.Add(float64(n))
}
