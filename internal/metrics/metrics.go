package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the login-gate Prometheus collectors.
type Metrics struct {
	LoginAttemptsTotal      *prometheus.CounterVec
	BlacklistAdditionsTotal *prometheus.CounterVec
	LedgerFailureCount      prometheus.Histogram
}

// New registers the collectors on the given registerer. Tests pass a fresh
// registry; the server passes the registry it exposes on /metrics.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		LoginAttemptsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "contactdesk_login_attempts_total",
			Help: "Login attempts by outcome (success, invalid_credentials, blocked, unknown_login, store_error)",
		}, []string{"outcome"}),
		BlacklistAdditionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "contactdesk_blacklist_additions_total",
			Help: "IPs added to the blacklist by trigger (unknown_login, failure_threshold)",
		}, []string{"trigger"}),
		LedgerFailureCount: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "contactdesk_ledger_failure_count",
			Help:    "Consecutive-failure count observed after each failed attempt",
			Buckets: []float64{1, 2, 3, 5, 10, 25},
		}),
	}
}

func (m *Metrics) ObserveLoginOutcome(outcome string) {
	m.LoginAttemptsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveBlacklistAddition(trigger string) {
	m.BlacklistAdditionsTotal.WithLabelValues(trigger).Inc()
}

func (m *Metrics) ObserveFailureCount(count int) {
	m.LedgerFailureCount.Observe(float64(count))
}
