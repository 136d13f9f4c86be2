package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "storefront"

// CartMetrics counts reconciliation outcomes and optimistic mutation results.
type CartMetrics struct {
	reconciles *prometheus.CounterVec
	mutations  *prometheus.CounterVec
	sessions   prometheus.Gauge
}

// NewCartMetrics registers the cart metrics. A nil registerer yields a no-op.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	reconciles := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cart_reconcile_total",
		Help:      "Cart reconciliations by the source that produced the state.",
	}, []string{"source"})
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cart_mutation_total",
		Help:      "Optimistic cart mutations by kind and terminal state.",
	}, []string{"kind", "state"})
	sessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "live_sessions",
		Help:      "Sessions with an open store scope.",
	})
	reg.MustRegister(reconciles, mutations, sessions)
	return &CartMetrics{reconciles: reconciles, mutations: mutations, sessions: sessions}
}

func (m *CartMetrics) IncReconcile(source string) {
	if m == nil || m.reconciles == nil {
		return
	}
	m.reconciles.WithLabelValues(normalizeLabel(source)).Inc()
}

func (m *CartMetrics) IncMutation(kind, state string) {
	if m == nil || m.mutations == nil {
		return
	}
	m.mutations.WithLabelValues(normalizeLabel(kind), normalizeLabel(state)).Inc()
}

func (m *CartMetrics) SetLiveSessions(n int) {
	if m == nil || m.sessions == nil {
		return
	}
	m.sessions.Set(float64(n))
}
