package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics counts order engine and review engine outcomes.
type OrderMetrics struct {
	created     *prometheus.CounterVec
	transitions *prometheus.CounterVec
	completed   prometheus.Counter
	reviews     prometheus.Counter
}

// NewOrderMetrics registers the order metrics on the provided registerer. A nil
// registerer yields a no-op recorder.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	created := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders created, by creation path.",
	}, []string{"path"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_transitions_total",
		Help: "Order status transitions applied, by target status.",
	}, []string{"status"})
	completed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "order_jobs_counted_total",
		Help: "Completions that incremented a provider's job counter.",
	})
	reviews := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "provider_reviews_total",
		Help: "Reviews recorded.",
	})
	reg.MustRegister(created, transitions, completed, reviews)
	return &OrderMetrics{
		created:     created,
		transitions: transitions,
		completed:   completed,
		reviews:     reviews,
	}
}

func (m *OrderMetrics) IncCreated(path string) {
	if m == nil || m.created == nil {
		return
	}
	m.created.WithLabelValues(normalizeLabel(path)).Inc()
}

func (m *OrderMetrics) IncTransition(status string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(status)).Inc()
}

func (m *OrderMetrics) IncJobCounted() {
	if m == nil || m.completed == nil {
		return
	}
	m.completed.Inc()
}

func (m *OrderMetrics) IncReview() {
	if m == nil || m.reviews == nil {
		return
	}
	m.reviews.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
