package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics stores Prometheus collectors used across the service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	UnreadQueries *prometheus.CounterVec
	BackendErrors *prometheus.CounterVec
	MessagesSent  *prometheus.CounterVec
	Withdrawals   *prometheus.CounterVec
	WSConnections prometheus.Gauge
}

var (
	regOnce         sync.Once
	metricsInstance *Metrics
)

// Registry builds and registers the metrics singleton with optional namespace.
func Registry(namespace string) *Metrics {
	regOnce.Do(func() {
		metricsInstance = New(namespace)
		prometheus.MustRegister(metricsInstance.Collectors()...)
	})
	return metricsInstance
}

// New builds unregistered collectors; tests register them on their own registry.
func New(namespace string) *Metrics {
	return &Metrics{
		UnreadQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unread_queries_total",
			Help:      "Unread count, id and read-status operations by outcome.",
		}, []string{"op", "outcome"}),
		BackendErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_errors_total",
			Help:      "Total backend errors grouped by component.",
		}, []string{"component"}),
		MessagesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_sent_total",
			Help:      "Chat messages stored, by content kind.",
		}, []string{"kind"}),
		Withdrawals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "withdrawals_total",
			Help:      "Withdrawal requests by outcome.",
		}, []string{"outcome"}),
		WSConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ws_connections",
			Help:      "Open websocket connections.",
		}),
	}
}

func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.UnreadQueries,
		m.BackendErrors,
		m.MessagesSent,
		m.Withdrawals,
		m.WSConnections,
	}
}

func (m *Metrics) UnreadQuery(op, outcome string) {
	if m == nil {
		return
	}
	m.UnreadQueries.WithLabelValues(op, outcome).Inc()
}

func (m *Metrics) BackendError(component string) {
	if m == nil {
		return
	}
	m.BackendErrors.WithLabelValues(component).Inc()
}

func (m *Metrics) MessageSent(kind string) {
	if m == nil {
		return
	}
	m.MessagesSent.WithLabelValues(kind).Inc()
}

func (m *Metrics) Withdrawal(outcome string) {
	if m == nil {
		return
	}
	m.Withdrawals.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ConnectionOpened() {
	if m == nil {
		return
	}
	m.WSConnections.Inc()
}

func (m *Metrics) ConnectionClosed() {
	if m == nil {
		return
	}
	m.WSConnections.Dec()
}
