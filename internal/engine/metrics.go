package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	messagesTotal    *prometheus.CounterVec
	transitionsTotal *prometheus.CounterVec
	authzTotal       *prometheus.CounterVec
	publishesTotal   *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		messagesTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "bankd",
				Subsystem: "engine",
				Name:      "messages_total",
				Help:      "Inbound transport messages partitioned by channel and result.",
			},
			[]string{"channel", "result"},
		),
		transitionsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "bankd",
				Subsystem: "engine",
				Name:      "status_transitions_total",
				Help:      "Applied transaction status transitions.",
			},
			[]string{"from", "to"},
		),
		authzTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "bankd",
				Subsystem: "engine",
				Name:      "authorization_results_total",
				Help:      "Authorization call continuations partitioned by action and outcome.",
			},
			[]string{"action", "outcome"},
		),
		publishesTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "bankd",
				Subsystem: "engine",
				Name:      "publishes_total",
				Help:      "Outbound notifications partitioned by kind.",
			},
			[]string{"kind"},
		),
	}
}

func (m *Metrics) message(channel, result string) {
	if m != nil {
		m.messagesTotal.WithLabelValues(channel, result).Inc()
	}
}

func (m *Metrics) transition(from, to string) {
	if m != nil {
		m.transitionsTotal.WithLabelValues(from, to).Inc()
	}
}

func (m *Metrics) authzResult(action, outcome string) {
	if m != nil {
		m.authzTotal.WithLabelValues(action, outcome).Inc()
	}
}

func (m *Metrics) publish(kind string) {
	if m != nil {
		m.publishesTotal.WithLabelValues(kind).Inc()
	}
}
