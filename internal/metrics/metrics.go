// Package metrics содержит счётчики Prometheus сервиса.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "helptoken"

// Metrics — набор счётчиков, которые обновляют сервисы.
type Metrics struct {
	SessionsSubmitted  prometheus.Counter
	SessionsDecided    *prometheus.CounterVec
	Redemptions        *prometheus.CounterVec
	SettlementAttempts *prometheus.CounterVec
	AuditMismatches    prometheus.Counter

	gatherer prometheus.Gatherer
}

// New регистрирует счётчики в reg. Если reg также реализует prometheus.Gatherer,
// Handler отдаёт именно его содержимое.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SessionsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_submitted_total",
			Help:      "Volunteer sessions accepted for verification.",
		}),
		SessionsDecided: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_decided_total",
			Help:      "Verification decisions by outcome.",
		}, []string{"decision"}),
		Redemptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redemptions_total",
			Help:      "Marketplace redemptions by result.",
		}, []string{"result"}),
		SettlementAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settlement_attempts_total",
			Help:      "External ledger settlement attempts by result.",
		}, []string{"result"}),
		AuditMismatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_mismatches_total",
			Help:      "Users whose stored balance differs from the transaction journal.",
		}),
	}
	reg.MustRegister(m.SessionsSubmitted, m.SessionsDecided, m.Redemptions, m.SettlementAttempts, m.AuditMismatches)

	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	} else {
		m.gatherer = prometheus.DefaultGatherer
	}
	return m
}

// NewNoop создаёт счётчики в собственном реестре, удобно для тестов.
func NewNoop() *Metrics {
	return New(prometheus.NewRegistry())
}

// Handler отдаёт метрики в формате Prometheus.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
