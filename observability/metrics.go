// Package observability exposes the Prometheus collectors of the chat service.
// A nil *Metrics is valid and records nothing, which keeps tests free of registries.
package observability

import (
	"chat-relay/domain"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "chat_relay"

type Metrics struct {
	LiveConnections  prometheus.Gauge
	Admissions       *prometheus.CounterVec
	Pushes           *prometheus.CounterVec
	MessagesIngested *prometheus.CounterVec
	ProcessRSSBytes  prometheus.Gauge
	ProcessCPU       prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		LiveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_connections",
			Help:      "Connections currently admitted in the registry.",
		}),
		Admissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "admissions_total",
			Help:      "Live-channel connection attempts by outcome.",
		}, []string{"result"}),
		Pushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pushes_total",
			Help:      "Events pushed to live connections by message kind and outcome.",
		}, []string{"kind", "result"}),
		MessagesIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_ingested_total",
			Help:      "Messages persisted by the ingestion API.",
		}, []string{"kind"}),
		ProcessRSSBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "process_rss_bytes",
			Help:      "Resident memory of the server process.",
		}),
		ProcessCPU: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "process_cpu_percent",
			Help:      "CPU usage of the server process.",
		}),
	}
	reg.MustRegister(m.LiveConnections, m.Admissions, m.Pushes,
		m.MessagesIngested, m.ProcessRSSBytes, m.ProcessCPU)
	return m
}

func (m *Metrics) ObservePush(kind domain.MessageKind, ok bool) {
	if m == nil {
		return
	}
	m.Pushes.WithLabelValues(string(kind), result(ok)).Inc()
}

func (m *Metrics) ObserveAdmission(ok bool) {
	if m == nil {
		return
	}
	m.Admissions.WithLabelValues(result(ok)).Inc()
}

func (m *Metrics) ObserveIngested(kind domain.MessageKind) {
	if m == nil {
		return
	}
	m.MessagesIngested.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) SetLiveConnections(n int) {
	if m == nil {
		return
	}
	m.LiveConnections.Set(float64(n))
}

func (m *Metrics) SetProcessStats(rss uint64, cpu float64) {
	if m == nil {
		return
	}
	m.ProcessRSSBytes.Set(float64(rss))
	m.ProcessCPU.Set(cpu)
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
