// Package metrics exposes Prometheus counters for message handling.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "clawback"

// Metrics holds the service counters on a private registry so tests and
// multiple servers in one process never collide on the global one.
type Metrics struct {
	Registry *prometheus.Registry

	Messages      *prometheus.CounterVec
	Commands      *prometheus.CounterVec
	Confirmations *prometheus.CounterVec
	ParseFailures *prometheus.CounterVec
	Rejections    *prometheus.CounterVec
	FXFallbacks   prometheus.Counter
	Pending       prometheus.Gauge
}

// New registers every collector on a fresh registry, plus the Go and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Chat messages handled, by audit status.",
		}, []string{"status"}),
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Parsed commands, by kind.",
		}, []string{"kind"}),
		Confirmations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "confirmations_total",
			Help:      "Resolved confirmations, by outcome.",
		}, []string{"outcome"}),
		ParseFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_failures_total",
			Help:      "Messages that did not parse, by reason.",
		}, []string{"reason"}),
		Rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejections_total",
			Help:      "Commands rejected by the ledger, by error code.",
		}, []string{"code"}),
		FXFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fx_fallbacks_total",
			Help:      "Balance requests answered per currency because a rate was unavailable.",
		}),
		Pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_confirmations",
			Help:      "Proposals currently awaiting yes or no.",
		}),
	}

	m.Registry.MustRegister(
		m.Messages, m.Commands, m.Confirmations, m.ParseFailures, m.Rejections, m.FXFallbacks, m.Pending,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
