package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Token exchange outcomes.
const (
	ExchangeSuccess         = "success"
	ExchangeRejected        = "rejected"
	ExchangeInvalidResponse = "invalid_response"
	ExchangeNetworkError    = "network_error"
)

// OutcomeSuccess labels a flow that completed without error.
const OutcomeSuccess = "success"

// Metrics holds the OAuth flow collectors. A nil *Metrics is a no-op.
type Metrics struct {
	registry      *prometheus.Registry
	initiations   *prometheus.CounterVec
	callbacks     *prometheus.CounterVec
	tokenExchange *prometheus.HistogramVec
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		initiations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shopify_oauth",
			Name:      "initiations_total",
			Help:      "Authorization initiations by outcome.",
		}, []string{"outcome"}),
		callbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shopify_oauth",
			Name:      "callbacks_total",
			Help:      "OAuth callbacks by outcome.",
		}, []string{"outcome"}),
		tokenExchange: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "shopify_oauth",
			Name:      "token_exchange_duration_seconds",
			Help:      "Latency of the authorization code exchange.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"outcome"}),
	}
	m.registry.MustRegister(
		m.initiations,
		m.callbacks,
		m.tokenExchange,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveInitiation counts one initiation; outcome is an error kind or OutcomeSuccess.
func (m *Metrics) ObserveInitiation(outcome string) {
	if m == nil {
		return
	}
	m.initiations.WithLabelValues(outcome).Inc()
}

// ObserveCallback counts one callback; outcome is an error kind or OutcomeSuccess.
func (m *Metrics) ObserveCallback(outcome string) {
	if m == nil {
		return
	}
	m.callbacks.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveTokenExchange(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.tokenExchange.WithLabelValues(outcome).Observe(d.Seconds())
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
