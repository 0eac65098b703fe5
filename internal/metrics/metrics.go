package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the Prometheus collectors for the wrap coordinator. Each
// instance owns its registry so tests can build isolated sets without
// colliding on the default global registry.
type Metrics struct {
	registry *prometheus.Registry

	WrapRequests   prometheus.Counter
	WrapsCompleted prometheus.Counter
	Unwraps        prometheus.Counter
	Failures       *prometheus.CounterVec
}

// New registers and returns the coordinator metric set.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		WrapRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "veilpay_wrap_requests_total",
			Help: "Number of entropy-backed wrap requests created.",
		}),
		WrapsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "veilpay_wraps_completed_total",
			Help: "Number of wrap requests completed and consumed.",
		}),
		Unwraps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "veilpay_unwraps_total",
			Help: "Number of unwrap transitions applied.",
		}),
		Failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "veilpay_operation_failures_total",
			Help: "Number of rejected operations by operation name.",
		}, []string{"op"}),
	}

	registry.MustRegister(m.WrapRequests, m.WrapsCompleted, m.Unwraps, m.Failures)
	return m
}

// Handler returns the HTTP handler exposing the registry in Prometheus
// exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
