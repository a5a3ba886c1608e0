// Package metrics provides the Prometheus collectors of the web front-end.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all application collectors.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	APIRequests         *prometheus.CounterVec
	APIDuration         *prometheus.HistogramVec
	HTTPRequests        *prometheus.CounterVec
	HTTPDuration        *prometheus.HistogramVec
	CircuitBreakerState *prometheus.GaugeVec
	ActiveStores        prometheus.Gauge
	Dispatches          *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them on reg.
// A nil reg selects a fresh registry, which keeps tests isolated.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		APIRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "webapp_api_requests_total",
			Help: "Backend requests by service, method and status class",
		}, []string{"service", "method", "status"}),
		APIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "webapp_api_request_duration_seconds",
			Help:    "Backend request duration",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"service"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "webapp_http_requests_total",
			Help: "Browser requests by method and status code",
		}, []string{"method", "code"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "webapp_http_request_duration_seconds",
			Help:    "Browser request duration",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		CircuitBreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "webapp_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		}, []string{"name"}),
		ActiveStores: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "webapp_active_stores",
			Help: "Per-session state stores held in memory",
		}),
		Dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "webapp_store_dispatches_total",
			Help: "Actions dispatched to session stores by type",
		}, []string{"action"}),
		gatherer: reg,
	}

	reg.MustRegister(
		m.APIRequests,
		m.APIDuration,
		m.HTTPRequests,
		m.HTTPDuration,
		m.CircuitBreakerState,
		m.ActiveStores,
		m.Dispatches,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)

	return m
}

// ObserveAPI records one backend call. Status 0 is a transport failure.
func (m *Metrics) ObserveAPI(service, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.APIRequests.WithLabelValues(service, method, statusClass(status)).Inc()
	m.APIDuration.WithLabelValues(service).Observe(d.Seconds())
}

// ObserveHTTP records one browser request.
func (m *Metrics) ObserveHTTP(method string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, strconv.Itoa(code)).Inc()
	m.HTTPDuration.WithLabelValues(method).Observe(d.Seconds())
}

// SetBreakerState records the state of the named breaker.
func (m *Metrics) SetBreakerState(name string, state int) {
	if m == nil {
		return
	}
	m.CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// SetActiveStores records the number of live session stores.
func (m *Metrics) SetActiveStores(n int) {
	if m == nil {
		return
	}
	m.ActiveStores.Set(float64(n))
}

// CountDispatch records one dispatched action.
func (m *Metrics) CountDispatch(action string) {
	if m == nil {
		return
	}
	m.Dispatches.WithLabelValues(action).Inc()
}

// Handler returns the exposition handler for the registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func statusClass(status int) string {
	switch {
	case status == 0:
		return "error"
	case status < 200:
		return "1xx"
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
