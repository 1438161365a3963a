package utils

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	requests   *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	payments   *prometheus.CounterVec
	otp        *prometheus.CounterVec
	errors     *prometheus.CounterVec
	sweptTotal prometheus.Counter
}

var (
	metrics     *Metrics
	metricsOnce sync.Once
)

func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		metrics = NewMetrics()
	})
	return metrics
}

// NewMetrics создает набор метрик с собственным реестром
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "invoicer",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "invoicer",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		payments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "invoicer",
			Name:      "payment_operations_total",
			Help:      "Payment ledger operations by kind and outcome.",
		}, []string{"operation", "outcome"}),
		otp: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "invoicer",
			Name:      "otp_events_total",
			Help:      "OTP issue and verification events by flow and outcome.",
		}, []string{"flow", "outcome"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "invoicer",
			Name:      "errors_total",
			Help:      "Errors returned to API clients by kind.",
		}, []string{"kind"}),
		sweptTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "invoicer",
			Name:      "overdue_invoices_swept_total",
			Help:      "Invoices moved to OVERDUE by the daily sweep.",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.latency, m.payments, m.otp, m.errors, m.sweptTotal,
	)
	return m
}

func (m *Metrics) RecordRequest(method, route string, status int, duration time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (m *Metrics) RecordPaymentOperation(operation string, err error) {
	m.payments.WithLabelValues(operation, outcome(err)).Inc()
}

func (m *Metrics) RecordOTP(flow, result string) {
	m.otp.WithLabelValues(flow, result).Inc()
}

func (m *Metrics) RecordError(kind string) {
	m.errors.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordSwept(n int) {
	m.sweptTotal.Add(float64(n))
}

// Handler отдает метрики в текстовом формате Prometheus
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
