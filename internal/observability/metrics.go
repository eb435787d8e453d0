package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the service.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	webhooksTotal   *prometheus.CounterVec
	lookupsTotal    *prometheus.CounterVec
	rowsTotal       *prometheus.CounterVec
}

// NewMetrics initialises a private registry with the service collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "returns_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "returns_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	webhooks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "returns_webhooks_total",
		Help: "Return webhooks processed, by outcome.",
	}, []string{"outcome"})
	lookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "returns_catalog_lookups_total",
		Help: "Catalog lookups by source and result.",
	}, []string{"source", "result"})
	rows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "returns_ledger_rows_total",
		Help: "Ledger appends by sink and status.",
	}, []string{"sink", "status"})
	registry.MustRegister(requests, duration, webhooks, lookups, rows)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		webhooksTotal:   webhooks,
		lookupsTotal:    lookups,
		rowsTotal:       rows,
	}
}

// Handler returns the /metrics exposition handler.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records request count and latency per matched route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// ObserveWebhook counts a processed delivery.
func (m *Metrics) ObserveWebhook(outcome string) {
	if m == nil {
		return
	}
	m.webhooksTotal.WithLabelValues(outcome).Inc()
}

// ObserveLookup counts a catalog lookup.
func (m *Metrics) ObserveLookup(source, result string) {
	if m == nil {
		return
	}
	m.lookupsTotal.WithLabelValues(source, result).Inc()
}

// ObserveAppend counts a ledger append attempt.
func (m *Metrics) ObserveAppend(sink string, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.rowsTotal.WithLabelValues(sink, status).Inc()
}
