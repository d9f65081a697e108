// Package metrics exposes Prometheus collectors for the HTTP API and the
// try-on pipeline.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry        *prometheus.Registry
	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	tryOnTotal      *prometheus.CounterVec
	tryOnDuration   prometheus.Histogram
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "modaflow_api_requests_total",
			Help: "Total HTTP requests handled by the API.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "modaflow_api_request_duration_seconds",
			Help:    "API request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		tryOnTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "modaflow_tryon_requests_total",
			Help: "Try-on requests by outcome.",
		}, []string{"outcome"}),
		tryOnDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "modaflow_tryon_duration_seconds",
			Help:    "End to end try-on latency in seconds.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 60, 120},
		}),
	}
	registry.MustRegister(
		m.requestTotal,
		m.requestDuration,
		m.tryOnTotal,
		m.tryOnDuration,
	)
	return m
}

// RegisterCatalogSize exports the live product and category counts.
func (m *Metrics) RegisterCatalogSize(counts func() (products, categories int)) {
	m.registry.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "modaflow_catalog_products",
			Help: "Products currently in the catalog.",
		}, func() float64 {
			p, _ := counts()
			return float64(p)
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "modaflow_catalog_categories",
			Help: "Categories currently in the catalog.",
		}, func() float64 {
			_, c := counts()
			return float64(c)
		}),
	)
}

// ObserveTryOn records a finished try-on.
func (m *Metrics) ObserveTryOn(outcome string, elapsed time.Duration) {
	m.tryOnTotal.WithLabelValues(outcome).Inc()
	m.tryOnDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency labelled by chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		route := routeLabel(r)
		status := strconv.Itoa(recorder.status)

		m.requestTotal.WithLabelValues(r.Method, route, status).Inc()
		m.requestDuration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
	})
}

// routeLabel keeps label cardinality bounded: unmatched paths collapse to
// "unmatched".
func routeLabel(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.status = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}
