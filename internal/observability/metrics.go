package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects the Prometheus series exposed on /metrics.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	calculations    *prometheus.CounterVec
	reports         *prometheus.CounterVec
	reportDuration  *prometheus.HistogramVec
}

// NewMetrics builds a private registry with HTTP, calculation and report series.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "clinicbooks_http_requests_total",
		Help: "HTTP requests by route and status.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "clinicbooks_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	calculations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "clinicbooks_calculations_total",
		Help: "Transaction calculations by method and outcome.",
	}, []string{"method", "outcome"})
	reports := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "clinicbooks_bas_reports_total",
		Help: "BAS reports served, by source.",
	}, []string{"source"})
	reportDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "clinicbooks_bas_report_duration_seconds",
		Help:    "Time to serve a BAS report, by source.",
		Buckets: prometheus.DefBuckets,
	}, []string{"source"})
	registry.MustRegister(requests, duration, calculations, reports, reportDuration,
		collectors.NewGoCollector())
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		calculations:    calculations,
		reports:         reports,
		reportDuration:  reportDuration,
	}
}

// Handler returns the /metrics handler.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records count and latency for every request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ObserveCalculation counts a calculator run. method is empty when selection failed.
func (m *Metrics) ObserveCalculation(method string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	if method == "" {
		method = "unknown"
	}
	m.calculations.WithLabelValues(method, outcome).Inc()
}

// ObserveReport records a served BAS report.
func (m *Metrics) ObserveReport(source string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.reports.WithLabelValues(source).Inc()
	m.reportDuration.WithLabelValues(source).Observe(elapsed.Seconds())
}

// Registerer exposes the registry for extra collectors such as job metrics.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
