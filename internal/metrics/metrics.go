// Package metrics exposes Prometheus instrumentation for reports, emissions,
// workers and the HTTP trigger surface.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "rosterfan"

// Metrics owns a private registry so several instances can coexist in tests.
type Metrics struct {
	registry *prometheus.Registry
	handler  http.Handler

	reportsTotal   *prometheus.CounterVec
	reportDuration *prometheus.HistogramVec
	emissionsTotal *prometheus.CounterVec
	workersActive  prometheus.Gauge
	workerFailures prometheus.Counter
	activeRequests prometheus.Gauge
	requestsTotal  *prometheus.CounterVec
}

// New creates and registers all collectors, including the Go runtime and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		reportsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_total",
			Help:      "Reports run, by emission discipline and outcome.",
		}, []string{"discipline", "outcome"}),
		reportDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "report_duration_seconds",
			Help:      "Wall time of a report, from roster fetch to join.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"discipline"}),
		emissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emissions_total",
			Help:      "Record names emitted, by discipline and result.",
		}, []string{"discipline", "result"}),
		workersActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "workers_active",
			Help:      "Forked workers currently emitting.",
		}),
		workerFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "worker_failures_total",
			Help:      "Workers that stopped on an error.",
		}),
		activeRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_requests",
			Help:      "HTTP requests currently being served.",
		}),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "HTTP requests served, by path and status code.",
		}, []string{"path", "code"}),
	}

	reg.MustRegister(
		m.reportsTotal, m.reportDuration, m.emissionsTotal,
		m.workersActive, m.workerFailures,
		m.activeRequests, m.requestsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m.handler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveReport records the outcome and duration of one report.
func (m *Metrics) ObserveReport(discipline, outcome string, d time.Duration) {
	m.reportsTotal.WithLabelValues(discipline, outcome).Inc()
	m.reportDuration.WithLabelValues(discipline).Observe(d.Seconds())
}

// ObserveEmission counts one emission attempt.
func (m *Metrics) ObserveEmission(discipline string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.emissionsTotal.WithLabelValues(discipline, result).Inc()
}

// WorkerStarted tracks a forked worker.
func (m *Metrics) WorkerStarted(int) { m.workersActive.Inc() }

// WorkerFinished tracks a worker leaving, counting it as failed when err is set.
func (m *Metrics) WorkerFinished(_ int, err error) {
	m.workersActive.Dec()
	if err != nil {
		m.workerFailures.Inc()
	}
}

// IncrementActiveRequests increments the in-flight request gauge.
func (m *Metrics) IncrementActiveRequests() { m.activeRequests.Inc() }

// DecrementActiveRequests decrements the in-flight request gauge.
func (m *Metrics) DecrementActiveRequests() { m.activeRequests.Dec() }

// ObserveRequest counts one served request.
func (m *Metrics) ObserveRequest(path string, code int) {
	m.requestsTotal.WithLabelValues(path, strconv.Itoa(code)).Inc()
}

// Handler returns the Prometheus exposition handler.
func (m *Metrics) Handler() http.Handler { return m.handler }

// WritePrometheus serves the exposition format.
func (m *Metrics) WritePrometheus(w http.ResponseWriter, r *http.Request) {
	m.handler.ServeHTTP(w, r)
}
