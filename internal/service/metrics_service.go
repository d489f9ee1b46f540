package service

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Mutation outcomes recorded by the subject store.
const (
	OutcomeApplied  = "applied"
	OutcomeRejected = "rejected"
)

// MetricsService encapsulates Prometheus instrumentation for the API and the subject store.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	mutations       *prometheus.CounterVec
	persistence     *prometheus.HistogramVec
	persistFailures *prometheus.CounterVec
	subjects        prometheus.Gauge
	reports         *prometheus.CounterVec
}

// NewMetricsService registers the collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "subject_mutations_total",
		Help: "Subject store mutations by operation and outcome",
	}, []string{"operation", "outcome"})

	persistence := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "subject_persistence_seconds",
		Help:    "Latency of loading and saving the subject slot",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	persistFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "subject_persistence_failures_total",
		Help: "Failed loads and saves of the subject slot",
	}, []string{"operation"})

	subjects := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "subjects_tracked",
		Help: "Number of subjects currently in the store",
	})

	reports := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_reports_total",
		Help: "Generated attendance reports by format",
	}, []string{"format"})

	registry.MustRegister(requestDuration, requestTotal, mutations, persistence, persistFailures, subjects, reports)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		mutations:       mutations,
		persistence:     persistence,
		persistFailures: persistFailures,
		subjects:        subjects,
		reports:         reports,
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordMutation counts a store operation.
func (m *MetricsService) RecordMutation(operation string, applied bool) {
	if m == nil {
		return
	}
	outcome := OutcomeApplied
	if !applied {
		outcome = OutcomeRejected
	}
	m.mutations.WithLabelValues(operation, outcome).Inc()
}

// ObservePersistence records load/save latency and failures.
func (m *MetricsService) ObservePersistence(operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.persistence.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		m.persistFailures.WithLabelValues(operation).Inc()
	}
}

// SetSubjectCount updates the tracked subjects gauge.
func (m *MetricsService) SetSubjectCount(n int) {
	if m == nil {
		return
	}
	m.subjects.Set(float64(n))
}

// RecordReport counts a generated report.
func (m *MetricsService) RecordReport(format string) {
	if m == nil {
		return
	}
	m.reports.WithLabelValues(format).Inc()
}
