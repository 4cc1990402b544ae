package service

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates the host process Prometheus instrumentation.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	signalReceipts  *prometheus.CounterVec
	filterSteps     *prometheus.CounterVec
}

// NewMetricsService registers core Prometheus collectors.
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

	signalReceipts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sample_plugin_signal_receipts_total",
		Help: "Signal deliveries to receivers by outcome",
	}, []string{"event_type", "receiver", "outcome"})

	filterSteps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sample_plugin_filter_steps_total",
		Help: "Filter pipeline step runs by outcome",
	}, []string{"filter_type", "step", "outcome"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, signalReceipts, filterSteps, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		signalReceipts:  signalReceipts,
		filterSteps:     filterSteps,
	}
}

// Registerer lets plugins add their own collectors to the host registry.
func (m *MetricsService) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.NewRegistry()
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

// ObserveSignal matches events.Observer.
func (m *MetricsService) ObserveSignal(eventType, receiver string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.signalReceipts.WithLabelValues(eventType, receiver, outcome).Inc()
}

// ObserveFilterStep matches filters.Observer.
func (m *MetricsService) ObserveFilterStep(filterType, step, outcome string) {
	if m == nil {
		return
	}
	m.filterSteps.WithLabelValues(filterType, step, outcome).Inc()
}

// ArchiveStatusMetrics counts archive status changes made through the plugin API.
type ArchiveStatusMetrics struct {
	changes *prometheus.CounterVec
}

// NewArchiveStatusMetrics registers the plugin collectors on reg, reusing
// collectors that are already registered.
func NewArchiveStatusMetrics(reg prometheus.Registerer) (*ArchiveStatusMetrics, error) {
	changes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sample_plugin_course_archive_status_changes_total",
		Help: "Course archive status changes by action",
	}, []string{"action"})
	if reg == nil {
		return &ArchiveStatusMetrics{changes: changes}, nil
	}
	if err := reg.Register(changes); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return nil, err
		}
		existing, ok := already.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil, err
		}
		changes = existing
	}
	return &ArchiveStatusMetrics{changes: changes}, nil
}

// RecordArchiveChange increments the counter for action.
func (m *ArchiveStatusMetrics) RecordArchiveChange(action string) {
	if m == nil {
		return
	}
	m.changes.WithLabelValues(action).Inc()
}
