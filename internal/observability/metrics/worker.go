package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	processTotal    *prometheus.CounterVec
	processDuration *prometheus.HistogramVec
	processInFlight prometheus.Gauge
	queueLag        *prometheus.HistogramVec

	outcomesTotal      *prometheus.CounterVec
	notificationsTotal *prometheus.CounterVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	processTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "compass",
			Subsystem: "worker",
			Name:      "inquiry_process_total",
			Help:      "Total processed inquiries by status.",
		},
		[]string{"service", "status"},
	)
	processDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "compass",
			Subsystem: "worker",
			Name:      "inquiry_process_duration_seconds",
			Help:      "Inquiry processing duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	processInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "compass",
			Subsystem: "worker",
			Name:      "inquiry_process_in_flight",
			Help:      "Number of in-flight inquiry pipeline runs.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	queueLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "compass",
			Subsystem: "worker",
			Name:      "queue_lag_seconds",
			Help:      "Delay between inquiry creation and pipeline start.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service"},
	)
	outcomesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "compass",
			Subsystem: "worker",
			Name:      "inquiry_outcomes_total",
			Help:      "Total classified inquiries by category and priority.",
		},
		[]string{"service", "category", "priority"},
	)
	notificationsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "compass",
			Subsystem: "worker",
			Name:      "notifications_total",
			Help:      "Total notification deliveries by kind and status.",
		},
		[]string{"service", "kind", "status"},
	)

	registry.MustRegister(
		processTotal,
		processDuration,
		processInFlight,
		queueLag,
		outcomesTotal,
		notificationsTotal,
	)

	return &WorkerMetrics{
		registry:           registry,
		processTotal:       processTotal,
		processDuration:    processDuration,
		processInFlight:    processInFlight,
		queueLag:           queueLag,
		outcomesTotal:      outcomesTotal,
		notificationsTotal: notificationsTotal,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartInquiry() {
	m.processInFlight.Inc()
}

func (m *WorkerMetrics) FinishInquiry(service string, duration time.Duration, err error) {
	m.processInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.processTotal.WithLabelValues(service, status).Inc()
	m.processDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveQueueLag(service string, lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.WithLabelValues(service).Observe(lag.Seconds())
}

func (m *WorkerMetrics) RecordOutcome(service, category, priority string) {
	if category == "" {
		category = "unknown"
	}
	if priority == "" {
		priority = "unknown"
	}
	m.outcomesTotal.WithLabelValues(service, category, priority).Inc()
}

func (m *WorkerMetrics) RecordNotification(service, kind string, sent bool) {
	status := "sent"
	if !sent {
		status = "failed"
	}
	m.notificationsTotal.WithLabelValues(service, kind, status).Inc()
}
