package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	ingestTotal        *prometheus.CounterVec
	statusChangesTotal *prometheus.CounterVec
	exportRows         *prometheus.HistogramVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "compass",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "compass",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "compass",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	ingestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "compass",
			Subsystem: "inquiries",
			Name:      "ingested_total",
			Help:      "Total inbound vendor emails accepted or rejected at ingest.",
		},
		[]string{"service", "status"},
	)
	statusChangesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "compass",
			Subsystem: "inquiries",
			Name:      "status_changes_total",
			Help:      "Total manual inquiry status transitions.",
		},
		[]string{"service", "status"},
	)
	exportRows := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "compass",
			Subsystem: "inquiries",
			Name:      "export_rows",
			Help:      "Distribution of rows per spreadsheet export.",
			Buckets:   []float64{0, 10, 50, 100, 500, 1000, 5000},
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		ingestTotal,
		statusChangesTotal,
		exportRows,
	)

	return &HTTPServerMetrics{
		registry:           registry,
		requestTotal:       requestTotal,
		requestDuration:    requestDuration,
		requestInFlight:    requestInFlight,
		ingestTotal:        ingestTotal,
		statusChangesTotal: statusChangesTotal,
		exportRows:         exportRows,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/inquiries/") && strings.HasSuffix(path, "/status"):
		return "/v1/inquiries/{inquiry_id}/status"
	case strings.HasPrefix(path, "/v1/inquiries/") && path != "/v1/inquiries/export":
		return "/v1/inquiries/{inquiry_id}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordIngest(service string, accepted bool) {
	status := "accepted"
	if !accepted {
		status = "rejected"
	}
	m.ingestTotal.WithLabelValues(service, status).Inc()
}

func (m *HTTPServerMetrics) RecordStatusChange(service, status string) {
	if status == "" {
		status = "unknown"
	}
	m.statusChangesTotal.WithLabelValues(service, status).Inc()
}

func (m *HTTPServerMetrics) RecordExport(service string, rows int) {
	m.exportRows.WithLabelValues(service).Observe(float64(rows))
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
