package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "atelier"

// Metrics owns a private registry with HTTP and production-flow collectors.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	inFlight     prometheus.Gauge

	stagesEntered      *prometheus.CounterVec
	stagesCompleted    *prometheus.CounterVec
	ordersCompleted    prometheus.Counter
	materialShortages  prometheus.Counter
	notificationErrors *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"method", "route"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		}),
		stagesEntered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stages_entered_total",
			Help:      "Orders that entered a production stage",
		}, []string{"stage"}),
		stagesCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stages_completed_total",
			Help:      "Production stages completed",
		}, []string{"stage"}),
		ordersCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_completed_total",
			Help:      "Orders that finished the last production stage",
		}),
		materialShortages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "material_shortages_total",
			Help:      "Stage entries rejected for lack of material",
		}),
		notificationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_failures_total",
			Help:      "Events that could not be delivered",
		}, []string{"event_type"}),
	}

	registry.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.inFlight,
		m.stagesEntered,
		m.stagesCompleted,
		m.ordersCompleted,
		m.materialShortages,
		m.notificationErrors,
	)

	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records request counts and latency labelled by the chi route
// pattern, so path parameters do not explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.inFlight.Inc()
		defer m.inFlight.Dec()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func (m *Metrics) StageEntered(stage string) {
	m.stagesEntered.WithLabelValues(stage).Inc()
}

func (m *Metrics) StageCompleted(stage string) {
	m.stagesCompleted.WithLabelValues(stage).Inc()
}

func (m *Metrics) OrderCompleted() {
	m.ordersCompleted.Inc()
}

func (m *Metrics) MaterialShortage() {
	m.materialShortages.Inc()
}

func (m *Metrics) NotificationFailed(eventType string) {
	m.notificationErrors.WithLabelValues(eventType).Inc()
}
