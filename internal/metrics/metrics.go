package metrics

import (
	"net/http"
	"strconv"
	"time"

	"AtlasStatus/internal/model"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes chart loads, renders, interactions and HTTP traffic to Prometheus.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry          *prometheus.Registry
	loadsTotal        *prometheus.CounterVec
	points            *prometheus.GaugeVec
	rendersTotal      *prometheus.CounterVec
	interactionsTotal *prometheus.CounterVec
	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		loadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "atlas_chart_loads_total",
			Help: "Chart series loads by chart and result.",
		}, []string{"chart", "result"}),
		points: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "atlas_chart_points",
			Help: "Samples in the most recently loaded series per chart.",
		}, []string{"chart"}),
		rendersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "atlas_chart_renders_total",
			Help: "Chart renders by chart and result (drawn, blank, error).",
		}, []string{"chart", "result"}),
		interactionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "atlas_view_changes_total",
			Help: "View changes by action; sync counts members that followed a linked chart.",
		}, []string{"action"}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}

	m.registry.MustRegister(
		m.loadsTotal,
		m.points,
		m.rendersTotal,
		m.interactionsTotal,
		m.httpRequestsTotal,
		m.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// OnLoad counts a chart load.
func (m *Metrics) OnLoad(evt model.LoadEvent) {
	if m == nil {
		return
	}
	m.loadsTotal.WithLabelValues(evt.Chart, evt.State).Inc()
	m.points.WithLabelValues(evt.Chart).Set(float64(evt.Points))
}

// OnView counts a view change.
func (m *Metrics) OnView(evt model.ViewEvent) {
	if m == nil {
		return
	}
	m.interactionsTotal.WithLabelValues(evt.Action).Inc()
}

// Render counts one chart render.
func (m *Metrics) Render(chart, result string) {
	if m == nil {
		return
	}
	m.rendersTotal.WithLabelValues(chart, result).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// WrapHandler counts requests and their latency under route.
func (m *Metrics) WrapHandler(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		if m != nil {
			m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
			m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		}
	})
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
