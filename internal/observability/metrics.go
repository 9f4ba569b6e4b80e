// internal/observability/metrics.go
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's collectors on a private registry. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry          *prometheus.Registry
	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	eventsTotal       *prometheus.CounterVec
	frameDuration     prometheus.Histogram
	frameBuckets      prometheus.Histogram
	activeViewers     prometheus.Gauge
	publishErrors     prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		eventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "heatmap_events_total",
			Help: "Input events dispatched to viewers by kind.",
		}, []string{"kind"}),
		frameDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "heatmap_frame_duration_seconds",
			Help:    "Time to aggregate and project one frame.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		frameBuckets: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "heatmap_frame_buckets",
			Help:    "Visible buckets per frame.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
		activeViewers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "heatmap_active_viewers",
			Help: "Open viewer sessions.",
		}),
		publishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "heatmap_publish_errors_total",
			Help: "Failed broadcasts to the message bus.",
		}),
	}

	m.registry.MustRegister(
		m.httpRequestsTotal,
		m.httpDuration,
		m.eventsTotal,
		m.frameDuration,
		m.frameBuckets,
		m.activeViewers,
		m.publishErrors,
	)

	return m
}

// Middleware records request counts and latency by route template.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if m == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the collectors for tests and extra exporters.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Event(kind string) {
	if m == nil {
		return
	}
	m.eventsTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) Frame(duration time.Duration, buckets int) {
	if m == nil {
		return
	}
	m.frameDuration.Observe(duration.Seconds())
	m.frameBuckets.Observe(float64(buckets))
}

func (m *Metrics) SetActiveViewers(n int) {
	if m == nil {
		return
	}
	m.activeViewers.Set(float64(n))
}

func (m *Metrics) PublishError() {
	if m == nil {
		return
	}
	m.publishErrors.Inc()
}
