package api

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the server's Prometheus collectors. Each server owns its
// registry so several can coexist in one process.
type Metrics struct {
	Registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	Uploads         *prometheus.CounterVec
	Exports         *prometheus.CounterVec
	ExportDuration  prometheus.Histogram
	WSConnections   prometheus.Gauge
}

// NewMetrics registers every collector on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		RequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "panelmark_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "panelmark_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "route"},
		),
		Uploads: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "panelmark_uploads_total",
				Help: "Background uploads by canvas and outcome",
			},
			[]string{"canvas", "result"},
		),
		Exports: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "panelmark_exports_total",
				Help: "Export attempts by outcome",
			},
			[]string{"result"},
		),
		ExportDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "panelmark_export_duration_seconds",
				Help:    "Time from request to saved document",
				Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
		),
		WSConnections: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "panelmark_ws_connections",
				Help: "Open event stream connections",
			},
		),
	}
}

// Middleware records request counts and latency per route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		m.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.RequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}
