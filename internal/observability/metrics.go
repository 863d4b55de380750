package observability

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the console's Prometheus collectors
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestDuration *prometheus.HistogramVec
	ReconcileTotal      *prometheus.CounterVec
	PermissionWrites    *prometheus.CounterVec
	RosterLoadsTotal    *prometheus.CounterVec
}

// NewMetrics creates and registers all collectors on registry
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: registry,
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "roleconsole_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		ReconcileTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roleconsole_reconcile_total",
				Help: "Role save operations by result (noop, synced, error)",
			},
			[]string{"result"},
		),
		PermissionWrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roleconsole_permission_writes_total",
				Help: "Permission rows written by kind (create, update)",
			},
			[]string{"kind"},
		),
		RosterLoadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roleconsole_roster_loads_total",
				Help: "Roster page loads by result (ok, error)",
			},
			[]string{"result"},
		),
	}

	registry.MustRegister(
		m.HTTPRequestDuration,
		m.ReconcileTotal,
		m.PermissionWrites,
		m.RosterLoadsTotal,
	)
	return m
}

// Handler exposes the registry for scraping
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// GinMiddleware observes request latency per route template
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// ObserveReconcile records one save outcome. Safe on a nil receiver.
func (m *Metrics) ObserveReconcile(result string, created, updated int) {
	if m == nil {
		return
	}
	m.ReconcileTotal.WithLabelValues(result).Inc()
	if created > 0 {
		m.PermissionWrites.WithLabelValues("create").Add(float64(created))
	}
	if updated > 0 {
		m.PermissionWrites.WithLabelValues("update").Add(float64(updated))
	}
}

// ObserveRosterLoad records one roster load. Safe on a nil receiver.
func (m *Metrics) ObserveRosterLoad(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.RosterLoadsTotal.WithLabelValues("error").Inc()
		return
	}
	m.RosterLoadsTotal.WithLabelValues("ok").Inc()
}
