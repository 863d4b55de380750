package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveReconcile(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveReconcile("synced", 3, 2)
	m.ObserveReconcile("noop", 0, 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReconcileTotal.WithLabelValues("synced")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReconcileTotal.WithLabelValues("noop")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.PermissionWrites.WithLabelValues("create")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PermissionWrites.WithLabelValues("update")))
}

func TestObserveRosterLoad(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveRosterLoad(nil)
	m.ObserveRosterLoad(errors.New("boom"))
	m.ObserveRosterLoad(errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RosterLoadsTotal.WithLabelValues("ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RosterLoadsTotal.WithLabelValues("error")))
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveReconcile("synced", 1, 1)
		m.ObserveRosterLoad(nil)
	})
}

func TestHandlerExposesCollectors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics(prometheus.NewRegistry())

	r := gin.New()
	r.Use(m.GinMiddleware())
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/health", nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `roleconsole_http_request_duration_seconds_count{method="GET",path="/health"} 1`))
}
