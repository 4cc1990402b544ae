package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type pingerStub struct {
	err error
}

func (p pingerStub) PingContext(ctx context.Context) error {
	return p.err
}

func serveMetrics(h *MetricsHandler, path string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/health", h.Health)
	r.GET("/metrics", h.Prometheus)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealth(t *testing.T) {
	w := serveMetrics(NewMetricsHandler(nil, pingerStub{}), "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = serveMetrics(NewMetricsHandler(nil, nil), "/health")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealthReportsUnreachableDatabase(t *testing.T) {
	w := serveMetrics(NewMetricsHandler(nil, pingerStub{err: errors.New("connection refused")}), "/health")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "SERVICE_UNAVAILABLE")
	assert.Contains(t, w.Body.String(), "database unreachable")
}

func TestPrometheusWithoutMetrics(t *testing.T) {
	w := serveMetrics(NewMetricsHandler(nil, nil), "/metrics")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "SERVICE_UNAVAILABLE")
}
