package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusHandler serves the metrics endpoint
type PrometheusHandler struct {
	handler http.Handler
}

// NewPrometheusHandler serves the default registry
func NewPrometheusHandler() *PrometheusHandler {
	return &PrometheusHandler{handler: promhttp.Handler()}
}

// NewPrometheusHandlerFor serves a specific gatherer
func NewPrometheusHandlerFor(gatherer prometheus.Gatherer) *PrometheusHandler {
	return &PrometheusHandler{handler: promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})}
}

// MetricsEndpoint serves Prometheus metrics
// GET /metrics
func (h *PrometheusHandler) MetricsEndpoint(c *gin.Context) {
	h.handler.ServeHTTP(c.Writer, c.Request)
}
