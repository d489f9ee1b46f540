package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-tracker/internal/service"
)

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics  *service.MetricsService
	subjects interface{ Len() int }
}

// NewMetricsHandler constructs a metrics handler.
func NewMetricsHandler(metrics *service.MetricsService, subjects interface{ Len() int }) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, subjects: subjects}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.AbortWithStatus(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health responds with a generic OK payload for liveness.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports readiness once the store has been loaded.
func (h *MetricsHandler) Ready(c *gin.Context) {
	payload := gin.H{"status": "ready"}
	if h.subjects != nil {
		payload["subjects"] = h.subjects.Len()
	}
	c.JSON(http.StatusOK, payload)
}
