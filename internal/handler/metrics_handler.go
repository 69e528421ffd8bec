package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unidesk/registrar-api/internal/service"
)

// MetricsHandler serves the Prometheus scrape endpoint and the basic
// liveness probe.
type MetricsHandler struct {
	metrics *service.MetricsService
}

func NewMetricsHandler(metrics *service.MetricsService) *MetricsHandler {
	return &MetricsHandler{metrics: metrics}
}

// Prometheus hands the request to the registry's scrape handler.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health reports process liveness.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
