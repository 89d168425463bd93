package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/studynotes-api/internal/service"
	"github.com/noah-isme/studynotes-api/pkg/response"
)

type readiness interface {
	Ready() bool
}

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics *service.MetricsService
	blobs   readiness
}

// NewMetricsHandler constructs a metrics handler. blobs reports whether the
// blob store is connected.
func NewMetricsHandler(metrics *service.MetricsService, blobs readiness) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, blobs: blobs}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Summary returns the JSON metrics snapshot.
func (h *MetricsHandler) Summary(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.metrics.Snapshot())
}

// Health responds with a generic OK payload for liveness probes.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports 503 until the blob store is connected.
func (h *MetricsHandler) Ready(c *gin.Context) {
	if h.blobs != nil && !h.blobs.Ready() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "starting", "blobStore": "connecting"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
