package handler

import (
	"net/http"
	"strconv"

	"pixelgate/internal/scaler"
	"pixelgate/internal/service"
	"pixelgate/pkg/logger"
	"pixelgate/pkg/store/mysql"

	"github.com/gin-gonic/gin"
)

// SystemHandler handles discovery, queue inspection and health
type SystemHandler struct {
	gateway       *service.GatewayService
	archive       *mysql.Repository // nil when the archive is disabled
	gatewayScaler *scaler.GatewayScaler
}

// NewSystemHandler creates system handler
func NewSystemHandler(gateway *service.GatewayService, archive *mysql.Repository, gatewayScaler *scaler.GatewayScaler) *SystemHandler {
	return &SystemHandler{gateway: gateway, archive: archive, gatewayScaler: gatewayScaler}
}

// Services lists the registered algorithms
// @Summary List available algorithms
// @Description List registered algorithms with their live queue depth
// @Tags system
// @Produce json
// @Success 200 {array} model.ServiceInfo
// @Router /api/v1/services [get]
func (h *SystemHandler) Services(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"services": h.gateway.ListServices()})
}

// QueueStatus reports per-algorithm queue depth and consumers
// @Summary Get queue status
// @Description Per-algorithm queue depth and consumer counts from the latest sample
// @Tags system
// @Produce json
// @Success 200 {object} map[string]model.QueueStatusEntry
// @Router /api/v1/queue/status [get]
func (h *SystemHandler) QueueStatus(c *gin.Context) {
	entries, fresh := h.gateway.QueueStatus()
	c.JSON(http.StatusOK, gin.H{"queues": entries, "stale": !fresh})
}

// Requests lists archived request outcomes
// @Summary List completed requests
// @Description List archived terminal requests, newest first
// @Tags system
// @Produce json
// @Param algorithm query string false "Filter by algorithm"
// @Param limit query int false "Maximum entries"
// @Success 200 {array} mysql.RequestRecord
// @Router /api/v1/requests [get]
func (h *SystemHandler) Requests(c *gin.Context) {
	if h.archive == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "request archive is not enabled"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	records, err := h.archive.Request.ListRecent(c.Request.Context(), c.Query("algorithm"), limit)
	if err != nil {
		logger.ErrorCtx(c.Request.Context(), "failed to list archived requests: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"requests": records})
}

// Health health check with current load score
// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	body := gin.H{"status": "ok"}
	if h.gatewayScaler != nil {
		if score, ok := h.gatewayScaler.CurrentLoad(); ok {
			body["load_score"] = score
		}
	}
	if entries, fresh := h.gateway.QueueStatus(); fresh {
		body["queues"] = entries
	}
	c.JSON(http.StatusOK, body)
}
