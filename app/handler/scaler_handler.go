package handler

import (
	"net/http"
	"strconv"

	"pixelgate/internal/scaler"

	"github.com/gin-gonic/gin"
)

// ScalerHandler exposes the scaling control loops for inspection
type ScalerHandler struct {
	workerScaler  *scaler.WorkerScaler
	gatewayScaler *scaler.GatewayScaler
	history       *scaler.History
}

// NewScalerHandler creates scaler handler
func NewScalerHandler(workerScaler *scaler.WorkerScaler, gatewayScaler *scaler.GatewayScaler, history *scaler.History) *ScalerHandler {
	return &ScalerHandler{workerScaler: workerScaler, gatewayScaler: gatewayScaler, history: history}
}

// Status reports the current state of every scaled tier
// @Summary Get scaler status
// @Description Instance counts and hysteresis phase per scaled target
// @Tags scaler
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/scaler/status [get]
func (h *ScalerHandler) Status(c *gin.Context) {
	body := gin.H{}
	if h.gatewayScaler != nil {
		body["gateway"] = h.gatewayScaler.Status()
	}
	if h.workerScaler != nil {
		body["workers"] = h.workerScaler.Status()
	}
	c.JSON(http.StatusOK, body)
}

// History lists recent scaling decisions
// @Summary Get scaling history
// @Description Recent scaling decisions, newest first
// @Tags scaler
// @Produce json
// @Param limit query int false "Maximum entries"
// @Success 200 {array} model.ScalingDecision
// @Router /api/v1/scaler/history [get]
func (h *ScalerHandler) History(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusOK, gin.H{"decisions": []any{}})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	c.JSON(http.StatusOK, gin.H{"decisions": h.history.Recent(limit)})
}
