// Package handler holds the gin handlers for the gateway's HTTP surface.
package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"pixelgate/internal/model"
	"pixelgate/internal/service"
	"pixelgate/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Uploads above this size are rejected before touching the blob store
const maxImageBytes = 32 << 20

// ProcessHandler handles request admission and result retrieval
type ProcessHandler struct {
	gateway *service.GatewayService
}

// NewProcessHandler creates process handler
func NewProcessHandler(gateway *service.GatewayService) *ProcessHandler {
	return &ProcessHandler{gateway: gateway}
}

// Submit admits an image processing request
// @Summary Submit an image for processing
// @Description Upload an image to the named algorithm's queue and receive a pollable request id
// @Tags process
// @Accept mpfd
// @Produce json
// @Param algorithm path string true "Algorithm name"
// @Param image formData file true "Image payload"
// @Param threads formData int false "Worker threads"
// @Param passes formData int false "Processing passes"
// @Success 202 {object} model.SubmitResponse
// @Router /api/v1/process/{algorithm} [post]
func (h *ProcessHandler) Submit(c *gin.Context) {
	algorithm := c.Param("algorithm")
	if algorithm == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "algorithm required"})
		return
	}

	image, contentType, err := readImage(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	params := model.Parameters{
		Threads: intForm(c, "threads"),
		Passes:  intForm(c, "passes"),
	}

	resp, err := h.gateway.Submit(c.Request.Context(), algorithm, image, contentType, params)
	if err != nil {
		h.rejectSubmit(c, err)
		return
	}

	c.JSON(http.StatusAccepted, resp)
}

func (h *ProcessHandler) rejectSubmit(c *gin.Context, err error) {
	ae, ok := model.AsAdmissionError(err)
	if !ok {
		logger.ErrorCtx(c.Request.Context(), "submit failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	body := gin.H{"error": ae.Detail, "reason": string(ae.Reason)}
	switch ae.Reason {
	case model.ReasonUnknownAlgorithm:
		c.JSON(http.StatusNotFound, body)
	case model.ReasonInvalidParameter:
		c.JSON(http.StatusBadRequest, body)
	default:
		logger.ErrorCtx(c.Request.Context(), "admission unavailable: %v", err)
		c.JSON(http.StatusServiceUnavailable, body)
	}
}

// Status gets request status
// @Summary Get request status
// @Description Get current lifecycle state of a request
// @Tags process
// @Produce json
// @Param request_id path string true "Request ID"
// @Success 200 {object} model.RequestStatus
// @Router /api/v1/status/{request_id} [get]
func (h *ProcessHandler) Status(c *gin.Context) {
	requestID := c.Param("request_id")
	if requestID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request_id required"})
		return
	}

	st, err := h.gateway.GetStatus(requestID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "request not found"})
		return
	}

	c.JSON(http.StatusOK, st)
}

// Result gets the terminal outcome of a request
// @Summary Get request result
// @Description Get the terminal outcome; 409 while the request is still in flight
// @Tags process
// @Produce json
// @Param request_id path string true "Request ID"
// @Success 200 {object} model.ResultResponse
// @Router /api/v1/result/{request_id} [get]
func (h *ProcessHandler) Result(c *gin.Context) {
	requestID := c.Param("request_id")
	if requestID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request_id required"})
		return
	}

	resp, err := h.gateway.GetResult(requestID)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "request not found"})
		case errors.Is(err, model.ErrNotReady):
			c.JSON(http.StatusConflict, gin.H{"error": "result not ready"})
		default:
			logger.ErrorCtx(c.Request.Context(), "failed to get result, request_id: %s, error: %v", requestID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Download streams the processed image
// @Summary Download processed image
// @Description Download the output blob of a completed request
// @Tags process
// @Produce octet-stream
// @Param request_id path string true "Request ID"
// @Success 200 {file} binary
// @Router /api/v1/download/{request_id} [get]
func (h *ProcessHandler) Download(c *gin.Context) {
	requestID := c.Param("request_id")
	if requestID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request_id required"})
		return
	}

	data, contentType, err := h.gateway.Download(c.Request.Context(), requestID)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "result not found"})
		case errors.Is(err, model.ErrNotReady):
			c.JSON(http.StatusConflict, gin.H{"error": "result not ready"})
		default:
			logger.ErrorCtx(c.Request.Context(), "failed to download result, request_id: %s, error: %v", requestID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return
	}

	c.Data(http.StatusOK, contentType, data)
}

// readImage extracts the image payload from a multipart form or raw body
func readImage(c *gin.Context) ([]byte, string, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		file, err := c.FormFile("image")
		if err != nil {
			return nil, "", errors.New("multipart field \"image\" required")
		}
		if file.Size > maxImageBytes {
			return nil, "", errors.New("image exceeds size limit")
		}
		f, err := file.Open()
		if err != nil {
			return nil, "", errors.New("failed to read image")
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, "", errors.New("failed to read image")
		}
		contentType := file.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		return data, contentType, nil
	}

	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImageBytes+1))
	if err != nil {
		return nil, "", errors.New("failed to read request body")
	}
	if len(data) > maxImageBytes {
		return nil, "", errors.New("image exceeds size limit")
	}
	contentType := c.ContentType()
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return data, contentType, nil
}

func intForm(c *gin.Context, name string) int {
	v := c.PostForm(name)
	if v == "" {
		v = c.Query(name)
	}
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return -1 // fails parameter validation downstream
	}
	return n
}
