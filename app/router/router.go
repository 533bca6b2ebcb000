package router

import (
	"pixelgate/app/handler"
	"pixelgate/app/middleware"

	"github.com/gin-gonic/gin"
)

// Router Router
type Router struct {
	processHandler *handler.ProcessHandler
	systemHandler  *handler.SystemHandler
	scalerHandler  *handler.ScalerHandler
	latency        *middleware.LatencyTracker
}

// NewRouter creates a new Router
func NewRouter(processHandler *handler.ProcessHandler, systemHandler *handler.SystemHandler, scalerHandler *handler.ScalerHandler, latency *middleware.LatencyTracker) *Router {
	return &Router{
		processHandler: processHandler,
		systemHandler:  systemHandler,
		scalerHandler:  scalerHandler,
		latency:        latency,
	}
}

// Setup sets up routes
func (r *Router) Setup(engine *gin.Engine) {
	engine.Use(middleware.Recovery())
	engine.Use(middleware.Logger())
	if r.latency != nil {
		engine.Use(r.latency.Middleware())
	}

	// API v1 - client-facing processing interface
	api := engine.Group("/api/v1")
	{
		api.POST("/process/:algorithm", r.processHandler.Submit)
		api.GET("/status/:request_id", r.processHandler.Status)
		api.GET("/result/:request_id", r.processHandler.Result)
		api.GET("/download/:request_id", r.processHandler.Download)

		// Discovery and queue inspection
		api.GET("/services", r.systemHandler.Services)
		api.GET("/queue/status", r.systemHandler.QueueStatus)
		api.GET("/requests", r.systemHandler.Requests)

		// Scaler inspection
		if r.scalerHandler != nil {
			scaler := api.Group("/scaler")
			{
				scaler.GET("/status", r.scalerHandler.Status)
				scaler.GET("/history", r.scalerHandler.History)
			}
		}
	}

	// Health check
	engine.GET("/health", r.systemHandler.Health)
}
