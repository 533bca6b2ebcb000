package main

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"pixelgate/app/handler"
	"pixelgate/app/middleware"
	"pixelgate/internal/monitor"
	"pixelgate/internal/registry"
	"pixelgate/internal/scaler"
	"pixelgate/internal/service"
	"pixelgate/internal/status"
	"pixelgate/pkg/blob"
	"pixelgate/pkg/config"
	"pixelgate/pkg/deploy"
	"pixelgate/pkg/logger"
	queueasynq "pixelgate/pkg/queue/asynq"
	mysqlstore "pixelgate/pkg/store/mysql"
	redisstore "pixelgate/pkg/store/redis"

	"github.com/gin-gonic/gin"
)

// Application manages the lifecycle of the entire gateway process
type Application struct {
	// Infrastructure components
	config      *config.Config
	mysqlRepo   *mysqlstore.Repository
	redisClient *redisstore.Client
	blobStore   blob.Store
	queueMgr    *queueasynq.Manager

	// Core state
	registry    *registry.Registry
	statusStore *status.Store
	monitor     *monitor.Monitor

	// Service layer
	gatewayService *service.GatewayService
	correlator     *service.Correlator

	// Scaling
	deployProvider deploy.Provider
	workerScaler   *scaler.WorkerScaler
	gatewayScaler  *scaler.GatewayScaler
	history        *scaler.History

	// Handler layer
	processHandler *handler.ProcessHandler
	systemHandler  *handler.SystemHandler
	scalerHandler  *handler.ScalerHandler
	latency        *middleware.LatencyTracker

	// HTTP server
	httpServer *http.Server
	ginEngine  *gin.Engine

	// Context management
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Background task cleanup functions
	cleanupFuncs []func()
}

// NewApplication creates a new Application instance
func NewApplication() *Application {
	ctx, cancel := context.WithCancel(context.Background())
	return &Application{
		ctx:          ctx,
		cancel:       cancel,
		cleanupFuncs: make([]func(), 0),
	}
}

// Initialize initializes all application components
func (app *Application) Initialize() error {
	var err error

	// Initialize components in order
	steps := []struct {
		name string
		fn   func() error
	}{
		{"Configuration", app.initConfig},
		{"Logging", app.initLogger},
		{"MySQL", app.initMySQL},
		{"Redis", app.initRedis},
		{"Queue Substrate", app.initQueue},
		{"Core Services", app.initServices},
		{"Scalers", app.initScalers},
		{"Handler Layer", app.initHandlers},
		{"HTTP Server", app.initHTTPServer},
	}

	for _, step := range steps {
		logger.InfoCtx(app.ctx, "Initializing %s...", step.name)
		if err = step.fn(); err != nil {
			return fmt.Errorf("failed to initialize %s: %w", step.name, err)
		}
		logger.InfoCtx(app.ctx, "%s initialized successfully", step.name)
	}

	logger.InfoCtx(app.ctx, "Application initialization completed")
	return nil
}

// Start starts all application components
func (app *Application) Start() error {
	logger.InfoCtx(app.ctx, "Starting application components...")

	// 1. Start the queue monitor so the scalers have data
	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		app.monitor.Start(app.ctx)
	}()

	// 2. Start the result consumer
	if err := app.queueMgr.StartResultConsumer(app.config.Queue.Concurrency, app.correlator.HandleResult); err != nil {
		return fmt.Errorf("failed to start result consumer: %w", err)
	}
	logger.InfoCtx(app.ctx, "Result consumer started on queue %s", app.config.Queue.ResultQueue)

	// 3. Start scaling control loops
	if app.workerScaler != nil {
		app.wg.Add(1)
		go func() {
			defer app.wg.Done()
			app.workerScaler.Run(app.ctx)
		}()
	}
	if app.gatewayScaler != nil {
		app.wg.Add(1)
		go func() {
			defer app.wg.Done()
			app.gatewayScaler.Run(app.ctx)
		}()
	}

	// 4. Start HTTP server
	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		addr := fmt.Sprintf(":%d", app.config.Server.Port)
		logger.InfoCtx(app.ctx, "HTTP server listening on: %s", addr)
		if err := app.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.FatalCtx(app.ctx, "HTTP server error: %v", err)
		}
	}()

	logger.InfoCtx(app.ctx, "All components started successfully")
	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown(timeout time.Duration) error {
	logger.InfoCtx(app.ctx, "Starting graceful shutdown (timeout: %v)...", timeout)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// 1. Cancel background loops (monitor, scalers)
	logger.InfoCtx(app.ctx, "Canceling background tasks...")
	app.cancel()

	// 2. Stop HTTP server (stop accepting new requests)
	logger.InfoCtx(app.ctx, "Shutting down HTTP server...")
	if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
		logger.ErrorCtx(app.ctx, "HTTP server shutdown error: %v", err)
	}

	// 3. Wait for all background tasks to complete
	logger.InfoCtx(app.ctx, "Waiting for background tasks to complete...")
	done := make(chan struct{})
	go func() {
		app.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.InfoCtx(app.ctx, "All background tasks completed")
	case <-shutdownCtx.Done():
		logger.WarnCtx(app.ctx, "Shutdown timeout, some tasks may not have completed")
	}

	// 4. Execute all cleanup functions (in reverse registration order)
	logger.InfoCtx(app.ctx, "Executing cleanup functions...")
	for i := len(app.cleanupFuncs) - 1; i >= 0; i-- {
		app.cleanupFuncs[i]()
	}

	// 5. Sync logs
	logger.Sync()

	logger.InfoCtx(app.ctx, "Graceful shutdown completed")
	return nil
}

// registerCleanup registers cleanup function
func (app *Application) registerCleanup(cleanup func()) {
	app.cleanupFuncs = append(app.cleanupFuncs, cleanup)
}
