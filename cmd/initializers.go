package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"pixelgate/app/handler"
	"pixelgate/app/middleware"
	"pixelgate/app/router"
	"pixelgate/internal/model"
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

// initConfig initializes configuration
func (app *Application) initConfig() error {
	if err := config.Init(); err != nil {
		return err
	}
	app.config = config.GlobalConfig
	return nil
}

// initLogger initializes logging
func (app *Application) initLogger() error {
	if err := logger.Init(); err != nil {
		return err
	}
	app.registerCleanup(func() {
		logger.Sync()
	})
	return nil
}

// initMySQL initializes the optional request/scaling archive
func (app *Application) initMySQL() error {
	if !app.config.MySQL.Enabled {
		logger.InfoCtx(app.ctx, "MySQL archive disabled, skipping")
		return nil
	}

	repo, err := mysqlstore.NewRepository(app.config.MySQL)
	if err != nil {
		return err
	}

	app.mysqlRepo = repo
	app.registerCleanup(func() {
		repo.Close()
		logger.InfoCtx(app.ctx, "MySQL connection has been closed")
	})
	return nil
}

// initRedis initializes Redis and the blob store riding on it
func (app *Application) initRedis() error {
	client, err := redisstore.NewClient(app.config.Redis)
	if err != nil {
		return err
	}

	app.redisClient = client
	app.blobStore = blob.NewRedisStore(client.GetClient(), time.Duration(app.config.Blob.TTL)*time.Second)
	app.registerCleanup(func() {
		client.Close()
		logger.InfoCtx(app.ctx, "Redis connection has been closed")
	})
	return nil
}

// initQueue initializes the queue substrate
func (app *Application) initQueue() error {
	app.queueMgr = queueasynq.NewManager(app.config)
	app.registerCleanup(func() {
		if err := app.queueMgr.Close(); err != nil {
			logger.ErrorCtx(app.ctx, "Queue manager close error: %v", err)
		}
		logger.InfoCtx(app.ctx, "Queue manager has been closed")
	})
	return nil
}

// initServices initializes the registry, status store, monitor and services
func (app *Application) initServices() error {
	reg, err := registry.New(app.config.Services)
	if err != nil {
		return err
	}
	app.registry = reg
	app.statusStore = status.NewStore()

	queues := make([]string, 0, len(reg.List()))
	for _, svc := range reg.List() {
		queues = append(queues, svc.Queue)
	}
	app.monitor = monitor.New(app.queueMgr, queues, app.config.MonitorIntervalDuration())

	app.gatewayService = service.NewGatewayService(
		reg, app.statusStore, app.blobStore, app.queueMgr, app.monitor, app.config.Queue.ResultQueue)
	app.correlator = service.NewCorrelator(app.statusStore, app.mysqlRepo)
	return nil
}

// initScalers initializes the deployment provider and both control loops
func (app *Application) initScalers() error {
	provider, err := deploy.NewProvider(app.config.Deploy)
	if err != nil {
		return err
	}
	app.deployProvider = provider
	app.history = scaler.NewHistory(200)
	app.latency = middleware.NewLatencyTracker(0.2)

	recorders := scaler.Recorders{app.history}
	if app.mysqlRepo != nil {
		recorders = append(recorders, &archiveRecorder{repo: app.mysqlRepo})
	}

	if app.config.WorkerScaler.Enabled {
		app.workerScaler = scaler.NewWorkerScaler(
			app.config.WorkerScaler, app.registry, app.monitor, provider, recorders)
	}
	if app.config.GatewayScaler.Enabled {
		app.gatewayScaler = scaler.NewGatewayScaler(
			app.config.GatewayScaler, app.monitor, app.latency, provider, recorders)
	}
	return nil
}

// initHandlers initializes the handler layer
func (app *Application) initHandlers() error {
	app.processHandler = handler.NewProcessHandler(app.gatewayService)
	app.systemHandler = handler.NewSystemHandler(app.gatewayService, app.mysqlRepo, app.gatewayScaler)
	app.scalerHandler = handler.NewScalerHandler(app.workerScaler, app.gatewayScaler, app.history)
	return nil
}

// initHTTPServer initializes the gin engine and HTTP server
func (app *Application) initHTTPServer() error {
	if app.config.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	app.ginEngine = gin.New()
	r := router.NewRouter(app.processHandler, app.systemHandler, app.scalerHandler, app.latency)
	r.Setup(app.ginEngine)

	app.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", app.config.Server.Port),
		Handler: app.ginEngine,
	}
	return nil
}

// archiveRecorder writes scaling decisions to the relational archive
type archiveRecorder struct {
	repo *mysqlstore.Repository
}

func (r *archiveRecorder) Record(ctx context.Context, decision model.ScalingDecision) {
	record := &mysqlstore.ScalingEventRecord{
		Target:        string(decision.Target),
		Algorithm:     decision.Algorithm,
		Direction:     string(decision.Direction),
		FromInstances: decision.FromInstances,
		ToInstances:   decision.ToInstances,
		Reason:        decision.Reason,
		Timestamp:     decision.DecidedAt,
	}
	if err := r.repo.ScalingEvent.Create(ctx, record); err != nil {
		logger.WarnCtx(ctx, "failed to archive scaling decision: %v", err)
	}
}
