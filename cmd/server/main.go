package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appsync "github.com/fieldops/backend/internal/application/ledgersync"
	"github.com/fieldops/backend/internal/infrastructure/auth"
	"github.com/fieldops/backend/internal/infrastructure/bridge"
	"github.com/fieldops/backend/internal/infrastructure/cache"
	"github.com/fieldops/backend/internal/infrastructure/config"
	"github.com/fieldops/backend/internal/infrastructure/logger"
	"github.com/fieldops/backend/internal/infrastructure/persistence"
	"github.com/fieldops/backend/internal/infrastructure/runlock"
	"github.com/fieldops/backend/internal/infrastructure/scheduler"
	"github.com/fieldops/backend/internal/infrastructure/telemetry"
	"github.com/fieldops/backend/internal/interfaces/http/handler"
	"github.com/fieldops/backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(logger.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting sync backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	// Redis backs the run lock and the client counter
	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() { _ = redisClient.Close() }()

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		cancelPing()
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	cancelPing()
	log.Info("Redis connected")

	// Tracing
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	// Repositories
	clientRepo := persistence.NewGormClientRepository(db.DB)
	queueRepo := persistence.NewGormQueueRepository(db.DB)
	conflictRepo := persistence.NewGormConflictRepository(db.DB)
	historyRepo := persistence.NewGormHistoryRepository(db.DB)
	configRepo := persistence.NewGormBridgeConfigRepository(db.DB)
	runLogRepo := persistence.NewGormRunLogRepository(db.DB)
	scope := persistence.NewGormSyncTransactionScope(db.DB)

	// Collaborators
	counter := cache.NewRedisClientCounter(redisClient)
	bridgeClient := bridge.NewHTTPClient(bridge.WithTimeout(cfg.Bridge.RequestTimeout))
	runLock := runlock.NewRedisRunLock(redisClient, cfg.Sync.RunLockTTL)
	jwtService := auth.NewJWTService(cfg.JWT)

	// Application services
	ingestService := appsync.NewIngestService(scope, runLogRepo, counter, log)
	dispatchService := appsync.NewDispatchService(scope, queueRepo, clientRepo, configRepo, bridgeClient, log)
	dispatchService.SetPacingDelay(cfg.Bridge.PacingDelay)
	conflictService := appsync.NewConflictService(scope, conflictRepo, clientRepo, log)
	configService := appsync.NewConfigService(configRepo, log)
	statusService := appsync.NewStatusService(queueRepo, conflictRepo, historyRepo, runLogRepo)

	// Auto-sync scheduler
	autoSync, err := scheduler.NewAutoSyncScheduler(scheduler.Config{
		Enabled:      cfg.Sync.SchedulerEnabled,
		TickInterval: cfg.Sync.TickInterval,
		WorkerCount:  cfg.Sync.WorkerCount,
		BatchSize:    cfg.Bridge.BatchSize,
	}, configRepo, dispatchService, runLock, log)
	if err != nil {
		log.Fatal("Failed to create auto-sync scheduler", zap.Error(err))
	}
	if err := autoSync.Start(context.Background()); err != nil {
		log.Fatal("Failed to start auto-sync scheduler", zap.Error(err))
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine, err := router.New(router.Options{
		JWTService:     jwtService,
		BridgeSecret:   cfg.Bridge.SharedSecret,
		HTTP:           cfg.HTTP,
		TracingEnabled: cfg.Telemetry.Enabled,
		ServiceName:    cfg.Telemetry.ServiceName,
		Logger:         log,
	}, router.Handlers{
		System:   handler.NewSystemHandler(db.DB, redisClient),
		Ingest:   handler.NewIngestHandler(ingestService),
		Bridge:   handler.NewBridgeHandler(dispatchService, cfg.Bridge.BatchSize),
		Sync:     handler.NewSyncHandler(dispatchService, statusService, cfg.Bridge.BatchSize),
		Conflict: handler.NewConflictHandler(conflictService, statusService),
		Config:   handler.NewBridgeConfigHandler(configService),
	})
	if err != nil {
		log.Fatal("Failed to build router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := autoSync.Stop(ctx); err != nil {
		log.Error("Scheduler shutdown error", zap.Error(err))
	}
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(ctx); err != nil {
		log.Error("Tracer shutdown error", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
