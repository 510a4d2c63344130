// Package router assembles the HTTP surface of the sync backend: the
// operator API, the bridge transport endpoints, and the health check.
package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fieldops/backend/internal/infrastructure/auth"
	"github.com/fieldops/backend/internal/infrastructure/config"
	"github.com/fieldops/backend/internal/infrastructure/logger"
	"github.com/fieldops/backend/internal/interfaces/http/handler"
	"github.com/fieldops/backend/internal/interfaces/http/middleware"
)

// Handlers bundles everything the route table needs
type Handlers struct {
	System   *handler.SystemHandler
	Ingest   *handler.IngestHandler
	Bridge   *handler.BridgeHandler
	Sync     *handler.SyncHandler
	Conflict *handler.ConflictHandler
	Config   *handler.BridgeConfigHandler
}

// Options carries the cross-cutting dependencies of the HTTP layer
type Options struct {
	JWTService     *auth.JWTService
	BridgeSecret   string
	HTTP           config.HTTPConfig
	TracingEnabled bool
	ServiceName    string
	Logger         *zap.Logger
}

// New builds the gin engine with the full middleware stack and route table.
//
// Two separate trust domains hang off /api/v1: /bridge/* authenticates the
// external bridge process with a shared secret plus an explicit tenant
// header, /sync/* authenticates operators with a JWT that carries the tenant.
func New(opts Options, h Handlers) (*gin.Engine, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if len(opts.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(opts.HTTP.TrustedProxies); err != nil {
			return nil, err
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	if opts.TracingEnabled {
		engine.Use(middleware.Tracing(opts.ServiceName))
	}

	corsConfig := middleware.DefaultCORSConfig()
	if len(opts.HTTP.CORSAllowOrigins) > 0 {
		corsConfig.AllowOrigins = opts.HTTP.CORSAllowOrigins
	}
	if len(opts.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = opts.HTTP.CORSAllowMethods
	}
	if len(opts.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = opts.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	if opts.HTTP.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(opts.HTTP.MaxBodySize))
	}

	engine.GET("/health", h.System.Health)

	api := engine.Group("/api/v1")

	bridgeGroup := api.Group("/bridge")
	bridgeGroup.Use(middleware.BridgeAuthMiddleware(opts.BridgeSecret, log))
	bridgeGroup.Use(middleware.TenantMiddleware())
	{
		bridgeGroup.POST("/ingest", h.Ingest.Ingest)
		bridgeGroup.GET("/pending", h.Bridge.FetchPending)
		bridgeGroup.POST("/outcome", h.Bridge.ReportOutcome)
		bridgeGroup.POST("/conflicts", h.Conflict.Report)
	}

	syncGroup := api.Group("/sync")
	syncGroup.Use(middleware.JWTAuthMiddleware(opts.JWTService, log))
	syncGroup.Use(middleware.TenantMiddleware())
	{
		syncGroup.GET("/queue", h.Sync.ListQueue)
		syncGroup.GET("/queue/stats", h.Sync.QueueStats)
		syncGroup.POST("/queue/:id/retry", h.Sync.RetryItem)
		syncGroup.POST("/dispatch", h.Sync.Dispatch)
		syncGroup.GET("/clients/:id/history", h.Sync.ClientHistory)
		syncGroup.GET("/runs", h.Sync.RunLogs)
		syncGroup.GET("/conflicts", h.Conflict.List)
		syncGroup.POST("/conflicts/:id/resolve", h.Conflict.Resolve)
		syncGroup.GET("/config", h.Config.Get)
		syncGroup.PUT("/config", h.Config.Put)
	}

	return engine, nil
}
