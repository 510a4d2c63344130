package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// SystemHandler serves health and readiness probes
type SystemHandler struct {
	BaseHandler
	db    *gorm.DB
	redis *redis.Client
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(db *gorm.DB, redisClient *redis.Client) *SystemHandler {
	return &SystemHandler{db: db, redis: redisClient}
}

// Health handles GET /health, pinging the database and Redis
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	checks := gin.H{}
	healthy := true

	dbStatus := "ok"
	if h.db == nil {
		dbStatus = "not configured"
		healthy = false
	} else if sqlDB, err := h.db.DB(); err != nil {
		dbStatus = err.Error()
		healthy = false
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = err.Error()
		healthy = false
	}
	checks["database"] = dbStatus

	redisStatus := "ok"
	if h.redis == nil {
		redisStatus = "not configured"
	} else if err := h.redis.Ping(ctx).Err(); err != nil {
		redisStatus = err.Error()
		healthy = false
	}
	checks["redis"] = redisStatus

	status := http.StatusOK
	state := "healthy"
	if !healthy {
		status = http.StatusServiceUnavailable
		state = "unhealthy"
	}

	c.JSON(status, gin.H{
		"status": state,
		"checks": checks,
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
