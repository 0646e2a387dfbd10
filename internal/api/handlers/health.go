package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nexconsult/cnpj-etl/internal/services"
)

// Pinger is the slice of the database pool the health probes need.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	db     Pinger
	cache  *services.CacheService
	logger *logrus.Logger
}

func NewHealthHandler(db Pinger, cache *services.CacheService, logger *logrus.Logger) *HealthHandler {
	return &HealthHandler{db: db, cache: cache, logger: logger}
}

// GetHealth reports overall service health with per-dependency status.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status := http.StatusOK
	overall := "healthy"
	dbStatus := "healthy"
	if err := h.db.Ping(ctx); err != nil {
		h.logger.WithError(err).Warn("database health check failed")
		dbStatus = "unhealthy"
		overall = "unhealthy"
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"status":    overall,
		"timestamp": time.Now(),
		"checks": gin.H{
			"database": dbStatus,
			"cache":    h.cache.Health(ctx),
		},
	})
}

// GetLiveness answers as long as the process is serving.
func (h *HealthHandler) GetLiveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive", "timestamp": time.Now()})
}

// GetReadiness requires the database to answer before reporting ready.
func (h *HealthHandler) GetReadiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "timestamp": time.Now()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "timestamp": time.Now()})
}
