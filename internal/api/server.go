// Package api assembles the HTTP surface of the loaded registry.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/nexconsult/cnpj-etl/internal/api/handlers"
	"github.com/nexconsult/cnpj-etl/internal/api/middleware"
	"github.com/nexconsult/cnpj-etl/internal/config"
	"github.com/nexconsult/cnpj-etl/internal/services"
)

// Server is the HTTP server with its router fully wired.
type Server struct {
	Router *gin.Engine
	cfg    config.ServerConfig
	logger *logrus.Logger

	httpServer *http.Server
}

// NewServer wires the middleware chain and routes.
func NewServer(cfg config.ServerConfig, pool *pgxpool.Pool, cache *services.CacheService, companies services.CompanyServiceInterface, logger *logrus.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS())
	router.Use(middleware.Security())
	router.Use(middleware.RequestID())

	// Health probes stay outside the rate limit so orchestration never gets
	// throttled away.
	health := handlers.NewHealthHandler(pool, cache, logger)
	router.GET("/health", health.GetHealth)
	router.GET("/health/live", health.GetLiveness)
	router.GET("/health/ready", health.GetReadiness)

	rateLimiter := middleware.NewRateLimiter(cfg.RequestsPerMinute, cfg.BurstSize)

	v1 := router.Group("/api/v1")
	v1.Use(rateLimiter.Middleware())
	{
		companyHandler := handlers.NewCompanyHandler(companies, logger)
		v1.GET("/cnpj/:cnpj", companyHandler.GetCompany)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":     "Not Found",
			"message":   "The requested resource was not found",
			"timestamp": time.Now(),
			"path":      c.Request.URL.Path,
		})
	})

	return &Server{Router: router, cfg: cfg, logger: logger}
}

// Start serves until ListenAndServe returns.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:      s.Router,
		ReadTimeout:  time.Duration(s.cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.cfg.WriteTimeout) * time.Second,
	}
	s.logger.WithField("addr", s.httpServer.Addr).Info("api server listening")
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
