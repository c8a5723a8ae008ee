package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/petitecurve/storefront/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger *zap.Logger) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	router.GET("/health", handler.HealthCheck)
	router.GET("/metrics", handler.Metrics)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		v1.GET("/products", handler.GetProducts)
		v1.POST("/storefront/rebuild", handler.Rebuild)
	}

	// Everything else comes from the published output
	router.NoRoute(handler.ServeOutput)

	return router
}
