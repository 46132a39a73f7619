package api

import (
	"github.com/gin-gonic/gin"
)

// RouteConfig carries the settings the router needs
type RouteConfig struct {
	JWTSecret    string
	JWTIssuer    string
	RateLimitRPS float64
}

const instructorRole = "instructor"

func SetupRoutes(cfg RouteConfig, handler *Handler) *gin.Engine {
	router := gin.New()

	rateLimiter := NewRateLimiter(cfg.RateLimitRPS, int(cfg.RateLimitRPS*2))

	router.Use(gin.Recovery())
	router.Use(RequestLogger())
	router.Use(MetricsMiddleware())
	router.Use(ErrorHandlerMiddleware())

	router.GET("/health", handler.Health)

	api := router.Group("/api/v1")
	api.Use(JWTAuthMiddleware(cfg.JWTSecret, cfg.JWTIssuer))
	api.Use(RequireRole(instructorRole))
	api.Use(RateLimitMiddleware(rateLimiter))
	{
		api.POST("/compute", handler.Compute)
		api.GET("/status/:assignmentId", handler.Status)
		api.GET("/reports/:assignmentId", handler.Report)
		api.POST("/detect", handler.Detect)
	}

	return router
}
