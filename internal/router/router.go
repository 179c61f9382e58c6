package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/nutrilog/backend/internal/api"
	"github.com/nutrilog/backend/internal/middleware"
)

// Handlers groups the API handlers wired by SetupRouter.
type Handlers struct {
	Auth    *api.AuthHandler
	Analyze *api.AnalyzeHandler
	Entries *api.EntryHandler
	Profile *api.ProfileHandler
	State   *api.StateHandler
	Usage   *api.UsageHandler
}

// SetupRouter configures the application routes
func SetupRouter(h Handlers, validator middleware.TokenValidator, db *gorm.DB, redisClient *redis.Client, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(middleware.ErrorHandler(logger))
	router.Use(middleware.CORS())

	router.GET("/health", healthCheck(db, redisClient))

	// API v1 routes
	v1 := router.Group("/api/v1")

	h.Auth.RegisterRoutes(v1)

	// Protected routes
	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(validator))
	{
		h.Analyze.RegisterRoutes(protected)
		h.Entries.RegisterRoutes(protected)
		h.Profile.RegisterRoutes(protected)
		h.State.RegisterRoutes(protected)
		h.Usage.RegisterRoutes(protected)
	}

	return router
}

func healthCheck(db *gorm.DB, redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unavailable"})
			return
		}
		if redisClient != nil {
			if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "redis unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
