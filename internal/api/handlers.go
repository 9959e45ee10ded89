package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/babcheck/babcheck/backend/config"
	"github.com/babcheck/babcheck/backend/internal/middleware"
	"github.com/babcheck/babcheck/backend/internal/service"
	"github.com/babcheck/babcheck/backend/internal/store"
)

// Version is reported by the health check.
const Version = "v1.0.0"

// Services bundles what the routes need. ChatLimiter and Redis may be nil.
type Services struct {
	Config  *config.Config
	Tokens  middleware.TokenValidator
	Store   store.RecordStore
	Redis   *redis.Client
	Menus   service.IMenuService
	Chats   service.IChatService
	Records service.IRecordService
	Profile service.IProfileService
	Users   service.IUserService
	Snacks  service.ISnackService
	Monitor service.IMonitorService
	Proxy   *ProxyHandler

	ChatLimiter *middleware.RateLimiter
}

// HealthCheck returns the health status of the API
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "BabCheck API is running",
		"version": Version,
	})
}

// readiness pings the record store and Redis.
func readiness(s store.RecordStore, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		checks := gin.H{"store": "ok"}
		status := http.StatusOK
		if err := s.Ping(ctx); err != nil {
			checks["store"] = err.Error()
			status = http.StatusServiceUnavailable
		}
		if rdb != nil {
			checks["redis"] = "ok"
			if err := rdb.Ping(ctx).Err(); err != nil {
				checks["redis"] = err.Error()
				status = http.StatusServiceUnavailable
			}
		}
		c.JSON(status, gin.H{"status": http.StatusText(status), "checks": checks})
	}
}

// RegisterRoutes registers all API routes
func RegisterRoutes(router *gin.Engine, s Services) {
	router.GET("/health", HealthCheck)
	router.GET("/api/health", HealthCheck)
	if s.Store != nil {
		router.GET("/api/ready", readiness(s.Store, s.Redis))
	}

	if s.Proxy != nil {
		s.Proxy.RegisterRoutes(router.Group(ProxyPrefix))
		s.Proxy.RegisterRoutes(router.Group(LegacyProxyPrefix))
	}

	v1 := router.Group("/api/v1")
	v1.Use(middleware.AuthMiddleware(s.Tokens))

	NewMenuHandler(s.Menus).RegisterRoutes(v1)
	NewChatHandler(s.Chats, s.ChatLimiter).RegisterRoutes(v1)
	NewRecordHandler(s.Records).RegisterRoutes(v1)
	NewProfileHandler(s.Profile, s.Users).RegisterRoutes(v1)
	NewSnackHandler(s.Snacks, s.ChatLimiter).RegisterRoutes(v1)
	NewMonitorHandler(s.Monitor, s.Config).RegisterRoutes(v1)
}
