package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/comitanigiacomo/kanso-streak-engine/docs"
	"github.com/comitanigiacomo/kanso-streak-engine/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/kanso-streak-engine/internal/adapters/localstore"
	"github.com/comitanigiacomo/kanso-streak-engine/internal/core/services"
)

const (
	defaultRateLimit  = 100
	defaultRateWindow = time.Minute
)

type RouterDependencies struct {
	StatsHandler      *StatsHandler
	StreakHandler     *StreakHandler
	CompletionHandler *CompletionHandler
	SessionHandler    *SessionHandler
	TokenService      *services.TokenService

	// Local is required. DB and Redis are optional: without them the engine
	// runs fully offline and /health reports them as disabled.
	Local *localstore.DB
	DB    *sqlx.DB
	Redis *redis.Client

	RateLimit     int
	RateWindow    time.Duration
	EnableSwagger bool
	StartTime     time.Time
}

func NewRouter(deps RouterDependencies) *gin.Engine {
	router := gin.Default()

	router.Use(middleware.RequestID())
	router.Use(middleware.Metrics())

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, DELETE")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID, X-RateLimit-Limit, X-RateLimit-Remaining, X-RateLimit-Reset")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	if deps.Redis != nil {
		limit, window := deps.RateLimit, deps.RateWindow
		if limit <= 0 {
			limit = defaultRateLimit
		}
		if window <= 0 {
			window = defaultRateWindow
		}
		router.Use(middleware.RateLimiterMiddleware(deps.Redis, limit, window))
	}

	router.GET("/health", healthCheck(deps))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if deps.EnableSwagger {
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	apiV1 := router.Group("/api/v1")

	protected := apiV1.Group("")
	protected.Use(middleware.AuthMiddleware(deps.TokenService))
	{
		deps.StatsHandler.RegisterRoutes(protected)
		deps.StreakHandler.RegisterRoutes(protected)
		deps.CompletionHandler.RegisterRoutes(protected)
		deps.SessionHandler.RegisterRoutes(protected)
	}

	return router
}

// healthCheck fails only when the local store is gone. Remote outages degrade
// reconciliation but never the streak answers.
func healthCheck(deps RouterDependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		localStatus := "open"
		if deps.Local == nil || deps.Local.IsClosed() {
			localStatus = "closed"
		}

		dbStatus := "disabled"
		if deps.DB != nil {
			dbStatus = "connected"
			if err := deps.DB.PingContext(c.Request.Context()); err != nil {
				dbStatus = "unreachable"
			}
		}

		redisStatus := "disabled"
		if deps.Redis != nil {
			redisStatus = "connected"
			if err := deps.Redis.Ping(c.Request.Context()).Err(); err != nil {
				redisStatus = "unreachable"
			}
		}

		status, statusCode := "ok", http.StatusOK
		switch {
		case localStatus == "closed":
			status, statusCode = "error", http.StatusServiceUnavailable
		case dbStatus == "unreachable" || redisStatus == "unreachable":
			status = "degraded"
		}

		c.JSON(statusCode, gin.H{
			"status":   status,
			"local":    localStatus,
			"database": dbStatus,
			"redis":    redisStatus,
			"uptime":   time.Since(deps.StartTime).String(),
		})
	}
}
