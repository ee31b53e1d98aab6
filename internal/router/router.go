package router

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/jluxury929-hash/gas/internal/config"
	"github.com/jluxury929-hash/gas/internal/handlers"
	"github.com/jluxury929-hash/gas/internal/relay"
)

// corsMiddleware applies the configured origin whitelist; a single "*"
// entry allows everything.
func corsMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	allowAll := len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*"

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		if allowAll {
			c.Header("Access-Control-Allow-Origin", "*")
		} else if origin != "" {
			allowed := false
			for _, allowedOrigin := range cfg.AllowedOrigins {
				if strings.TrimSpace(allowedOrigin) == origin {
					allowed = true
					break
				}
			}
			if allowed {
				c.Header("Access-Control-Allow-Origin", origin)
			} else {
				logrus.WithFields(logrus.Fields{
					"request_origin": origin,
					"path":           c.Request.URL.Path,
					"remote_addr":    c.ClientIP(),
				}).Warn("CORS: request blocked, origin not in whitelist")
			}
		}

		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, Authorization, Cache-Control, Accept")
		if cfg.AllowCredentials && !allowAll {
			c.Header("Access-Control-Allow-Credentials", "true")
		}
		if cfg.MaxAge > 0 {
			c.Header("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// requestIDMiddleware tags every request for log correlation.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header("X-Request-Id", requestID)
		c.Set("request_id", requestID)
		c.Next()
	}
}

// SetupRouter wires all routes.
func SetupRouter(cfg *config.Config, engine *relay.Engine) *gin.Engine {
	r := gin.Default()

	r.Use(corsMiddleware(cfg.CORS))
	r.Use(requestIDMiddleware())

	withdrawHandler := handlers.NewWithdrawHandler(engine)
	statusHandler := handlers.NewStatusHandler(engine)

	// ============ Status & Health ============
	r.GET("/", statusHandler.RootStatusHandler)
	r.GET("/api/health", statusHandler.HealthHandler)

	// ============ Prometheus Metrics ============
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ============ Engine API ============
	engineGroup := r.Group("/api/engine")
	{
		engineGroup.POST("/withdraw", withdrawHandler.WithdrawHandler)
		engineGroup.POST("/start", handlers.StartEngineHandler)
		engineGroup.POST("/stop", handlers.StopEngineHandler)
		engineGroup.GET("/metrics", handlers.EngineMetricsHandler)
	}

	// ============ NoRoute handler for 404 ============
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"message":    "Endpoint not found",
			"path":       c.Request.URL.Path,
			"suggestion": "Check /api endpoints for available APIs",
		})
	})

	return r
}
