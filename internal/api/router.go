package api

import (
	"credit-chat/internal/api/handlers"
	"credit-chat/internal/app"
	"credit-chat/internal/auth"
	"credit-chat/internal/logger"
	"credit-chat/internal/repository/db"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// NewRouter builds the HTTP routes
func NewRouter(config *app.Config) *gin.Engine {
	if config.AppConfig.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	h := handlers.NewHandlers(config)
	authMiddleware := auth.Middleware(h.Tokens())

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(CORSMiddleware(config.AppConfig.Server.AllowedOrigin))
	router.Use(auth.RequestID())
	router.Use(AccessLog())

	api := router.Group("/api")
	{
		// Public routes
		api.GET("/health", h.Health)
		api.GET("/providers", h.GetProviders)
		api.POST("/register", h.Register)
		api.POST("/login", h.Login)
		api.POST("/billing/webhook", h.Webhook)

		// Protected routes
		protected := api.Group("/")
		protected.Use(authMiddleware)
		{
			protected.POST("/chat", h.ChatRateLimit(), h.Chat)
			protected.GET("/credits", h.GetCredits)
			protected.POST("/billing/checkout", h.Checkout)
		}

		admin := api.Group("/admin")
		admin.Use(authMiddleware, auth.RequireRole(db.RoleAdmin))
		{
			admin.POST("/credits", h.GrantCredits)
			admin.GET("/events", h.Events)
			admin.GET("/costs/:userID", h.UserCosts)
		}
	}

	return router
}

// CORSMiddleware allows the configured frontend origin
func CORSMiddleware(allowedOrigin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// AccessLog writes one structured line per request
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := logger.Log.WithFields(logrus.Fields{
			"request_id":  auth.RequestIDFrom(c),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Warn("HTTP request")
			return
		}
		entry.Debug("HTTP request")
	}
}
