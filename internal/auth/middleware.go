package auth

import (
	"credit-chat/internal/logger"
	"credit-chat/internal/repository/db"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Context keys set by Middleware and RequestID
const (
	ContextUserID    = "user_id"
	ContextEmail     = "email"
	ContextRole      = "role"
	ContextRequestID = "request_id"

	HeaderRequestID = "X-Request-ID"
)

var roleRank = map[string]int{
	db.RoleUser:       1,
	db.RoleSubscriber: 2,
	db.RoleAdmin:      3,
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "error": message})
}

// Middleware requires a valid bearer token and stores its claims on the context
func Middleware(tm *TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abort(c, http.StatusUnauthorized, "Missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			abort(c, http.StatusUnauthorized, "Invalid authorization header format")
			return
		}

		claims, err := tm.Validate(parts[1])
		if err != nil {
			logger.Log.WithField("request_id", RequestIDFrom(c)).WithError(err).Debug("Rejected token")
			abort(c, http.StatusUnauthorized, "Invalid token")
			return
		}

		c.Set(ContextUserID, claims.Subject)
		c.Set(ContextEmail, claims.Email)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}

// UserID returns the authenticated caller, or "" when absent
func UserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}

// Role returns the authenticated caller's role
func Role(c *gin.Context) string {
	return c.GetString(ContextRole)
}

// HasRole reports whether role is at least minRole
func HasRole(role, minRole string) bool {
	return roleRank[role] >= roleRank[minRole] && roleRank[role] > 0
}

// RequireRole rejects callers below minRole. It must run after Middleware.
func RequireRole(minRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !HasRole(Role(c), minRole) {
			abort(c, http.StatusForbidden, "Forbidden")
			return
		}
		c.Next()
	}
}

// RequestID propagates X-Request-ID or assigns a new one
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(ContextRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// RequestIDFrom returns the correlation id assigned by RequestID
func RequestIDFrom(c *gin.Context) string {
	return c.GetString(ContextRequestID)
}
