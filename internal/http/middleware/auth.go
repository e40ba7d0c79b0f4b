package middleware

import (
	"net/http"
	"strings"

	"github.com/Harsha992004/online-bus-booking-app/internal/auth"
	"github.com/Harsha992004/online-bus-booking-app/internal/domain"
	"github.com/gin-gonic/gin"
)

const (
	userIDKey   = "userID"
	userRoleKey = "userRole"
)

// Auth reads an optional bearer token. Requests without one continue as
// anonymous callers; a malformed or expired token is rejected.
func Auth(issuer auth.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" {
			c.Next()
			return
		}
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized: bearer token expected"})
			return
		}
		claims, err := issuer.Parse(strings.TrimSpace(raw))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized: invalid or expired token"})
			return
		}
		c.Set(userIDKey, claims.UserID)
		c.Set(userRoleKey, claims.Role)
		c.Next()
	}
}

// RequireAuth rejects anonymous callers.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetInt64(userIDKey) <= 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized: login required"})
			return
		}
		c.Next()
	}
}

// RequireRoles only lets through callers whose role is in allowedRoles.
// Auth must run first.
//
//	admin.Use(RequireRoles(domain.RoleAdmin))
func RequireRoles(allowedRoles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[strings.ToLower(strings.TrimSpace(r))] = struct{}{}
	}

	return func(c *gin.Context) {
		role := c.GetString(userRoleKey)
		if role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized: login required"})
			return
		}
		if _, ok := allowed[strings.ToLower(strings.TrimSpace(role))]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden: role not allowed"})
			return
		}
		c.Next()
	}
}

// Caller builds the request context passed to services.
func Caller(c *gin.Context) domain.RequestContext {
	return domain.RequestContext{
		UserID:    c.GetInt64(userIDKey),
		Role:      c.GetString(userRoleKey),
		RequestID: GetRequestID(c),
	}
}
