package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/nekogravitycat/parts-market-backend/internal/auth"
	"github.com/nekogravitycat/parts-market-backend/internal/user"
)

// EnrichProfile resolves the authenticated user's profile and stores the
// admin flag in the request context. It never rejects: anonymous requests
// pass through untouched. Use after auth.AuthRequired or auth.OptionalAuth.
func EnrichProfile(users user.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID := auth.GetUserID(c); userID != "" {
			if p, err := users.GetProfile(c.Request.Context(), userID); err == nil {
				c.Set("isAdmin", p.IsAdmin())
			}
		}
		c.Next()
	}
}

// RequireAdmin ensures the authenticated user has the admin profile type.
// It MUST be used after EnrichProfile.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !auth.IsAdmin(c) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden: admin access required"})
			return
		}
		c.Next()
	}
}

// RequestLogger logs each request with zerolog, replacing gin.Logger so dev
// and prod share one log pipeline.
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("request")
	}
}
