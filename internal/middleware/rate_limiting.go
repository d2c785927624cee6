package middleware

import (
	"github.com/gin-gonic/gin"

	"depanku-backend/internal/apperrors"
	"depanku-backend/internal/config"
)

// RateLimitMiddleware applies the general per-IP request budget.
func RateLimitMiddleware(manager *RateLimitManager, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		limiter := manager.GetVisitor(c.ClientIP(), cfg.RateLimitRequests, cfg.RateLimitWindow, cfg.RateLimitBurst)
		if limiter != nil && !limiter.Allow() {
			abortWith(c, apperrors.RateLimitExceeded)
			return
		}
		c.Next()
	}
}

// AuthRateLimitMiddleware applies the stricter budget on credential
// routes. It stacks on top of the general limit.
func AuthRateLimitMiddleware(manager *RateLimitManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !manager.GetAuthVisitor(c.ClientIP()).Allow() {
			abortWith(c, apperrors.RateLimitExceeded)
			return
		}
		c.Next()
	}
}

// AIRateLimitMiddleware applies the stricter budget on assistant routes.
// It stacks on top of the general limit.
func AIRateLimitMiddleware(manager *RateLimitManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !manager.GetAIVisitor(c.ClientIP()).Allow() {
			abortWith(c, apperrors.RateLimitAI)
			return
		}
		c.Next()
	}
}
