package middleware

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"depanku-backend/internal/apperrors"
	"depanku-backend/internal/authorization"
)

const AuthTokenCookieName = "auth_token"

func abortWith(c *gin.Context, code string) {
	appErr := apperrors.New(code)
	c.JSON(appErr.StatusCode, gin.H{"error": gin.H{
		"code":     appErr.Code,
		"category": appErr.Category,
		"message":  appErr.UserMessage,
	}})
	c.Abort()
}

// AuthMiddleware accepts a bearer token or the auth cookie and loads the
// caller's identity into the request context.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var tokenString string

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
				tokenString = strings.TrimSpace(parts[1])
			}
		}
		if tokenString == "" {
			if cookieToken, err := c.Cookie(AuthTokenCookieName); err == nil {
				tokenString = strings.TrimSpace(cookieToken)
			}
		}
		if tokenString == "" {
			abortWith(c, apperrors.AuthTokenMissing)
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(jwtSecret), nil
		})
		if err != nil || !token.Valid {
			abortWith(c, apperrors.AuthTokenInvalid)
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			abortWith(c, apperrors.AuthTokenInvalid)
			return
		}

		if exp, ok := claims["exp"].(float64); ok {
			if time.Now().Unix() > int64(exp) {
				abortWith(c, apperrors.AuthTokenExpired)
				return
			}
		}

		userID, ok := claims["user_id"].(float64)
		if !ok {
			abortWith(c, apperrors.AuthTokenInvalid)
			return
		}

		c.Set("user_id", uint(userID))
		if email, ok := claims["email"].(string); ok {
			c.Set("email", email)
		}
		if username, ok := claims["username"].(string); ok {
			c.Set("username", username)
		}
		if role, ok := claims["role"].(string); ok {
			c.Set("role", role)
		}

		c.Next()
	}
}

// OptionalAuthMiddleware loads the caller's identity when a valid token is
// present and stays silent otherwise. Public routes use it so owners see
// their own drafts.
func OptionalAuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var tokenString string

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
				tokenString = strings.TrimSpace(parts[1])
			}
		}
		if tokenString == "" {
			if cookieToken, err := c.Cookie(AuthTokenCookieName); err == nil {
				tokenString = strings.TrimSpace(cookieToken)
			}
		}
		if tokenString == "" {
			c.Next()
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(jwtSecret), nil
		})
		if err != nil || !token.Valid {
			c.Next()
			return
		}

		if claims, ok := token.Claims.(jwt.MapClaims); ok {
			if userID, ok := claims["user_id"].(float64); ok {
				c.Set("user_id", uint(userID))
			}
			if role, ok := claims["role"].(string); ok {
				c.Set("role", role)
			}
		}
		c.Next()
	}
}

// RequirePermission gates a route on the role claim carried in the verified
// token, never on anything client-supplied. Admins hold every permission;
// moderators hold only the moderation and statistics subset.
func RequirePermission(permission authorization.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get("role")
		if !exists {
			abortWith(c, apperrors.PermissionDenied)
			return
		}
		role, ok := authorization.ParseUserRole(value)
		if !ok || !authorization.RoleHasPermission(role, permission) {
			abortWith(c, apperrors.PermissionDenied)
			return
		}
		c.Next()
	}
}
