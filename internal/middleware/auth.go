package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rise171/system-control-defects/internal/apperrors"
	"github.com/rise171/system-control-defects/internal/models"
)

const currentUserKey = "current_user"

// SessionResolver turns a bearer token into the user it was issued for.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*models.User, error)
}

// JWTAuthMiddleware resolves the bearer token and stores the current user in
// the gin context. Requests without a valid token for an existing user stop here.
func JWTAuthMiddleware(sessions SessionResolver) gin.HandlerFunc {
	return authenticate(sessions, bearerToken)
}

// WebSocketAuthMiddleware is JWTAuthMiddleware that also accepts ?token=,
// since browsers cannot set headers on websocket upgrades.
func WebSocketAuthMiddleware(sessions SessionResolver) gin.HandlerFunc {
	return authenticate(sessions, func(c *gin.Context) string {
		if token := bearerToken(c); token != "" {
			return token
		}
		return c.Query("token")
	})
}

func authenticate(sessions SessionResolver, tokenFrom func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFrom(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization token is required",
			})
			return
		}

		user, err := sessions.Resolve(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, apperrors.ErrUnauthenticated) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error": "Invalid or expired token",
				})
				return
			}
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
			return
		}

		c.Set(currentUserKey, user)
		c.Next()
	}
}

// CurrentUser returns the user set by JWTAuthMiddleware, or nil.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return ""
}
