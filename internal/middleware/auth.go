package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"medigem-server/internal/config"
	"medigem-server/internal/models"
	"medigem-server/internal/utils"
)

const principalContextKey = "principal"

// AuthMiddleware creates a middleware for JWT authentication. It resolves
// the bearer token into a Principal once and stores it in the request
// context for downstream handlers.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.Unauthorized(c, "Authorization header required")
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			utils.Unauthorized(c, "Invalid authorization header format")
			c.Abort()
			return
		}

		tokenString := parts[1]
		claims, err := utils.ValidateToken(tokenString, cfg.JWTSecret)
		if err != nil {
			utils.Unauthorized(c, "Invalid token: "+err.Error())
			c.Abort()
			return
		}

		c.Set(principalContextKey, models.Principal{
			ID:   claims.PrincipalID,
			Kind: claims.Kind,
		})

		c.Next()
	}
}

// RequireKind creates a middleware gating a route to one principal kind.
// It should be used *after* AuthMiddleware.
func RequireKind(kind models.PrincipalKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, exists := GetPrincipalFromContext(c)
		if !exists {
			utils.InternalServerError(c, "Principal not found in context. AuthMiddleware might be missing.")
			c.Abort()
			return
		}

		if principal.Kind != kind {
			utils.Forbidden(c, "You do not have permission to access this resource.")
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetPrincipalFromContext returns the authenticated principal for the request.
func GetPrincipalFromContext(c *gin.Context) (models.Principal, bool) {
	value, exists := c.Get(principalContextKey)
	if !exists {
		return models.Principal{}, false
	}
	principal, ok := value.(models.Principal)
	return principal, ok
}
