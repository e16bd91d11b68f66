package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lob-api/internal/models"
	appErrors "github.com/noah-isme/lob-api/pkg/errors"
	"github.com/noah-isme/lob-api/pkg/logger"
	"github.com/noah-isme/lob-api/pkg/response"
)

// ContextUserKey is the gin context key storing JWT claims.
const ContextUserKey = "currentUser"

// AccessTokenName is the cookie and query parameter that may carry the bearer token.
const AccessTokenName = "access_token"

// AccessTokenValidator parses bearer tokens.
type AccessTokenValidator interface {
	ValidateAccessToken(token string) (*models.JWTClaims, error)
}

// JWT protects routes by requiring a valid access token.
func JWT(tokens AccessTokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c)
		if !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}
		if raw == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		claims, err := tokens.ValidateAccessToken(raw)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// OptionalJWT attaches claims when present but does not block.
func OptionalJWT(tokens AccessTokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c)
		if !ok || raw == "" {
			c.Next()
			return
		}
		if claims, err := tokens.ValidateAccessToken(raw); err == nil {
			setClaims(c, claims)
		}
		c.Next()
	}
}

// RequirePrivileged rejects sessions that were signed in beyond the privileged session limit.
func RequirePrivileged() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if !claims.Privileged {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "a privileged session is required"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireElevated allows tokens that were refreshed with an elevated access code.
func RequireElevated() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if !claims.Elevated {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "elevated access is required"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// Claims returns the authenticated caller or nil.
func Claims(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil
	}
	claims, _ := value.(*models.JWTClaims)
	return claims
}

func setClaims(c *gin.Context, claims *models.JWTClaims) {
	c.Set(ContextUserKey, claims)
	c.Set(logger.UserIDKey, claims.UserID)
}

// bearerToken looks at the Authorization header, then the access_token cookie, then the query.
// ok is false when an Authorization header is present but malformed.
func bearerToken(c *gin.Context) (string, bool) {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return "", false
		}
		return strings.TrimSpace(parts[1]), true
	}
	if cookie, err := c.Cookie(AccessTokenName); err == nil && cookie != "" {
		return cookie, true
	}
	return c.Query(AccessTokenName), true
}
