package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/noah-isme/lob-api/internal/middleware"
	"github.com/noah-isme/lob-api/internal/models"
	"github.com/noah-isme/lob-api/internal/service"
	appErrors "github.com/noah-isme/lob-api/pkg/errors"
	"github.com/noah-isme/lob-api/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.Claims(c)
}

// requireClaims writes 401 when the route was reached without authentication.
func requireClaims(c *gin.Context) (*models.JWTClaims, bool) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	return claims, true
}

// clientInfo reads the caller address and the CDN geo headers.
func clientInfo(c *gin.Context) service.ClientInfo {
	return service.ClientInfo{
		IP:        c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
		Country:   c.GetHeader("cf-ipcountry"),
		City:      c.GetHeader("cf-ipcity"),
	}
}

// bindJSON decodes the body into dest and writes a 400 problem on failure.
func bindJSON(c *gin.Context, dest interface{}, message string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	return true
}

// uuidParam reads a path parameter that addresses a UUID keyed row and returns it in canonical form.
// A malformed id cannot match any row, so notFound is written instead.
func uuidParam(c *gin.Context, name string, notFound *appErrors.Error) (string, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.Error(c, notFound)
		return "", false
	}
	return id.String(), true
}
