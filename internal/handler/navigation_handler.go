package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lob-api/internal/service"
	"github.com/noah-isme/lob-api/pkg/response"
)

// NavigationHandler serves the client menu.
type NavigationHandler struct {
	service *service.NavigationService
}

// NewNavigationHandler creates a new handler.
func NewNavigationHandler(svc *service.NavigationService) *NavigationHandler {
	return &NavigationHandler{service: svc}
}

// GetItems godoc
// @Summary Navigation manifest
// @Description Settings entries are only included for signed-in callers
// @Tags Navigation
// @Produce json
// @Success 200 {object} response.Envelope{data=[]models.NavigationItem}
// @Router /api/Navigation/GetItems [get]
func (h *NavigationHandler) GetItems(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.GetItems(claimsFromContext(c) != nil))
}
