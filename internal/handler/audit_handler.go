package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/noah-isme/lob-api/internal/dto"
	"github.com/noah-isme/lob-api/internal/models"
	appErrors "github.com/noah-isme/lob-api/pkg/errors"
	"github.com/noah-isme/lob-api/pkg/response"
)

// AuditLogReader lists stored audit entries.
type AuditLogReader interface {
	ListAuditLogs(ctx context.Context, filter models.AuditLogFilter) ([]models.AuditLog, int, error)
}

// AuditHandler exposes the audit trail to administrators.
type AuditHandler struct {
	logs AuditLogReader
}

// NewAuditHandler creates a new handler.
func NewAuditHandler(logs AuditLogReader) *AuditHandler {
	return &AuditHandler{logs: logs}
}

// GetLogs godoc
// @Summary List audit entries
// @Tags Audit
// @Produce json
// @Security BearerAuth
// @Param userId query string false "Filter by user"
// @Param action query string false "Filter by action"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope{data=[]dto.AuditLogResponse}
// @Failure 400 {object} response.Problem
// @Failure 403 {object} response.Problem
// @Router /api/Audit/GetLogs [get]
func (h *AuditHandler) GetLogs(c *gin.Context) {
	filter := models.AuditLogFilter{Action: strings.TrimSpace(c.Query("action"))}
	if raw := strings.TrimSpace(c.Query("userId")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrBadRequest, "userId must be a UUID"))
			return
		}
		filter.UserID = id.String()
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	logs, total, err := h.logs.ListAuditLogs(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	page, size := filter.Bounds()
	response.JSON(c, http.StatusOK, dto.NewAuditLogResponses(logs), map[string]interface{}{
		"page":  page,
		"limit": size,
		"total": total,
	})
}
