package handler

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lob-api/internal/dto"
	"github.com/noah-isme/lob-api/pkg/response"
)

type statisticsService interface {
	GetNugetStats(ctx context.Context, packageID string) (*dto.NugetStatsResponse, error)
	GetGitHubStats(ctx context.Context, repo string) (*dto.GitHubStatsResponse, error)
}

// StatisticsHandler serves cached package and repository statistics.
type StatisticsHandler struct {
	service      statisticsService
	cacheControl string
}

// NewStatisticsHandler creates a new handler. Responses may be cached by clients for maxAgeSeconds.
func NewStatisticsHandler(svc statisticsService, maxAgeSeconds int) *StatisticsHandler {
	return &StatisticsHandler{service: svc, cacheControl: fmt.Sprintf("public, max-age=%d", maxAgeSeconds)}
}

// GetNugetStats godoc
// @Summary NuGet package statistics
// @Tags Statistics
// @Produce json
// @Param packageId path string true "Package ID"
// @Success 200 {object} response.Envelope{data=dto.NugetStatsResponse}
// @Failure 404 {object} response.Problem
// @Failure 503 {object} response.Problem
// @Router /api/Statistics/GetNugetStats/{packageId} [get]
func (h *StatisticsHandler) GetNugetStats(c *gin.Context) {
	stats, err := h.service.GetNugetStats(c.Request.Context(), c.Param("packageId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Cache-Control", h.cacheControl)
	response.Cached(c, stats)
}

// GetGitHubStats godoc
// @Summary GitHub repository statistics
// @Tags Statistics
// @Produce json
// @Param repo query string false "owner/name, defaults to the configured repository"
// @Success 200 {object} response.Envelope{data=dto.GitHubStatsResponse}
// @Failure 404 {object} response.Problem
// @Failure 503 {object} response.Problem
// @Router /api/Statistics/GetGitHubStats [get]
func (h *StatisticsHandler) GetGitHubStats(c *gin.Context) {
	stats, err := h.service.GetGitHubStats(c.Request.Context(), c.Query("repo"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Cache-Control", h.cacheControl)
	response.Cached(c, stats)
}
