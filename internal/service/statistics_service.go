package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lob-api/internal/dto"
	"github.com/noah-isme/lob-api/pkg/config"
	appErrors "github.com/noah-isme/lob-api/pkg/errors"
)

const (
	nugetCacheKeyPrefix  = "stats:nuget:"
	githubCacheKeyPrefix = "stats:github:"
)

type statsCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// StatisticsService fetches package and repository statistics and caches them for a day.
type StatisticsService struct {
	client *http.Client
	cache  statsCache
	config config.StatisticsConfig
	logger *zap.Logger
}

// NewStatisticsService constructs a StatisticsService. A nil client gets the configured timeout.
func NewStatisticsService(cfg config.StatisticsConfig, client *http.Client, cache statsCache, logger *zap.Logger) *StatisticsService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 24 * time.Hour
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatisticsService{client: client, cache: cache, config: cfg, logger: logger}
}

// CacheTTL is how long results stay fresh, also used for response cache headers.
func (s *StatisticsService) CacheTTL() time.Duration {
	return s.config.CacheTTL
}

type nugetSearchResponse struct {
	TotalHits int `json:"totalHits"`
	Data      []struct {
		ID             string `json:"id"`
		Version        string `json:"version"`
		TotalDownloads int64  `json:"totalDownloads"`
		Versions       []struct {
			Version string `json:"version"`
		} `json:"versions"`
	} `json:"data"`
}

// GetNugetStats returns download statistics of a NuGet package.
func (s *StatisticsService) GetNugetStats(ctx context.Context, packageID string) (*dto.NugetStatsResponse, error) {
	packageID = strings.TrimSpace(packageID)
	if packageID == "" {
		return nil, appErrors.Clone(appErrors.ErrResourceValidation, "").WithField("packageId", "packageId is required")
	}
	key := nugetCacheKeyPrefix + strings.ToLower(packageID)
	var cached dto.NugetStatsResponse
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}

	query := url.Values{"q": {"packageid:" + packageID}, "prerelease": {"true"}}
	var body nugetSearchResponse
	if err := s.getJSON(ctx, s.config.NugetBaseURL+"/query?"+query.Encode(), &body); err != nil {
		return nil, err
	}
	if len(body.Data) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "package not found").WithData("PackageId", packageID)
	}
	pkg := body.Data[0]
	stats := &dto.NugetStatsResponse{
		PackageID:      pkg.ID,
		Version:        pkg.Version,
		TotalDownloads: pkg.TotalDownloads,
		Versions:       len(pkg.Versions),
	}
	_ = s.cache.Set(ctx, key, stats, s.config.CacheTTL)
	return stats, nil
}

type githubRepoResponse struct {
	FullName         string `json:"full_name"`
	StargazersCount  int    `json:"stargazers_count"`
	ForksCount       int    `json:"forks_count"`
	SubscribersCount int    `json:"subscribers_count"`
	OpenIssuesCount  int    `json:"open_issues_count"`
}

// GetGitHubStats returns star and fork counts of owner/repo. An empty repo uses the configured one.
func (s *StatisticsService) GetGitHubStats(ctx context.Context, repo string) (*dto.GitHubStatsResponse, error) {
	repo = strings.Trim(strings.TrimSpace(repo), "/")
	if repo == "" {
		repo = s.config.GitHubRepo
	}
	if parts := strings.Split(repo, "/"); len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, appErrors.Clone(appErrors.ErrResourceValidation, "").WithField("repo", "repo must be owner/name")
	}
	key := githubCacheKeyPrefix + strings.ToLower(repo)
	var cached dto.GitHubStatsResponse
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}

	var body githubRepoResponse
	if err := s.getJSON(ctx, s.config.GitHubBaseURL+"/repos/"+repo, &body); err != nil {
		return nil, err
	}
	stats := &dto.GitHubStatsResponse{
		FullName:   body.FullName,
		Stars:      body.StargazersCount,
		Forks:      body.ForksCount,
		Watchers:   body.SubscribersCount,
		OpenIssues: body.OpenIssuesCount,
	}
	_ = s.cache.Set(ctx, key, stats, s.config.CacheTTL)
	return stats, nil
}

func (s *StatisticsService) getJSON(ctx context.Context, target string, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build statistics request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "lob-api")

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Warn("statistics request failed", zap.String("url", target), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrServiceUnavailable.Code, appErrors.ErrServiceUnavailable.Status, "statistics provider unavailable")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return appErrors.Clone(appErrors.ErrNotFound, "statistics not found")
	case resp.StatusCode >= 300:
		_, _ = io.Copy(io.Discard, resp.Body)
		return appErrors.Wrap(fmt.Errorf("unexpected status %d", resp.StatusCode), appErrors.ErrServiceUnavailable.Code, appErrors.ErrServiceUnavailable.Status, "statistics provider unavailable")
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return appErrors.Wrap(err, appErrors.ErrServiceUnavailable.Code, appErrors.ErrServiceUnavailable.Status, "invalid statistics response")
	}
	return nil
}
