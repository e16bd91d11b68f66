package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lob-api/internal/models"
	"github.com/noah-isme/lob-api/internal/service"
	appErrors "github.com/noah-isme/lob-api/pkg/errors"
	"github.com/noah-isme/lob-api/pkg/logger"
	"github.com/noah-isme/lob-api/pkg/response"
)

type stubTokens map[string]*models.JWTClaims

func (s stubTokens) ValidateAccessToken(token string) (*models.JWTClaims, error) {
	claims, ok := s[token]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return claims, nil
}

type stubAuditLog struct {
	logs []*models.AuditLog
}

func (s *stubAuditLog) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	s.logs = append(s.logs, log)
	return nil
}

func newTestRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		userID := ""
		if claims := Claims(c); claims != nil {
			userID = claims.UserID
		}
		c.JSON(http.StatusOK, gin.H{"user": userID, "logUser": c.GetString(logger.UserIDKey)})
	})
	r.GET("/users/:id", handlers...)
	return r
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestJWTTokenSources(t *testing.T) {
	tokens := stubTokens{"good": {UserID: "u1"}}
	r := newTestRouter(JWT(tokens))

	header := httptest.NewRequest(http.MethodGet, "/users/u1", nil)
	header.Header.Set("Authorization", "Bearer good")
	cookie := httptest.NewRequest(http.MethodGet, "/users/u1", nil)
	cookie.AddCookie(&http.Cookie{Name: AccessTokenName, Value: "good"})
	query := httptest.NewRequest(http.MethodGet, "/users/u1?access_token=good", nil)

	for name, req := range map[string]*http.Request{"header": header, "cookie": cookie, "query": query} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, name)
		body := decodeBody(t, rec)
		assert.Equal(t, "u1", body["user"], name)
		assert.Equal(t, "u1", body["logUser"], name)
	}
}

func TestJWTRejectsMissingAndInvalidTokens(t *testing.T) {
	r := newTestRouter(JWT(stubTokens{}))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/u1", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), response.ProblemContentType)

	req := httptest.NewRequest(http.MethodGet, "/users/u1", nil)
	req.Header.Set("Authorization", "Basic abc")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/users/u1", nil)
	req.Header.Set("Authorization", "Bearer expired")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid token", decodeBody(t, rec)["detail"])
}

func TestOptionalJWT(t *testing.T) {
	r := newTestRouter(OptionalJWT(stubTokens{"good": {UserID: "u1"}}))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/u1?access_token=bad", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "", decodeBody(t, rec)["user"])
}

func TestRequirePrivilegedAndElevated(t *testing.T) {
	tokens := stubTokens{
		"plain":    {UserID: "u1"},
		"priv":     {UserID: "u1", Privileged: true},
		"elevated": {UserID: "u1", Privileged: true, Elevated: true},
	}
	privileged := newTestRouter(JWT(tokens), RequirePrivileged())
	elevated := newTestRouter(JWT(tokens), RequireElevated())

	cases := []struct {
		router *gin.Engine
		token  string
		status int
	}{
		{privileged, "plain", http.StatusForbidden},
		{privileged, "priv", http.StatusOK},
		{elevated, "priv", http.StatusForbidden},
		{elevated, "elevated", http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/users/u1", nil)
		req.Header.Set("Authorization", "Bearer "+tc.token)
		rec := httptest.NewRecorder()
		tc.router.ServeHTTP(rec, req)
		assert.Equal(t, tc.status, rec.Code, tc.token)
	}
}

func TestRBAC(t *testing.T) {
	tokens := stubTokens{
		"admin": {UserID: "a1", Roles: []string{models.RoleSuperAdmin}},
		"basic": {UserID: "u1", Roles: []string{models.RoleBasicUser}},
	}
	r := newTestRouter(JWT(tokens), RBAC(models.RoleSuperAdmin, "SELF"))

	call := func(token, path string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}
	assert.Equal(t, http.StatusOK, call("admin", "/users/u1"))
	assert.Equal(t, http.StatusOK, call("basic", "/users/u1"))
	assert.Equal(t, http.StatusForbidden, call("basic", "/users/u2"))
}

func TestAuditRecordsSuccessfulRequests(t *testing.T) {
	store := &stubAuditLog{}
	r := newTestRouter(JWT(stubTokens{"good": {UserID: "u1"}}), Audit(store, models.AuditActionPayment, "payment"))

	req := httptest.NewRequest(http.MethodGet, "/users/u1", nil)
	req.Header.Set("Authorization", "Bearer good")
	r.ServeHTTP(httptest.NewRecorder(), req)

	require.Len(t, store.logs, 1)
	assert.Equal(t, models.AuditActionPayment, store.logs[0].Action)
	require.NotNil(t, store.logs[0].UserID)
	assert.Equal(t, "u1", *store.logs[0].UserID)
}

func TestCacheControl(t *testing.T) {
	r := newTestRouter(CacheControl(5*time.Minute, 7*24*time.Hour))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/u1", nil))
	assert.Equal(t, "public, max-age=300, s-maxage=604800", rec.Header().Get("Cache-Control"))
}

func TestRecoveryWritesProblem(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Recovery(nil))
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, appErrors.ErrInternal.Code, body["key"])
}

func TestMetricsLabelsByRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	r := gin.New()
	r.Use(Metrics(metrics, "/health"))
	r.GET("/users/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, target := range []string{"/users/u1", "/users/u2", "/health", "/wp-login.php"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, target, nil))
	}
	assert.EqualValues(t, 3, metrics.Snapshot().RequestsTotal)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	scraped := rec.Body.String()
	assert.Contains(t, scraped, `http_requests_total{method="GET",path="/users/:id",status="200"} 2`)
	assert.Contains(t, scraped, `http_requests_total{method="GET",path="unmatched",status="404"} 1`)
	assert.NotContains(t, scraped, "wp-login")
	assert.NotContains(t, scraped, `path="/health"`)
}
