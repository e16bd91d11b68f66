package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lob-api/internal/dto"
	"github.com/noah-isme/lob-api/internal/service"
	appErrors "github.com/noah-isme/lob-api/pkg/errors"
)

type identityServiceMock struct {
	identityService
	signInResp *dto.SignInResponse
	err        error
	gotClient  service.ClientInfo
	gotReturn  string
}

func (m *identityServiceMock) SignIn(_ context.Context, _ dto.SignInRequest, client service.ClientInfo) (*dto.SignInResponse, error) {
	m.gotClient = client
	return m.signInResp, m.err
}

func (m *identityServiceMock) SendOtp(_ context.Context, _ dto.SendOtpRequest, returnURL string) error {
	m.gotReturn = returnURL
	return m.err
}

func jsonRequest(t *testing.T, method, target string, payload interface{}) *http.Request {
	t.Helper()
	var body []byte
	switch v := payload.(type) {
	case string:
		body = []byte(v)
	default:
		var err error
		body, err = json.Marshal(v)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestIdentityHandlerSignInRequiresTwoFactor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &identityServiceMock{signInResp: &dto.SignInResponse{RequiresTwoFactor: true}}
	handler := NewIdentityHandler(mock)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(t, http.MethodPost, "/api/Identity/SignIn", dto.SignInRequest{
		IdentityRequest: dto.IdentityRequest{UserName: "alice"},
		Password:        "secret",
	})
	c.Request.Header.Set("cf-ipcountry", "NL")
	c.Request.Header.Set("cf-ipcity", "Amsterdam")

	handler.SignIn(c)
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeJSON(t, w)["data"].(map[string]interface{})
	assert.Equal(t, true, data["requiresTwoFactor"])
	assert.Equal(t, "NL, Amsterdam", mock.gotClient.Address())
}

func TestIdentityHandlerSignInInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewIdentityHandler(&identityServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(t, http.MethodPost, "/api/Identity/SignIn", "invalid")

	handler.SignIn(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, appErrors.ErrValidation.Code, decodeJSON(t, w)["key"])
}

func TestIdentityHandlerSendOtpTooManyRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &identityServiceMock{err: appErrors.Clone(appErrors.ErrTooManyRequests, "wait").WithExtension("tryAgainIn", "00:01:30")}
	handler := NewIdentityHandler(mock)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(t, http.MethodPost, "/api/Identity/SendOtp?returnUrl=/settings", dto.SendOtpRequest{
		IdentityRequest: dto.IdentityRequest{Email: "alice@lob.local"},
	})

	handler.SendOtp(c)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	body := decodeJSON(t, w)
	assert.Equal(t, "00:01:30", body["tryAgainIn"])
	assert.Equal(t, "/settings", mock.gotReturn)
}

func TestIdentityHandlerSignInUnauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewIdentityHandler(&identityServiceMock{err: appErrors.Clone(appErrors.ErrInvalidCredentials, "")})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(t, http.MethodPost, "/api/Identity/SignIn", dto.SignInRequest{Password: "x"})

	handler.SignIn(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
