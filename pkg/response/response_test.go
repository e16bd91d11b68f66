package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/lob-api/pkg/errors"
)

func TestErrorWritesProblemDetails(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/Identity/SendOtp", nil)

	Error(c, appErrors.Clone(appErrors.ErrTooManyRequests, "wait before requesting a new code").WithExtension("tryAgainIn", "00:01:30"))

	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), ProblemContentType)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "TOO_MANY_REQUESTS", body["key"])
	assert.Equal(t, "00:01:30", body["tryAgainIn"])
	assert.Equal(t, "Too Many Requests", body["title"])
	assert.Equal(t, "POST /api/Identity/SendOtp", body["instance"])
}

func TestErrorHidesInternalDetail(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	Error(c, assert.AnError)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, appErrors.ErrInternal.Message, body["detail"])
}

func TestErrorIncludesFieldErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/Payment/Process", nil)

	Error(c, appErrors.Clone(appErrors.ErrResourceValidation, "").WithField("cardNumber", "Card number must be 16 digits"))

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var body Problem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []string{"Card number must be 16 digits"}, body.Errors["cardNumber"])
}
