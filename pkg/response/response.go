package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/lob-api/pkg/errors"
	"github.com/noah-isme/lob-api/pkg/middleware/requestid"
)

// ProblemContentType is the media type of error documents.
const ProblemContentType = "application/problem+json"

// Envelope represents the common success response contract.
type Envelope struct {
	Data interface{}            `json:"data,omitempty"`
	Meta map[string]interface{} `json:"meta,omitempty"`
}

// Problem documents the error response shape for swagger. The actual payload also carries
// any extension members (for example tryAgainIn) at the top level.
type Problem struct {
	Type     string              `json:"type"`
	Title    string              `json:"title"`
	Status   int                 `json:"status"`
	Detail   string              `json:"detail,omitempty"`
	Instance string              `json:"instance,omitempty"`
	Key      string              `json:"key"`
	TraceID  string              `json:"traceId,omitempty"`
	Errors   map[string][]string `json:"errors,omitempty"`
}

var problemTypes = map[int]string{
	http.StatusBadRequest:            "https://tools.ietf.org/html/rfc9110#section-15.5.1",
	http.StatusUnauthorized:          "https://tools.ietf.org/html/rfc9110#section-15.5.2",
	http.StatusForbidden:             "https://tools.ietf.org/html/rfc9110#section-15.5.4",
	http.StatusNotFound:              "https://tools.ietf.org/html/rfc9110#section-15.5.5",
	http.StatusConflict:              "https://tools.ietf.org/html/rfc9110#section-15.5.10",
	http.StatusRequestEntityTooLarge: "https://tools.ietf.org/html/rfc9110#section-15.5.14",
	http.StatusUnprocessableEntity:   "https://tools.ietf.org/html/rfc9110#section-15.5.21",
	http.StatusTooManyRequests:       "https://tools.ietf.org/html/rfc6585#section-4",
	http.StatusInternalServerError:   "https://tools.ietf.org/html/rfc9110#section-15.6.1",
	http.StatusServiceUnavailable:    "https://tools.ietf.org/html/rfc9110#section-15.6.4",
}

// JSON sends a success response with optional metadata.
func JSON(c *gin.Context, status int, data interface{}, meta ...map[string]interface{}) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	envelope := Envelope{Data: data}
	if len(meta) > 0 && meta[0] != nil {
		envelope.Meta = meta[0]
	}
	c.JSON(status, envelope)
}

// Cached sends a success response without overriding cache headers set by the caller.
func Cached(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Data: data})
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, data interface{}) {
	JSON(c, http.StatusCreated, data)
}

// Error converts the error into a problem-details document.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.Render(appErr.Status, problemRender{body: BuildProblem(c, appErr)})
}

// BuildProblem flattens an application error into the problem-details member set.
func BuildProblem(c *gin.Context, appErr *appErrors.Error) map[string]interface{} {
	status := appErr.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}
	problemType, ok := problemTypes[status]
	if !ok {
		problemType = "about:blank"
	}

	detail := appErr.Message
	if status >= http.StatusInternalServerError {
		detail = appErrors.ErrInternal.Message
		if status == http.StatusServiceUnavailable {
			detail = appErr.Message
		}
	}

	body := make(map[string]interface{}, 8+len(appErr.Extensions))
	for k, v := range appErr.Extensions {
		body[k] = v
	}
	body["type"] = problemType
	body["title"] = http.StatusText(status)
	body["status"] = status
	body["detail"] = detail
	body["key"] = appErr.Code
	if c != nil && c.Request != nil {
		body["instance"] = c.Request.Method + " " + c.Request.URL.Path
	}
	if c != nil {
		if traceID := requestid.Value(c); traceID != "" {
			body["traceId"] = traceID
		}
	}
	if len(appErr.Fields) > 0 {
		body["errors"] = appErr.Fields
	}
	return body
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
