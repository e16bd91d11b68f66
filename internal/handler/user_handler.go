package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-webauthn/webauthn/protocol"

	"github.com/noah-isme/lob-api/internal/dto"
	"github.com/noah-isme/lob-api/internal/models"
	"github.com/noah-isme/lob-api/internal/service"
	appErrors "github.com/noah-isme/lob-api/pkg/errors"
	"github.com/noah-isme/lob-api/pkg/response"
)

type userService interface {
	GetCurrentUser(ctx context.Context, claims *models.JWTClaims) (*dto.UserResponse, error)
	Update(ctx context.Context, claims *models.JWTClaims, req dto.EditUserRequest, client service.ClientInfo) (*dto.UserResponse, error)
	GetUserSessions(ctx context.Context, claims *models.JWTClaims) ([]dto.UserSessionResponse, error)
	RevokeSession(ctx context.Context, claims *models.JWTClaims, sessionID string, client service.ClientInfo) error
	SignOut(ctx context.Context, claims *models.JWTClaims, client service.ClientInfo) error
	ChangePassword(ctx context.Context, claims *models.JWTClaims, req dto.ChangePasswordRequest, client service.ClientInfo) error
	SendElevatedAccessToken(ctx context.Context, claims *models.JWTClaims) error
	TwoFactorAuth(ctx context.Context, claims *models.JWTClaims, req dto.TwoFactorAuthRequest, client service.ClientInfo) (*dto.TwoFactorAuthResponse, error)
	Delete(ctx context.Context, claims *models.JWTClaims, client service.ClientInfo) error
	DownloadPersonalData(ctx context.Context, claims *models.JWTClaims) ([]byte, error)
	GetWebAuthnCredentialOptions(ctx context.Context, claims *models.JWTClaims) (*protocol.CredentialCreation, error)
	CreateWebAuthnCredential(ctx context.Context, claims *models.JWTClaims, body []byte, client service.ClientInfo) (*dto.WebAuthnCredentialResponse, error)
	ListWebAuthnCredentials(ctx context.Context, claims *models.JWTClaims) ([]dto.WebAuthnCredentialResponse, error)
	DeleteWebAuthnCredential(ctx context.Context, claims *models.JWTClaims, id string) error
	DeleteAllWebAuthnCredentials(ctx context.Context, claims *models.JWTClaims) error
	SubscribePush(ctx context.Context, claims *models.JWTClaims, req dto.PushSubscriptionRequest, userAgent string) error
	UnsubscribePush(ctx context.Context, claims *models.JWTClaims, req dto.UnsubscribePushRequest) error
}

// UserHandler serves the signed-in account endpoints under /api/User.
type UserHandler struct {
	service userService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(svc userService) *UserHandler {
	return &UserHandler{service: svc}
}

// GetCurrentUser godoc
// @Summary Current user profile
// @Tags User
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope{data=dto.UserResponse}
// @Failure 401 {object} response.Problem
// @Router /api/User/GetCurrentUser [get]
func (h *UserHandler) GetCurrentUser(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	user, err := h.service.GetCurrentUser(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user)
}

// Update godoc
// @Summary Update profile fields
// @Tags User
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.EditUserRequest true "Profile"
// @Success 200 {object} response.Envelope{data=dto.UserResponse}
// @Failure 403 {object} response.Problem
// @Failure 422 {object} response.Problem
// @Router /api/User/Update [put]
func (h *UserHandler) Update(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req dto.EditUserRequest
	if !bindJSON(c, &req, "invalid profile payload") {
		return
	}
	user, err := h.service.Update(c.Request.Context(), claims, req, clientInfo(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user)
}

// GetUserSessions godoc
// @Summary List sessions, newest activity first
// @Tags User
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope{data=[]dto.UserSessionResponse}
// @Router /api/User/GetUserSessions [get]
func (h *UserHandler) GetUserSessions(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	sessions, err := h.service.GetUserSessions(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions)
}

// RevokeSession godoc
// @Summary Revoke another session
// @Tags User
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 204
// @Failure 400 {object} response.Problem
// @Failure 404 {object} response.Problem
// @Router /api/User/RevokeSession/{id} [post]
func (h *UserHandler) RevokeSession(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	sessionID, ok := uuidParam(c, "id", appErrors.Clone(appErrors.ErrNotFound, "user session not found"))
	if !ok {
		return
	}
	if err := h.service.RevokeSession(c.Request.Context(), claims, sessionID, clientInfo(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// SignOut godoc
// @Summary End the current session
// @Tags User
// @Security BearerAuth
// @Success 204
// @Router /api/User/SignOut [post]
func (h *UserHandler) SignOut(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	if err := h.service.SignOut(c.Request.Context(), claims, clientInfo(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ChangePassword godoc
// @Summary Change the password
// @Tags User
// @Accept json
// @Security BearerAuth
// @Param payload body dto.ChangePasswordRequest true "Passwords"
// @Success 204
// @Failure 422 {object} response.Problem
// @Router /api/User/ChangePassword [post]
func (h *UserHandler) ChangePassword(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req dto.ChangePasswordRequest
	if !bindJSON(c, &req, "invalid password payload") {
		return
	}
	if err := h.service.ChangePassword(c.Request.Context(), claims, req, clientInfo(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// SendElevatedAccessToken godoc
// @Summary Send a code that elevates the current session
// @Tags User
// @Security BearerAuth
// @Success 204
// @Failure 429 {object} response.Problem
// @Router /api/User/SendElevatedAccessToken [post]
func (h *UserHandler) SendElevatedAccessToken(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	if err := h.service.SendElevatedAccessToken(c.Request.Context(), claims); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// TwoFactorAuth godoc
// @Summary Read or change authenticator app settings
// @Tags User
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.TwoFactorAuthRequest true "Two factor settings"
// @Success 200 {object} response.Envelope{data=dto.TwoFactorAuthResponse}
// @Failure 400 {object} response.Problem
// @Failure 403 {object} response.Problem
// @Router /api/User/TwoFactorAuth [post]
func (h *UserHandler) TwoFactorAuth(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req dto.TwoFactorAuthRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req, "invalid two factor payload") {
		return
	}
	res, err := h.service.TwoFactorAuth(c.Request.Context(), claims, req, clientInfo(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}

// Delete godoc
// @Summary Delete the account
// @Tags User
// @Security BearerAuth
// @Success 204
// @Failure 403 {object} response.Problem
// @Router /api/User/Delete [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), claims, clientInfo(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// DownloadPersonalData godoc
// @Summary Export the stored personal data as CSV
// @Tags User
// @Produce text/csv
// @Security BearerAuth
// @Success 200 {file} file
// @Router /api/User/DownloadPersonalData [get]
func (h *UserHandler) DownloadPersonalData(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	data, err := h.service.DownloadPersonalData(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="personal-data.csv"`)
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

// GetWebAuthnCredentialOptions godoc
// @Summary Start registering a WebAuthn authenticator
// @Tags User
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /api/User/GetWebAuthnCredentialOptions [get]
func (h *UserHandler) GetWebAuthnCredentialOptions(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	options, err := h.service.GetWebAuthnCredentialOptions(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, options)
}

// CreateWebAuthnCredential godoc
// @Summary Finish registering a WebAuthn authenticator
// @Tags User
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body object true "Attestation response"
// @Success 201 {object} response.Envelope{data=dto.WebAuthnCredentialResponse}
// @Failure 400 {object} response.Problem
// @Router /api/User/CreateWebAuthnCredential [put]
func (h *UserHandler) CreateWebAuthnCredential(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil || len(body) == 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "attestation is required"))
		return
	}
	credential, err := h.service.CreateWebAuthnCredential(c.Request.Context(), claims, body, clientInfo(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, credential)
}

// ListWebAuthnCredentials godoc
// @Summary List registered WebAuthn authenticators
// @Tags User
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope{data=[]dto.WebAuthnCredentialResponse}
// @Router /api/User/ListWebAuthnCredentials [get]
func (h *UserHandler) ListWebAuthnCredentials(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	credentials, err := h.service.ListWebAuthnCredentials(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, credentials)
}

// DeleteWebAuthnCredential godoc
// @Summary Remove one WebAuthn authenticator
// @Tags User
// @Security BearerAuth
// @Param id path string true "Credential ID (base64url)"
// @Success 204
// @Failure 404 {object} response.Problem
// @Router /api/User/DeleteWebAuthnCredential/{id} [delete]
func (h *UserHandler) DeleteWebAuthnCredential(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	if err := h.service.DeleteWebAuthnCredential(c.Request.Context(), claims, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// DeleteAllWebAuthnCredentials godoc
// @Summary Remove every WebAuthn authenticator
// @Tags User
// @Security BearerAuth
// @Success 204
// @Router /api/User/DeleteAllWebAuthnCredentials [delete]
func (h *UserHandler) DeleteAllWebAuthnCredentials(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	if err := h.service.DeleteAllWebAuthnCredentials(c.Request.Context(), claims); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// SubscribePush godoc
// @Summary Register a browser push subscription
// @Tags User
// @Accept json
// @Security BearerAuth
// @Param payload body dto.PushSubscriptionRequest true "Subscription"
// @Success 204
// @Failure 422 {object} response.Problem
// @Router /api/User/SubscribePush [post]
func (h *UserHandler) SubscribePush(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req dto.PushSubscriptionRequest
	if !bindJSON(c, &req, "invalid subscription payload") {
		return
	}
	if err := h.service.SubscribePush(c.Request.Context(), claims, req, c.GetHeader("User-Agent")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// UnsubscribePush godoc
// @Summary Remove a browser push subscription
// @Tags User
// @Accept json
// @Security BearerAuth
// @Param payload body dto.UnsubscribePushRequest true "Endpoint"
// @Success 204
// @Router /api/User/UnsubscribePush [post]
func (h *UserHandler) UnsubscribePush(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req dto.UnsubscribePushRequest
	if !bindJSON(c, &req, "invalid subscription payload") {
		return
	}
	if err := h.service.UnsubscribePush(c.Request.Context(), claims, req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
