package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-webauthn/webauthn/protocol"

	"github.com/noah-isme/lob-api/internal/dto"
	"github.com/noah-isme/lob-api/internal/service"
	appErrors "github.com/noah-isme/lob-api/pkg/errors"
	"github.com/noah-isme/lob-api/pkg/response"
)

const closeBrowserPage = `<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Signed in</title></head>
<body><p>You can close this window and return to the app.</p><script>window.close();</script></body></html>`

type identityService interface {
	SignUp(ctx context.Context, req dto.SignUpRequest, client service.ClientInfo) error
	SendConfirmEmailToken(ctx context.Context, req dto.SendEmailTokenRequest) error
	ConfirmEmail(ctx context.Context, req dto.ConfirmEmailRequest, client service.ClientInfo) (*dto.SignInResponse, error)
	SendConfirmPhoneToken(ctx context.Context, req dto.SendPhoneTokenRequest) error
	ConfirmPhone(ctx context.Context, req dto.ConfirmPhoneRequest, client service.ClientInfo) (*dto.SignInResponse, error)
	SendResetPasswordToken(ctx context.Context, req dto.SendResetPasswordTokenRequest) error
	ResetPassword(ctx context.Context, req dto.ResetPasswordRequest, client service.ClientInfo) error
	SignIn(ctx context.Context, req dto.SignInRequest, client service.ClientInfo) (*dto.SignInResponse, error)
	Refresh(ctx context.Context, req dto.RefreshRequest, client service.ClientInfo) (*dto.TokenResponse, error)
	SendOtp(ctx context.Context, req dto.SendOtpRequest, returnURL string) error
	SendTwoFactorToken(ctx context.Context, req dto.SignInRequest) error
	GetWebAuthnAssertionOptions(ctx context.Context, req dto.WebAuthnAssertionOptionsRequest) (*protocol.CredentialAssertion, error)
	VerifyWebAuthAssertion(ctx context.Context, clientResponse json.RawMessage) (*dto.WebAuthnAssertionResult, error)
	VerifyWebAuthAndSignIn(ctx context.Context, req dto.WebAuthnSignInRequest, client service.ClientInfo) (*dto.SignInResponse, error)
	VerifyWebAuthAndSendTwoFactorToken(ctx context.Context, req dto.WebAuthnSignInRequest) error
}

// IdentityHandler exposes the anonymous account endpoints under /api/Identity.
type IdentityHandler struct {
	service identityService
}

// NewIdentityHandler creates a new handler.
func NewIdentityHandler(svc identityService) *IdentityHandler {
	return &IdentityHandler{service: svc}
}

// SignUp godoc
// @Summary Register a new account
// @Description Creates the user and sends email and/or phone confirmation tokens
// @Tags Identity
// @Accept json
// @Produce json
// @Param payload body dto.SignUpRequest true "Sign up payload"
// @Success 204
// @Failure 400 {object} response.Problem
// @Failure 422 {object} response.Problem
// @Router /api/Identity/SignUp [post]
func (h *IdentityHandler) SignUp(c *gin.Context) {
	var req dto.SignUpRequest
	if !bindJSON(c, &req, "invalid sign up payload") {
		return
	}
	if err := h.service.SignUp(c.Request.Context(), req, clientInfo(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// SendConfirmEmailToken godoc
// @Summary Resend the email confirmation token
// @Tags Identity
// @Accept json
// @Param payload body dto.SendEmailTokenRequest true "Email"
// @Success 204
// @Failure 400 {object} response.Problem
// @Failure 404 {object} response.Problem
// @Failure 429 {object} response.Problem
// @Router /api/Identity/SendConfirmEmailToken [post]
func (h *IdentityHandler) SendConfirmEmailToken(c *gin.Context) {
	var req dto.SendEmailTokenRequest
	if !bindJSON(c, &req, "invalid email payload") {
		return
	}
	if err := h.service.SendConfirmEmailToken(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ConfirmEmail godoc
// @Summary Confirm the email address and sign in
// @Tags Identity
// @Accept json
// @Produce json
// @Param payload body dto.ConfirmEmailRequest true "Email and token"
// @Success 200 {object} response.Envelope{data=dto.SignInResponse}
// @Failure 400 {object} response.Problem
// @Failure 404 {object} response.Problem
// @Router /api/Identity/ConfirmEmail [post]
func (h *IdentityHandler) ConfirmEmail(c *gin.Context) {
	var req dto.ConfirmEmailRequest
	if !bindJSON(c, &req, "invalid confirmation payload") {
		return
	}
	res, err := h.service.ConfirmEmail(c.Request.Context(), req, clientInfo(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}

// SendConfirmPhoneToken godoc
// @Summary Resend the phone confirmation token
// @Tags Identity
// @Accept json
// @Param payload body dto.SendPhoneTokenRequest true "Phone number"
// @Success 204
// @Failure 400 {object} response.Problem
// @Failure 404 {object} response.Problem
// @Failure 429 {object} response.Problem
// @Router /api/Identity/SendConfirmPhoneToken [post]
func (h *IdentityHandler) SendConfirmPhoneToken(c *gin.Context) {
	var req dto.SendPhoneTokenRequest
	if !bindJSON(c, &req, "invalid phone payload") {
		return
	}
	if err := h.service.SendConfirmPhoneToken(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ConfirmPhone godoc
// @Summary Confirm the phone number and sign in
// @Tags Identity
// @Accept json
// @Produce json
// @Param payload body dto.ConfirmPhoneRequest true "Phone number and token"
// @Success 200 {object} response.Envelope{data=dto.SignInResponse}
// @Failure 400 {object} response.Problem
// @Failure 404 {object} response.Problem
// @Router /api/Identity/ConfirmPhone [post]
func (h *IdentityHandler) ConfirmPhone(c *gin.Context) {
	var req dto.ConfirmPhoneRequest
	if !bindJSON(c, &req, "invalid confirmation payload") {
		return
	}
	res, err := h.service.ConfirmPhone(c.Request.Context(), req, clientInfo(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}

// SendResetPasswordToken godoc
// @Summary Send a password reset token by email and SMS
// @Tags Identity
// @Accept json
// @Param payload body dto.SendResetPasswordTokenRequest true "Email or phone"
// @Success 204
// @Failure 400 {object} response.Problem
// @Failure 404 {object} response.Problem
// @Failure 429 {object} response.Problem
// @Router /api/Identity/SendResetPasswordToken [post]
func (h *IdentityHandler) SendResetPasswordToken(c *gin.Context) {
	var req dto.SendResetPasswordTokenRequest
	if !bindJSON(c, &req, "invalid reset payload") {
		return
	}
	if err := h.service.SendResetPasswordToken(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ResetPassword godoc
// @Summary Set a new password with a reset token
// @Tags Identity
// @Accept json
// @Param payload body dto.ResetPasswordRequest true "Reset payload"
// @Success 204
// @Failure 400 {object} response.Problem
// @Failure 404 {object} response.Problem
// @Router /api/Identity/ResetPassword [post]
func (h *IdentityHandler) ResetPassword(c *gin.Context) {
	var req dto.ResetPasswordRequest
	if !bindJSON(c, &req, "invalid reset payload") {
		return
	}
	if err := h.service.ResetPassword(c.Request.Context(), req, clientInfo(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// SignIn godoc
// @Summary Sign in with a password or a one-time code
// @Description Returns requiresTwoFactor when a second factor is needed and none was supplied
// @Tags Identity
// @Accept json
// @Produce json
// @Param payload body dto.SignInRequest true "Credentials"
// @Success 200 {object} response.Envelope{data=dto.SignInResponse}
// @Failure 400 {object} response.Problem
// @Failure 401 {object} response.Problem
// @Router /api/Identity/SignIn [post]
func (h *IdentityHandler) SignIn(c *gin.Context) {
	var req dto.SignInRequest
	if !bindJSON(c, &req, "invalid sign in payload") {
		return
	}
	res, err := h.service.SignIn(c.Request.Context(), req, clientInfo(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}

// Refresh godoc
// @Summary Rotate the token pair
// @Tags Identity
// @Accept json
// @Produce json
// @Param payload body dto.RefreshRequest true "Refresh token"
// @Success 200 {object} response.Envelope{data=dto.TokenResponse}
// @Failure 400 {object} response.Problem
// @Failure 401 {object} response.Problem
// @Router /api/Identity/Refresh [post]
func (h *IdentityHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if !bindJSON(c, &req, "invalid refresh payload") {
		return
	}
	res, err := h.service.Refresh(c.Request.Context(), req, clientInfo(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}

// SendOtp godoc
// @Summary Send a one-time sign-in code
// @Tags Identity
// @Accept json
// @Param payload body dto.SendOtpRequest true "Identity"
// @Param returnUrl query string false "Page to open after signing in"
// @Success 204
// @Failure 400 {object} response.Problem
// @Failure 404 {object} response.Problem
// @Failure 429 {object} response.Problem
// @Router /api/Identity/SendOtp [post]
func (h *IdentityHandler) SendOtp(c *gin.Context) {
	var req dto.SendOtpRequest
	if !bindJSON(c, &req, "invalid otp payload") {
		return
	}
	if err := h.service.SendOtp(c.Request.Context(), req, c.Query("returnUrl")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// SendTwoFactorToken godoc
// @Summary Send a two factor code through the channels not used for the first step
// @Tags Identity
// @Accept json
// @Param payload body dto.SignInRequest true "First step credentials"
// @Success 204
// @Failure 400 {object} response.Problem
// @Failure 404 {object} response.Problem
// @Failure 429 {object} response.Problem
// @Router /api/Identity/SendTwoFactorToken [post]
func (h *IdentityHandler) SendTwoFactorToken(c *gin.Context) {
	var req dto.SignInRequest
	if !bindJSON(c, &req, "invalid sign in payload") {
		return
	}
	if err := h.service.SendTwoFactorToken(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// GetWebAuthnAssertionOptions godoc
// @Summary Start a WebAuthn assertion ceremony
// @Tags Identity
// @Accept json
// @Produce json
// @Param payload body dto.WebAuthnAssertionOptionsRequest false "Allowed users"
// @Success 200 {object} response.Envelope
// @Router /api/Identity/GetWebAuthnAssertionOptions [post]
func (h *IdentityHandler) GetWebAuthnAssertionOptions(c *gin.Context) {
	var req dto.WebAuthnAssertionOptionsRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req, "invalid assertion options payload") {
		return
	}
	res, err := h.service.GetWebAuthnAssertionOptions(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}

// VerifyWebAuthAssertion godoc
// @Summary Verify a WebAuthn assertion without signing in
// @Tags Identity
// @Accept json
// @Produce json
// @Param payload body object true "Authenticator assertion"
// @Success 200 {object} response.Envelope{data=dto.WebAuthnAssertionResult}
// @Failure 400 {object} response.Problem
// @Router /api/Identity/VerifyWebAuthAssertion [post]
func (h *IdentityHandler) VerifyWebAuthAssertion(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil || len(body) == 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "assertion is required"))
		return
	}
	res, err := h.service.VerifyWebAuthAssertion(c.Request.Context(), body)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}

// VerifyWebAuthAndSignIn godoc
// @Summary Sign in with a WebAuthn assertion
// @Tags Identity
// @Accept json
// @Produce json
// @Param payload body dto.WebAuthnSignInRequest true "Assertion and optional two factor code"
// @Success 200 {object} response.Envelope{data=dto.SignInResponse}
// @Failure 400 {object} response.Problem
// @Failure 401 {object} response.Problem
// @Router /api/Identity/VerifyWebAuthAndSignIn [post]
func (h *IdentityHandler) VerifyWebAuthAndSignIn(c *gin.Context) {
	var req dto.WebAuthnSignInRequest
	if !bindJSON(c, &req, "invalid assertion payload") {
		return
	}
	res, err := h.service.VerifyWebAuthAndSignIn(c.Request.Context(), req, clientInfo(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}

// VerifyWebAuthAndSendTwoFactorToken godoc
// @Summary Send a two factor code after a WebAuthn first step
// @Tags Identity
// @Accept json
// @Param payload body dto.WebAuthnSignInRequest true "Assertion"
// @Success 204
// @Failure 400 {object} response.Problem
// @Failure 429 {object} response.Problem
// @Router /api/Identity/VerifyWebAuthAndSendTwoFactorToken [post]
func (h *IdentityHandler) VerifyWebAuthAndSendTwoFactorToken(c *gin.Context) {
	var req dto.WebAuthnSignInRequest
	if !bindJSON(c, &req, "invalid assertion payload") {
		return
	}
	if err := h.service.VerifyWebAuthAndSendTwoFactorToken(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// CloseBrowserPage godoc
// @Summary Page shown at the end of an external browser sign-in
// @Tags Identity
// @Produce html
// @Success 200 {string} string
// @Router /api/Identity/CloseBrowserPage [get]
func (h *IdentityHandler) CloseBrowserPage(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(closeBrowserPage))
}
