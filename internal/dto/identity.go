package dto

import (
	"encoding/json"
	"strings"
)

// IdentityRequest identifies an account by user name, email or phone number.
type IdentityRequest struct {
	UserName    string `json:"userName,omitempty" validate:"omitempty,max=256"`
	Email       string `json:"email,omitempty" validate:"omitempty,email,max=256"`
	PhoneNumber string `json:"phoneNumber,omitempty" validate:"omitempty,max=32"`
}

// Empty reports whether none of the identifiers were supplied.
func (r IdentityRequest) Empty() bool {
	return strings.TrimSpace(r.UserName) == "" && strings.TrimSpace(r.Email) == "" && strings.TrimSpace(r.PhoneNumber) == ""
}

// SignUpRequest registers a new account.
type SignUpRequest struct {
	UserName    string `json:"userName,omitempty" validate:"omitempty,max=256"`
	Email       string `json:"email,omitempty" validate:"omitempty,email,max=256"`
	PhoneNumber string `json:"phoneNumber,omitempty" validate:"omitempty,max=32"`
	Password    string `json:"password" validate:"required"`
	ReturnURL   string `json:"returnUrl,omitempty"`
}

// SendEmailTokenRequest asks for a new email confirmation token.
type SendEmailTokenRequest struct {
	Email     string `json:"email" validate:"required,email"`
	ReturnURL string `json:"returnUrl,omitempty"`
}

// ConfirmEmailRequest consumes an email confirmation token.
type ConfirmEmailRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Token      string `json:"token" validate:"required,len=6,number"`
	DeviceInfo string `json:"deviceInfo,omitempty"`
}

// SendPhoneTokenRequest asks for a new phone confirmation token.
type SendPhoneTokenRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required"`
}

// ConfirmPhoneRequest consumes a phone confirmation token.
type ConfirmPhoneRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required"`
	Token       string `json:"token" validate:"required,len=6,number"`
	DeviceInfo  string `json:"deviceInfo,omitempty"`
}

// SendResetPasswordTokenRequest starts the forgot password flow.
type SendResetPasswordTokenRequest struct {
	Email       string `json:"email,omitempty" validate:"omitempty,email"`
	PhoneNumber string `json:"phoneNumber,omitempty" validate:"omitempty,max=32"`
	ReturnURL   string `json:"returnUrl,omitempty"`
}

// ResetPasswordRequest sets a new password with a reset token.
type ResetPasswordRequest struct {
	Email       string `json:"email,omitempty" validate:"omitempty,email"`
	PhoneNumber string `json:"phoneNumber,omitempty" validate:"omitempty,max=32"`
	Token       string `json:"token" validate:"required,len=6,number"`
	Password    string `json:"password" validate:"required"`
}

// SignInRequest authenticates with a password or an OTP, optionally with a two factor code.
type SignInRequest struct {
	IdentityRequest
	Password      string `json:"password,omitempty"`
	Otp           string `json:"otp,omitempty" validate:"omitempty,len=6,number"`
	TwoFactorCode string `json:"twoFactorCode,omitempty" validate:"omitempty,max=16"`
	DeviceInfo    string `json:"deviceInfo,omitempty" validate:"omitempty,max=512"`
}

// SendOtpRequest asks for a one-time sign-in code.
type SendOtpRequest struct {
	IdentityRequest
}

// RefreshRequest exchanges a refresh token for a new token pair.
type RefreshRequest struct {
	RefreshToken        string `json:"refreshToken" validate:"required"`
	ElevatedAccessToken string `json:"elevatedAccessToken,omitempty" validate:"omitempty,len=6,number"`
	DeviceInfo          string `json:"deviceInfo,omitempty" validate:"omitempty,max=512"`
}

// TokenResponse is the bearer token pair.
type TokenResponse struct {
	TokenType    string `json:"tokenType"`
	AccessToken  string `json:"accessToken"`
	ExpiresIn    int64  `json:"expiresIn"`
	RefreshToken string `json:"refreshToken"`
}

// SignInResponse carries tokens, or RequiresTwoFactor when a second factor must be supplied.
type SignInResponse struct {
	TokenResponse
	RequiresTwoFactor bool `json:"requiresTwoFactor"`
}

// WebAuthnAssertionOptionsRequest restricts the assertion to the credentials of the given users.
type WebAuthnAssertionOptionsRequest struct {
	UserIDs []string `json:"userIds" validate:"omitempty,dive,uuid"`
}

// WebAuthnSignInRequest carries an authenticator assertion plus an optional two factor code.
type WebAuthnSignInRequest struct {
	ClientResponse json.RawMessage `json:"clientResponse" swaggertype:"object" validate:"required"`
	TfaCode        string          `json:"tfaCode,omitempty"`
	DeviceInfo     string          `json:"deviceInfo,omitempty" validate:"omitempty,max=512"`
}

// WebAuthnAssertionResult identifies the account and authenticator of a verified assertion.
type WebAuthnAssertionResult struct {
	UserID       string `json:"userId"`
	CredentialID string `json:"credentialId"`
}
