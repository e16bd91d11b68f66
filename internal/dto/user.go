package dto

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/lob-api/internal/models"
)

// UserResponse is the public view of the current user.
type UserResponse struct {
	ID                   string         `json:"id"`
	UserName             string         `json:"userName"`
	Email                string         `json:"email,omitempty"`
	PhoneNumber          string         `json:"phoneNumber,omitempty"`
	EmailConfirmed       bool           `json:"emailConfirmed"`
	PhoneNumberConfirmed bool           `json:"phoneNumberConfirmed"`
	FullName             string         `json:"fullName,omitempty"`
	Gender               *models.Gender `json:"gender,omitempty"`
	BirthDate            *time.Time     `json:"birthDate,omitempty"`
	ProfileImageName     string         `json:"profileImageName,omitempty"`
	DisplayName          string         `json:"displayName"`
	HasPassword          bool           `json:"hasPassword"`
	TwoFactorEnabled     bool           `json:"twoFactorEnabled"`
	SessionID            string         `json:"sessionId,omitempty"`
}

// NewUserResponse maps a user row.
func NewUserResponse(u *models.User, sessionID string) UserResponse {
	resp := UserResponse{
		ID:                   u.ID,
		UserName:             u.UserName,
		Email:                u.EmailValue(),
		PhoneNumber:          u.PhoneValue(),
		EmailConfirmed:       u.EmailConfirmed,
		PhoneNumberConfirmed: u.PhoneNumberConfirmed,
		Gender:               u.Gender,
		BirthDate:            u.BirthDate,
		DisplayName:          u.DisplayName(),
		HasPassword:          u.HasPassword(),
		TwoFactorEnabled:     u.TwoFactorEnabled,
		SessionID:            sessionID,
	}
	if u.FullName != nil {
		resp.FullName = *u.FullName
	}
	if u.ProfileImageName != nil {
		resp.ProfileImageName = *u.ProfileImageName
	}
	return resp
}

// EditUserRequest updates profile fields. Nil fields are cleared.
type EditUserRequest struct {
	FullName  *string        `json:"fullName" validate:"omitempty,max=200"`
	Gender    *models.Gender `json:"gender" validate:"omitempty,min=0,max=2"`
	BirthDate *time.Time     `json:"birthDate"`
}

// UserSessionResponse lists a session of the current user.
type UserSessionResponse struct {
	ID         string     `json:"id"`
	IP         string     `json:"ip"`
	Address    string     `json:"address"`
	DeviceInfo string     `json:"deviceInfo"`
	Privileged bool       `json:"privileged"`
	StartedOn  time.Time  `json:"startedOn"`
	RenewedOn  *time.Time `json:"renewedOn,omitempty"`
	IsCurrent  bool       `json:"isCurrent"`
}

// ChangePasswordRequest replaces the password.
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword,omitempty"`
	NewPassword string `json:"newPassword" validate:"required"`
}

// TwoFactorAuthRequest drives the authenticator settings page. With no flags set it only
// reports the current state.
type TwoFactorAuthRequest struct {
	Enable             *bool  `json:"enable,omitempty"`
	Code               string `json:"code,omitempty" validate:"omitempty,len=6,number"`
	ResetSharedKey     bool   `json:"resetSharedKey,omitempty"`
	ResetRecoveryCodes bool   `json:"resetRecoveryCodes,omitempty"`
}

// TwoFactorAuthResponse reports authenticator state. RecoveryCodes is only set right after they
// are generated.
type TwoFactorAuthResponse struct {
	SharedKey          string   `json:"sharedKey,omitempty"`
	AuthenticatorURI   string   `json:"authenticatorUri,omitempty"`
	RecoveryCodes      []string `json:"recoveryCodes,omitempty"`
	RecoveryCodesLeft  int      `json:"recoveryCodesLeft"`
	IsTwoFactorEnabled bool     `json:"isTwoFactorEnabled"`
}

// PushSubscriptionRequest registers a browser push endpoint.
type PushSubscriptionRequest struct {
	Endpoint string `json:"endpoint" validate:"required,url"`
	P256dh   string `json:"p256dh" validate:"required"`
	Auth     string `json:"auth" validate:"required"`
}

// UnsubscribePushRequest removes a browser push endpoint.
type UnsubscribePushRequest struct {
	Endpoint string `json:"endpoint" validate:"required"`
}

// WebAuthnCredentialResponse lists a registered authenticator.
type WebAuthnCredentialResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name,omitempty"`
	Transports string    `json:"transports,omitempty"`
	CreatedOn  time.Time `json:"createdOn"`
}

// AuditLogResponse is one audit trail entry as shown to administrators.
type AuditLogResponse struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId,omitempty"`
	Action    string          `json:"action"`
	Resource  string          `json:"resource"`
	Details   json.RawMessage `json:"details,omitempty"`
	IPAddress string          `json:"ipAddress"`
	UserAgent string          `json:"userAgent"`
	CreatedAt time.Time       `json:"createdAt"`
}

// NewAuditLogResponses maps audit rows. Details that are not valid JSON are dropped.
func NewAuditLogResponses(logs []models.AuditLog) []AuditLogResponse {
	out := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		item := AuditLogResponse{
			ID:        l.ID,
			Action:    l.Action,
			Resource:  l.Resource,
			IPAddress: l.IPAddress,
			UserAgent: l.UserAgent,
			CreatedAt: l.CreatedAt,
		}
		if l.UserID != nil {
			item.UserID = *l.UserID
		}
		if len(l.NewValues) > 0 && json.Valid(l.NewValues) {
			item.Details = json.RawMessage(l.NewValues)
		}
		out = append(out, item)
	}
	return out
}
