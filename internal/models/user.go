package models

import (
	"strings"
	"time"
)

// Gender of a user profile.
type Gender int

const (
	GenderOther Gender = iota
	GenderMale
	GenderFemale
)

// User represents an application user stored in the users table.
//
// Each *RequestedOn timestamp is the issuance time of the matching one-time token. The token is
// derived from it, so nulling the timestamp invalidates the token.
type User struct {
	ID                   string     `db:"id" json:"id"`
	UserName             string     `db:"user_name" json:"userName"`
	NormalizedUserName   string     `db:"normalized_user_name" json:"-"`
	Email                *string    `db:"email" json:"email,omitempty"`
	NormalizedEmail      *string    `db:"normalized_email" json:"-"`
	EmailConfirmed       bool       `db:"email_confirmed" json:"emailConfirmed"`
	PhoneNumber          *string    `db:"phone_number" json:"phoneNumber,omitempty"`
	PhoneNumberConfirmed bool       `db:"phone_number_confirmed" json:"phoneNumberConfirmed"`
	PasswordHash         *string    `db:"password_hash" json:"-"`
	SecurityStamp        string     `db:"security_stamp" json:"-"`
	ConcurrencyStamp     string     `db:"concurrency_stamp" json:"-"`
	TwoFactorEnabled     bool       `db:"two_factor_enabled" json:"twoFactorEnabled"`
	AuthenticatorKey     *string    `db:"authenticator_key" json:"-"`
	RecoveryCodes        *string    `db:"recovery_codes" json:"-"`
	LockoutEnabled       bool       `db:"lockout_enabled" json:"-"`
	LockoutEnd           *time.Time `db:"lockout_end" json:"-"`
	AccessFailedCount    int        `db:"access_failed_count" json:"-"`
	FullName             *string    `db:"full_name" json:"fullName,omitempty"`
	Gender               *Gender    `db:"gender" json:"gender,omitempty"`
	BirthDate            *time.Time `db:"birth_date" json:"birthDate,omitempty"`
	ProfileImageName     *string    `db:"profile_image_name" json:"profileImageName,omitempty"`

	EmailTokenRequestedOn          *time.Time `db:"email_token_requested_on" json:"-"`
	PhoneNumberTokenRequestedOn    *time.Time `db:"phone_number_token_requested_on" json:"-"`
	ResetPasswordTokenRequestedOn  *time.Time `db:"reset_password_token_requested_on" json:"-"`
	TwoFactorTokenRequestedOn      *time.Time `db:"two_factor_token_requested_on" json:"-"`
	OtpRequestedOn                 *time.Time `db:"otp_requested_on" json:"-"`
	ElevatedAccessTokenRequestedOn *time.Time `db:"elevated_access_token_requested_on" json:"-"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// EmailValue returns the email or an empty string.
func (u *User) EmailValue() string {
	if u.Email == nil {
		return ""
	}
	return *u.Email
}

// PhoneValue returns the phone number or an empty string.
func (u *User) PhoneValue() string {
	if u.PhoneNumber == nil {
		return ""
	}
	return *u.PhoneNumber
}

// DisplayUserName prefers email, then phone number, then user name.
func (u *User) DisplayUserName() string {
	if e := u.EmailValue(); e != "" {
		return e
	}
	if p := u.PhoneValue(); p != "" {
		return p
	}
	return u.UserName
}

// DisplayName prefers the full name over DisplayUserName.
func (u *User) DisplayName() string {
	if u.FullName != nil && strings.TrimSpace(*u.FullName) != "" {
		return *u.FullName
	}
	return u.DisplayUserName()
}

// IsConfirmed reports whether either contact channel has been verified.
func (u *User) IsConfirmed() bool {
	return u.EmailConfirmed || u.PhoneNumberConfirmed
}

// HasPassword reports whether a password has been set.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// IsLockedOut reports whether a lockout is active at now.
func (u *User) IsLockedOut(now time.Time) bool {
	return u.LockoutEnabled && u.LockoutEnd != nil && u.LockoutEnd.After(now)
}

// Normalize upper-cases the lookup columns from their display values.
func (u *User) Normalize() {
	u.NormalizedUserName = strings.ToUpper(u.UserName)
	if u.Email != nil {
		normalized := strings.ToUpper(*u.Email)
		u.NormalizedEmail = &normalized
	} else {
		u.NormalizedEmail = nil
	}
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// TimePtr returns a pointer to t.
func TimePtr(t time.Time) *time.Time {
	return &t
}

// String returns the enum name.
func (g Gender) String() string {
	switch g {
	case GenderMale:
		return "Male"
	case GenderFemale:
		return "Female"
	default:
		return "Other"
	}
}
