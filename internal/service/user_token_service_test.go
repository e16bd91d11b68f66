package service

import (
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lob-api/internal/models"
)

func TestPurposeFormat(t *testing.T) {
	requested := time.Unix(1700000000, 0)
	assert.Equal(t, "VerifyEmail:alice@lob.local,1700000000", Purpose(PurposeVerifyEmail, "alice@lob.local", &requested))
	assert.Equal(t, "TwoFactor,", Purpose(PurposeTwoFactor, "", nil))
}

func TestUserTokenRoundTrip(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := NewUserTokenService("user-token-secret", "LOB")
	svc.now = func() time.Time { return now }
	user := &models.User{ID: "u1", SecurityStamp: "stamp-1"}
	purpose := Purpose(PurposeVerifyEmail, "alice@lob.local", &now)

	code, err := svc.Generate(user, purpose, now)
	require.NoError(t, err)
	assert.Len(t, code, 6)
	assert.True(t, svc.Verify(user, purpose, &now, 2*time.Minute, code))

	assert.False(t, svc.Verify(user, Purpose(PurposeResetPassword, "", &now), &now, 2*time.Minute, code), "other purpose")
	assert.False(t, svc.Verify(user, purpose, nil, 2*time.Minute, code), "consumed token")
	assert.False(t, svc.Verify(user, purpose, &now, 2*time.Minute, ""), "empty code")

	rotated := &models.User{ID: "u1", SecurityStamp: "stamp-2"}
	assert.False(t, svc.Verify(rotated, purpose, &now, 2*time.Minute, code), "security stamp changed")

	svc.now = func() time.Time { return now.Add(3 * time.Minute) }
	assert.False(t, svc.Verify(user, purpose, &now, 2*time.Minute, code), "expired")
}

func TestAuthenticatorKeyVerification(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := NewUserTokenService("user-token-secret", "LOB")
	svc.now = func() time.Time { return now }
	email := "alice@lob.local"
	user := &models.User{ID: "u1", Email: &email}

	assert.False(t, svc.VerifyAuthenticator(user, "123456"))

	key, err := svc.NewAuthenticatorKey(user)
	require.NoError(t, err)
	secret := key.Secret()
	user.AuthenticatorKey = &secret

	code, err := totp.GenerateCode(secret, now)
	require.NoError(t, err)
	assert.True(t, svc.VerifyAuthenticator(user, code))

	uri := svc.AuthenticatorURI(user, secret)
	assert.True(t, strings.HasPrefix(uri, "otpauth://totp/"))
	assert.Contains(t, uri, "issuer=LOB")
	assert.Empty(t, svc.AuthenticatorURI(user, "not base32!"))
}

func TestRecoveryCodes(t *testing.T) {
	svc := NewUserTokenService("user-token-secret", "LOB")
	user := &models.User{ID: "u1"}
	assert.Zero(t, CountRecoveryCodes(user))

	codes, err := svc.GenerateRecoveryCodes(user)
	require.NoError(t, err)
	require.Len(t, codes, 10)
	assert.Equal(t, 10, CountRecoveryCodes(user))
	assert.NotContains(t, *user.RecoveryCodes, codes[0])

	assert.True(t, svc.RedeemRecoveryCode(user, " "+strings.ToUpper(codes[3])+" "))
	assert.Equal(t, 9, CountRecoveryCodes(user))
	assert.False(t, svc.RedeemRecoveryCode(user, codes[3]), "codes are single use")
	assert.False(t, svc.RedeemRecoveryCode(user, "nope-nope"))
}
