package service

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base32"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/noah-isme/lob-api/internal/models"
)

// Purposes of one-time user tokens. Each token is bound to the purpose, the issuance timestamp and
// the user's security stamp.
const (
	PurposeOtpEmail          = "Otp_Email"
	PurposeOtpSms            = "Otp_Sms"
	PurposeTwoFactor         = "TwoFactor"
	PurposeVerifyEmail       = "VerifyEmail"
	PurposeVerifyPhoneNumber = "VerifyPhoneNumber"
	PurposeResetPassword     = "ResetPassword"
	PurposeElevatedAccess    = "ElevatedAccess"
)

const recoveryCodeCount = 10

// UserTokenService generates the six digit codes sent by email and SMS and validates authenticator
// app codes and recovery codes.
type UserTokenService struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewUserTokenService constructs a UserTokenService. issuer is shown by authenticator apps.
func NewUserTokenService(secret, issuer string) *UserTokenService {
	return &UserTokenService{secret: []byte(secret), issuer: issuer, now: time.Now}
}

// Purpose formats a purpose string. qualifier scopes the token further, for example to an email
// address or session id, and may be empty.
func Purpose(kind, qualifier string, requestedOn *time.Time) string {
	var b strings.Builder
	b.WriteString(kind)
	if qualifier != "" {
		b.WriteByte(':')
		b.WriteString(qualifier)
	}
	b.WriteByte(',')
	if requestedOn != nil {
		b.WriteString(strconv.FormatInt(requestedOn.Unix(), 10))
	}
	return b.String()
}

// Generate returns the code for purpose issued at requestedOn.
func (s *UserTokenService) Generate(user *models.User, purpose string, requestedOn time.Time) (string, error) {
	code, err := totp.GenerateCodeCustom(s.secretFor(user, purpose), requestedOn, totp.ValidateOpts{
		Period:    30,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA256,
	})
	if err != nil {
		return "", fmt.Errorf("generate user token: %w", err)
	}
	return code, nil
}

// Verify checks code against purpose. A nil requestedOn means the token was consumed or never
// issued; a token older than lifetime is expired.
func (s *UserTokenService) Verify(user *models.User, purpose string, requestedOn *time.Time, lifetime time.Duration, code string) bool {
	if requestedOn == nil || code == "" {
		return false
	}
	if s.now().Sub(*requestedOn) > lifetime {
		return false
	}
	expected, err := s.Generate(user, purpose, *requestedOn)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(code)) == 1
}

func (s *UserTokenService) secretFor(user *models.User, purpose string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(user.ID))
	mac.Write([]byte{'|'})
	mac.Write([]byte(user.SecurityStamp))
	mac.Write([]byte{'|'})
	mac.Write([]byte(purpose))
	return base32.StdEncoding.EncodeToString(mac.Sum(nil))
}

// NewAuthenticatorKey creates a fresh TOTP shared key for the user.
func (s *UserTokenService) NewAuthenticatorKey(user *models.User) (*otp.Key, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: user.DisplayUserName(),
	})
	if err != nil {
		return nil, fmt.Errorf("generate authenticator key: %w", err)
	}
	return key, nil
}

// AuthenticatorURI returns the otpauth:// URI for an existing shared key.
func (s *UserTokenService) AuthenticatorURI(user *models.User, secret string) string {
	raw, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(strings.TrimRight(strings.ToUpper(secret), "="))
	if err != nil || len(raw) == 0 {
		return ""
	}
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: user.DisplayUserName(),
		Secret:      raw,
	})
	if err != nil {
		return ""
	}
	return key.URL()
}

// VerifyAuthenticator validates an authenticator app code.
func (s *UserTokenService) VerifyAuthenticator(user *models.User, code string) bool {
	if user.AuthenticatorKey == nil || *user.AuthenticatorKey == "" || code == "" {
		return false
	}
	ok, err := totp.ValidateCustom(code, *user.AuthenticatorKey, s.now().UTC(), totp.ValidateOpts{
		Period:    30,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}

// GenerateRecoveryCodes replaces the user's recovery codes and returns the plaintext values. Only
// hashes are stored.
func (s *UserTokenService) GenerateRecoveryCodes(user *models.User) ([]string, error) {
	codes := make([]string, 0, recoveryCodeCount)
	hashes := make([]string, 0, recoveryCodeCount)
	buf := make([]byte, 5)
	for i := 0; i < recoveryCodeCount; i++ {
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("generate recovery code: %w", err)
		}
		raw := hex.EncodeToString(buf)
		code := raw[:5] + "-" + raw[5:]
		codes = append(codes, code)
		hashes = append(hashes, hashRecoveryCode(code))
	}
	joined := strings.Join(hashes, ";")
	user.RecoveryCodes = &joined
	return codes, nil
}

// RedeemRecoveryCode consumes a recovery code. It reports false when the code is unknown.
func (s *UserTokenService) RedeemRecoveryCode(user *models.User, code string) bool {
	if user.RecoveryCodes == nil || code == "" {
		return false
	}
	target := hashRecoveryCode(code)
	stored := strings.Split(*user.RecoveryCodes, ";")
	for i, h := range stored {
		if h != "" && subtle.ConstantTimeCompare([]byte(h), []byte(target)) == 1 {
			remaining := strings.Join(append(stored[:i:i], stored[i+1:]...), ";")
			user.RecoveryCodes = &remaining
			return true
		}
	}
	return false
}

// CountRecoveryCodes returns the number of unused recovery codes.
func CountRecoveryCodes(user *models.User) int {
	if user.RecoveryCodes == nil {
		return 0
	}
	count := 0
	for _, h := range strings.Split(*user.RecoveryCodes, ";") {
		if h != "" {
			count++
		}
	}
	return count
}

func hashRecoveryCode(code string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.ReplaceAll(strings.TrimSpace(code), " ", ""))))
	return hex.EncodeToString(sum[:])
}
