package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/lob-api/internal/dto"
	"github.com/noah-isme/lob-api/internal/models"
	appErrors "github.com/noah-isme/lob-api/pkg/errors"
)

// First-step authentication methods.
const (
	MethodPassword = "Password"
	MethodEmail    = "Email"
	MethodSms      = "Sms"
	MethodWebAuthn = "WebAuthn"
	MethodPush     = "Push"
)

type signInStatus int

const (
	signInFailed signInStatus = iota
	signInSucceeded
	signInRequiresTwoFactor
	signInNotAllowed
	signInLockedOut
)

func (s signInStatus) String() string {
	switch s {
	case signInSucceeded:
		return "succeeded"
	case signInRequiresTwoFactor:
		return "requires_two_factor"
	case signInNotAllowed:
		return "not_allowed"
	case signInLockedOut:
		return "locked_out"
	default:
		return "failed"
	}
}

// ClientInfo describes the caller of a sign-in or refresh.
type ClientInfo struct {
	IP        string
	UserAgent string
	Country   string
	City      string
}

// Address formats the CDN supplied location.
func (c ClientInfo) Address() string {
	return c.Country + ", " + c.City
}

type signInInput struct {
	Password      string
	Otp           string
	TwoFactorCode string
	DeviceInfo    string
}

// preSignInCheck rejects unconfirmed and locked out accounts before any credential is checked.
func (s *IdentityService) preSignInCheck(user *models.User, now time.Time) (signInStatus, bool) {
	if !user.IsConfirmed() {
		return signInNotAllowed, false
	}
	if user.IsLockedOut(now) {
		return signInLockedOut, false
	}
	return signInSucceeded, true
}

// afterFirstStep turns a verified first factor into Succeeded or RequiresTwoFactor.
func afterFirstStep(user *models.User) signInStatus {
	if user.TwoFactorEnabled {
		return signInRequiresTwoFactor
	}
	return signInSucceeded
}

// firstStep verifies the OTP when present, otherwise the password.
func (s *IdentityService) firstStep(ctx context.Context, user *models.User, in signInInput) (signInStatus, string, error) {
	if in.Otp != "" {
		return s.checkOtp(ctx, user, in.Otp)
	}
	status, err := s.checkPassword(ctx, user, in.Password)
	return status, MethodPassword, err
}

func (s *IdentityService) checkPassword(ctx context.Context, user *models.User, password string) (signInStatus, error) {
	now := s.now().UTC()
	if status, ok := s.preSignInCheck(user, now); !ok {
		return status, nil
	}
	if !user.HasPassword() || bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)) != nil {
		return s.failFirstStep(ctx, user)
	}
	status := afterFirstStep(user)
	if status == signInSucceeded {
		user.AccessFailedCount = 0
	}
	return status, nil
}

func (s *IdentityService) checkOtp(ctx context.Context, user *models.User, code string) (signInStatus, string, error) {
	now := s.now().UTC()
	if status, ok := s.preSignInCheck(user, now); !ok {
		return status, MethodEmail, nil
	}
	lifetime := s.config.OtpTokenLifetime
	if s.tokens.Verify(user, Purpose(PurposeOtpEmail, "", user.OtpRequestedOn), user.OtpRequestedOn, lifetime, code) {
		return afterFirstStep(user), MethodEmail, nil
	}
	if s.tokens.Verify(user, Purpose(PurposeOtpSms, "", user.OtpRequestedOn), user.OtpRequestedOn, lifetime, code) {
		return afterFirstStep(user), MethodSms, nil
	}
	status, err := s.failFirstStep(ctx, user)
	return status, MethodEmail, err
}

func (s *IdentityService) failFirstStep(ctx context.Context, user *models.User) (signInStatus, error) {
	if err := s.accessFailed(ctx, user); err != nil {
		return signInFailed, err
	}
	if user.IsLockedOut(s.now().UTC()) {
		return signInLockedOut, nil
	}
	return signInFailed, nil
}

// accessFailed counts a failed attempt and starts a lockout once the limit is reached.
func (s *IdentityService) accessFailed(ctx context.Context, user *models.User) error {
	user.AccessFailedCount++
	if user.LockoutEnabled && s.config.MaxFailedAccessAttempts > 0 && user.AccessFailedCount >= s.config.MaxFailedAccessAttempts {
		end := s.now().UTC().Add(s.config.LockoutDuration)
		user.LockoutEnd = &end
		user.AccessFailedCount = 0
	}
	if err := s.users.Update(ctx, user); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record access failure")
	}
	return nil
}

func resetLockout(user *models.User) {
	user.AccessFailedCount = 0
	user.LockoutEnd = nil
}

// checkTwoFactorCode tries a recovery code, then the emailed/SMS token, then the authenticator app.
func (s *IdentityService) checkTwoFactorCode(user *models.User, code string) bool {
	if s.tokens.RedeemRecoveryCode(user, code) {
		return true
	}
	if s.tokens.Verify(user, Purpose(PurposeTwoFactor, "", user.TwoFactorTokenRequestedOn), user.TwoFactorTokenRequestedOn, s.config.TwoFactorTokenLifetime, code) {
		return true
	}
	return s.tokens.VerifyAuthenticator(user, code)
}

// isSessionPrivileged grants privilege while the user has fewer privileged sessions than allowed.
// A session that is already privileged keeps the flag.
func (s *IdentityService) isSessionPrivileged(ctx context.Context, session *models.UserSession) (bool, error) {
	limit := s.config.MaxConcurrentPrivilegedSessions
	if limit == -1 || session.Privileged {
		return true, nil
	}
	count, err := s.sessions.CountPrivileged(ctx, session.UserID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count privileged sessions")
	}
	return count < limit, nil
}

func (s *IdentityService) newSession(ctx context.Context, user *models.User, deviceInfo string, client ClientInfo) (*models.UserSession, error) {
	session := &models.UserSession{
		ID:         uuid.NewString(),
		UserID:     user.ID,
		DeviceInfo: deviceInfo,
		IP:         client.IP,
		Address:    client.Address(),
		StartedOn:  s.now().UTC(),
	}
	privileged, err := s.isSessionPrivileged(ctx, session)
	if err != nil {
		return nil, err
	}
	session.Privileged = privileged
	return session, nil
}

// completeSignIn applies the outcome of the first step: it rejects unconfirmed or locked out users,
// checks the second factor, persists the session and issues tokens.
func (s *IdentityService) completeSignIn(ctx context.Context, user *models.User, status signInStatus, method string, in signInInput, client ClientInfo) (*dto.SignInResponse, error) {
	session, err := s.newSession(ctx, user, in.DeviceInfo, client)
	if err != nil {
		return nil, err
	}

	if status == signInNotAllowed && !user.IsConfirmed() {
		s.metrics.RecordSignIn(method, status.String())
		return nil, appErrors.Clone(appErrors.ErrUserNotConfirmed, "").WithData("UserId", user.ID)
	}

	if status == signInLockedOut {
		s.metrics.RecordSignIn(method, status.String())
		var tryAgainIn time.Duration
		if user.LockoutEnd != nil {
			tryAgainIn = user.LockoutEnd.Sub(s.now().UTC())
		}
		return nil, appErrors.Clone(appErrors.ErrUserLockedOut, fmt.Sprintf("user is locked out, try again in %s", humanizeDuration(tryAgainIn))).
			WithData("UserId", user.ID).
			WithExtension("tryAgainIn", formatTimeSpan(tryAgainIn))
	}

	if status == signInRequiresTwoFactor {
		if in.TwoFactorCode == "" {
			s.metrics.RecordSignIn(method, status.String())
			return &dto.SignInResponse{RequiresTwoFactor: true}, nil
		}
		if s.checkTwoFactorCode(user, in.TwoFactorCode) {
			status = signInSucceeded
			resetLockout(user)
		} else {
			if err := s.accessFailed(ctx, user); err != nil {
				return nil, err
			}
			status = signInFailed
		}
	}

	s.metrics.RecordSignIn(method, status.String())
	if status != signInSucceeded {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "").WithData("UserId", user.ID)
	}

	if method == MethodEmail || method == MethodSms {
		resetLockout(user)
		user.OtpRequestedOn = nil
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user session")
	}
	user.TwoFactorTokenRequestedOn = nil
	if err := s.users.Update(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}

	tokens, err := s.issueTokens(ctx, user, SessionGrant{
		SessionID:  session.ID,
		Privileged: session.Privileged,
		Elevated:   user.TwoFactorEnabled,
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, user.ID, models.AuditActionSignIn, client, map[string]interface{}{"method": method, "session_id": session.ID})
	s.logger.Info("user signed in", zap.String("user_id", user.ID), zap.String("method", method), zap.Bool("privileged", session.Privileged))
	return &dto.SignInResponse{TokenResponse: *tokens}, nil
}

func (s *IdentityService) issueTokens(ctx context.Context, user *models.User, grant SessionGrant) (*dto.TokenResponse, error) {
	roles, err := s.users.GetRoles(ctx, user.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user roles")
	}
	return s.jwt.Issue(user, roles, grant)
}

// resendDelay is negative while the previous token is still live.
func resendDelay(now time.Time, requestedOn *time.Time, lifetime time.Duration) time.Duration {
	if requestedOn == nil {
		return 0
	}
	return now.Sub(*requestedOn) - lifetime
}

func tooManyRequests(message string, delay time.Duration) error {
	wait := -delay
	return appErrors.Clone(appErrors.ErrTooManyRequests, fmt.Sprintf("%s, try again in %s", message, humanizeDuration(wait))).
		WithExtension("tryAgainIn", formatTimeSpan(wait))
}

// formatTimeSpan renders d as hh:mm:ss.
func formatTimeSpan(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	return fmt.Sprintf("%02d:%02d:%02d", h, m, d/time.Second)
}

func humanizeDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%d seconds", int(d.Seconds()))
	}
	return d.String()
}
