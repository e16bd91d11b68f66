package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-webauthn/webauthn/protocol"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/lob-api/internal/dto"
	"github.com/noah-isme/lob-api/internal/models"
	"github.com/noah-isme/lob-api/pkg/config"
	"github.com/noah-isme/lob-api/pkg/email"
	appErrors "github.com/noah-isme/lob-api/pkg/errors"
	"github.com/noah-isme/lob-api/pkg/middleware/requestid"
)

type identityUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByUserName(ctx context.Context, userName string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByPhoneNumber(ctx context.Context, phone string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	GetRoles(ctx context.Context, userID string) ([]string, error)
	AddToRole(ctx context.Context, userID, roleName string) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type sessionRepository interface {
	Create(ctx context.Context, session *models.UserSession) error
	FindByID(ctx context.Context, id string) (*models.UserSession, error)
	ListByUser(ctx context.Context, userID string) ([]models.UserSession, error)
	CountPrivileged(ctx context.Context, userID string) (int, error)
	Update(ctx context.Context, session *models.UserSession) error
	Delete(ctx context.Context, userID, id string) (bool, error)
}

type phoneNormalizer interface {
	Normalize(raw string) (string, error)
}

type notificationDispatcher interface {
	EmailNotification(user *models.User, template, subject, token, link string) (Notification, error)
	SmsNotification(user *models.User, text, token string) Notification
	PushNotification(userID, title, message string) Notification
	Link(page string, query url.Values) string
	Dispatch(ctx context.Context, notifications ...Notification) error
}

type webAuthnVerifier interface {
	BeginLogin(ctx context.Context, userIDs []string) (*protocol.CredentialAssertion, error)
	FinishLogin(ctx context.Context, body []byte) (*models.User, *dto.WebAuthnAssertionResult, error)
}

// IdentityService implements sign-up, confirmation, sign-in, refresh and one-time token flows.
type IdentityService struct {
	users         identityUserRepository
	sessions      sessionRepository
	tokens        *UserTokenService
	jwt           *TokenService
	notifications notificationDispatcher
	webauthn      webAuthnVerifier
	phones        phoneNormalizer
	validator     *validator.Validate
	metrics       *MetricsService
	logger        *zap.Logger
	config        config.IdentityConfig
	now           func() time.Time
}

// IdentityDeps groups the collaborators of IdentityService.
type IdentityDeps struct {
	Users         identityUserRepository
	Sessions      sessionRepository
	Tokens        *UserTokenService
	JWT           *TokenService
	Notifications notificationDispatcher
	WebAuthn      webAuthnVerifier
	Phones        phoneNormalizer
	Validator     *validator.Validate
	Metrics       *MetricsService
	Logger        *zap.Logger
}

// NewIdentityService constructs an IdentityService.
func NewIdentityService(deps IdentityDeps, cfg config.IdentityConfig) *IdentityService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Validator == nil {
		deps.Validator = validator.New()
	}
	return &IdentityService{
		users:         deps.Users,
		sessions:      deps.Sessions,
		tokens:        deps.Tokens,
		jwt:           deps.JWT,
		notifications: deps.Notifications,
		webauthn:      deps.WebAuthn,
		phones:        deps.Phones,
		validator:     deps.Validator,
		metrics:       deps.Metrics,
		logger:        deps.Logger,
		config:        cfg,
		now:           time.Now,
	}
}

// SignUp registers a new account and sends confirmation tokens to the supplied channels.
func (s *IdentityService) SignUp(ctx context.Context, req dto.SignUpRequest, client ClientInfo) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.FromValidation(err, "invalid sign up payload")
	}
	phone, err := s.phones.Normalize(req.PhoneNumber)
	if err != nil {
		return appErrors.Clone(appErrors.ErrResourceValidation, "").WithField("phoneNumber", "phoneNumber is invalid")
	}
	req.PhoneNumber = phone
	if strings.TrimSpace(req.Email) == "" && req.PhoneNumber == "" {
		return appErrors.Clone(appErrors.ErrResourceValidation, "").WithField("email", "email or phoneNumber is required")
	}
	if len(req.Password) < s.config.PasswordMinLength {
		return appErrors.Clone(appErrors.ErrResourceValidation, "").WithField("password", "password is too short")
	}
	if req.UserName == "" {
		req.UserName = uuid.NewString()
	}

	existing, err := s.findUser(ctx, dto.IdentityRequest{UserName: req.UserName, Email: req.Email, PhoneNumber: req.PhoneNumber})
	if err != nil {
		return err
	}
	if existing != nil {
		return appErrors.Clone(appErrors.ErrDuplicateUser, "").WithData("UserId", existing.ID)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	hashed := string(hash)
	user := &models.User{
		UserName:       req.UserName,
		Email:          models.StringPtr(strings.TrimSpace(req.Email)),
		PhoneNumber:    models.StringPtr(req.PhoneNumber),
		PasswordHash:   &hashed,
		SecurityStamp:  uuid.NewString(),
		LockoutEnabled: true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}
	if err := s.users.AddToRole(ctx, user.ID, models.RoleBasicUser); err != nil {
		s.logger.Warn("failed to assign default role", zap.String("user_id", user.ID), zap.Error(err))
	}
	s.audit(ctx, user.ID, models.AuditActionSignUp, client, nil)

	if user.Email != nil {
		if err := s.sendConfirmEmailToken(ctx, user, req.ReturnURL); err != nil {
			return err
		}
	}
	if user.PhoneNumber != nil {
		if err := s.sendConfirmPhoneToken(ctx, user); err != nil {
			return err
		}
	}
	return nil
}

// SendConfirmEmailToken re-sends the email confirmation token.
func (s *IdentityService) SendConfirmEmailToken(ctx context.Context, req dto.SendEmailTokenRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.FromValidation(err, "invalid email token payload")
	}
	user, err := s.requireUser(ctx, dto.IdentityRequest{Email: req.Email})
	if err != nil {
		return err
	}
	if user.EmailConfirmed {
		return appErrors.Clone(appErrors.ErrEmailConfirmed, "").WithData("UserId", user.ID)
	}
	return s.sendConfirmEmailToken(ctx, user, req.ReturnURL)
}

func (s *IdentityService) sendConfirmEmailToken(ctx context.Context, user *models.User, returnURL string) error {
	now := s.now().UTC()
	if delay := resendDelay(now, user.EmailTokenRequestedOn, s.config.EmailTokenLifetime); delay < 0 {
		return tooManyRequests("wait before requesting another email token", delay)
	}
	requestedOn := now.Truncate(time.Second)
	user.EmailTokenRequestedOn = &requestedOn
	if err := s.users.Update(ctx, user); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}

	token, err := s.tokens.Generate(user, Purpose(PurposeVerifyEmail, user.EmailValue(), &requestedOn), requestedOn)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate email token")
	}
	query := url.Values{"email": {user.EmailValue()}, "emailToken": {token}}
	if returnURL != "" {
		query.Set("return-url", returnURL)
	}
	msg, err := s.notifications.EmailNotification(user, email.TemplateConfirmEmail, "Confirm your email", token, s.notifications.Link(models.PageConfirm, query))
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render email")
	}
	return s.dispatch(ctx, msg)
}

// ConfirmEmail consumes the email token and signs the user in.
func (s *IdentityService) ConfirmEmail(ctx context.Context, req dto.ConfirmEmailRequest, client ClientInfo) (*dto.SignInResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.FromValidation(err, "invalid confirm email payload")
	}
	user, err := s.requireUser(ctx, dto.IdentityRequest{Email: req.Email})
	if err != nil {
		return nil, err
	}
	if user.EmailConfirmed {
		return nil, appErrors.Clone(appErrors.ErrEmailConfirmed, "").WithData("UserId", user.ID)
	}
	purpose := Purpose(PurposeVerifyEmail, user.EmailValue(), user.EmailTokenRequestedOn)
	if !s.tokens.Verify(user, purpose, user.EmailTokenRequestedOn, s.config.EmailTokenLifetime, req.Token) {
		return nil, s.invalidToken(ctx, user)
	}
	user.EmailConfirmed = true
	user.EmailTokenRequestedOn = nil
	return s.signInAfterConfirmation(ctx, user, PurposeOtpEmail, req.DeviceInfo, client)
}

// SendConfirmPhoneToken re-sends the phone confirmation token.
func (s *IdentityService) SendConfirmPhoneToken(ctx context.Context, req dto.SendPhoneTokenRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.FromValidation(err, "invalid phone token payload")
	}
	user, err := s.requireUser(ctx, dto.IdentityRequest{PhoneNumber: req.PhoneNumber})
	if err != nil {
		return err
	}
	if user.PhoneNumberConfirmed {
		return appErrors.Clone(appErrors.ErrPhoneConfirmed, "").WithData("UserId", user.ID)
	}
	return s.sendConfirmPhoneToken(ctx, user)
}

func (s *IdentityService) sendConfirmPhoneToken(ctx context.Context, user *models.User) error {
	now := s.now().UTC()
	if delay := resendDelay(now, user.PhoneNumberTokenRequestedOn, s.config.PhoneNumberTokenLifetime); delay < 0 {
		return tooManyRequests("wait before requesting another phone token", delay)
	}
	requestedOn := now.Truncate(time.Second)
	user.PhoneNumberTokenRequestedOn = &requestedOn
	if err := s.users.Update(ctx, user); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}
	token, err := s.tokens.Generate(user, Purpose(PurposeVerifyPhoneNumber, user.PhoneValue(), &requestedOn), requestedOn)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate phone token")
	}
	return s.dispatch(ctx, s.notifications.SmsNotification(user, "Your phone confirmation code is "+token, token))
}

// ConfirmPhone consumes the phone token and signs the user in.
func (s *IdentityService) ConfirmPhone(ctx context.Context, req dto.ConfirmPhoneRequest, client ClientInfo) (*dto.SignInResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.FromValidation(err, "invalid confirm phone payload")
	}
	user, err := s.requireUser(ctx, dto.IdentityRequest{PhoneNumber: req.PhoneNumber})
	if err != nil {
		return nil, err
	}
	if user.PhoneNumberConfirmed {
		return nil, appErrors.Clone(appErrors.ErrPhoneConfirmed, "").WithData("UserId", user.ID)
	}
	purpose := Purpose(PurposeVerifyPhoneNumber, user.PhoneValue(), user.PhoneNumberTokenRequestedOn)
	if !s.tokens.Verify(user, purpose, user.PhoneNumberTokenRequestedOn, s.config.PhoneNumberTokenLifetime, req.Token) {
		return nil, s.invalidToken(ctx, user)
	}
	user.PhoneNumberConfirmed = true
	user.PhoneNumberTokenRequestedOn = nil
	return s.signInAfterConfirmation(ctx, user, PurposeOtpSms, req.DeviceInfo, client)
}

// signInAfterConfirmation issues an OTP for the freshly confirmed channel and redeems it right away.
func (s *IdentityService) signInAfterConfirmation(ctx context.Context, user *models.User, otpPurpose, deviceInfo string, client ClientInfo) (*dto.SignInResponse, error) {
	requestedOn := s.now().UTC().Truncate(time.Second)
	user.OtpRequestedOn = &requestedOn
	if err := s.users.Update(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}
	otp, err := s.tokens.Generate(user, Purpose(otpPurpose, "", &requestedOn), requestedOn)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate otp")
	}
	return s.signIn(ctx, user, signInInput{Otp: otp, DeviceInfo: deviceInfo}, client)
}

// SendResetPasswordToken emails and texts a password reset token.
func (s *IdentityService) SendResetPasswordToken(ctx context.Context, req dto.SendResetPasswordTokenRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.FromValidation(err, "invalid reset password payload")
	}
	user, err := s.requireUser(ctx, dto.IdentityRequest{Email: req.Email, PhoneNumber: req.PhoneNumber})
	if err != nil {
		return err
	}
	if !user.IsConfirmed() {
		return appErrors.Clone(appErrors.ErrUserNotConfirmed, "").WithData("UserId", user.ID)
	}
	now := s.now().UTC()
	if delay := resendDelay(now, user.ResetPasswordTokenRequestedOn, s.config.ResetPasswordTokenLifetime); delay < 0 {
		return tooManyRequests("wait before requesting another reset password token", delay)
	}
	requestedOn := now.Truncate(time.Second)
	user.ResetPasswordTokenRequestedOn = &requestedOn
	if err := s.users.Update(ctx, user); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}
	token, err := s.tokens.Generate(user, Purpose(PurposeResetPassword, "", &requestedOn), requestedOn)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate reset token")
	}

	var messages []Notification
	if user.EmailConfirmed {
		query := url.Values{"email": {user.EmailValue()}, "token": {token}}
		if req.ReturnURL != "" {
			query.Set("return-url", req.ReturnURL)
		}
		msg, err := s.notifications.EmailNotification(user, email.TemplateResetPassword, "Reset your password", token, s.notifications.Link(models.PageResetPassword, query))
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render email")
		}
		messages = append(messages, msg)
	}
	if user.PhoneNumberConfirmed {
		messages = append(messages, s.notifications.SmsNotification(user, "Your password reset code is "+token, token))
	}
	return s.dispatch(ctx, messages...)
}

// ResetPassword sets a new password using a reset token and invalidates existing refresh tokens.
func (s *IdentityService) ResetPassword(ctx context.Context, req dto.ResetPasswordRequest, client ClientInfo) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.FromValidation(err, "invalid reset password payload")
	}
	user, err := s.requireUser(ctx, dto.IdentityRequest{Email: req.Email, PhoneNumber: req.PhoneNumber})
	if err != nil {
		return err
	}
	purpose := Purpose(PurposeResetPassword, "", user.ResetPasswordTokenRequestedOn)
	if !s.tokens.Verify(user, purpose, user.ResetPasswordTokenRequestedOn, s.config.ResetPasswordTokenLifetime, req.Token) {
		return s.invalidToken(ctx, user)
	}
	if len(req.Password) < s.config.PasswordMinLength {
		return appErrors.Clone(appErrors.ErrResourceValidation, "").WithField("password", "password is too short")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	hashed := string(hash)
	user.PasswordHash = &hashed
	user.ResetPasswordTokenRequestedOn = nil
	user.SecurityStamp = uuid.NewString()
	resetLockout(user)
	if err := s.users.Update(ctx, user); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}
	s.audit(ctx, user.ID, models.AuditActionPasswordReset, client, nil)
	return nil
}

// SignIn authenticates with a password or an OTP.
func (s *IdentityService) SignIn(ctx context.Context, req dto.SignInRequest, client ClientInfo) (*dto.SignInResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.FromValidation(err, "invalid sign in payload")
	}
	user, err := s.findUser(ctx, req.IdentityRequest)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
	}
	return s.signIn(ctx, user, signInInput{
		Password:      req.Password,
		Otp:           req.Otp,
		TwoFactorCode: req.TwoFactorCode,
		DeviceInfo:    req.DeviceInfo,
	}, client)
}

func (s *IdentityService) signIn(ctx context.Context, user *models.User, in signInInput, client ClientInfo) (*dto.SignInResponse, error) {
	status, method, err := s.firstStep(ctx, user, in)
	if err != nil {
		return nil, err
	}
	return s.completeSignIn(ctx, user, status, method, in, client)
}

// Refresh exchanges a refresh token for a new token pair. Rejected refreshes delete the session.
func (s *IdentityService) Refresh(ctx context.Context, req dto.RefreshRequest, client ClientInfo) (*dto.TokenResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.FromValidation(err, "invalid refresh payload")
	}
	claims, err := s.jwt.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.FindByID(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "user session not found").WithData("UserSessionId", claims.SessionID)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user session")
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if user == nil || user.SecurityStamp != claims.SecurityStamp || session.UserID != user.ID {
		s.revokeSession(ctx, session)
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "security stamp changed")
	}

	elevated := false
	userChanged := false
	if req.ElevatedAccessToken != "" {
		purpose := Purpose(PurposeElevatedAccess, session.ID, user.ElevatedAccessTokenRequestedOn)
		valid := s.tokens.Verify(user, purpose, user.ElevatedAccessTokenRequestedOn, s.config.ElevatedAccessTokenLifetime, req.ElevatedAccessToken) ||
			s.tokens.VerifyAuthenticator(user, req.ElevatedAccessToken)
		if !valid {
			return nil, s.invalidToken(ctx, user)
		}
		user.ElevatedAccessTokenRequestedOn = nil
		user.AccessFailedCount = 0
		elevated = true
		userChanged = true
	}

	now := s.now().UTC()
	session.RenewedOn = &now
	session.IP = client.IP
	session.Address = client.Address()
	session.DeviceInfo = req.DeviceInfo
	privileged, err := s.isSessionPrivileged(ctx, session)
	if err != nil {
		return nil, err
	}
	session.Privileged = privileged
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user session")
	}
	if userChanged {
		if err := s.users.Update(ctx, user); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
		}
	}

	s.audit(ctx, user.ID, models.AuditActionRefresh, client, map[string]interface{}{"session_id": session.ID, "elevated": elevated})
	return s.issueTokens(ctx, user, SessionGrant{SessionID: session.ID, Privileged: session.Privileged, Elevated: elevated})
}

func (s *IdentityService) revokeSession(ctx context.Context, session *models.UserSession) {
	if _, err := s.sessions.Delete(ctx, session.UserID, session.ID); err != nil {
		requestid.Logger(ctx, s.logger).Warn("failed to delete rejected session", zap.String("session_id", session.ID), zap.Error(err))
	}
}

// SendOtp sends a one-time sign-in code and magic link to every confirmed channel.
func (s *IdentityService) SendOtp(ctx context.Context, req dto.SendOtpRequest, returnURL string) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.FromValidation(err, "invalid otp payload")
	}
	user, err := s.requireUser(ctx, req.IdentityRequest)
	if err != nil {
		return err
	}
	if !user.IsConfirmed() {
		return appErrors.Clone(appErrors.ErrUserNotConfirmed, "").WithData("UserId", user.ID)
	}
	now := s.now().UTC()
	if delay := resendDelay(now, user.OtpRequestedOn, s.config.OtpTokenLifetime); delay < 0 {
		return tooManyRequests("wait before requesting another otp", delay)
	}
	requestedOn := now.Truncate(time.Second)
	user.OtpRequestedOn = &requestedOn
	if err := s.users.Update(ctx, user); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}

	var messages []Notification
	if user.EmailConfirmed {
		token, err := s.tokens.Generate(user, Purpose(PurposeOtpEmail, "", &requestedOn), requestedOn)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate otp")
		}
		query := url.Values{"otp": {token}, "userName": {user.UserName}}
		if returnURL != "" {
			query.Set("return-url", returnURL)
		}
		msg, err := s.notifications.EmailNotification(user, email.TemplateOtp, "Your sign-in code", token, s.notifications.Link(models.PageSignIn, query))
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render email")
		}
		messages = append(messages, msg)
	}
	if user.PhoneNumberConfirmed {
		token, err := s.tokens.Generate(user, Purpose(PurposeOtpSms, "", &requestedOn), requestedOn)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate otp")
		}
		messages = append(messages, s.notifications.SmsNotification(user, "Your sign-in code is "+token, token))
	}
	return s.dispatch(ctx, messages...)
}

// SendTwoFactorToken verifies the first factor and sends a second factor code to the other channels.
func (s *IdentityService) SendTwoFactorToken(ctx context.Context, req dto.SignInRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.FromValidation(err, "invalid two factor payload")
	}
	user, err := s.requireUser(ctx, req.IdentityRequest)
	if err != nil {
		return err
	}
	if !user.TwoFactorEnabled {
		return appErrors.Clone(appErrors.ErrTwoFactorNotEnabled, "").WithData("UserId", user.ID)
	}
	status, method, err := s.firstStep(ctx, user, signInInput{Password: req.Password, Otp: req.Otp})
	if err != nil {
		return err
	}
	if status != signInRequiresTwoFactor {
		return appErrors.Clone(appErrors.ErrBadRequest, "first authentication step did not succeed").WithData("UserId", user.ID)
	}
	return s.sendTwoFactorToken(ctx, user, method)
}

func (s *IdentityService) sendTwoFactorToken(ctx context.Context, user *models.User, firstStepMethod string) error {
	now := s.now().UTC()
	if delay := resendDelay(now, user.TwoFactorTokenRequestedOn, s.config.TwoFactorTokenLifetime); delay < 0 {
		return tooManyRequests("wait before requesting another two factor token", delay)
	}
	requestedOn := now.Truncate(time.Second)
	user.TwoFactorTokenRequestedOn = &requestedOn
	if err := s.users.Update(ctx, user); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}
	token, err := s.tokens.Generate(user, Purpose(PurposeTwoFactor, "", &requestedOn), requestedOn)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate two factor token")
	}

	var messages []Notification
	if firstStepMethod != MethodEmail && user.EmailConfirmed {
		msg, err := s.notifications.EmailNotification(user, email.TemplateTwoFactor, "Your two factor code", token, "")
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render email")
		}
		messages = append(messages, msg)
	}
	text := "Your two factor code is " + token
	if firstStepMethod != MethodSms && user.PhoneNumberConfirmed {
		messages = append(messages, s.notifications.SmsNotification(user, text, token))
	}
	if firstStepMethod != MethodPush {
		messages = append(messages, s.notifications.PushNotification(user.ID, "Two factor code", text))
	}
	return s.dispatch(ctx, messages...)
}

// GetWebAuthnAssertionOptions starts a WebAuthn sign-in ceremony.
func (s *IdentityService) GetWebAuthnAssertionOptions(ctx context.Context, req dto.WebAuthnAssertionOptionsRequest) (*protocol.CredentialAssertion, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.FromValidation(err, "invalid assertion options payload")
	}
	return s.webauthn.BeginLogin(ctx, req.UserIDs)
}

// VerifyWebAuthAssertion checks an assertion without signing in.
func (s *IdentityService) VerifyWebAuthAssertion(ctx context.Context, clientResponse json.RawMessage) (*dto.WebAuthnAssertionResult, error) {
	_, result, err := s.webauthn.FinishLogin(ctx, clientResponse)
	return result, err
}

// VerifyWebAuthAndSignIn signs in with an assertion as the first factor.
func (s *IdentityService) VerifyWebAuthAndSignIn(ctx context.Context, req dto.WebAuthnSignInRequest, client ClientInfo) (*dto.SignInResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.FromValidation(err, "invalid webauthn sign in payload")
	}
	user, _, err := s.webauthn.FinishLogin(ctx, req.ClientResponse)
	if err != nil {
		return nil, err
	}
	status, ok := s.preSignInCheck(user, s.now().UTC())
	if ok {
		status = afterFirstStep(user)
		if status == signInSucceeded {
			user.AccessFailedCount = 0
		}
	}
	return s.completeSignIn(ctx, user, status, MethodWebAuthn, signInInput{TwoFactorCode: req.TfaCode, DeviceInfo: req.DeviceInfo}, client)
}

// VerifyWebAuthAndSendTwoFactorToken sends a second factor code after a WebAuthn first step.
func (s *IdentityService) VerifyWebAuthAndSendTwoFactorToken(ctx context.Context, req dto.WebAuthnSignInRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.FromValidation(err, "invalid webauthn payload")
	}
	user, _, err := s.webauthn.FinishLogin(ctx, req.ClientResponse)
	if err != nil {
		return err
	}
	if !user.TwoFactorEnabled {
		return appErrors.Clone(appErrors.ErrTwoFactorNotEnabled, "").WithData("UserId", user.ID)
	}
	return s.sendTwoFactorToken(ctx, user, MethodWebAuthn)
}

// findUser looks the account up by user name, then email, then phone number. It returns nil when
// no account matches.
func (s *IdentityService) findUser(ctx context.Context, req dto.IdentityRequest) (*models.User, error) {
	phone := strings.TrimSpace(req.PhoneNumber)
	if normalized, err := s.phones.Normalize(phone); err == nil {
		phone = normalized
	}
	lookups := []struct {
		value string
		find  func(context.Context, string) (*models.User, error)
	}{
		{strings.TrimSpace(req.UserName), s.users.FindByUserName},
		{strings.TrimSpace(req.Email), s.users.FindByEmail},
		{phone, s.users.FindByPhoneNumber},
	}
	for _, l := range lookups {
		if l.value == "" {
			continue
		}
		user, err := l.find(ctx, l.value)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
		}
	}
	return nil, nil
}

func (s *IdentityService) requireUser(ctx context.Context, req dto.IdentityRequest) (*models.User, error) {
	if req.Empty() {
		return nil, appErrors.Clone(appErrors.ErrResourceValidation, "").WithField("email", "email or phoneNumber is required")
	}
	user, err := s.findUser(ctx, req)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, appErrors.Clone(appErrors.ErrUserNotFound, "")
	}
	return user, nil
}

func (s *IdentityService) invalidToken(ctx context.Context, user *models.User) error {
	if err := s.accessFailed(ctx, user); err != nil {
		return err
	}
	return appErrors.Clone(appErrors.ErrInvalidToken, "").WithData("UserId", user.ID)
}

func (s *IdentityService) dispatch(ctx context.Context, messages ...Notification) error {
	if len(messages) == 0 {
		return nil
	}
	if err := s.notifications.Dispatch(ctx, messages...); err != nil {
		return appErrors.Wrap(err, appErrors.ErrServiceUnavailable.Code, appErrors.ErrServiceUnavailable.Status, "failed to deliver message")
	}
	return nil
}

func (s *IdentityService) audit(ctx context.Context, userID, action string, client ClientInfo, values map[string]interface{}) {
	auditLog(ctx, s.users, s.logger, userID, action, client, values)
}

type auditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

func auditLog(ctx context.Context, repo auditWriter, logger *zap.Logger, userID, action string, client ClientInfo, values map[string]interface{}) {
	var payload []byte
	if len(values) > 0 {
		payload, _ = json.Marshal(values)
	}
	if err := repo.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &userID,
		Action:     action,
		Resource:   "user",
		ResourceID: &userID,
		NewValues:  payload,
		IPAddress:  client.IP,
		UserAgent:  client.UserAgent,
	}); err != nil {
		requestid.Logger(ctx, logger).Warn("failed to record audit log", zap.String("action", action), zap.Error(err))
	}
}
