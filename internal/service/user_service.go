package service

import (
	"context"
	"database/sql"
	"errors"
	"path"
	"sort"
	"strconv"
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
	"github.com/noah-isme/lob-api/pkg/export"
	"github.com/noah-isme/lob-api/pkg/middleware/requestid"
)

type accountRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
	GetRoles(ctx context.Context, userID string) ([]string, error)
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type credentialManager interface {
	BeginRegistration(ctx context.Context, user *models.User) (*protocol.CredentialCreation, error)
	FinishRegistration(ctx context.Context, user *models.User, body []byte) (*models.WebAuthnCredential, error)
	ListCredentials(ctx context.Context, userID string) ([]dto.WebAuthnCredentialResponse, error)
	DeleteCredential(ctx context.Context, userID, id string) error
	DeleteAllCredentials(ctx context.Context, userID string) error
}

type pushSubscriptionRepository interface {
	Upsert(ctx context.Context, sub *models.PushSubscription) error
	DeleteByEndpoint(ctx context.Context, userID, endpoint string) error
}

type blobDeleter interface {
	Delete(ctx context.Context, path string) error
}

// UserServiceConfig carries the settings UserService needs.
type UserServiceConfig struct {
	Identity         config.IdentityConfig
	ProfileImagesDir string
}

// UserDeps groups the collaborators of UserService.
type UserDeps struct {
	Users         accountRepository
	Sessions      sessionRepository
	Tokens        *UserTokenService
	Notifications notificationDispatcher
	Credentials   credentialManager
	Pushes        pushSubscriptionRepository
	Blobs         blobDeleter
	Exporter      *export.CSVExporter
	Validator     *validator.Validate
	Logger        *zap.Logger
}

// UserService handles the account workflows of the signed in user.
type UserService struct {
	users         accountRepository
	sessions      sessionRepository
	tokens        *UserTokenService
	notifications notificationDispatcher
	credentials   credentialManager
	pushes        pushSubscriptionRepository
	blobs         blobDeleter
	exporter      *export.CSVExporter
	validator     *validator.Validate
	logger        *zap.Logger
	config        UserServiceConfig
	now           func() time.Time
}

// NewUserService creates an instance of UserService.
func NewUserService(deps UserDeps, cfg UserServiceConfig) *UserService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Validator == nil {
		deps.Validator = validator.New()
	}
	if deps.Exporter == nil {
		deps.Exporter = export.NewCSVExporter()
	}
	return &UserService{
		users:         deps.Users,
		sessions:      deps.Sessions,
		tokens:        deps.Tokens,
		notifications: deps.Notifications,
		credentials:   deps.Credentials,
		pushes:        deps.Pushes,
		blobs:         deps.Blobs,
		exporter:      deps.Exporter,
		validator:     deps.Validator,
		logger:        deps.Logger,
		config:        cfg,
		now:           time.Now,
	}
}

// GetCurrentUser returns the profile of the caller.
func (s *UserService) GetCurrentUser(ctx context.Context, claims *models.JWTClaims) (*dto.UserResponse, error) {
	user, err := s.load(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	resp := dto.NewUserResponse(user, claims.SessionID)
	return &resp, nil
}

// Update replaces the editable profile fields.
func (s *UserService) Update(ctx context.Context, claims *models.JWTClaims, req dto.EditUserRequest, client ClientInfo) (*dto.UserResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.FromValidation(err, "invalid user payload")
	}
	user, err := s.load(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if req.FullName != nil {
		trimmed := strings.TrimSpace(*req.FullName)
		req.FullName = models.StringPtr(trimmed)
	}
	user.FullName = req.FullName
	user.Gender = req.Gender
	user.BirthDate = req.BirthDate
	if err := s.users.Update(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}
	s.audit(ctx, user.ID, models.AuditActionUserUpdate, client, nil)
	resp := dto.NewUserResponse(user, claims.SessionID)
	return &resp, nil
}

// GetUserSessions lists the sessions of the caller, most recently seen first.
func (s *UserService) GetUserSessions(ctx context.Context, claims *models.JWTClaims) ([]dto.UserSessionResponse, error) {
	sessions, err := s.sessions.ListByUser(ctx, claims.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list user sessions")
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].LastSeen().After(sessions[j].LastSeen())
	})
	out := make([]dto.UserSessionResponse, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, dto.UserSessionResponse{
			ID:         session.ID,
			IP:         session.IP,
			Address:    session.Address,
			DeviceInfo: session.DeviceInfo,
			Privileged: session.Privileged,
			StartedOn:  session.StartedOn,
			RenewedOn:  session.RenewedOn,
			IsCurrent:  session.ID == claims.SessionID,
		})
	}
	return out, nil
}

// RevokeSession signs another device out. The current session must use SignOut instead.
func (s *UserService) RevokeSession(ctx context.Context, claims *models.JWTClaims, sessionID string, client ClientInfo) error {
	if sessionID == claims.SessionID {
		return appErrors.Clone(appErrors.ErrBadRequest, "use sign out to end the current session")
	}
	deleted, err := s.sessions.Delete(ctx, claims.UserID, sessionID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to revoke session")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "user session not found")
	}
	s.audit(ctx, claims.UserID, models.AuditActionSessionRevoke, client, map[string]interface{}{"session_id": sessionID})
	return nil
}

// SignOut deletes the current session, which invalidates its refresh token.
func (s *UserService) SignOut(ctx context.Context, claims *models.JWTClaims, client ClientInfo) error {
	if _, err := s.sessions.Delete(ctx, claims.UserID, claims.SessionID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign out")
	}
	s.audit(ctx, claims.UserID, models.AuditActionSignOut, client, map[string]interface{}{"session_id": claims.SessionID})
	return nil
}

// ChangePassword sets a new password. The old password is required when one is set. The security
// stamp is rotated so refresh tokens of other sessions stop working.
func (s *UserService) ChangePassword(ctx context.Context, claims *models.JWTClaims, req dto.ChangePasswordRequest, client ClientInfo) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.FromValidation(err, "invalid change password payload")
	}
	user, err := s.load(ctx, claims.UserID)
	if err != nil {
		return err
	}
	if user.HasPassword() && bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.OldPassword)) != nil {
		return appErrors.Clone(appErrors.ErrResourceValidation, "").WithField("oldPassword", "oldPassword is incorrect")
	}
	if len(req.NewPassword) < s.config.Identity.PasswordMinLength {
		return appErrors.Clone(appErrors.ErrResourceValidation, "").WithField("newPassword", "newPassword is too short")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	hashed := string(hash)
	user.PasswordHash = &hashed
	user.SecurityStamp = uuid.NewString()
	if err := s.users.Update(ctx, user); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}
	s.audit(ctx, user.ID, models.AuditActionPasswordChange, client, nil)
	return nil
}

// SendElevatedAccessToken sends a code that upgrades the current session to elevated on refresh.
func (s *UserService) SendElevatedAccessToken(ctx context.Context, claims *models.JWTClaims) error {
	user, err := s.load(ctx, claims.UserID)
	if err != nil {
		return err
	}
	now := s.now().UTC()
	if delay := resendDelay(now, user.ElevatedAccessTokenRequestedOn, s.config.Identity.ElevatedAccessTokenLifetime); delay < 0 {
		return tooManyRequests("wait before requesting another elevated access token", delay)
	}
	requestedOn := now.Truncate(time.Second)
	user.ElevatedAccessTokenRequestedOn = &requestedOn
	if err := s.users.Update(ctx, user); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}
	token, err := s.tokens.Generate(user, Purpose(PurposeElevatedAccess, claims.SessionID, &requestedOn), requestedOn)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate elevated access token")
	}

	var messages []Notification
	if user.EmailConfirmed {
		msg, err := s.notifications.EmailNotification(user, email.TemplateElevatedAccess, "Confirm it's you", token, "")
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render email")
		}
		messages = append(messages, msg)
	}
	text := "Your verification code is " + token
	if user.PhoneNumberConfirmed {
		messages = append(messages, s.notifications.SmsNotification(user, text, token))
	}
	messages = append(messages, s.notifications.PushNotification(user.ID, "Verification code", text))
	if err := s.notifications.Dispatch(ctx, messages...); err != nil {
		return appErrors.Wrap(err, appErrors.ErrServiceUnavailable.Code, appErrors.ErrServiceUnavailable.Status, "failed to deliver message")
	}
	return nil
}

// TwoFactorAuth reports and changes authenticator app settings. A shared key is created on first use.
// Enabling, disabling or resetting the key rotates the security stamp, so refresh tokens issued
// before the change are rejected.
func (s *UserService) TwoFactorAuth(ctx context.Context, claims *models.JWTClaims, req dto.TwoFactorAuthRequest, client ClientInfo) (*dto.TwoFactorAuthResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.FromValidation(err, "invalid two factor payload")
	}
	user, err := s.load(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}

	changed := false
	rotateStamp := false
	resp := &dto.TwoFactorAuthResponse{}

	if req.ResetSharedKey || user.AuthenticatorKey == nil || *user.AuthenticatorKey == "" {
		key, err := s.tokens.NewAuthenticatorKey(user)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create authenticator key")
		}
		secret := key.Secret()
		user.AuthenticatorKey = &secret
		if req.ResetSharedKey {
			user.TwoFactorEnabled = false
			rotateStamp = true
		}
		changed = true
	}

	if req.Enable != nil {
		if *req.Enable && !user.TwoFactorEnabled {
			if !s.tokens.VerifyAuthenticator(user, req.Code) {
				return nil, appErrors.Clone(appErrors.ErrInvalidToken, "").WithData("UserId", user.ID)
			}
			user.TwoFactorEnabled = true
			if CountRecoveryCodes(user) == 0 {
				req.ResetRecoveryCodes = true
			}
			changed = true
			rotateStamp = true
		} else if !*req.Enable && user.TwoFactorEnabled {
			user.TwoFactorEnabled = false
			changed = true
			rotateStamp = true
		}
	}

	if req.ResetRecoveryCodes {
		codes, err := s.tokens.GenerateRecoveryCodes(user)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate recovery codes")
		}
		resp.RecoveryCodes = codes
		changed = true
	}

	if rotateStamp {
		user.SecurityStamp = uuid.NewString()
	}
	if changed {
		if err := s.users.Update(ctx, user); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
		}
		s.audit(ctx, user.ID, models.AuditActionTwoFactor, client, map[string]interface{}{"enabled": user.TwoFactorEnabled})
	}

	resp.SharedKey = formatSharedKey(*user.AuthenticatorKey)
	resp.AuthenticatorURI = s.tokens.AuthenticatorURI(user, *user.AuthenticatorKey)
	resp.RecoveryCodesLeft = CountRecoveryCodes(user)
	resp.IsTwoFactorEnabled = user.TwoFactorEnabled
	return resp, nil
}

// formatSharedKey groups the key in blocks of four for manual entry.
func formatSharedKey(key string) string {
	key = strings.ToLower(key)
	var b strings.Builder
	for i, r := range key {
		if i > 0 && i%4 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Delete removes the account with its profile image. Sessions, credentials and push subscriptions
// are removed by the database.
func (s *UserService) Delete(ctx context.Context, claims *models.JWTClaims, client ClientInfo) error {
	user, err := s.load(ctx, claims.UserID)
	if err != nil {
		return err
	}
	if user.ProfileImageName != nil && s.blobs != nil {
		if err := s.blobs.Delete(ctx, ProfileImagePath(s.config.ProfileImagesDir, *user.ProfileImageName)); err != nil {
			requestid.Logger(ctx, s.logger).Warn("failed to delete profile image", zap.String("user_id", user.ID), zap.Error(err))
		}
	}
	if err := s.users.Delete(ctx, user.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete user")
	}
	s.audit(ctx, user.ID, models.AuditActionUserDelete, client, nil)
	s.logger.Info("user deleted", zap.String("user_id", user.ID))
	return nil
}

// DownloadPersonalData renders the stored account data as CSV.
func (s *UserService) DownloadPersonalData(ctx context.Context, claims *models.JWTClaims) ([]byte, error) {
	user, err := s.load(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	roles, err := s.users.GetRoles(ctx, user.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user roles")
	}
	sessions, err := s.sessions.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list user sessions")
	}
	var credentials []dto.WebAuthnCredentialResponse
	if s.credentials != nil {
		if credentials, err = s.credentials.ListCredentials(ctx, user.ID); err != nil {
			return nil, err
		}
	}

	profile := export.Table{
		Name: "User",
		Headers: []string{"Id", "UserName", "Email", "EmailConfirmed", "PhoneNumber", "PhoneNumberConfirmed",
			"FullName", "Gender", "BirthDate", "TwoFactorEnabled", "Roles", "CreatedAt"},
		Rows: [][]string{{
			user.ID, user.UserName, user.EmailValue(), strconv.FormatBool(user.EmailConfirmed), user.PhoneValue(),
			strconv.FormatBool(user.PhoneNumberConfirmed), derefString(user.FullName), genderName(user.Gender),
			formatDate(user.BirthDate), strconv.FormatBool(user.TwoFactorEnabled), strings.Join(roles, ";"),
			user.CreatedAt.UTC().Format(time.RFC3339),
		}},
	}
	sessionTable := export.Table{
		Name:    "Sessions",
		Headers: []string{"Id", "IP", "Address", "DeviceInfo", "Privileged", "StartedOn", "RenewedOn"},
	}
	for _, session := range sessions {
		renewed := ""
		if session.RenewedOn != nil {
			renewed = session.RenewedOn.UTC().Format(time.RFC3339)
		}
		sessionTable.Rows = append(sessionTable.Rows, []string{
			session.ID, session.IP, session.Address, session.DeviceInfo, strconv.FormatBool(session.Privileged),
			session.StartedOn.UTC().Format(time.RFC3339), renewed,
		})
	}
	credentialTable := export.Table{
		Name:    "WebAuthnCredentials",
		Headers: []string{"Id", "Name", "Transports", "CreatedOn"},
	}
	for _, c := range credentials {
		credentialTable.Rows = append(credentialTable.Rows, []string{c.ID, c.Name, c.Transports, c.CreatedOn.UTC().Format(time.RFC3339)})
	}

	data, err := s.exporter.Render(profile, sessionTable, credentialTable)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render personal data")
	}
	return data, nil
}

// GetWebAuthnCredentialOptions starts registering a new authenticator.
func (s *UserService) GetWebAuthnCredentialOptions(ctx context.Context, claims *models.JWTClaims) (*protocol.CredentialCreation, error) {
	user, err := s.load(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	return s.credentials.BeginRegistration(ctx, user)
}

// CreateWebAuthnCredential finishes registering an authenticator.
func (s *UserService) CreateWebAuthnCredential(ctx context.Context, claims *models.JWTClaims, body []byte, client ClientInfo) (*dto.WebAuthnCredentialResponse, error) {
	user, err := s.load(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	cred, err := s.credentials.FinishRegistration(ctx, user, body)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, user.ID, models.AuditActionTwoFactor, client, map[string]interface{}{"webauthn": "registered"})
	resp := dto.WebAuthnCredentialResponse{
		ID:         encodeCredentialID(cred.ID),
		Name:       derefString(cred.Name),
		Transports: cred.Transports,
		CreatedOn:  cred.CreatedOn,
	}
	return &resp, nil
}

// ListWebAuthnCredentials lists the authenticators of the caller.
func (s *UserService) ListWebAuthnCredentials(ctx context.Context, claims *models.JWTClaims) ([]dto.WebAuthnCredentialResponse, error) {
	return s.credentials.ListCredentials(ctx, claims.UserID)
}

// DeleteWebAuthnCredential removes one authenticator of the caller.
func (s *UserService) DeleteWebAuthnCredential(ctx context.Context, claims *models.JWTClaims, id string) error {
	return s.credentials.DeleteCredential(ctx, claims.UserID, id)
}

// DeleteAllWebAuthnCredentials removes every authenticator of the caller.
func (s *UserService) DeleteAllWebAuthnCredentials(ctx context.Context, claims *models.JWTClaims) error {
	return s.credentials.DeleteAllCredentials(ctx, claims.UserID)
}

// SubscribePush registers a browser push endpoint for the caller.
func (s *UserService) SubscribePush(ctx context.Context, claims *models.JWTClaims, req dto.PushSubscriptionRequest, userAgent string) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.FromValidation(err, "invalid push subscription")
	}
	sub := &models.PushSubscription{
		UserID:    claims.UserID,
		Endpoint:  req.Endpoint,
		P256dh:    req.P256dh,
		Auth:      req.Auth,
		UserAgent: userAgent,
	}
	if err := s.pushes.Upsert(ctx, sub); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save push subscription")
	}
	return nil
}

// UnsubscribePush removes a browser push endpoint of the caller.
func (s *UserService) UnsubscribePush(ctx context.Context, claims *models.JWTClaims, req dto.UnsubscribePushRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.FromValidation(err, "invalid push subscription")
	}
	if err := s.pushes.DeleteByEndpoint(ctx, claims.UserID, req.Endpoint); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete push subscription")
	}
	return nil
}

func (s *UserService) load(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUserNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

func (s *UserService) audit(ctx context.Context, userID, action string, client ClientInfo, values map[string]interface{}) {
	auditLog(ctx, s.users, s.logger, userID, action, client, values)
}

// ProfileImagePath joins the profile image folder and blob name.
func ProfileImagePath(dir, name string) string {
	return path.Join(dir, name)
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func genderName(g *models.Gender) string {
	if g == nil {
		return ""
	}
	return g.String()
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
