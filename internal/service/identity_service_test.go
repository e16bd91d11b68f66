package service

import (
	"context"
	"database/sql"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/lob-api/internal/dto"
	"github.com/noah-isme/lob-api/internal/models"
	"github.com/noah-isme/lob-api/pkg/config"
	"github.com/noah-isme/lob-api/pkg/email"
	appErrors "github.com/noah-isme/lob-api/pkg/errors"
	"github.com/noah-isme/lob-api/pkg/phone"
)

type stubUserStore struct {
	users     map[string]*models.User
	roles     map[string][]string
	auditLogs []*models.AuditLog
	updates   int
	deleted   []string
}

func newStubUserStore(users ...*models.User) *stubUserStore {
	s := &stubUserStore{users: map[string]*models.User{}, roles: map[string][]string{}}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *stubUserStore) find(match func(*models.User) bool) (*models.User, error) {
	for _, u := range s.users {
		if match(u) {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *stubUserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	return s.find(func(u *models.User) bool { return u.ID == id })
}

func (s *stubUserStore) FindByUserName(ctx context.Context, userName string) (*models.User, error) {
	return s.find(func(u *models.User) bool { return strings.EqualFold(u.UserName, userName) })
}

func (s *stubUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.find(func(u *models.User) bool { return strings.EqualFold(u.EmailValue(), email) })
}

func (s *stubUserStore) FindByPhoneNumber(ctx context.Context, phone string) (*models.User, error) {
	return s.find(func(u *models.User) bool { return u.PhoneValue() == phone })
}

func (s *stubUserStore) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	s.users[user.ID] = user
	return nil
}

func (s *stubUserStore) Update(ctx context.Context, user *models.User) error {
	if _, ok := s.users[user.ID]; !ok {
		return sql.ErrNoRows
	}
	s.updates++
	s.users[user.ID] = user
	return nil
}

func (s *stubUserStore) Delete(ctx context.Context, id string) error {
	delete(s.users, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubUserStore) GetRoles(ctx context.Context, userID string) ([]string, error) {
	return s.roles[userID], nil
}

func (s *stubUserStore) AddToRole(ctx context.Context, userID, roleName string) error {
	s.roles[userID] = append(s.roles[userID], roleName)
	return nil
}

func (s *stubUserStore) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	s.auditLogs = append(s.auditLogs, log)
	return nil
}

type stubSessionStore struct {
	sessions map[string]*models.UserSession
}

func newStubSessionStore() *stubSessionStore {
	return &stubSessionStore{sessions: map[string]*models.UserSession{}}
}

func (s *stubSessionStore) Create(ctx context.Context, session *models.UserSession) error {
	s.sessions[session.ID] = session
	return nil
}

func (s *stubSessionStore) FindByID(ctx context.Context, id string) (*models.UserSession, error) {
	session, ok := s.sessions[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return session, nil
}

func (s *stubSessionStore) ListByUser(ctx context.Context, userID string) ([]models.UserSession, error) {
	var out []models.UserSession
	for _, session := range s.sessions {
		if session.UserID == userID {
			out = append(out, *session)
		}
	}
	return out, nil
}

func (s *stubSessionStore) CountPrivileged(ctx context.Context, userID string) (int, error) {
	count := 0
	for _, session := range s.sessions {
		if session.UserID == userID && session.Privileged {
			count++
		}
	}
	return count, nil
}

func (s *stubSessionStore) Update(ctx context.Context, session *models.UserSession) error {
	if existing, ok := s.sessions[session.ID]; ok && existing.Privileged {
		session.Privileged = true
	}
	s.sessions[session.ID] = session
	return nil
}

func (s *stubSessionStore) Delete(ctx context.Context, userID, id string) (bool, error) {
	session, ok := s.sessions[id]
	if !ok || session.UserID != userID {
		return false, nil
	}
	delete(s.sessions, id)
	return true, nil
}

type stubNotifier struct {
	sent []Notification
}

func (n *stubNotifier) EmailNotification(user *models.User, template, subject, token, link string) (Notification, error) {
	return Notification{
		Channel: ChannelEmail,
		UserID:  user.ID,
		Email:   email.Message{To: user.EmailValue(), Subject: subject, HTMLBody: token + " " + link},
	}, nil
}

func (n *stubNotifier) SmsNotification(user *models.User, text, token string) Notification {
	return Notification{Channel: ChannelSms, UserID: user.ID, SmsTo: user.PhoneValue(), SmsBody: text}
}

func (n *stubNotifier) PushNotification(userID, title, message string) Notification {
	return Notification{Channel: ChannelPush, UserID: userID}
}

func (n *stubNotifier) Link(page string, query url.Values) string {
	return "https://lob.local" + page + "?" + query.Encode()
}

func (n *stubNotifier) Dispatch(ctx context.Context, notifications ...Notification) error {
	n.sent = append(n.sent, notifications...)
	return nil
}

func (n *stubNotifier) channels() []string {
	out := make([]string, 0, len(n.sent))
	for _, m := range n.sent {
		out = append(out, m.Channel)
	}
	return out
}

var identityTestNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type identityFixture struct {
	svc      *IdentityService
	users    *stubUserStore
	sessions *stubSessionStore
	notifier *stubNotifier
	clock    *time.Time
}

func testIdentityConfig() config.IdentityConfig {
	return config.IdentityConfig{
		OtpTokenLifetime:                2 * time.Minute,
		TwoFactorTokenLifetime:          2 * time.Minute,
		EmailTokenLifetime:              2 * time.Minute,
		PhoneNumberTokenLifetime:        2 * time.Minute,
		ResetPasswordTokenLifetime:      2 * time.Minute,
		ElevatedAccessTokenLifetime:     2 * time.Minute,
		MaxConcurrentPrivilegedSessions: 1,
		MaxFailedAccessAttempts:         3,
		LockoutDuration:                 5 * time.Minute,
		PasswordMinLength:               6,
	}
}

func newIdentityFixture(t *testing.T, cfg config.IdentityConfig, users ...*models.User) *identityFixture {
	t.Helper()
	clock := identityTestNow
	f := &identityFixture{
		users:    newStubUserStore(users...),
		sessions: newStubSessionStore(),
		notifier: &stubNotifier{},
		clock:    &clock,
	}
	now := func() time.Time { return *f.clock }

	tokens := NewUserTokenService("token-secret", "LOB")
	tokens.now = now
	jwtSvc := NewTokenService(TokenConfig{Secret: "jwt-secret", Issuer: "lob"})
	jwtSvc.now = now

	f.svc = NewIdentityService(IdentityDeps{
		Users:         f.users,
		Sessions:      f.sessions,
		Tokens:        tokens,
		JWT:           jwtSvc,
		Notifications: f.notifier,
		Phones:        phone.NewNormalizer("US"),
		Validator:     validator.New(),
		Logger:        zap.NewNop(),
	}, cfg)
	f.svc.now = now
	return f
}

func (f *identityFixture) advance(d time.Duration) {
	*f.clock = f.clock.Add(d)
}

func confirmedUser(t *testing.T, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	hashed := string(hash)
	return &models.User{
		ID:                   "u1",
		UserName:             "alice",
		Email:                models.StringPtr("alice@lob.local"),
		EmailConfirmed:       true,
		PhoneNumber:          models.StringPtr("+12025550123"),
		PhoneNumberConfirmed: true,
		PasswordHash:         &hashed,
		SecurityStamp:        "stamp-1",
		LockoutEnabled:       true,
	}
}

func appErrorCode(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	return appErrors.FromError(err).Code
}

func TestSignUpSendsConfirmationTokens(t *testing.T) {
	f := newIdentityFixture(t, testIdentityConfig())

	err := f.svc.SignUp(context.Background(), dto.SignUpRequest{
		Email:       "bob@lob.local",
		PhoneNumber: "(202) 555-0199",
		Password:    "secret123",
	}, ClientInfo{IP: "127.0.0.1"})
	require.NoError(t, err)

	user, err := f.users.FindByEmail(context.Background(), "bob@lob.local")
	require.NoError(t, err)
	assert.Equal(t, "+12025550199", user.PhoneValue())
	assert.NotEmpty(t, user.UserName)
	assert.NotEmpty(t, user.SecurityStamp)
	assert.NotNil(t, user.EmailTokenRequestedOn)
	assert.NotNil(t, user.PhoneNumberTokenRequestedOn)
	assert.Equal(t, []string{models.RoleBasicUser}, f.users.roles[user.ID])
	assert.Equal(t, []string{ChannelEmail, ChannelSms}, f.notifier.channels())
	require.Len(t, f.users.auditLogs, 1)
	assert.Equal(t, models.AuditActionSignUp, f.users.auditLogs[0].Action)
}

func TestSignUpRejectsDuplicateAndInvalidInput(t *testing.T) {
	f := newIdentityFixture(t, testIdentityConfig(), confirmedUser(t, "secret123"))

	err := f.svc.SignUp(context.Background(), dto.SignUpRequest{Email: "ALICE@lob.local", Password: "secret123"}, ClientInfo{})
	assert.Equal(t, appErrors.ErrDuplicateUser.Code, appErrorCode(t, err))

	err = f.svc.SignUp(context.Background(), dto.SignUpRequest{PhoneNumber: "12", Password: "secret123"}, ClientInfo{})
	assert.Equal(t, appErrors.ErrResourceValidation.Code, appErrorCode(t, err))

	err = f.svc.SignUp(context.Background(), dto.SignUpRequest{Email: "new@lob.local", Password: "abc"}, ClientInfo{})
	assert.Equal(t, appErrors.ErrResourceValidation.Code, appErrorCode(t, err))

	err = f.svc.SignUp(context.Background(), dto.SignUpRequest{Password: "secret123"}, ClientInfo{})
	assert.Equal(t, appErrors.ErrResourceValidation.Code, appErrorCode(t, err))
}

func TestSendConfirmEmailTokenCooldown(t *testing.T) {
	user := confirmedUser(t, "secret123")
	user.EmailConfirmed = false
	f := newIdentityFixture(t, testIdentityConfig(), user)
	ctx := context.Background()

	require.NoError(t, f.svc.SendConfirmEmailToken(ctx, dto.SendEmailTokenRequest{Email: "alice@lob.local"}))

	f.advance(30 * time.Second)
	err := f.svc.SendConfirmEmailToken(ctx, dto.SendEmailTokenRequest{Email: "alice@lob.local"})
	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, appErrors.ErrTooManyRequests.Code, appErr.Code)
	assert.Equal(t, "00:01:30", appErr.Extensions["tryAgainIn"])

	f.advance(90 * time.Second)
	require.NoError(t, f.svc.SendConfirmEmailToken(ctx, dto.SendEmailTokenRequest{Email: "alice@lob.local"}))
	assert.Len(t, f.notifier.sent, 2)
}

func TestConfirmEmailSignsIn(t *testing.T) {
	user := confirmedUser(t, "secret123")
	user.EmailConfirmed = false
	user.PhoneNumberConfirmed = false
	f := newIdentityFixture(t, testIdentityConfig(), user)
	ctx := context.Background()

	require.NoError(t, f.svc.SendConfirmEmailToken(ctx, dto.SendEmailTokenRequest{Email: "alice@lob.local"}))
	token, err := f.svc.tokens.Generate(user, Purpose(PurposeVerifyEmail, user.EmailValue(), user.EmailTokenRequestedOn), *user.EmailTokenRequestedOn)
	require.NoError(t, err)

	_, err = f.svc.ConfirmEmail(ctx, dto.ConfirmEmailRequest{Email: "alice@lob.local", Token: "000000"}, ClientInfo{})
	if token != "000000" {
		assert.Equal(t, appErrors.ErrInvalidToken.Code, appErrorCode(t, err))
	}

	res, err := f.svc.ConfirmEmail(ctx, dto.ConfirmEmailRequest{Email: "alice@lob.local", Token: token}, ClientInfo{Country: "US", City: "Austin"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.False(t, res.RequiresTwoFactor)
	assert.True(t, user.EmailConfirmed)
	assert.Nil(t, user.EmailTokenRequestedOn)
	assert.Nil(t, user.OtpRequestedOn)
	require.Len(t, f.sessions.sessions, 1)
	for _, session := range f.sessions.sessions {
		assert.Equal(t, "US, Austin", session.Address)
		assert.True(t, session.Privileged)
	}

	_, err = f.svc.ConfirmEmail(ctx, dto.ConfirmEmailRequest{Email: "alice@lob.local", Token: token}, ClientInfo{})
	assert.Equal(t, appErrors.ErrEmailConfirmed.Code, appErrorCode(t, err))
}

func TestSignInWithPassword(t *testing.T) {
	f := newIdentityFixture(t, testIdentityConfig(), confirmedUser(t, "secret123"))

	res, err := f.svc.SignIn(context.Background(), dto.SignInRequest{
		IdentityRequest: dto.IdentityRequest{UserName: "Alice"},
		Password:        "secret123",
		DeviceInfo:      "firefox",
	}, ClientInfo{IP: "10.0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", res.TokenType)

	claims, err := f.svc.jwt.ValidateAccessToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.True(t, claims.Privileged)
	assert.False(t, claims.Elevated)
}

func TestSignInUnknownUser(t *testing.T) {
	f := newIdentityFixture(t, testIdentityConfig())
	_, err := f.svc.SignIn(context.Background(), dto.SignInRequest{IdentityRequest: dto.IdentityRequest{Email: "ghost@lob.local"}, Password: "x"}, ClientInfo{})
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrorCode(t, err))
}

func TestSignInUnconfirmedUser(t *testing.T) {
	user := confirmedUser(t, "secret123")
	user.EmailConfirmed = false
	user.PhoneNumberConfirmed = false
	f := newIdentityFixture(t, testIdentityConfig(), user)

	_, err := f.svc.SignIn(context.Background(), dto.SignInRequest{IdentityRequest: dto.IdentityRequest{Email: "alice@lob.local"}, Password: "secret123"}, ClientInfo{})
	assert.Equal(t, appErrors.ErrUserNotConfirmed.Code, appErrorCode(t, err))
}

func TestSignInLocksOutAfterRepeatedFailures(t *testing.T) {
	user := confirmedUser(t, "secret123")
	f := newIdentityFixture(t, testIdentityConfig(), user)
	ctx := context.Background()
	req := dto.SignInRequest{IdentityRequest: dto.IdentityRequest{Email: "alice@lob.local"}, Password: "wrong"}

	for i := 0; i < 2; i++ {
		_, err := f.svc.SignIn(ctx, req, ClientInfo{})
		assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrorCode(t, err))
	}
	_, err := f.svc.SignIn(ctx, req, ClientInfo{})
	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, appErrors.ErrUserLockedOut.Code, appErr.Code)
	assert.Equal(t, "00:05:00", appErr.Extensions["tryAgainIn"])

	req.Password = "secret123"
	_, err = f.svc.SignIn(ctx, req, ClientInfo{})
	assert.Equal(t, appErrors.ErrUserLockedOut.Code, appErrorCode(t, err))

	f.advance(6 * time.Minute)
	_, err = f.svc.SignIn(ctx, req, ClientInfo{})
	require.NoError(t, err)
}

func TestSignInRequiresTwoFactor(t *testing.T) {
	user := confirmedUser(t, "secret123")
	user.TwoFactorEnabled = true
	f := newIdentityFixture(t, testIdentityConfig(), user)
	ctx := context.Background()
	codes, err := f.svc.tokens.GenerateRecoveryCodes(user)
	require.NoError(t, err)

	req := dto.SignInRequest{IdentityRequest: dto.IdentityRequest{Email: "alice@lob.local"}, Password: "secret123"}
	res, err := f.svc.SignIn(ctx, req, ClientInfo{})
	require.NoError(t, err)
	assert.True(t, res.RequiresTwoFactor)
	assert.Empty(t, res.AccessToken)
	assert.Empty(t, f.sessions.sessions)

	req.TwoFactorCode = "bad-code"
	_, err = f.svc.SignIn(ctx, req, ClientInfo{})
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrorCode(t, err))
	assert.Equal(t, 1, user.AccessFailedCount)

	req.TwoFactorCode = codes[0]
	res, err = f.svc.SignIn(ctx, req, ClientInfo{})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, 9, CountRecoveryCodes(user))
	assert.Equal(t, 0, user.AccessFailedCount)

	claims, err := f.svc.jwt.ValidateAccessToken(res.AccessToken)
	require.NoError(t, err)
	assert.True(t, claims.Elevated)
}

func TestSendOtpAndSignIn(t *testing.T) {
	user := confirmedUser(t, "secret123")
	f := newIdentityFixture(t, testIdentityConfig(), user)
	ctx := context.Background()

	require.NoError(t, f.svc.SendOtp(ctx, dto.SendOtpRequest{IdentityRequest: dto.IdentityRequest{Email: "alice@lob.local"}}, ""))
	assert.Equal(t, []string{ChannelEmail, ChannelSms}, f.notifier.channels())
	require.NotNil(t, user.OtpRequestedOn)

	otp, err := f.svc.tokens.Generate(user, Purpose(PurposeOtpSms, "", user.OtpRequestedOn), *user.OtpRequestedOn)
	require.NoError(t, err)

	f.advance(time.Minute)
	res, err := f.svc.SignIn(ctx, dto.SignInRequest{IdentityRequest: dto.IdentityRequest{PhoneNumber: "+1 202 555 0123"}, Otp: otp}, ClientInfo{})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.Nil(t, user.OtpRequestedOn)
}

func TestSendOtpExpiredCodeFails(t *testing.T) {
	user := confirmedUser(t, "secret123")
	f := newIdentityFixture(t, testIdentityConfig(), user)
	ctx := context.Background()

	require.NoError(t, f.svc.SendOtp(ctx, dto.SendOtpRequest{IdentityRequest: dto.IdentityRequest{Email: "alice@lob.local"}}, ""))
	otp, err := f.svc.tokens.Generate(user, Purpose(PurposeOtpEmail, "", user.OtpRequestedOn), *user.OtpRequestedOn)
	require.NoError(t, err)

	f.advance(3 * time.Minute)
	_, err = f.svc.SignIn(ctx, dto.SignInRequest{IdentityRequest: dto.IdentityRequest{Email: "alice@lob.local"}, Otp: otp}, ClientInfo{})
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrorCode(t, err))
}

func TestSendTwoFactorTokenSkipsFirstStepChannel(t *testing.T) {
	user := confirmedUser(t, "secret123")
	user.TwoFactorEnabled = true
	f := newIdentityFixture(t, testIdentityConfig(), user)
	ctx := context.Background()

	require.NoError(t, f.svc.SendOtp(ctx, dto.SendOtpRequest{IdentityRequest: dto.IdentityRequest{Email: "alice@lob.local"}}, ""))
	otp, err := f.svc.tokens.Generate(user, Purpose(PurposeOtpEmail, "", user.OtpRequestedOn), *user.OtpRequestedOn)
	require.NoError(t, err)
	f.notifier.sent = nil

	require.NoError(t, f.svc.SendTwoFactorToken(ctx, dto.SignInRequest{IdentityRequest: dto.IdentityRequest{Email: "alice@lob.local"}, Otp: otp}))
	assert.Equal(t, []string{ChannelSms, ChannelPush}, f.notifier.channels())
	require.NotNil(t, user.TwoFactorTokenRequestedOn)

	code, err := f.svc.tokens.Generate(user, Purpose(PurposeTwoFactor, "", user.TwoFactorTokenRequestedOn), *user.TwoFactorTokenRequestedOn)
	require.NoError(t, err)
	res, err := f.svc.SignIn(ctx, dto.SignInRequest{IdentityRequest: dto.IdentityRequest{Email: "alice@lob.local"}, Password: "secret123", TwoFactorCode: code}, ClientInfo{})
	require.NoError(t, err)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Nil(t, user.TwoFactorTokenRequestedOn)
}

func TestSendTwoFactorTokenRequiresTwoFactor(t *testing.T) {
	f := newIdentityFixture(t, testIdentityConfig(), confirmedUser(t, "secret123"))
	err := f.svc.SendTwoFactorToken(context.Background(), dto.SignInRequest{IdentityRequest: dto.IdentityRequest{Email: "alice@lob.local"}, Password: "secret123"})
	assert.Equal(t, appErrors.ErrTwoFactorNotEnabled.Code, appErrorCode(t, err))
}

func TestPrivilegedSessionLimit(t *testing.T) {
	f := newIdentityFixture(t, testIdentityConfig(), confirmedUser(t, "secret123"))
	ctx := context.Background()
	req := dto.SignInRequest{IdentityRequest: dto.IdentityRequest{Email: "alice@lob.local"}, Password: "secret123"}

	first, err := f.svc.SignIn(ctx, req, ClientInfo{})
	require.NoError(t, err)
	second, err := f.svc.SignIn(ctx, req, ClientInfo{})
	require.NoError(t, err)

	c1, err := f.svc.jwt.ValidateAccessToken(first.AccessToken)
	require.NoError(t, err)
	c2, err := f.svc.jwt.ValidateAccessToken(second.AccessToken)
	require.NoError(t, err)
	assert.True(t, c1.Privileged)
	assert.False(t, c2.Privileged)

	cfg := testIdentityConfig()
	cfg.MaxConcurrentPrivilegedSessions = -1
	unlimited := newIdentityFixture(t, cfg, confirmedUser(t, "secret123"))
	for i := 0; i < 3; i++ {
		res, err := unlimited.svc.SignIn(ctx, req, ClientInfo{})
		require.NoError(t, err)
		claims, err := unlimited.svc.jwt.ValidateAccessToken(res.AccessToken)
		require.NoError(t, err)
		assert.True(t, claims.Privileged)
	}
}

func TestRefreshRotatesTokens(t *testing.T) {
	user := confirmedUser(t, "secret123")
	f := newIdentityFixture(t, testIdentityConfig(), user)
	ctx := context.Background()

	res, err := f.svc.SignIn(ctx, dto.SignInRequest{IdentityRequest: dto.IdentityRequest{Email: "alice@lob.local"}, Password: "secret123"}, ClientInfo{})
	require.NoError(t, err)

	f.advance(time.Minute)
	refreshed, err := f.svc.Refresh(ctx, dto.RefreshRequest{RefreshToken: res.RefreshToken, DeviceInfo: "chrome"}, ClientInfo{IP: "10.0.0.2"})
	require.NoError(t, err)
	assert.NotEqual(t, res.AccessToken, refreshed.AccessToken)

	for _, session := range f.sessions.sessions {
		require.NotNil(t, session.RenewedOn)
		assert.Equal(t, "10.0.0.2", session.IP)
		assert.Equal(t, "chrome", session.DeviceInfo)
	}
}

func TestRefreshKeepsPrivilegeWhenLimitReached(t *testing.T) {
	user := confirmedUser(t, "secret123")
	f := newIdentityFixture(t, testIdentityConfig(), user)
	ctx := context.Background()
	req := dto.SignInRequest{IdentityRequest: dto.IdentityRequest{Email: "alice@lob.local"}, Password: "secret123"}

	first, err := f.svc.SignIn(ctx, req, ClientInfo{})
	require.NoError(t, err)
	second, err := f.svc.SignIn(ctx, req, ClientInfo{})
	require.NoError(t, err)
	f.sessions.sessions["tablet"] = &models.UserSession{ID: "tablet", UserID: "u1", Privileged: true, StartedOn: identityTestNow}

	count, err := f.sessions.CountPrivileged(ctx, "u1")
	require.NoError(t, err)
	require.Greater(t, count, testIdentityConfig().MaxConcurrentPrivilegedSessions)

	f.advance(time.Minute)
	refreshed, err := f.svc.Refresh(ctx, dto.RefreshRequest{RefreshToken: first.RefreshToken}, ClientInfo{})
	require.NoError(t, err)
	claims, err := f.svc.jwt.ValidateAccessToken(refreshed.AccessToken)
	require.NoError(t, err)
	assert.True(t, claims.Privileged)
	assert.True(t, f.sessions.sessions[claims.SessionID].Privileged)

	refreshed, err = f.svc.Refresh(ctx, dto.RefreshRequest{RefreshToken: second.RefreshToken}, ClientInfo{})
	require.NoError(t, err)
	claims, err = f.svc.jwt.ValidateAccessToken(refreshed.AccessToken)
	require.NoError(t, err)
	assert.False(t, claims.Privileged)
	assert.False(t, f.sessions.sessions[claims.SessionID].Privileged)
}

func TestRefreshRejectsChangedSecurityStamp(t *testing.T) {
	user := confirmedUser(t, "secret123")
	f := newIdentityFixture(t, testIdentityConfig(), user)
	ctx := context.Background()

	res, err := f.svc.SignIn(ctx, dto.SignInRequest{IdentityRequest: dto.IdentityRequest{Email: "alice@lob.local"}, Password: "secret123"}, ClientInfo{})
	require.NoError(t, err)
	require.Len(t, f.sessions.sessions, 1)

	user.SecurityStamp = "stamp-2"
	_, err = f.svc.Refresh(ctx, dto.RefreshRequest{RefreshToken: res.RefreshToken}, ClientInfo{})
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrorCode(t, err))
	assert.Empty(t, f.sessions.sessions)

	_, err = f.svc.Refresh(ctx, dto.RefreshRequest{RefreshToken: res.AccessToken}, ClientInfo{})
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrorCode(t, err))
}

func TestRefreshWithElevatedAccessToken(t *testing.T) {
	user := confirmedUser(t, "secret123")
	f := newIdentityFixture(t, testIdentityConfig(), user)
	ctx := context.Background()

	res, err := f.svc.SignIn(ctx, dto.SignInRequest{IdentityRequest: dto.IdentityRequest{Email: "alice@lob.local"}, Password: "secret123"}, ClientInfo{})
	require.NoError(t, err)
	claims, err := f.svc.jwt.ValidateAccessToken(res.AccessToken)
	require.NoError(t, err)

	requestedOn := f.clock.Truncate(time.Second)
	user.ElevatedAccessTokenRequestedOn = &requestedOn
	code, err := f.svc.tokens.Generate(user, Purpose(PurposeElevatedAccess, claims.SessionID, &requestedOn), requestedOn)
	require.NoError(t, err)

	refreshed, err := f.svc.Refresh(ctx, dto.RefreshRequest{RefreshToken: res.RefreshToken, ElevatedAccessToken: code}, ClientInfo{})
	require.NoError(t, err)
	elevated, err := f.svc.jwt.ValidateAccessToken(refreshed.AccessToken)
	require.NoError(t, err)
	assert.True(t, elevated.Elevated)
	assert.Nil(t, user.ElevatedAccessTokenRequestedOn)
}

func TestResetPasswordChangesStamp(t *testing.T) {
	user := confirmedUser(t, "secret123")
	f := newIdentityFixture(t, testIdentityConfig(), user)
	ctx := context.Background()

	require.NoError(t, f.svc.SendResetPasswordToken(ctx, dto.SendResetPasswordTokenRequest{Email: "alice@lob.local"}))
	assert.Equal(t, []string{ChannelEmail, ChannelSms}, f.notifier.channels())
	token, err := f.svc.tokens.Generate(user, Purpose(PurposeResetPassword, "", user.ResetPasswordTokenRequestedOn), *user.ResetPasswordTokenRequestedOn)
	require.NoError(t, err)

	require.NoError(t, f.svc.ResetPassword(ctx, dto.ResetPasswordRequest{Email: "alice@lob.local", Token: token, Password: "newsecret"}, ClientInfo{}))
	assert.NotEqual(t, "stamp-1", user.SecurityStamp)
	assert.Nil(t, user.ResetPasswordTokenRequestedOn)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte("newsecret")))

	err = f.svc.ResetPassword(ctx, dto.ResetPasswordRequest{Email: "alice@lob.local", Token: token, Password: "another"}, ClientInfo{})
	assert.Equal(t, appErrors.ErrInvalidToken.Code, appErrorCode(t, err))
}

func TestResendDelayAndTimeSpan(t *testing.T) {
	now := identityTestNow
	assert.Equal(t, time.Duration(0), resendDelay(now, nil, time.Minute))
	requested := now.Add(-30 * time.Second)
	assert.Equal(t, -30*time.Second, resendDelay(now, &requested, time.Minute))
	assert.Equal(t, "01:02:03", formatTimeSpan(time.Hour+2*time.Minute+3*time.Second))
	assert.Equal(t, "00:00:00", formatTimeSpan(-time.Second))
}
