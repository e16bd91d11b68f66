package service

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/lob-api/internal/models"
	"github.com/noah-isme/lob-api/pkg/email"
	"github.com/noah-isme/lob-api/pkg/jobs"
	"github.com/noah-isme/lob-api/pkg/push"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []email.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg email.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type recordingSms struct {
	mu   sync.Mutex
	sent map[string]string
}

func (s *recordingSms) Send(_ context.Context, to, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent[to] = body
	return nil
}

type stubPushSender struct {
	enabled bool
	gone    map[string]bool
	sent    []string
}

func (s *stubPushSender) Enabled() bool { return s.enabled }

func (s *stubPushSender) Send(_ context.Context, sub push.Subscription, _ push.Payload) error {
	if s.gone[sub.Endpoint] {
		return push.ErrSubscriptionGone
	}
	s.sent = append(s.sent, sub.Endpoint)
	return nil
}

type stubSubscriptions struct {
	subs    []models.PushSubscription
	deleted []string
}

func (s *stubSubscriptions) ListByUser(_ context.Context, userID string) ([]models.PushSubscription, error) {
	var out []models.PushSubscription
	for _, sub := range s.subs {
		if sub.UserID == userID {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (s *stubSubscriptions) DeleteByEndpoint(_ context.Context, _ string, endpoint string) error {
	s.deleted = append(s.deleted, endpoint)
	return nil
}

type notificationFixture struct {
	svc    *NotificationService
	mailer *recordingMailer
	sms    *recordingSms
	pushes *stubPushSender
	subs   *stubSubscriptions
}

func newNotificationFixture() *notificationFixture {
	f := &notificationFixture{
		mailer: &recordingMailer{},
		sms:    &recordingSms{sent: map[string]string{}},
		pushes: &stubPushSender{enabled: true, gone: map[string]bool{}},
		subs:   &stubSubscriptions{},
	}
	f.svc = NewNotificationService(NotificationConfig{WebAppURL: "https://app.lob.local"}, f.mailer, f.sms, f.pushes, f.subs, NewMetricsService(), zap.NewNop())
	return f
}

func notifiedUser() *models.User {
	mail := "alice@lob.local"
	phone := "+12025550199"
	return &models.User{ID: "u1", UserName: "alice", Email: &mail, PhoneNumber: &phone}
}

func TestDispatchDeliversEveryChannel(t *testing.T) {
	f := newNotificationFixture()
	user := notifiedUser()

	mail, err := f.svc.EmailNotification(user, email.TemplateOtp, "Your sign-in code", "123456", "")
	require.NoError(t, err)
	assert.Equal(t, "alice@lob.local", mail.Email.To)
	assert.Contains(t, mail.Email.HTMLBody, "123456")

	sms := f.svc.SmsNotification(user, "Your sign-in code is 123456", "123456")
	assert.Equal(t, "Your sign-in code is 123456\n@app.lob.local #123456", sms.SmsBody)

	require.NoError(t, f.svc.Dispatch(context.Background(), mail, sms))
	assert.Equal(t, 1, f.mailer.count())
	assert.Contains(t, f.sms.sent["+12025550199"], "#123456")
	assert.EqualValues(t, 0, f.svc.metrics.Snapshot().NotificationsFailed)
}

func TestDispatchReportsFailures(t *testing.T) {
	f := newNotificationFixture()
	f.mailer.err = errors.New("smtp down")

	mail, err := f.svc.EmailNotification(notifiedUser(), email.TemplateConfirmEmail, "Confirm", "123456", "https://app.lob.local/confirm")
	require.NoError(t, err)
	assert.Error(t, f.svc.Dispatch(context.Background(), mail))
	assert.EqualValues(t, 1, f.svc.metrics.Snapshot().NotificationsFailed)
}

func TestPushDropsExpiredSubscriptions(t *testing.T) {
	f := newNotificationFixture()
	f.subs.subs = []models.PushSubscription{
		{UserID: "u1", Endpoint: "https://push.example/live"},
		{UserID: "u1", Endpoint: "https://push.example/gone"},
		{UserID: "u2", Endpoint: "https://push.example/other"},
	}
	f.pushes.gone["https://push.example/gone"] = true

	require.NoError(t, f.svc.Dispatch(context.Background(), f.svc.PushNotification("u1", "Signed in", "New session")))
	assert.Equal(t, []string{"https://push.example/live"}, f.pushes.sent)
	assert.Equal(t, []string{"https://push.example/gone"}, f.subs.deleted)
}

func TestPushSkippedWhenDisabled(t *testing.T) {
	f := newNotificationFixture()
	f.pushes.enabled = false
	f.subs.subs = []models.PushSubscription{{UserID: "u1", Endpoint: "https://push.example/live"}}

	require.NoError(t, f.svc.Dispatch(context.Background(), f.svc.PushNotification("u1", "t", "m")))
	assert.Empty(t, f.pushes.sent)
}

func TestLinkBuildsWebAppURL(t *testing.T) {
	f := newNotificationFixture()
	assert.Equal(t, "https://app.lob.local/confirm?email=alice%40lob.local",
		f.svc.Link(models.PageConfirm, url.Values{"email": {"alice@lob.local"}}))
	assert.Equal(t, "https://app.lob.local/confirm", f.svc.Link(models.PageConfirm, nil))
}

func TestDispatchAsyncUsesQueue(t *testing.T) {
	f := newNotificationFixture()
	f.svc.StartAsync(context.Background(), jobs.QueueConfig{Workers: 1, RetryDelay: 10 * time.Millisecond})
	defer f.svc.Stop()

	mail, err := f.svc.EmailNotification(notifiedUser(), email.TemplateOtp, "Code", "654321", "")
	require.NoError(t, err)
	require.NoError(t, f.svc.Dispatch(context.Background(), mail))

	require.Eventually(t, func() bool { return f.mailer.count() == 1 }, time.Second, 5*time.Millisecond)
}
