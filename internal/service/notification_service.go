package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/lob-api/internal/models"
	"github.com/noah-isme/lob-api/pkg/email"
	"github.com/noah-isme/lob-api/pkg/jobs"
	"github.com/noah-isme/lob-api/pkg/push"
)

// Notification channels.
const (
	ChannelEmail = "email"
	ChannelSms   = "sms"
	ChannelPush  = "push"
)

// Notification is one outbound message on a single channel.
type Notification struct {
	Channel string
	UserID  string
	Email   email.Message
	SmsTo   string
	SmsBody string
	Push    push.Payload
}

type emailSender interface {
	Send(ctx context.Context, msg email.Message) error
}

type smsSender interface {
	Send(ctx context.Context, to, body string) error
}

type pushSender interface {
	Enabled() bool
	Send(ctx context.Context, sub push.Subscription, payload push.Payload) error
}

type pushSubscriptionStore interface {
	ListByUser(ctx context.Context, userID string) ([]models.PushSubscription, error)
	DeleteByEndpoint(ctx context.Context, userID, endpoint string) error
}

// NotificationConfig carries branding used in message bodies.
type NotificationConfig struct {
	AppName   string
	WebAppURL string
}

// NotificationService renders and delivers emails, SMS and web push messages. Delivery is inline
// until StartAsync hands it to a retrying job queue.
type NotificationService struct {
	config  NotificationConfig
	emails  emailSender
	sms     smsSender
	pushes  pushSender
	subs    pushSubscriptionStore
	metrics *MetricsService
	logger  *zap.Logger

	mu    sync.RWMutex
	queue *jobs.Queue[Notification]
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(config NotificationConfig, emails emailSender, sms smsSender, pushes pushSender, subs pushSubscriptionStore, metrics *MetricsService, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.AppName == "" {
		config.AppName = "LOB"
	}
	return &NotificationService{config: config, emails: emails, sms: sms, pushes: pushes, subs: subs, metrics: metrics, logger: logger}
}

// StartAsync routes subsequent dispatches through a background queue.
func (s *NotificationService) StartAsync(ctx context.Context, cfg jobs.QueueConfig) {
	if cfg.Logger == nil {
		cfg.Logger = s.logger
	}
	queue := jobs.NewQueue("notifications", func(ctx context.Context, job jobs.Job[Notification]) error {
		return s.deliver(ctx, job.Payload)
	}, cfg)
	queue.Start(ctx)
	s.mu.Lock()
	s.queue = queue
	s.mu.Unlock()
}

// Stop drains the background queue if one is running.
func (s *NotificationService) Stop() {
	s.mu.Lock()
	queue := s.queue
	s.queue = nil
	s.mu.Unlock()
	if queue != nil {
		queue.Stop()
	}
}

// EmailNotification renders template for user.
func (s *NotificationService) EmailNotification(user *models.User, template, subject, token, link string) (Notification, error) {
	body, err := email.Render(template, email.TemplateData{
		AppName:     s.config.AppName,
		DisplayName: user.DisplayName(),
		Token:       token,
		Link:        link,
	})
	if err != nil {
		return Notification{}, err
	}
	return Notification{
		Channel: ChannelEmail,
		UserID:  user.ID,
		Email: email.Message{
			To:       user.EmailValue(),
			ToName:   user.DisplayName(),
			Subject:  subject,
			HTMLBody: body,
		},
	}, nil
}

// SmsNotification builds an SMS. A non-empty token appends the Web OTP suffix so browsers can
// autofill the code.
func (s *NotificationService) SmsNotification(user *models.User, text, token string) Notification {
	body := text
	if token != "" {
		body = fmt.Sprintf("%s\n@%s #%s", text, s.webAppHost(), token)
	}
	return Notification{Channel: ChannelSms, UserID: user.ID, SmsTo: user.PhoneValue(), SmsBody: body}
}

// PushNotification builds a push message to every subscription of the user.
func (s *NotificationService) PushNotification(userID, title, message string) Notification {
	return Notification{Channel: ChannelPush, UserID: userID, Push: push.Payload{Title: title, Message: message}}
}

// Link resolves a page route and query against the web app URL.
func (s *NotificationService) Link(page string, query url.Values) string {
	u := s.config.WebAppURL + page
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// Dispatch delivers the notifications concurrently, or enqueues them when async delivery runs.
func (s *NotificationService) Dispatch(ctx context.Context, notifications ...Notification) error {
	s.mu.RLock()
	queue := s.queue
	s.mu.RUnlock()

	if queue != nil {
		for _, n := range notifications {
			if err := queue.Enqueue(jobs.Job[Notification]{ID: uuid.NewString(), Kind: n.Channel, Payload: n}); err != nil {
				return fmt.Errorf("enqueue %s notification: %w", n.Channel, err)
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, n := range notifications {
		n := n
		g.Go(func() error {
			return s.deliver(gctx, n)
		})
	}
	return g.Wait()
}

func (s *NotificationService) deliver(ctx context.Context, n Notification) error {
	var err error
	switch n.Channel {
	case ChannelEmail:
		err = s.emails.Send(ctx, n.Email)
	case ChannelSms:
		err = s.sms.Send(ctx, n.SmsTo, n.SmsBody)
	case ChannelPush:
		err = s.deliverPush(ctx, n)
	default:
		err = fmt.Errorf("unknown notification channel %q", n.Channel)
	}
	s.metrics.RecordNotification(n.Channel, err)
	if err != nil {
		s.logger.Warn("notification delivery failed", zap.String("channel", n.Channel), zap.String("user_id", n.UserID), zap.Error(err))
	}
	return err
}

func (s *NotificationService) deliverPush(ctx context.Context, n Notification) error {
	if s.pushes == nil || !s.pushes.Enabled() || s.subs == nil {
		return nil
	}
	subs, err := s.subs.ListByUser(ctx, n.UserID)
	if err != nil {
		return fmt.Errorf("list push subscriptions: %w", err)
	}
	var errs []error
	for _, sub := range subs {
		err := s.pushes.Send(ctx, push.Subscription{Endpoint: sub.Endpoint, P256dh: sub.P256dh, Auth: sub.Auth}, n.Push)
		if errors.Is(err, push.ErrSubscriptionGone) {
			if delErr := s.subs.DeleteByEndpoint(ctx, sub.UserID, sub.Endpoint); delErr != nil {
				s.logger.Warn("failed to remove expired push subscription", zap.String("endpoint", sub.Endpoint), zap.Error(delErr))
			}
			continue
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *NotificationService) webAppHost() string {
	u, err := url.Parse(s.config.WebAppURL)
	if err != nil || u.Host == "" {
		return "localhost"
	}
	return u.Hostname()
}
