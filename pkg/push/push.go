package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/noah-isme/lob-api/pkg/config"
)

// ErrSubscriptionGone signals that the push service no longer knows the subscription.
var ErrSubscriptionGone = errors.New("push subscription expired")

// Subscription is the browser PushSubscription as stored for a user.
type Subscription struct {
	Endpoint string
	P256dh   string
	Auth     string
}

// Payload is the JSON document delivered to the service worker.
type Payload struct {
	Title   string            `json:"title"`
	Message string            `json:"message"`
	Action  string            `json:"action,omitempty"`
	Data    map[string]string `json:"data,omitempty"`
}

// Sender delivers encrypted web push messages signed with VAPID.
type Sender struct {
	cfg    config.PushConfig
	client webpush.HTTPClient
}

// NewSender constructs a sender. It reports Enabled false when VAPID keys are missing.
func NewSender(cfg config.PushConfig) *Sender {
	if cfg.TTL <= 0 {
		cfg.TTL = 30
	}
	return &Sender{cfg: cfg, client: http.DefaultClient}
}

// Enabled reports whether VAPID credentials are configured.
func (s *Sender) Enabled() bool {
	return s != nil && s.cfg.VAPIDPublicKey != "" && s.cfg.VAPIDPrivateKey != ""
}

// PublicKey is handed to browsers when they subscribe.
func (s *Sender) PublicKey() string {
	if s == nil {
		return ""
	}
	return s.cfg.VAPIDPublicKey
}

// Send delivers payload to sub. ErrSubscriptionGone is returned for 404 and 410 answers so the
// caller can drop the subscription.
func (s *Sender) Send(ctx context.Context, sub Subscription, payload Payload) error {
	if !s.Enabled() {
		return fmt.Errorf("web push is not configured")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal push payload: %w", err)
	}
	resp, err := webpush.SendNotificationWithContext(ctx, body, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys:     webpush.Keys{P256dh: sub.P256dh, Auth: sub.Auth},
	}, &webpush.Options{
		HTTPClient:      s.client,
		Subscriber:      s.cfg.Subscriber,
		VAPIDPublicKey:  s.cfg.VAPIDPublicKey,
		VAPIDPrivateKey: s.cfg.VAPIDPrivateKey,
		TTL:             s.cfg.TTL,
		Urgency:         webpush.UrgencyHigh,
	})
	if err != nil {
		return fmt.Errorf("send push: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return ErrSubscriptionGone
	case resp.StatusCode >= 300:
		return fmt.Errorf("push service responded %d", resp.StatusCode)
	}
	return nil
}
