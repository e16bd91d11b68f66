package email

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v3"

	"github.com/noah-isme/lob-api/pkg/config"
)

// ResendSender delivers through the Resend HTTP API.
type ResendSender struct {
	client *resend.Client
	from   string
}

// NewResendSender constructs a Resend backed sender.
func NewResendSender(cfg config.EmailConfig) *ResendSender {
	return &ResendSender{client: resend.NewClient(cfg.ResendAPIKey), from: fromAddress(cfg)}
}

func (s *ResendSender) Send(ctx context.Context, msg Message) error {
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTMLBody,
	}
	if _, err := s.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("send email to %s: %w", msg.To, err)
	}
	return nil
}
