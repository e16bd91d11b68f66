package email

import (
	"context"
	"fmt"
	"strings"

	"github.com/noah-isme/lob-api/pkg/config"
)

// Message is a rendered outbound email.
type Message struct {
	To       string
	ToName   string
	Subject  string
	HTMLBody string
}

// Sender delivers a single message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// NewSender selects the backend named by cfg.Provider.
func NewSender(cfg config.EmailConfig) (Sender, error) {
	switch strings.ToLower(cfg.Provider) {
	case "smtp":
		if cfg.SMTPHost == "" {
			return nil, fmt.Errorf("smtp host is required")
		}
		return NewSMTPSender(cfg), nil
	case "resend":
		if cfg.ResendAPIKey == "" {
			return nil, fmt.Errorf("resend api key is required")
		}
		return NewResendSender(cfg), nil
	case "", "pickup":
		return NewPickupSender(cfg)
	default:
		return nil, fmt.Errorf("unsupported email provider %q", cfg.Provider)
	}
}

func fromAddress(cfg config.EmailConfig) string {
	if cfg.FromName == "" {
		return cfg.From
	}
	return fmt.Sprintf("%s <%s>", cfg.FromName, cfg.From)
}
