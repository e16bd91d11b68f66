package sms

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"

	"github.com/noah-isme/lob-api/pkg/config"
)

// Sender delivers a text message to an E.164 phone number.
type Sender interface {
	Send(ctx context.Context, to, body string) error
}

// NewSender returns a Twilio sender when credentials are configured and a LogSender otherwise.
func NewSender(cfg config.SMSConfig, logger *zap.Logger) Sender {
	if cfg.Configured() {
		return NewTwilioSender(cfg)
	}
	return NewLogSender(logger)
}

// messageAPI is the subset of the Twilio REST client used here.
type messageAPI interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

// TwilioSender delivers via the Twilio Messages API.
type TwilioSender struct {
	api  messageAPI
	from string
}

// NewTwilioSender constructs a sender bound to the configured account.
func NewTwilioSender(cfg config.SMSConfig) *TwilioSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.TwilioAccountSID,
		Password: cfg.TwilioAuthToken,
	})
	return &TwilioSender{api: client.Api, from: cfg.FromPhoneNumber}
}

func (s *TwilioSender) Send(ctx context.Context, to, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(body)
	if _, err := s.api.CreateMessage(params); err != nil {
		return fmt.Errorf("send sms to %s: %w", to, err)
	}
	return nil
}

// LogSender writes messages to the log. Used in development.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender constructs a log backed sender.
func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, to, body string) error {
	s.logger.Info("sms not configured, message logged", zap.String("to", to), zap.String("body", body))
	return nil
}
