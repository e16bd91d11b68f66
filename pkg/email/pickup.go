package email

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/lob-api/pkg/config"
)

// PickupSender writes each message as an .eml file so developers can inspect outgoing mail.
type PickupSender struct {
	dir string
	cfg config.EmailConfig
}

// NewPickupSender ensures the pickup directory exists.
func NewPickupSender(cfg config.EmailConfig) (*PickupSender, error) {
	dir := cfg.PickupDir
	if dir == "" {
		dir = "./App_Data/sent-emails"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create pickup directory: %w", err)
	}
	return &PickupSender{dir: dir, cfg: cfg}, nil
}

func (s *PickupSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name := fmt.Sprintf("%s_%s.eml", time.Now().UTC().Format("20060102T150405"), uuid.NewString())
	file, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return fmt.Errorf("create pickup file: %w", err)
	}
	defer file.Close() //nolint:errcheck
	if _, err := buildMessage(s.cfg, msg).WriteTo(file); err != nil {
		return fmt.Errorf("write pickup file: %w", err)
	}
	return nil
}
