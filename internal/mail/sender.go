package mail

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/tazhibayda/mytinerary/internal/helper"
	"github.com/tazhibayda/mytinerary/internal/queue"
)

// Sender delivers transactional mail. For now it only logs what it would send.
type Sender struct {
	log *zap.Logger
}

func NewSender(logger *zap.Logger) *Sender {
	return &Sender{log: logger}
}

func (s *Sender) SendWelcome(_ context.Context, to, name string) error {
	if to == "" {
		return fmt.Errorf("welcome mail: empty recipient")
	}
	s.log.Info("mail sent",
		zap.String("template", "welcome"),
		zap.String("to_hash", helper.Hash8(to)),
		zap.String("name", name),
	)
	return nil
}

// HandleEvent is a queue.HandlerFunc for the welcome-mail queue.
func (s *Sender) HandleEvent(ctx context.Context, key string, body []byte) error {
	if key != queue.KeyUserRegistered {
		return fmt.Errorf("%w: unexpected key %q", queue.ErrPoison, key)
	}
	var ev queue.UserRegistered
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("%w: %v", queue.ErrPoison, err)
	}
	if ev.Email == "" {
		return fmt.Errorf("%w: no email", queue.ErrPoison)
	}
	return s.SendWelcome(ctx, ev.Email, ev.FirstName)
}
