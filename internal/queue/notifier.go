package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/inknote/backend/internal/config"
	"github.com/inknote/backend/internal/queue/task"
)

var ErrDeliveryDisabled = errors.New("email delivery is disabled")

// EmailNotifier hands verification codes to the asynq queue. Enqueue is the
// delivery contract here: a failed enqueue is a failed notification, a later
// SMTP failure is retried by the queue on its own.
type EmailNotifier struct {
	client  *asynq.Client
	enabled bool
}

func NewEmailNotifier(client *asynq.Client, cfg config.EmailConfig) *EmailNotifier {
	return &EmailNotifier{
		client:  client,
		enabled: cfg.Enabled,
	}
}

func (n *EmailNotifier) NotifyVerificationCode(ctx context.Context, email string, code string) error {
	if !n.enabled {
		return ErrDeliveryDisabled
	}

	t, err := task.NewSendEmailTask(email, code)
	if err != nil {
		return fmt.Errorf("build send email task failed: %w", err)
	}

	if _, err := n.client.EnqueueContext(ctx, t); err != nil {
		return fmt.Errorf("enqueue send email task failed: %w", err)
	}

	return nil
}
