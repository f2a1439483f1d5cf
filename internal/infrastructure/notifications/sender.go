package notifications

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"farmvet-auth.backend/internal/domain/entities"
	"farmvet-auth.backend/pkg/logger"
)

// Sender delivers one notification over its channel
type Sender interface {
	Send(ctx context.Context, n *entities.Notification) error
}

// Router picks the sender registered for the notification channel
type Router map[entities.NotificationChannel]Sender

func (r Router) Send(ctx context.Context, n *entities.Notification) error {
	sender, ok := r[n.Channel]
	if !ok || sender == nil {
		return fmt.Errorf("no sender for channel %q", n.Channel)
	}
	return sender.Send(ctx, n)
}

// LogSender writes notifications to the log. Used in development when no provider is configured.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, n *entities.Notification) error {
	logger.Info(ctx, "Notification (not delivered)",
		zap.String("notification_id", n.ID),
		zap.String("channel", string(n.Channel)),
		zap.String("to", n.To),
		zap.String("subject", n.Subject),
		zap.String("body", n.Body),
	)
	return nil
}
