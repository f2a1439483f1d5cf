package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"farmvet-auth.backend/internal/domain/entities"
	"farmvet-auth.backend/pkg/logger"
	"farmvet-auth.backend/pkg/metrics"
)

const defaultEnqueueTimeout = 2 * time.Second

// Dispatcher hands notifications to the queue and returns immediately.
// Delivery happens in the notification workers.
type Dispatcher struct {
	queue   Queue
	timeout time.Duration
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewDispatcher(queue Queue, timeout time.Duration, m *metrics.Metrics) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultEnqueueTimeout
	}
	return &Dispatcher{queue: queue, timeout: timeout, metrics: m, now: time.Now}
}

// SendEmail queues an email and returns its notification id
func (d *Dispatcher) SendEmail(ctx context.Context, to, subject, body string) string {
	return d.enqueue(ctx, &entities.Notification{
		Channel: entities.ChannelEmail,
		To:      to,
		Subject: subject,
		Body:    body,
	})
}

// SendSMS queues a text message and returns its notification id
func (d *Dispatcher) SendSMS(ctx context.Context, to, body string) string {
	return d.enqueue(ctx, &entities.Notification{
		Channel: entities.ChannelSMS,
		To:      to,
		Body:    body,
	})
}

// enqueue never fails the caller; a lost notification is logged and counted
func (d *Dispatcher) enqueue(ctx context.Context, n *entities.Notification) string {
	n.ID = uuid.NewString()
	n.CreatedAt = d.now().UTC()

	pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()

	if err := d.queue.Push(pushCtx, n); err != nil {
		d.metrics.Notification(string(n.Channel), "enqueue_failed")
		logger.Error(ctx, "Failed to queue notification",
			zap.String("notification_id", n.ID),
			zap.String("channel", string(n.Channel)),
			zap.Error(err),
		)
		return n.ID
	}
	d.metrics.Notification(string(n.Channel), "queued")
	return n.ID
}
