package jobs

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"farmvet-auth.backend/internal/domain/entities"
	"farmvet-auth.backend/internal/infrastructure/notifications"
	"farmvet-auth.backend/pkg/logger"
	"farmvet-auth.backend/pkg/metrics"
)

const popWait = 2 * time.Second

// NotificationWorker drains the notification queue with a fixed pool of goroutines.
// Failed deliveries are logged and counted, not retried.
type NotificationWorker struct {
	queue       notifications.Queue
	sender      notifications.Sender
	workers     int
	sendTimeout time.Duration
	metrics     *metrics.Metrics
	stop        chan struct{}
	wg          sync.WaitGroup
}

func NewNotificationWorker(queue notifications.Queue, sender notifications.Sender, workers int, sendTimeout time.Duration, m *metrics.Metrics) *NotificationWorker {
	if workers < 1 {
		workers = 1
	}
	if sendTimeout <= 0 {
		sendTimeout = 15 * time.Second
	}
	return &NotificationWorker{
		queue:       queue,
		sender:      sender,
		workers:     workers,
		sendTimeout: sendTimeout,
		metrics:     m,
		stop:        make(chan struct{}),
	}
}

// Start blocks until ctx is cancelled or Stop is called and every worker has returned
func (w *NotificationWorker) Start(ctx context.Context) {
	logger.Info(ctx, "Starting notification workers", zap.Int("workers", w.workers))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-w.stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	for i := 0; i < w.workers; i++ {
		w.wg.Add(1)
		go w.run(ctx)
	}
	w.wg.Wait()
	logger.Info(ctx, "Notification workers stopped")
}

func (w *NotificationWorker) Stop() {
	close(w.stop)
}

func (w *NotificationWorker) run(ctx context.Context) {
	defer w.wg.Done()
	for ctx.Err() == nil {
		n, err := w.queue.Pop(ctx, popWait)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn(ctx, "Notification queue pop failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		if n == nil {
			continue
		}
		w.deliver(ctx, n)
	}
}

func (w *NotificationWorker) deliver(ctx context.Context, n *entities.Notification) {
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.sendTimeout)
	defer cancel()

	if err := w.sender.Send(sendCtx, n); err != nil {
		w.metrics.Notification(string(n.Channel), "failed")
		logger.Error(ctx, "Notification delivery failed",
			zap.String("notification_id", n.ID),
			zap.String("channel", string(n.Channel)),
			zap.Error(err),
		)
		return
	}
	w.metrics.Notification(string(n.Channel), "sent")
	logger.Debug(ctx, "Notification delivered",
		zap.String("notification_id", n.ID),
		zap.String("channel", string(n.Channel)),
	)
}
