package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"farmvet-auth.backend/internal/domain/entities"
)

// DefaultQueueKey is the Redis list holding pending notifications
const DefaultQueueKey = "notifications:outbox"

var ErrQueueFull = errors.New("notification queue full")

// Queue carries notifications from request handlers to the delivery workers.
// Pop returns nil, nil when nothing arrived within wait.
type Queue interface {
	Push(ctx context.Context, n *entities.Notification) error
	Pop(ctx context.Context, wait time.Duration) (*entities.Notification, error)
}

type listClient interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	BRPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
}

// RedisQueue is a FIFO list shared by every instance of the service
type RedisQueue struct {
	client listClient
	key    string
}

// NewRedisQueue creates a queue on key, falling back to DefaultQueueKey
func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	if key == "" {
		key = DefaultQueueKey
	}
	return &RedisQueue{client: client, key: key}
}

func (q *RedisQueue) Push(ctx context.Context, n *entities.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	return q.client.LPush(ctx, q.key, payload).Err()
}

func (q *RedisQueue) Pop(ctx context.Context, wait time.Duration) (*entities.Notification, error) {
	res, err := q.client.BRPop(ctx, wait, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	// BRPOP replies with [key, value]
	if len(res) != 2 {
		return nil, fmt.Errorf("unexpected BRPOP reply of %d elements", len(res))
	}
	var n entities.Notification
	if err := json.Unmarshal([]byte(res[1]), &n); err != nil {
		return nil, fmt.Errorf("decode notification: %w", err)
	}
	return &n, nil
}

// MemoryQueue is a process-local queue for development and tests
type MemoryQueue struct {
	ch chan *entities.Notification
}

func NewMemoryQueue(size int) *MemoryQueue {
	if size <= 0 {
		size = 256
	}
	return &MemoryQueue{ch: make(chan *entities.Notification, size)}
}

func (q *MemoryQueue) Push(ctx context.Context, n *entities.Notification) error {
	select {
	case q.ch <- n:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

func (q *MemoryQueue) Pop(ctx context.Context, wait time.Duration) (*entities.Notification, error) {
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case n := <-q.ch:
		return n, nil
	case <-timer.C:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Len reports the number of queued notifications
func (q *MemoryQueue) Len() int {
	return len(q.ch)
}
