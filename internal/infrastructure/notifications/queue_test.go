package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farmvet-auth.backend/internal/domain/entities"
)

func newRedisQueue(t *testing.T) (*RedisQueue, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisQueue(client, ""), mr
}

func TestRedisQueue_FIFO(t *testing.T) {
	q, mr := newRedisQueue(t)
	ctx := context.Background()

	require.NoError(t, q.Push(ctx, &entities.Notification{ID: "1", Channel: entities.ChannelEmail, To: "a@x.com"}))
	require.NoError(t, q.Push(ctx, &entities.Notification{ID: "2", Channel: entities.ChannelSMS, To: "+9771"}))
	assert.True(t, mr.Exists(DefaultQueueKey))

	first, err := q.Pop(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "1", first.ID)
	assert.Equal(t, entities.ChannelEmail, first.Channel)

	second, err := q.Pop(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "+9771", second.To)
}

func TestRedisQueue_PopEmpty(t *testing.T) {
	q, _ := newRedisQueue(t)

	n, err := q.Pop(context.Background(), 50*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, n)
}

func TestRedisQueue_PopRejectsGarbage(t *testing.T) {
	q, mr := newRedisQueue(t)
	_, err := mr.Lpush(DefaultQueueKey, "not-json")
	require.NoError(t, err)

	_, err = q.Pop(context.Background(), time.Second)
	assert.ErrorContains(t, err, "decode notification")
}

func TestRedisQueue_PushFailsWhenServerGone(t *testing.T) {
	q, mr := newRedisQueue(t)
	mr.Close()

	err := q.Push(context.Background(), &entities.Notification{ID: "1"})
	assert.Error(t, err)
}

func TestMemoryQueue(t *testing.T) {
	q := NewMemoryQueue(1)
	ctx := context.Background()

	require.NoError(t, q.Push(ctx, &entities.Notification{ID: "1"}))
	assert.ErrorIs(t, q.Push(ctx, &entities.Notification{ID: "2"}), ErrQueueFull)
	assert.Equal(t, 1, q.Len())

	n, err := q.Pop(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "1", n.ID)

	n, err = q.Pop(ctx, 10*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, n)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = q.Pop(cancelled, time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}
