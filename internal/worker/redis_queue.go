package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultBlockTimeout = 2 * time.Second

// RedisQueue stores pending tasks in a Redis list so accepted reports survive
// a process restart. Producers LPUSH, workers BRPOP.
type RedisQueue struct {
	client       *redis.Client
	key          string
	blockTimeout time.Duration
	closed       atomic.Bool
}

// NewRedisQueue builds a queue on the given list key.
func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	return &RedisQueue{client: client, key: key, blockTimeout: defaultBlockTimeout}
}

func (q *RedisQueue) Enqueue(ctx context.Context, task Task) error {
	if q.closed.Load() {
		return ErrQueueClosed
	}
	payload, err := encodeTask(task)
	if err != nil {
		return err
	}
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("enqueue %s: %w", task.RequestID, err)
	}
	return nil
}

// Dequeue blocks in short BRPOP windows so Close and ctx cancellation are
// observed promptly.
func (q *RedisQueue) Dequeue(ctx context.Context) (Task, error) {
	for {
		if q.closed.Load() {
			return Task{}, ErrQueueClosed
		}
		if err := ctx.Err(); err != nil {
			return Task{}, err
		}
		res, err := q.client.BRPop(ctx, q.blockTimeout, q.key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return Task{}, fmt.Errorf("dequeue: %w", err)
		}
		if len(res) != 2 {
			return Task{}, fmt.Errorf("dequeue: unexpected reply %v", res)
		}
		return decodeTask(res[1])
	}
}

// Close stops this process from producing or consuming; pending entries stay
// in Redis.
func (q *RedisQueue) Close() error {
	q.closed.Store(true)
	return nil
}

// Len returns the number of pending tasks in the list.
func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}

func encodeTask(task Task) (string, error) {
	data, err := json.Marshal(task)
	if err != nil {
		return "", fmt.Errorf("encode task %s: %w", task.RequestID, err)
	}
	return string(data), nil
}

func decodeTask(payload string) (Task, error) {
	var task Task
	if err := json.Unmarshal([]byte(payload), &task); err != nil {
		return Task{}, fmt.Errorf("decode task: %w", err)
	}
	if task.RequestID == "" {
		return Task{}, errors.New("decode task: missing request_id")
	}
	return task, nil
}
