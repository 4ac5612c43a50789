package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultDeliveryQueueKey = "eventzo:tickets:scheduled"

const (
	retryBaseDelay = 30 * time.Second
	retryMaxDelay  = 30 * time.Minute
)

// DeliveryJob is one pending ticket delivery. Attempt counts deliveries
// already tried, starting at 1 for the initial dispatch.
type DeliveryJob struct {
	BookingID string `json:"booking_id"`
	Attempt   int    `json:"attempt"`
}

type RetryQueue interface {
	Enqueue(ctx context.Context, job DeliveryJob) error
}

// RetryBackoff is the delay before the given attempt runs: 30s before the
// second attempt, doubling after that, capped at 30m.
func RetryBackoff(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}
	d := retryBaseDelay
	for i := 2; i < attempt; i++ {
		d *= 2
		if d >= retryMaxDelay {
			return retryMaxDelay
		}
	}
	return d
}

// RedisDeliveryQueue keeps jobs in a sorted set scored by the unix time they
// become due. Workers take the earliest due job; ZREM decides which worker
// owns it.
type RedisDeliveryQueue struct {
	client       *redis.Client
	key          string
	pollInterval time.Duration
	now          func() time.Time
	logger       *slog.Logger
}

func NewRedisDeliveryQueue(client *redis.Client, key string, logger *slog.Logger) *RedisDeliveryQueue {
	if key == "" {
		key = DefaultDeliveryQueueKey
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisDeliveryQueue{
		client:       client,
		key:          key,
		pollInterval: time.Second,
		now:          time.Now,
		logger:       logger,
	}
}

// Enqueue schedules job to run after RetryBackoff(job.Attempt).
func (q *RedisDeliveryQueue) Enqueue(ctx context.Context, job DeliveryJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal delivery job: %v", err)
	}
	due := q.now().Add(RetryBackoff(job.Attempt))
	err = q.client.ZAdd(ctx, q.key, redis.Z{
		Score:  float64(due.Unix()),
		Member: string(data),
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to enqueue delivery job: %w", err)
	}
	return nil
}

// Dequeue takes the earliest job that is due. It returns nil, nil when
// nothing is due yet or another worker took the job first.
func (q *RedisDeliveryQueue) Dequeue(ctx context.Context) (*DeliveryJob, error) {
	due, err := q.client.ZRangeByScore(ctx, q.key, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(q.now().Unix(), 10),
		Count: 1,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read due delivery jobs: %w", err)
	}
	if len(due) == 0 {
		return nil, nil
	}

	member := due[0]
	removed, err := q.client.ZRem(ctx, q.key, member).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to claim delivery job: %w", err)
	}
	if removed == 0 {
		return nil, nil
	}

	var job DeliveryJob
	if err := json.Unmarshal([]byte(member), &job); err != nil {
		return nil, fmt.Errorf("malformed delivery job %q: %v", member, err)
	}
	return &job, nil
}

func (q *RedisDeliveryQueue) Len(ctx context.Context) (int64, error) {
	return q.client.ZCard(ctx, q.key).Result()
}

// Run feeds due jobs to handle until ctx is cancelled.
func (q *RedisDeliveryQueue) Run(ctx context.Context, handle func(context.Context, DeliveryJob) error) error {
	q.logger.Info("ticket retry worker started", "queue", q.key)
	for {
		if ctx.Err() != nil {
			q.logger.Info("ticket retry worker stopped")
			return nil
		}

		job, err := q.Dequeue(ctx)
		if err != nil && ctx.Err() == nil {
			q.logger.Warn("ticket retry queue read failed", "error", err)
		}
		if job == nil {
			select {
			case <-ctx.Done():
			case <-time.After(q.pollInterval):
			}
			continue
		}

		if err := handle(ctx, *job); err != nil {
			q.logger.Warn("ticket redelivery failed",
				"booking_id", job.BookingID,
				"attempt", job.Attempt,
				"error", err,
			)
		}
	}
}
