package usage

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"spisok/pkg/platform/sentinel"
)

const keyPrefix = "spisok:checks_used:"

// RedisRecorder keeps counters in Redis so multiple core instances share one
// view of usage. INCR is atomic server-side, which is exactly the lost-update
// guarantee the counters need.
type RedisRecorder struct {
	client *redis.Client
}

// NewRedisRecorder wraps an initialized client.
func NewRedisRecorder(client *redis.Client) *RedisRecorder {
	return &RedisRecorder{client: client}
}

// Increment adds one check atomically and returns the new total.
func (r *RedisRecorder) Increment(ctx context.Context, companyID string) (int64, error) {
	total, err := r.client.Incr(ctx, keyPrefix+companyID).Result()
	if err != nil {
		return 0, fmt.Errorf("incr usage counter: %w (%w)", err, sentinel.ErrUnavailable)
	}
	return total, nil
}

// Get returns the current total (0 when the key does not exist).
func (r *RedisRecorder) Get(ctx context.Context, companyID string) (int64, error) {
	total, err := r.client.Get(ctx, keyPrefix+companyID).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read usage counter: %w (%w)", err, sentinel.ErrUnavailable)
	}
	return total, nil
}

// Reset zeroes the counter for a new billing period.
func (r *RedisRecorder) Reset(ctx context.Context, companyID string) error {
	if err := r.client.Del(ctx, keyPrefix+companyID).Err(); err != nil {
		return fmt.Errorf("reset usage counter: %w (%w)", err, sentinel.ErrUnavailable)
	}
	return nil
}
