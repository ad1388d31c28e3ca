package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"aktiva/internal/logger"
)

// progressTTL keeps progress keys around long enough to be read after a
// run finishes, without accumulating forever.
const progressTTL = 24 * time.Hour

// RedisProgress publishes batch run progress to Redis so API consumers
// can follow long runs. It implements services.ProgressReporter.
type RedisProgress struct {
	client *redis.Client
}

// NewRedisProgress creates a new RedisProgress.
func NewRedisProgress(client *redis.Client) *RedisProgress {
	return &RedisProgress{client: client}
}

// Report writes the current processed/total counts for an execution.
// Failures are logged and swallowed; progress is best effort.
func (r *RedisProgress) Report(executionRef string, processed, total int) {
	key := progressKey(executionRef)
	value := fmt.Sprintf("%d/%d", processed, total)
	if err := r.client.Set(context.Background(), key, value, progressTTL).Err(); err != nil {
		logger.Get().Debugw("failed to publish run progress",
			"execution_ref", executionRef,
			"error", err,
		)
	}
}

// Progress reads the last reported processed/total counts for an
// execution. Returns ok=false when no progress has been published.
func (r *RedisProgress) Progress(ctx context.Context, executionRef string) (string, bool) {
	value, err := r.client.Get(ctx, progressKey(executionRef)).Result()
	if err != nil {
		return "", false
	}
	return value, true
}

func progressKey(executionRef string) string {
	return "depreciation:execution:" + executionRef + ":progress"
}
