package plagiarism

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RishiKendai/veritas/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const statusKeyPrefix = "similarity_report_status:"

// statusClient is the subset of redis.Cmdable the tracker needs
type statusClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// StatusTracker keeps the current pipeline step of each assignment in Redis
type StatusTracker struct {
	client statusClient
	ttl    time.Duration
}

func NewStatusTracker(client statusClient, ttl time.Duration) *StatusTracker {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &StatusTracker{client: client, ttl: ttl}
}

func statusKey(assignmentID string) string {
	return statusKeyPrefix + assignmentID
}

func (s *StatusTracker) UpdateStatus(ctx context.Context, assignmentID string, step models.Step) error {
	if !step.IsValid() {
		return fmt.Errorf("unknown step: %s", step)
	}

	rkey := statusKey(assignmentID)
	if err := s.client.Set(ctx, rkey, string(step), s.ttl).Err(); err != nil {
		log.Error().Err(err).
			Str("step", string(step)).
			Str("assignmentId", assignmentID).
			Str("redisKey", rkey).
			Msg("Failed to update status in Redis")
		return fmt.Errorf("failed to update status in Redis: %w", err)
	}

	log.Trace().
		Str("step", string(step)).
		Str("assignmentId", assignmentID).
		Msg("Status updated in Redis")

	return nil
}

// GetStatus returns StepIdle when no run has been recorded
func (s *StatusTracker) GetStatus(ctx context.Context, assignmentID string) (models.Step, error) {
	val, err := s.client.Get(ctx, statusKey(assignmentID)).Result()
	if errors.Is(err, redis.Nil) {
		return models.StepIdle, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read status from Redis: %w", err)
	}
	return models.Step(val), nil
}
