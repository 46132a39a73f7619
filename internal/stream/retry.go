package stream

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

type deadLetterWriter interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// RetryHandler retries failed processing with exponential backoff and moves
// messages that keep failing to the dead-letter stream
type RetryHandler struct {
	client        deadLetterWriter
	deadLetterKey string
	maxRetries    int
	baseDelay     time.Duration
}

func NewRetryHandler(client deadLetterWriter, deadLetterKey string, maxRetries int, baseDelay time.Duration) *RetryHandler {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	return &RetryHandler{
		client:        client,
		deadLetterKey: deadLetterKey,
		maxRetries:    maxRetries,
		baseDelay:     baseDelay,
	}
}

// RetryWithBackoff runs fn up to maxRetries times. After the last failure the
// message is written to the dead-letter stream and the last error returned.
func (h *RetryHandler) RetryWithBackoff(ctx context.Context, fn func() error, messageID string, fields map[string]interface{}) error {
	var lastErr error
	for attempt := 0; attempt < h.maxRetries; attempt++ {
		if attempt > 0 {
			delay := h.baseDelay * time.Duration(1<<(attempt-1))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		if lastErr = fn(); lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		log.Warn().
			Err(lastErr).
			Str("message_id", messageID).
			Int("attempt", attempt+1).
			Int("max_retries", h.maxRetries).
			Msg("Processing attempt failed")
	}

	if err := h.sendToDeadLetter(ctx, messageID, fields, lastErr); err != nil {
		log.Error().Err(err).Str("message_id", messageID).Msg("Failed to send message to dead-letter stream")
	}

	return fmt.Errorf("processing failed after %d attempts: %w", h.maxRetries, lastErr)
}

func (h *RetryHandler) sendToDeadLetter(ctx context.Context, messageID string, fields map[string]interface{}, cause error) error {
	values := make(map[string]interface{}, len(fields)+3)
	for k, v := range fields {
		values[k] = v
	}
	values["originalId"] = messageID
	values["error"] = cause.Error()
	values["failedAt"] = time.Now().UTC().Format(time.RFC3339)

	// the run context may be cancelled during shutdown
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := h.client.XAdd(writeCtx, &redis.XAddArgs{
		Stream: h.deadLetterKey,
		Values: values,
	}).Err(); err != nil {
		return fmt.Errorf("failed to add to dead-letter stream: %w", err)
	}

	log.Warn().
		Str("message_id", messageID).
		Str("dead_letter", h.deadLetterKey).
		Msg("Message moved to dead-letter stream")

	return nil
}
