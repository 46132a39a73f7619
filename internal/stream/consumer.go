package stream

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/RishiKendai/veritas/internal/metrics"
	"github.com/RishiKendai/veritas/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// SubmissionProcessor handles one parsed submission
type SubmissionProcessor interface {
	ProcessSubmission(ctx context.Context, submission *models.Submission) error
}

// streamClient is the subset of the Redis client the consumer uses
type streamClient interface {
	XGroupCreateMkStream(ctx context.Context, stream, group, start string) *redis.StatusCmd
	XPendingExt(ctx context.Context, a *redis.XPendingExtArgs) *redis.XPendingExtCmd
	XClaim(ctx context.Context, a *redis.XClaimArgs) *redis.XMessageSliceCmd
	XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd
	XTrimMinID(ctx context.Context, key string, minID string) *redis.IntCmd
	XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd
}

const (
	readBatchSize       = 10
	readBlock           = time.Second
	pendingScanCount    = 100
	pendingMinIdle      = time.Minute
	pelRecoveryInterval = 30 * time.Second
	cleanupInterval     = time.Hour
)

// Consumer reads submissions from a Redis stream consumer group and hands
// them to a SubmissionProcessor
type Consumer struct {
	client        streamClient
	streamKey     string
	consumerGroup string
	consumerName  string
	processor     SubmissionProcessor
	retryHandler  *RetryHandler
	retention     time.Duration
	lastPELCheck  time.Time
}

func NewConsumer(
	client streamClient,
	streamKey string,
	consumerGroup string,
	consumerName string,
	processor SubmissionProcessor,
	retryHandler *RetryHandler,
	retention time.Duration,
) *Consumer {
	return &Consumer{
		client:        client,
		streamKey:     streamKey,
		consumerGroup: consumerGroup,
		consumerName:  consumerName,
		processor:     processor,
		retryHandler:  retryHandler,
		retention:     retention,
	}
}

// Start blocks until ctx is done
func (c *Consumer) Start(ctx context.Context) error {
	if err := c.ensureGroup(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to create consumer group")
	}

	if err := c.recoverPending(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to recover pending submissions on startup")
	}
	c.lastPELCheck = time.Now()

	go c.trimPeriodically(ctx)

	log.Info().
		Str("stream", c.streamKey).
		Str("group", c.consumerGroup).
		Str("consumer", c.consumerName).
		Dur("retention", c.retention).
		Msg("Submission consumer started")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.consume(ctx); err != nil {
			log.Error().Err(err).Msg("Error consuming submissions")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
		}
	}
}

func (c *Consumer) ensureGroup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, c.streamKey, c.consumerGroup, "$").Err()
	if err != nil && strings.Contains(err.Error(), "BUSYGROUP") {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	log.Info().
		Str("group", c.consumerGroup).
		Str("stream", c.streamKey).
		Msg("Created consumer group")
	return nil
}

// recoverPending claims entries another consumer read but never acknowledged
func (c *Consumer) recoverPending(ctx context.Context) error {
	pending, err := c.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: c.streamKey,
		Group:  c.consumerGroup,
		Start:  "-",
		End:    "+",
		Count:  pendingScanCount,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to list pending entries: %w", err)
	}

	ids := make([]string, 0, len(pending))
	for _, p := range pending {
		if p.Idle >= pendingMinIdle {
			ids = append(ids, p.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	claimed, err := c.client.XClaim(ctx, &redis.XClaimArgs{
		Stream:   c.streamKey,
		Group:    c.consumerGroup,
		Consumer: c.consumerName,
		MinIdle:  pendingMinIdle,
		Messages: ids,
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to claim pending entries: %w", err)
	}

	log.Info().
		Int("idle", len(ids)).
		Int("claimed", len(claimed)).
		Msg("Reprocessing claimed submissions")

	for i := range claimed {
		if err := c.processMessage(ctx, &claimed[i]); err != nil {
			log.Error().Err(err).Str("message_id", claimed[i].ID).Msg("Failed to process claimed submission")
		}
	}

	return nil
}

func (c *Consumer) consume(ctx context.Context) error {
	if time.Since(c.lastPELCheck) > pelRecoveryInterval {
		if err := c.recoverPending(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to recover pending submissions")
		}
		c.lastPELCheck = time.Now()
	}

	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.consumerGroup,
		Consumer: c.consumerName,
		Streams:  []string{c.streamKey, ">"},
		Count:    readBatchSize,
		Block:    readBlock,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read from stream: %w", err)
	}

	for _, stream := range streams {
		if stream.Stream != c.streamKey {
			continue
		}
		for i := range stream.Messages {
			if err := c.processMessage(ctx, &stream.Messages[i]); err != nil {
				log.Error().Err(err).Str("message_id", stream.Messages[i].ID).Msg("Failed to process submission")
			}
		}
	}

	return nil
}

func (c *Consumer) processMessage(ctx context.Context, msg *redis.XMessage) error {
	fields := make(map[string]string, len(msg.Values))
	for key, val := range msg.Values {
		if s, ok := val.(string); ok {
			fields[key] = s
		}
	}

	submission, err := ParseSubmission(&StreamMessage{ID: msg.ID, Fields: fields})
	if err != nil {
		metrics.ObserveIngest("invalid")
		// malformed entries never succeed; ack so they leave the PEL
		_ = c.acknowledge(ctx, msg.ID)
		return err
	}

	err = c.retryHandler.RetryWithBackoff(ctx, func() error {
		return c.processor.ProcessSubmission(ctx, submission)
	}, msg.ID, msg.Values)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		// stays pending and is reclaimed after restart
		return err
	}
	if err != nil {
		// already on the dead-letter stream
		_ = c.acknowledge(ctx, msg.ID)
		return err
	}

	return c.acknowledge(ctx, msg.ID)
}

// trimStream drops entries older than the retention window
func (c *Consumer) trimStream(ctx context.Context) error {
	cutoff := time.Now().Add(-c.retention)
	minID := fmt.Sprintf("%d-0", cutoff.UnixMilli())

	trimmed, err := c.client.XTrimMinID(ctx, c.streamKey, minID).Result()
	if err != nil {
		return fmt.Errorf("failed to trim stream: %w", err)
	}

	if trimmed > 0 {
		log.Debug().
			Int64("trimmed", trimmed).
			Str("cutoff", cutoff.Format(time.RFC3339)).
			Msg("Trimmed submission stream")
	}
	return nil
}

func (c *Consumer) trimPeriodically(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	if err := c.trimStream(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to trim stream")
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.trimStream(ctx); err != nil {
				log.Error().Err(err).Msg("Failed to trim stream")
			}
		}
	}
}

func (c *Consumer) acknowledge(ctx context.Context, messageID string) error {
	if err := c.client.XAck(ctx, c.streamKey, c.consumerGroup, messageID).Err(); err != nil {
		log.Error().Err(err).Str("message_id", messageID).Msg("Failed to acknowledge message")
		return fmt.Errorf("failed to acknowledge %s: %w", messageID, err)
	}
	return nil
}
