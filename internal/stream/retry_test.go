package stream

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDeadLetter struct {
	args []*redis.XAddArgs
	err  error
}

func (f *fakeDeadLetter) XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd {
	f.args = append(f.args, a)
	return redis.NewStringResult("1-0", f.err)
}

func TestNewRetryHandler_Defaults(t *testing.T) {
	h := NewRetryHandler(&fakeDeadLetter{}, "dlq", 0, 0)

	assert.Equal(t, 3, h.maxRetries)
	assert.Equal(t, time.Second, h.baseDelay)
}

func TestRetryWithBackoff_SucceedsAfterFailures(t *testing.T) {
	dlq := &fakeDeadLetter{}
	h := NewRetryHandler(dlq, "dlq", 3, time.Millisecond)

	calls := 0
	err := h.RetryWithBackoff(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, "1-0", nil)

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Empty(t, dlq.args)
}

func TestRetryWithBackoff_ExhaustedGoesToDeadLetter(t *testing.T) {
	dlq := &fakeDeadLetter{}
	h := NewRetryHandler(dlq, "submissions:dlq", 2, time.Millisecond)
	boom := errors.New("store unavailable")

	calls := 0
	err := h.RetryWithBackoff(context.Background(), func() error {
		calls++
		return boom
	}, "5-0", map[string]interface{}{"id": "s1"})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
	require.Len(t, dlq.args, 1)
	assert.Equal(t, "submissions:dlq", dlq.args[0].Stream)

	values := dlq.args[0].Values.(map[string]interface{})
	assert.Equal(t, "s1", values["id"])
	assert.Equal(t, "5-0", values["originalId"])
	assert.Equal(t, "store unavailable", values["error"])
	assert.NotEmpty(t, values["failedAt"])
}

func TestRetryWithBackoff_DeadLetterErrorStillReturnsCause(t *testing.T) {
	dlq := &fakeDeadLetter{err: errors.New("redis down")}
	h := NewRetryHandler(dlq, "dlq", 1, time.Millisecond)
	boom := errors.New("bad write")

	err := h.RetryWithBackoff(context.Background(), func() error { return boom }, "1-0", nil)

	assert.ErrorIs(t, err, boom)
	assert.Len(t, dlq.args, 1)
}

func TestRetryWithBackoff_CancelledContext(t *testing.T) {
	dlq := &fakeDeadLetter{}
	h := NewRetryHandler(dlq, "dlq", 3, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := h.RetryWithBackoff(ctx, func() error {
		calls++
		cancel()
		return errors.New("interrupted")
	}, "1-0", nil)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
	assert.Empty(t, dlq.args)
}
