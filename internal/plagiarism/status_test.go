package plagiarism

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/RishiKendai/veritas/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRedis struct {
	values  map[string]string
	ttls    map[string]time.Duration
	failSet error
	failGet error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	if f.failGet != nil {
		return redis.NewStringResult("", f.failGet)
	}
	v, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if f.failSet != nil {
		return redis.NewStatusResult("", f.failSet)
	}
	f.values[key] = value.(string)
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func TestStatusTracker_RoundTrip(t *testing.T) {
	client := newFakeRedis()
	tracker := NewStatusTracker(client, time.Hour)
	ctx := context.Background()

	require.NoError(t, tracker.UpdateStatus(ctx, "hw1", models.StepScoring))

	step, err := tracker.GetStatus(ctx, "hw1")
	require.NoError(t, err)
	assert.Equal(t, models.StepScoring, step)
	assert.Equal(t, time.Hour, client.ttls["similarity_report_status:hw1"])
}

func TestStatusTracker_DefaultTTL(t *testing.T) {
	client := newFakeRedis()
	tracker := NewStatusTracker(client, 0)

	require.NoError(t, tracker.UpdateStatus(context.Background(), "hw1", models.StepStarted))
	assert.Equal(t, 12*time.Hour, client.ttls["similarity_report_status:hw1"])
}

func TestStatusTracker_MissingKeyIsIdle(t *testing.T) {
	tracker := NewStatusTracker(newFakeRedis(), time.Hour)

	step, err := tracker.GetStatus(context.Background(), "unknown")

	require.NoError(t, err)
	assert.Equal(t, models.StepIdle, step)
}

func TestStatusTracker_RejectsUnknownStep(t *testing.T) {
	client := newFakeRedis()
	tracker := NewStatusTracker(client, time.Hour)

	err := tracker.UpdateStatus(context.Background(), "hw1", models.Step("bogus"))

	assert.Error(t, err)
	assert.Empty(t, client.values)
}

func TestStatusTracker_RedisErrors(t *testing.T) {
	boom := errors.New("connection refused")
	client := newFakeRedis()
	client.failSet = boom
	client.failGet = boom
	tracker := NewStatusTracker(client, time.Hour)
	ctx := context.Background()

	err := tracker.UpdateStatus(ctx, "hw1", models.StepStarted)
	assert.ErrorIs(t, err, boom)

	_, err = tracker.GetStatus(ctx, "hw1")
	assert.ErrorIs(t, err, boom)
}
