package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func breakerClient() *RedisClient {
	return &RedisClient{
		cb: &circuitBreaker{
			state:        "closed",
			failureRatio: 0.5,
			recoveryTime: time.Minute,
			minRequests:  4,
		},
	}
}

func TestCommandsFeedTheBreaker(t *testing.T) {
	c := breakerClient()
	h := &breakerHook{c: c}
	ctx := context.Background()

	boom := errors.New("connection reset")
	failing := h.ProcessHook(func(ctx context.Context, cmd redis.Cmder) error {
		return boom
	})

	for i := 0; i < 4; i++ {
		err := failing(ctx, redis.NewStatusCmd(ctx))
		require.ErrorIs(t, err, boom)
	}
	assert.Equal(t, "open", c.CircuitState())

	// Open circuit short-circuits before the command runs.
	err := failing(ctx, redis.NewStatusCmd(ctx))
	assert.ErrorIs(t, err, errCircuitOpen)

	stats := c.GetStats()
	assert.Equal(t, uint64(4), stats.Commands)
	assert.Equal(t, uint64(4), stats.Errors)
	assert.Equal(t, uint64(1), stats.CircuitOpen)
}

func TestBreakerRecoversAfterQuietPeriod(t *testing.T) {
	c := breakerClient()
	h := &breakerHook{c: c}
	ctx := context.Background()

	failing := h.ProcessHook(func(ctx context.Context, cmd redis.Cmder) error {
		return errors.New("i/o timeout")
	})
	for i := 0; i < 4; i++ {
		_ = failing(ctx, redis.NewStatusCmd(ctx))
	}
	require.Equal(t, "open", c.CircuitState())
	assert.Equal(t, uint64(4), c.GetStats().Timeouts)

	// Past the recovery window the circuit probes half-open and a run
	// of successes closes it again.
	c.cb.mu.Lock()
	c.cb.lastFailure = time.Now().Add(-2 * time.Minute)
	c.cb.mu.Unlock()

	healthy := h.ProcessHook(func(ctx context.Context, cmd redis.Cmder) error {
		return nil
	})
	require.NoError(t, healthy(ctx, redis.NewStatusCmd(ctx)))
	require.Equal(t, "half-open", c.CircuitState())
	require.NoError(t, healthy(ctx, redis.NewStatusCmd(ctx)))
	assert.Equal(t, "closed", c.CircuitState())
}

func TestKeyMissIsNotAFailure(t *testing.T) {
	c := breakerClient()
	h := &breakerHook{c: c}
	ctx := context.Background()

	miss := h.ProcessHook(func(ctx context.Context, cmd redis.Cmder) error {
		return redis.Nil
	})
	for i := 0; i < 8; i++ {
		assert.ErrorIs(t, miss(ctx, redis.NewStatusCmd(ctx)), redis.Nil)
	}
	assert.Equal(t, "closed", c.CircuitState())
	assert.Equal(t, uint64(0), c.GetStats().Errors)
}
