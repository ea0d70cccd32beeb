package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestThrottle(t *testing.T, max int, window time.Duration) (*LoginThrottle, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewLoginThrottle(client, max, window), mr
}

func TestLoginThrottleBlocksAfterMax(t *testing.T) {
	throttle, _ := newTestThrottle(t, 3, 15*time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		blocked, err := throttle.Blocked(ctx, "alice@clinic.test")
		require.NoError(t, err)
		assert.False(t, blocked, "attempt %d", i)
		require.NoError(t, throttle.RecordFailure(ctx, "alice@clinic.test"))
	}

	blocked, err := throttle.Blocked(ctx, "alice@clinic.test")
	require.NoError(t, err)
	assert.True(t, blocked)

	// Other accounts are unaffected.
	blocked, err = throttle.Blocked(ctx, "bob@clinic.test")
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestLoginThrottleWindowExpires(t *testing.T) {
	throttle, mr := newTestThrottle(t, 1, time.Minute)
	ctx := context.Background()

	require.NoError(t, throttle.RecordFailure(ctx, "alice@clinic.test"))
	blocked, err := throttle.Blocked(ctx, "alice@clinic.test")
	require.NoError(t, err)
	require.True(t, blocked)

	mr.FastForward(2 * time.Minute)

	blocked, err = throttle.Blocked(ctx, "alice@clinic.test")
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestLoginThrottleReset(t *testing.T) {
	throttle, _ := newTestThrottle(t, 1, time.Minute)
	ctx := context.Background()

	require.NoError(t, throttle.RecordFailure(ctx, "alice@clinic.test"))
	require.NoError(t, throttle.Reset(ctx, "alice@clinic.test"))

	blocked, err := throttle.Blocked(ctx, "alice@clinic.test")
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestLoginThrottleNilClientFailsOpen(t *testing.T) {
	var throttle *LoginThrottle
	ctx := context.Background()

	blocked, err := throttle.Blocked(ctx, "alice@clinic.test")
	require.NoError(t, err)
	assert.False(t, blocked)
	assert.NoError(t, throttle.RecordFailure(ctx, "alice@clinic.test"))
	assert.NoError(t, throttle.Reset(ctx, "alice@clinic.test"))
}
