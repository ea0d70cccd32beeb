package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoginThrottle counts failed login attempts per email in Redis. Once the
// limit is reached within the window, further attempts are refused before any
// password hashing happens. It stores only attempt counters, never
// authentication state.
type LoginThrottle struct {
	client *redis.Client
	max    int
	window time.Duration
}

// NewLoginThrottle constructs a LoginThrottle.
func NewLoginThrottle(client *redis.Client, max int, window time.Duration) *LoginThrottle {
	return &LoginThrottle{client: client, max: max, window: window}
}

// Blocked reports whether the email has exhausted its attempts.
func (t *LoginThrottle) Blocked(ctx context.Context, email string) (bool, error) {
	if t == nil || t.client == nil {
		return false, nil
	}
	count, err := t.client.Get(ctx, t.key(email)).Int()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("auth: throttle lookup: %w", err)
	}
	return count >= t.max, nil
}

// RecordFailure increments the attempt counter and refreshes the window.
func (t *LoginThrottle) RecordFailure(ctx context.Context, email string) error {
	if t == nil || t.client == nil {
		return nil
	}
	key := t.key(email)
	pipe := t.client.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, t.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("auth: throttle record: %w", err)
	}
	return nil
}

// Reset clears the counter after a successful login.
func (t *LoginThrottle) Reset(ctx context.Context, email string) error {
	if t == nil || t.client == nil {
		return nil
	}
	if err := t.client.Del(ctx, t.key(email)).Err(); err != nil {
		return fmt.Errorf("auth: throttle reset: %w", err)
	}
	return nil
}

func (t *LoginThrottle) key(email string) string {
	return "login_attempts:" + strings.ToLower(email)
}
