package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, accounts *fakeAccountSource) (*Service, *TokenCodec) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	codec := NewTokenCodec("test-secret", 30*time.Minute)
	service := NewService(
		accounts,
		NewHasher(4),
		codec,
		NewLoginThrottle(client, 3, 15*time.Minute),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	return service, codec
}

func testAccountSource(t *testing.T, email, password string) *fakeAccountSource {
	t.Helper()
	digest, err := NewHasher(4).Hash(password)
	require.NoError(t, err)
	return &fakeAccountSource{byEmail: map[string]*Account{
		email: {ID: 1, Email: email, PasswordHash: digest, Role: RoleUser},
	}}
}

func TestLoginSuccess(t *testing.T) {
	service, codec := newTestService(t, testAccountSource(t, "alice@clinic.test", "correct-horse"))

	token, err := service.Login(context.Background(), "alice@clinic.test", "correct-horse")
	require.NoError(t, err)

	claims, err := codec.Decode(token, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, "alice@clinic.test", claims.Subject)
}

func TestLoginFailureIsUniform(t *testing.T) {
	service, _ := newTestService(t, testAccountSource(t, "alice@clinic.test", "correct-horse"))
	ctx := context.Background()

	_, wrongPassword := service.Login(ctx, "alice@clinic.test", "wrong")
	_, unknownEmail := service.Login(ctx, "nobody@clinic.test", "whatever")

	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmail, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error(),
		"unknown email and wrong password must be indistinguishable")
}

func TestLoginThrottledAfterRepeatedFailures(t *testing.T) {
	service, _ := newTestService(t, testAccountSource(t, "alice@clinic.test", "correct-horse"))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := service.Login(ctx, "alice@clinic.test", "wrong")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}

	// Even the correct password is refused once the account is throttled.
	_, err := service.Login(ctx, "alice@clinic.test", "correct-horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginResetsThrottleOnSuccess(t *testing.T) {
	service, _ := newTestService(t, testAccountSource(t, "alice@clinic.test", "correct-horse"))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := service.Login(ctx, "alice@clinic.test", "wrong")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}

	_, err := service.Login(ctx, "alice@clinic.test", "correct-horse")
	require.NoError(t, err)

	// The counter restarted: two more failures do not trip the limit.
	for i := 0; i < 2; i++ {
		_, err := service.Login(ctx, "alice@clinic.test", "wrong")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}
	_, err = service.Login(ctx, "alice@clinic.test", "correct-horse")
	assert.NoError(t, err)
}
