package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediport/mediport/internal/platform/httpx"
)

type fakeAccountSource struct {
	byEmail map[string]*Account
	err     error
	lookups int
}

func (f *fakeAccountSource) FindByEmail(ctx context.Context, email string) (*Account, error) {
	f.lookups++
	if f.err != nil {
		return nil, f.err
	}
	account, ok := f.byEmail[email]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	return account, nil
}

func TestResolverSuccess(t *testing.T) {
	codec := NewTokenCodec("test-secret", 30*time.Minute)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	source := &fakeAccountSource{byEmail: map[string]*Account{
		"alice@clinic.test": {ID: 7, Email: "alice@clinic.test", Role: RoleUser},
	}}
	resolver := NewResolver(codec, source)

	token, err := codec.Issue("alice@clinic.test", now)
	require.NoError(t, err)

	account, err := resolver.Resolve(context.Background(), token, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(7), account.ID)
	assert.Equal(t, 1, source.lookups, "resolve performs exactly one account lookup")
}

func TestResolverUniformFailure(t *testing.T) {
	codec := NewTokenCodec("test-secret", 30*time.Minute)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	source := &fakeAccountSource{byEmail: map[string]*Account{
		"alice@clinic.test": {ID: 7, Email: "alice@clinic.test", Role: RoleUser},
	}}
	resolver := NewResolver(codec, source)

	valid, err := codec.Issue("alice@clinic.test", now)
	require.NoError(t, err)
	forged, err := NewTokenCodec("other-secret", 30*time.Minute).Issue("alice@clinic.test", now)
	require.NoError(t, err)
	unknown, err := codec.Issue("nobody@clinic.test", now)
	require.NoError(t, err)

	cases := []struct {
		name  string
		token string
		at    time.Time
	}{
		{"expired", valid, now.Add(31 * time.Minute)},
		{"malformed", "not-a-token", now},
		{"forged", forged, now},
		{"subject deleted", unknown, now},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := resolver.Resolve(context.Background(), tc.token, tc.at)
			assert.True(t, errors.Is(err, ErrInvalidCredentials),
				"want uniform ErrInvalidCredentials, got %v", err)
		})
	}
}

func TestResolverHidesStorageErrors(t *testing.T) {
	codec := NewTokenCodec("test-secret", 30*time.Minute)
	now := time.Now().UTC()
	resolver := NewResolver(codec, &fakeAccountSource{err: errors.New("connection refused")})

	token, err := codec.Issue("alice@clinic.test", now)
	require.NoError(t, err)

	_, err = resolver.Resolve(context.Background(), token, now)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
