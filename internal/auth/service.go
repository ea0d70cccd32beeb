// Package auth holds the authorization core: password hashing, the token
// codec, the principal resolver, the authorization predicates and the
// resource guard every protected route goes through.
package auth

import (
	"context"
	"log/slog"
	"time"
)

// Service wraps the login exchange.
type Service struct {
	accounts AccountSource
	hasher   *Hasher
	codec    *TokenCodec
	throttle *LoginThrottle
	logger   *slog.Logger
}

// NewService constructs a new Service.
func NewService(accounts AccountSource, hasher *Hasher, codec *TokenCodec, throttle *LoginThrottle, logger *slog.Logger) *Service {
	return &Service{
		accounts: accounts,
		hasher:   hasher,
		codec:    codec,
		throttle: throttle,
		logger:   logger,
	}
}

// Login exchanges email/password credentials for a signed access token.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	blocked, err := s.throttle.Blocked(ctx, email)
	if err != nil {
		// Redis being down must not lock everyone out.
		s.logger.Warn("login throttle unavailable", slog.Any("error", err))
	}
	if blocked {
		return "", ErrInvalidCredentials
	}

	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		s.recordFailure(ctx, email)
		return "", ErrInvalidCredentials
	}
	if !s.hasher.Verify(password, account.PasswordHash) {
		s.recordFailure(ctx, email)
		return "", ErrInvalidCredentials
	}

	if err := s.throttle.Reset(ctx, email); err != nil {
		s.logger.Warn("login throttle reset", slog.Any("error", err))
	}

	token, err := s.codec.Issue(account.Email, time.Now().UTC())
	if err != nil {
		return "", err
	}
	return token, nil
}

func (s *Service) recordFailure(ctx context.Context, email string) {
	if err := s.throttle.RecordFailure(ctx, email); err != nil {
		s.logger.Warn("login throttle record", slog.Any("error", err))
	}
}
