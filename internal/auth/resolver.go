package auth

import (
	"context"
	"time"
)

// AccountSource looks up accounts for the resolver. Implemented by the
// accounts repository.
type AccountSource interface {
	FindByEmail(ctx context.Context, email string) (*Account, error)
}

// Resolver turns an inbound bearer token into the account it asserts.
type Resolver struct {
	codec    *TokenCodec
	accounts AccountSource
}

// NewResolver constructs a Resolver.
func NewResolver(codec *TokenCodec, accounts AccountSource) *Resolver {
	return &Resolver{codec: codec, accounts: accounts}
}

// Resolve decodes the token and loads the claimed account. Every failure mode
// collapses into ErrInvalidCredentials: callers must not be able to tell a
// forged token from an expired one or from a deleted account.
func (r *Resolver) Resolve(ctx context.Context, token string, now time.Time) (*Account, error) {
	claims, err := r.codec.Decode(token, now)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	account, err := r.accounts.FindByEmail(ctx, claims.Subject)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	return account, nil
}
