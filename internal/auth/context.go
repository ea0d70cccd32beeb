package auth

import "context"

type principalContextKey struct{}

// ContextWithPrincipal stores the authenticated account in context.
func ContextWithPrincipal(ctx context.Context, account *Account) context.Context {
	return context.WithValue(ctx, principalContextKey{}, account)
}

// PrincipalFromContext extracts the authenticated account from context.
func PrincipalFromContext(ctx context.Context) *Account {
	account, _ := ctx.Value(principalContextKey{}).(*Account)
	return account
}
