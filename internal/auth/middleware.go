package auth

import (
	"net/http"
	"strings"
	"time"
)

// Middleware resolves the bearer token on protected routes and stores the
// principal in the request context.
type Middleware struct {
	resolver *Resolver
}

// NewMiddleware constructs a Middleware.
func NewMiddleware(resolver *Resolver) *Middleware {
	return &Middleware{resolver: resolver}
}

// RequirePrincipal rejects requests without a valid bearer token. The 401
// body is identical whether the header is missing, the token is invalid or
// the subject no longer exists.
func (m *Middleware) RequirePrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			RespondError(w, ErrInvalidCredentials)
			return
		}
		account, err := m.resolver.Resolve(r.Context(), token, time.Now().UTC())
		if err != nil {
			RespondError(w, ErrInvalidCredentials)
			return
		}
		ctx := ContextWithPrincipal(r.Context(), account)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
