package auth

import (
	"errors"
	"net/http"

	"github.com/mediport/mediport/internal/platform/httpx"
)

// Token decode failures. They never cross the package boundary: the resolver
// collapses all of them into ErrInvalidCredentials so callers cannot tell a
// forged token from an expired one.
var (
	ErrTokenMalformed    = errors.New("auth: token malformed")
	ErrTokenBadSignature = errors.New("auth: token signature mismatch")
	ErrTokenExpired      = errors.New("auth: token expired")
)

// Errors crossing the authorization boundary.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidAssignee    = errors.New("assignee is not a doctor")
	ErrOperationFailed    = errors.New("operation failed")
)

// RespondError writes the problem response for an authorization error and
// falls back to the generic domain mapping for everything else.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid credentials")
	case errors.Is(err, ErrForbidden):
		httpx.Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, ErrInvalidAssignee):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Invalid Assignee", err.Error())
	case errors.Is(err, ErrOperationFailed):
		httpx.Problem(w, http.StatusInternalServerError, "Operation Failed", "")
	default:
		httpx.RespondError(w, err)
	}
}
