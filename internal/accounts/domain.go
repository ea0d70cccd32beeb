package accounts

import "github.com/mediport/mediport/internal/auth"

// ProfileUpdate carries the optional fields of a profile edit.
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
	Gender    *string
	Phone     *string
}

// Settings is the per-account UI preference pair.
type Settings struct {
	Language string
	Theme    string
}

// RegisterInput is the validated payload for account creation.
type RegisterInput struct {
	CIN       string
	FirstName string
	LastName  string
	Email     string
	Gender    string
	Phone     string
	Password  string
}

// Account aliases the auth domain type; the authorization core owns the
// account shape because every predicate is defined over it.
type Account = auth.Account
