package auth

import (
	"fmt"
	"time"
)

// Role is the closed set of capability levels an account can hold.
type Role string

const (
	RoleUser   Role = "user"
	RoleDoctor Role = "doctor"
	RoleAdmin  Role = "admin"
)

// ParseRole validates a stored role value. Unknown values are rejected at the
// storage boundary instead of being carried around as free text.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleDoctor, RoleAdmin:
		return Role(s), nil
	}
	return "", fmt.Errorf("auth: unknown role %q", s)
}

// Account represents a clinic account.
type Account struct {
	ID             int64
	CIN            string
	FirstName      string
	LastName       string
	Email          string
	Gender         string
	Phone          string
	PasswordHash   string
	Role           Role
	ProfilePicture string
	Language       string
	Theme          string
	CreatedAt      time.Time
}

// FullName returns the display name used in notification messages.
func (a *Account) FullName() string {
	return a.FirstName + " " + a.LastName
}

// Claims is the decoded payload of an access token.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// Owned is implemented by resources that belong to a single account.
type Owned interface {
	OwnedBy() int64
}

// AppointmentView exposes the appointment fields authorization cares about.
type AppointmentView interface {
	Owned
	AssignedDoctor() (int64, bool)
	Confirmed() bool
}
