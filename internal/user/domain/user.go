package domain

import (
	"errors"
	"strings"
	"time"
)

// User is an actor that can hold workspace memberships.
type User struct {
	ID        string
	Email     string
	Name      string
	Status    UserStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ErrEmailTaken is returned by the repository when another user already holds the email.
var ErrEmailTaken = errors.New("email already registered")

type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusDisabled UserStatus = "disabled"
)

// NormalizeEmail lowercases and trims an email address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate validates the user for persistence. Returns an error describing the first validation failure.
func (u *User) Validate() error {
	u.Email = NormalizeEmail(u.Email)
	if u.Email == "" {
		return errors.New("email is required")
	}
	if at := strings.LastIndexByte(u.Email, '@'); at <= 0 || at == len(u.Email)-1 || !strings.Contains(u.Email[at:], ".") {
		return errors.New("invalid email format")
	}
	if len(u.Name) > 200 {
		return errors.New("name must be at most 200 characters")
	}
	if u.Status == "" {
		u.Status = UserStatusActive
	}
	return nil
}

// Active reports whether the user may authenticate.
func (u *User) Active() bool {
	return u != nil && u.Status == UserStatusActive
}
