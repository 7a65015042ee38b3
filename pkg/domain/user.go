package domain

import (
	"time"

	"github.com/google/uuid"
)

// User represents an account that can own organizations and sessions.
type User struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// IsDeleted returns true if the user has been soft-deleted.
func (u *User) IsDeleted() bool {
	return u.DeletedAt != nil
}

// CanAuthenticate returns true if the user may log in.
func (u *User) CanAuthenticate() bool {
	return u.Active && !u.IsDeleted()
}

// Profile returns the sanitized view of the user. The password hash lives in
// UserPassword and never appears here.
func (u *User) Profile() *UserProfile {
	return &UserProfile{
		ID:     u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Active: u.Active,
	}
}

// UserProfile is the user representation returned to clients.
type UserProfile struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Email  string    `json:"email"`
	Active bool      `json:"active"`
}

// UserPassword stores password credentials separately from user profile.
type UserPassword struct {
	UserID            uuid.UUID
	PasswordHash      string
	PasswordUpdatedAt time.Time
}
