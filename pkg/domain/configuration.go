package domain

import (
	"time"

	"github.com/google/uuid"
)

// Configuration is a per-user key/value setting.
type Configuration struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Key         string
	Value       string
	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Defaults applied to every new user.
const (
	DefaultThemeKey         = "theme"
	DefaultThemeValue       = "light"
	DefaultThemeDescription = "Theme preference"
)
