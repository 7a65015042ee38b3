package domain

import (
	"time"

	"github.com/google/uuid"
)

// Client is a customer of an organization.
type Client struct {
	ID             uuid.UUID
	Identification string
	Name           string
	LastName       *string
	Email          *string
	Phone          *string
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time
}

// OrganizationClient links a client to an organization.
type OrganizationClient struct {
	OrganizationID uuid.UUID
	ClientID       uuid.UUID
	DeletedAt      *time.Time
}
