package domain

import (
	"time"

	"github.com/google/uuid"
)

// Organization represents a tenant: a business owned by a user.
type Organization struct {
	ID                    uuid.UUID
	OwnerID               uuid.UUID
	Name                  string
	ManagerIdentification *string
	Phone                 *string
	Email                 *string
	Address               *string
	CreatedAt             time.Time
	UpdatedAt             time.Time
	DeletedAt             *time.Time
}

// IsDeleted returns true if the organization has been soft-deleted.
func (o *Organization) IsDeleted() bool {
	return o.DeletedAt != nil
}
