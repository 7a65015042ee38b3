package domain

import (
	"time"

	"github.com/google/uuid"
)

// Inventory is a stock list kept by an organization.
type Inventory struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Name           string
	Details        []InventoryDetail
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time
}

// IsDeleted returns true if the inventory has been soft-deleted.
func (i *Inventory) IsDeleted() bool {
	return i.DeletedAt != nil
}

// InventoryDetail is the stock of one article. Quantity goes negative when
// more units are sold than were counted.
type InventoryDetail struct {
	ArticleID uuid.UUID
	// Description is filled on reads.
	Description string
	Quantity    int
	Notes       *string
}
