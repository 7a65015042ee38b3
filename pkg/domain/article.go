package domain

import (
	"time"

	"github.com/google/uuid"
)

// Article is a catalogue item owned by a user. Money and percentage fields
// are fixed-point decimal strings exactly as stored.
type Article struct {
	ID               uuid.UUID
	OwnerID          uuid.UUID
	SourceInfo       *string
	Description      string
	TaxPercentage    string
	Cost             string
	ProfitPercentage string
	Active           bool
	// Barcodes are unique per owner.
	Barcodes  []string
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// IsDeleted returns true if the article has been soft-deleted.
func (a *Article) IsDeleted() bool {
	return a.DeletedAt != nil
}
